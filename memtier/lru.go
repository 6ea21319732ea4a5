package memtier

import "container/list"

// lruPolicy implements recency eviction (§4.3): on read hit and on
// write, the entry becomes most-recent; on overflow, evict the
// least-recent. Grounded on the map+container/list idiom used for LRU
// throughout the retrieval pack's cache implementations.
type lruPolicy struct {
	order *list.List
	elems map[string]*list.Element
}

func newLRUPolicy() *lruPolicy {
	return &lruPolicy{
		order: list.New(),
		elems: make(map[string]*list.Element),
	}
}

func (p *lruPolicy) onInsert(rec *record) {
	p.elems[rec.key] = p.order.PushFront(rec.key)
}

func (p *lruPolicy) onAccess(rec *record) {
	if e, ok := p.elems[rec.key]; ok {
		p.order.MoveToFront(e)
	}
}

func (p *lruPolicy) onRemove(key string) {
	if e, ok := p.elems[key]; ok {
		p.order.Remove(e)
		delete(p.elems, key)
	}
}

func (p *lruPolicy) evict() (string, bool) {
	back := p.order.Back()
	if back == nil {
		return "", false
	}
	key := back.Value.(string)
	p.order.Remove(back)
	delete(p.elems, key)
	return key, true
}

func (p *lruPolicy) clear() {
	p.order.Init()
	p.elems = make(map[string]*list.Element)
}
