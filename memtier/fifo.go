package memtier

import "container/list"

// fifoPolicy implements insertion-order eviction (§4.3): order is set at
// write and never changed by reads; on overflow, evict the
// oldest-inserted.
type fifoPolicy struct {
	order *list.List
	elems map[string]*list.Element
}

func newFIFOPolicy() *fifoPolicy {
	return &fifoPolicy{
		order: list.New(),
		elems: make(map[string]*list.Element),
	}
}

func (p *fifoPolicy) onInsert(rec *record) {
	p.elems[rec.key] = p.order.PushBack(rec.key)
}

// onAccess is a no-op: FIFO order is fixed at insertion.
func (p *fifoPolicy) onAccess(rec *record) {}

func (p *fifoPolicy) onRemove(key string) {
	if e, ok := p.elems[key]; ok {
		p.order.Remove(e)
		delete(p.elems, key)
	}
}

func (p *fifoPolicy) evict() (string, bool) {
	front := p.order.Front()
	if front == nil {
		return "", false
	}
	key := front.Value.(string)
	p.order.Remove(front)
	delete(p.elems, key)
	return key, true
}

func (p *fifoPolicy) clear() {
	p.order.Init()
	p.elems = make(map[string]*list.Element)
}
