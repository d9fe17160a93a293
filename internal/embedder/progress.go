package embedder

import "sync"

// ProgressSnapshot is the latest published embedding progress state.
type ProgressSnapshot struct {
	Stage     string `json:"stage"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Progress is an observable event source for embedding progress. It is owned
// by the embedder client; the chunking and ranking core never depends on it.
type Progress struct {
	mu   sync.Mutex
	snap ProgressSnapshot
	subs map[int]func(ProgressSnapshot)
	next int
}

// NewProgress creates an empty progress publisher.
func NewProgress() *Progress {
	return &Progress{subs: make(map[int]func(ProgressSnapshot))}
}

// Subscribe registers fn for future snapshots and returns an unsubscribe
// function.
func (p *Progress) Subscribe(fn func(ProgressSnapshot)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Snapshot returns the most recently published state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Publish records a new snapshot and notifies subscribers.
func (p *Progress) Publish(snap ProgressSnapshot) {
	p.mu.Lock()
	p.snap = snap
	subs := make([]func(ProgressSnapshot), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
