// Package pipeline implements the reassembly engine: per-pipeline state
// tracking, the record acceptance policy, and ordered draining of each
// pipeline's accepted fragments.
package pipeline

import "sort"

// Fragment is one decoded unit of a pipeline's content.
// Immutable once constructed.
type Fragment struct {
	// ID orders the fragment within its pipeline.
	ID uint8
	// Body is the decoded payload.
	Body []byte
}

// Sink receives accepted fragments as they are stored.
// The journal writer implements this; a nil sink disables it.
type Sink interface {
	Append(pipelineID uint8, frag Fragment) error
}

// Pipeline holds the reassembly state for one logical stream.
//
// States: open (accepting, expectation may or may not be set) and closed
// (terminal, rejects everything). closed is monotonic and the store never
// receives entries after it is set. Transitions happen only through
// Registry.Insert.
type Pipeline struct {
	id     uint8
	next   *uint8
	closed bool
	store  []Fragment
}

func newPipeline(id uint8) *Pipeline {
	return &Pipeline{id: id}
}

// Closed reports whether the pipeline has reached its terminal state.
func (p *Pipeline) Closed() bool {
	return p.closed
}

// Expecting returns the fragment id the pipeline predicts it will see next.
// ok is false when no expectation is set.
func (p *Pipeline) Expecting() (id uint8, ok bool) {
	if p.next == nil {
		return 0, false
	}
	return *p.next, true
}

// Len returns the number of stored fragments.
func (p *Pipeline) Len() int {
	return len(p.store)
}

// drain empties the store, returning fragments in non-decreasing id order.
// Equal ids keep arrival order.
func (p *Pipeline) drain() []Fragment {
	frags := p.store
	p.store = nil
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].ID < frags[j].ID
	})
	return frags
}
