// Package streaming implements the step streaming fabric: a
// multi-producer, single-consumer, effectively unbounded channel of
// execution steps, shared between a top-level ReAct execution and every
// nested delegated execution via cloned sender handles.
//
// Grounded on the teacher's internal/gateway/ws_control_plane.go send-queue
// idiom (a buffered channel drained by a writer goroutine), generalized
// here from a fixed-size buffer to unbounded semantics: producers must
// never block on emission, since a nested delegated execution may be many
// calls deep and synchronous blocking there would deadlock the parent.
package streaming

import (
	"sync"

	"github.com/bluestarburst/cf-ai-local-tools/internal/models"
)

// Pipeline owns the unbounded internal queue and the output channel a
// single writer task drains. The zero value is not usable; use NewPipeline.
type Pipeline struct {
	out chan models.ExecutionStep

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []models.ExecutionStep
	refs     int
	closed   bool
	draining bool
}

// NewPipeline creates a pipeline with one initial sender reference, and
// starts the background goroutine that forwards queued steps to Steps().
func NewPipeline() *Pipeline {
	p := &Pipeline{
		out:  make(chan models.ExecutionStep),
		refs: 1,
	}
	p.cond = sync.NewCond(&p.mu)
	go p.drain()
	return p
}

// Steps returns the channel the writer task should range over. It is
// closed once every sender (including every clone) has been released.
func (p *Pipeline) Steps() <-chan models.ExecutionStep {
	return p.out
}

// Sender returns a handle producers use to emit steps and to clone/release
// their reference.
func (p *Pipeline) Sender() *Sender {
	return &Sender{p: p}
}

// Sender is a reference-counted handle onto a Pipeline. The ReAct executor
// holds one per execution (top-level or nested); delegation clones it
// before recursing so the nested execution owns an independent reference
// without moving the parent's.
type Sender struct {
	p        *Pipeline
	released bool
	mu       sync.Mutex
}

// Send enqueues step without blocking. A send after the pipeline has begun
// closing (every sender released) is silently dropped, matching the
// teacher's "best effort, never block the caller" send semantics.
func (s *Sender) Send(step models.ExecutionStep) {
	if s == nil || s.p == nil {
		return
	}
	p := s.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.queue = append(p.queue, step)
	p.cond.Signal()
}

// Clone returns a new Sender sharing the same pipeline and increments the
// pipeline's reference count. Used when the delegation engine recurses into
// a nested ReAct execution: the nested execution gets its own Sender value
// (so it can Release independently) without the parent's reference being
// consumed.
func (s *Sender) Clone() *Sender {
	if s == nil || s.p == nil {
		return nil
	}
	s.p.mu.Lock()
	s.p.refs++
	s.p.mu.Unlock()
	return &Sender{p: s.p}
}

// Release drops this handle's reference. Once every outstanding reference
// (the original plus every clone) has been released, the pipeline finishes
// draining its queue and closes Steps().
func (s *Sender) Release() {
	if s == nil || s.p == nil {
		return
	}
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.mu.Unlock()

	p := s.p
	p.mu.Lock()
	p.refs--
	if p.refs <= 0 {
		p.closed = true
		p.cond.Signal()
	}
	p.mu.Unlock()
}

// drain forwards queued steps to the output channel until the pipeline is
// closed and its queue is empty, then closes the output channel.
func (p *Pipeline) drain() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closed {
			p.mu.Unlock()
			close(p.out)
			return
		}
		step := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.out <- step
	}
}
