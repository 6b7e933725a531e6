package achievement

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Unlock is one badge earned at a point in time.
type Unlock struct {
	ID         uuid.UUID `json:"id"`
	Badge      Badge     `json:"badge"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

func NewUnlock(b Badge, at time.Time) Unlock {
	return Unlock{ID: uuid.New(), Badge: b, UnlockedAt: at}
}

// Queue is a FIFO of unlocks waiting to be shown. It is safe for
// concurrent use.
type Queue struct {
	mu    sync.Mutex
	items []Unlock
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends unlocks in order.
func (q *Queue) Push(unlocks ...Unlock) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, unlocks...)
}

// Pop removes and returns the oldest unlock.
func (q *Queue) Pop() (Unlock, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Unlock{}, false
	}
	u := q.items[0]
	q.items[0] = Unlock{}
	q.items = q.items[1:]
	return u, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// State of a Presenter.
type State int

const (
	Idle State = iota
	Showing
)

func (s State) String() string {
	if s == Showing {
		return "showing"
	}
	return "idle"
}

// Presenter drains a Queue one unlock at a time: Idle -> Showing on
// Advance, Showing -> Idle on Acknowledge.
type Presenter struct {
	queue   *Queue
	state   State
	current Unlock
}

func NewPresenter(q *Queue) *Presenter {
	return &Presenter{queue: q}
}

func (p *Presenter) State() State { return p.state }

// Current returns the unlock on screen, if any.
func (p *Presenter) Current() (Unlock, bool) {
	if p.state != Showing {
		return Unlock{}, false
	}
	return p.current, true
}

// Advance shows the next queued unlock when idle. It reports whether an
// unlock is showing afterwards.
func (p *Presenter) Advance() bool {
	if p.state == Showing {
		return true
	}
	u, ok := p.queue.Pop()
	if !ok {
		return false
	}
	p.current = u
	p.state = Showing
	return true
}

// Acknowledge dismisses the unlock on screen and returns it. It is a no-op
// when idle.
func (p *Presenter) Acknowledge() (Unlock, bool) {
	if p.state != Showing {
		return Unlock{}, false
	}
	u := p.current
	p.current = Unlock{}
	p.state = Idle
	return u, true
}
