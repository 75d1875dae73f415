package approval

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
)

// DefaultTimeout bounds how long a tool call waits for a user decision
// before it is auto-denied.
const DefaultTimeout = 5 * time.Minute

// ReasonExpired marks an approval that timed out without a user
// decision.
const ReasonExpired = "expired"

// DefaultRetention bounds how long terminal decisions are kept for
// idempotency checks. Repeats of a decision arrive within moments of
// the original; entries past the window are swept so the decided set
// does not grow for the life of the process.
const DefaultRetention = 30 * time.Minute

// Decision is the terminal outcome of one approval
type Decision struct {
	Approved bool
	Reason   string
}

// Broker routes user approval decisions to the tool calls waiting on
// them. Each approval id resolves independently, so a user can decide
// pending calls in any order. The first decision for an id wins;
// repeated decisions are no-ops.
//
// Single-process only: decisions are delivered over in-memory channels.
type Broker struct {
	mu        sync.Mutex
	timeout   time.Duration
	retention time.Duration
	pending   map[model.ApprovalID]chan Decision
	decided   map[model.ApprovalID]decidedEntry
}

// decidedEntry records a terminal decision and when it was made, so
// stale entries can be swept after the retention window.
type decidedEntry struct {
	decision Decision
	at       time.Time
}

// Option is a functional option for Broker configuration
type Option func(*Broker)

// WithTimeout overrides the auto-deny timeout
func WithTimeout(d time.Duration) Option {
	return func(b *Broker) {
		b.timeout = d
	}
}

// WithRetention overrides how long terminal decisions are kept
func WithRetention(d time.Duration) Option {
	return func(b *Broker) {
		b.retention = d
	}
}

// New creates a new approval broker
func New(opts ...Option) *Broker {
	b := &Broker{
		timeout:   DefaultTimeout,
		retention: DefaultRetention,
		pending:   make(map[model.ApprovalID]chan Decision),
		decided:   make(map[model.ApprovalID]decidedEntry),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// sweepLocked drops decided entries older than the retention window.
// Callers must hold b.mu.
func (b *Broker) sweepLocked(now time.Time) {
	for id, e := range b.decided {
		if now.Sub(e.at) > b.retention {
			delete(b.decided, id)
		}
	}
}

// Wait blocks until the approval is decided, the timeout elapses, or
// the context is cancelled. A timeout resolves to a denial with reason
// "expired". A decision that arrived before Wait was called resolves
// immediately.
func (b *Broker) Wait(ctx context.Context, id model.ApprovalID) (Decision, error) {
	b.mu.Lock()
	if e, ok := b.decided[id]; ok {
		b.mu.Unlock()
		return e.decision, nil
	}
	ch, ok := b.pending[id]
	if !ok {
		ch = make(chan Decision, 1)
		b.pending[id] = ch
	}
	b.mu.Unlock()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case d := <-ch:
		return d, nil

	case <-timer.C:
		d := Decision{Approved: false, Reason: ReasonExpired}
		b.mu.Lock()
		if prev, ok := b.decided[id]; ok {
			// A real decision raced the timeout
			d = prev.decision
		} else {
			b.decided[id] = decidedEntry{decision: d, at: time.Now()}
			delete(b.pending, id)
		}
		b.mu.Unlock()
		logging.From(ctx).Info("approval expired without user decision", "approvalID", id)
		return d, nil

	case <-ctx.Done():
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
		return Decision{}, goerr.Wrap(ctx.Err(), "approval wait cancelled", goerr.V("approvalID", id))
	}
}

// Resolve records the user's decision for the given approval id and
// wakes the waiting tool call. It returns false when the approval was
// already decided; the later decision is discarded.
func (b *Broker) Resolve(id model.ApprovalID, approved bool, reason string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.sweepLocked(now)

	if _, ok := b.decided[id]; ok {
		return false
	}

	d := Decision{Approved: approved, Reason: reason}
	b.decided[id] = decidedEntry{decision: d, at: now}

	if ch, ok := b.pending[id]; ok {
		ch <- d
		delete(b.pending, id)
	}
	return true
}

// Decided returns the recorded decision for an approval id, if any
func (b *Broker) Decided(id model.ApprovalID) (Decision, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.decided[id]
	return e.decision, ok
}
