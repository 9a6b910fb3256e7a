// Package tracker holds the client-side mirror of an in-progress tracking
// session. Mutations go through an optimistic-then-confirm protocol against
// the remote store; the store is the source of truth and wins all conflicts.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldtrack/tracker-go/internal/model"
	"github.com/fieldtrack/tracker-go/internal/stats"
)

type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
	StateEnded  State = "ended"
)

var (
	ErrNoSession        = errors.New("no session")
	ErrSessionNotActive = errors.New("session is not active")
	ErrSessionNotEnded  = errors.New("session has not ended")
	ErrNoApproaches     = errors.New("no approaches logged yet")
	// ErrApproachPending means the most recent approach has not been
	// confirmed by the store yet, so there is no server id to patch.
	ErrApproachPending = errors.New("approach awaiting confirmation")
)

// ActiveSessionFoundError is returned by Start when the store already holds
// an active session for this account. The caller must choose: Resume to
// adopt it, or Abandon it and start again.
type ActiveSessionFoundError struct {
	Existing *ActiveResult
}

func (e *ActiveSessionFoundError) Error() string {
	return "an active session already exists"
}

type recordKind int

const (
	recordPending recordKind = iota
	recordConfirmed
)

// record is the tagged union of an optimistic and a confirmed approach.
// While pending, approach.ID carries the temporary id.
type record struct {
	kind     recordKind
	tempID   string
	approach model.Approach
}

// Snapshot is an immutable view of the tracker for display.
type Snapshot struct {
	State      State
	Session    *model.Session
	Approaches []model.Approach
	Stats      *stats.LiveStats
	Err        string
}

const (
	tickInterval = time.Second
	subBuffer    = 16
)

type Tracker struct {
	store Store
	now   func() time.Time
	onEnd func(model.SessionSummary)

	mu       sync.Mutex
	state    State
	session  *model.Session
	records  []record
	errMsg   string
	subs     map[chan Snapshot]struct{}
	tickStop chan struct{}
}

func New(store Store) *Tracker {
	return &Tracker{
		store: store,
		now:   time.Now,
		state: StateIdle,
		subs:  make(map[chan Snapshot]struct{}),
	}
}

// OnSessionEnd registers a callback invoked with the closing summary
// whenever End succeeds.
func (t *Tracker) OnSessionEnd(fn func(model.SessionSummary)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnd = fn
}

// Start creates a new session. The store is queried first: if an active
// session already exists the start is aborted and an
// *ActiveSessionFoundError is returned so the caller can offer resume or
// abandon. Any failure leaves local state unchanged.
func (t *Tracker) Start(ctx context.Context, params StartParams) error {
	t.mu.Lock()
	if t.state == StateActive {
		t.mu.Unlock()
		return t.fail("a session is already being tracked", nil)
	}
	t.mu.Unlock()

	existing, err := t.store.ActiveSession(ctx)
	if err != nil {
		return t.fail("failed to check for an active session", err)
	}
	if existing != nil && existing.Session != nil {
		return &ActiveSessionFoundError{Existing: existing}
	}

	session, err := t.store.StartSession(ctx, params)
	if err != nil {
		return t.fail("failed to start session", err)
	}

	t.mu.Lock()
	t.session = session
	t.records = nil
	t.state = StateActive
	t.errMsg = ""
	t.startTickerLocked()
	t.notifyLocked()
	t.mu.Unlock()

	log.Debug().Str("sessionId", session.ID).Msg("tracker: session started")
	return nil
}

// Resume adopts the store's active session and its approach log, e.g.
// after a reload or a Start rejected with ActiveSessionFoundError.
func (t *Tracker) Resume(ctx context.Context) error {
	result, err := t.store.ActiveSession(ctx)
	if err != nil {
		return t.fail("failed to fetch active session", err)
	}
	if result == nil || result.Session == nil {
		return ErrNoSession
	}

	t.adopt(result)
	log.Debug().Str("sessionId", result.Session.ID).Msg("tracker: session adopted")
	return nil
}

// Abandon abandons a session on the store without adopting it. Used to
// clear a conflicting active session before retrying Start.
func (t *Tracker) Abandon(ctx context.Context, sessionID string) error {
	if _, err := t.store.AbandonSession(ctx, sessionID); err != nil {
		return t.fail("failed to abandon session", err)
	}

	t.mu.Lock()
	if t.session != nil && t.session.ID == sessionID {
		t.state = StateIdle
		t.session = nil
		t.records = nil
		t.stopTickerLocked()
	}
	t.errMsg = ""
	t.notifyLocked()
	t.mu.Unlock()
	return nil
}

// AddApproach optimistically appends a record under a temporary id, then
// confirms it against the store. Confirmations are matched strictly by
// temporary id, so concurrent adds tolerate out-of-order responses. On
// failure the optimistic record is removed; there is no automatic retry.
func (t *Tracker) AddApproach(ctx context.Context, data ApproachData) error {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return ErrSessionNotActive
	}
	sessionID := t.session.ID

	tempID := uuid.NewString()
	ts := t.now()
	if data.Timestamp != nil {
		ts = *data.Timestamp
	}

	pending := model.Approach{
		ID:        tempID,
		SessionID: sessionID,
		Timestamp: ts,
		Outcome:   data.Outcome,
		Mood:      data.Mood,
		Note:      data.Note,
		Tags:      data.Tags,
		Latitude:  data.Latitude,
		Longitude: data.Longitude,
	}
	t.records = append(t.records, record{kind: recordPending, tempID: tempID, approach: pending})
	t.notifyLocked()
	t.mu.Unlock()

	confirmed, err := t.store.CreateApproach(ctx, sessionID, data)

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexByTempID(tempID)
	if err != nil {
		if idx >= 0 {
			t.records = append(t.records[:idx], t.records[idx+1:]...)
		}
		t.errMsg = "failed to log approach: " + err.Error()
		t.notifyLocked()
		return fmt.Errorf("create approach: %w", err)
	}

	if idx >= 0 {
		t.records[idx] = record{kind: recordConfirmed, approach: *confirmed}
	}
	if t.session != nil {
		t.session.ApproachCount++
	}
	t.errMsg = ""
	t.notifyLocked()
	return nil
}

// UpdateLastApproach patches the most recently added approach, by position
// rather than timestamp, so a backdated quick-log still edits the record
// the user just created. The local record is only mutated once the store
// confirms.
func (t *Tracker) UpdateLastApproach(ctx context.Context, patch ApproachPatch) error {
	t.mu.Lock()
	if len(t.records) == 0 {
		t.mu.Unlock()
		return ErrNoApproaches
	}
	last := t.records[len(t.records)-1]
	if last.kind == recordPending {
		t.mu.Unlock()
		return ErrApproachPending
	}
	approachID := last.approach.ID
	t.mu.Unlock()

	confirmed, err := t.store.UpdateApproach(ctx, approachID, patch)
	if err != nil {
		return t.fail("failed to update approach", err)
	}

	t.mu.Lock()
	for i := range t.records {
		if t.records[i].kind == recordConfirmed && t.records[i].approach.ID == confirmed.ID {
			t.records[i].approach = *confirmed
			break
		}
	}
	t.errMsg = ""
	t.notifyLocked()
	t.mu.Unlock()
	return nil
}

// SetGoal patches the session goal, confirmation-first.
func (t *Tracker) SetGoal(ctx context.Context, goal int) error {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return ErrNoSession
	}
	sessionID := t.session.ID
	t.mu.Unlock()

	session, err := t.store.UpdateSession(ctx, sessionID, &goal, nil)
	if err != nil {
		return t.fail("failed to update goal", err)
	}

	t.mu.Lock()
	t.session = session
	t.errMsg = ""
	t.notifyLocked()
	t.mu.Unlock()
	return nil
}

// End closes the active session. On success the tracker transitions to
// Ended and the end callback receives the closing summary; on failure the
// session stays active.
func (t *Tracker) End(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return ErrSessionNotActive
	}
	sessionID := t.session.ID
	t.mu.Unlock()

	result, err := t.store.EndSession(ctx, sessionID)
	if err != nil {
		return t.fail("failed to end session", err)
	}

	t.mu.Lock()
	t.session = result.Session
	t.state = StateEnded
	t.errMsg = ""
	t.stopTickerLocked()
	cb := t.onEnd
	t.notifyLocked()
	t.mu.Unlock()

	if cb != nil && result.Summary != nil {
		cb(*result.Summary)
	}

	log.Debug().Str("sessionId", sessionID).Msg("tracker: session ended")
	return nil
}

// Reactivate re-opens the ended session, restoring the approach list from
// server state.
func (t *Tracker) Reactivate(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateEnded || t.session == nil {
		t.mu.Unlock()
		return ErrSessionNotEnded
	}
	sessionID := t.session.ID
	t.mu.Unlock()

	result, err := t.store.ReactivateSession(ctx, sessionID)
	if err != nil {
		return t.fail("failed to reactivate session", err)
	}

	t.adopt(result)
	log.Debug().Str("sessionId", sessionID).Msg("tracker: session reactivated")
	return nil
}

// Snapshot returns a consistent copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot on every state change
// and once per second while a session is active. Slow consumers miss
// intermediate snapshots rather than blocking the tracker.
func (t *Tracker) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, subBuffer)
	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()
	return ch
}

func (t *Tracker) Unsubscribe(ch chan Snapshot) {
	t.mu.Lock()
	if _, ok := t.subs[ch]; ok {
		delete(t.subs, ch)
		close(ch)
	}
	t.mu.Unlock()
}

// Close stops the ticker and closes all subscriber channels.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.stopTickerLocked()
	for ch := range t.subs {
		close(ch)
	}
	t.subs = make(map[chan Snapshot]struct{})
	t.mu.Unlock()
}

func (t *Tracker) adopt(result *ActiveResult) {
	t.mu.Lock()
	t.session = result.Session
	t.records = make([]record, 0, len(result.Approaches))
	for _, a := range result.Approaches {
		t.records = append(t.records, record{kind: recordConfirmed, approach: a})
	}
	t.state = StateActive
	t.errMsg = ""
	t.startTickerLocked()
	t.notifyLocked()
	t.mu.Unlock()
}

func (t *Tracker) snapshotLocked() Snapshot {
	snap := Snapshot{
		State: t.state,
		Err:   t.errMsg,
	}

	if t.session != nil {
		session := *t.session
		snap.Session = &session

		approaches := make([]model.Approach, len(t.records))
		for i, r := range t.records {
			approaches[i] = r.approach
		}
		snap.Approaches = approaches

		s := stats.Compute(&session, approaches, t.now())
		snap.Stats = &s
	}

	return snap
}

func (t *Tracker) notifyLocked() {
	snap := t.snapshotLocked()
	for ch := range t.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (t *Tracker) startTickerLocked() {
	if t.tickStop != nil {
		return
	}
	stop := make(chan struct{})
	t.tickStop = stop

	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.mu.Lock()
				t.notifyLocked()
				t.mu.Unlock()
			}
		}
	}()
}

func (t *Tracker) stopTickerLocked() {
	if t.tickStop != nil {
		close(t.tickStop)
		t.tickStop = nil
	}
}

func (t *Tracker) indexByTempID(tempID string) int {
	for i, r := range t.records {
		if r.kind == recordPending && r.tempID == tempID {
			return i
		}
	}
	return -1
}

// fail records a human-readable error in state and returns the wrapped
// cause. Failures never panic past the tracker boundary.
func (t *Tracker) fail(msg string, cause error) error {
	t.mu.Lock()
	if cause != nil {
		t.errMsg = msg + ": " + cause.Error()
	} else {
		t.errMsg = msg
	}
	t.notifyLocked()
	t.mu.Unlock()

	if cause != nil {
		return fmt.Errorf("%s: %w", msg, cause)
	}
	return errors.New(msg)
}
