package draft

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
	"github.com/kbukum/draftkit/logger"
)

// Options configures a Store. Zero fields take defaults.
type Options[T any] struct {
	Config

	Codec   Codec[T]
	Clock   Clock
	Logger  *logger.Logger
	Metrics Metrics
	// OnError receives failures of flushes that ran on a timer, where no
	// caller is waiting for the result. It is called without the store lock.
	OnError func(key string, err error)
}

// Snapshot is a consistent view of a store's observable state.
type Snapshot[T any] struct {
	Key       string
	Value     T
	State     State
	IsLoaded  bool
	HasDraft  bool
	Pending   bool
	LastSaved time.Time
}

// Store keeps one draft value in memory and persists it to a kv.Store under
// the configured write strategy. All methods are safe for concurrent use.
type Store[T any] struct {
	key     string
	cfg     Config
	codec   Codec[T]
	clock   Clock
	log     *logger.Logger
	metrics Metrics
	onError func(string, error)
	records *Records
	sched   *Scheduler

	mu         sync.Mutex
	state      State
	closed     bool
	initial    T
	initialSer string
	value      T
	serialized string
	hasDraft   bool
	lastSaved  time.Time
	// newest stored stamp this store has seen, the baseline for conflicts
	seen    time.Time
	lastErr error
}

// New creates a store for key (normalized with the configured suffix) in
// StateUninitialized. Call Load before writing.
func New[T any](backend kv.Store, key string, initial T, opts Options[T]) (*Store[T], error) {
	cfg := opts.Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	normalized, err := NormalizeKey(key, cfg.Suffix())
	if err != nil {
		return nil, err
	}

	s := &Store[T]{
		key:     normalized,
		cfg:     cfg,
		codec:   opts.Codec,
		clock:   opts.Clock,
		log:     opts.Logger,
		metrics: opts.Metrics,
		onError: opts.OnError,
		records: NewRecords(backend, cfg.LastSavedKey),
		initial: initial,
		value:   initial,
	}
	if s.codec == nil {
		s.codec = JSONCodec[T]{}
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.log == nil {
		s.log = logger.WithComponent("draft")
	}
	s.log = s.log.WithFields(logger.Fields(logger.FieldDraftKey, normalized))
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}

	if s.initialSer, err = s.codec.Serialize(initial); err != nil {
		return nil, errors.InvalidInput("initial", "initial value cannot be serialized").WithCause(err)
	}
	s.serialized = s.initialSer
	s.sched = NewScheduler(cfg, s.clock, s.onTick)
	return s, nil
}

// Key returns the normalized storage key.
func (s *Store[T]) Key() string { return s.key }

// Load hydrates the store from storage. A missing or undecodable record
// leaves the initial value in place; only backend read failures are returned.
// Calling Load again after success is a no-op.
func (s *Store[T]) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.StoreClosed(s.key)
	}
	if s.state != StateUninitialized {
		return nil
	}

	rec, ok, err := s.records.Get(ctx, s.key)
	if err != nil && !errors.HasCode(err, errors.ErrCodeCorruptDraft) {
		s.metrics.RecordError(ctx, "load")
		return err
	}
	if err != nil {
		s.log.Warn("Ignoring malformed draft record", logger.ErrorFields("load", err))
	}

	if ok {
		v, decErr := s.codec.Deserialize(rec.Value)
		s.seen = rec.LastSaved
		if decErr != nil {
			s.log.Warn("Ignoring undecodable draft value", logger.ErrorFields("load", decErr))
			ok = false
		} else {
			s.value = v
			s.serialized = rec.Value
			s.hasDraft = true
			s.lastSaved = rec.LastSaved
			s.sched.SetLastSave(rec.LastSaved)
		}
	}
	if !ok {
		s.sched.SetLastSave(s.clock.Now())
	}

	s.state, _ = Transition(s.state, EventLoad)
	s.log.Debug("Draft loaded", logger.Fields("found", s.hasDraft))
	return nil
}

// Set replaces the draft value. A value that serializes identically to the
// current one is ignored. The write happens according to the strategy; the
// returned error is only non-nil when the value is rejected or an immediate
// flush fails.
func (s *Store[T]) Set(ctx context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(ctx, v)
}

// Update applies fn to the current value and stores the result like Set.
func (s *Store[T]) Update(ctx context.Context, fn func(T) T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}
	return s.setLocked(ctx, fn(s.value))
}

// updateIfChanged is Update for callers that can tell cheaply that nothing
// changed, skipping serialization.
func (s *Store[T]) updateIfChanged(ctx context.Context, fn func(T) (T, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}
	next, changed := fn(s.value)
	if !changed {
		return nil
	}
	return s.setLocked(ctx, next)
}

func (s *Store[T]) setLocked(ctx context.Context, v T) error {
	if err := s.writableLocked(); err != nil {
		return err
	}
	ser, err := s.codec.Serialize(v)
	if err != nil {
		return errors.InvalidInput("value", "draft value cannot be serialized").WithCause(err)
	}
	if ser == s.serialized {
		return nil
	}

	s.value = v
	s.serialized = ser
	s.state, _ = Transition(s.state, EventChange)

	if s.sched.Schedule() {
		return s.flushLocked(ctx, TriggerImmediate)
	}
	return nil
}

// SaveNow stores v and writes it immediately, cancelling any scheduled flush.
func (s *Store[T]) SaveNow(ctx context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		return err
	}
	ser, err := s.codec.Serialize(v)
	if err != nil {
		return errors.InvalidInput("value", "draft value cannot be serialized").WithCause(err)
	}
	s.sched.Cancel()
	s.value = v
	s.serialized = ser
	s.state, _ = Transition(s.state, EventChange)
	return s.flushLocked(ctx, TriggerManual)
}

// Flush writes the pending value now, if there is one.
func (s *Store[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.StoreClosed(s.key)
	}
	if s.state != StateDirtyPending {
		return nil
	}
	s.sched.Cancel()
	return s.flushLocked(ctx, TriggerManual)
}

// Clear cancels pending writes, deletes the stored record and resets the
// value to the initial one.
func (s *Store[T]) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.StoreClosed(s.key)
	}
	s.sched.Cancel()
	if err := s.records.Delete(ctx, s.key); err != nil {
		s.metrics.RecordError(ctx, "clear")
		return err
	}

	s.value = s.initial
	s.serialized = s.initialSer
	s.hasDraft = false
	s.lastSaved = time.Time{}
	s.seen = time.Time{}
	s.lastErr = nil
	s.sched.SetLastSave(s.clock.Now())
	s.state, _ = Transition(s.state, EventClear)
	s.log.Debug("Draft cleared")
	return nil
}

// Close flushes a pending value synchronously, stops the timers and makes
// every later call fail with STORE_CLOSED. Closing twice is a no-op.
func (s *Store[T]) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	var err error
	if s.state == StateDirtyPending {
		s.sched.Cancel()
		err = s.flushLocked(ctx, TriggerClose)
	}
	s.sched.Cancel()
	s.closed = true
	return err
}

// Draft returns the current in-memory value.
func (s *Store[T]) Draft() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// IsLoaded reports whether Load has completed.
func (s *Store[T]) IsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateUninitialized
}

// HasDraft reports whether a record exists in storage for this store.
func (s *Store[T]) HasDraft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasDraft
}

// LastSaved returns the time of the last write this store saw, zero if none.
func (s *Store[T]) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// State returns the current lifecycle state.
func (s *Store[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the most recent flush failure, cleared by the next
// successful write.
func (s *Store[T]) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns all observable state at once.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[T]{
		Key:       s.key,
		Value:     s.value,
		State:     s.state,
		IsLoaded:  s.state != StateUninitialized,
		HasDraft:  s.hasDraft,
		Pending:   s.state == StateDirtyPending,
		LastSaved: s.lastSaved,
	}
}

func (s *Store[T]) writableLocked() error {
	if s.closed {
		return errors.StoreClosed(s.key)
	}
	if s.state == StateUninitialized {
		return errors.NotLoaded(s.key)
	}
	return nil
}

// onTick handles a scheduler timer. It runs on the timer goroutine.
func (s *Store[T]) onTick(t Tick) {
	s.mu.Lock()
	if s.closed || !s.sched.Due(t) {
		s.mu.Unlock()
		return
	}
	if s.state != StateDirtyPending {
		s.sched.Cancel()
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FlushTimeout)
	err := s.flushLocked(ctx, t.Trigger)
	cancel()
	onError := s.onError
	s.mu.Unlock()

	if err != nil && onError != nil {
		onError(s.key, err)
	}
}

// flushLocked writes the current value. On failure the value stays pending
// and the error is kept for LastError.
func (s *Store[T]) flushLocked(ctx context.Context, trigger Trigger) error {
	if s.cfg.Conflict == ConflictReject {
		if err := s.checkConflictLocked(ctx); err != nil {
			return s.failLocked(ctx, trigger, err)
		}
	}

	at := stamp(s.clock.Now())
	if at.Before(s.seen) {
		at = s.seen
	}
	n, err := s.records.Put(ctx, s.key, Record{LastSaved: at, Value: s.serialized})
	if err != nil {
		return s.failLocked(ctx, trigger, err)
	}

	s.lastSaved = at
	s.seen = at
	s.hasDraft = true
	s.lastErr = nil
	s.sched.MarkSaved(at)
	s.state, _ = Transition(s.state, EventFlush)

	s.metrics.RecordFlush(ctx, s.cfg.Strategy, trigger, n)
	s.log.Debug("Draft flushed", logger.Fields(
		logger.FieldStrategy, string(s.cfg.Strategy),
		logger.FieldTrigger, string(trigger),
		logger.FieldBytes, n,
	))
	return nil
}

func (s *Store[T]) checkConflictLocked(ctx context.Context) error {
	rec, ok, err := s.records.Get(ctx, s.key)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeCorruptDraft) {
			return nil
		}
		return err
	}
	if ok && rec.LastSaved.After(s.seen) {
		return errors.Conflict("draft was saved by another writer").
			WithDetails(map[string]any{"key": s.key, "stored_last_saved": rec.LastSaved.UnixMilli()})
	}
	return nil
}

func (s *Store[T]) failLocked(ctx context.Context, trigger Trigger, err error) error {
	s.lastErr = err
	s.sched.Cancel()
	s.metrics.RecordError(ctx, "flush")
	s.log.Error("Draft flush failed", logger.Fields(
		logger.FieldTrigger, string(trigger),
		logger.FieldError, err.Error(),
	))
	return err
}
