// Package reconcile keeps a local baseline snapshot in agreement with the
// spreadsheet behind the API. It polls the content hash, classifies each
// detected change as local-origin or external, and stages external diffs
// until the caller acknowledges them.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmelero/compra/internal/snapshot"
)

// DefaultInterval is the polling cadence.
const DefaultInterval = 30 * time.Second

// tokenTTL bounds how long a registered write can suppress change
// notifications. A write whose effect never shows up within this window is
// considered lost and stops counting.
const tokenTTL = 2 * time.Minute

// ErrBusy is returned by Poll when another poll is already in flight.
var ErrBusy = errors.New("a poll is already in progress")

// Source provides the remote snapshot and its hash. *apiclient.Client
// satisfies it.
type Source interface {
	GetHash(ctx context.Context) (string, error)
	GetItems(ctx context.Context) (snapshot.Snapshot, error)
}

// Notifier is told about externally-originated changes. It runs on the poll
// goroutine, so implementations should return promptly.
type Notifier interface {
	ExternalChange(change Staged)
}

// Outcome classifies the result of one poll.
type Outcome int

const (
	// Unchanged means the remote hash still matches the baseline.
	Unchanged Outcome = iota
	// ChangedLocal means the change matched an outstanding local write and
	// the baseline advanced silently.
	ChangedLocal
	// ChangedExternal means someone else edited the sheet; the diff is
	// staged until Ack.
	ChangedExternal
)

// Staged is an external change waiting for acknowledgement.
type Staged struct {
	Hash     string
	Snapshot snapshot.Snapshot
	Diff     snapshot.Diff
}

type writeToken struct {
	id string
	at time.Time
}

// Engine reconciles a local baseline against the remote sheet.
type Engine struct {
	source   Source
	notifier Notifier
	sink     func(snap snapshot.Snapshot, hash string)
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time

	refreshCh chan struct{}

	mu           sync.Mutex
	inflight     bool
	baseline     snapshot.Snapshot
	baselineHash string
	pending      []writeToken
	staged       *Staged
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval overrides the polling cadence.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithNotifier attaches a notifier for external changes.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithBaselineSink registers a callback invoked every time the baseline
// advances: initial prime, silent adoption of a local write, and Ack. A
// restart that replays the sink's last snapshot through SetBaseline picks up
// exactly where the previous session stopped, so its own past writes are
// never reported back as external changes.
func WithBaselineSink(fn func(snap snapshot.Snapshot, hash string)) Option {
	return func(e *Engine) { e.sink = fn }
}

// WithLogger overrides the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an engine over the given source. Call Prime before Run.
func New(source Source, opts ...Option) *Engine {
	e := &Engine{
		source:    source,
		interval:  DefaultInterval,
		log:       slog.Default(),
		now:       time.Now,
		refreshCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prime fetches the initial baseline snapshot and hash.
func (e *Engine) Prime(ctx context.Context) error {
	snap, err := e.source.GetItems(ctx)
	if err != nil {
		return err
	}
	hash := snapshot.Hash(snap)
	e.mu.Lock()
	e.baseline = snap
	e.baselineHash = hash
	e.staged = nil
	e.mu.Unlock()
	e.emitBaseline(snap, hash)
	return nil
}

// SetBaseline installs a previously persisted snapshot as the baseline, so a
// restart can report what changed while the watcher was down.
func (e *Engine) SetBaseline(snap snapshot.Snapshot, hash string) {
	e.mu.Lock()
	e.baseline = snap
	e.baselineHash = hash
	e.staged = nil
	e.mu.Unlock()
}

// Baseline returns the acknowledged snapshot and its hash.
func (e *Engine) Baseline() (snapshot.Snapshot, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseline, e.baselineHash
}

// RegisterWrite records that a local mutation is about to land on the sheet
// and returns a correlation token. The next detected change consumes the
// outstanding tokens and advances the baseline without notifying.
func (e *Engine) RegisterWrite() string {
	tok := writeToken{id: uuid.NewString(), at: e.now()}
	e.mu.Lock()
	e.pending = append(e.pending, tok)
	e.mu.Unlock()
	return tok.id
}

// Refresh requests an immediate poll from the Run loop and resets the
// countdown. Safe to call from any goroutine; coalesces when one is already
// requested.
func (e *Engine) Refresh() {
	select {
	case e.refreshCh <- struct{}{}:
	default:
	}
}

// StagedChange returns the unacknowledged external change, if any.
func (e *Engine) StagedChange() (Staged, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.staged == nil {
		return Staged{}, false
	}
	return *e.staged, true
}

// Ack advances the baseline to the staged external change. Until Ack is
// called a repeat poll diffs against the same baseline, so the change keeps
// being reported rather than silently absorbed.
func (e *Engine) Ack() bool {
	e.mu.Lock()
	if e.staged == nil {
		e.mu.Unlock()
		return false
	}
	snap, hash := e.staged.Snapshot, e.staged.Hash
	e.baseline = snap
	e.baselineHash = hash
	e.staged = nil
	e.mu.Unlock()
	e.emitBaseline(snap, hash)
	return true
}

// Run polls at the configured interval until ctx is done. Refresh triggers an
// immediate poll and restarts the interval.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-e.refreshCh:
			ticker.Reset(e.interval)
		}
		if _, err := e.Poll(ctx); err != nil && !errors.Is(err, ErrBusy) {
			e.log.Warn("poll failed", "error", err)
		}
	}
}

// Poll performs one reconciliation round. At most one poll runs at a time;
// concurrent callers get ErrBusy.
func (e *Engine) Poll(ctx context.Context) (Outcome, error) {
	e.mu.Lock()
	if e.inflight {
		e.mu.Unlock()
		return Unchanged, ErrBusy
	}
	e.inflight = true
	baselineHash := e.baselineHash
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.inflight = false
		e.mu.Unlock()
	}()

	remoteHash, err := e.source.GetHash(ctx)
	if err != nil {
		return Unchanged, err
	}
	if remoteHash == baselineHash {
		return Unchanged, nil
	}

	snap, err := e.source.GetItems(ctx)
	if err != nil {
		return Unchanged, err
	}
	// Hash the fetched body rather than trusting the earlier hash probe; the
	// sheet may have moved again between the two requests.
	hash := snapshot.Hash(snap)

	e.mu.Lock()
	e.prunePendingLocked()
	if len(e.pending) > 0 {
		// Local-origin: adopt silently and consume the outstanding tokens.
		e.pending = nil
		e.baseline = snap
		e.baselineHash = hash
		e.staged = nil
		e.mu.Unlock()
		e.emitBaseline(snap, hash)
		e.log.Debug("adopted local change", "hash", hash)
		return ChangedLocal, nil
	}
	diff := snapshot.Compare(e.baseline, snap)
	staged := Staged{Hash: hash, Snapshot: snap, Diff: diff}
	e.staged = &staged
	e.mu.Unlock()

	if diff.Empty() {
		// Content is hash-different but field-identical under the ignored
		// columns (e.g. a recalculated Total). Absorb without notifying.
		e.Ack()
		return ChangedLocal, nil
	}

	e.log.Info("external change detected",
		"added", len(diff.Added), "deleted", len(diff.Deleted), "edited", len(diff.Edited))
	if e.notifier != nil {
		e.notifier.ExternalChange(staged)
	}
	return ChangedExternal, nil
}

// emitBaseline hands an advanced baseline to the sink. Called without the
// lock held so the sink may call back into the engine.
func (e *Engine) emitBaseline(snap snapshot.Snapshot, hash string) {
	if e.sink != nil {
		e.sink(snap, hash)
	}
}

func (e *Engine) prunePendingLocked() {
	cutoff := e.now().Add(-tokenTTL)
	kept := e.pending[:0]
	for _, tok := range e.pending {
		if tok.at.After(cutoff) {
			kept = append(kept, tok)
		}
	}
	e.pending = kept
}
