package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmelero/compra/internal/snapshot"
)

var testKeys = []string{"Descripción", "Estado"}

func rec(row int, desc, status string) snapshot.Record {
	return snapshot.NewRecord(row, testKeys, map[string]string{
		"Descripción": desc,
		"Estado":      status,
	})
}

// fakeSource serves a settable snapshot.
type fakeSource struct {
	mu      sync.Mutex
	snap    snapshot.Snapshot
	hashErr error
	itemErr error
}

func (f *fakeSource) set(s snapshot.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
}

func (f *fakeSource) GetHash(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hashErr != nil {
		return "", f.hashErr
	}
	return snapshot.Hash(f.snap), nil
}

func (f *fakeSource) GetItems(context.Context) (snapshot.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	return f.snap, nil
}

// recordingNotifier collects notifications.
type recordingNotifier struct {
	mu      sync.Mutex
	changes []Staged
}

func (n *recordingNotifier) ExternalChange(change Staged) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.changes)
}

func newTestEngine(t *testing.T, snap snapshot.Snapshot) (*Engine, *fakeSource, *recordingNotifier) {
	t.Helper()
	src := &fakeSource{snap: snap}
	notif := &recordingNotifier{}
	e := New(src, WithNotifier(notif), WithInterval(time.Hour))
	if err := e.Prime(context.Background()); err != nil {
		t.Fatalf("prime: %v", err)
	}
	return e, src, notif
}

func TestPoll_UnchangedHashFetchesNothing(t *testing.T) {
	e, src, notif := newTestEngine(t, snapshot.Snapshot{rec(12, "Leche", "Pendiente")})
	// An items failure would surface if Poll fetched despite equal hashes.
	src.itemErr = errors.New("should not fetch")

	out, err := e.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if out != Unchanged {
		t.Errorf("outcome = %v, want Unchanged", out)
	}
	if notif.count() != 0 {
		t.Error("unchanged poll notified")
	}
}

func TestPoll_ExternalChangeStagesUntilAck(t *testing.T) {
	base := snapshot.Snapshot{rec(12, "Leche", "Pendiente")}
	e, src, notif := newTestEngine(t, base)

	src.set(snapshot.Snapshot{rec(12, "Leche", "Comprado")})
	out, err := e.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if out != ChangedExternal {
		t.Fatalf("outcome = %v, want ChangedExternal", out)
	}
	if notif.count() != 1 {
		t.Fatalf("notified %d times, want 1", notif.count())
	}
	change := notif.changes[0]
	if len(change.Diff.Edited) != 1 || change.Diff.Edited[0].RowIndex != 12 {
		t.Errorf("diff = %+v", change.Diff)
	}

	// Baseline must not advance until Ack: a repeat poll reports the same
	// change against the same baseline.
	if _, baselineHash := e.Baseline(); baselineHash != snapshot.Hash(base) {
		t.Error("baseline advanced before Ack")
	}
	out, err = e.Poll(context.Background())
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if out != ChangedExternal || notif.count() != 2 {
		t.Errorf("second poll outcome %v, notifications %d", out, notif.count())
	}

	if !e.Ack() {
		t.Fatal("Ack returned false with a staged change")
	}
	if _, baselineHash := e.Baseline(); baselineHash != snapshot.Hash(src.snap) {
		t.Error("baseline did not advance on Ack")
	}
	out, err = e.Poll(context.Background())
	if err != nil {
		t.Fatalf("post-ack poll: %v", err)
	}
	if out != Unchanged {
		t.Errorf("post-ack poll outcome = %v, want Unchanged", out)
	}
}

func TestPoll_LocalWriteAdoptedSilently(t *testing.T) {
	e, src, notif := newTestEngine(t, snapshot.Snapshot{rec(12, "Leche", "Pendiente")})

	token := e.RegisterWrite()
	if token == "" {
		t.Fatal("empty correlation token")
	}
	src.set(snapshot.Snapshot{rec(12, "Leche", "Comprado")})

	out, err := e.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if out != ChangedLocal {
		t.Errorf("outcome = %v, want ChangedLocal", out)
	}
	if notif.count() != 0 {
		t.Error("local-origin change notified")
	}
	if _, baselineHash := e.Baseline(); baselineHash != snapshot.Hash(src.snap) {
		t.Error("baseline did not advance on local adoption")
	}

	// The token is consumed: the next change is external again.
	src.set(snapshot.Snapshot{rec(12, "Leche", "Pendiente")})
	out, _ = e.Poll(context.Background())
	if out != ChangedExternal {
		t.Errorf("outcome after consumed token = %v, want ChangedExternal", out)
	}
}

func TestPoll_ExpiredTokenDoesNotSuppress(t *testing.T) {
	e, src, notif := newTestEngine(t, snapshot.Snapshot{rec(12, "Leche", "Pendiente")})
	now := time.Now()
	e.now = func() time.Time { return now }
	e.RegisterWrite()

	// Advance past the token TTL before the change lands.
	e.now = func() time.Time { return now.Add(tokenTTL + time.Minute) }
	src.set(snapshot.Snapshot{rec(12, "Leche", "Comprado")})

	out, err := e.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if out != ChangedExternal || notif.count() != 1 {
		t.Errorf("expired token suppressed: outcome %v, notifications %d", out, notif.count())
	}
}

func TestPoll_HashDifferentButDiffEmptyAbsorbs(t *testing.T) {
	keys := []string{"Descripción", "Total"}
	old := snapshot.Snapshot{snapshot.NewRecord(12, keys, map[string]string{"Descripción": "Leche", "Total": "2,10"})}
	e, src, notif := newTestEngine(t, old)

	// Only the derived Total changed: hash differs, structural diff is empty.
	src.set(snapshot.Snapshot{snapshot.NewRecord(12, keys, map[string]string{"Descripción": "Leche", "Total": "3,15"})})
	out, err := e.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if out != ChangedLocal {
		t.Errorf("outcome = %v, want silent absorption", out)
	}
	if notif.count() != 0 {
		t.Error("empty diff notified")
	}
	if _, baselineHash := e.Baseline(); baselineHash != snapshot.Hash(src.snap) {
		t.Error("baseline did not absorb the new hash")
	}
}

func TestPoll_AddedAndDeletedRows(t *testing.T) {
	e, src, notif := newTestEngine(t, snapshot.Snapshot{
		rec(12, "Leche", "Pendiente"),
		rec(13, "Pan", "Pendiente"),
	})
	src.set(snapshot.Snapshot{
		rec(12, "Leche", "Pendiente"),
		rec(14, "Huevos", "Pendiente"),
	})
	if out, _ := e.Poll(context.Background()); out != ChangedExternal {
		t.Fatalf("outcome = %v", out)
	}
	diff := notif.changes[0].Diff
	if len(diff.Added) != 1 || diff.Added[0].RowIndex != 14 {
		t.Errorf("added = %+v", diff.Added)
	}
	if len(diff.Deleted) != 1 || diff.Deleted[0].RowIndex != 13 {
		t.Errorf("deleted = %+v", diff.Deleted)
	}
}

func TestPoll_HashErrorLeavesStateAlone(t *testing.T) {
	e, src, _ := newTestEngine(t, snapshot.Snapshot{rec(12, "Leche", "Pendiente")})
	_, before := e.Baseline()
	src.hashErr = errors.New("upstream down")

	if _, err := e.Poll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, after := e.Baseline(); after != before {
		t.Error("baseline moved on a failed poll")
	}
}

func TestRefresh_TriggersImmediatePoll(t *testing.T) {
	src := &fakeSource{snap: snapshot.Snapshot{rec(12, "Leche", "Pendiente")}}
	notif := &recordingNotifier{}
	e := New(src, WithNotifier(notif), WithInterval(time.Hour))
	if err := e.Prime(context.Background()); err != nil {
		t.Fatalf("prime: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx)
	}()

	src.set(snapshot.Snapshot{rec(12, "Leche", "Comprado")})
	e.Refresh()

	deadline := time.After(2 * time.Second)
	for notif.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("refresh did not trigger a poll")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

// baselineSink collects every baseline the engine hands out for persistence.
type baselineSink struct {
	mu    sync.Mutex
	snaps []snapshot.Snapshot
	hash  string
}

func (s *baselineSink) save(snap snapshot.Snapshot, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	s.hash = hash
}

func (s *baselineSink) last() (snapshot.Snapshot, string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snaps) == 0 {
		return nil, "", 0
	}
	return s.snaps[len(s.snaps)-1], s.hash, len(s.snaps)
}

func TestBaselineSink_SeesEveryAdvance(t *testing.T) {
	src := &fakeSource{snap: snapshot.Snapshot{rec(12, "Leche", "Pendiente")}}
	sink := &baselineSink{}
	e := New(src, WithInterval(time.Hour), WithBaselineSink(sink.save))

	if err := e.Prime(context.Background()); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if _, hash, n := sink.last(); n != 1 || hash != snapshot.Hash(src.snap) {
		t.Fatalf("prime did not reach the sink: n=%d hash=%q", n, hash)
	}

	// Local adoption advances the baseline and must be persisted too.
	e.RegisterWrite()
	src.set(snapshot.Snapshot{rec(12, "Leche", "Comprado")})
	if out, err := e.Poll(context.Background()); err != nil || out != ChangedLocal {
		t.Fatalf("poll: out=%v err=%v", out, err)
	}
	if _, hash, n := sink.last(); n != 2 || hash != snapshot.Hash(src.snap) {
		t.Fatalf("local adoption did not reach the sink: n=%d hash=%q", n, hash)
	}

	// So must an acknowledged external change.
	src.set(snapshot.Snapshot{rec(12, "Leche", "Pendiente")})
	if out, _ := e.Poll(context.Background()); out != ChangedExternal {
		t.Fatalf("out = %v", out)
	}
	if _, _, n := sink.last(); n != 2 {
		t.Fatal("staged change reached the sink before Ack")
	}
	e.Ack()
	if _, hash, n := sink.last(); n != 3 || hash != snapshot.Hash(src.snap) {
		t.Fatalf("ack did not reach the sink: n=%d hash=%q", n, hash)
	}
}

func TestBaselineSink_RestartDoesNotReplayOwnWrite(t *testing.T) {
	src := &fakeSource{snap: snapshot.Snapshot{rec(12, "Leche", "Pendiente")}}
	sink := &baselineSink{}
	e := New(src, WithInterval(time.Hour), WithBaselineSink(sink.save))
	if err := e.Prime(context.Background()); err != nil {
		t.Fatalf("prime: %v", err)
	}

	// A watch-session write lands and is adopted silently.
	e.RegisterWrite()
	src.set(snapshot.Snapshot{rec(12, "Leche", "Comprado")})
	if out, err := e.Poll(context.Background()); err != nil || out != ChangedLocal {
		t.Fatalf("poll: out=%v err=%v", out, err)
	}

	// Restart: a fresh engine seeded from the persisted baseline must see the
	// sheet as unchanged, not report the previous session's write back.
	snap, hash, _ := sink.last()
	notif := &recordingNotifier{}
	restarted := New(src, WithInterval(time.Hour), WithNotifier(notif))
	restarted.SetBaseline(snap, hash)

	out, err := restarted.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll after restart: %v", err)
	}
	if out != Unchanged {
		t.Errorf("outcome after restart = %v, want Unchanged", out)
	}
	if notif.count() != 0 {
		t.Error("restarted watcher reported its own write as external")
	}
}

func TestStagedChange_Accessor(t *testing.T) {
	e, src, _ := newTestEngine(t, snapshot.Snapshot{rec(12, "Leche", "Pendiente")})
	if _, ok := e.StagedChange(); ok {
		t.Error("fresh engine has a staged change")
	}
	src.set(snapshot.Snapshot{rec(12, "Leche", "Comprado")})
	if _, err := e.Poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	staged, ok := e.StagedChange()
	if !ok || staged.Hash != snapshot.Hash(src.snap) {
		t.Errorf("staged = %+v, ok = %v", staged, ok)
	}
	if !e.Ack() {
		t.Fatal("ack failed")
	}
	if _, ok := e.StagedChange(); ok {
		t.Error("staged change survived Ack")
	}
	if e.Ack() {
		t.Error("second Ack reported success")
	}
}
