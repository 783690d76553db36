package reconcile

import (
	"testing"
	"time"
)

// fakeClock hands Reconciler a controllable now().
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestReconciler() (*Reconciler, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	r := New(Config{DriftTolerance: 3, ForceSyncInterval: 15 * time.Second}, clk.now)
	return r, clk
}

// anchor accepts an initial snapshot so later offers are not force-due.
func anchor(t *testing.T, r *Reconciler, gen uint64) {
	t.Helper()
	if d := r.Offer(gen); !d.Accept {
		t.Fatalf("anchor at gen %d not accepted: %+v", gen, d)
	}
}

func TestFirstSnapshotAccepted(t *testing.T) {
	r, _ := newTestReconciler()
	d := r.Offer(42)
	if !d.Accept {
		t.Fatalf("first offer rejected: %+v", d)
	}
	st := r.Status()
	if st.LocalGeneration != 42 || st.ConfirmedGeneration != 42 {
		t.Fatalf("counters not snapped: %+v", st)
	}
}

func TestStaleSnapshotDropped(t *testing.T) {
	r, _ := newTestReconciler()
	anchor(t, r, 100)

	d := r.Offer(90)
	if d.Accept || !d.Stale {
		t.Fatalf("stale offer not dropped: %+v", d)
	}
	if r.Status().ConfirmedGeneration != 100 {
		t.Fatal("stale offer moved the confirmed counter")
	}
}

func TestSmallDriftIgnored(t *testing.T) {
	r, clk := newTestReconciler()
	anchor(t, r, 100)
	clk.advance(time.Second)

	// Local runs 2 ahead, inside tolerance.
	r.TickLocal()
	r.TickLocal()

	d := r.Offer(100)
	if d.Accept {
		t.Fatalf("benign skew should be ignored: %+v", d)
	}
	if r.Status().LocalGeneration != 102 {
		t.Fatal("ignored offer must not touch local generation")
	}
}

func TestBackendAheadSnaps(t *testing.T) {
	r, clk := newTestReconciler()
	anchor(t, r, 100)
	clk.advance(time.Second)

	r.TickLocal() // local 101

	d := r.Offer(110)
	if !d.Accept || !d.BackendAhead {
		t.Fatalf("backend-ahead offer not accepted: %+v", d)
	}
	st := r.Status()
	if st.LocalGeneration != 110 || st.ConfirmedGeneration != 110 {
		t.Fatalf("counters not snapped: %+v", st)
	}
}

func TestDriftToleranceExceededSnaps(t *testing.T) {
	r, clk := newTestReconciler()
	anchor(t, r, 100)
	clk.advance(time.Second)

	for i := 0; i < 4; i++ { // local 104, diff 4 > tolerance 3
		r.TickLocal()
	}

	d := r.Offer(100)
	if !d.Accept || !d.DriftExceeded {
		t.Fatalf("excessive drift not snapped: %+v", d)
	}
	if r.Status().LocalGeneration != 100 {
		t.Fatal("accept did not re-anchor local generation")
	}
}

func TestForceSyncReAnchors(t *testing.T) {
	r, clk := newTestReconciler()
	anchor(t, r, 100)

	// Drift stays inside tolerance but the clock runs past the force
	// interval: the reconciler must eventually re-anchor.
	r.TickLocal() // local 101
	clk.advance(14 * time.Second)
	if d := r.Offer(100); d.Accept {
		t.Fatalf("offer before force interval accepted: %+v", d)
	}

	clk.advance(2 * time.Second)
	d := r.Offer(100)
	if !d.Accept || !d.ForceDue {
		t.Fatalf("force-due offer not accepted: %+v", d)
	}
}

func TestDriftStaysBounded(t *testing.T) {
	r, clk := newTestReconciler()
	anchor(t, r, 0)

	// Many local ticks with periodic offers: drift can exceed tolerance
	// only until the next offer, which then snaps.
	gen := uint64(0)
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			r.TickLocal()
		}
		clk.advance(5 * time.Second)
		gen += 3
		r.Offer(gen)
		if drift := r.Drift(); drift > 3 {
			t.Fatalf("round %d: drift %d exceeds tolerance after offer", round, drift)
		}
	}
}

func TestReset(t *testing.T) {
	r, _ := newTestReconciler()
	anchor(t, r, 50)
	r.TickLocal()

	r.Reset()
	st := r.Status()
	if st.LocalGeneration != 0 || st.ConfirmedGeneration != 0 || !st.LastSyncTime.IsZero() {
		t.Fatalf("reset left state behind: %+v", st)
	}
}
