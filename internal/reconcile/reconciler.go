// Package reconcile decides, snapshot by snapshot, whether the client keeps
// trusting its own prediction or snaps to the authoritative state.
package reconcile

import (
	"time"
)

// Config carries the two policy knobs. Both are tuning values, not
// correctness requirements: tolerance absorbs benign skew from variable
// local-tick timing, the force interval bounds how long prediction can run
// unanchored after a missed update.
type Config struct {
	DriftTolerance    int64         // max generations local may run ahead
	ForceSyncInterval time.Duration // max wall-clock time between accepted syncs
}

// Status is a read-only view of the generation counters.
type Status struct {
	LocalGeneration     uint64
	ConfirmedGeneration uint64
	LastSyncTime        time.Time
}

// Decision explains what Offer did with a snapshot, for logging and stats.
type Decision struct {
	Accept        bool
	Stale         bool // older than what is already confirmed, dropped
	BackendAhead  bool
	DriftExceeded bool
	ForceDue      bool
}

// Reconciler owns the local and confirmed generation counters. It is not
// goroutine safe: the session loop is the single mutator.
type Reconciler struct {
	cfg Config
	now func() time.Time

	localGen     uint64
	confirmedGen uint64
	lastSync     time.Time
}

func New(cfg Config, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{cfg: cfg, now: now}
}

// TickLocal advances the local generation by one and returns the new value.
// Called once per local automaton step.
func (r *Reconciler) TickLocal() uint64 {
	r.localGen++
	return r.localGen
}

// Offer evaluates an authoritative snapshot at generation gen. When the
// decision is Accept the counters are already snapped to gen on return and
// the caller must replace its working grid with the decoded snapshot.
//
// A stale generation is expected under concurrent in-flight fetches and is
// dropped silently. Otherwise the snapshot is accepted iff the backend is
// ahead of local, local has drifted too far ahead, or too much wall-clock
// time has passed since the last accepted sync. Small positive drift is
// deliberately ignored so every round-trip does not visibly rewind the
// locally animated grid.
func (r *Reconciler) Offer(gen uint64) Decision {
	var d Decision

	if gen < r.confirmedGen {
		d.Stale = true
		return d
	}

	diff := int64(r.localGen) - int64(gen)
	d.BackendAhead = diff < 0
	d.DriftExceeded = diff > r.cfg.DriftTolerance
	d.ForceDue = r.now().Sub(r.lastSync) >= r.cfg.ForceSyncInterval

	d.Accept = d.BackendAhead || d.DriftExceeded || d.ForceDue
	if d.Accept {
		r.localGen = gen
		r.confirmedGen = gen
		r.lastSync = r.now()
	}
	return d
}

// Status returns the current counters.
func (r *Reconciler) Status() Status {
	return Status{
		LocalGeneration:     r.localGen,
		ConfirmedGeneration: r.confirmedGen,
		LastSyncTime:        r.lastSync,
	}
}

// Drift returns how many generations local prediction is ahead of the last
// confirmed authoritative state. Negative means behind.
func (r *Reconciler) Drift() int64 {
	return int64(r.localGen) - int64(r.confirmedGen)
}

// Reset clears all counters, used on session restart or server switch.
func (r *Reconciler) Reset() {
	r.localGen = 0
	r.confirmedGen = 0
	r.lastSync = time.Time{}
}
