// Package session owns all mutable client state for one connection to the
// authoritative service: the working grid, the generation counters, staged
// placements, and base treasuries. One goroutine runs the whole thing as a
// select loop over two tickers, so there is exactly one mutator and no
// cell-level locking anywhere.
package session

import (
	"context"
	"log"
	"runtime/debug"
	"time"

	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/archive"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/config"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/economy"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/grid"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/life"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/placement"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/reconcile"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/remote"
	"github.com/AlexandriaDAO/OpenHouse-backend-sub000/internal/wire"
)

// Service is the authoritative-service boundary. *remote.Client satisfies
// it; tests substitute a fake.
type Service interface {
	FetchState(ctx context.Context) (*wire.StateSnapshot, error)
	SubmitPlacement(ctx context.Context, cells [][2]int) (remote.PlacementResult, error)
	Balance(ctx context.Context, slot uint8) (int64, error)
}

// Stats is the per-update bookkeeping pushed to viewers.
type Stats struct {
	LocalGeneration     uint64                   `json:"local_generation"`
	ConfirmedGeneration uint64                   `json:"confirmed_generation"`
	Drift               int64                    `json:"drift"`
	Accepted            uint64                   `json:"snapshots_accepted"`
	Ignored             uint64                   `json:"snapshots_ignored"`
	Stale               uint64                   `json:"snapshots_stale"`
	AliveCounts         [grid.MaxPlayers + 1]int `json:"alive_counts"`
	Bases               map[uint8]grid.Base      `json:"bases"`
	NextWipeQuadrant    uint32                   `json:"next_wipe_quadrant"`
	SecondsUntilWipe    uint64                   `json:"seconds_until_wipe"`
	MyCoins             int64                    `json:"my_coins"`
	LastRejection       string                   `json:"last_rejection,omitempty"`
}

// Update is one read-only state push: a grid copy, stats, the staged
// placements with their current legality classification, and any coin-loss
// events detected since the previous accepted snapshot.
type Update struct {
	Grid      *grid.Grid
	Stats     Stats
	Pending   []*placement.Pending
	Validated placement.Result
	Events    []economy.CoinLossEvent
}

// Session is the engine. Construct with New, drive with Run, stop with
// Stop. All exported mutating methods hop onto the loop goroutine.
type Session struct {
	cfg config.Config
	svc Service

	g     *grid.Grid
	rec   *reconcile.Reconciler
	stage *placement.Stage

	bases     map[uint8]grid.Base
	prevBases map[uint8]grid.Base
	myBase    grid.Base

	stats    Stats
	anchored bool // at least one snapshot accepted since (re)start

	fetchInFlight bool

	fetches  chan fetchResult
	balances chan int64
	submits  chan remote.PlacementResult
	commands chan func()
	updates  chan Update
	stop     chan struct{}
	done     chan struct{}
}

type fetchResult struct {
	snap *wire.StateSnapshot
	err  error
}

func New(cfg config.Config, svc Service) *Session {
	return &Session{
		cfg: cfg,
		svc: svc,
		g:   grid.New(),
		rec: reconcile.New(reconcile.Config{
			DriftTolerance:    int64(cfg.DriftTolerance),
			ForceSyncInterval: cfg.ForceSyncInterval(),
		}, nil),
		stage:    placement.NewStage(),
		fetches:  make(chan fetchResult, 4),
		balances: make(chan int64, 4),
		submits:  make(chan remote.PlacementResult, 4),
		commands: make(chan func(), 16),
		updates:  make(chan Update, 8),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Updates delivers state pushes. Slow consumers lose intermediate frames,
// never the loop.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Run drives the session until Stop. Two independent cadences: the local
// tick advances the automaton, the resync tick fetches authoritative state.
// Fetches are async; the grid keeps ticking while one is in flight and the
// result is handed back to this loop, which stays the single mutator.
func (s *Session) Run() {
	defer close(s.done)
	defer close(s.updates) // only this goroutine sends; closing tells viewers to shut down
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in session loop: %v\nStack trace:\n%s", r, debug.Stack())
		}
	}()

	localTicker := time.NewTicker(s.cfg.LocalTick())
	resyncTicker := time.NewTicker(s.cfg.ResyncInterval())
	defer localTicker.Stop()
	defer resyncTicker.Stop()

	// Anchor before predicting.
	s.startFetch()

	for {
		select {
		case <-s.stop:
			return

		case <-localTicker.C:
			s.onLocalTick()

		case <-resyncTicker.C:
			s.startFetch()

		case res := <-s.fetches:
			s.onFetchResult(res)

		case coins := <-s.balances:
			s.stats.MyCoins = coins

		case res := <-s.submits:
			if res.Rejected != "" {
				log.Printf("Placement rejected by service: %s", res.Rejected)
				s.stats.LastRejection = res.Rejected
			} else {
				log.Printf("Service placed %d cells", res.Placed)
				s.stats.LastRejection = ""
			}

		case cmd := <-s.commands:
			cmd()
		}
	}
}

// Stop halts both tickers and the loop. A fetch still in flight delivers
// into a buffered channel nobody drains and is discarded.
func (s *Session) Stop() {
	close(s.stop)
	<-s.done
}

// onLocalTick advances the automaton one generation and publishes.
func (s *Session) onLocalTick() {
	if !s.anchored {
		return // nothing to predict from yet
	}
	s.g = life.Step(s.g)
	s.rec.TickLocal()
	s.publish(nil)
}

// startFetch issues one authoritative fetch without blocking the loop.
func (s *Session) startFetch() {
	if s.fetchInFlight {
		return
	}
	s.fetchInFlight = true
	go func() {
		snap, err := s.svc.FetchState(context.Background())
		select {
		case s.fetches <- fetchResult{snap: snap, err: err}:
		case <-s.stop:
		}
	}()
}

// onFetchResult feeds one fetch outcome to the reconciler. Transport errors
// mutate nothing; the next resync tick is the retry path.
func (s *Session) onFetchResult(res fetchResult) {
	s.fetchInFlight = false
	if res.err != nil {
		log.Println("Fetch error:", res.err)
		return
	}

	d := s.rec.Offer(res.snap.Generation)
	switch {
	case d.Stale:
		s.stats.Stale++
		return
	case !d.Accept:
		s.stats.Ignored++
		return
	}

	// Hard snap: the decoded snapshot replaces the working grid outright.
	s.g = wire.Decode(res.snap)
	s.anchored = true
	s.stats.Accepted++
	s.stats.NextWipeQuadrant = res.snap.NextWipeQuadrant
	s.stats.SecondsUntilWipe = res.snap.SecondsUntilWipe

	s.prevBases = s.bases
	s.bases = res.snap.Bases()
	if b, ok := s.bases[s.cfg.PlayerSlot]; ok {
		s.myBase = b
		s.stats.MyCoins = b.Coins
	}
	events := economy.Observe(s.prevBases, s.bases)

	if s.cfg.ArchiveDir != "" {
		rec := archive.Record{
			Header:   archive.Header{Version: 1, Generation: res.snap.Generation},
			Snapshot: *res.snap,
			Drift:    s.rec.Drift(),
		}
		go func() {
			if err := archive.WriteRecord(s.cfg.ArchiveDir, rec); err != nil {
				log.Println("Archive write error:", err)
			}
		}()
	}

	if s.cfg.PlayerSlot != 0 {
		s.startBalanceQuery()
	}

	s.publish(events)
}

func (s *Session) startBalanceQuery() {
	slot := s.cfg.PlayerSlot
	go func() {
		coins, err := s.svc.Balance(context.Background(), slot)
		if err != nil {
			log.Println("Balance query error:", err)
			return
		}
		select {
		case s.balances <- coins:
		case <-s.stop:
		}
	}()
}

// publish snapshots the current state onto the updates channel, dropping
// the frame if no one is keeping up.
func (s *Session) publish(events []economy.CoinLossEvent) {
	st := s.rec.Status()
	s.stats.LocalGeneration = st.LocalGeneration
	s.stats.ConfirmedGeneration = st.ConfirmedGeneration
	s.stats.Drift = s.rec.Drift()
	s.stats.AliveCounts = s.g.CountAlive()
	s.stats.Bases = s.bases

	pending := append([]*placement.Pending(nil), s.stage.All()...)
	u := Update{
		Grid:      s.g.Clone(),
		Stats:     s.stats,
		Pending:   pending,
		Validated: placement.Validate(pending, s.cfg.PlayerSlot, s.g, s.myBase),
		Events:    events,
	}
	select {
	case s.updates <- u:
	default:
	}
}

// run executes fn on the loop goroutine and waits for it.
func (s *Session) run(fn func()) {
	doneCh := make(chan struct{})
	select {
	case s.commands <- func() { fn(); close(doneCh) }:
	case <-s.stop:
		return
	}
	select {
	case <-doneCh:
	case <-s.stop:
	}
}

// StagePlacement expands a pattern at an anchor and stages it.
func (s *Session) StagePlacement(pattern string, x, y, rotation int) (*placement.Pending, error) {
	var p *placement.Pending
	var err error
	s.run(func() {
		p, err = placement.NewPending(pattern, x, y, rotation)
		if err != nil {
			return
		}
		s.stage.Add(p)
		s.publish(nil)
	})
	return p, err
}

// CancelPlacement drops one staged placement.
func (s *Session) CancelPlacement(id string) bool {
	var ok bool
	s.run(func() {
		ok = s.stage.Cancel(id)
		if ok {
			s.publish(nil)
		}
	})
	return ok
}

// Submit drains the stage into one batched service call, dropping cells the
// validator classifies as illegal. Legal cells are marked alive locally
// right away; if the service still rejects (a race the optimistic check
// cannot see), the next accepted snapshot is the rollback.
func (s *Session) Submit() {
	s.run(func() {
		drained := s.stage.Drain()
		cells := drained[:0]
		for _, c := range drained {
			if placement.CheckCell(s.g, s.cfg.PlayerSlot, s.myBase, c[0], c[1]) == placement.Legal {
				cells = append(cells, c)
			}
		}
		if len(cells) == 0 {
			s.publish(nil)
			return
		}
		placement.ApplyOptimistic(s.g, s.cfg.PlayerSlot, cells)
		s.publish(nil)

		go func() {
			res, err := s.svc.SubmitPlacement(context.Background(), cells)
			if err != nil {
				log.Println("Submit error:", err)
				return
			}
			select {
			case s.submits <- res:
			case <-s.stop:
			}
		}()
	})
}

// Reset discards all local state atomically before resubscribing, used on
// session restart or server switch.
func (s *Session) Reset() {
	s.run(func() {
		s.g.Clear()
		s.rec.Reset()
		s.stage.Clear()
		s.bases = nil
		s.prevBases = nil
		s.myBase = grid.Base{}
		s.anchored = false
		s.stats = Stats{}
		s.startFetch()
	})
}
