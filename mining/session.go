package mining

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

//maxWorkers bounds the worker count, one worker per logical cpu
var maxWorkers = runtime.NumCPU

//Session runs one job at a time over a pool of workers. Starting a run
// cancels the previous one and waits for its workers before reusing the hashers.
type Session struct {
	args MinerArgs

	runMutex sync.Mutex // held for the whole run, protects hashers
	hashers  []Hasher

	mutex  sync.Mutex // protects active
	active *sharedState

	hashes atomic.Uint64
}

var _ Miner = (*Session)(nil)

//NewSession creates a session, see Init
func NewSession(args MinerArgs) *Session {
	s := &Session{}
	s.Init(args)
	return s
}

//Init sets the session arguments. Must not be called while a run is active.
func (s *Session) Init(args MinerArgs) {
	if args.Logger == nil {
		args.Logger = zap.NewNop()
	}
	s.args = args
}

//Halt cancels the active run, if any
func (s *Session) Halt() {
	s.Cancel()
}

//Cancel signals the active run to stop without a winner. It does not wait.
func (s *Session) Cancel() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.active != nil {
		s.active.stop.Store(true)
	}
}

//Hashes returns the number of hashes computed over the session lifetime
func (s *Session) Hashes() uint64 {
	return s.hashes.Load()
}

//Workers resolves a requested worker count: 0 selects the default, the
// result is clamped to [1, NumCPU].
func (s *Session) Workers(requested int) (int, error) {
	if requested < 0 {
		return 0, ErrInvalidWorkerCount
	}
	if requested == 0 {
		requested = s.args.Workers
	}
	limit := maxWorkers()
	if requested == 0 || requested > limit {
		requested = limit
	}
	if requested < 1 {
		requested = 1
	}
	return requested, nil
}

//Run searches the nonce space of job with the given number of workers and
// blocks until all of them exited. ok is false when the run was cancelled or
// the space was exhausted.
func (s *Session) Run(ctx context.Context, job *Job, workers int) (sol Solution, ok bool, err error) {
	if err = job.Validate(); err != nil {
		return
	}
	if workers, err = s.Workers(workers); err != nil {
		return
	}
	if ctx.Err() != nil {
		return
	}

	// install the new state before waiting for the previous run, so a
	// Cancel issued while this run is pending or building hashers stops it
	shared := newSharedState(&s.hashes)
	s.mutex.Lock()
	if s.active != nil {
		s.active.stop.Store(true)
	}
	s.active = shared
	s.mutex.Unlock()
	defer func() {
		s.mutex.Lock()
		if s.active == shared {
			s.active = nil
		}
		s.mutex.Unlock()
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			shared.stop.Store(true)
		case <-done:
		}
	}()

	s.runMutex.Lock()
	defer s.runMutex.Unlock()
	if shared.stop.Load() {
		return
	}
	s.growHashers(workers)

	header := append([]byte(nil), job.Header...)
	target := job.TargetArray()
	logger := s.args.Logger.With(zap.String("JobID", job.ID))
	logger.Info("Session", zap.String("Stat", "Starting workers"), zap.Int("Workers", workers))

	var wg sync.WaitGroup
	for i, part := range Partitions(workers) {
		w := &worker{id: i, part: part, hasher: s.hashers[i], logger: logger}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.mine(header, target, shared)
		}()
	}
	wg.Wait()

	nonce, ok := shared.result()
	if !ok {
		logger.Info("Session", zap.String("Stat", "No answer"))
		return
	}
	sol = Solution{JobID: job.ID, Nonce: nonce, Digest: shared.digest, Job: job}
	logger.Info("Session", zap.String("Stat", "Winner"), zap.Uint32("Nonce", nonce))
	return
}

//growHashers makes sure there is one hasher per worker slot. Caller holds runMutex.
func (s *Session) growHashers(workers int) {
	for len(s.hashers) < workers {
		s.hashers = append(s.hashers, s.args.NewHasher())
	}
}
