package driver

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/kestrellsystems/VeriMiner/clients"
	"github.com/kestrellsystems/VeriMiner/mining"
	"github.com/kestrellsystems/VeriMiner/statistics"
	"github.com/kestrellsystems/VeriMiner/types"
)

const (
	//DriverName is reported in the driver stats
	DriverName = "CPU"

	watchDogTimeout = 30 * time.Second
)

//costReporter is implemented by mining funcs with a tunable cost
type costReporter interface {
	HashCost() int
}

//CPU mines jobs from its client with a session of hashing goroutines
type CPU struct {
	solutionCounter  atomic.Uint64
	submitCounter    atomic.Uint64
	wronghashCounter atomic.Uint64

	driverQuit  chan struct{}
	MiningFuncs map[string]MiningFuncs
	Client      clients.Client
	PollDelay   time.Duration
	Workers     int

	args    mining.MinerArgs
	logger  *zap.Logger
	session atomic.Pointer[mining.Session] // read by the api while Start stores it
	wg      sync.WaitGroup

	workCacheLock sync.RWMutex
	workCache     map[string]MiningWork
	currentJob    atomic.String

	prevEpochHashes uint64
	hr              *statistics.HashRate
	stats           atomic.Int32
	feedDog         chan bool
}

func NewCPU(args mining.MinerArgs) (drv Driver) {
	drv = &CPU{}
	drv.Init(args)
	return drv
}

func (cpu *CPU) Init(args mining.MinerArgs) {
	if args.Logger == nil {
		args.Logger = zap.NewNop()
	}
	if args.PollDelay <= 0 {
		args.PollDelay = time.Second
	}
	cpu.args = args
	cpu.logger = args.Logger
	cpu.PollDelay = args.PollDelay
	cpu.Workers = args.Workers
	cpu.feedDog = make(chan bool, 1)
	cpu.MiningFuncs = make(map[string]MiningFuncs)
	cpu.workCache = make(map[string]MiningWork)
	cpu.hr = &statistics.HashRate{}
	cpu.stats.Store(int32(types.Idle))
}

func (cpu *CPU) RegisterMiningFuncs(algo string, mf MiningFuncs) {
	cpu.MiningFuncs[algo] = mf
}

func (cpu *CPU) SetClient(client clients.Client) {
	cpu.Client = client
}

func (cpu *CPU) funcs() MiningFuncs {
	return cpu.MiningFuncs[cpu.Client.AlgoName()]
}

func (cpu *CPU) GetDriverStats() (stats types.DriverStates) {
	stats.DriverName = DriverName
	stats.Status = types.HardwareStats(cpu.stats.Load())

	oneMin := cpu.hr.RecentNSum(60)
	fiveMin := cpu.hr.RecentNSum(300)
	oneHour := cpu.hr.RecentNSum(3600)
	stats.HashNum[0], stats.HashNum[1], stats.HashNum[2] = oneMin, fiveMin, oneHour
	stats.Hashrate[0], stats.Hashrate[1], stats.Hashrate[2] = oneMin/60, fiveMin/300, oneHour/3600

	stats.Solutions = cpu.solutionCounter.Load()
	stats.Submitted = cpu.submitCounter.Load()
	stats.CurrentJob = cpu.currentJob.Load()
	if session := cpu.session.Load(); session != nil {
		stats.Hashes = session.Hashes()
		stats.Workers, _ = session.Workers(cpu.Workers)
	}
	if cpu.Client != nil {
		stats.Algo = cpu.Client.AlgoName()
		if cr, ok := cpu.funcs().(costReporter); ok {
			stats.Cost = cr.HashCost()
		}
	}
	return
}

//Start builds the session for the client's algorithm and starts feeding it work
func (cpu *CPU) Start() {
	mf, ok := cpu.MiningFuncs[cpu.Client.AlgoName()]
	if !ok {
		cpu.logger.Error("Driver", zap.String("Stat", "No mining funcs registered"), zap.String("Algo", cpu.Client.AlgoName()))
		return
	}
	args := cpu.args
	args.NewHasher = mf.NewHasher
	if cpu.session.Load() == nil {
		cpu.session.Store(mining.NewSession(args))
	}

	cpu.driverQuit = make(chan struct{})
	cpu.stats.Store(int32(types.Running))
	cpu.logger.Info("Driver", zap.String("Stat", "Starting cpu driver"), zap.Int("Workers", cpu.Workers))

	cpu.wg.Add(3)
	go cpu.hashStatistic()
	go cpu.watchDog()
	go cpu.createWork()
}

//Stop abandons the running job and waits for the driver goroutines
func (cpu *CPU) Stop() {
	if cpu.driverQuit == nil {
		return
	}
	close(cpu.driverQuit)
	cpu.session.Load().Halt()
	cpu.wg.Wait()
	cpu.driverQuit = nil
	cpu.stats.Store(int32(types.Stopped))
}

func (cpu *CPU) CancelWork() {
	if session := cpu.session.Load(); session != nil {
		session.Cancel()
	}
}

func (cpu *CPU) createWork() {
	defer cpu.wg.Done()

	cpu.Client.SetDeprecatedJobCall(func(jobid string) {
		cpu.logger.Debug("Work", zap.String("Stat", "Job abandoned"), zap.String("JobID", jobid))
	})
	//drop cached work of abandoned jobs, it is worse to submit on a stale job
	cpu.Client.SetCleanJobEventCall(func() {
		cpu.workCacheLock.Lock()
		defer cpu.workCacheLock.Unlock()
		for jobid, work := range cpu.workCache {
			select {
			case <-work.Deprecated:
				delete(cpu.workCache, jobid)
			default:
			}
		}
	})

	for {
		select {
		case <-cpu.driverQuit:
			return
		default:
		}

		job, deprecated, err := cpu.Client.GetJobForWork()
		if err != nil {
			if err != clients.ErrNoJob {
				cpu.logger.Warn("ERROR fetching work", zap.Error(err))
			}
			select {
			case <-cpu.driverQuit:
				return
			case <-time.After(cpu.PollDelay):
			}
			continue
		}
		cpu.mineOnce(&MiningWork{Job: job, Deprecated: deprecated})
	}
}

//cacheWork keeps a deep copy of work, solutions are checked against it even
// if the client reuses the job buffers
func (cpu *CPU) cacheWork(work *MiningWork) {
	backupWork := MiningWork{Job: &mining.Job{}, Deprecated: work.Deprecated}
	if err := copier.CopyWithOption(backupWork.Job, work.Job, copier.Option{DeepCopy: true}); err != nil {
		cpu.logger.Warn("Work", zap.String("Stat", "Caching job failed"), zap.String("JobID", work.Job.ID), zap.Error(err))
		return
	}
	cpu.workCacheLock.Lock()
	cpu.workCache[work.Job.ID] = backupWork
	cpu.workCacheLock.Unlock()
}

func (cpu *CPU) mineOnce(work *MiningWork) {
	cpu.cacheWork(work)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-work.Deprecated:
		case <-cpu.driverQuit:
		case <-ctx.Done():
		}
		cancel()
	}()

	cpu.currentJob.Store(work.Job.ID)
	defer cpu.currentJob.Store("")
	cpu.logger.Debug("Work",
		zap.String("JobID", work.Job.ID),
		zap.String("Header", fmt.Sprintf("%02X", work.Job.Header)),
		zap.String("Target", fmt.Sprintf("%02X", work.Job.Target)),
	)

	sol, ok, err := cpu.session.Load().Run(ctx, work.Job, cpu.Workers)
	if err != nil {
		cpu.logger.Warn("Work", zap.String("Stat", "Rejected job"), zap.String("JobID", work.Job.ID), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	cpu.solutionCounter.Inc()
	cpu.checkAndSubmitJob(sol)
}

//checkAndSubmitJob recomputes the digest of sol on its cached work before handing it to the client
func (cpu *CPU) checkAndSubmitJob(sol mining.Solution) (goodNonce bool) {
	cpu.workCacheLock.RLock()
	work, cached := cpu.workCache[sol.JobID]
	cpu.workCacheLock.RUnlock()
	if !cached {
		cpu.logger.Info("SubmitJob", zap.String("Stat", "Stale solution"), zap.String("JobID", sol.JobID))
		return
	}

	workHeader := make([]byte, mining.HeaderSize)
	copy(workHeader, work.Job.Header)
	binary.LittleEndian.PutUint32(workHeader[mining.HeaderPrefixSize:], sol.Nonce)
	mf := cpu.funcs()
	blockhash := mf.RegenHash(workHeader)
	cpu.logger.Debug("SubmitJob",
		zap.String("BlockHash", fmt.Sprintf("%02X", blockhash)),
		zap.String("Target", fmt.Sprintf("%02X", work.Job.Target)),
	)
	if !bytes.Equal(blockhash, sol.Digest[:]) || !mf.DiffChecker(blockhash, work) {
		cpu.logger.Info("SubmitJob", zap.String("Stat", "Wrong Hash"), zap.Uint32("Nonce", sol.Nonce))
		cpu.wronghashCounter.Inc()
		return
	}
	goodNonce = true
	cpu.wronghashCounter.Store(0)

	if e := cpu.Client.SubmitSolution(sol); e != nil {
		cpu.logger.Info("SubmitJob",
			zap.String("Stat", "Error submitting solution"),
			zap.String("JobID", sol.JobID),
			zap.Error(e),
		)
		return
	}
	cpu.logger.Info("SubmitJob",
		zap.String("Stat", "Accepted!"),
		zap.String("JobID", sol.JobID),
		zap.Uint32("Nonce", sol.Nonce),
	)
	cpu.submitCounter.Inc()
	return
}

func (cpu *CPU) hashStatistic() {
	defer cpu.wg.Done()
	for {
		select {
		case <-cpu.driverQuit:
			return
		case <-time.After(time.Second * 1):
			hashes := cpu.session.Load().Hashes()
			period := hashes - cpu.prevEpochHashes
			cpu.hr.Add(float64(period))
			cpu.prevEpochHashes = hashes
			if period > 0 {
				select {
				case cpu.feedDog <- true:
				default:
				}
			}
		}
	}
}

func (cpu *CPU) watchDog() {
	defer cpu.wg.Done()
	for {
		select {
		case <-cpu.driverQuit:
			return
		case <-time.After(watchDogTimeout):
			if cpu.currentJob.Load() != "" {
				cpu.stats.Store(int32(types.NoResponse))
			} else {
				cpu.stats.Store(int32(types.Idle))
			}
		case <-cpu.feedDog:
			cpu.stats.Store(int32(types.Running))
		}
	}
}
