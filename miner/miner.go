package miner

import (
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/kestrellsystems/VeriMiner/algorithms/scryptn"
	"github.com/kestrellsystems/VeriMiner/clients"
	"github.com/kestrellsystems/VeriMiner/clients/rpcfeed"
	"github.com/kestrellsystems/VeriMiner/driver"
	"github.com/kestrellsystems/VeriMiner/mining"
	"github.com/kestrellsystems/VeriMiner/types"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var atom = zap.NewAtomicLevel()

var (
	errNoPools      = errors.New("no usable pool configured")
	errNotSupported = errors.New("Not supported")
)

func selectZapLevel(loglevel string) zapcore.Level {
	var level zapcore.Level
	switch loglevel {
	case "debug":
		level = zap.DebugLevel
	case "info":
		level = zap.InfoLevel
	case "error":
		level = zap.ErrorLevel
	default:
		level = zap.InfoLevel
	}
	return level
}

func initLogger(loglevel string) *zap.Logger {
	level := selectZapLevel(loglevel)
	encoderCfg := zap.NewProductionEncoderConfig()
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		atom,
	))
	atom.SetLevel(level)
	return logger
}

//Config is what the config file and flags decode into
type Config struct {
	Workers   int           `mapstructure:"workers"`
	Cost      int           `mapstructure:"cost"`
	PollDelay time.Duration `mapstructure:"polldelay"`
	LogLevel  string        `mapstructure:"debug"`
	APIListen string        `mapstructure:"api-listen"`
	Pools     []types.Pool  `mapstructure:"pools"`
}

//Miner do everything
type Miner struct {
	Config

	mutex     sync.Mutex // protects following
	driver    driver.Driver
	clients   []clients.Client
	activeIdx int
	logger    *zap.Logger
	features  []string
}

func getClientByName(pool *types.Pool, logger *zap.Logger) (clients.Client, error) {
	switch pool.Algo {
	case scryptn.AlgoName, "":
		pool.Algo = scryptn.AlgoName
		return rpcfeed.NewClient(pool, logger), nil
	default:
		return nil, errNotSupported
	}
}

func (m *Miner) driverArgs() mining.MinerArgs {
	return mining.MinerArgs{
		Workers:   m.Workers,
		PollDelay: m.PollDelay,
		Logger:    m.logger,
	}
}

//setup builds clients and driver from the config and starts them. Caller holds mutex.
func (m *Miner) setup() error {
	m.clients = m.clients[:0]
	m.activeIdx = 0
	for i := range m.Pools {
		pool := m.Pools[i]
		client, err := getClientByName(&pool, m.logger)
		if err != nil {
			m.logger.Warn("Pool", zap.String("URL", pool.URL), zap.String("Algo", pool.Algo), zap.Error(err))
			continue
		}
		if pool.Active {
			m.activeIdx = len(m.clients)
		}
		client.Start()
		m.clients = append(m.clients, client)
	}
	if len(m.clients) == 0 {
		return errNoPools
	}

	m.driver = driver.NewCPU(m.driverArgs())
	m.driver.RegisterMiningFuncs(scryptn.AlgoName, &scryptn.MiningFuncs{Cost: m.Cost})
	m.driver.SetClient(m.clients[m.activeIdx])
	m.driver.Start()
	return nil
}

//teardown stops driver and clients. Caller holds mutex.
func (m *Miner) teardown() {
	if m.driver != nil {
		m.driver.Stop()
	}
	for _, cli := range m.clients {
		m.logger.Info("Miner", zap.String("Stat", "Stopping pool"), zap.String("Pool", cli.GetPoolStats().PoolAddr))
		cli.Stop()
	}
}

//Start builds the miner without serving the API
func (m *Miner) Start(logger *zap.Logger) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	m.logger = logger
	m.features = CPUFeatures()
	return m.setup()
}

//Stop halts mining and every client
func (m *Miner) Stop() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.teardown()
	m.driver = nil
	m.clients = nil
}

//Reload the main miner
func (m *Miner) Reload() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.reload()
}

//Apply replaces the config and reloads
func (m *Miner) Apply(cfg Config) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Config = cfg
	return m.reload()
}

func (m *Miner) reload() error {
	if m.logger == nil {
		// not started yet, MinerMain picks the config up
		return nil
	}
	m.logger.Info("Miner", zap.String("Stat", "Reloading miner"))
	atom.SetLevel(selectZapLevel(m.LogLevel))
	m.teardown()
	return m.setup()
}

//CancelWork abandons the job being mined
func (m *Miner) CancelWork() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.driver != nil {
		m.driver.CancelWork()
	}
}

//getLogger returns the miner logger, a no-op one before Start
func (m *Miner) getLogger() *zap.Logger {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.logger == nil {
		return zap.NewNop()
	}
	return m.logger
}

//activeFeed is the client jobs are pushed to
func (m *Miner) activeFeed() (*rpcfeed.Feed, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.clients) == 0 {
		return nil, errNoPools
	}
	feed, ok := m.clients[m.activeIdx].(*rpcfeed.Feed)
	if !ok {
		return nil, errors.New("active pool does not take work over rpc")
	}
	return feed, nil
}

//MinerMain starts the miner
func (m *Miner) MinerMain() {
	log.SetOutput(os.Stdout)
	logger := initLogger(m.LogLevel)
	defer logger.Sync()
	logSysInfo(logger)

	if err := m.Start(logger); err != nil {
		logger.Fatal("Miner", zap.Error(err))
	}
	log.Print("API listening on ", m.APIListen)
	if err := http.ListenAndServe(m.APIListen, m.Router()); err != nil {
		logger.Fatal("API", zap.Error(err))
	}
}
