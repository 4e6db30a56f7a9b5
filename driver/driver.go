package driver

import (
	"github.com/kestrellsystems/VeriMiner/clients"
	"github.com/kestrellsystems/VeriMiner/mining"
	"github.com/kestrellsystems/VeriMiner/types"
)

//MiningWork is a job being mined together with the channel abandoning it
type MiningWork struct {
	Job        *mining.Job
	Deprecated chan bool
}

//MiningFuncs are the algorithm specific parts a driver needs
type MiningFuncs interface {
	NewHasher() mining.Hasher
	RegenHash(input []byte) (output []byte)
	DiffChecker(hash []byte, work MiningWork) bool
}

type Driver interface {
	Start()
	Stop()
	//CancelWork abandons the job being mined, the driver moves on to the next one
	CancelWork()
	GetDriverStats() types.DriverStates
	RegisterMiningFuncs(string, MiningFuncs)
	Init(mining.MinerArgs)
	SetClient(clients.Client)
}
