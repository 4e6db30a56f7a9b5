package mining

import (
	"time"

	"go.uber.org/zap"
)

//Hasher computes the 32 byte digest of an 80 byte header.
// Implementations may keep scratch memory and are used by one goroutine at a time.
type Hasher interface {
	Hash(input []byte) [32]byte
}

//MinerArgs configures a Session
type MinerArgs struct {
	//NewHasher builds the worker private hasher, called once per worker slot
	NewHasher func() Hasher
	//Workers is the default worker count, 0 means one per logical cpu
	Workers   int
	PollDelay time.Duration
	Logger    *zap.Logger
}

//Miner declares the common 'Mine' methods
type Miner interface {
	Init(MinerArgs)
	Halt()
}
