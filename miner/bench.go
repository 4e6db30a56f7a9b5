package miner

import (
	"encoding/binary"
	"time"

	"github.com/kestrellsystems/VeriMiner/algorithms/scryptn"
	"github.com/kestrellsystems/VeriMiner/mining"
)

//BenchResult is the outcome of hashing a fixed header on one goroutine
type BenchResult struct {
	Cost     int
	Hashes   int
	Elapsed  time.Duration
	Hashrate float64
}

//Bench hashes a zero header with increasing nonces at the given cost
func Bench(cost, hashes int) BenchResult {
	mf := &scryptn.MiningFuncs{Cost: cost}
	hasher := mf.NewHasher()
	header := make([]byte, mining.HeaderSize)

	start := time.Now()
	for i := 0; i < hashes; i++ {
		binary.LittleEndian.PutUint32(header[mining.HeaderPrefixSize:], uint32(i))
		hasher.Hash(header)
	}
	res := BenchResult{Cost: mf.HashCost(), Hashes: hashes, Elapsed: time.Since(start)}
	if secs := res.Elapsed.Seconds(); secs > 0 {
		res.Hashrate = float64(hashes) / secs
	}
	return res
}
