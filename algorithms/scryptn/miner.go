package scryptn

import (
	"github.com/kestrellsystems/VeriMiner/driver"
	"github.com/kestrellsystems/VeriMiner/mining"
)

//AlgoName is the name pools use for this algorithm
const AlgoName = "scryptn"

//MiningFuncs plugs the hash into the driver. Cost 0 selects N.
type MiningFuncs struct {
	Cost int
}

func (mf *MiningFuncs) cost() int {
	if mf.Cost == 0 {
		return N
	}
	return mf.Cost
}

//NewHasher allocates a worker private hasher
func (mf *MiningFuncs) NewHasher() mining.Hasher {
	return New(mf.cost())
}

//RegenHash hashes an 80 byte header with a throwaway scratch table
func (mf *MiningFuncs) RegenHash(input []byte) (output []byte) {
	if len(input) != HeaderSize {
		output = make([]byte, HashSize)
		for i := range output {
			output[i] = 0xff
		}
		return
	}
	hash := New(mf.cost()).Hash(input)
	return hash[:]
}

//DiffChecker tells whether hash beats the work target
func (mf *MiningFuncs) DiffChecker(hash []byte, work driver.MiningWork) bool {
	if len(hash) != HashSize || work.Job == nil || len(work.Job.Target) != HashSize {
		return false
	}
	var h [HashSize]byte
	copy(h[:], hash)
	return mining.Beats(h, work.Job.TargetArray())
}

//HashCost reports the memory cost parameter in use
func (mf *MiningFuncs) HashCost() int {
	return mf.cost()
}
