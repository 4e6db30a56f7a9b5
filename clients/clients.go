//Package clients provides some utilities and common code for specific client implementations
package clients

import (
	"errors"
	"sync"

	"github.com/kestrellsystems/VeriMiner/mining"
	"github.com/kestrellsystems/VeriMiner/types"
)

//ErrNoJob is returned by GetJobForWork while no job is queued
var ErrNoJob = errors.New("no job received from coordinator yet")

//SolutionReporter defines the required method a client should implement for miners to be able to report winning nonces
type SolutionReporter interface {
	//SubmitSolution reports a winning nonce for the job it was found on
	SubmitSolution(sol mining.Solution) (err error)
}

//JobProvider supplies jobs for a miner to mine on
type JobProvider interface {
	//GetJobForWork provides the next job to mine on
	// the deprecationChannel is closed when the job should be abandoned
	GetJobForWork() (job *mining.Job, deprecationChannel chan bool, err error)
}

//DeprecatedJobCall is a function that can be registered on a client to be executed when
// the server indicates that all previous jobs should be abandoned
type DeprecatedJobCall func(jobid string)

//CleanJobEventCall is a function that can be registered on a client to be executed when
// cleanJob is true
type CleanJobEventCall func()

// Client defines the interface for a client towards a work provider
type Client interface {
	JobProvider
	SolutionReporter
	Start()
	Stop()
	AlgoName() (algo string)
	PoolConnectionStates() (stats types.PoolConnectionStates)
	GetPoolStats() (stats types.PoolStates)
	SetDeprecatedJobCall(call DeprecatedJobCall)
	SetCleanJobEventCall(call CleanJobEventCall)
}

//BaseClient implements some common properties and functionality
type BaseClient struct {
	mutex               sync.Mutex // protects following
	deprecationChannels map[string]chan bool
	deprecatedJobCall   DeprecatedJobCall
	cleanJobEventCall   CleanJobEventCall
}

//DeprecateOutstandingJobs closes all deprecationChannels and removes them from the list
func (bc *BaseClient) DeprecateOutstandingJobs() {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	call := bc.deprecatedJobCall
	for jobid, deprecatedJob := range bc.deprecationChannels {
		close(deprecatedJob)
		delete(bc.deprecationChannels, jobid)
		if call != nil {
			go call(jobid)
		}
	}
	if cleanJobEventCall := bc.cleanJobEventCall; cleanJobEventCall != nil {
		go cleanJobEventCall()
	}
}

// AddJobToDeprecate add the jobid to the list of jobs that should be deprecated when the times comes
func (bc *BaseClient) AddJobToDeprecate(jobid string) chan bool {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	if bc.deprecationChannels == nil {
		bc.deprecationChannels = make(map[string]chan bool)
	}
	ch, ok := bc.deprecationChannels[jobid]
	if !ok {
		ch = make(chan bool)
		bc.deprecationChannels[jobid] = ch
	}
	return ch
}

// GetDeprecationChannel return the channel that will be closed when a job gets deprecated
func (bc *BaseClient) GetDeprecationChannel(jobid string) chan bool {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	return bc.deprecationChannels[jobid]
}

//SetDeprecatedJobCall sets the function to be called when the previous jobs should be abandoned
func (bc *BaseClient) SetDeprecatedJobCall(call DeprecatedJobCall) {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	bc.deprecatedJobCall = call
}

//SetCleanJobEventCall sets the function to be called when the previous jobs should be abandoned
func (bc *BaseClient) SetCleanJobEventCall(call CleanJobEventCall) {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	bc.cleanJobEventCall = call
}
