//Package rpcfeed is a client that receives jobs over JSON-RPC from a local
// coordinator and forwards winning nonces to the pool endpoint.
package rpcfeed

import (
	"bytes"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/rpc/json"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kestrellsystems/VeriMiner/clients"
	"github.com/kestrellsystems/VeriMiner/clients/codec"
	"github.com/kestrellsystems/VeriMiner/mining"
	"github.com/kestrellsystems/VeriMiner/types"
)

const (
	//maxSolutions bounds the solutions kept until the coordinator drains them
	maxSolutions = 256
	ntimeOffset  = 68
)

//SolutionInfo is a winning nonce in the form the coordinator submits it
type SolutionInfo struct {
	JobID       string `json:"job_id"`
	ExtraNonce2 string `json:"extranonce2"`
	NTime       string `json:"ntime"`
	Nonce       string `json:"nonce"`
	Hash        string `json:"hash"`
}

type jobExtra struct {
	NTime       string
	ExtraNonce2 string
}

//Feed is a clients.Client whose jobs are pushed through the Work service
type Feed struct {
	URL      string
	User     string
	Password string
	Algo     string

	HTTPClient *http.Client
	Logger     *zap.Logger

	mutex                   sync.Mutex // protects following
	queue                   []*mining.Job
	solutions               []SolutionInfo
	status                  types.PoolConnectionStates
	accept, reject, discard int32
	lastAccept              int64
	clients.BaseClient
}

//NewClient creates a feed for pool. Submissions are forwarded when the pool url is http(s).
func NewClient(pool *types.Pool, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		URL:        pool.URL,
		User:       pool.User,
		Password:   pool.Pass,
		Algo:       pool.Algo,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
		status:     types.NotReady,
	}
}

func (f *Feed) AlgoName() string {
	return f.Algo
}

//Start marks the feed ready, jobs arrive through Notify
func (f *Feed) Start() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.status == types.Dead {
		f.status = types.NotReady
	}
	f.Logger.Info("Feed", zap.String("Stat", "waiting for jobs"), zap.String("Pool", f.URL))
}

//Stop drops queued jobs and abandons the running one
func (f *Feed) Stop() {
	f.mutex.Lock()
	f.queue = nil
	f.status = types.Dead
	f.mutex.Unlock()
	f.DeprecateOutstandingJobs()
}

func (f *Feed) PoolConnectionStates() types.PoolConnectionStates {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.status
}

func (f *Feed) GetPoolStats() (info types.PoolStates) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	info.Status = f.status
	info.User = f.User
	info.PoolAddr = f.URL
	info.Algo = f.Algo
	info.Accept, info.Reject, info.Discard = f.accept, f.reject, f.discard
	info.Queued = len(f.queue)
	info.LastAccepted = f.lastAccept
	return
}

//AddJob queues a job. Any job handed out before is abandoned; cleanJobs also
// drops the jobs still waiting in the queue.
func (f *Feed) AddJob(job *mining.Job, cleanJobs bool) (queued int) {
	f.mutex.Lock()
	if cleanJobs {
		f.discard += int32(len(f.queue))
		f.queue = nil
	}
	f.queue = append(f.queue, job)
	f.status = types.Alive
	queued = len(f.queue)
	f.mutex.Unlock()

	f.DeprecateOutstandingJobs()
	return
}

//GetJobForWork pops the oldest queued job
func (f *Feed) GetJobForWork() (job *mining.Job, deprecationChannel chan bool, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if len(f.queue) == 0 {
		err = clients.ErrNoJob
		return
	}
	job = f.queue[0]
	f.queue[0] = nil
	f.queue = f.queue[1:]
	deprecationChannel = f.AddJobToDeprecate(job.ID)
	return
}

//SubmitSolution keeps the solution for the coordinator and forwards it to the pool
func (f *Feed) SubmitSolution(sol mining.Solution) (err error) {
	info := SolutionInfo{
		JobID: sol.JobID,
		Nonce: codec.NonceHex(sol.Nonce),
		Hash:  hex.EncodeToString(sol.Digest[:]),
	}
	if sol.Job != nil {
		if extra, ok := sol.Job.Extra.(jobExtra); ok {
			info.NTime = extra.NTime
			info.ExtraNonce2 = extra.ExtraNonce2
		}
	}

	f.mutex.Lock()
	f.solutions = append(f.solutions, info)
	if over := len(f.solutions) - maxSolutions; over > 0 {
		f.solutions = f.solutions[over:]
	}
	f.mutex.Unlock()

	if !strings.HasPrefix(f.URL, "http://") && !strings.HasPrefix(f.URL, "https://") {
		return nil
	}

	err = f.forward(info)
	f.mutex.Lock()
	if err != nil {
		f.reject++
	} else {
		f.accept++
		f.lastAccept = time.Now().Unix()
	}
	f.mutex.Unlock()
	return
}

func (f *Feed) forward(info SolutionInfo) error {
	params := []string{f.User, info.JobID, info.ExtraNonce2, info.NTime, info.Nonce}
	body, err := json.EncodeClientRequest("mining.submit", params)
	if err != nil {
		return errors.Wrap(err, "encoding submit")
	}
	req, err := http.NewRequest(http.MethodPost, f.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building submit request")
	}
	req.Header.Set("Content-Type", "application/json")
	if f.User != "" {
		req.SetBasicAuth(f.User, f.Password)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "submitting job %s", info.JobID)
	}
	defer resp.Body.Close()

	var accepted bool
	if err = json.DecodeClientResponse(resp.Body, &accepted); err != nil {
		return errors.Wrapf(err, "share for job %s rejected", info.JobID)
	}
	if !accepted {
		return errors.Errorf("share for job %s rejected", info.JobID)
	}
	return nil
}

//TakeSolutions returns and forgets the solutions found so far
func (f *Feed) TakeSolutions() (solutions []SolutionInfo) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	solutions, f.solutions = f.solutions, nil
	return
}
