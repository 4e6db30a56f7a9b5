package rpcfeed

import (
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kestrellsystems/VeriMiner/clients/codec"
	"github.com/kestrellsystems/VeriMiner/mining"
	"github.com/kestrellsystems/VeriMiner/types"
)

//NotifyArgs carries one job. Data is the 76 byte header prefix as the pool
// sends it, every 4 byte word byte swapped. Target is little endian.
// ExtraNonce2 is the hex the coordinator put into the coinbase, it is echoed on submit.
type NotifyArgs struct {
	JobID       string `json:"job_id"`
	Data        string `json:"data"`
	Target      string `json:"target"`
	ExtraNonce2 string `json:"extranonce2"`
	CleanJobs   bool   `json:"clean_jobs"`
}

type NotifyReply struct {
	Queued int `json:"queued"`
}

type SolutionsArgs struct{}

type SolutionsReply struct {
	Solutions []SolutionInfo `json:"solutions"`
}

type StatsArgs struct{}

type StatsReply struct {
	Pool types.PoolStates `json:"pool"`
}

//Service exposes a feed as the "Work" JSON-RPC service
type Service struct {
	feed *Feed
}

//Service returns the RPC service feeding f
func (f *Feed) Service() *Service {
	return &Service{feed: f}
}

//ParseJob turns notify arguments into a job
func ParseJob(args *NotifyArgs) (*mining.Job, error) {
	if args.JobID == "" {
		return nil, errors.New("missing job_id")
	}
	data, err := codec.DecodeFixedHex(args.Data, mining.HeaderPrefixSize)
	if err != nil {
		return nil, errors.Wrapf(err, "job %s: data", args.JobID)
	}
	target, err := codec.DecodeFixedHex(args.Target, mining.TargetSize)
	if err != nil {
		return nil, errors.Wrapf(err, "job %s: target", args.JobID)
	}

	if args.ExtraNonce2 != "" {
		if _, err = codec.HexStringToBytes(args.ExtraNonce2); err != nil {
			return nil, errors.Wrapf(err, "job %s: extranonce2", args.JobID)
		}
	}

	job := mining.NewJob(args.JobID, codec.RevHash(data), target)
	job.Extra = jobExtra{
		NTime:       args.Data[ntimeOffset*2 : ntimeOffset*2+8],
		ExtraNonce2: args.ExtraNonce2,
	}
	return job, job.Validate()
}

//Notify queues a new job and abandons the one being mined
func (s *Service) Notify(r *http.Request, args *NotifyArgs, reply *NotifyReply) error {
	job, err := ParseJob(args)
	if err != nil {
		s.feed.Logger.Warn("Feed", zap.String("Stat", "rejected job"), zap.Error(err))
		return err
	}
	reply.Queued = s.feed.AddJob(job, args.CleanJobs)
	s.feed.Logger.Debug("Feed",
		zap.String("JobID", job.ID),
		zap.Bool("CleanJobs", args.CleanJobs),
		zap.Int("Queued", reply.Queued),
	)
	return nil
}

//Solutions drains the solutions found since the previous call
func (s *Service) Solutions(r *http.Request, args *SolutionsArgs, reply *SolutionsReply) error {
	reply.Solutions = s.feed.TakeSolutions()
	return nil
}

//Stats reports the feed counters
func (s *Service) Stats(r *http.Request, args *StatsArgs, reply *StatsReply) error {
	reply.Pool = s.feed.GetPoolStats()
	return nil
}
