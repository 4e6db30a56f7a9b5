package rpcfeed

import (
	"bytes"
	"encoding/hex"
	stdjson "encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/rpc"
	"github.com/gorilla/rpc/json"

	"github.com/kestrellsystems/VeriMiner/clients"
	"github.com/kestrellsystems/VeriMiner/mining"
	"github.com/kestrellsystems/VeriMiner/types"
)

// header words as the pool sends them, ntime is 5f1c8a66 at byte 68
const wireData = "20000000" + "3ea6d1b2d1c5140fe1e67bcfc25aaec0e8f1aba9dc9ba2f13f0dde3f00005c1c" +
	"9e2d3b8ff0617c4a3a8e5bd26ed1479c83fab205" + "7ae1d4c9c3f5b062a7e4918d" + "668a1c5f" + "1e0fffff"

var testPool = &types.Pool{URL: "", User: "worker.1", Pass: "x", Algo: "scryptn"}

func newServer(t *testing.T, f *Feed) (call func(method string, args, reply interface{}) error, closeFn func()) {
	s := rpc.NewServer()
	s.RegisterCodec(json.NewCodec(), "application/json")
	if err := s.RegisterService(f.Service(), "Work"); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s)
	call = func(method string, args, reply interface{}) error {
		body, err := json.EncodeClientRequest(method, args)
		if err != nil {
			return err
		}
		resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return json.DecodeClientResponse(resp.Body, reply)
	}
	return call, srv.Close
}

func target(top byte) string {
	t := make([]byte, mining.TargetSize)
	t[31] = top
	return hex.EncodeToString(t)
}

func TestParseJobNormalizesHeader(t *testing.T) {
	job, err := ParseJob(&NotifyArgs{JobID: "1f", Data: wireData, Target: target(0x0f)})
	if err != nil {
		t.Fatal(err)
	}
	want := "00000020b2d1a63e0f14c5d1cf7be6e1c0ae5ac2a9abf1e8f1a29bdc3fde0d3f1c5c0000" +
		"8f3b2d9e4a7c61f0d25b8e3a9c47d16e05b2fa83c9d4e17a62b0f5c38d91e4a75f1c8a66ffff0f1e"
	if hex.EncodeToString(job.Header) != want {
		t.Fatalf("header %x", job.Header)
	}
	if job.Extra.(jobExtra).NTime != "668a1c5f" {
		t.Fatalf("ntime %v", job.Extra)
	}

	for _, bad := range []NotifyArgs{
		{JobID: "", Data: wireData, Target: target(1)},
		{JobID: "x", Data: wireData[:150], Target: target(1)},
		{JobID: "x", Data: wireData, Target: "00"},
		{JobID: "x", Data: strings.Repeat("zz", 76), Target: target(1)},
		{JobID: "x", Data: wireData, Target: target(1), ExtraNonce2: "xyz"},
	} {
		if _, err := ParseJob(&bad); err == nil {
			t.Errorf("accepted %+v", bad)
		}
	}
}

func TestNotifyQueuesAndDeprecates(t *testing.T) {
	f := NewClient(testPool, nil)
	f.Start()
	call, closeFn := newServer(t, f)
	defer closeFn()

	if _, _, err := f.GetJobForWork(); err != clients.ErrNoJob {
		t.Fatalf("empty feed returned %v", err)
	}

	var reply NotifyReply
	if err := call("Work.Notify", &NotifyArgs{JobID: "a", Data: wireData, Target: target(1)}, &reply); err != nil {
		t.Fatal(err)
	}
	job, deprecated, err := f.GetJobForWork()
	if err != nil || job.ID != "a" {
		t.Fatalf("job %v err %v", job, err)
	}

	// queue two more, the second one cleans
	call("Work.Notify", &NotifyArgs{JobID: "b", Data: wireData, Target: target(1)}, &reply)
	select {
	case <-deprecated:
	case <-time.After(time.Second):
		t.Fatal("a new job did not abandon the running one")
	}
	if err := call("Work.Notify", &NotifyArgs{JobID: "c", Data: wireData, Target: target(1), CleanJobs: true}, &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Queued != 1 {
		t.Fatalf("clean job left %d queued", reply.Queued)
	}
	job, _, _ = f.GetJobForWork()
	if job.ID != "c" {
		t.Fatalf("got job %s after clean", job.ID)
	}

	var stats StatsReply
	if err := call("Work.Stats", &StatsArgs{}, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Pool.Status != types.Alive || stats.Pool.Discard != 1 {
		t.Fatalf("stats %+v", stats.Pool)
	}

	if err := call("Work.Notify", &NotifyArgs{JobID: "bad", Data: "00", Target: target(1)}, &reply); err == nil {
		t.Fatal("malformed job accepted over rpc")
	}
}

func TestSolutionsDrain(t *testing.T) {
	f := NewClient(testPool, nil)
	call, closeFn := newServer(t, f)
	defer closeFn()

	job, _ := ParseJob(&NotifyArgs{JobID: "s1", Data: wireData, Target: target(1), ExtraNonce2: "01000000"})
	if err := f.SubmitSolution(mining.Solution{JobID: "s1", Nonce: 0xbeef, Job: job}); err != nil {
		t.Fatal(err)
	}

	var reply SolutionsReply
	if err := call("Work.Solutions", &SolutionsArgs{}, &reply); err != nil {
		t.Fatal(err)
	}
	if len(reply.Solutions) != 1 || reply.Solutions[0].Nonce != "0000beef" || reply.Solutions[0].NTime != "668a1c5f" ||
		reply.Solutions[0].ExtraNonce2 != "01000000" {
		t.Fatalf("solutions %+v", reply.Solutions)
	}
	call("Work.Solutions", &SolutionsArgs{}, &reply)
	if len(reply.Solutions) != 0 {
		t.Fatal("solutions were not drained")
	}
}

type rawRequest struct {
	Method string             `json:"method"`
	Params [][]string         `json:"params"`
	ID     stdjson.RawMessage `json:"id"`
}

func TestSubmitForwardsToPool(t *testing.T) {
	var got rawRequest
	accept := true
	pool := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, _, ok := r.BasicAuth(); !ok || user != "worker.1" {
			t.Errorf("missing basic auth")
		}
		stdjson.NewDecoder(r.Body).Decode(&got)
		stdjson.NewEncoder(w).Encode(map[string]interface{}{"id": got.ID, "result": accept, "error": nil})
	}))
	defer pool.Close()

	f := NewClient(&types.Pool{URL: pool.URL, User: "worker.1", Pass: "x", Algo: "scryptn"}, nil)
	job, _ := ParseJob(&NotifyArgs{JobID: "j9", Data: wireData, Target: target(1), ExtraNonce2: "0000002a"})
	if err := f.SubmitSolution(mining.Solution{JobID: "j9", Nonce: 7, Job: job}); err != nil {
		t.Fatal(err)
	}
	if got.Method != "mining.submit" || len(got.Params) != 1 {
		t.Fatalf("request %+v", got)
	}
	if p := got.Params[0]; strings.Join(p, ",") != "worker.1,j9,0000002a,668a1c5f,00000007" {
		t.Fatalf("params %v", p)
	}

	accept = false
	if err := f.SubmitSolution(mining.Solution{JobID: "j9", Nonce: 8, Job: job}); err == nil {
		t.Fatal("rejected share reported as accepted")
	}
	stats := f.GetPoolStats()
	if stats.Accept != 1 || stats.Reject != 1 || stats.LastAccepted == 0 {
		t.Fatalf("stats %+v", stats)
	}
}

func TestStopAbandonsJobs(t *testing.T) {
	f := NewClient(testPool, nil)
	job, _ := ParseJob(&NotifyArgs{JobID: "z", Data: wireData, Target: target(1)})
	f.AddJob(job, false)
	f.AddJob(job, false)
	_, deprecated, _ := f.GetJobForWork()
	f.Stop()
	select {
	case <-deprecated:
	case <-time.After(time.Second):
		t.Fatal("stop did not abandon the running job")
	}
	if f.PoolConnectionStates() != types.Dead || f.GetPoolStats().Queued != 0 {
		t.Fatalf("stats after stop %+v", f.GetPoolStats())
	}
}
