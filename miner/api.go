package miner

import (
	j "encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/rpc"
	"github.com/gorilla/rpc/json"
	"go.uber.org/zap"

	"github.com/kestrellsystems/VeriMiner/clients/rpcfeed"
	"github.com/kestrellsystems/VeriMiner/types"
)

//Router serves the JSON-RPC services and the status endpoints
func (m *Miner) Router() *mux.Router {
	s := rpc.NewServer()
	s.RegisterCodec(json.NewCodec(), "application/json")
	s.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	s.RegisterService(m, "miner")
	s.RegisterService(&WorkService{m: m}, "Work")
	r := mux.NewRouter()
	r.Handle("/rpc", s)

	r.HandleFunc("/veriminer/f_status", m.GetStatus).Methods(http.MethodGet)
	r.HandleFunc("/veriminer/f_miner", m.MinerCtrl)
	return r
}

type MinerRPCArgs struct {
	Who string
}

type MinerRPCReply struct {
	PoolsInfo string
	Activated int
}

func (m *Miner) poolsInfo() (poolsInfo []*types.PoolStates) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i, client := range m.clients {
		poolInfo := client.GetPoolStats()
		poolInfo.Active = i == m.activeIdx
		poolsInfo = append(poolsInfo, &poolInfo)
	}
	return
}

func (m *Miner) devsInfo() (devsInfo []*types.DriverStates) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.driver == nil {
		return
	}
	ds := m.driver.GetDriverStats()
	ds.Features = m.features
	return append(devsInfo, &ds)
}

func (m *Miner) GetPoolsStats(r *http.Request, args *MinerRPCArgs, reply *MinerRPCReply) error {
	res, err := j.Marshal(m.poolsInfo())
	if err != nil {
		return err
	}
	reply.PoolsInfo = string(res)
	m.mutex.Lock()
	reply.Activated = m.activeIdx
	m.mutex.Unlock()
	return nil
}

type DriverRPCReply struct {
	DriverInfo string
}

func (m *Miner) GetHardwareStats(r *http.Request, args *MinerRPCArgs, reply *DriverRPCReply) error {
	res, err := j.Marshal(m.devsInfo())
	if err != nil {
		return err
	}
	reply.DriverInfo = string(res)
	return nil
}

func (m *Miner) GetSysInfo(r *http.Request, args *MinerRPCArgs, reply *SysInfo) error {
	*reply = GetSysInfo()
	return nil
}

func (m *Miner) status() *types.Status {
	devs := m.devsInfo()
	return &types.Status{
		Status: &types.MinerStatus{
			Devs:      devs,
			Pools:     m.poolsInfo(),
			MinerUp:   len(devs) > 0,
			MinerDown: len(devs) == 0,
			Time:      time.Now().Unix(),
		},
	}
}

func (m *Miner) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	j.NewEncoder(w).Encode(m.status())
}

func (m *Miner) MinerCtrl(w http.ResponseWriter, r *http.Request) {
	cmd := r.URL.Query().Get("command")
	if cmd == "" {
		http.Error(w, "url param 'command' is missing", http.StatusBadRequest)
		return
	}

	m.getLogger().Info("MinerCtrl", zap.String("Command", cmd))
	switch cmd {
	case "reload":
		if err := m.Reload(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	case "cancel":
		m.CancelWork()
	default:
		http.Error(w, "unknown command "+cmd, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

//WorkService forwards the Work rpc calls to the active pool's feed, which
// changes on reload
type WorkService struct {
	m *Miner
}

func (ws *WorkService) Notify(r *http.Request, args *rpcfeed.NotifyArgs, reply *rpcfeed.NotifyReply) error {
	feed, err := ws.m.activeFeed()
	if err != nil {
		return err
	}
	return feed.Service().Notify(r, args, reply)
}

func (ws *WorkService) Solutions(r *http.Request, args *rpcfeed.SolutionsArgs, reply *rpcfeed.SolutionsReply) error {
	feed, err := ws.m.activeFeed()
	if err != nil {
		return err
	}
	return feed.Service().Solutions(r, args, reply)
}

func (ws *WorkService) Stats(r *http.Request, args *rpcfeed.StatsArgs, reply *rpcfeed.StatsReply) error {
	feed, err := ws.m.activeFeed()
	if err != nil {
		return err
	}
	return feed.Service().Stats(r, args, reply)
}
