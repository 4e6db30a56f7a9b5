package types

//Pool is a coordinator the miner takes work from
type Pool struct {
	URL    string `json:"url" mapstructure:"url"`
	User   string `json:"user" mapstructure:"user"`
	Pass   string `json:"pass" mapstructure:"pass"`
	Algo   string `json:"algo" mapstructure:"algo"`
	Active bool   `json:"active,omitempty" mapstructure:"active"`
}

type PoolConnectionStates int

const (
	NotReady PoolConnectionStates = iota + 1
	Alive
	Sick
	Dead
)

type PoolStates struct {
	Status       PoolConnectionStates `json:"status"`
	User         string               `json:"user"`
	PoolAddr     string               `json:"pooladdr"`
	Algo         string               `json:"algo"`
	Accept       int32                `json:"accept"`
	Reject       int32                `json:"reject"`
	Discard      int32                `json:"discard"`
	Queued       int                  `json:"queued"`
	LastAccepted int64                `json:"lastaccepted"`
	Active       bool                 `json:"active"`
}

type HardwareStats int

const (
	Idle HardwareStats = iota + 1
	Running
	NoResponse
	Stopped
)

type DriverStates struct {
	DriverName string        `json:"name"`
	Status     HardwareStats `json:"status"`
	Workers    int           `json:"workers"`
	Cost       int           `json:"cost"`
	HashNum    [3]float64    `json:"hashnum"`
	Hashrate   [3]float64    `json:"hashrate"`
	Hashes     uint64        `json:"hashes"`
	Solutions  uint64        `json:"solutions"`
	Submitted  uint64        `json:"submitted"`
	CurrentJob string        `json:"currentjob"`
	Features   []string      `json:"features"`
	Algo       string        `json:"algo"`
}

type MinerStatus struct {
	Devs      []*DriverStates `json:"devs"`
	MinerDown bool            `json:"minerDown"`
	MinerUp   bool            `json:"minerUp"`
	Pools     []*PoolStates   `json:"pools"`
	Time      int64           `json:"time"`
}

type Status struct {
	Status *MinerStatus `json:"status"`
}
