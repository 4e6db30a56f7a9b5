package statistics

import "sync"

//window is the number of one second samples kept
const window = 3600

//HashRate is a ring of per second hash counts
type HashRate struct {
	mutex      sync.Mutex
	dataSeries [window]float64
	currentPos int
}

func (hr *HashRate) Add(num float64) {
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	hr.currentPos = (hr.currentPos + 1) % window
	hr.dataSeries[hr.currentPos] = num
}

//RecentNSum sums the last recentn samples
func (hr *HashRate) RecentNSum(recentn int) (sum float64) {
	if recentn > window {
		recentn = window
	}
	hr.mutex.Lock()
	defer hr.mutex.Unlock()
	pos := 0
	for i := 0; i < recentn; i++ {
		pos = (hr.currentPos - i)
		if pos < 0 {
			pos += window
		}
		sum += hr.dataSeries[pos]
	}
	return
}

//Rate returns the average per second over the last seconds samples
func (hr *HashRate) Rate(seconds int) float64 {
	if seconds <= 0 {
		return 0
	}
	if seconds > window {
		seconds = window
	}
	return hr.RecentNSum(seconds) / float64(seconds)
}
