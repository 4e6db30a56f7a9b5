package mining

//SetMaxWorkers overrides the cpu bound for tests and returns a restore func
func SetMaxWorkers(n int) (restore func()) {
	prev := maxWorkers
	maxWorkers = func() int { return n }
	return func() { maxWorkers = prev }
}
