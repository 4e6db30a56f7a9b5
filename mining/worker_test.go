package mining

import (
	"sync"
	"testing"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

func TestClaimSingleWinner(t *testing.T) {
	var hashes atomic.Uint64
	shared := newSharedState(&hashes)

	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n uint32) {
			defer wg.Done()
			<-start
			var d [TargetSize]byte
			d[0] = byte(n)
			if shared.claim(n, d) {
				wins.Inc()
			}
		}(uint32(i))
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("%d claims succeeded", wins.Load())
	}
	nonce, ok := shared.result()
	if !ok {
		t.Fatal("no winner recorded")
	}
	if shared.digest[0] != byte(nonce) {
		t.Fatalf("digest %x does not belong to nonce %d", shared.digest, nonce)
	}
	if !shared.stop.Load() {
		t.Fatal("claimant did not stop the session")
	}
}

func TestClaimNonceZero(t *testing.T) {
	var hashes atomic.Uint64
	shared := newSharedState(&hashes)
	if _, ok := shared.result(); ok {
		t.Fatal("fresh state has a winner")
	}
	if !shared.claim(0, [TargetSize]byte{}) {
		t.Fatal("claim of nonce 0 failed")
	}
	if nonce, ok := shared.result(); !ok || nonce != 0 {
		t.Fatalf("got %d %v", nonce, ok)
	}
}

type panicHasher struct{}

func (panicHasher) Hash([]byte) [32]byte { panic("scratch table corrupted") }

func TestWorkerRecoversFromHashPanic(t *testing.T) {
	var hashes atomic.Uint64
	shared := newSharedState(&hashes)
	w := &worker{part: Partition{Start: 0, Stride: 1}, hasher: panicHasher{}, logger: zap.NewNop()}
	w.mine(make([]byte, HeaderPrefixSize), [TargetSize]byte{0xff}, shared)
	if _, ok := shared.result(); ok {
		t.Fatal("panicking worker reported a winner")
	}
}

type countingHasher struct{ calls int }

func (h *countingHasher) Hash([]byte) (d [32]byte) {
	h.calls++
	for i := range d {
		d[i] = 0xff
	}
	return
}

func TestWorkerObservesStop(t *testing.T) {
	var hashes atomic.Uint64
	shared := newSharedState(&hashes)
	shared.stop.Store(true)
	h := &countingHasher{}
	w := &worker{part: Partition{Start: 0, Stride: 1}, hasher: h, logger: zap.NewNop()}
	w.mine(make([]byte, HeaderPrefixSize), [TargetSize]byte{}, shared)
	if h.calls != 0 {
		t.Fatalf("worker hashed %d times after stop", h.calls)
	}
	if _, ok := shared.result(); ok {
		t.Fatal("stop without success must not produce a winner")
	}
}

func TestWorkerExhaustsPartition(t *testing.T) {
	var hashes atomic.Uint64
	shared := newSharedState(&hashes)
	h := &countingHasher{}
	// stride 2^31 leaves two nonces for the worker
	w := &worker{part: Partition{Start: 5, Stride: 1 << 31}, hasher: h, logger: zap.NewNop()}
	w.mine(make([]byte, HeaderPrefixSize), [TargetSize]byte{}, shared)
	if h.calls != 2 || hashes.Load() != 2 {
		t.Fatalf("worker hashed %d times (counter %d), want 2", h.calls, hashes.Load())
	}
}
