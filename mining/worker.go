package mining

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const claimedBit = uint64(1) << 32

//sharedState is the only state the workers of one session share
type sharedState struct {
	stop   atomic.Bool
	winner atomic.Uint64 // 0 while unset, claimedBit|nonce once claimed
	hashes *atomic.Uint64

	// digest is written by the claimant only and read after all workers exited
	digest [TargetSize]byte
}

func newSharedState(hashes *atomic.Uint64) *sharedState {
	return &sharedState{hashes: hashes}
}

//claim records nonce as the winner if nobody did before. Only the claimant stops the session.
func (s *sharedState) claim(nonce uint32, digest [TargetSize]byte) bool {
	if !s.winner.CompareAndSwap(0, claimedBit|uint64(nonce)) {
		return false
	}
	s.digest = digest
	s.stop.Store(true)
	return true
}

func (s *sharedState) result() (nonce uint32, ok bool) {
	w := s.winner.Load()
	return uint32(w), w&claimedBit != 0
}

type worker struct {
	id     int
	part   Partition
	hasher Hasher
	logger *zap.Logger
}

//mine walks the worker's partition until it finds a winner, the session stops or the partition is exhausted
func (w *worker) mine(header []byte, target [TargetSize]byte, shared *sharedState) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Worker",
				zap.Int("WorkerID", w.id),
				zap.String("Stat", "hash computation failed, no answer from this worker"),
				zap.String("Panic", fmt.Sprint(r)),
			)
		}
	}()

	var buf [HeaderSize]byte
	copy(buf[:HeaderPrefixSize], header)

	nonce := w.part.Start
	for n := w.part.Len(); n > 0; n-- {
		if shared.stop.Load() {
			return
		}
		binary.LittleEndian.PutUint32(buf[HeaderPrefixSize:], nonce)
		digest := w.hasher.Hash(buf[:])
		shared.hashes.Inc()

		if Beats(digest, target) {
			if shared.claim(nonce, digest) {
				w.logger.Debug("Worker",
					zap.Int("WorkerID", w.id),
					zap.String("Stat", "Share found!"),
					zap.Uint32("Nonce", nonce),
				)
			}
			return
		}
		nonce += w.part.Stride
	}
	w.logger.Debug("Worker", zap.Int("WorkerID", w.id), zap.String("Stat", "partition exhausted"))
}
