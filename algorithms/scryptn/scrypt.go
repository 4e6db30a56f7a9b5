// Package scryptn implements the memory-hard header hash used by the
// coordinator: scrypt with N=2^20, r=1, p=1 keyed by the header itself.
package scryptn

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	//N is the cost factor validators use
	N = 1 << 20
	//HeaderSize is the length of a header with the nonce appended
	HeaderSize = 80
	//HashSize is the length of a digest
	HashSize = 32

	blockWords = 32
	blockBytes = blockWords * 4
)

//Hasher holds the scratch table for one goroutine. It must not be shared.
type Hasher struct {
	n uint32
	v []uint32
	x [blockWords]uint32
	b [blockBytes]byte
}

//New allocates a hasher with cost n, which must be a power of two greater than one.
// The table takes 128*n bytes, 128 MiB at N.
func New(n int) *Hasher {
	if n < 2 || n&(n-1) != 0 || uint64(n) > 1<<32 {
		panic(fmt.Sprintf("scryptn: invalid cost %d", n))
	}
	return &Hasher{
		n: uint32(n - 1),
		v: make([]uint32, blockWords*n),
	}
}

//Cost returns the N the hasher was built with
func (h *Hasher) Cost() int {
	return int(h.n) + 1
}

//Hash returns the digest of input, normally 76 header bytes followed by a little endian nonce.
func (h *Hasher) Hash(input []byte) (digest [HashSize]byte) {
	seed := pbkdf2.Key(input, input, 1, blockBytes, sha256.New)
	for i := range h.x {
		h.x[i] = binary.LittleEndian.Uint32(seed[i*4:])
	}

	h.romix()

	for i, w := range h.x {
		binary.LittleEndian.PutUint32(h.b[i*4:], w)
	}
	copy(digest[:], pbkdf2.Key(input, h.b[:], 1, HashSize, sha256.New))
	return
}

func (h *Hasher) romix() {
	x := &h.x
	v := h.v
	rounds := int(h.n) + 1

	for i := 0; i < rounds; i++ {
		copy(v[i*blockWords:], x[:])
		blockMix(x)
	}
	for i := 0; i < rounds; i++ {
		j := int(x[16]&h.n) * blockWords
		for k := range x {
			x[k] ^= v[j+k]
		}
		blockMix(x)
	}
}
