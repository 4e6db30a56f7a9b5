package mining

//Partition is the arithmetic progression start, start+stride, ... of uint32
// nonces a single worker examines.
type Partition struct {
	Start, Stride uint32
}

//Len is the number of nonces in the progression before it would wrap past 2^32
func (p Partition) Len() uint64 {
	return (1<<32 - uint64(p.Start) + uint64(p.Stride) - 1) / uint64(p.Stride)
}

//Nonce returns the i-th nonce of the progression
func (p Partition) Nonce(i uint64) uint32 {
	return p.Start + uint32(i)*p.Stride
}

//Partitions splits the nonce space into k interleaved progressions that cover
// every uint32 exactly once.
func Partitions(k int) []Partition {
	if k < 1 {
		k = 1
	}
	parts := make([]Partition, k)
	for i := range parts {
		parts[i] = Partition{Start: uint32(i), Stride: uint32(k)}
	}
	return parts
}
