package mining

import (
	"math"
	"testing"
)

func TestPartitionsCoverNonceSpace(t *testing.T) {
	for _, k := range []int{1, 2, 4, 8} {
		parts := Partitions(k)
		if len(parts) != k {
			t.Fatalf("k=%d: got %d partitions", k, len(parts))
		}

		var total uint64
		for i, p := range parts {
			if p.Start != uint32(i) || p.Stride != uint32(k) {
				t.Fatalf("k=%d: partition %d is %+v", k, i, p)
			}
			last := uint64(p.Start) + (p.Len()-1)*uint64(p.Stride)
			if last > math.MaxUint32 {
				t.Fatalf("k=%d: partition %d runs past 2^32 (last %d)", k, i, last)
			}
			if last+uint64(p.Stride) <= math.MaxUint32 {
				t.Fatalf("k=%d: partition %d stops early at %d", k, i, last)
			}
			total += p.Len()
		}
		if total != 1<<32 {
			t.Fatalf("k=%d: partitions hold %d nonces, want 2^32", k, total)
		}

		// every nonce at both ends of the space has exactly one owner at the expected index
		check := func(n uint32) {
			owners := 0
			for _, p := range parts {
				if n < p.Start || (n-p.Start)%p.Stride != 0 {
					continue
				}
				idx := uint64(n-p.Start) / uint64(p.Stride)
				if idx >= p.Len() || p.Nonce(idx) != n {
					t.Fatalf("k=%d: nonce %d maps to index %d outside %+v", k, n, idx, p)
				}
				owners++
			}
			if owners != 1 {
				t.Fatalf("k=%d: nonce %d has %d owners", k, n, owners)
			}
		}
		for n := uint32(0); n < 1<<16; n++ {
			check(n)
			check(math.MaxUint32 - n)
		}
	}
}

func TestPartitionNonceWraps(t *testing.T) {
	p := Partition{Start: 3, Stride: 8}
	last := p.Nonce(p.Len() - 1)
	if last != math.MaxUint32-4 {
		t.Fatalf("last nonce %d", last)
	}
	if next := p.Nonce(p.Len()); next != 3 {
		t.Fatalf("progression should wrap to its start, got %d", next)
	}
}

func TestPartitionsClampsToOne(t *testing.T) {
	parts := Partitions(0)
	if len(parts) != 1 || parts[0].Len() != 1<<32 {
		t.Fatalf("got %+v", parts)
	}
}
