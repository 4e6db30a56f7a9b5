package scryptn

import "math/bits"

//blockMix is BlockMix with r=1: two Salsa20/8 passes, each half feeding the other.
func blockMix(x *[blockWords]uint32) {
	lo := (*[16]uint32)(x[:16])
	hi := (*[16]uint32)(x[16:])
	xorSalsa8(lo, hi)
	xorSalsa8(hi, lo)
}

//xorSalsa8 sets b = Salsa20/8(b ^ bx)
func xorSalsa8(b, bx *[16]uint32) {
	for i := range b {
		b[i] ^= bx[i]
	}
	x00, x01, x02, x03 := b[0], b[1], b[2], b[3]
	x04, x05, x06, x07 := b[4], b[5], b[6], b[7]
	x08, x09, x10, x11 := b[8], b[9], b[10], b[11]
	x12, x13, x14, x15 := b[12], b[13], b[14], b[15]

	for i := 0; i < 8; i += 2 {
		// columns
		x04 ^= bits.RotateLeft32(x00+x12, 7)
		x08 ^= bits.RotateLeft32(x04+x00, 9)
		x12 ^= bits.RotateLeft32(x08+x04, 13)
		x00 ^= bits.RotateLeft32(x12+x08, 18)

		x09 ^= bits.RotateLeft32(x05+x01, 7)
		x13 ^= bits.RotateLeft32(x09+x05, 9)
		x01 ^= bits.RotateLeft32(x13+x09, 13)
		x05 ^= bits.RotateLeft32(x01+x13, 18)

		x14 ^= bits.RotateLeft32(x10+x06, 7)
		x02 ^= bits.RotateLeft32(x14+x10, 9)
		x06 ^= bits.RotateLeft32(x02+x14, 13)
		x10 ^= bits.RotateLeft32(x06+x02, 18)

		x03 ^= bits.RotateLeft32(x15+x11, 7)
		x07 ^= bits.RotateLeft32(x03+x15, 9)
		x11 ^= bits.RotateLeft32(x07+x03, 13)
		x15 ^= bits.RotateLeft32(x11+x07, 18)

		// rows
		x01 ^= bits.RotateLeft32(x00+x03, 7)
		x02 ^= bits.RotateLeft32(x01+x00, 9)
		x03 ^= bits.RotateLeft32(x02+x01, 13)
		x00 ^= bits.RotateLeft32(x03+x02, 18)

		x06 ^= bits.RotateLeft32(x05+x04, 7)
		x07 ^= bits.RotateLeft32(x06+x05, 9)
		x04 ^= bits.RotateLeft32(x07+x06, 13)
		x05 ^= bits.RotateLeft32(x04+x07, 18)

		x11 ^= bits.RotateLeft32(x10+x09, 7)
		x08 ^= bits.RotateLeft32(x11+x10, 9)
		x09 ^= bits.RotateLeft32(x08+x11, 13)
		x10 ^= bits.RotateLeft32(x09+x08, 18)

		x12 ^= bits.RotateLeft32(x15+x14, 7)
		x13 ^= bits.RotateLeft32(x12+x15, 9)
		x14 ^= bits.RotateLeft32(x13+x12, 13)
		x15 ^= bits.RotateLeft32(x14+x13, 18)
	}

	b[0] += x00
	b[1] += x01
	b[2] += x02
	b[3] += x03
	b[4] += x04
	b[5] += x05
	b[6] += x06
	b[7] += x07
	b[8] += x08
	b[9] += x09
	b[10] += x10
	b[11] += x11
	b[12] += x12
	b[13] += x13
	b[14] += x14
	b[15] += x15
}
