package mining

//Beats reports whether digest is strictly below target, both read as little
// endian 256 bit integers (index 31 is the most significant byte).
func Beats(digest, target [TargetSize]byte) bool {
	for i := TargetSize - 1; i >= 0; i-- {
		if digest[i] != target[i] {
			return digest[i] < target[i]
		}
	}
	return false
}
