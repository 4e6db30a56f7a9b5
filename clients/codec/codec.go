//Package codec groups the hex and byte order helpers clients use to turn
// coordinator messages into jobs.
package codec

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

//HexStringToBytes converts a hex encoded string (but as go type interface{}) to a byteslice
// If v is no valid string or the string contains invalid characters, an error is returned
func HexStringToBytes(v interface{}) (result []byte, err error) {
	stringValue, ok := v.(string)
	if !ok {
		return nil, errors.Errorf("not a valid string: %v", v)
	}
	if result, err = hex.DecodeString(stringValue); err != nil {
		return nil, errors.Wrap(err, "not a valid hexadecimal value")
	}
	return
}

//DecodeFixedHex decodes s and checks it holds exactly size bytes
func DecodeFixedHex(s string, size int) ([]byte, error) {
	b, err := HexStringToBytes(s)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, errors.Errorf("want %d bytes, got %d", size, len(b))
	}
	return b, nil
}

//RevBytes reverse a slice.
func RevBytes(input []byte) (result []byte) {
	inlen := len(input)
	result = make([]byte, inlen)
	for i := range input {
		result[i] = input[inlen-1-i]
	}
	return
}

//RevHash reverses every 4 byte word of input, the byte order the coordinator
// sends header fields in. A trailing partial word is dropped.
func RevHash(input []byte) (result []byte) {
	result = make([]byte, 0, len(input))
	for i := 0; i < len(input)/4; i++ {
		result = append(result, RevBytes(input[i*4:i*4+4])...)
	}
	return
}

//NonceHex formats a nonce the way it is submitted, 8 lowercase hex digits
func NonceHex(nonce uint32) string {
	return fmt.Sprintf("%08x", nonce)
}
