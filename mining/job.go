package mining

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

const (
	//HeaderPrefixSize is the header length without the nonce
	HeaderPrefixSize = 76
	//HeaderSize is the length of the hashed buffer
	HeaderSize = HeaderPrefixSize + 4
	//TargetSize is the length of a target and of a digest
	TargetSize = 32
)

var (
	ErrInvalidHeader      = errors.New("header prefix must be 76 bytes")
	ErrInvalidTarget      = errors.New("target must be 32 bytes")
	ErrInvalidWorkerCount = errors.New("worker count must not be negative")
)

//Job is one unit of work handed out by a coordinator.
// It is read-only while a session runs.
type Job struct {
	ID     string
	Header []byte
	Target []byte
	//Extra is echoed back to the client on submit
	Extra interface{}
}

//Solution is a nonce whose digest beats the job target
type Solution struct {
	JobID  string
	Nonce  uint32
	Digest [TargetSize]byte
	Job    *Job
}

//NewJob copies header and target into a new job
func NewJob(id string, header, target []byte) *Job {
	return &Job{
		ID:     id,
		Header: append([]byte(nil), header...),
		Target: append([]byte(nil), target...),
	}
}

//Validate reports every length violation of the job
func (j *Job) Validate() (err error) {
	if j == nil {
		return errors.New("nil job")
	}
	if len(j.Header) != HeaderPrefixSize {
		err = multierr.Append(err, fmt.Errorf("job %q: %w (got %d)", j.ID, ErrInvalidHeader, len(j.Header)))
	}
	if len(j.Target) != TargetSize {
		err = multierr.Append(err, fmt.Errorf("job %q: %w (got %d)", j.ID, ErrInvalidTarget, len(j.Target)))
	}
	return
}

//TargetArray returns the target as a fixed array. The job must be valid.
func (j *Job) TargetArray() (t [TargetSize]byte) {
	copy(t[:], j.Target)
	return
}
