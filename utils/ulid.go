package utils

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyLock sync.Mutex
	entropy     = ulid.Monotonic(rand.Reader, 0)
)

// GenerateULID returns a ULID that sorts after every ULID previously
// generated by this process within the same millisecond.
func GenerateULID() ulid.ULID {
	return GenerateULIDWithTime(time.Now())
}

// GenerateULIDString generates a new ULID as a string
func GenerateULIDString() string {
	return GenerateULID().String()
}

// GenerateULIDWithTime generates a ULID carrying t as its timestamp.
func GenerateULIDWithTime(t time.Time) ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy)
}

// ULIDTime extracts the timestamp encoded in id.
func ULIDTime(id ulid.ULID) time.Time {
	return ulid.Time(id.Time())
}

// ParseULID parses a ULID string
func ParseULID(s string) (ulid.ULID, error) {
	return ulid.Parse(s)
}
