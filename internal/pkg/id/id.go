package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort by creation time, so task IDs
// read in log order match enqueue order within a process.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
