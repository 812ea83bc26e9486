package utils

import (
	"fmt"
	"sync/atomic"
)

const bankCode = "LBA"

var accountSequence = func() *atomic.Int64 {
	var seq atomic.Int64
	seq.Store(10000000)
	return &seq
}()

// NextAccountNumber returns the next human-readable account number, e.g.
// "LBA0010000001". Uniqueness is ultimately enforced by the account store's
// unique constraint; the sequence only avoids collisions within a process.
func NextAccountNumber() string {
	return fmt.Sprintf("%s%010d", bankCode, accountSequence.Add(1))
}
