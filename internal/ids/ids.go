// Package ids mints the ULIDs used as account and request identifiers.
// ULIDs sort by creation time, which keeps account listings stable
// without a separate sequence column.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	sourceMu sync.Mutex
	source   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a fresh ULID. The monotonic source guarantees ordering for
// ids minted within the same millisecond.
func New() string {
	sourceMu.Lock()
	defer sourceMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), source).String()
}
