package document

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out identifiers for new sections and entries.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a plain function to IDGenerator.
type IDFunc func() string

// NewID calls f.
func (f IDFunc) NewID() string { return f() }

// UUIDs generates random (version 4) UUIDs.
type UUIDs struct{}

// NewID returns a fresh UUID string.
func (UUIDs) NewID() string { return uuid.NewString() }

// TimeIDs generates wall-clock millisecond identifiers. Two calls within the
// same millisecond are bumped so the sequence stays strictly increasing.
type TimeIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewTimeIDs creates a TimeIDs reading the system clock.
func NewTimeIDs() *TimeIDs {
	return &TimeIDs{now: time.Now}
}

// NewID returns the next identifier.
func (g *TimeIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// NewGenerator returns the generator for a configured id scheme ("uuid" or
// "time"). Unknown schemes fall back to UUIDs.
func NewGenerator(scheme string) IDGenerator {
	if scheme == SchemeTime {
		return NewTimeIDs()
	}
	return UUIDs{}
}

// Id schemes.
const (
	SchemeUUID = "uuid"
	SchemeTime = "time"
)
