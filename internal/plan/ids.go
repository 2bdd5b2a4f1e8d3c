package plan

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces globally unique identifiers for steps and fields.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator returns "<prefix>-<uuid v4>".
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// SequenceGenerator returns "<prefix>-<n>" from a monotonic counter. It is
// deterministic, which suits tests and fixtures.
type SequenceGenerator struct {
	n atomic.Int64
}

func (g *SequenceGenerator) NewID(prefix string) string {
	return prefix + "-" + strconv.FormatInt(g.n.Add(1), 10)
}
