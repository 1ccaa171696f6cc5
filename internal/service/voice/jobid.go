package voice

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// Generator hands out process-unique job IDs.
type Generator struct {
	counter uint64
}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Next(userID int64) string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-voice-%d", strconv.FormatInt(userID, 10), n)
}
