package slidedeck

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces slide or node ids.
type IDGenerator func() string

// UUIDs generates random UUIDs.
func UUIDs() IDGenerator {
	return uuid.NewString
}

// Counter generates decimal ids starting at start, the scheme of older decks.
func Counter(start int64) IDGenerator {
	var next atomic.Int64
	next.Store(start)
	return func() string {
		return strconv.FormatInt(next.Add(1)-1, 10)
	}
}
