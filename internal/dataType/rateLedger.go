package dataType

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

type timeSegment struct {
	timestamp int64
	count     int64
}

type windowCounter struct {
	segments []timeSegment
	segSize  int64
}

func newWindowCounter(segments int64) *windowCounter {
	return &windowCounter{
		segments: make([]timeSegment, segments),
		segSize:  segments,
	}
}

func (c *windowCounter) add(ts int64, value int64) {
	idx := ts % c.segSize
	if c.segments[idx].timestamp != ts {
		c.segments[idx].timestamp = ts
		c.segments[idx].count = value
	} else {
		c.segments[idx].count += value
	}
}

func (c *windowCounter) query(lastN int64, now int64) int64 {
	if lastN > c.segSize {
		lastN = c.segSize
	}
	var sum int64
	for i := int64(0); i < lastN; i++ {
		sec := now - lastN + 1 + i
		idx := sec % c.segSize
		if c.segments[idx].timestamp == sec {
			sum += c.segments[idx].count
		}
	}
	return sum
}

// RequestLedger tracks per-second request counts toward an external
// service, keyed by endpoint host. The window is a fixed ring of
// one-second segments, so queries older than the ring just fall out.
type RequestLedger struct {
	mu       sync.Mutex
	counters map[uint64]*windowCounter
	segSize  int64
}

// NewRequestLedger sizes the ring to hold at least windowSeconds worth
// of history. A margin segment avoids edge flapping at second rollover.
func NewRequestLedger(windowSeconds int64) *RequestLedger {
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	return &RequestLedger{
		counters: make(map[uint64]*windowCounter),
		segSize:  windowSeconds + 1,
	}
}

func (l *RequestLedger) Add(key string) {
	hashKey := xxhash.Sum64String(key)
	now := time.Now().Unix()

	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.counters[hashKey]
	if !ok {
		c = newWindowCounter(l.segSize)
		l.counters[hashKey] = c
	}
	c.add(now, 1)
}

// CountLast returns the number of requests recorded for key over the
// last lastN seconds ending at now.
func (l *RequestLedger) CountLast(key string, lastN int64, now int64) int64 {
	hashKey := xxhash.Sum64String(key)

	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.counters[hashKey]
	if !ok {
		return 0
	}
	return c.query(lastN, now)
}
