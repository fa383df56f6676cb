package matchmaking

import (
	"sort"
	"sync"
	"time"
)

const (
	// baseTolerance is the rating gap accepted for a freshly queued candidate.
	baseTolerance = 100
	// widenPerSecond grows a candidate's tolerance with its own wait time,
	// so patient players eventually match across any gap.
	widenPerSecond = 10
)

// Entry is one waiting player.
type Entry struct {
	ConnID      string
	DisplayName string
	Rating      int
	JoinedAt    time.Time
}

// Match pairs the new arrival (Player1, seated as X and host) with a
// waiting candidate (Player2).
type Match struct {
	Player1 Entry
	Player2 Entry
}

// Queue pairs waiting players by rating proximity. Queue sizes are small,
// so a linear scan per arrival is fine; there is no background scheduler.
type Queue struct {
	mu      sync.Mutex
	entries []*Entry
	now     func() time.Time
}

func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// EnqueueOrMatch tries to pair connID against the current queue. A prior
// entry for the same connection is replaced, never duplicated. Candidates
// are tried in order of increasing rating distance; the first one whose
// distance fits within baseTolerance + widenPerSecond x its wait time wins.
// Without a match the arrival is appended and nil returned.
func (q *Queue) EnqueueOrMatch(connID, name string, rating int) *Match {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(connID)

	arrival := Entry{ConnID: connID, DisplayName: name, Rating: rating, JoinedAt: q.now()}

	cands := make([]*Entry, len(q.entries))
	copy(cands, q.entries)
	sort.SliceStable(cands, func(i, j int) bool {
		return absDiff(cands[i].Rating, rating) < absDiff(cands[j].Rating, rating)
	})

	now := q.now()
	for _, c := range cands {
		diff := absDiff(c.Rating, rating)
		tolerance := float64(baseTolerance) + now.Sub(c.JoinedAt).Seconds()*widenPerSecond
		if float64(diff) <= tolerance {
			q.removeLocked(c.ConnID)
			return &Match{Player1: arrival, Player2: *c}
		}
	}

	q.entries = append(q.entries, &arrival)
	return nil
}

// Dequeue removes the entry if present.
func (q *Queue) Dequeue(connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(connID)
}

func (q *Queue) removeLocked(connID string) bool {
	for i, e := range q.entries {
		if e.ConnID == connID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Position is the 1-based place in queue order, 0 when absent.
func (q *Queue) Position(connID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.ConnID == connID {
			return i + 1
		}
	}
	return 0
}

// EstimatedWait is a display hint, not a promise.
func EstimatedWait(position int) time.Duration {
	switch {
	case position <= 1:
		return 5 * time.Second
	case position <= 3:
		return 15 * time.Second
	case position <= 5:
		return 30 * time.Second
	default:
		return 60 * time.Second
	}
}

// SweepStale drops entries waiting longer than maxAge; abandoned
// connections that never signal disconnect would otherwise pile up.
func (q *Queue) SweepStale(maxAge time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-maxAge)
	kept := q.entries[:0]
	dropped := 0
	for _, e := range q.entries {
		if e.JoinedAt.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return dropped
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
