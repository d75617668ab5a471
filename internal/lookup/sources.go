package lookup

import (
	"errors"
	"sync"
	"time"
)

// Source names, also used as metric labels.
const (
	SourceAPI = "ippure-api"
	SourceWeb = "ippure-web"
)

// ErrRateLimited is reported for a source whose per-minute budget is spent.
var ErrRateLimited = errors.New("rate limit reached")

// Source tracks the per-minute request budget of one upstream IPPure endpoint.
type Source struct {
	Name      string
	RateLimit int // max requests per minute, 0 = unlimited

	mu        sync.Mutex
	callTimes []int64
	now       func() time.Time
}

func NewSource(name string, rateLimit int) *Source {
	return &Source{Name: name, RateLimit: rateLimit, now: time.Now}
}

// Available reports whether a request fits in the current window.
func (s *Source) Available() bool {
	if s.RateLimit <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	return len(s.callTimes) < s.RateLimit
}

// Acquire records a call when the budget allows it.
func (s *Source) Acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	if s.RateLimit > 0 && len(s.callTimes) >= s.RateLimit {
		return false
	}
	s.callTimes = append(s.callTimes, s.now().Unix())
	return true
}

// UsedLastMinute returns how many calls were made in the last minute.
func (s *Source) UsedLastMinute() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	return len(s.callTimes)
}

// prune drops calls older than a minute. Callers hold mu.
func (s *Source) prune() {
	cutoff := s.now().Unix() - 60
	valid := s.callTimes[:0]
	for _, t := range s.callTimes {
		if t > cutoff {
			valid = append(valid, t)
		}
	}
	s.callTimes = valid
}
