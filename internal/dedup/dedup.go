package dedup

import (
	"net/url"
	"strings"
	"sync"
)

// LinkSet remembers listing links seen during one run. Links are compared
// without tracking query parameters or fragments.
type LinkSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewLinkSet() *LinkSet {
	return &LinkSet{seen: make(map[string]struct{})}
}

// trackingParams never change which posting a link points at.
var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "src", "srs", "guid", "pos", "ao", "s", "t", "cs", "cb"}

// Key returns the comparison key for a link.
func Key(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return strings.TrimSpace(link)
	}
	u.Fragment = ""
	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// Add records link and reports whether it was new.
func (s *LinkSet) Add(link string) bool {
	k := Key(link)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	return true
}

func (s *LinkSet) IsSeen(link string) bool {
	k := Key(link)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[k]
	return ok
}

func (s *LinkSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
