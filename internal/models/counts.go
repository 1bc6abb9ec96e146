package models

import "fmt"

// Scope selects whether a count query covers all postings or remote only.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeRemote Scope = "remote"
)

// Windows are the recency filters, in days, queried for every country.
var Windows = []int{1, 7, 30}

// Scopes are queried for every window.
var Scopes = []Scope{ScopeAll, ScopeRemote}

// RawCountResult is one cell: a (window, scope) measurement for a country.
// Count is Unavailable when the cell could not be extracted; Err then says why.
type RawCountResult struct {
	WindowDays int
	Scope      Scope
	Count      int
	Variant    string
	Err        error
}

// Available reports whether the cell holds a real count.
func (r RawCountResult) Available() bool {
	return r.Count != Unavailable && r.Count >= 0
}

func (r RawCountResult) String() string {
	if !r.Available() {
		return fmt.Sprintf("%dd/%s=unavailable", r.WindowDays, r.Scope)
	}
	return fmt.Sprintf("%dd/%s=%d", r.WindowDays, r.Scope, r.Count)
}

// CellKey identifies a cell independently of its value.
type CellKey struct {
	WindowDays int
	Scope      Scope
}

// IndexCounts maps cells by key. A later duplicate overwrites an earlier one.
func IndexCounts(results []RawCountResult) map[CellKey]RawCountResult {
	out := make(map[CellKey]RawCountResult, len(results))
	for _, r := range results {
		out[CellKey{WindowDays: r.WindowDays, Scope: r.Scope}] = r
	}
	return out
}
