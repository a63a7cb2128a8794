package scrumconfig

import (
	"fmt"
	"strconv"
)

// Scope selects which overrides apply: the global scope or one organization.
// The zero value is the global scope.
type Scope struct {
	orgID int64
	org   bool
}

// Global is the scope without any organization override.
func Global() Scope { return Scope{} }

// Org is the scope of a single organization.
func Org(id int64) Scope { return Scope{orgID: id, org: true} }

// OrgScope returns Global for a nil id and Org(*id) otherwise.
func OrgScope(id *int64) Scope {
	if id == nil {
		return Global()
	}
	return Org(*id)
}

func (s Scope) IsGlobal() bool { return !s.org }

// OrgID returns the organization id and true for an org scope.
func (s Scope) OrgID() (int64, bool) { return s.orgID, s.org }

// OrgIDPtr returns nil for the global scope.
func (s Scope) OrgIDPtr() *int64 {
	if !s.org {
		return nil
	}
	id := s.orgID
	return &id
}

// String renders the scope as "global" or the decimal organization id.
func (s Scope) String() string {
	if !s.org {
		return "global"
	}
	return strconv.FormatInt(s.orgID, 10)
}

// ParseScope accepts "", "global" or a decimal organization id.
func ParseScope(raw string) (Scope, error) {
	if raw == "" || raw == "global" {
		return Global(), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Scope{}, fmt.Errorf("invalid org id %q: %w", raw, err)
	}
	return Org(id), nil
}
