// Package authz decides whether a caller may mutate an agent definition.
//
// This package exists to share the ownership rule between the HTTP server
// and the MCP server without creating a circular dependency (both import
// this package; neither imports the other). It performs no I/O: callers
// load the record first and pass its owner in.
package authz

import "github.com/google/uuid"

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// String implements fmt.Stringer for log output.
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// CanMutate reports whether requester may update or delete a record owned by
// owner. The rule is exact identity equality; there are no roles and no
// admin override. Cloning and reads never consult this check.
func CanMutate(owner, requester uuid.UUID) Decision {
	if owner == requester {
		return Allow
	}
	return Deny
}
