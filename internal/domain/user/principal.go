package user

import "strings"

// Principal is the authenticated caller resolved from an access token.
type Principal struct {
	UserID      string
	Email       string
	Roles       []string
	Permissions []string
}

// HasAnyRole reports whether the principal carries one of roles, ignoring case.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, held := range p.Roles {
		for _, want := range roles {
			if strings.EqualFold(strings.TrimSpace(held), strings.TrimSpace(want)) {
				return true
			}
		}
	}
	return false
}
