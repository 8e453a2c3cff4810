package rbac

import (
	"context"
	"strings"
)

// Checker resolves quiz permissions ("quiz:create", "session:play",
// "report:view-all", ...) against a role table. Grants ending in "*" cover
// every permission with that prefix, so "session:*" lets a student start,
// answer and submit any of their own sessions.
type Checker struct {
	RolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	for _, grant := range c.RolePermissions[role] {
		if grantCovers(grant, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// Allowed checks perm for the role the auth middleware put on ctx.
// Requests without a role are never allowed.
func (c *Checker) Allowed(ctx context.Context, perm string) bool {
	role := RoleFromContext(ctx)
	return role != "" && c.Has(role, perm)
}

func grantCovers(grant, perm string) bool {
	if grant == "*" || grant == perm {
		return true
	}
	prefix, wild := strings.CutSuffix(grant, "*")
	return wild && strings.HasPrefix(perm, prefix)
}

type ctxKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// Can checks perm against the default role table.
func Can(ctx context.Context, perm string) bool { return defaultChecker.Allowed(ctx, perm) }
