package rbac

import (
	"context"
	"strings"
)

// grant is one role's permissions, split into exact names and "prefix:*" families.
type grant struct {
	all      bool
	exact    map[string]bool
	prefixes []string
}

// Checker answers permission questions for a fixed role policy.
type Checker struct {
	grants map[string]grant
}

// NewChecker compiles rp; nil uses RolePermissions.
func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	c := &Checker{grants: make(map[string]grant, len(rp))}
	for role, perms := range rp {
		g := grant{exact: make(map[string]bool, len(perms))}
		for _, p := range perms {
			switch {
			case p == "*":
				g.all = true
			case strings.HasSuffix(p, "*"):
				g.prefixes = append(g.prefixes, strings.TrimSuffix(p, "*"))
			default:
				g.exact[p] = true
			}
		}
		c.grants[role] = g
	}
	return c
}

// Has reports whether role holds perm. Unknown roles hold nothing.
func (c *Checker) Has(role, perm string) bool {
	g, ok := c.grants[role]
	if !ok {
		return false
	}
	if g.all || g.exact[perm] {
		return true
	}
	for _, p := range g.prefixes {
		if strings.HasPrefix(perm, p) {
			return true
		}
	}
	return false
}

// principal is the authenticated caller carried in a request context.
type principal struct {
	subject string
	role    string
}

type ctxKey struct{}

func fromContext(ctx context.Context) principal {
	p, _ := ctx.Value(ctxKey{}).(principal)
	return p
}

func WithRole(ctx context.Context, role string) context.Context {
	p := fromContext(ctx)
	p.role = role
	return context.WithValue(ctx, ctxKey{}, p)
}

func WithSubject(ctx context.Context, sub string) context.Context {
	p := fromContext(ctx)
	p.subject = sub
	return context.WithValue(ctx, ctxKey{}, p)
}

func RoleFromContext(ctx context.Context) string { return fromContext(ctx).role }

// SubjectFromContext returns the authenticated user id, "" when anonymous.
func SubjectFromContext(ctx context.Context) string { return fromContext(ctx).subject }

// Can reports whether the role in ctx holds perm under the default policy.
func Can(ctx context.Context, perm string) bool {
	return defaultChecker.Has(RoleFromContext(ctx), perm)
}
