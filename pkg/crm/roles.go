package crm

import (
	"context"
	"strings"
)

// Role is the sales organisation role of an actor
type Role string

const (
	RoleSalesRep     Role = "SALES_REP"
	RoleSalesManager Role = "SALES_MANAGER"
	RoleSystemAdmin  Role = "SYSTEM_ADMIN"
)

var roleLabels = map[Role]string{
	RoleSalesRep:     "영업대표",
	RoleSalesManager: "영업관리자",
	RoleSystemAdmin:  "시스템관리자",
}

// ParseRole accepts either the role code or its Korean label
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for role, label := range roleLabels {
		if strings.EqualFold(s, string(role)) || s == label {
			return role, true
		}
	}
	return "", false
}

// Label returns the display label of the role
func (r Role) Label() string {
	return roleLabels[r]
}

// Known reports whether r is one of the defined roles
func (r Role) Known() bool {
	_, ok := roleLabels[r]
	return ok
}

// Restricted reports whether the role is subject to ownership checks and approval gating
func (r Role) Restricted() bool { return r == RoleSalesRep }

func (r Role) CanApprove() bool       { return r.Known() && !r.Restricted() }
func (r Role) CanManage() bool        { return r.Known() && !r.Restricted() }
func (r Role) CanViewSensitive() bool { return r.Known() && !r.Restricted() }
func (r Role) CanDelete() bool        { return r.Known() }

// Actor is the session identity every mutation is performed as
type Actor struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// OwnsCompany reports whether a restricted actor may act on the company.
// Unrestricted actors own everything.
func (a Actor) OwnsCompany(c Company) bool {
	if !a.Role.Restricted() {
		return true
	}
	return c.Owner == a.Name || c.RepName == a.Name
}

// OwnsDeal reports whether a restricted actor may act on the deal
func (a Actor) OwnsDeal(d Deal) bool {
	if !a.Role.Restricted() {
		return true
	}
	return d.Owner == a.Name
}

type actorKey struct{}

// ContextWithActor stores the actor in ctx
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext retrieves the actor stored by ContextWithActor
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
