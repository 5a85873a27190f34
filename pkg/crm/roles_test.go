package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("영업관리자")
	assert.True(t, ok)
	assert.Equal(t, RoleSalesManager, role)

	role, ok = ParseRole("sales_rep")
	assert.True(t, ok)
	assert.Equal(t, RoleSalesRep, role)

	_, ok = ParseRole("intern")
	assert.False(t, ok)
}

func TestCapabilities(t *testing.T) {
	assert.False(t, RoleSalesRep.CanApprove())
	assert.False(t, RoleSalesRep.CanViewSensitive())
	assert.True(t, RoleSalesRep.CanDelete())
	assert.True(t, RoleSystemAdmin.CanManage())
	assert.False(t, Role("").CanDelete())
}

func TestOwnership(t *testing.T) {
	rep := Actor{Name: "Lee", Role: RoleSalesRep}
	manager := Actor{Name: "Park", Role: RoleSalesManager}

	assert.True(t, rep.OwnsCompany(Company{Owner: "Lee"}))
	assert.True(t, rep.OwnsCompany(Company{RepName: "Lee"}))
	assert.False(t, rep.OwnsCompany(Company{Owner: "Choi"}))
	assert.True(t, manager.OwnsCompany(Company{Owner: "Choi"}))

	assert.True(t, rep.OwnsDeal(Deal{Owner: "Lee"}))
	assert.False(t, rep.OwnsDeal(Deal{Owner: "Choi"}))
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithActor(context.Background(), Actor{Name: "Lee", Role: RoleSalesRep})
	actor, ok := ActorFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "Lee", actor.Name)
}

func TestFilterStateMatchCompany(t *testing.T) {
	c := Company{ID: "c1", Name: "Hanil Steel", Status: StageLead, Tags: []string{"vip"}, EnergyGrade: "A"}
	contacts := []Contact{{CompanyID: "c1", Name: "Kim", Email: "kim@hanil.co.kr"}}

	assert.True(t, FilterState{}.MatchCompany(c, contacts))
	assert.True(t, FilterState{Search: "hanil.co"}.MatchCompany(c, contacts))
	assert.False(t, FilterState{Search: "nomatch"}.MatchCompany(c, contacts))
	assert.True(t, FilterState{Statuses: []CompanyStatus{StageLead}}.MatchCompany(c, contacts))
	assert.False(t, FilterState{Statuses: []CompanyStatus{StageLost}}.MatchCompany(c, contacts))
	assert.True(t, FilterState{Tags: []string{"vip"}}.MatchCompany(c, contacts))
	assert.False(t, FilterState{CompanyTypes: []string{"SME"}}.MatchCompany(c, contacts))
}
