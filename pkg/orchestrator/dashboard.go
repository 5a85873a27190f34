package orchestrator

import (
	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

const recentChangeCount = 10

// StageTotal sums the deals of one pipeline stage
type StageTotal struct {
	Stage  crm.DealStage `json:"stage"`
	Count  int           `json:"count"`
	Amount string        `json:"amount"`
}

// Dashboard is the audit overview of the actor's scope
type Dashboard struct {
	RecentChanges    []datachangelog.ChangeLogEntry `json:"recentChanges"`
	Stats            *datachangelog.AuditStats      `json:"stats"`
	PendingApprovals int                            `json:"pendingApprovals"`
	Stages           []StageTotal                   `json:"stages"`
}

// Dashboard computes the rollups shown on the audit dashboard
func (e *Engine) Dashboard(actor crm.Actor) *Dashboard {
	canView := actor.Role.CanViewSensitive()
	scoped := e.scopeOf(actor).entries(e.logs.Entries())

	recent := scoped
	if len(recent) > recentChangeCount {
		recent = recent[:recentChangeCount]
	}

	index := make(map[crm.DealStage]int, len(crm.Stages))
	stages := make([]StageTotal, len(crm.Stages))
	amounts := make([]int64, len(crm.Stages))
	for i, stage := range crm.Stages {
		stages[i].Stage = stage
		index[stage] = i
	}

	visible := make(map[string]bool)
	for _, c := range e.Companies(actor, crm.FilterState{}) {
		visible[c.ID] = true
	}
	for _, deal := range e.state.Deals() {
		i, ok := index[deal.Stage]
		if !ok || !visible[deal.CompanyID] {
			continue
		}
		stages[i].Count++
		amounts[i] += deal.Amount
	}
	for i := range stages {
		stages[i].Amount = e.maskAmount(crm.FormatAmount(amounts[i]), canView)
	}

	return &Dashboard{
		RecentChanges:    e.sanitizer.MaskEntries(recent, canView),
		Stats:            datachangelog.BuildStats(scoped),
		PendingApprovals: len(e.Approvals(actor, approval.StatusPending)),
		Stages:           stages,
	}
}

func (e *Engine) maskAmount(value string, canView bool) string {
	if canView {
		return value
	}
	return e.sanitizer.MaskValue(crm.FieldAmount, value)
}
