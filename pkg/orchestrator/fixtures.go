package orchestrator

import (
	"time"

	iso8601date "github.com/jecitDev/jec-salesgrid/pkg/ISO8601date"
	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	"github.com/jecitDev/jec-salesgrid/pkg/remotestore"
)

// Demo users referenced by the fixtures
const (
	DemoRep     = "김민준"
	DemoManager = "박지훈"
)

// Fixtures returns the demo data set, dated relative to now
func Fixtures(now time.Time) *remotestore.Snapshot {
	day := func(offset int) string {
		return iso8601date.FromTime(now.AddDate(0, 0, offset)).Date()
	}
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	requestedAt := ago(3 * time.Hour)

	return &remotestore.Snapshot{
		Companies: []crm.Company{
			{
				ID: "c-hanil", Name: "한일철강", BusinessNumber: "214-86-12345", Industry: "철강",
				CompanyType: "제조", EmployeeCount: 420, EnergyGrade: "A", City: "포항", Country: "KR",
				CreatedAt: day(-120), Owner: DemoRep, LeadSource: "전시회", Tags: []string{"VIP", "태양광"},
				Score: 82, RepName: "최유진", RepPosition: "구매팀장", RepPhone: "010-2345-6789",
				Email: "yujin.choi@hanil-steel.co.kr", Status: crm.StageProposal, LastContact: day(-2),
				Notes: "옥상 태양광 2단계 검토 중",
			},
			{
				ID: "c-daesung", Name: "대성물류", BusinessNumber: "105-81-55555", Industry: "물류",
				CompanyType: "유통", EmployeeCount: 150, EnergyGrade: "B", City: "인천", Country: "KR",
				CreatedAt: day(-60), Owner: DemoManager, LeadSource: "소개", Tags: []string{"ESS"},
				Score: 64, RepName: "정하늘", RepPosition: "시설관리", RepPhone: "032-555-0101",
				Email: "haneul@daesung-logis.kr", Status: crm.StageEvaluation, LastContact: day(-9),
			},
			{
				ID: "c-greenfood", Name: "그린푸드", Industry: "식품", CompanyType: "제조",
				EmployeeCount: 80, EnergyGrade: "C", City: "청주", Country: "KR", CreatedAt: day(-20),
				Owner: DemoRep, LeadSource: "웹사이트", Status: crm.StageLead, LastContact: day(-20),
			},
		},
		Contacts: []crm.Contact{
			{ID: "p-choi", CompanyID: "c-hanil", Name: "최유진", Title: "구매팀장", Department: "구매",
				Email: "yujin.choi@hanil-steel.co.kr", Phone: "010-2345-6789", Role: "Decision Maker", LastInteraction: day(-2)},
			{ID: "p-seo", CompanyID: "c-hanil", Name: "서지우", Title: "설비과장", Department: "설비",
				Email: "jiwoo.seo@hanil-steel.co.kr", Phone: "010-8765-4321", Role: "Champion", LastInteraction: day(-14)},
			{ID: "p-jung", CompanyID: "c-daesung", Name: "정하늘", Title: "시설관리", Department: "총무",
				Email: "haneul@daesung-logis.kr", Phone: "032-555-0101", Role: "Influencer", LastInteraction: day(-9)},
		},
		Deals: []crm.Deal{
			{ID: "d-hanil-roof", CompanyID: "c-hanil", ContactID: "p-choi", Name: "옥상 태양광 2단계",
				Stage: crm.StageProposal, Amount: 480000000, ExpectedCloseDate: day(45),
				Status: crm.DealInProgress, Owner: DemoRep, LastUpdated: ago(26 * time.Hour)},
			{ID: "d-daesung-ess", CompanyID: "c-daesung", ContactID: "p-jung", Name: "물류센터 ESS",
				Stage: crm.StageEvaluation, Amount: 150000000, ExpectedCloseDate: day(90),
				Status: crm.DealInProgress, Owner: DemoManager, LastUpdated: ago(72 * time.Hour)},
		},
		Activities: []crm.Activity{
			{ID: "a-1", CompanyID: "c-hanil", ContactID: "p-choi", DealID: "d-hanil-roof", Type: crm.ActivityMeeting,
				Summary: "2단계 제안서 설명", Actor: DemoRep, OccurredAt: ago(48 * time.Hour), NextStep: "견적 수정본 발송"},
			{ID: "a-2", CompanyID: "c-daesung", ContactID: "p-jung", Type: crm.ActivityCall,
				Summary: "ESS 용량 문의", Actor: DemoManager, OccurredAt: ago(9 * 24 * time.Hour)},
		},
		ChangeLogs: []datachangelog.ChangeLogEntry{
			{ID: "log-3", EntityType: crm.EntityDeal, EntityID: "d-hanil-roof", FieldName: crm.FieldAmount,
				OldValue: "480000000", NewValue: "520000000", ChangedBy: DemoRep, ChangedAt: requestedAt,
				ChangeType: datachangelog.ChangeApproval, Reason: datachangelog.ReasonApprovalRequest},
			{ID: "log-2", EntityType: crm.EntityDeal, EntityID: "d-hanil-roof", FieldName: crm.FieldStage,
				OldValue: string(crm.StageEvaluation), NewValue: string(crm.StageProposal), ChangedBy: DemoManager,
				ChangedAt: ago(26 * time.Hour), ChangeType: datachangelog.ChangeUpdate, Tracked: true},
			{ID: "log-1", EntityType: crm.EntityCompany, EntityID: "c-hanil", FieldName: crm.FieldStatus,
				OldValue: string(crm.StageEvaluation), NewValue: string(crm.StageProposal), ChangedBy: DemoRep,
				ChangedAt: ago(30 * time.Hour), ChangeType: datachangelog.ChangeUpdate, Tracked: true},
		},
		Approvals: []approval.Request{
			{ID: "apr-1", EntityType: crm.EntityDeal, EntityID: "d-hanil-roof", FieldName: crm.FieldAmount,
				OldValue: "480000000", NewValue: "520000000", RequestedBy: DemoRep, RequestedAt: requestedAt,
				Status: approval.StatusPending},
		},
	}
}
