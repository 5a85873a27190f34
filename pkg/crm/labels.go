package crm

import (
	"strings"

	stringtools "github.com/jecitDev/jec-salesgrid/pkg/stringTools"
)

// Narrative field names for lifecycle entries. They map to no concrete field,
// so entries carrying them cannot be rolled back.
const (
	LabelCompanyCreated  = "회사 생성"
	LabelCompanyDeleted  = "회사 삭제"
	LabelContactCreated  = "연락처 생성"
	LabelContactDeleted  = "연락처 삭제"
	LabelDealCreated     = "거래 생성"
	LabelDealDeleted     = "거래 삭제"
	LabelActivityCreated = "활동 생성"
	LabelActivityUpdated = "활동 수정"
	LabelActivityDeleted = "활동 삭제"
	LabelBulkUpload      = "일괄 업로드"
	LabelUploadPrefix    = "업로드:"
	LabelRollbackSuffix  = " 롤백"
)

// fieldLabels resolves normalized field names, either logical keys or localized
// labels, to the logical key of a rollback-capable field.
var fieldLabels = map[EntityType]map[string]string{
	EntityCompany: {
		"energygrade": FieldEnergyGrade, "에너지등급": FieldEnergyGrade,
		"status": FieldStatus, "상태": FieldStatus,
		"notes": FieldNotes, "메모": FieldNotes,
		"owner": FieldOwner, "담당자": FieldOwner,
		"repphone": FieldRepPhone, "전화번호": FieldRepPhone,
		"email": FieldEmail, "이메일": FieldEmail,
		"lastcontact": FieldLastContact, "최근접촉일": FieldLastContact,
	},
	EntityContact: {
		"phone": FieldPhone, "전화번호": FieldPhone,
		"email": FieldEmail, "이메일": FieldEmail,
		"name": FieldName, "이름": FieldName,
		"title": FieldTitle, "직함": FieldTitle,
		"department": FieldDepartment, "부서": FieldDepartment,
		"role": FieldRole, "역할": FieldRole,
		"lastinteraction": FieldLastInteraction, "마지막상호작용": FieldLastInteraction,
	},
	EntityDeal: {
		"stage": FieldStage, "단계": FieldStage,
		"amount": FieldAmount, "금액": FieldAmount,
		"status": FieldStatus, "상태": FieldStatus,
		"expectedclosedate": FieldExpectedCloseDate, "예상마감일": FieldExpectedCloseDate,
	},
}

// NormalizeLabel lowercases name and strips all whitespace
func NormalizeLabel(name string) string {
	return stringtools.CollapseSpaces(strings.ToLower(name))
}

// LookupField maps a change log field name onto a logical field key of entityType
func LookupField(entityType EntityType, name string) (string, bool) {
	table, ok := fieldLabels[entityType]
	if !ok {
		return "", false
	}
	key, ok := table[NormalizeLabel(name)]
	return key, ok
}

// IsGatedField reports whether changes to the field require approval when made by a restricted role
func IsGatedField(entityType EntityType, key string) bool {
	return entityType == EntityDeal && (key == FieldStage || key == FieldAmount)
}

var statusAliases = map[string]CompanyStatus{
	"잠재고객": StageLead, "lead": StageLead, "리드": StageLead,
	"접촉/발굴": StageEvaluation, "contact": StageEvaluation, "평가": StageEvaluation,
	"evaluation": StageEvaluation, "미팅": StageEvaluation, "meeting": StageEvaluation,
	"제안": StageProposal, "proposal": StageProposal,
	"협상": StageNegotiation, "negotiation": StageNegotiation,
	"계약": StageContract, "contract": StageContract, "계약 체결": StageContract,
	"실주/종료": StageLost, "실주·종료": StageLost, "drop": StageLost, "lost": StageLost,
}

// NormalizeStatus maps free-form status text onto a CompanyStatus, defaulting to lead
func NormalizeStatus(value string) CompanyStatus {
	value = strings.TrimSpace(value)
	if value == "" {
		return StageLead
	}
	if status, ok := statusAliases[value]; ok {
		return status
	}
	if status, ok := statusAliases[strings.ToLower(value)]; ok {
		return status
	}
	return StageLead
}
