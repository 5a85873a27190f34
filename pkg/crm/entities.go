package crm

import "time"

// EntityType identifies the kind of record a change log entry or approval refers to
type EntityType string

const (
	EntityCompany  EntityType = "Company"
	EntityContact  EntityType = "Contact"
	EntityDeal     EntityType = "Deal"
	EntityActivity EntityType = "Activity"
)

// DealStage is the pipeline stage of a deal. Company status shares the same values.
type DealStage string

const (
	StageLead        DealStage = "리드"
	StageEvaluation  DealStage = "평가"
	StageProposal    DealStage = "제안"
	StageNegotiation DealStage = "협상"
	StageContract    DealStage = "계약 체결"
	StageLost        DealStage = "실주·종료"
)

// Stages lists every deal stage in pipeline order
var Stages = []DealStage{StageLead, StageEvaluation, StageProposal, StageNegotiation, StageContract, StageLost}

// CompanyStatus mirrors DealStage for companies
type CompanyStatus = DealStage

// DealStatus is the outcome flag of a deal
type DealStatus string

const (
	DealInProgress DealStatus = "진행"
	DealWon        DealStatus = "성공"
	DealFailed     DealStatus = "실패"
)

// ActivityType classifies an activity
type ActivityType string

const (
	ActivityCall    ActivityType = "통화"
	ActivityEmail   ActivityType = "이메일"
	ActivityMeeting ActivityType = "회의"
	ActivityVisit   ActivityType = "방문"
	ActivityDemo    ActivityType = "데모"
)

// Entity is implemented by every record the orchestrator mutates
type Entity interface {
	EntityID() string
	EntityType() EntityType
	// ScopeCompanyID returns the company that scopes audit visibility of the entity
	ScopeCompanyID() string
	// Fields returns canonical stringified values keyed by logical field key
	Fields() map[string]string
}

// Company represents a customer account, the audit scope root
type Company struct {
	ID             string        `json:"id" db:"id"`
	Name           string        `json:"name" db:"name" validate:"required"`
	BusinessNumber string        `json:"businessNumber,omitempty" db:"business_number"`
	Industry       string        `json:"industry,omitempty" db:"industry"`
	CompanyType    string        `json:"companyType,omitempty" db:"company_type"`
	EmployeeCount  int           `json:"employeeCount,omitempty" db:"employee_count" validate:"gte=0"`
	RevenueScale   string        `json:"revenueScale,omitempty" db:"revenue_scale"`
	EnergyGrade    string        `json:"energyGrade,omitempty" db:"energy_grade"`
	City           string        `json:"city,omitempty" db:"city"`
	Country        string        `json:"country,omitempty" db:"country"`
	CreatedAt      string        `json:"createdAt,omitempty" db:"created_at"`
	Owner          string        `json:"owner,omitempty" db:"owner"`
	LeadSource     string        `json:"leadSource,omitempty" db:"lead_source"`
	Tags           []string      `json:"tags,omitempty" db:"-"`
	Score          int           `json:"score,omitempty" db:"score"`
	RepName        string        `json:"repName" db:"rep_name"`
	RepPosition    string        `json:"repPosition" db:"rep_position"`
	RepPhone       string        `json:"repPhone" db:"rep_phone" validate:"omitempty,crmphone"`
	Email          string        `json:"email" db:"email" validate:"omitempty,crmemail"`
	Status         CompanyStatus `json:"status" db:"status"`
	LastContact    string        `json:"lastContact" db:"last_contact" validate:"omitempty,isodate"`
	Notes          string        `json:"notes" db:"notes"`
}

// Contact is a person at a company
type Contact struct {
	ID              string `json:"id" db:"id"`
	CompanyID       string `json:"companyId" db:"company_id"`
	Name            string `json:"name" db:"name" validate:"required"`
	Title           string `json:"title" db:"title"`
	Department      string `json:"department,omitempty" db:"department"`
	Email           string `json:"email" db:"email" validate:"required,crmemail"`
	Phone           string `json:"phone" db:"phone" validate:"omitempty,crmphone"`
	Role            string `json:"role" db:"role"`
	LastInteraction string `json:"lastInteraction,omitempty" db:"last_interaction" validate:"omitempty,isodate"`
	Type            string `json:"type,omitempty" db:"type"`
}

// Deal is a sales opportunity owned by a rep
type Deal struct {
	ID                string     `json:"id" db:"id"`
	CompanyID         string     `json:"companyId" db:"company_id"`
	ContactID         string     `json:"contactId,omitempty" db:"contact_id"`
	Name              string     `json:"name" db:"name" validate:"required"`
	Stage             DealStage  `json:"stage" db:"stage"`
	Amount            int64      `json:"amount" db:"amount" validate:"gt=0"`
	ExpectedCloseDate string     `json:"expectedCloseDate" db:"expected_close_date" validate:"required,isodate"`
	Status            DealStatus `json:"status" db:"status"`
	Owner             string     `json:"owner" db:"owner"`
	LastUpdated       time.Time  `json:"lastUpdated" db:"last_updated"`
}

// Activity is a narrative interaction record (call, meeting, ...)
type Activity struct {
	ID         string       `json:"id" db:"id"`
	CompanyID  string       `json:"companyId" db:"company_id"`
	ContactID  string       `json:"contactId,omitempty" db:"contact_id"`
	DealID     string       `json:"dealId,omitempty" db:"deal_id"`
	Type       ActivityType `json:"type" db:"type"`
	Summary    string       `json:"summary" db:"summary" validate:"required"`
	Actor      string       `json:"actor" db:"actor"`
	OccurredAt time.Time    `json:"occurredAt" db:"occurred_at"`
	NextStep   string       `json:"nextStep,omitempty" db:"next_step"`
}

func (c Company) EntityID() string       { return c.ID }
func (c Company) EntityType() EntityType { return EntityCompany }
func (c Company) ScopeCompanyID() string { return c.ID }

func (c Contact) EntityID() string       { return c.ID }
func (c Contact) EntityType() EntityType { return EntityContact }
func (c Contact) ScopeCompanyID() string { return c.CompanyID }

func (d Deal) EntityID() string       { return d.ID }
func (d Deal) EntityType() EntityType { return EntityDeal }
func (d Deal) ScopeCompanyID() string { return d.CompanyID }

func (a Activity) EntityID() string       { return a.ID }
func (a Activity) EntityType() EntityType { return EntityActivity }
func (a Activity) ScopeCompanyID() string { return a.CompanyID }
