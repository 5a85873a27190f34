package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	iso8601date "github.com/jecitDev/jec-salesgrid/pkg/ISO8601date"
	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	customvalidator "github.com/jecitDev/jec-salesgrid/pkg/customValidator"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	"github.com/jecitDev/jec-salesgrid/pkg/remotestore"
	"github.com/jecitDev/jec-salesgrid/pkg/sanitizer"
)

// Status is the outcome of a mutation
type Status string

const (
	StatusApplied            Status = "APPLIED"
	StatusPendingApproval    Status = "PENDING_APPROVAL"
	StatusCompensatedFailure Status = "COMPENSATED_FAILURE"
)

// Result describes what a mutation left behind
type Result struct {
	Status      Status   `json:"status"`
	EntityID    string   `json:"entityId,omitempty"`
	LogIDs      []string `json:"logIds,omitempty"`
	ApprovalIDs []string `json:"approvalIds,omitempty"`
}

// Options configures an Engine. Every field is optional.
type Options struct {
	State     *crm.State
	Log       *datachangelog.Store
	Workflow  *approval.Workflow
	Policies  *datachangelog.PolicySet
	Remote    remotestore.Store
	Notifier  Notifier
	Logger    *zap.Logger
	Validator *customvalidator.CustomValidator
	Sanitizer *sanitizer.Sanitizer
	Clock     func() time.Time

	// ActivityRetentionDays bounds activities by occurredAt; zero uses the change log retention
	ActivityRetentionDays int
}

// Engine applies every CRM mutation: it authorizes, validates, diffs and
// applies the change locally, then syncs it to the remote store and
// compensates the local state when the remote write fails.
type Engine struct {
	// mu serializes operations so that a checkpoint never spans two of them
	mu sync.Mutex

	state     *crm.State
	logs      *datachangelog.Store
	approvals *approval.Workflow
	diff      *datachangelog.DiffCalculator
	remote    remotestore.Store
	notifier  Notifier
	log       *zap.Logger
	validator *customvalidator.CustomValidator
	sanitizer *sanitizer.Sanitizer
	now       func() time.Time

	activityRetentionDays int
}

// New builds an Engine, filling every missing option with its default
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Policies == nil {
		if opts.Log != nil {
			opts.Policies = opts.Log.Policies()
		} else {
			opts.Policies = datachangelog.DefaultPolicySet()
		}
	}
	if opts.State == nil {
		opts.State = crm.NewState()
	}
	if opts.Log == nil {
		opts.Log = datachangelog.NewStore(opts.Policies, datachangelog.WithClock(opts.Clock))
	}
	if opts.Workflow == nil {
		opts.Workflow = approval.NewWorkflow(opts.Clock)
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Logger: opts.Logger}
	}
	if opts.Validator == nil {
		opts.Validator = customvalidator.NewCustomValidator()
	}
	if opts.Sanitizer == nil {
		opts.Sanitizer = sanitizer.New()
	}
	if opts.ActivityRetentionDays <= 0 {
		opts.ActivityRetentionDays = opts.Policies.RetentionDays()
	}

	return &Engine{
		state:                 opts.State,
		logs:                  opts.Log,
		approvals:             opts.Workflow,
		diff:                  datachangelog.NewDiffCalculator(opts.Policies),
		remote:                opts.Remote,
		notifier:              opts.Notifier,
		log:                   opts.Logger,
		validator:             opts.Validator,
		sanitizer:             opts.Sanitizer,
		now:                   opts.Clock,
		activityRetentionDays: opts.ActivityRetentionDays,
	}
}

// State returns the local entity state
func (e *Engine) State() *crm.State { return e.state }

// ChangeLog returns the local change log store
func (e *Engine) ChangeLog() *datachangelog.Store { return e.logs }

// Workflow returns the approval request store
func (e *Engine) Workflow() *approval.Workflow { return e.approvals }

func (e *Engine) today() string {
	return iso8601date.FromTime(e.now()).Date()
}

func (e *Engine) notify(ctx context.Context, message string, severity Severity) {
	e.notifier.Notify(ctx, message, severity)
}

// reject reports an operation that failed before touching any state
func (e *Engine) reject(ctx context.Context, operation string, err error) (Result, error) {
	e.log.Info("mutation rejected", zap.String("operation", operation), zap.Error(err))
	e.notify(ctx, err.Error(), SeverityError)
	return Result{}, err
}

func (e *Engine) validate(v interface{}) error {
	if err := e.validator.Validate(v); err != nil {
		return newValidationError(err)
	}
	return nil
}
