package remotestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	jsoncolumn "github.com/jecitDev/jec-salesgrid/pkg/JsonColumn"
	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
	"github.com/jecitDev/jec-salesgrid/pkg/logger"
	"github.com/jecitDev/jec-salesgrid/pkg/utils"
)

//go:embed schema.sql
var schemaSQL string

var (
	companyColumns = []string{
		"id", "name", "business_number", "industry", "company_type", "employee_count",
		"revenue_scale", "energy_grade", "city", "country", "created_at", "owner",
		"lead_source", "tags", "score", "rep_name", "rep_position", "rep_phone",
		"email", "status", "last_contact", "notes",
	}
	contactColumns = []string{
		"id", "company_id", "name", "title", "department", "email", "phone",
		"role", "last_interaction", "type",
	}
	dealColumns = []string{
		"id", "company_id", "contact_id", "name", "stage", "amount",
		"expected_close_date", "status", "owner", "last_updated",
	}
	activityColumns = []string{
		"id", "company_id", "contact_id", "deal_id", "type", "summary",
		"actor", "occurred_at", "next_step",
	}
	changeLogColumns = []string{
		"id", "entity_type", "entity_id", "field_name", "old_value", "new_value",
		"old_value_length", "new_value_length", "old_value_truncated", "new_value_truncated",
		"changed_by", "changed_at", "change_type", "reason", "tracked",
		"latency_minutes", "retention_until", "policy_id",
	}
	approvalColumns = []string{
		"id", "entity_type", "entity_id", "field_name", "old_value", "new_value",
		"requested_by", "requested_at", "status", "approved_by", "resolved_at", "notes",
	}
)

// upsertQuery builds a named INSERT ... ON CONFLICT (id) DO UPDATE statement
func upsertQuery(table string, columns []string) string {
	named := make([]string, len(columns))
	updates := make([]string, 0, len(columns)-1)
	for i, col := range columns {
		named[i] = ":" + col
		if col != "id" {
			updates = append(updates, col+" = EXCLUDED."+col)
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		table, strings.Join(columns, ", "), strings.Join(named, ", "), strings.Join(updates, ", "))
}

type companyRow struct {
	crm.Company
	Tags jsoncolumn.JsonColumn[[]string] `db:"tags"`
}

type changeLogRow struct {
	ID                string         `db:"id"`
	EntityType        string         `db:"entity_type"`
	EntityID          string         `db:"entity_id"`
	FieldName         string         `db:"field_name"`
	OldValue          string         `db:"old_value"`
	NewValue          string         `db:"new_value"`
	OldValueLength    int            `db:"old_value_length"`
	NewValueLength    int            `db:"new_value_length"`
	OldValueTruncated bool           `db:"old_value_truncated"`
	NewValueTruncated bool           `db:"new_value_truncated"`
	ChangedBy         string         `db:"changed_by"`
	ChangedAt         time.Time      `db:"changed_at"`
	ChangeType        string         `db:"change_type"`
	Reason            sql.NullString `db:"reason"`
	Tracked           bool           `db:"tracked"`
	LatencyMinutes    sql.NullInt64  `db:"latency_minutes"`
	RetentionUntil    sql.NullTime   `db:"retention_until"`
	PolicyID          sql.NullString `db:"policy_id"`
}

func newChangeLogRow(e datachangelog.ChangeLogEntry) changeLogRow {
	return changeLogRow{
		ID:                e.ID,
		EntityType:        string(e.EntityType),
		EntityID:          e.EntityID,
		FieldName:         e.FieldName,
		OldValue:          e.OldValue,
		NewValue:          e.NewValue,
		OldValueLength:    e.OldValueLength,
		NewValueLength:    e.NewValueLength,
		OldValueTruncated: e.OldValueTruncated,
		NewValueTruncated: e.NewValueTruncated,
		ChangedBy:         e.ChangedBy,
		ChangedAt:         e.ChangedAt,
		ChangeType:        string(e.ChangeType),
		Reason:            utils.NewSQLNullString(e.Reason),
		Tracked:           e.Tracked,
		LatencyMinutes:    utils.NewSQLNullInt64(e.LatencyMinutes),
		RetentionUntil:    utils.NewSQLNullTime(e.RetentionUntil),
		PolicyID:          utils.NewSQLNullString(e.PolicyID),
	}
}

func (r changeLogRow) entry() datachangelog.ChangeLogEntry {
	return datachangelog.ChangeLogEntry{
		ID:                r.ID,
		EntityType:        crm.EntityType(r.EntityType),
		EntityID:          r.EntityID,
		FieldName:         r.FieldName,
		OldValue:          r.OldValue,
		NewValue:          r.NewValue,
		OldValueLength:    r.OldValueLength,
		NewValueLength:    r.NewValueLength,
		OldValueTruncated: r.OldValueTruncated,
		NewValueTruncated: r.NewValueTruncated,
		ChangedBy:         r.ChangedBy,
		ChangedAt:         r.ChangedAt,
		ChangeType:        datachangelog.ChangeType(r.ChangeType),
		Reason:            r.Reason.String,
		Tracked:           r.Tracked,
		LatencyMinutes:    utils.IntPtr(r.LatencyMinutes),
		RetentionUntil:    utils.TimePtr(r.RetentionUntil),
		PolicyID:          r.PolicyID.String,
	}
}

type approvalRow struct {
	ID          string         `db:"id"`
	EntityType  string         `db:"entity_type"`
	EntityID    string         `db:"entity_id"`
	FieldName   string         `db:"field_name"`
	OldValue    string         `db:"old_value"`
	NewValue    string         `db:"new_value"`
	RequestedBy string         `db:"requested_by"`
	RequestedAt time.Time      `db:"requested_at"`
	Status      string         `db:"status"`
	ApprovedBy  sql.NullString `db:"approved_by"`
	ResolvedAt  sql.NullTime   `db:"resolved_at"`
	Notes       sql.NullString `db:"notes"`
}

func newApprovalRow(r approval.Request) approvalRow {
	return approvalRow{
		ID:          r.ID,
		EntityType:  string(r.EntityType),
		EntityID:    r.EntityID,
		FieldName:   r.FieldName,
		OldValue:    r.OldValue,
		NewValue:    r.NewValue,
		RequestedBy: r.RequestedBy,
		RequestedAt: r.RequestedAt,
		Status:      string(r.Status),
		ApprovedBy:  utils.NewSQLNullString(r.ApprovedBy),
		ResolvedAt:  utils.NewSQLNullTime(r.ResolvedAt),
		Notes:       utils.NewSQLNullString(r.Notes),
	}
}

func (r approvalRow) request() approval.Request {
	return approval.Request{
		ID:          r.ID,
		EntityType:  crm.EntityType(r.EntityType),
		EntityID:    r.EntityID,
		FieldName:   r.FieldName,
		OldValue:    r.OldValue,
		NewValue:    r.NewValue,
		RequestedBy: r.RequestedBy,
		RequestedAt: r.RequestedAt,
		Status:      approval.Status(r.Status),
		ApprovedBy:  r.ApprovedBy.String,
		ResolvedAt:  utils.TimePtr(r.ResolvedAt),
		Notes:       r.Notes.String,
	}
}

// PostgresStore persists the CRM collections in Postgres through sqlx
type PostgresStore struct {
	db  *sqlx.DB
	log *zap.Logger
	now func() time.Time
}

// NewPostgresStore wraps an open connection, typically from dbconnect.ConnectSqlx
func NewPostgresStore(db *sqlx.DB, log *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: logger.OrNop(log), now: time.Now}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Upsert(ctx context.Context, entity crm.Entity) error {
	var (
		query string
		arg   interface{}
	)
	switch e := entity.(type) {
	case crm.Company:
		query, arg = upsertQuery("companies", companyColumns), companyRow{Company: e, Tags: jsoncolumn.New(e.Tags)}
	case crm.Contact:
		query, arg = upsertQuery("contacts", contactColumns), e
	case crm.Deal:
		query, arg = upsertQuery("deals", dealColumns), e
	case crm.Activity:
		query, arg = upsertQuery("activities", activityColumns), e
	default:
		return fmt.Errorf("unsupported entity %T", entity)
	}

	if _, err := s.db.NamedExecContext(ctx, query, arg); err != nil {
		return s.wrap(err, "upsert", string(entity.EntityType()), entity.EntityID())
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, entityType crm.EntityType, id string) error {
	table, err := Collection(entityType)
	if err != nil {
		return err
	}
	query := s.db.Rebind("DELETE FROM " + table + " WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return s.wrap(err, "delete", string(entityType), id)
	}
	return nil
}

func (s *PostgresStore) RecordChange(ctx context.Context, entry datachangelog.ChangeLogEntry) error {
	if _, err := s.db.NamedExecContext(ctx, upsertQuery("change_logs", changeLogColumns), newChangeLogRow(entry)); err != nil {
		return s.wrap(err, "record change", string(entry.EntityType), entry.EntityID)
	}
	return nil
}

func (s *PostgresStore) UpsertApproval(ctx context.Context, req approval.Request) error {
	if _, err := s.db.NamedExecContext(ctx, upsertQuery("approvals", approvalColumns), newApprovalRow(req)); err != nil {
		return s.wrap(err, "upsert approval", string(req.EntityType), req.EntityID)
	}
	return nil
}

func (s *PostgresStore) ResolveApproval(ctx context.Context, id string, status approval.Status, resolver, notes string) error {
	query := s.db.Rebind(`UPDATE approvals
		SET status = ?, approved_by = ?, notes = ?, resolved_at = ?
		WHERE id = ? AND status = ?`)
	res, err := s.db.ExecContext(ctx, query,
		string(status), utils.NewSQLNullString(resolver), utils.NewSQLNullString(notes), s.now(),
		id, string(approval.StatusPending))
	if err != nil {
		return s.wrap(err, "resolve approval", "Approval", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{}

	var companies []companyRow
	if err := s.db.SelectContext(ctx, &companies, "SELECT * FROM companies ORDER BY name"); err != nil {
		return nil, s.wrap(err, "select", "companies", "")
	}
	for _, row := range companies {
		c := row.Company
		c.Tags = row.Tags.Or(nil)
		snapshot.Companies = append(snapshot.Companies, c)
	}

	if err := s.db.SelectContext(ctx, &snapshot.Contacts, "SELECT * FROM contacts ORDER BY name"); err != nil {
		return nil, s.wrap(err, "select", "contacts", "")
	}
	if err := s.db.SelectContext(ctx, &snapshot.Deals, "SELECT * FROM deals ORDER BY last_updated DESC"); err != nil {
		return nil, s.wrap(err, "select", "deals", "")
	}
	if err := s.db.SelectContext(ctx, &snapshot.Activities, "SELECT * FROM activities ORDER BY occurred_at DESC"); err != nil {
		return nil, s.wrap(err, "select", "activities", "")
	}

	var logs []changeLogRow
	if err := s.db.SelectContext(ctx, &logs, "SELECT * FROM change_logs ORDER BY changed_at DESC"); err != nil {
		return nil, s.wrap(err, "select", "change_logs", "")
	}
	for _, row := range logs {
		snapshot.ChangeLogs = append(snapshot.ChangeLogs, row.entry())
	}

	var approvals []approvalRow
	if err := s.db.SelectContext(ctx, &approvals, "SELECT * FROM approvals ORDER BY requested_at DESC"); err != nil {
		return nil, s.wrap(err, "select", "approvals", "")
	}
	for _, row := range approvals {
		snapshot.Approvals = append(snapshot.Approvals, row.request())
	}
	return snapshot, nil
}

// wrap adds operation context to err and logs Postgres error codes
func (s *PostgresStore) wrap(err error, op, entityType, id string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		s.log.Error("postgres error",
			zap.String("operation", op),
			zap.String("entity_type", entityType),
			zap.String("entity_id", id),
			zap.String("code", string(pqErr.Code)),
			zap.String("constraint", pqErr.Constraint),
			zap.Error(err))
	}
	return fmt.Errorf("failed to %s %s %s: %w", op, entityType, id, err)
}
