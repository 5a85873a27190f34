package remotestore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jecitDev/jec-salesgrid/pkg/approval"
	"github.com/jecitDev/jec-salesgrid/pkg/crm"
	"github.com/jecitDev/jec-salesgrid/pkg/datachangelog"
)

// Op names a Store method for failure injection
type Op string

const (
	OpUpsert          Op = "Upsert"
	OpDelete          Op = "Delete"
	OpRecordChange    Op = "RecordChange"
	OpUpsertApproval  Op = "UpsertApproval"
	OpResolveApproval Op = "ResolveApproval"
	OpFetchSnapshot   Op = "FetchSnapshot"
)

// ErrInjected is the default failure returned by a MemoryStore op set to fail
var ErrInjected = errors.New("injected remote failure")

// MemoryStore is an in-memory Store used for demos and tests
type MemoryStore struct {
	mu         sync.Mutex
	state      *crm.State
	changeLogs []datachangelog.ChangeLogEntry
	approvals  []approval.Request
	failures   map[Op]error
	failOnce   map[Op]error
	calls      map[Op]int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state:    crm.NewState(),
		failures: make(map[Op]error),
		failOnce: make(map[Op]error),
		calls:    make(map[Op]int),
	}
}

// Fail makes every call of op return err until Reset. A nil err uses ErrInjected.
func (m *MemoryStore) Fail(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	m.failures[op] = err
}

// FailNext makes only the next call of op return err
func (m *MemoryStore) FailNext(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	m.failOnce[op] = err
}

// Reset clears every injected failure
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[Op]error)
	m.failOnce = make(map[Op]error)
}

// Calls returns how many times op was invoked, failed calls included
func (m *MemoryStore) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Seed replaces the stored snapshot
func (m *MemoryStore) Seed(snapshot Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Load(snapshot.Companies, snapshot.Contacts, snapshot.Deals, snapshot.Activities)
	m.changeLogs = append([]datachangelog.ChangeLogEntry(nil), snapshot.ChangeLogs...)
	m.approvals = append([]approval.Request(nil), snapshot.Approvals...)
}

// enter records a call of op and returns the injected failure, if any.
// Callers hold m.mu.
func (m *MemoryStore) enter(op Op) error {
	m.calls[op]++
	if err, ok := m.failOnce[op]; ok {
		delete(m.failOnce, op)
		return err
	}
	return m.failures[op]
}

func (m *MemoryStore) Upsert(ctx context.Context, entity crm.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpsert); err != nil {
		return err
	}

	switch e := entity.(type) {
	case crm.Company:
		m.state.PutCompany(e)
	case crm.Contact:
		m.state.PutContact(e)
	case crm.Deal:
		m.state.PutDeal(e)
	case crm.Activity:
		m.state.PutActivity(e)
	default:
		return fmt.Errorf("unsupported entity %T", entity)
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, entityType crm.EntityType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDelete); err != nil {
		return err
	}

	switch entityType {
	case crm.EntityCompany:
		m.state.RemoveCompany(id)
	case crm.EntityContact:
		m.state.RemoveContact(id)
	case crm.EntityDeal:
		m.state.RemoveDeal(id)
	case crm.EntityActivity:
		m.state.RemoveActivity(id)
	default:
		return fmt.Errorf("unsupported entity type %q", entityType)
	}
	return nil
}

func (m *MemoryStore) RecordChange(ctx context.Context, entry datachangelog.ChangeLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpRecordChange); err != nil {
		return err
	}
	m.changeLogs = append([]datachangelog.ChangeLogEntry{entry}, m.changeLogs...)
	return nil
}

func (m *MemoryStore) UpsertApproval(ctx context.Context, req approval.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpsertApproval); err != nil {
		return err
	}
	for i := range m.approvals {
		if m.approvals[i].ID == req.ID {
			m.approvals[i] = req
			return nil
		}
	}
	m.approvals = append([]approval.Request{req}, m.approvals...)
	return nil
}

func (m *MemoryStore) ResolveApproval(ctx context.Context, id string, status approval.Status, resolver, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpResolveApproval); err != nil {
		return err
	}
	for i := range m.approvals {
		if m.approvals[i].ID == id {
			m.approvals[i].Status = status
			m.approvals[i].ApprovedBy = resolver
			m.approvals[i].Notes = notes
			return nil
		}
	}
	return fmt.Errorf("%w: %s", approval.ErrNotFound, id)
}

func (m *MemoryStore) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpFetchSnapshot); err != nil {
		return nil, err
	}
	return &Snapshot{
		Companies:  m.state.Companies(),
		Contacts:   m.state.Contacts(),
		Deals:      m.state.Deals(),
		Activities: m.state.Activities(),
		ChangeLogs: append([]datachangelog.ChangeLogEntry(nil), m.changeLogs...),
		Approvals:  append([]approval.Request(nil), m.approvals...),
	}, nil
}
