package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store with the same merge semantics as Postgres.
// The funnel uses it as the local side of its write-through policy: a local
// write always succeeds synchronously, so a remote outage never loses the
// session's view of the record. It doubles as the test fake.
type Memory struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]*Lead
	now   func() time.Time
}

// NewMemory creates an empty in-memory lead store.
func NewMemory() *Memory {
	return &Memory{
		leads: make(map[uuid.UUID]*Lead),
		now:   time.Now,
	}
}

func applyPartial(lead *Lead, fields PartialLead) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}

	setString(&lead.FirstName, fields.FirstName)
	setString(&lead.LastName, fields.LastName)
	setString(&lead.Email, fields.Email)
	setString(&lead.Phone, fields.Phone)
	setString(&lead.LawFirm, fields.LawFirm)
	setString(&lead.Website, fields.Website)
	setString(&lead.CurrentMonthlySpend, fields.CurrentMonthlySpend)
	setString(&lead.CurrentCpql, fields.CurrentCpql)
	setString(&lead.GuaranteedCpql, fields.GuaranteedCpql)
	setString(&lead.NewMonthlySpend, fields.NewMonthlySpend)
	setString(&lead.MonthlySavings, fields.MonthlySavings)
	setString(&lead.AnnualSavings, fields.AnnualSavings)
	setString(&lead.CpqlReduction, fields.CpqlReduction)
	setString(&lead.LeadsCount, fields.LeadsCount)
	setString(&lead.SameBudgetLeads, fields.SameBudgetLeads)
	setString(&lead.MetaBudgetCommitment, fields.MetaBudgetCommitment)
	setString(&lead.DedicatedIntake, fields.DedicatedIntake)
	setString(&lead.UsesCRM, fields.UsesCRM)
	setString(&lead.FirmDifferentiator, fields.FirmDifferentiator)

	if fields.VideoWatchSeconds != nil && *fields.VideoWatchSeconds > lead.VideoWatchSeconds {
		lead.VideoWatchSeconds = *fields.VideoWatchSeconds
	}
	if fields.VideoWatchPercent != nil && *fields.VideoWatchPercent > lead.VideoWatchPercent {
		lead.VideoWatchPercent = *fields.VideoWatchPercent
	}
	if fields.RequestedCallback != nil {
		lead.RequestedCallback = *fields.RequestedCallback
	}
}

// Create inserts a sparse record, assigning a fresh id.
func (m *Memory) Create(_ context.Context, fields PartialLead) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead := &Lead{
		ID:        uuid.New(),
		CreatedAt: m.now(),
	}
	applyPartial(lead, fields)
	m.leads[lead.ID] = lead
	return *lead, nil
}

// Adopt stores a record under an id assigned elsewhere, so the local cache
// can mirror a remotely created lead.
func (m *Memory) Adopt(lead Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := lead
	m.leads[lead.ID] = &copied
}

// Update applies a merge-by-presence partial update.
func (m *Memory) Update(_ context.Context, id uuid.UUID, fields PartialLead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	applyPartial(lead, fields)
	return nil
}

// Get returns the lead for the given id.
func (m *Memory) Get(_ context.Context, id uuid.UUID) (Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lead, ok := m.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return *lead, nil
}

// List returns all leads, newest first.
func (m *Memory) List(_ context.Context) ([]Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	leads := make([]Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		leads = append(leads, *lead)
	}
	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	return leads, nil
}

// Delete removes one lead.
func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[id]; !ok {
		return ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

// DeleteAll removes every lead.
func (m *Memory) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads = make(map[uuid.UUID]*Lead)
	return nil
}

// RequestCallbackByEmail flags the most recently created lead with this email.
func (m *Memory) RequestCallbackByEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var newest *Lead
	for _, lead := range m.leads {
		if lead.Email != email {
			continue
		}
		if newest == nil || lead.CreatedAt.After(newest.CreatedAt) {
			newest = lead
		}
	}
	if newest == nil {
		return ErrNotFound
	}
	newest.RequestedCallback = true
	return nil
}

var _ Store = (*Memory)(nil)
