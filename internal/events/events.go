// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadfunnel_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// ContactIdentity carries the lead's contact fields on outbound events.
type ContactIdentity struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	LawFirm   string `json:"lawFirm,omitempty"`
	Website   string `json:"website,omitempty"`
}

// MetricsSnapshot is the derived-metrics payload attached to booking-relevant
// events. Values are display strings, matching how they are persisted.
type MetricsSnapshot struct {
	CurrentMonthlySpend string `json:"currentMonthlySpend,omitempty"`
	CurrentCpql         string `json:"currentCpql,omitempty"`
	GuaranteedCpql      string `json:"guaranteedCpql,omitempty"`
	NewMonthlySpend     string `json:"newMonthlySpend,omitempty"`
	MonthlySavings      string `json:"monthlySavings,omitempty"`
	AnnualSavings       string `json:"annualSavings,omitempty"`
	CpqlReduction       string `json:"cpqlReduction,omitempty"`
	LeadsCount          string `json:"leadsCount,omitempty"`
	SameBudgetLeads     string `json:"sameBudgetLeads,omitempty"`
}

// =============================================================================
// Lead Funnel Events
// =============================================================================

// LeadCreated is published when a new lead record is persisted.
type LeadCreated struct {
	BaseEvent
	LeadID  uuid.UUID       `json:"leadId"`
	Contact ContactIdentity `json:"contact"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadQualified is published when a lead passes the budget-commitment gate.
type LeadQualified struct {
	BaseEvent
	LeadID           uuid.UUID        `json:"leadId"`
	Contact          ContactIdentity  `json:"contact"`
	BudgetCommitment string           `json:"budgetCommitment"`
	Metrics          *MetricsSnapshot `json:"metrics,omitempty"`
}

func (e LeadQualified) EventName() string { return "leads.lead.qualified" }

// CallbackRequested is published when a lead asks to be called back.
// LeadID is zero when the record was resolved by contact identity instead.
type CallbackRequested struct {
	BaseEvent
	LeadID  uuid.UUID        `json:"leadId,omitempty"`
	Contact ContactIdentity  `json:"contact"`
	Metrics *MetricsSnapshot `json:"metrics,omitempty"`
}

func (e CallbackRequested) EventName() string { return "leads.callback.requested" }
