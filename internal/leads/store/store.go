// Package store defines the lead record store contract and its implementations.
// The store accepts sparse records: a funnel step only ever writes
// the fields it collected, and absent fields never clobber stored values.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no lead exists for the given id.
	ErrNotFound = errors.New("lead not found")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("record store unavailable")
)

// Lead is one prospect record progressing through the funnel.
// Derived-metric fields are display strings, matching how the admin
// dashboard consumes them.
type Lead struct {
	ID        uuid.UUID
	CreatedAt time.Time

	FirstName string
	LastName  string
	Email     string
	Phone     string
	LawFirm   string
	Website   string

	CurrentMonthlySpend string
	CurrentCpql         string
	GuaranteedCpql      string
	NewMonthlySpend     string
	MonthlySavings      string
	AnnualSavings       string
	CpqlReduction       string
	LeadsCount          string
	SameBudgetLeads     string

	MetaBudgetCommitment string
	DedicatedIntake      string
	UsesCRM              string
	FirmDifferentiator   string

	VideoWatchSeconds int
	VideoWatchPercent int
	RequestedCallback bool
}

// PartialLead is a sparse set of lead fields. Nil means "not supplied" and
// leaves the stored value untouched (merge-by-presence). RequestedCallback is
// a *bool so an explicit false is distinguishable from absence.
type PartialLead struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	LawFirm   *string
	Website   *string

	CurrentMonthlySpend *string
	CurrentCpql         *string
	GuaranteedCpql      *string
	NewMonthlySpend     *string
	MonthlySavings      *string
	AnnualSavings       *string
	CpqlReduction       *string
	LeadsCount          *string
	SameBudgetLeads     *string

	MetaBudgetCommitment *string
	DedicatedIntake      *string
	UsesCRM              *string
	FirmDifferentiator   *string

	// VideoWatchSeconds is written as the running maximum: an update can
	// never lower the stored value.
	VideoWatchSeconds *int
	VideoWatchPercent *int

	RequestedCallback *bool
}

// Store is the durable keyed storage contract for lead records.
// Create never fails on sparse input; Update is scoped strictly by id.
type Store interface {
	Create(ctx context.Context, fields PartialLead) (Lead, error)
	Update(ctx context.Context, id uuid.UUID, fields PartialLead) error
	Get(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context) ([]Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error

	// RequestCallbackByEmail sets requested_callback on the most recently
	// created lead matching the email. Used when the session lost its lead id.
	RequestCallbackByEmail(ctx context.Context, email string) error
}

// String returns a pointer to s, for building PartialLead values.
func String(s string) *string { return &s }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
