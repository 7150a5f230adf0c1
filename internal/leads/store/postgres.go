package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the durable Store implementation backed by pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed lead store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const leadColumns = `id, created_at,
	COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(email, ''),
	COALESCE(phone, ''), COALESCE(law_firm, ''), COALESCE(website, ''),
	COALESCE(calc_current_monthly_spend, ''), COALESCE(calc_current_cpql, ''),
	COALESCE(calc_guaranteed_cpql, ''), COALESCE(calc_new_monthly_spend, ''),
	COALESCE(calc_monthly_savings, ''), COALESCE(calc_annual_savings, ''),
	COALESCE(calc_cpql_reduction, ''), COALESCE(calc_leads_count, ''),
	COALESCE(calc_same_budget_leads, ''),
	COALESCE(meta_budget_commitment, ''), COALESCE(dedicated_intake, ''),
	COALESCE(uses_crm, ''), COALESCE(firm_differentiator, ''),
	video_watch_seconds, video_watch_percent, requested_callback`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.CreatedAt,
		&lead.FirstName, &lead.LastName, &lead.Email,
		&lead.Phone, &lead.LawFirm, &lead.Website,
		&lead.CurrentMonthlySpend, &lead.CurrentCpql,
		&lead.GuaranteedCpql, &lead.NewMonthlySpend,
		&lead.MonthlySavings, &lead.AnnualSavings,
		&lead.CpqlReduction, &lead.LeadsCount,
		&lead.SameBudgetLeads,
		&lead.MetaBudgetCommitment, &lead.DedicatedIntake,
		&lead.UsesCRM, &lead.FirmDifferentiator,
		&lead.VideoWatchSeconds, &lead.VideoWatchPercent, &lead.RequestedCallback,
	)
	return lead, err
}

// assignment is one column/value pair extracted from a PartialLead.
type assignment struct {
	column string
	value  any
	// monotonic marks columns written as GREATEST(stored, new) on update.
	monotonic bool
}

// assignments lists the columns a PartialLead actually supplies, in a fixed
// order. Nil fields produce no assignment, which is what gives the store its
// merge-by-presence semantics.
func assignments(p PartialLead) []assignment {
	out := make([]assignment, 0, 21)
	addString := func(column string, v *string) {
		if v != nil {
			out = append(out, assignment{column: column, value: *v})
		}
	}

	addString("first_name", p.FirstName)
	addString("last_name", p.LastName)
	addString("email", p.Email)
	addString("phone", p.Phone)
	addString("law_firm", p.LawFirm)
	addString("website", p.Website)
	addString("calc_current_monthly_spend", p.CurrentMonthlySpend)
	addString("calc_current_cpql", p.CurrentCpql)
	addString("calc_guaranteed_cpql", p.GuaranteedCpql)
	addString("calc_new_monthly_spend", p.NewMonthlySpend)
	addString("calc_monthly_savings", p.MonthlySavings)
	addString("calc_annual_savings", p.AnnualSavings)
	addString("calc_cpql_reduction", p.CpqlReduction)
	addString("calc_leads_count", p.LeadsCount)
	addString("calc_same_budget_leads", p.SameBudgetLeads)
	addString("meta_budget_commitment", p.MetaBudgetCommitment)
	addString("dedicated_intake", p.DedicatedIntake)
	addString("uses_crm", p.UsesCRM)
	addString("firm_differentiator", p.FirmDifferentiator)

	if p.VideoWatchSeconds != nil {
		out = append(out, assignment{column: "video_watch_seconds", value: *p.VideoWatchSeconds, monotonic: true})
	}
	if p.VideoWatchPercent != nil {
		out = append(out, assignment{column: "video_watch_percent", value: *p.VideoWatchPercent, monotonic: true})
	}
	if p.RequestedCallback != nil {
		out = append(out, assignment{column: "requested_callback", value: *p.RequestedCallback})
	}

	return out
}

// Create inserts a sparse lead record. Sparse input is never a validation
// failure; a connection-level failure surfaces as ErrUnavailable.
func (s *Postgres) Create(ctx context.Context, fields PartialLead) (Lead, error) {
	assigns := assignments(fields)

	columns := make([]string, 0, len(assigns))
	placeholders := make([]string, 0, len(assigns))
	args := make([]any, 0, len(assigns))
	for i, a := range assigns {
		columns = append(columns, a.column)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, a.value)
	}

	query := "INSERT INTO leads DEFAULT VALUES RETURNING " + leadColumns
	if len(assigns) > 0 {
		query = fmt.Sprintf(
			"INSERT INTO leads (%s) VALUES (%s) RETURNING %s",
			strings.Join(columns, ", "), strings.Join(placeholders, ", "), leadColumns,
		)
	}

	lead, err := scanLead(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Lead{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return lead, nil
}

// Update applies a merge-by-presence partial update scoped strictly by id.
func (s *Postgres) Update(ctx context.Context, id uuid.UUID, fields PartialLead) error {
	assigns := assignments(fields)
	if len(assigns) == 0 {
		_, err := s.Get(ctx, id)
		return err
	}

	setClauses := make([]string, 0, len(assigns))
	args := make([]any, 0, len(assigns)+1)
	for i, a := range assigns {
		placeholder := fmt.Sprintf("$%d", i+1)
		if a.monotonic {
			setClauses = append(setClauses, fmt.Sprintf("%s = GREATEST(%s, %s)", a.column, a.column, placeholder))
		} else {
			setClauses = append(setClauses, fmt.Sprintf("%s = %s", a.column, placeholder))
		}
		args = append(args, a.value)
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("UPDATE leads SET %s WHERE id = $%d", strings.Join(setClauses, ", "), len(args)),
		args...,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the lead for the given id.
func (s *Postgres) Get(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(s.pool.QueryRow(ctx,
		"SELECT "+leadColumns+" FROM leads WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return lead, nil
}

// List returns all leads, newest first.
func (s *Postgres) List(ctx context.Context) ([]Lead, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+leadColumns+" FROM leads ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

// Delete removes one lead by id.
func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM leads WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every lead.
func (s *Postgres) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE TABLE leads"); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RequestCallbackByEmail flags the most recently created lead with this email.
// A lead already flagged stays flagged; the call is an idempotent success.
func (s *Postgres) RequestCallbackByEmail(ctx context.Context, email string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE leads
		SET requested_callback = true
		WHERE email = $1
		AND id = (
			SELECT id FROM leads
			WHERE email = $1
			ORDER BY created_at DESC
			LIMIT 1
		)
	`, email)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*Postgres)(nil)
