package transport

import (
	"time"

	"leadfunnel_backend/internal/leads/funnel"
	"leadfunnel_backend/internal/leads/metrics"
	"leadfunnel_backend/internal/leads/store"

	"github.com/google/uuid"
)

// Request DTOs

type ContactRequest struct {
	FirstName         string       `json:"firstName" validate:"required,min=1,max=100"`
	LastName          string       `json:"lastName" validate:"required,min=1,max=100"`
	Email             string       `json:"email" validate:"required,max=320"`
	Phone             string       `json:"phone" validate:"required,min=10,max=20"`
	LawFirm           string       `json:"lawFirm,omitempty" validate:"omitempty,max=200"`
	Website           string       `json:"website,omitempty" validate:"omitempty,max=300"`
	PracticeArea      string       `json:"practiceArea,omitempty" validate:"omitempty,max=200"`
	MonthlyAdSpend    string       `json:"monthlyAdSpend,omitempty" validate:"omitempty,max=50"`
	RequestedCallback OptionalBool `json:"requestedCallback,omitempty" validate:"-"`
}

func (r ContactRequest) ToInput() funnel.ContactInput {
	return funnel.ContactInput{
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		Phone:             r.Phone,
		LawFirm:           r.LawFirm,
		Website:           r.Website,
		PracticeArea:      r.PracticeArea,
		MonthlyAdSpend:    r.MonthlyAdSpend,
		RequestedCallback: r.RequestedCallback.Ptr(),
	}
}

type CalculatorRequest struct {
	AdSpend       FlexibleNumber `json:"adSpend"`
	MarketingFees FlexibleNumber `json:"marketingFees"`
	LeadsCount    FlexibleNumber `json:"leadsCount"`
}

func (r CalculatorRequest) ToInput() funnel.CalculatorInput {
	return funnel.CalculatorInput{
		AdSpend:       r.AdSpend.Float64(),
		MarketingFees: r.MarketingFees.Float64(),
		LeadsCount:    r.LeadsCount.Float64(),
	}
}

type QualificationRequest struct {
	CanInvestTenK      bool         `json:"canInvest10k"`
	CanInvestFiveK     OptionalBool `json:"canInvest5k,omitempty" validate:"-"`
	DedicatedIntake    string       `json:"dedicatedIntake,omitempty" validate:"omitempty,max=200"`
	UsesCRM            string       `json:"usesCrm,omitempty" validate:"omitempty,max=200"`
	FirmDifferentiator string       `json:"firmDifferentiator,omitempty" validate:"omitempty,max=2000"`
}

func (r QualificationRequest) ToInput() funnel.QualificationInput {
	return funnel.QualificationInput{
		CanInvestTenK:      r.CanInvestTenK,
		CanInvestFiveK:     r.CanInvestFiveK.Ptr(),
		DedicatedIntake:    r.DedicatedIntake,
		UsesCRM:            r.UsesCRM,
		FirmDifferentiator: r.FirmDifferentiator,
	}
}

type VideoProgressRequest struct {
	Seconds int  `json:"seconds" validate:"min=0,max=86400"`
	Percent int  `json:"percent" validate:"min=0,max=100"`
	Ended   bool `json:"ended,omitempty"`
	Flush   bool `json:"flush,omitempty"`
}

func (r VideoProgressRequest) ToInput() funnel.VideoInput {
	return funnel.VideoInput{
		Seconds: r.Seconds,
		Percent: r.Percent,
		Ended:   r.Ended,
		Flush:   r.Flush,
	}
}

type CallbackRequest struct {
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Response DTOs

type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Stage     string `json:"stage"`
	Branch    string `json:"branch,omitempty"`
	Synced    bool   `json:"synced"`
}

func ToSessionResponse(s *funnel.Session) SessionResponse {
	return SessionResponse{
		SessionID: s.ID,
		Stage:     string(s.Stage),
		Branch:    string(s.Branch),
		Synced:    s.Synced,
	}
}

type MetricsResponse struct {
	CurrentMonthlySpend int64   `json:"currentMonthlySpend"`
	CurrentCpql         int64   `json:"currentCpql"`
	GuaranteedCpql      int64   `json:"guaranteedCpql"`
	NewMonthlySpend     int64   `json:"newMonthlySpend"`
	MonthlySavings      int64   `json:"monthlySavings"`
	AnnualSavings       int64   `json:"annualSavings"`
	SameBudgetLeads     int64   `json:"sameBudgetLeads"`
	LeadsCount          int64   `json:"leadsCount"`
	CpqlReductionPct    float64 `json:"cpqlReductionPercent"`
}

func toMetricsResponse(m metrics.Metrics) MetricsResponse {
	return MetricsResponse{
		CurrentMonthlySpend: m.CurrentMonthlySpend,
		CurrentCpql:         m.CurrentCpql,
		GuaranteedCpql:      m.GuaranteedCpql,
		NewMonthlySpend:     m.NewMonthlySpend,
		MonthlySavings:      m.MonthlySavings,
		AnnualSavings:       m.AnnualSavings,
		SameBudgetLeads:     m.SameBudgetLeads,
		LeadsCount:          m.LeadsCount,
		CpqlReductionPct:    m.CpqlReductionPercent,
	}
}

type ProjectionResponse struct {
	LeadsLow             int64   `json:"leadsLow"`
	LeadsHigh            int64   `json:"leadsHigh"`
	CpqlReductionLowPct  float64 `json:"cpqlReductionLowPercent"`
	CpqlReductionHighPct float64 `json:"cpqlReductionHighPercent"`
}

type CalculatorResponse struct {
	Metrics     MetricsResponse     `json:"metrics"`
	Performance string              `json:"performance"`
	Projection  *ProjectionResponse `json:"projection,omitempty"`
	Stage       string              `json:"stage"`
	Synced      bool                `json:"synced"`
}

func ToCalculatorResponse(res *funnel.CalculatorResult) CalculatorResponse {
	out := CalculatorResponse{
		Metrics:     toMetricsResponse(res.Metrics),
		Performance: string(res.Performance),
		Stage:       string(res.Stage),
		Synced:      res.Synced,
	}
	if res.Projection != nil {
		out.Projection = &ProjectionResponse{
			LeadsLow:             res.Projection.LeadsLow,
			LeadsHigh:            res.Projection.LeadsHigh,
			CpqlReductionLowPct:  res.Projection.CpqlReductionLowPct,
			CpqlReductionHighPct: res.Projection.CpqlReductionHighPct,
		}
	}
	return out
}

type QualificationResponse struct {
	Qualified        bool   `json:"qualified"`
	BudgetCommitment string `json:"budgetCommitment,omitempty"`
	Stage            string `json:"stage"`
}

func ToQualificationResponse(res *funnel.QualificationResult) QualificationResponse {
	return QualificationResponse{
		Qualified:        res.Qualified,
		BudgetCommitment: res.BudgetCommitment,
		Stage:            string(res.Stage),
	}
}

// LeadResponse is the admin view of one record.
type LeadResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	LawFirm   string `json:"lawFirm,omitempty"`
	Website   string `json:"website,omitempty"`

	CurrentMonthlySpend string `json:"currentMonthlySpend,omitempty"`
	CurrentCpql         string `json:"currentCpql,omitempty"`
	GuaranteedCpql      string `json:"guaranteedCpql,omitempty"`
	NewMonthlySpend     string `json:"newMonthlySpend,omitempty"`
	MonthlySavings      string `json:"monthlySavings,omitempty"`
	AnnualSavings       string `json:"annualSavings,omitempty"`
	CpqlReduction       string `json:"cpqlReduction,omitempty"`
	LeadsCount          string `json:"leadsCount,omitempty"`
	SameBudgetLeads     string `json:"sameBudgetLeads,omitempty"`

	MetaBudgetCommitment string `json:"metaBudgetCommitment,omitempty"`
	DedicatedIntake      string `json:"dedicatedIntake,omitempty"`
	UsesCRM              string `json:"usesCrm,omitempty"`
	FirmDifferentiator   string `json:"firmDifferentiator,omitempty"`

	VideoWatchSeconds int  `json:"videoWatchSeconds"`
	VideoWatchPercent int  `json:"videoWatchPercent"`
	RequestedCallback bool `json:"requestedCallback"`
}

func ToLeadResponse(l store.Lead) LeadResponse {
	return LeadResponse{
		ID:        l.ID,
		CreatedAt: l.CreatedAt,

		FirstName: l.FirstName,
		LastName:  l.LastName,
		Email:     l.Email,
		Phone:     l.Phone,
		LawFirm:   l.LawFirm,
		Website:   l.Website,

		CurrentMonthlySpend: l.CurrentMonthlySpend,
		CurrentCpql:         l.CurrentCpql,
		GuaranteedCpql:      l.GuaranteedCpql,
		NewMonthlySpend:     l.NewMonthlySpend,
		MonthlySavings:      l.MonthlySavings,
		AnnualSavings:       l.AnnualSavings,
		CpqlReduction:       l.CpqlReduction,
		LeadsCount:          l.LeadsCount,
		SameBudgetLeads:     l.SameBudgetLeads,

		MetaBudgetCommitment: l.MetaBudgetCommitment,
		DedicatedIntake:      l.DedicatedIntake,
		UsesCRM:              l.UsesCRM,
		FirmDifferentiator:   l.FirmDifferentiator,

		VideoWatchSeconds: l.VideoWatchSeconds,
		VideoWatchPercent: l.VideoWatchPercent,
		RequestedCallback: l.RequestedCallback,
	}
}

func ToLeadResponses(leads []store.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLeadResponse(l))
	}
	return out
}
