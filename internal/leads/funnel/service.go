package funnel

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"leadfunnel_backend/internal/events"
	"leadfunnel_backend/internal/leads/metrics"
	"leadfunnel_backend/internal/leads/store"
	"leadfunnel_backend/platform/apperr"
	"leadfunnel_backend/platform/logger"
	"leadfunnel_backend/platform/phone"
	"leadfunnel_backend/platform/sanitize"

	"github.com/google/uuid"
)

// SettingsProvider supplies the tunable CPQL target. Implementations fall
// back to the configured default when the settings store is unreachable.
type SettingsProvider interface {
	CpqlTarget(ctx context.Context) float64
}

// Service drives the funnel. Every write goes through the local cache first
// so a visitor never sees a failure from the remote record store: the remote
// write is attempted, and on failure the session is marked unsynced.
type Service struct {
	records  store.Store
	cache    *store.Memory
	sessions SessionStore
	engine   *metrics.Engine
	settings SettingsProvider
	bus      events.Bus
	log      *logger.Logger

	videoTick time.Duration
	now       func() time.Time
}

// NewService wires the funnel service. records may be nil when no database is
// configured; the cache then acts as the only store.
func NewService(
	records store.Store,
	cache *store.Memory,
	sessions SessionStore,
	engine *metrics.Engine,
	settings SettingsProvider,
	bus events.Bus,
	log *logger.Logger,
	videoTick time.Duration,
) *Service {
	if videoTick <= 0 {
		videoTick = 5 * time.Second
	}
	return &Service{
		records:   records,
		cache:     cache,
		sessions:  sessions,
		engine:    engine,
		settings:  settings,
		bus:       bus,
		log:       log,
		videoTick: videoTick,
		now:       time.Now,
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactInput is the first funnel step.
type ContactInput struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	LawFirm           string
	Website           string
	PracticeArea      string
	MonthlyAdSpend    string
	RequestedCallback *bool
}

// CalculatorInput carries the raw spend figures. Values are floats straight
// from the client and get coerced by the metrics engine, never rejected.
type CalculatorInput struct {
	AdSpend       float64
	MarketingFees float64
	LeadsCount    float64
}

// CalculatorResult is what the calculator step returns to the client.
type CalculatorResult struct {
	Metrics     metrics.Metrics
	Performance metrics.Performance
	Projection  *metrics.Projection
	Stage       Stage
	Synced      bool
}

// QualificationInput carries the two-tier budget answers plus the optional
// intake-context answers collected on the same screen.
type QualificationInput struct {
	CanInvestTenK  bool
	CanInvestFiveK *bool

	DedicatedIntake    string
	UsesCRM            string
	FirmDifferentiator string
}

// QualificationResult reports the branch taken.
type QualificationResult struct {
	Qualified        bool
	BudgetCommitment string
	Stage            Stage
}

// VideoInput is one progress report from the player.
type VideoInput struct {
	Seconds int
	Percent int
	Ended   bool
	// Flush forces a store write regardless of the tick interval, used when
	// the player pauses or the page unloads.
	Flush bool
}

// OpenSession starts a fresh funnel session.
func (s *Service) OpenSession(ctx context.Context) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		ID:        NewSessionID(),
		Stage:     StageNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "session store unavailable", err)
	}
	return sess, nil
}

// GetSession loads an existing session.
func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, apperr.NotFound("session not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "session store unavailable", err)
	}
	return sess, nil
}

// SubmitContact validates and persists the contact step, creating the lead
// record. Resubmitting merges over the earlier values.
func (s *Service) SubmitContact(ctx context.Context, sessionID string, in ContactInput) (*Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := validateContact(in); err != nil {
		return nil, err
	}

	next, err := Next(sess.Stage, StepSubmitContact)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	fields := store.PartialLead{
		FirstName: store.String(sanitize.Text(in.FirstName)),
		LastName:  store.String(sanitize.Text(in.LastName)),
		Email:     store.String(strings.TrimSpace(strings.ToLower(in.Email))),
		Phone:     store.String(phone.NormalizeE164(in.Phone)),
	}
	if in.LawFirm != "" {
		fields.LawFirm = store.String(sanitize.Text(in.LawFirm))
	}
	if in.Website != "" {
		fields.Website = store.String(strings.TrimSpace(in.Website))
	}
	if in.MonthlyAdSpend != "" {
		fields.CurrentMonthlySpend = store.String(strings.TrimSpace(in.MonthlyAdSpend))
	}
	if in.RequestedCallback != nil {
		fields.RequestedCallback = in.RequestedCallback
	}

	created := sess.LeadID == uuid.Nil
	s.persist(ctx, sess, fields)

	sess.Contact = Contact{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          strings.TrimSpace(strings.ToLower(in.Email)),
		Phone:          phone.NormalizeE164(in.Phone),
		LawFirm:        strings.TrimSpace(in.LawFirm),
		Website:        strings.TrimSpace(in.Website),
		PracticeArea:   strings.TrimSpace(in.PracticeArea),
		MonthlyAdSpend: strings.TrimSpace(in.MonthlyAdSpend),
	}
	if in.RequestedCallback != nil {
		sess.Contact.RequestedCallback = *in.RequestedCallback
	}
	sess.Stage = next
	sess.UpdatedAt = s.now().UTC()
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "session store unavailable", err)
	}

	if created {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    sess.LeadID,
			Contact:   s.contactIdentity(sess),
		})
	}
	return sess, nil
}

// SubmitCalculator derives the metrics, classifies the prospect and advances
// the funnel. Optimal performers skip qualification and go straight to the
// booking offer.
func (s *Service) SubmitCalculator(ctx context.Context, sessionID string, in CalculatorInput) (*CalculatorResult, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	next, err := Next(sess.Stage, StepSubmitCalculator)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	target := s.settings.CpqlTarget(ctx)
	m := metrics.Compute(metrics.Inputs{
		AdSpend:       in.AdSpend,
		MarketingFees: in.MarketingFees,
		LeadsCount:    in.LeadsCount,
	}, target)
	performance, projection := s.engine.Classify(m, target)

	// Resend the contact snapshot with the metrics so a remote record that
	// was created sparse gets its contact fields backfilled.
	fields := s.contactFields(sess)
	mergePartial(&fields, metricsFields(m))
	s.persist(ctx, sess, fields)

	sess.Metrics = &m
	sess.Branch = performance
	sess.Stage = next
	if performance == metrics.PerformanceOptimal {
		if skipped, serr := Next(sess.Stage, StepOfferBooking); serr == nil {
			sess.Stage = skipped
		}
	}
	sess.UpdatedAt = s.now().UTC()
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "session store unavailable", err)
	}

	return &CalculatorResult{
		Metrics:     m,
		Performance: performance,
		Projection:  projection,
		Stage:       sess.Stage,
		Synced:      sess.Synced,
	}, nil
}

// SubmitQualification applies the two-tier budget gate. A yes at either tier
// qualifies the lead and records the commitment; a no at both tiers
// disqualifies without writing a commitment.
func (s *Service) SubmitQualification(ctx context.Context, sessionID string, in QualificationInput) (*QualificationResult, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var commitment string
	switch {
	case in.CanInvestTenK:
		commitment = "10k"
	case in.CanInvestFiveK == nil:
		return nil, apperr.Validation("second budget answer required")
	case *in.CanInvestFiveK:
		commitment = "5k"
	}

	if commitment == "" {
		next, err := Next(sess.Stage, StepDisqualify)
		if err != nil {
			return nil, apperr.BadRequest(err.Error())
		}
		sess.Stage = next
		sess.UpdatedAt = s.now().UTC()
		if err := s.sessions.Put(ctx, sess); err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, "session store unavailable", err)
		}
		return &QualificationResult{Qualified: false, Stage: sess.Stage}, nil
	}

	next, err := Next(sess.Stage, StepQualify)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	fields := store.PartialLead{
		MetaBudgetCommitment: store.String(commitment),
	}
	if in.DedicatedIntake != "" {
		fields.DedicatedIntake = store.String(in.DedicatedIntake)
	}
	if in.UsesCRM != "" {
		fields.UsesCRM = store.String(in.UsesCRM)
	}
	if in.FirmDifferentiator != "" {
		fields.FirmDifferentiator = store.String(sanitize.Text(in.FirmDifferentiator))
	}
	s.persist(ctx, sess, fields)

	sess.Stage = next
	sess.UpdatedAt = s.now().UTC()
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "session store unavailable", err)
	}

	s.bus.Publish(ctx, events.LeadQualified{
		BaseEvent:        events.NewBaseEvent(),
		LeadID:           sess.LeadID,
		Contact:          s.contactIdentity(sess),
		BudgetCommitment: commitment,
		Metrics:          metricsSnapshot(sess.Metrics),
	})

	return &QualificationResult{Qualified: true, BudgetCommitment: commitment, Stage: sess.Stage}, nil
}

// TrackVideo records watch progress. Progress is monotonic and store writes
// are rate-limited to one per tick interval unless the report is an end or a
// flush.
func (s *Service) TrackVideo(ctx context.Context, sessionID string, in VideoInput) (*Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	next, err := Next(sess.Stage, StepEngageVideo)
	if err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	if in.Seconds > sess.VideoMaxSeconds {
		sess.VideoMaxSeconds = in.Seconds
	}
	if in.Percent > sess.VideoPercent {
		sess.VideoPercent = in.Percent
	}
	if sess.VideoPercent > 100 {
		sess.VideoPercent = 100
	}
	if in.Ended {
		sess.VideoPercent = 100
	}

	now := s.now().UTC()
	shouldWrite := in.Ended || in.Flush || sess.LastVideoWrite.IsZero() ||
		now.Sub(sess.LastVideoWrite) >= s.videoTick
	if shouldWrite {
		s.persist(ctx, sess, store.PartialLead{
			VideoWatchSeconds: store.Int(sess.VideoMaxSeconds),
			VideoWatchPercent: store.Int(sess.VideoPercent),
		})
		sess.LastVideoWrite = now
	}

	sess.Stage = next
	if in.Ended {
		if offered, serr := Next(sess.Stage, StepOfferBooking); serr == nil {
			sess.Stage = offered
		}
	}
	sess.UpdatedAt = now
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "session store unavailable", err)
	}
	return sess, nil
}

// RequestCallback flags the lead for a callback. When the session never got a
// lead id, the most recent record matching the contact email is flagged
// instead. The operation is idempotent.
func (s *Service) RequestCallback(ctx context.Context, sessionID, email string) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		email = sess.Contact.Email
	}

	if sess.LeadID != uuid.Nil {
		s.persist(ctx, sess, store.PartialLead{RequestedCallback: store.Bool(true)})
	} else {
		if email == "" {
			return apperr.Validation("email required to request a callback")
		}
		if s.records != nil {
			if rerr := s.records.RequestCallbackByEmail(ctx, email); rerr != nil {
				if errors.Is(rerr, store.ErrNotFound) {
					return apperr.NotFound("no lead found for email")
				}
				s.log.StoreError("request_callback_by_email", rerr)
				return apperr.Wrap(apperr.KindUnavailable, "record store unavailable", rerr)
			}
		} else if rerr := s.cache.RequestCallbackByEmail(ctx, email); rerr != nil {
			return apperr.NotFound("no lead found for email")
		}
	}

	sess.Contact.RequestedCallback = true
	sess.UpdatedAt = s.now().UTC()
	if err := s.sessions.Put(ctx, sess); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "session store unavailable", err)
	}

	s.bus.Publish(ctx, events.CallbackRequested{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    sess.LeadID,
		Contact:   s.contactIdentity(sess),
		Metrics:   metricsSnapshot(sess.Metrics),
	})
	return nil
}

// persist applies fields to the lead record. The cache write always succeeds;
// the remote write is best effort and flips Synced off when it fails. Losing
// the remote record entirely (deleted between steps) triggers a fresh create
// that re-sends the contact snapshot so the new record is complete.
func (s *Service) persist(ctx context.Context, sess *Session, fields store.PartialLead) {
	if sess.LeadID == uuid.Nil {
		s.create(ctx, sess, fields)
		return
	}

	_ = s.cache.Update(ctx, sess.LeadID, fields)

	if s.records == nil {
		sess.Synced = false
		return
	}
	err := s.records.Update(ctx, sess.LeadID, fields)
	if err == nil {
		sess.Synced = true
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		recreate := s.contactFields(sess)
		mergePartial(&recreate, fields)
		lead, cerr := s.records.Create(ctx, recreate)
		if cerr == nil {
			s.cache.Adopt(lead)
			sess.LeadID = lead.ID
			sess.Synced = true
			return
		}
		err = cerr
	}
	s.log.WithSessionID(sess.ID).StoreError("update_lead", err)
	sess.Synced = false
}

func (s *Service) create(ctx context.Context, sess *Session, fields store.PartialLead) {
	if s.records != nil {
		lead, err := s.records.Create(ctx, fields)
		if err == nil {
			s.cache.Adopt(lead)
			sess.LeadID = lead.ID
			sess.Synced = true
			return
		}
		s.log.WithSessionID(sess.ID).StoreError("create_lead", err)
	}
	lead, _ := s.cache.Create(ctx, fields)
	sess.LeadID = lead.ID
	sess.Synced = false
}

// contactFields rebuilds the contact step's sparse record from the session
// snapshot. The calculator update and the lost-record recreate both resend
// it so the remote record always ends up with the contact fields.
func (s *Service) contactFields(sess *Session) store.PartialLead {
	p := store.PartialLead{}
	if sess.Contact.FirstName != "" {
		p.FirstName = store.String(sess.Contact.FirstName)
	}
	if sess.Contact.LastName != "" {
		p.LastName = store.String(sess.Contact.LastName)
	}
	if sess.Contact.Email != "" {
		p.Email = store.String(sess.Contact.Email)
	}
	if sess.Contact.Phone != "" {
		p.Phone = store.String(sess.Contact.Phone)
	}
	if sess.Contact.LawFirm != "" {
		p.LawFirm = store.String(sess.Contact.LawFirm)
	}
	if sess.Contact.Website != "" {
		p.Website = store.String(sess.Contact.Website)
	}
	return p
}

func (s *Service) contactIdentity(sess *Session) events.ContactIdentity {
	return events.ContactIdentity{
		FirstName: sess.Contact.FirstName,
		LastName:  sess.Contact.LastName,
		Email:     sess.Contact.Email,
		Phone:     sess.Contact.Phone,
		LawFirm:   sess.Contact.LawFirm,
		Website:   sess.Contact.Website,
	}
}

func validateContact(in ContactInput) error {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return apperr.Validation("first and last name are required")
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		return apperr.Validation("a valid email address is required")
	}
	if !phone.IsTenDigit(in.Phone) {
		return apperr.Validation("a valid 10-digit phone number is required")
	}
	return nil
}

// metricsFields converts derived metrics to the display strings the record
// store keeps.
func metricsFields(m metrics.Metrics) store.PartialLead {
	return store.PartialLead{
		CurrentMonthlySpend: store.String(formatInt(m.CurrentMonthlySpend)),
		CurrentCpql:         store.String(formatInt(m.CurrentCpql)),
		GuaranteedCpql:      store.String(formatInt(m.GuaranteedCpql)),
		NewMonthlySpend:     store.String(formatInt(m.NewMonthlySpend)),
		MonthlySavings:      store.String(formatInt(m.MonthlySavings)),
		AnnualSavings:       store.String(formatInt(m.AnnualSavings)),
		CpqlReduction:       store.String(strconv.FormatFloat(m.CpqlReductionPercent, 'f', 1, 64)),
		LeadsCount:          store.String(formatInt(m.LeadsCount)),
		SameBudgetLeads:     store.String(formatInt(m.SameBudgetLeads)),
	}
}

func metricsSnapshot(m *metrics.Metrics) *events.MetricsSnapshot {
	if m == nil {
		return nil
	}
	return &events.MetricsSnapshot{
		CurrentMonthlySpend: formatInt(m.CurrentMonthlySpend),
		CurrentCpql:         formatInt(m.CurrentCpql),
		GuaranteedCpql:      formatInt(m.GuaranteedCpql),
		NewMonthlySpend:     formatInt(m.NewMonthlySpend),
		MonthlySavings:      formatInt(m.MonthlySavings),
		AnnualSavings:       formatInt(m.AnnualSavings),
		CpqlReduction:       strconv.FormatFloat(m.CpqlReductionPercent, 'f', 1, 64),
		LeadsCount:          formatInt(m.LeadsCount),
		SameBudgetLeads:     formatInt(m.SameBudgetLeads),
	}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// mergePartial copies set fields of src over dst.
func mergePartial(dst *store.PartialLead, src store.PartialLead) {
	if src.FirstName != nil {
		dst.FirstName = src.FirstName
	}
	if src.LastName != nil {
		dst.LastName = src.LastName
	}
	if src.Email != nil {
		dst.Email = src.Email
	}
	if src.Phone != nil {
		dst.Phone = src.Phone
	}
	if src.LawFirm != nil {
		dst.LawFirm = src.LawFirm
	}
	if src.Website != nil {
		dst.Website = src.Website
	}
	if src.CurrentMonthlySpend != nil {
		dst.CurrentMonthlySpend = src.CurrentMonthlySpend
	}
	if src.CurrentCpql != nil {
		dst.CurrentCpql = src.CurrentCpql
	}
	if src.GuaranteedCpql != nil {
		dst.GuaranteedCpql = src.GuaranteedCpql
	}
	if src.NewMonthlySpend != nil {
		dst.NewMonthlySpend = src.NewMonthlySpend
	}
	if src.MonthlySavings != nil {
		dst.MonthlySavings = src.MonthlySavings
	}
	if src.AnnualSavings != nil {
		dst.AnnualSavings = src.AnnualSavings
	}
	if src.CpqlReduction != nil {
		dst.CpqlReduction = src.CpqlReduction
	}
	if src.LeadsCount != nil {
		dst.LeadsCount = src.LeadsCount
	}
	if src.SameBudgetLeads != nil {
		dst.SameBudgetLeads = src.SameBudgetLeads
	}
	if src.MetaBudgetCommitment != nil {
		dst.MetaBudgetCommitment = src.MetaBudgetCommitment
	}
	if src.DedicatedIntake != nil {
		dst.DedicatedIntake = src.DedicatedIntake
	}
	if src.UsesCRM != nil {
		dst.UsesCRM = src.UsesCRM
	}
	if src.FirmDifferentiator != nil {
		dst.FirmDifferentiator = src.FirmDifferentiator
	}
	if src.VideoWatchSeconds != nil {
		dst.VideoWatchSeconds = src.VideoWatchSeconds
	}
	if src.VideoWatchPercent != nil {
		dst.VideoWatchPercent = src.VideoWatchPercent
	}
	if src.RequestedCallback != nil {
		dst.RequestedCallback = src.RequestedCallback
	}
}
