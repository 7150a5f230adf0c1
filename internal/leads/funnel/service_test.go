package funnel

import (
	"context"
	"testing"
	"time"

	"leadfunnel_backend/internal/events"
	"leadfunnel_backend/internal/leads/metrics"
	"leadfunnel_backend/internal/leads/store"
	"leadfunnel_backend/platform/apperr"
	"leadfunnel_backend/platform/logger"

	"github.com/google/uuid"
)

type fixedTarget float64

func (f fixedTarget) CpqlTarget(context.Context) float64 { return float64(f) }

// recordingBus captures published events synchronously.
type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.published = append(b.published, e)
}

func (b *recordingBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	var out []string
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

// flakyStore wraps the memory store and injects failures per operation.
type flakyStore struct {
	*store.Memory
	failCreate bool
	failUpdate bool
	updateErr  error
	created    []store.PartialLead
	updated    []store.PartialLead
}

func (f *flakyStore) Create(ctx context.Context, fields store.PartialLead) (store.Lead, error) {
	if f.failCreate {
		return store.Lead{}, store.ErrUnavailable
	}
	f.created = append(f.created, fields)
	return f.Memory.Create(ctx, fields)
}

func (f *flakyStore) Update(ctx context.Context, id uuid.UUID, fields store.PartialLead) error {
	if f.failUpdate {
		return store.ErrUnavailable
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, fields)
	return f.Memory.Update(ctx, id, fields)
}

type harness struct {
	svc    *Service
	cache  *store.Memory
	remote *flakyStore
	bus    *recordingBus
	clock  *time.Time
}

func newHarness(t *testing.T, remote *flakyStore) *harness {
	t.Helper()
	cache := store.NewMemory()
	bus := &recordingBus{}
	clock := time.Unix(1_700_000_000, 0).UTC()

	var records store.Store
	if remote != nil {
		records = remote
	}
	svc := NewService(
		records,
		cache,
		NewMemorySessionStore(time.Hour),
		metrics.NewEngine(5000, 2000),
		fixedTarget(700),
		bus,
		logger.New("development"),
		5*time.Second,
	)
	h := &harness{svc: svc, cache: cache, remote: remote, bus: bus, clock: &clock}
	svc.now = func() time.Time { return *h.clock }
	return h
}

func (h *harness) advance(d time.Duration) {
	*h.clock = h.clock.Add(d)
}

func validContact() ContactInput {
	return ContactInput{
		FirstName: "Dana",
		LastName:  "Reyes",
		Email:     "Dana@Example.com",
		Phone:     "(202) 555-0142",
		LawFirm:   "Reyes Injury Law",
	}
}

func TestFunnelHappyPath(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory()}
	h := newHarness(t, remote)
	ctx := context.Background()

	sess, err := h.svc.OpenSession(ctx)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}

	sess, err = h.svc.SubmitContact(ctx, sess.ID, validContact())
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if sess.Stage != StageContactCollected {
		t.Fatalf("stage = %q", sess.Stage)
	}
	if !sess.Synced {
		t.Fatal("expected synced session with healthy remote store")
	}
	if sess.Contact.Email != "dana@example.com" {
		t.Errorf("email not normalized: %q", sess.Contact.Email)
	}
	if sess.Contact.Phone != "+12025550142" {
		t.Errorf("phone not normalized: %q", sess.Contact.Phone)
	}

	res, err := h.svc.SubmitCalculator(ctx, sess.ID, CalculatorInput{
		AdSpend: 7000, MarketingFees: 1500, LeadsCount: 5,
	})
	if err != nil {
		t.Fatalf("SubmitCalculator: %v", err)
	}
	if res.Performance != metrics.PerformanceStandard {
		t.Fatalf("performance = %q", res.Performance)
	}
	if res.Stage != StageCalculatorSubmitted {
		t.Fatalf("stage = %q", res.Stage)
	}
	if res.Projection == nil {
		t.Fatal("expected a projection for standard performers")
	}

	qres, err := h.svc.SubmitQualification(ctx, sess.ID, QualificationInput{CanInvestTenK: true})
	if err != nil {
		t.Fatalf("SubmitQualification: %v", err)
	}
	if !qres.Qualified || qres.BudgetCommitment != "10k" {
		t.Fatalf("qualification = %+v", qres)
	}

	sess, err = h.svc.TrackVideo(ctx, sess.ID, VideoInput{Seconds: 30, Percent: 25})
	if err != nil {
		t.Fatalf("TrackVideo: %v", err)
	}
	if sess.Stage != StageVideoEngaged {
		t.Fatalf("stage = %q", sess.Stage)
	}

	sess, err = h.svc.TrackVideo(ctx, sess.ID, VideoInput{Seconds: 120, Percent: 100, Ended: true})
	if err != nil {
		t.Fatalf("TrackVideo ended: %v", err)
	}
	if sess.Stage != StageBookingOffered {
		t.Fatalf("stage after video end = %q", sess.Stage)
	}

	if err := h.svc.RequestCallback(ctx, sess.ID, ""); err != nil {
		t.Fatalf("RequestCallback: %v", err)
	}

	lead, err := remote.Get(ctx, sess.LeadID)
	if err != nil {
		t.Fatalf("remote Get: %v", err)
	}
	if lead.FirstName != "Dana" || lead.MetaBudgetCommitment != "10k" {
		t.Errorf("remote record incomplete: %+v", lead)
	}
	if lead.CurrentCpql != "1700" || lead.CpqlReduction != "58.8" {
		t.Errorf("metrics strings = %q, %q", lead.CurrentCpql, lead.CpqlReduction)
	}
	if lead.VideoWatchSeconds != 120 || lead.VideoWatchPercent != 100 {
		t.Errorf("video progress = %d/%d", lead.VideoWatchSeconds, lead.VideoWatchPercent)
	}
	if !lead.RequestedCallback {
		t.Error("callback flag not persisted")
	}

	want := []string{"leads.lead.created", "leads.lead.qualified", "leads.callback.requested"}
	got := h.bus.names()
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSubmitContactFallsBackToLocalStore(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory(), failCreate: true}
	h := newHarness(t, remote)
	ctx := context.Background()

	sess, _ := h.svc.OpenSession(ctx)
	sess, err := h.svc.SubmitContact(ctx, sess.ID, validContact())
	if err != nil {
		t.Fatalf("SubmitContact should degrade, not fail: %v", err)
	}
	if sess.Synced {
		t.Fatal("session should be marked unsynced")
	}
	if sess.LeadID == uuid.Nil {
		t.Fatal("local store should still have assigned a lead id")
	}
	if _, err := h.cache.Get(ctx, sess.LeadID); err != nil {
		t.Fatalf("lead missing from local store: %v", err)
	}
}

func TestCalculatorRecreatesLostRemoteRecord(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory()}
	h := newHarness(t, remote)
	ctx := context.Background()

	sess, _ := h.svc.OpenSession(ctx)
	sess, err := h.svc.SubmitContact(ctx, sess.ID, validContact())
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}

	// Remote record vanishes between steps.
	if err := remote.Memory.Delete(ctx, sess.LeadID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	remote.updateErr = store.ErrNotFound

	res, err := h.svc.SubmitCalculator(ctx, sess.ID, CalculatorInput{
		AdSpend: 7000, MarketingFees: 1500, LeadsCount: 5,
	})
	if err != nil {
		t.Fatalf("SubmitCalculator: %v", err)
	}
	if !res.Synced {
		t.Fatal("recreate should restore sync")
	}

	if len(remote.created) != 2 {
		t.Fatalf("expected a second create, got %d", len(remote.created))
	}
	recreated := remote.created[1]
	if recreated.FirstName == nil || *recreated.FirstName != "Dana" {
		t.Error("recreate did not resend the contact snapshot")
	}
	if recreated.CurrentCpql == nil || *recreated.CurrentCpql != "1700" {
		t.Error("recreate did not carry the calculator fields")
	}
}

func TestQualificationSecondTierDeclineDisqualifies(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory()}
	h := newHarness(t, remote)
	ctx := context.Background()

	sess, _ := h.svc.OpenSession(ctx)
	sess, _ = h.svc.SubmitContact(ctx, sess.ID, validContact())
	if _, err := h.svc.SubmitCalculator(ctx, sess.ID, CalculatorInput{AdSpend: 7000, MarketingFees: 1500, LeadsCount: 5}); err != nil {
		t.Fatalf("SubmitCalculator: %v", err)
	}

	no := false
	res, err := h.svc.SubmitQualification(ctx, sess.ID, QualificationInput{
		CanInvestTenK:  false,
		CanInvestFiveK: &no,
	})
	if err != nil {
		t.Fatalf("SubmitQualification: %v", err)
	}
	if res.Qualified || res.Stage != StageDisqualified {
		t.Fatalf("result = %+v", res)
	}

	lead, err := remote.Get(ctx, sess.LeadID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if lead.MetaBudgetCommitment != "" {
		t.Errorf("disqualified lead must not carry a commitment, got %q", lead.MetaBudgetCommitment)
	}

	for _, name := range h.bus.names() {
		if name == "leads.lead.qualified" {
			t.Error("qualified event published for disqualified lead")
		}
	}

	// The funnel is over for this session.
	if _, err := h.svc.SubmitQualification(ctx, sess.ID, QualificationInput{CanInvestTenK: true}); err == nil {
		t.Error("expected error qualifying a disqualified session")
	}
}

func TestQualificationRequiresSecondAnswer(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory()}
	h := newHarness(t, remote)
	ctx := context.Background()

	sess, _ := h.svc.OpenSession(ctx)
	sess, _ = h.svc.SubmitContact(ctx, sess.ID, validContact())
	_, _ = h.svc.SubmitCalculator(ctx, sess.ID, CalculatorInput{AdSpend: 7000, MarketingFees: 1500, LeadsCount: 5})

	_, err := h.svc.SubmitQualification(ctx, sess.ID, QualificationInput{CanInvestTenK: false})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestOptimalPerformerSkipsQualification(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory()}
	h := newHarness(t, remote)
	ctx := context.Background()

	sess, _ := h.svc.OpenSession(ctx)
	sess, _ = h.svc.SubmitContact(ctx, sess.ID, validContact())

	res, err := h.svc.SubmitCalculator(ctx, sess.ID, CalculatorInput{
		AdSpend: 2000, MarketingFees: 0, LeadsCount: 10,
	})
	if err != nil {
		t.Fatalf("SubmitCalculator: %v", err)
	}
	if res.Performance != metrics.PerformanceOptimal {
		t.Fatalf("performance = %q", res.Performance)
	}
	if res.Stage != StageBookingOffered {
		t.Fatalf("stage = %q, optimal performers skip qualification", res.Stage)
	}
}

func TestSubmitContactValidation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*ContactInput)
	}{
		{"missing name", func(in *ContactInput) { in.FirstName = " " }},
		{"bad email", func(in *ContactInput) { in.Email = "not-an-email" }},
		{"short phone", func(in *ContactInput) { in.Phone = "555-0142" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sess, _ := h.svc.OpenSession(ctx)
			in := validContact()
			c.mutate(&in)
			_, err := h.svc.SubmitContact(ctx, sess.ID, in)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestCalculatorBeforeContactRejected(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	sess, _ := h.svc.OpenSession(ctx)
	_, err := h.svc.SubmitCalculator(ctx, sess.ID, CalculatorInput{AdSpend: 1000, LeadsCount: 1})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("err = %v, want bad request", err)
	}
}

func TestTrackVideoThrottlesStoreWrites(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory()}
	h := newHarness(t, remote)
	ctx := context.Background()

	sess, _ := h.svc.OpenSession(ctx)
	sess, _ = h.svc.SubmitContact(ctx, sess.ID, validContact())
	_, _ = h.svc.SubmitCalculator(ctx, sess.ID, CalculatorInput{AdSpend: 7000, MarketingFees: 1500, LeadsCount: 5})
	_, _ = h.svc.SubmitQualification(ctx, sess.ID, QualificationInput{CanInvestTenK: true})

	if _, err := h.svc.TrackVideo(ctx, sess.ID, VideoInput{Seconds: 5, Percent: 4}); err != nil {
		t.Fatalf("TrackVideo: %v", err)
	}

	// Within the tick interval: session advances, store does not.
	h.advance(3 * time.Second)
	if _, err := h.svc.TrackVideo(ctx, sess.ID, VideoInput{Seconds: 8, Percent: 7}); err != nil {
		t.Fatalf("TrackVideo: %v", err)
	}
	lead, _ := remote.Get(ctx, sess.LeadID)
	if lead.VideoWatchSeconds != 5 {
		t.Fatalf("store wrote inside tick interval: %d", lead.VideoWatchSeconds)
	}

	// Past the interval the buffered maximum is flushed.
	h.advance(3 * time.Second)
	if _, err := h.svc.TrackVideo(ctx, sess.ID, VideoInput{Seconds: 11, Percent: 9}); err != nil {
		t.Fatalf("TrackVideo: %v", err)
	}
	lead, _ = remote.Get(ctx, sess.LeadID)
	if lead.VideoWatchSeconds != 11 {
		t.Fatalf("store not updated after interval: %d", lead.VideoWatchSeconds)
	}

	// A pause flush writes immediately, and progress stays monotonic.
	h.advance(time.Second)
	if _, err := h.svc.TrackVideo(ctx, sess.ID, VideoInput{Seconds: 9, Percent: 8, Flush: true}); err != nil {
		t.Fatalf("TrackVideo: %v", err)
	}
	lead, _ = remote.Get(ctx, sess.LeadID)
	if lead.VideoWatchSeconds != 11 || lead.VideoWatchPercent != 9 {
		t.Fatalf("regressed progress: %d/%d", lead.VideoWatchSeconds, lead.VideoWatchPercent)
	}
}

func TestRequestCallbackByEmailWithoutLead(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory()}
	h := newHarness(t, remote)
	ctx := context.Background()

	seed, err := remote.Memory.Create(ctx, store.PartialLead{
		Email: store.String("dana@example.com"),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	sess, _ := h.svc.OpenSession(ctx)
	if err := h.svc.RequestCallback(ctx, sess.ID, "dana@example.com"); err != nil {
		t.Fatalf("RequestCallback: %v", err)
	}

	lead, _ := remote.Get(ctx, seed.ID)
	if !lead.RequestedCallback {
		t.Error("callback flag not set on record resolved by email")
	}

	if err := h.svc.RequestCallback(ctx, sess.ID, "nobody@example.com"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestRequestCallbackIdempotent(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory()}
	h := newHarness(t, remote)
	ctx := context.Background()

	sess, _ := h.svc.OpenSession(ctx)
	sess, _ = h.svc.SubmitContact(ctx, sess.ID, validContact())

	if err := h.svc.RequestCallback(ctx, sess.ID, ""); err != nil {
		t.Fatalf("first RequestCallback: %v", err)
	}
	if err := h.svc.RequestCallback(ctx, sess.ID, ""); err != nil {
		t.Fatalf("second RequestCallback: %v", err)
	}

	lead, _ := remote.Get(ctx, sess.LeadID)
	if !lead.RequestedCallback {
		t.Error("callback flag lost")
	}
}

func TestGetSessionUnknown(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.GetSession(context.Background(), "missing")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

// The calculator update must resend the contact snapshot alongside the
// derived metrics, so a remote record that was created sparse is healed.
func TestCalculatorResendsContactFields(t *testing.T) {
	remote := &flakyStore{Memory: store.NewMemory()}
	h := newHarness(t, remote)
	ctx := context.Background()

	sess, err := h.svc.OpenSession(ctx)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if _, err = h.svc.SubmitContact(ctx, sess.ID, validContact()); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if _, err = h.svc.SubmitCalculator(ctx, sess.ID, CalculatorInput{
		AdSpend: 7000, MarketingFees: 1500, LeadsCount: 5,
	}); err != nil {
		t.Fatalf("SubmitCalculator: %v", err)
	}

	if len(remote.updated) != 1 {
		t.Fatalf("remote updates = %d, want 1", len(remote.updated))
	}
	up := remote.updated[0]
	if up.Email == nil || *up.Email != "dana@example.com" {
		t.Errorf("calculator update did not resend email: %v", up.Email)
	}
	if up.Phone == nil || *up.Phone != "+12025550142" {
		t.Errorf("calculator update did not resend normalized phone: %v", up.Phone)
	}
	if up.FirstName == nil || *up.FirstName != "Dana" {
		t.Errorf("calculator update did not resend first name: %v", up.FirstName)
	}
	if up.CurrentCpql == nil || *up.CurrentCpql != "1700" {
		t.Errorf("calculator update missing derived metrics: %v", up.CurrentCpql)
	}
}
