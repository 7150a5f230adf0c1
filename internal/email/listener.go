package email

import (
	"context"
	"strings"

	"leadfunnel_backend/internal/events"
	"leadfunnel_backend/platform/logger"
)

// Listener turns funnel events into alert emails.
type Listener struct {
	sender Sender
	log    *logger.Logger
}

func NewListener(sender Sender, log *logger.Logger) *Listener {
	return &Listener{sender: sender, log: log}
}

// Subscribe registers the listener on the event bus. No-op without a sender.
func (l *Listener) Subscribe(bus events.Bus) {
	if l == nil || l.sender == nil {
		return
	}

	bus.Subscribe(events.CallbackRequested{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.CallbackRequested)
		if !ok {
			return nil
		}
		err := l.sender.SendCallbackAlert(ctx, CallbackAlertData{
			Name:        displayName(e.Contact),
			Email:       e.Contact.Email,
			Phone:       e.Contact.Phone,
			LawFirm:     e.Contact.LawFirm,
			CurrentCpql: metricOrEmpty(e.Metrics, func(m events.MetricsSnapshot) string { return m.CurrentCpql }),
		})
		if err != nil {
			l.log.NotifyFailed(event.EventName(), "email", err)
		}
		return err
	}))

	bus.Subscribe(events.LeadQualified{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadQualified)
		if !ok {
			return nil
		}
		err := l.sender.SendQualifiedAlert(ctx, QualifiedAlertData{
			Name:             displayName(e.Contact),
			Email:            e.Contact.Email,
			Phone:            e.Contact.Phone,
			LawFirm:          e.Contact.LawFirm,
			BudgetCommitment: e.BudgetCommitment,
			CurrentCpql:      metricOrEmpty(e.Metrics, func(m events.MetricsSnapshot) string { return m.CurrentCpql }),
			MonthlySavings:   metricOrEmpty(e.Metrics, func(m events.MetricsSnapshot) string { return m.MonthlySavings }),
		})
		if err != nil {
			l.log.NotifyFailed(event.EventName(), "email", err)
		}
		return err
	}))
}

func displayName(c events.ContactIdentity) string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}

func metricOrEmpty(m *events.MetricsSnapshot, pick func(events.MetricsSnapshot) string) string {
	if m == nil {
		return ""
	}
	return pick(*m)
}
