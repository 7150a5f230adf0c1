package webhook

import (
	"context"
	"time"

	"leadfunnel_backend/internal/events"
	"leadfunnel_backend/platform/config"
	"leadfunnel_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Notifier subscribes to funnel events and forwards them to the configured
// automation endpoint and any rules-file targets.
type Notifier struct {
	client *Client
	log    *logger.Logger

	baseURL string
	policy  string
	rules   *Rules
}

// forwardedEvents lists every event name the notifier handles.
var forwardedEvents = []string{
	events.LeadCreated{}.EventName(),
	events.LeadQualified{}.EventName(),
	events.CallbackRequested{}.EventName(),
}

// NewNotifier builds the notifier from config. Returns nil when no webhook
// destination is configured at all.
func NewNotifier(cfg config.WebhookConfig, client *Client, log *logger.Logger) (*Notifier, error) {
	if !cfg.IsWebhookEnabled() {
		return nil, nil
	}

	var rules *Rules
	if path := cfg.GetWebhookRulesPath(); path != "" {
		loaded, err := LoadRules(path)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	policy := cfg.GetWebhookPolicy()
	if policy == "" {
		policy = config.WebhookPolicyAlways
	}

	return &Notifier{
		client:  client,
		log:     log,
		baseURL: cfg.GetWebhookURL(),
		policy:  policy,
		rules:   rules,
	}, nil
}

// Subscribe registers the notifier on the event bus.
func (n *Notifier) Subscribe(bus events.Bus) {
	if n == nil {
		return
	}
	handler := events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		return n.Dispatch(ctx, event)
	})
	for _, name := range forwardedEvents {
		bus.Subscribe(name, handler)
	}
}

// envelope is the wire shape delivered to targets.
type envelope struct {
	Event      string       `json:"event"`
	OccurredAt time.Time    `json:"occurredAt"`
	Data       events.Event `json:"data"`
}

// Dispatch posts the event to every matching target concurrently and returns
// the combined delivery error.
func (n *Notifier) Dispatch(ctx context.Context, event events.Event) error {
	urls := n.targetsFor(event.EventName())
	if len(urls) == 0 {
		return nil
	}

	payload := envelope{
		Event:      event.EventName(),
		OccurredAt: event.OccurredAt(),
		Data:       event,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, url := range urls {
		url := url
		g.Go(func() error {
			if err := n.client.Post(gctx, url, payload); err != nil {
				n.log.NotifyFailed(event.EventName(), url, err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (n *Notifier) targetsFor(eventName string) []string {
	var urls []string
	if n.baseURL != "" && n.baseURLWants(eventName) {
		urls = append(urls, n.baseURL)
	}
	urls = append(urls, n.rules.URLsFor(eventName)...)
	return urls
}

func (n *Notifier) baseURLWants(eventName string) bool {
	if n.policy == config.WebhookPolicyOnCallbackOnly {
		return eventName == (events.CallbackRequested{}).EventName()
	}
	return true
}
