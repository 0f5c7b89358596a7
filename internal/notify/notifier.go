package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Publisher delivers a payload to a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RefreshEvent announces that the proxy fetched a fresh page from upstream.
// Delivery is best effort; there is no exactly-once guarantee.
type RefreshEvent struct {
	Query        string    `json:"query"`
	Page         int       `json:"page"`
	TotalResults int       `json:"totalResults"`
	FetchedAt    time.Time `json:"fetchedAt"`
	Recipients   []string  `json:"recipients,omitempty"`
}

// Notifier publishes refresh events addressed to the registered tokens.
type Notifier struct {
	publisher Publisher
	registry  *Registry
	topic     string
	logger    *zap.Logger
}

// NewNotifier constructs a Notifier.
func NewNotifier(publisher Publisher, registry *Registry, topic string, logger *zap.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		registry:  registry,
		topic:     topic,
		logger:    logger,
	}
}

// AnnounceRefresh publishes one RefreshEvent. Failures are logged, never
// surfaced to the request path.
func (n *Notifier) AnnounceRefresh(ctx context.Context, event RefreshEvent) {
	event.Recipients = n.registry.Tokens()
	id, err := n.publisher.Publish(ctx, n.topic, event)
	if err != nil {
		n.logger.Warn("announce refresh failed",
			zap.String("query", event.Query),
			zap.Int("page", event.Page),
			zap.Error(err),
		)
		return
	}
	n.logger.Debug("refresh announced",
		zap.String("message_id", id),
		zap.String("query", event.Query),
		zap.Int("recipients", len(event.Recipients)),
	)
}
