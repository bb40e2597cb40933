// Package notify queues user-visible notifications per session until the
// next response drains them.
package notify

import (
	"context"

	"storefront/internal/domain"
)

// Feed stores pending notifications keyed by session id.
type Feed interface {
	Push(ctx context.Context, sessionID string, n domain.Notification) error
	Drain(ctx context.Context, sessionID string) ([]domain.Notification, error)
}

// Sink is a Feed bound to one session.
type Sink interface {
	Notify(ctx context.Context, n domain.Notification)
}

// OnError is called when a Sink cannot push.
type OnError func(sessionID string, err error)

type boundSink struct {
	feed      Feed
	sessionID string
	onErr     OnError
}

// Bind returns a Sink pushing into feed under sessionID. Push failures are
// reported to onErr and otherwise dropped.
func Bind(feed Feed, sessionID string, onErr OnError) Sink {
	return &boundSink{feed: feed, sessionID: sessionID, onErr: onErr}
}

func (s *boundSink) Notify(ctx context.Context, n domain.Notification) {
	if err := s.feed.Push(ctx, s.sessionID, n); err != nil && s.onErr != nil {
		s.onErr(s.sessionID, err)
	}
}
