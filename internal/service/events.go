package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/noah-isme/student-registry/internal/dto"
)

// ActivityEvent is the message broadcast for every recorded activity.
type ActivityEvent struct {
	Activity dto.ActivityResponse `json:"activity"`
	SentAt   time.Time            `json:"sent_at"`
}

// NewActivityEvent wraps an activity entry for publishing.
func NewActivityEvent(activity dto.ActivityResponse) ActivityEvent {
	return ActivityEvent{Activity: activity, SentAt: time.Now().UTC()}
}

// EventPublisher broadcasts activity events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event ActivityEvent) error
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher publishes events on subject. A nil connection yields a nil publisher.
func NewNATSPublisher(conn *nats.Conn, subject string) EventPublisher {
	if conn == nil || subject == "" {
		return nil
	}
	return &natsPublisher{conn: conn, subject: subject}
}

func (p *natsPublisher) Publish(ctx context.Context, event ActivityEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode activity event: %w", err)
	}

	subject := p.subject
	if event.Activity.Action != "" {
		subject = p.subject + "." + event.Activity.Action
	}

	return p.conn.Publish(subject, payload)
}
