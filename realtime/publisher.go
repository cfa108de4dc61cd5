//go:generate go run go.uber.org/mock/mockgen -source=publisher.go -destination=../mocks/mock_delivery_publisher.go -package=mocks

// Package realtime announces delivery events to live subscribers.
// Publishing is fire-and-forget: it is never on the critical persistence
// path, and a failed publish must not roll anything back.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"messenger/domain"

	"github.com/nats-io/nats.go"
)

// Event names pushed to subscribers.
const (
	EventMessaging = "messaging"
	EventSeen      = "client-seen"
)

type IDeliveryPublisher interface {
	PublishMessage(ctx context.Context, target domain.Ref, event string, payload any)
}

// MessageDelivered is the payload announced when a new message lands.
type MessageDelivered struct {
	From    domain.Ref     `json:"from"`
	To      domain.Ref     `json:"to"`
	Message domain.Message `json:"message"`
}

// ConversationSeen is announced when a participant marks a conversation seen.
type ConversationSeen struct {
	By   domain.Ref `json:"by"`
	With domain.Ref `json:"with"`
}

type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// NatsPublisher pushes events to a per-participant NATS subject.
type NatsPublisher struct {
	nc  *nats.Conn
	log *slog.Logger
}

func NewNatsPublisher(nc *nats.Conn, log *slog.Logger) *NatsPublisher {
	return &NatsPublisher{nc: nc, log: log}
}

// SubjectFor scopes a delivery channel to one participant.
func SubjectFor(target domain.Ref) string {
	return fmt.Sprintf("chat.direct.%s.%d", target.Kind, target.ID)
}

// PublishMessage sends the event to the target's subject. Failures are
// logged and swallowed; message durability never depends on publish success.
func (p *NatsPublisher) PublishMessage(_ context.Context, target domain.Ref, event string, payload any) {
	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		p.log.Error("delivery payload marshal failed", "event", event, "error", err)
		return
	}
	subject := SubjectFor(target)
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn("delivery publish failed", "subject", subject, "event", event, "error", err)
	}
}
