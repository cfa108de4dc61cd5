// Package gateway exposes the messenger over NATS request/reply.
// It is deliberately thin: decode, call the service, encode. All business
// rules live behind the service interface.
package gateway

import (
	"log/slog"
	"messenger/auth"
	"messenger/services"

	"github.com/nats-io/nats.go"
)

// RPC subjects served by the gateway.
const (
	SubjectSend         = "chat.rpc.send"
	SubjectFetch        = "chat.rpc.fetch"
	SubjectSeen         = "chat.rpc.seen"
	SubjectContacts     = "chat.rpc.contacts"
	SubjectFavoriteSet  = "chat.rpc.favorites.set"
	SubjectFavoriteList = "chat.rpc.favorites.list"
	SubjectChannelAuth  = "chat.rpc.auth"
)

type Gateway struct {
	service    services.IMessengerService
	authorizer *auth.ChannelAuthorizer
	nc         *nats.Conn
	log        *slog.Logger
	subs       []*nats.Subscription
}

func NewGateway(service services.IMessengerService, authorizer *auth.ChannelAuthorizer, nc *nats.Conn, log *slog.Logger) *Gateway {
	return &Gateway{service: service, authorizer: authorizer, nc: nc, log: log}
}

// Subscribe registers every RPC handler. Handlers run on NATS delivery
// goroutines; the service layer is safe for that.
func (g *Gateway) Subscribe() error {
	handlers := map[string]func([]byte) []byte{
		SubjectSend:         g.handleSend,
		SubjectFetch:        g.handleFetch,
		SubjectSeen:         g.handleSeen,
		SubjectContacts:     g.handleContacts,
		SubjectFavoriteSet:  g.handleFavoriteSet,
		SubjectFavoriteList: g.handleFavoriteList,
		SubjectChannelAuth:  g.handleChannelAuth,
	}
	for subject, handler := range handlers {
		h := handler
		sub, err := g.nc.Subscribe(subject, func(msg *nats.Msg) {
			if msg.Reply == "" {
				return
			}
			if err := msg.Respond(h(msg.Data)); err != nil {
				g.log.Warn("rpc respond failed", "subject", msg.Subject, "error", err)
			}
		})
		if err != nil {
			return err
		}
		g.subs = append(g.subs, sub)
	}
	return nil
}

// Drain unsubscribes gracefully, letting in-flight replies finish.
func (g *Gateway) Drain() {
	for _, sub := range g.subs {
		if err := sub.Drain(); err != nil {
			g.log.Warn("rpc drain failed", "error", err)
		}
	}
}
