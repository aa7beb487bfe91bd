// Package signal relays peer-connection negotiation payloads between two
// connections. The relay is stateless and never inspects the payload; the
// two endpoints own the protocol.
package signal

import (
	"context"
	"encoding/json"

	appresence "huddle/internal/application/presence"
	domain "huddle/internal/domain/presence"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/logger"
)

const (
	EventReceiveSignal = "receive-signal"
	EventClosePeer     = "close-peer"
)

// SignalPayload carries a forwarded negotiation message. Signal is passed
// through verbatim.
type SignalPayload struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

// ClosePayload tells a peer the other side hung up.
type ClosePayload struct {
	From string `json:"from"`
}

// Relay forwards signaling frames. The sender must have a live session; the
// target only has to be a live connection (cross-room signaling is allowed,
// the client decides who it talks to).
type Relay struct {
	store  domain.Store
	router appresence.EventRouter
	logger logger.Interface
}

func NewRelay(store domain.Store, router appresence.EventRouter, log logger.Interface) *Relay {
	return &Relay{
		store:  store,
		router: router,
		logger: log,
	}
}

// Forward relays a negotiation payload to the target connection.
func (r *Relay) Forward(ctx context.Context, fromConnID, toConnID string, payload json.RawMessage) error {
	if err := r.checkSender(ctx, fromConnID); err != nil {
		return err
	}
	if toConnID == "" {
		return errors.NewValidationError("target connection is required")
	}

	r.router.ToConnection(toConnID, EventReceiveSignal, SignalPayload{
		From:   fromConnID,
		Signal: payload,
	})
	return nil
}

// Close tells the target connection the peer link is being torn down.
func (r *Relay) Close(ctx context.Context, fromConnID, toConnID string) error {
	if err := r.checkSender(ctx, fromConnID); err != nil {
		return err
	}
	if toConnID == "" {
		return errors.NewValidationError("target connection is required")
	}

	r.router.ToConnection(toConnID, EventClosePeer, ClosePayload{From: fromConnID})
	return nil
}

func (r *Relay) checkSender(ctx context.Context, connID string) error {
	sender, err := r.store.Get(ctx, connID)
	if err != nil {
		return errors.NewStoreUnavailableError("failed to resolve sender session")
	}
	if sender == nil {
		return errors.NewValidationError("connection has not joined")
	}
	return nil
}
