// Package silo defines the collaborators the Gateway calls out into: the
// silo message center and the client observer registrar. Both are
// external to the Gateway's own concerns; this package only states the
// contracts plus one concrete, watermill-backed implementation of
// MessageCenter.
package silo

import (
	"context"

	"github.com/nimbus-silo/gateway/internal/identity"
	"github.com/nimbus-silo/gateway/internal/message"
)

// MessageCenter is the silo-side collaborator that accepts messages the
// Gateway could not deliver itself (synthesized rejections, rerouted
// replies) and that wants to know when proxied actors become unreachable.
type MessageCenter interface {
	// SendMessage hands a message to the silo for further routing.
	SendMessage(ctx context.Context, msg *message.Message) error
	// SendRejection hands a synthesized unrecoverable rejection to the silo.
	SendRejection(ctx context.Context, rej message.Rejection) error
	// RecordClientDrop notifies the silo that a set of proxied actors is no
	// longer reachable via this Gateway.
	RecordClientDrop(ctx context.Context, actors []identity.ActorID) error
}

// ClientObserverRegistrar is notified of client connect/disconnect-forever
// transitions.
type ClientObserverRegistrar interface {
	ClientAdded(client identity.ClientID)
	ClientDropped(client identity.ClientID)
}

// NoopRegistrar is a ClientObserverRegistrar that does nothing; useful for
// tests and for embedding deployments that don't need the notification.
type NoopRegistrar struct{}

func (NoopRegistrar) ClientAdded(identity.ClientID)   {}
func (NoopRegistrar) ClientDropped(identity.ClientID) {}
