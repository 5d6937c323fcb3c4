// Package message defines the wire-agnostic message and work-item shapes
// that flow through the Gateway. Framing and byte-level serialization are
// external collaborators (see internal/transport); this package only
// describes what a message *is*.
package message

import "github.com/nimbus-silo/gateway/internal/identity"

// Kind distinguishes a request (expects a reply) from a response.
type Kind int8

const (
	KindRequest Kind = iota + 1
	KindResponse
)

// Message is the unit the Gateway dispatches, queues, and forwards to a
// client socket.
type Message struct {
	ID          string
	Kind        Kind
	Sender      identity.ActorID
	Target      identity.ActorID
	SendingSilo identity.SiloAddress
	TargetSilo  identity.SiloAddress
	Body        any

	// GrainClient names the ClientID hosting whichever endpoint of this
	// message is a client grain: Sender for a client-grain request
	// (dispatch records a reply route keyed on it), Target for a
	// client-addressable-object response (TryToReroute looks it up).
	// ActorID is treated as fully opaque; resolving a grain to the client
	// hosting it is the cluster directory's job (an external collaborator)
	// — callers populate this field from that lookup so dispatch itself
	// never needs to perform it.
	GrainClient identity.ClientID
}

// IsClientGrainRequest reports whether this is the (client_grain ->
// client_addressable_object) shape the dispatcher memorizes a reply route
// for.
func (m *Message) IsClientGrainRequest() bool {
	return m.Kind == KindRequest && m.Sender.IsClientGrain() && m.Target.IsClientAddressableObject()
}

// IsClientAddressableObjectResponse reports whether this is the
// (client_addressable_object -> client_grain) response shape that
// TryToReroute applies to.
func (m *Message) IsClientAddressableObjectResponse() bool {
	return m.Kind == KindResponse && m.Sender.IsClientAddressableObject() && m.Target.IsClientGrain()
}

// Rejection is the synthesized, unrecoverable response handed back to the
// silo message center when a request targets a client the Gateway no longer
// recognizes.
type Rejection struct {
	Target        identity.ActorID
	Reason        string
	Unrecoverable bool
}
