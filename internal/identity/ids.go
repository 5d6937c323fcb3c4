// Package identity defines the opaque identities the Gateway routes on:
// clients, proxied actors, and the silos that host them.
package identity

import "github.com/google/uuid"

// ClientID identifies a connected client process. Equality-comparable,
// hashable, immutable — a thin wrapper over uuid.UUID.
type ClientID uuid.UUID

func (c ClientID) String() string { return uuid.UUID(c).String() }

// NewClientID allocates a fresh, random ClientID.
func NewClientID() ClientID { return ClientID(uuid.New()) }

// ParseClientID parses a textual ClientID.
func ParseClientID(s string) (ClientID, error) {
	u, err := uuid.Parse(s)
	return ClientID(u), err
}

// ActorKind distinguishes the two flavors of actor a Gateway can proxy for
// a client: grains hosted on the client process, and anonymous objects
// addressable only through the Gateway.
//
//go:generate stringer -type=ActorKind
type ActorKind int8

const (
	// ActorKindGrain is a client grain: an actor identity hosted inside the
	// client process.
	ActorKindGrain ActorKind = iota + 1
	// ActorKindClientAddressableObject is an anonymous observer on a client,
	// addressable only via a Gateway.
	ActorKindClientAddressableObject
)

// ActorID identifies an actor (a client grain or a client-addressable
// object). Equality-comparable and hashable so it can key the proxied-actor
// index.
type ActorID struct {
	Kind ActorKind
	Key  string
}

// IsClientGrain reports whether this actor is hosted on the client process.
func (a ActorID) IsClientGrain() bool { return a.Kind == ActorKindGrain }

// IsClientAddressableObject reports whether this actor is an anonymous,
// Gateway-only-addressable observer.
func (a ActorID) IsClientAddressableObject() bool {
	return a.Kind == ActorKindClientAddressableObject
}

func (a ActorID) String() string { return a.Key }

// SiloAddress is the opaque network identity of a cluster node.
type SiloAddress string

func (s SiloAddress) String() string { return string(s) }

// None is the zero SiloAddress: the sentinel value for an unset or cleared
// target_silo / sending_silo field.
const None SiloAddress = ""

// IsNone reports whether this address is the "none" sentinel.
func (s SiloAddress) IsNone() bool { return s == None }
