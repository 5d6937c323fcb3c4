package message

import "github.com/nimbus-silo/gateway/internal/identity"

// OutgoingKind discriminates the three shapes an OutgoingItem can take.
type OutgoingKind int8

const (
	// OutgoingWakeup carries no message; it asks the owning sender to
	// inspect and drain a client's pending queues.
	OutgoingWakeup OutgoingKind = iota
	OutgoingSingle
	OutgoingBatch
)

// OutgoingItem is the unit of work on a Sender Pool worker's intake queue:
// (ClientId target, Message | none message), generalized with a
// Batch variant for process_batch.
type OutgoingItem struct {
	Target identity.ClientID
	Kind   OutgoingKind
	Single *Message
	Batch  []*Message
}

// Wakeup builds a sentinel OutgoingItem for the given client.
func Wakeup(client identity.ClientID) OutgoingItem {
	return OutgoingItem{Target: client, Kind: OutgoingWakeup}
}

// Single builds a single-message OutgoingItem.
func Single(client identity.ClientID, msg *Message) OutgoingItem {
	return OutgoingItem{Target: client, Kind: OutgoingSingle, Single: msg}
}

// Batch builds a batched OutgoingItem. All messages must share the same
// target client; callers must assemble batches per-client (enforced by
// BatchByClient below).
func Batch(client identity.ClientID, msgs []*Message) OutgoingItem {
	return OutgoingItem{Target: client, Kind: OutgoingBatch, Batch: msgs}
}

// IsWakeup reports whether this item carries no message.
func (i OutgoingItem) IsWakeup() bool { return i.Kind == OutgoingWakeup }

// BatchByClient splits a heterogeneous message slice into per-client
// batches, preserving relative order within each client's group. The
// intake queue must never be handed a batch mixing ClientIDs.
func BatchByClient(targets []identity.ClientID, msgs []*Message) []OutgoingItem {
	order := make([]identity.ClientID, 0, len(targets))
	seen := make(map[identity.ClientID]int, len(targets))
	grouped := make(map[identity.ClientID][]*Message, len(targets))

	for i, c := range targets {
		if _, ok := seen[c]; !ok {
			seen[c] = len(order)
			order = append(order, c)
		}
		grouped[c] = append(grouped[c], msgs[i])
	}

	items := make([]OutgoingItem, 0, len(order))
	for _, c := range order {
		items = append(items, Batch(c, grouped[c]))
	}
	return items
}
