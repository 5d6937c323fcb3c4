package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"

	"github.com/nimbus-silo/gateway/internal/message"
)

// Serializer turns domain messages into wire buffers. It is an external
// collaborator; batch serialization may fail per-message while still
// producing a usable combined buffer for the messages that succeeded.
type Serializer interface {
	Serialize(msg *message.Message) (buffers net.Buffers, headerLen int, err error)
	SerializeBatch(msgs []*message.Message) (buffers net.Buffers, headerLen int, err error)
}

// JSONSerializer is the default Serializer: newline-delimited JSON frames,
// each prefixed by nothing but itself (headerLen is always 0 — there is no
// separate length-prefix header in this simple framing). Production
// deployments are expected to supply a denser wire format; this exists so
// the module is runnable without one.
type JSONSerializer struct{}

func NewJSONSerializer() *JSONSerializer { return &JSONSerializer{} }

func (JSONSerializer) Serialize(msg *message.Message) (net.Buffers, int, error) {
	buf, err := json.Marshal(wireEnvelope(msg))
	if err != nil {
		return nil, 0, fmt.Errorf("serialize message %s: %w", msg.ID, err)
	}
	buf = append(buf, '\n')
	return net.Buffers{buf}, 0, nil
}

func (s JSONSerializer) SerializeBatch(msgs []*message.Message) (net.Buffers, int, error) {
	var out bytes.Buffer
	var firstErr error
	for _, m := range msgs {
		b, err := json.Marshal(wireEnvelope(m))
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("serialize batch member %s: %w", m.ID, err)
			}
			continue
		}
		out.Write(b)
		out.WriteByte('\n')
	}
	if out.Len() == 0 && firstErr != nil {
		return nil, 0, firstErr
	}
	return net.Buffers{out.Bytes()}, 0, firstErr
}

type wireMessage struct {
	ID     string `json:"id"`
	Kind   int8   `json:"kind"`
	Sender string `json:"sender"`
	Target string `json:"target"`
	Body   any    `json:"body,omitempty"`
}

func wireEnvelope(m *message.Message) wireMessage {
	return wireMessage{
		ID:     m.ID,
		Kind:   int8(m.Kind),
		Sender: m.Sender.String(),
		Target: m.Target.String(),
		Body:   m.Body,
	}
}
