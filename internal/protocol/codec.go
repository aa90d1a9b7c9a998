package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownKind      = errors.New("unknown message kind")
	ErrMalformedPayload = errors.New("malformed message payload")
)

// Envelope is the wire form of every message.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps the message into an envelope and marshals it.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrUnknownKind)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msg.Kind(), err)
	}

	data, err := json.Marshal(Envelope{Kind: msg.Kind(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return data, nil
}

// Decode parses an envelope and its kind-specific payload.
func Decode(data []byte) (Message, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	switch envelope.Kind {
	case KindInit:
		return decodePayload[Init](envelope)
	case KindReady:
		return decodePayload[Ready](envelope)
	case KindMove:
		return decodePayload[Move](envelope)
	case KindSync:
		return decodePayload[Sync](envelope)
	case KindSyncRequest:
		return decodePayload[SyncRequest](envelope)
	case KindWin:
		return decodePayload[Win](envelope)
	case KindConfirmWin:
		return decodePayload[ConfirmWin](envelope)
	case KindError:
		return decodePayload[Error](envelope)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, envelope.Kind)
	}
}

func decodePayload[T Message](envelope Envelope) (Message, error) {
	var msg T
	if len(envelope.Payload) == 0 || string(envelope.Payload) == "null" {
		return msg, nil
	}

	if err := json.Unmarshal(envelope.Payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedPayload, envelope.Kind, err)
	}

	return msg, nil
}
