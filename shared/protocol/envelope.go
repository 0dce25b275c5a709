package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type Envelope struct {
	UserID string      `msgpack:"userId,omitempty" json:"userId,omitempty"`
	Type   MessageType `msgpack:"type" json:"type"`
	Body   any         `msgpack:"body" json:"body"`
}

func NewEnvelope(userID string, msgType MessageType, body any) *Envelope {
	return &Envelope{
		UserID: userID,
		Type:   msgType,
		Body:   body,
	}
}

func (e *Envelope) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

func DecodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &e, nil
}

// DecodeBody converts an envelope body (typically map[string]any after
// msgpack decoding) into the concrete body struct.
func DecodeBody[T any](e *Envelope) (*T, error) {
	if typed, ok := e.Body.(T); ok {
		return &typed, nil
	}

	data, err := msgpack.Marshal(e.Body)
	if err != nil {
		return nil, fmt.Errorf("re-encode body: %w", err)
	}

	var result T
	if err := msgpack.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode body to %T: %w", result, err)
	}
	return &result, nil
}
