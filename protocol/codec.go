package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope sniffs the type field; the payload structs each carry the full
// message including its type, so decoding is a second pass over the same
// bytes.
type Envelope struct {
	Type string `json:"type"`
}

func Encode(payload any) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("trying to encode nil payload")
	}
	return json.Marshal(payload)
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("trying to decode empty message")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	if e.Type == "" {
		return Envelope{}, fmt.Errorf("message has no type field")
	}
	return e, nil
}

func DecodePayload[T any](b []byte) (T, error) {
	var out T
	err := json.Unmarshal(b, &out)
	return out, err
}
