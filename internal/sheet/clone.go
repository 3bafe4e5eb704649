package sheet

import (
	"encoding/json"
	"fmt"
)

// CloneValues returns a copy of v that shares no mutable substructure with it.
//
// Copies go through a JSON round trip, so only exported, JSON-serializable data
// survives. Nil maps, slices and pointers come back nil.
func CloneValues[V any](v V) (V, error) {
	return CloneData(v)
}

// CloneData is CloneValues for auxiliary (external) state.
func CloneData[T any](t T) (T, error) {
	var out T
	b, err := json.Marshal(t)
	if err != nil {
		return out, fmt.Errorf("clone: marshal %T: %w", t, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("clone: unmarshal %T: %w", t, err)
	}
	return out, nil
}

type signaturePayload struct {
	V any `json:"v"`
	E any `json:"e"`
}

// Signature is the canonical serialization used to detect no-op pushes.
// Map keys are sorted by encoding/json, so equal data yields equal signatures.
// Without external state the "e" member is null.
func Signature[V, E any](values V, external E, hasExternal bool) (string, error) {
	p := signaturePayload{V: values}
	if hasExternal {
		p.E = external
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("signature: %w", err)
	}
	return string(b), nil
}
