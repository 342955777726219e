package jsonutil

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrInvalidOutput is returned by Unmarshal when the destination is nil.
var ErrInvalidOutput = errors.New("jsonutil: output value must be a non-nil pointer")

// ErrValueTooLarge is returned by Unmarshal when the input exceeds MaxJSONSize.
var ErrValueTooLarge = errors.New("jsonutil: input exceeds maximum JSON size")

var sonicFast = sonic.ConfigFastest

func wrapError(context string, err error) error {
	return fmt.Errorf("%s: %w", context, err)
}

// Marshal serializes a value to JSON using sonic's fastest configuration.
func Marshal(v interface{}) ([]byte, error) {
	data, err := sonicFast.Marshal(v)
	if err != nil {
		return nil, wrapError("jsonutil.Marshal failed", err)
	}
	return data, nil
}

// Unmarshal deserializes JSON data with unified error handling.
// Returns ErrInvalidOutput if v is nil. Returns ErrValueTooLarge if data
// exceeds MaxJSONSize, which guards decoders of upstream responses against
// accidental or adversarial oversized payloads.
func Unmarshal(data []byte, v interface{}) error {
	if v == nil {
		return ErrInvalidOutput
	}
	if len(data) > MaxJSONSize {
		return ErrValueTooLarge
	}
	if err := sonicFast.Unmarshal(data, v); err != nil {
		return wrapError("jsonutil.Unmarshal failed", err)
	}
	return nil
}

// MarshalIndent serializes a value to indented JSON with unified error handling.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	data, err := sonicFast.MarshalIndent(v, prefix, indent)
	if err != nil {
		return nil, wrapError("jsonutil.MarshalIndent failed", err)
	}
	return data, nil
}
