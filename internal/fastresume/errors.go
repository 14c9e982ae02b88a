package fastresume

import (
	"errors"
	"fmt"

	"qbfrt/internal/bencode"
)

var (
	// ErrUnknownKey is returned for a key that is not part of the schema.
	ErrUnknownKey = errors.New("unknown key")
	// ErrMissingKey is returned when a mandatory key is absent.
	ErrMissingKey = errors.New("missing mandatory key")
	// ErrInvalidUTF8 is returned when a text field is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 in text field")
	// ErrWrongType is returned when a value has the wrong bencode kind.
	ErrWrongType = errors.New("wrong value type")
)

// DecodeError reports a resume blob that is malformed or violates the
// schema. Key is empty for errors that are not tied to a single key.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("fastresume: decode: %v", e.Err)
	}
	return fmt.Sprintf("fastresume: decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a Record that cannot be encoded. It only happens when
// a caller stores invalid UTF-8 in a text field.
type EncodeError struct {
	Key string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("fastresume: encode %q: %v", e.Key, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func wrongType(v bencode.Value, want bencode.Kind) error {
	return fmt.Errorf("%w: got %s, want %s", ErrWrongType, v.Kind, want)
}
