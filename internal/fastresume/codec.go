package fastresume

import (
	"qbfrt/internal/bencode"
)

// Decode parses a resume blob. Any syntax error, unknown key, missing
// mandatory key, value of the wrong kind or invalid UTF-8 in a text field
// yields a *DecodeError.
func Decode(data []byte) (*Record, error) {
	root, err := bencode.Decode(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if root.Kind != bencode.KindDict {
		return nil, &DecodeError{Err: wrongType(root, bencode.KindDict)}
	}

	r := &Record{}
	seen := make([]bool, len(schema))
	for _, e := range root.Dict {
		key := string(e.Key)
		i, ok := schemaIndex[key]
		if !ok {
			return nil, &DecodeError{Key: key, Err: ErrUnknownKey}
		}
		if err := schema[i].decode(r, e.Value); err != nil {
			return nil, &DecodeError{Key: key, Err: err}
		}
		seen[i] = true
	}

	for i, f := range schema {
		if f.required && !seen[i] {
			return nil, &DecodeError{Key: f.key, Err: ErrMissingKey}
		}
	}
	return r, nil
}

// Encode returns the bencoding of r with keys in ascending byte order.
// Absent optional fields are omitted.
func Encode(r *Record) ([]byte, error) {
	entries := make([]bencode.Entry, 0, len(schema))
	for _, f := range schema {
		v, ok, err := f.encode(r)
		if err != nil {
			return nil, &EncodeError{Key: f.key, Err: err}
		}
		if !ok {
			continue
		}
		entries = append(entries, bencode.Entry{Key: []byte(f.key), Value: v})
	}
	return bencode.Encode(bencode.Dict(entries...)), nil
}
