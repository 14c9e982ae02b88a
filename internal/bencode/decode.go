package bencode

import (
	"fmt"
	"math"
)

// maxDepth bounds list/dictionary nesting. Resume data nests three deep.
const maxDepth = 64

// SyntaxError describes malformed bencode input.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bencode: %s at offset %d", e.Msg, e.Offset)
}

// Decode parses exactly one value from data. Non-canonical integers and
// string lengths, duplicate dictionary keys and trailing bytes are rejected.
// Byte strings in the result alias data.
func Decode(data []byte) (Value, error) {
	d := &decoder{data: data}
	v, err := d.value(0)
	if err != nil {
		return Value{}, err
	}
	if d.pos != len(d.data) {
		return Value{}, d.errorf("trailing data")
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) value(depth int) (Value, error) {
	if d.pos >= len(d.data) {
		return Value{}, d.errorf("unexpected end of input")
	}
	if depth > maxDepth {
		return Value{}, d.errorf("nesting too deep")
	}

	switch c := d.data[d.pos]; {
	case c == 'i':
		d.pos++
		n, err := d.integer('e')
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case c >= '0' && c <= '9':
		s, err := d.str()
		if err != nil {
			return Value{}, err
		}
		return Bytes(s), nil
	case c == 'l':
		d.pos++
		items := []Value{}
		for {
			if d.pos >= len(d.data) {
				return Value{}, d.errorf("unterminated list")
			}
			if d.data[d.pos] == 'e' {
				d.pos++
				return List(items...), nil
			}
			item, err := d.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
	case c == 'd':
		d.pos++
		return d.dict(depth)
	default:
		return Value{}, d.errorf("unexpected byte %q", c)
	}
}

func (d *decoder) dict(depth int) (Value, error) {
	entries := []Entry{}
	seen := make(map[string]struct{})
	for {
		if d.pos >= len(d.data) {
			return Value{}, d.errorf("unterminated dictionary")
		}
		c := d.data[d.pos]
		if c == 'e' {
			d.pos++
			return Dict(entries...), nil
		}
		if c < '0' || c > '9' {
			return Value{}, d.errorf("dictionary key is not a byte string")
		}
		keyPos := d.pos
		key, err := d.str()
		if err != nil {
			return Value{}, err
		}
		if _, dup := seen[string(key)]; dup {
			return Value{}, &SyntaxError{Offset: keyPos, Msg: fmt.Sprintf("duplicate key %q", key)}
		}
		seen[string(key)] = struct{}{}

		v, err := d.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, Entry{Key: key, Value: v})
	}
}

// integer reads a canonical decimal integer terminated by term.
func (d *decoder) integer(term byte) (int64, error) {
	start := d.pos
	end := start
	for end < len(d.data) && d.data[end] != term {
		end++
	}
	if end >= len(d.data) {
		return 0, d.errorf("unterminated integer")
	}
	digits := d.data[start:end]

	neg := false
	if len(digits) > 0 && digits[0] == '-' {
		neg = true
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return 0, d.errorf("empty integer")
	}
	if digits[0] == '0' && (len(digits) > 1 || neg) {
		return 0, d.errorf("non-canonical integer %q", d.data[start:end])
	}

	var n uint64
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, d.errorf("invalid integer %q", d.data[start:end])
		}
		if n > (math.MaxUint64-9)/10 {
			return 0, d.errorf("integer overflow")
		}
		n = n*10 + uint64(c-'0')
	}
	if neg {
		if n > uint64(math.MaxInt64)+1 {
			return 0, d.errorf("integer overflow")
		}
		d.pos = end + 1
		return int64(-n), nil
	}
	if n > math.MaxInt64 {
		return 0, d.errorf("integer overflow")
	}
	d.pos = end + 1
	return int64(n), nil
}

func (d *decoder) str() ([]byte, error) {
	start := d.pos
	if d.data[start] == '-' {
		return nil, d.errorf("negative string length")
	}
	n, err := d.integer(':')
	if err != nil {
		return nil, err
	}
	if n > int64(len(d.data)-d.pos) {
		d.pos = start
		return nil, d.errorf("string length %d exceeds input", n)
	}
	s := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return s, nil
}
