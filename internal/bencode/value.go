// Package bencode reads and writes the bencode values found in libtorrent
// resume data. Decoding is strict, and encoding a decoded value with sorted
// keys reproduces the input byte for byte.
package bencode

import (
	"bytes"
	"fmt"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	KindInt Kind = iota + 1
	KindString
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindString:
		return "byte string"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a decoded bencode value. Only the field matching Kind is used.
type Value struct {
	Kind Kind
	Int  int64
	Str  []byte
	List []Value
	Dict []Entry
}

// Entry is a single dictionary key/value pair. Entries keep the order in
// which they appeared on the wire.
type Entry struct {
	Key   []byte
	Value Value
}

// Int returns an integer value.
func Int(n int64) Value { return Value{Kind: KindInt, Int: n} }

// Bytes returns a byte string value. The slice is not copied.
func Bytes(b []byte) Value { return Value{Kind: KindString, Str: b} }

// Text returns a byte string value holding s.
func Text(s string) Value { return Value{Kind: KindString, Str: []byte(s)} }

// List returns a list value.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindList, List: items}
}

// Dict returns a dictionary value.
func Dict(entries ...Entry) Value {
	if entries == nil {
		entries = []Entry{}
	}
	return Value{Kind: KindDict, Dict: entries}
}

// Pair builds a dictionary entry with a string key.
func Pair(key string, v Value) Entry {
	return Entry{Key: []byte(key), Value: v}
}

// Sorted reports whether the dictionary entries are in strictly increasing
// key order, which is the order Encode emits.
func (v Value) Sorted() bool {
	for i := 1; i < len(v.Dict); i++ {
		if bytes.Compare(v.Dict[i-1].Key, v.Dict[i].Key) >= 0 {
			return false
		}
	}
	return true
}
