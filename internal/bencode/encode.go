package bencode

import (
	"bytes"
	"slices"
	"strconv"
)

// Encode returns the bencoding of v. Dictionary keys are written in
// lexicographic byte order regardless of the order of v.Dict.
func Encode(v Value) []byte {
	return Append(nil, v)
}

// Append appends the bencoding of v to dst.
func Append(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindInt:
		dst = append(dst, 'i')
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, 'e')
	case KindString:
		return appendString(dst, v.Str)
	case KindList:
		dst = append(dst, 'l')
		for _, item := range v.List {
			dst = Append(dst, item)
		}
		return append(dst, 'e')
	case KindDict:
		entries := v.Dict
		if !v.Sorted() {
			entries = slices.Clone(entries)
			slices.SortStableFunc(entries, func(a, b Entry) int {
				return bytes.Compare(a.Key, b.Key)
			})
		}
		dst = append(dst, 'd')
		for _, e := range entries {
			dst = appendString(dst, e.Key)
			dst = Append(dst, e.Value)
		}
		return append(dst, 'e')
	default:
		panic("bencode: encoding zero Value")
	}
}

func appendString(dst, s []byte) []byte {
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, ':')
	return append(dst, s...)
}
