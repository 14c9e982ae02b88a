package fastresume

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"qbfrt/internal/bencode"
)

// codec converts one category of field between its bencode form and its Go
// form. Every schema field uses exactly one codec, so whether a byte string
// is text or opaque is decided here and nowhere else.
type codec[T any] struct {
	decode func(bencode.Value) (T, error)
	encode func(T) (bencode.Value, error)
	clone  func(T) T
}

var integer = codec[int64]{
	decode: func(v bencode.Value) (int64, error) {
		if v.Kind != bencode.KindInt {
			return 0, wrongType(v, bencode.KindInt)
		}
		return v.Int, nil
	},
	encode: func(n int64) (bencode.Value, error) { return bencode.Int(n), nil },
	clone:  func(n int64) int64 { return n },
}

var text = codec[string]{
	decode: func(v bencode.Value) (string, error) {
		if v.Kind != bencode.KindString {
			return "", wrongType(v, bencode.KindString)
		}
		if !utf8.Valid(v.Str) {
			return "", ErrInvalidUTF8
		}
		return string(v.Str), nil
	},
	encode: func(s string) (bencode.Value, error) {
		if !utf8.ValidString(s) {
			return bencode.Value{}, ErrInvalidUTF8
		}
		return bencode.Text(s), nil
	},
	clone: func(s string) string { return s },
}

var opaque = codec[[]byte]{
	decode: func(v bencode.Value) ([]byte, error) {
		if v.Kind != bencode.KindString {
			return nil, wrongType(v, bencode.KindString)
		}
		return bytes.Clone(v.Str), nil
	},
	encode: func(b []byte) (bencode.Value, error) {
		if b == nil {
			b = []byte{}
		}
		return bencode.Bytes(b), nil
	},
	clone: bytes.Clone,
}

func listOf[T any](elem codec[T]) codec[[]T] {
	return codec[[]T]{
		decode: func(v bencode.Value) ([]T, error) {
			if v.Kind != bencode.KindList {
				return nil, wrongType(v, bencode.KindList)
			}
			out := make([]T, 0, len(v.List))
			for i, item := range v.List {
				x, err := elem.decode(item)
				if err != nil {
					return nil, fmt.Errorf("item %d: %w", i, err)
				}
				out = append(out, x)
			}
			return out, nil
		},
		encode: func(xs []T) (bencode.Value, error) {
			items := make([]bencode.Value, 0, len(xs))
			for i, x := range xs {
				item, err := elem.encode(x)
				if err != nil {
					return bencode.Value{}, fmt.Errorf("item %d: %w", i, err)
				}
				items = append(items, item)
			}
			return bencode.List(items...), nil
		},
		clone: func(xs []T) []T {
			if xs == nil {
				return nil
			}
			out := make([]T, len(xs))
			for i, x := range xs {
				out[i] = elem.clone(x)
			}
			return out
		},
	}
}

var (
	textList = listOf(text)
	intList  = listOf(integer)
	tiers    = listOf(textList)
)

var unfinishedPiece = codec[UnfinishedPiece]{
	decode: func(v bencode.Value) (UnfinishedPiece, error) {
		if v.Kind != bencode.KindDict {
			return UnfinishedPiece{}, wrongType(v, bencode.KindDict)
		}
		var p UnfinishedPiece
		var haveBitmask, havePiece bool
		for _, e := range v.Dict {
			var err error
			switch string(e.Key) {
			case "bitmask":
				p.Bitmask, err = opaque.decode(e.Value)
				haveBitmask = true
			case "piece":
				p.Piece, err = integer.decode(e.Value)
				havePiece = true
			default:
				err = fmt.Errorf("%w %q", ErrUnknownKey, e.Key)
			}
			if err != nil {
				return UnfinishedPiece{}, err
			}
		}
		if !haveBitmask || !havePiece {
			return UnfinishedPiece{}, fmt.Errorf("%w in unfinished piece", ErrMissingKey)
		}
		return p, nil
	},
	encode: func(p UnfinishedPiece) (bencode.Value, error) {
		bitmask, _ := opaque.encode(p.Bitmask)
		return bencode.Dict(
			bencode.Pair("bitmask", bitmask),
			bencode.Pair("piece", bencode.Int(p.Piece)),
		), nil
	},
	clone: func(p UnfinishedPiece) UnfinishedPiece {
		return UnfinishedPiece{Bitmask: bytes.Clone(p.Bitmask), Piece: p.Piece}
	},
}

var unfinishedList = listOf(unfinishedPiece)

// field binds one dictionary key to a Record field.
type field struct {
	key      string
	required bool
	decode   func(r *Record, v bencode.Value) error
	// encode returns ok=false when an optional field is absent.
	encode func(r *Record) (v bencode.Value, ok bool, err error)
	copy   func(dst, src *Record)
}

func required[T any](key string, c codec[T], at func(*Record) *T) field {
	return field{
		key:      key,
		required: true,
		decode: func(r *Record, v bencode.Value) error {
			x, err := c.decode(v)
			if err != nil {
				return err
			}
			*at(r) = x
			return nil
		},
		encode: func(r *Record) (bencode.Value, bool, error) {
			v, err := c.encode(*at(r))
			return v, true, err
		},
		copy: func(dst, src *Record) { *at(dst) = c.clone(*at(src)) },
	}
}

func optional[T any](key string, c codec[T], at func(*Record) *Opt[T]) field {
	return field{
		key: key,
		decode: func(r *Record, v bencode.Value) error {
			x, err := c.decode(v)
			if err != nil {
				return err
			}
			*at(r) = Some(x)
			return nil
		},
		encode: func(r *Record) (bencode.Value, bool, error) {
			x, ok := at(r).Get()
			if !ok {
				return bencode.Value{}, false, nil
			}
			v, err := c.encode(x)
			return v, true, err
		},
		copy: func(dst, src *Record) {
			if x, ok := at(src).Get(); ok {
				*at(dst) = Some(c.clone(x))
			}
		},
	}
}

// schema lists every key in the order it is encoded: ascending byte order.
var schema = []field{
	optional("active_time", integer, func(r *Record) *Opt[int64] { return &r.ActiveTime }),
	optional("added_time", integer, func(r *Record) *Opt[int64] { return &r.AddedTime }),
	optional("allocation", opaque, func(r *Record) *Opt[[]byte] { return &r.Allocation }),
	optional("apply_ip_filter", integer, func(r *Record) *Opt[int64] { return &r.ApplyIPFilter }),
	optional("auto_managed", integer, func(r *Record) *Opt[int64] { return &r.AutoManaged }),
	optional("banned_peers", opaque, func(r *Record) *Opt[[]byte] { return &r.BannedPeers }),
	optional("banned_peers6", opaque, func(r *Record) *Opt[[]byte] { return &r.BannedPeers6 }),
	optional("completed_time", integer, func(r *Record) *Opt[int64] { return &r.CompletedTime }),
	optional("disable_dht", integer, func(r *Record) *Opt[int64] { return &r.DisableDHT }),
	optional("disable_lsd", integer, func(r *Record) *Opt[int64] { return &r.DisableLSD }),
	optional("disable_pex", integer, func(r *Record) *Opt[int64] { return &r.DisablePEX }),
	optional("download_rate_limit", integer, func(r *Record) *Opt[int64] { return &r.DownloadRateLimit }),
	required("file-format", opaque, func(r *Record) *[]byte { return &r.FileFormat }),
	required("file-version", integer, func(r *Record) *int64 { return &r.FileVersion }),
	optional("file_priority", intList, func(r *Record) *Opt[[]int64] { return &r.FilePriority }),
	optional("finished_time", integer, func(r *Record) *Opt[int64] { return &r.FinishedTime }),
	optional("httpseeds", textList, func(r *Record) *Opt[[]string] { return &r.HTTPSeeds }),
	optional("i2p", integer, func(r *Record) *Opt[int64] { return &r.I2P }),
	required("info-hash", opaque, func(r *Record) *[]byte { return &r.InfoHash }),
	optional("info-hash2", opaque, func(r *Record) *Opt[[]byte] { return &r.InfoHash2 }),
	optional("last_download", integer, func(r *Record) *Opt[int64] { return &r.LastDownload }),
	optional("last_seen_complete", integer, func(r *Record) *Opt[int64] { return &r.LastSeenComplete }),
	optional("last_upload", integer, func(r *Record) *Opt[int64] { return &r.LastUpload }),
	optional("libtorrent-version", opaque, func(r *Record) *Opt[[]byte] { return &r.LibtorrentVersion }),
	optional("max_connections", integer, func(r *Record) *Opt[int64] { return &r.MaxConnections }),
	optional("max_uploads", integer, func(r *Record) *Opt[int64] { return &r.MaxUploads }),
	optional("name", text, func(r *Record) *Opt[string] { return &r.Name }),
	optional("num_complete", integer, func(r *Record) *Opt[int64] { return &r.NumComplete }),
	optional("num_downloaded", integer, func(r *Record) *Opt[int64] { return &r.NumDownloaded }),
	optional("num_incomplete", integer, func(r *Record) *Opt[int64] { return &r.NumIncomplete }),
	optional("paused", integer, func(r *Record) *Opt[int64] { return &r.Paused }),
	optional("peers", opaque, func(r *Record) *Opt[[]byte] { return &r.Peers }),
	optional("peers6", opaque, func(r *Record) *Opt[[]byte] { return &r.Peers6 }),
	optional("piece_priority", opaque, func(r *Record) *Opt[[]byte] { return &r.PiecePriority }),
	required("pieces", opaque, func(r *Record) *[]byte { return &r.Pieces }),
	optional("qBt-category", text, func(r *Record) *Opt[string] { return &r.QBtCategory }),
	optional("qBt-contentLayout", text, func(r *Record) *Opt[string] { return &r.QBtContentLayout }),
	optional("qBt-downloadPath", text, func(r *Record) *Opt[string] { return &r.QBtDownloadPath }),
	optional("qBt-firstLastPiecePriority", integer, func(r *Record) *Opt[int64] { return &r.QBtFirstLastPiecePriority }),
	optional("qBt-inactiveSeedingTimeLimit", integer, func(r *Record) *Opt[int64] { return &r.QBtInactiveSeedingTimeLimit }),
	optional("qBt-name", text, func(r *Record) *Opt[string] { return &r.QBtName }),
	optional("qBt-ratioLimit", integer, func(r *Record) *Opt[int64] { return &r.QBtRatioLimit }),
	optional("qBt-savePath", text, func(r *Record) *Opt[string] { return &r.QBtSavePath }),
	optional("qBt-seedStatus", integer, func(r *Record) *Opt[int64] { return &r.QBtSeedStatus }),
	optional("qBt-seedingTimeLimit", integer, func(r *Record) *Opt[int64] { return &r.QBtSeedingTimeLimit }),
	optional("qBt-shareLimitAction", text, func(r *Record) *Opt[string] { return &r.QBtShareLimitAction }),
	optional("qBt-stopCondition", text, func(r *Record) *Opt[string] { return &r.QBtStopCondition }),
	optional("qBt-tags", textList, func(r *Record) *Opt[[]string] { return &r.QBtTags }),
	required("save_path", text, func(r *Record) *string { return &r.SavePath }),
	optional("seed_mode", integer, func(r *Record) *Opt[int64] { return &r.SeedMode }),
	optional("seeding_time", integer, func(r *Record) *Opt[int64] { return &r.SeedingTime }),
	optional("sequential_download", integer, func(r *Record) *Opt[int64] { return &r.SequentialDownload }),
	optional("share_mode", integer, func(r *Record) *Opt[int64] { return &r.ShareMode }),
	optional("stop_when_ready", integer, func(r *Record) *Opt[int64] { return &r.StopWhenReady }),
	optional("super_seeding", integer, func(r *Record) *Opt[int64] { return &r.SuperSeeding }),
	optional("total_downloaded", integer, func(r *Record) *Opt[int64] { return &r.TotalDownloaded }),
	optional("total_uploaded", integer, func(r *Record) *Opt[int64] { return &r.TotalUploaded }),
	required("trackers", tiers, func(r *Record) *[][]string { return &r.Trackers }),
	optional("unfinished", unfinishedList, func(r *Record) *Opt[[]UnfinishedPiece] { return &r.Unfinished }),
	optional("upload_mode", integer, func(r *Record) *Opt[int64] { return &r.UploadMode }),
	optional("upload_rate_limit", integer, func(r *Record) *Opt[int64] { return &r.UploadRateLimit }),
	optional("url-list", textList, func(r *Record) *Opt[[]string] { return &r.URLList }),
}

// schemaIndex maps a key to its position in schema.
var schemaIndex = func() map[string]int {
	m := make(map[string]int, len(schema))
	for i, f := range schema {
		m[f.key] = i
	}
	return m
}()
