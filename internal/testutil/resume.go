package testutil

import (
	"bytes"
	"fmt"

	"qbfrt/internal/bencode"
)

// Hash returns a 40-character hex torrent id unique to n.
func Hash(n int) string {
	return fmt.Sprintf("%040x", n)
}

// ResumeBuilder assembles libtorrent resume blobs for tests.
type ResumeBuilder struct {
	entries map[string]bencode.Value
}

// NewResume starts a blob with the mandatory keys, the given save path and
// a single tracker tier per argument.
func NewResume(savePath string, tiers ...[]string) *ResumeBuilder {
	tierList := make([]bencode.Value, len(tiers))
	for i, tier := range tiers {
		urls := make([]bencode.Value, len(tier))
		for j, u := range tier {
			urls[j] = bencode.Text(u)
		}
		tierList[i] = bencode.List(urls...)
	}

	return &ResumeBuilder{entries: map[string]bencode.Value{
		"file-format":  bencode.Text("libtorrent resume file"),
		"file-version": bencode.Int(1),
		"info-hash":    bencode.Bytes(bytes.Repeat([]byte{0xab}, 20)),
		"pieces":       bencode.Bytes([]byte{1, 1, 1, 0}),
		"save_path":    bencode.Text(savePath),
		"trackers":     bencode.List(tierList...),
	}}
}

// Set adds or replaces a key.
func (b *ResumeBuilder) Set(key string, v bencode.Value) *ResumeBuilder {
	b.entries[key] = v
	return b
}

// Delete removes a key, including mandatory ones.
func (b *ResumeBuilder) Delete(key string) *ResumeBuilder {
	delete(b.entries, key)
	return b
}

// QBtSavePath sets qBt-savePath.
func (b *ResumeBuilder) QBtSavePath(p string) *ResumeBuilder {
	return b.Set("qBt-savePath", bencode.Text(p))
}

// Typical adds the keys qBittorrent usually writes, so round trips cover
// more than the mandatory set.
func (b *ResumeBuilder) Typical() *ResumeBuilder {
	b.Set("active_time", bencode.Int(7200))
	b.Set("added_time", bencode.Int(1690000000))
	b.Set("allocation", bencode.Text("sparse"))
	b.Set("libtorrent-version", bencode.Text("2.0.9.0"))
	b.Set("name", bencode.Text("debian-12.5.0-amd64-netinst.iso"))
	b.Set("peers", bencode.Bytes([]byte{10, 0, 0, 1, 0x1a, 0xe1}))
	b.Set("qBt-category", bencode.Text("linux"))
	b.Set("qBt-tags", bencode.List(bencode.Text("iso")))
	b.Set("total_uploaded", bencode.Int(1<<33))
	b.Set("unfinished", bencode.List(bencode.Dict(
		bencode.Pair("bitmask", bencode.Bytes([]byte{0xf0})),
		bencode.Pair("piece", bencode.Int(3)),
	)))
	return b
}

// Bytes encodes the blob.
func (b *ResumeBuilder) Bytes() []byte {
	entries := make([]bencode.Entry, 0, len(b.entries))
	for k, v := range b.entries {
		entries = append(entries, bencode.Pair(k, v))
	}
	return bencode.Encode(bencode.Dict(entries...))
}
