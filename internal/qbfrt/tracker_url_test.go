package qbfrt_test

import (
	"reflect"
	"testing"

	"qbfrt/internal/fastresume"
	"qbfrt/internal/qbfrt"
	"qbfrt/internal/testutil"
)

func TestRewriteTrackers(t *testing.T) {
	tests := []struct {
		name        string
		tiers       [][]string
		edit        qbfrt.TrackerURLEdit
		want        [][]string
		wantChanged bool
	}{
		{
			name:        "scheme upgrade across tiers",
			tiers:       [][]string{{"http://a/x", "http://b/y"}, {"http://a/z"}},
			edit:        qbfrt.TrackerURLEdit{Old: "http://a", New: "https://a"},
			want:        [][]string{{"https://a/x", "http://b/y"}, {"https://a/z"}},
			wantChanged: true,
		},
		{
			name:        "passkey rotation",
			tiers:       [][]string{{"https://t.example/announce?passkey=OLD"}},
			edit:        qbfrt.TrackerURLEdit{Old: "passkey=OLD", New: "passkey=NEW"},
			want:        [][]string{{"https://t.example/announce?passkey=NEW"}},
			wantChanged: true,
		},
		{
			name:        "no match",
			tiers:       [][]string{{"udp://c:6969"}},
			edit:        qbfrt.TrackerURLEdit{Old: "http://a", New: "https://a"},
			want:        [][]string{{"udp://c:6969"}},
			wantChanged: false,
		},
		{
			name:        "no trackers",
			tiers:       [][]string{},
			edit:        qbfrt.TrackerURLEdit{Old: "http://a", New: "https://a"},
			want:        [][]string{},
			wantChanged: false,
		},
		{
			name:        "empty tier is kept",
			tiers:       [][]string{{}, {"http://a/x"}},
			edit:        qbfrt.TrackerURLEdit{Old: "http://a", New: "https://a"},
			want:        [][]string{{}, {"https://a/x"}},
			wantChanged: true,
		},
		{
			name:        "empty search string never matches",
			tiers:       [][]string{{"http://a/x"}},
			edit:        qbfrt.TrackerURLEdit{Old: "", New: "x"},
			want:        [][]string{{"http://a/x"}},
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := deepCopy(tt.tiers)
			got, changed := qbfrt.RewriteTrackers(tt.tiers, tt.edit)
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RewriteTrackers() = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(tt.tiers, input) {
				t.Errorf("input modified: %v, was %v", tt.tiers, input)
			}
		})
	}
}

func TestRewriteTrackers_Idempotent(t *testing.T) {
	tiers := [][]string{{"http://a/x", "http://b/y"}, {"http://a/z"}}
	edit := qbfrt.TrackerURLEdit{Old: "http://a", New: "https://a"}

	once, _ := qbfrt.RewriteTrackers(tiers, edit)
	twice, changed := qbfrt.RewriteTrackers(once, edit)
	if changed {
		t.Error("second application reported a change")
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second application = %v, want %v", twice, once)
	}
}

func TestApplyTrackerURL(t *testing.T) {
	blob := testutil.NewResume("/data", []string{"http://a/x", "http://b/y"}, []string{"http://a/z"}).Bytes()
	rec, err := fastresume.Decode(blob)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !qbfrt.ApplyTrackerURL(rec, qbfrt.TrackerURLEdit{Old: "http://a", New: "https://a"}) {
		t.Fatal("ApplyTrackerURL() = false")
	}
	want := [][]string{{"https://a/x", "http://b/y"}, {"https://a/z"}}
	if !reflect.DeepEqual(rec.Trackers, want) {
		t.Errorf("Trackers = %v, want %v", rec.Trackers, want)
	}

	out, err := fastresume.Encode(rec)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	again, err := fastresume.Decode(out)
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}
	if !reflect.DeepEqual(again.Trackers, want) {
		t.Errorf("Trackers after round trip = %v, want %v", again.Trackers, want)
	}
}

func deepCopy(tiers [][]string) [][]string {
	out := make([][]string, len(tiers))
	for i, tier := range tiers {
		out[i] = append([]string{}, tier...)
	}
	return out
}
