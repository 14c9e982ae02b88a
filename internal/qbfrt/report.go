package qbfrt

import (
	"fmt"

	"qbfrt/internal/fastresume"
)

// Outcome is what happened to one torrent during a run.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeUpdated
	OutcomeDumped
	OutcomeDecodeError
	OutcomeEncodeError
	OutcomePersistError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeUpdated:
		return "updated"
	case OutcomeDumped:
		return "dumped"
	case OutcomeDecodeError:
		return "decode-error"
	case OutcomeEncodeError:
		return "encode-error"
	case OutcomePersistError:
		return "persist-error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Failed reports whether the outcome is an error.
func (o Outcome) Failed() bool {
	return o >= OutcomeDecodeError
}

// RecordReport describes the outcome for one torrent.
type RecordReport struct {
	TorrentID string
	Outcome   Outcome
	Err       error
	// Record is the blob after edits. Nil when decoding failed.
	Record *fastresume.Record
	// Update is set for OutcomeUpdated.
	Update *TorrentUpdate
}

// ReportFunc receives one report per torrent visited.
type ReportFunc func(RecordReport)

// Summary counts outcomes over a run.
type Summary struct {
	Updated   int
	Unchanged int
	Dumped    int
	Failed    int
}

func (s *Summary) add(o Outcome) {
	switch {
	case o.Failed():
		s.Failed++
	case o == OutcomeUpdated:
		s.Updated++
	case o == OutcomeDumped:
		s.Dumped++
	default:
		s.Unchanged++
	}
}

// Total is the number of torrents visited.
func (s Summary) Total() int {
	return s.Updated + s.Unchanged + s.Dumped + s.Failed
}
