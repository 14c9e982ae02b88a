package qbfrt_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"qbfrt/internal/fastresume"
	"qbfrt/internal/qbfrt"
	"qbfrt/internal/testutil"
)

type memorySink struct {
	resume   map[string][]byte
	metadata map[string][]byte
	err      error
}

func newMemorySink() *memorySink {
	return &memorySink{resume: map[string][]byte{}, metadata: map[string][]byte{}}
}

func (m *memorySink) WriteTorrent(id string, resume, metadata []byte) error {
	if m.err != nil {
		return m.err
	}
	m.resume[id] = resume
	m.metadata[id] = metadata
	return nil
}

func TestRestoreColumns(t *testing.T) {
	t.Run("manual mode restores paths", func(t *testing.T) {
		row := testutil.Torrent(testutil.Hash(1), testutil.Ptr("/data/X"), nil)
		row.Name = sql.NullString{String: "Debian", Valid: true}
		row.Category = sql.NullString{String: "linux", Valid: true}
		row.Tags = sql.NullString{String: "iso,netinst", Valid: true}
		row.DownloadPath = sql.NullString{String: "/incomplete", Valid: true}
		row.ShareLimitAction = sql.NullString{String: "Stop", Valid: true}
		row.HasOuterPiecesPriority = 1

		rec := &fastresume.Record{}
		qbfrt.RestoreColumns(rec, row)

		checks := []struct {
			field string
			got   any
			want  any
		}{
			{"qBt-name", rec.QBtName.Value(), "Debian"},
			{"qBt-category", rec.QBtCategory.Value(), "linux"},
			{"qBt-tags", rec.QBtTags.Value(), []string{"iso", "netinst"}},
			{"qBt-savePath", rec.QBtSavePath.Value(), "/data/X"},
			{"qBt-downloadPath", rec.QBtDownloadPath.Value(), "/incomplete"},
			{"qBt-contentLayout", rec.QBtContentLayout.Value(), "Original"},
			{"qBt-ratioLimit", rec.QBtRatioLimit.Value(), int64(-2000)},
			{"qBt-seedingTimeLimit", rec.QBtSeedingTimeLimit.Value(), int64(-2)},
			{"qBt-inactiveSeedingTimeLimit", rec.QBtInactiveSeedingTimeLimit.Value(), int64(-2)},
			{"qBt-shareLimitAction", rec.QBtShareLimitAction.Value(), "Stop"},
			{"qBt-firstLastPiecePriority", rec.QBtFirstLastPiecePriority.Value(), int64(1)},
			{"qBt-seedStatus", rec.QBtSeedStatus.Value(), int64(0)},
			{"qBt-stopCondition", rec.QBtStopCondition.Value(), "None"},
		}
		for _, c := range checks {
			if !reflect.DeepEqual(c.got, c.want) {
				t.Errorf("%s = %#v, want %#v", c.field, c.got, c.want)
			}
		}
	})

	t.Run("automatic mode leaves paths absent", func(t *testing.T) {
		row := testutil.Torrent(testutil.Hash(1), nil, nil)
		row.DownloadPath = sql.NullString{String: "/incomplete", Valid: true}

		rec := &fastresume.Record{}
		qbfrt.RestoreColumns(rec, row)
		if rec.QBtSavePath.IsSet() || rec.QBtDownloadPath.IsSet() {
			t.Error("paths restored for an AutoTMM torrent")
		}
		if !rec.QBtTags.IsSet() || len(rec.QBtTags.Value()) != 0 {
			t.Errorf("qBt-tags = %v, want present and empty", rec.QBtTags)
		}
	})
}

func TestService_Dump(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDatabase(t)

	manual := testutil.Torrent(testutil.Hash(1), testutil.Ptr("/data/X"), testutil.NewResume(`/data/X`).Typical().Bytes())
	manual.Category = sql.NullString{String: "linux", Valid: true}
	magnet := testutil.Torrent(testutil.Hash(2), nil, testutil.NewResume("/data/Y").Bytes())
	magnet.Metadata = nil
	broken := testutil.Torrent(testutil.Hash(3), nil, []byte("not bencode"))
	testutil.InsertTorrents(t, db, manual, magnet, broken)

	svc, _ := newService(db)
	sink := newMemorySink()
	summary, err := svc.Dump(ctx, sink, nil)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if summary.Dumped != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 2 dumped, 1 failed", summary)
	}

	rec := decodeBlob(t, sink.resume[manual.TorrentID])
	if rec.QBtSavePath.Value() != "/data/X" || rec.QBtCategory.Value() != "linux" {
		t.Errorf("restored columns = %v/%v", rec.QBtSavePath, rec.QBtCategory)
	}
	if rec.SavePath != "/data/X" {
		t.Errorf("save_path = %q", rec.SavePath)
	}
	if string(sink.metadata[manual.TorrentID]) != string(manual.Metadata) {
		t.Error("metadata not passed to sink")
	}
	if _, ok := sink.resume[broken.TorrentID]; ok {
		t.Error("unreadable torrent was dumped")
	}

	// Dumping never writes to the database.
	after := testutil.ReadTorrents(t, db)
	if string(after[manual.TorrentID].ResumeData) != string(manual.ResumeData) {
		t.Error("dump modified the database")
	}
}

func TestService_Dump_SinkErrorStops(t *testing.T) {
	db := testutil.NewFakeDatabase(
		testutil.Torrent(testutil.Hash(1), nil, testutil.NewResume("/a").Bytes()),
		testutil.Torrent(testutil.Hash(2), nil, testutil.NewResume("/b").Bytes()),
	)
	svc, _ := newService(db)
	sink := newMemorySink()
	sink.err = errors.New("disk full")

	if _, err := svc.Dump(context.Background(), sink, nil); !errors.Is(err, sink.err) {
		t.Errorf("Dump() error = %v, want %v", err, sink.err)
	}
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "BT_backup")
	sink, err := qbfrt.NewDirSink(dir)
	if err != nil {
		t.Fatalf("NewDirSink() error = %v", err)
	}
	if sink.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", sink.Dir(), dir)
	}

	hash := testutil.Hash(1)
	if err := sink.WriteTorrent(hash, []byte("resume"), []byte("meta")); err != nil {
		t.Fatalf("WriteTorrent() error = %v", err)
	}
	if err := sink.WriteTorrent(testutil.Hash(2), []byte("resume2"), nil); err != nil {
		t.Fatalf("WriteTorrent() without metadata error = %v", err)
	}

	assertFile(t, filepath.Join(dir, hash+".fastresume"), "resume")
	assertFile(t, filepath.Join(dir, hash+".torrent"), "meta")
	assertFile(t, filepath.Join(dir, testutil.Hash(2)+".fastresume"), "resume2")
	if _, err := os.Stat(filepath.Join(dir, testutil.Hash(2)+".torrent")); !os.IsNotExist(err) {
		t.Errorf("torrent file written without metadata: %v", err)
	}

	for _, bad := range []string{"", "../escape", "a/b"} {
		if err := sink.WriteTorrent(bad, []byte("x"), nil); err == nil {
			t.Errorf("WriteTorrent(%q) expected error", bad)
		}
	}
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if string(got) != want {
		t.Errorf("%s = %q, want %q", path, got, want)
	}
}
