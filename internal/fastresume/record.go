// Package fastresume decodes and encodes libtorrent resume data as written
// by qBittorrent, both in .fastresume files and in the
// libtorrent_resume_data column of its SQLite database.
//
// The key set is closed: every key qBittorrent writes has a field in Record,
// and decoding a blob with any other key fails. Optional keys decode to an
// absent Opt so that re-encoding an untouched record reproduces the input.
package fastresume

// Record is a decoded resume blob. Mandatory keys are plain fields; every
// other key is an Opt.
type Record struct {
	ActiveTime        Opt[int64]
	AddedTime         Opt[int64]
	Allocation        Opt[[]byte]
	ApplyIPFilter     Opt[int64]
	AutoManaged       Opt[int64]
	BannedPeers       Opt[[]byte]
	BannedPeers6      Opt[[]byte]
	CompletedTime     Opt[int64]
	DisableDHT        Opt[int64]
	DisableLSD        Opt[int64]
	DisablePEX        Opt[int64]
	DownloadRateLimit Opt[int64]

	// FileFormat is the format marker, "libtorrent resume file".
	FileFormat   []byte
	FileVersion  int64
	FilePriority Opt[[]int64]
	FinishedTime Opt[int64]
	HTTPSeeds    Opt[[]string]
	I2P          Opt[int64]

	InfoHash  []byte
	InfoHash2 Opt[[]byte]

	LastDownload      Opt[int64]
	LastSeenComplete  Opt[int64]
	LastUpload        Opt[int64]
	LibtorrentVersion Opt[[]byte]
	MaxConnections    Opt[int64]
	MaxUploads        Opt[int64]
	Name              Opt[string]
	NumComplete       Opt[int64]
	NumDownloaded     Opt[int64]
	NumIncomplete     Opt[int64]
	Paused            Opt[int64]
	Peers             Opt[[]byte]
	Peers6            Opt[[]byte]
	PiecePriority     Opt[[]byte]

	// Pieces is the have-bitmap, one byte per piece.
	Pieces []byte

	// qBittorrent keys. These mirror columns of the torrents table.
	QBtCategory                 Opt[string]
	QBtContentLayout            Opt[string]
	QBtDownloadPath             Opt[string]
	QBtFirstLastPiecePriority   Opt[int64]
	QBtInactiveSeedingTimeLimit Opt[int64]
	QBtName                     Opt[string]
	QBtRatioLimit               Opt[int64]
	QBtSavePath                 Opt[string]
	QBtSeedStatus               Opt[int64]
	QBtSeedingTimeLimit         Opt[int64]
	QBtShareLimitAction         Opt[string]
	QBtStopCondition            Opt[string]
	QBtTags                     Opt[[]string]

	// SavePath uses the separators of the platform qBittorrent runs on.
	SavePath string

	SeedMode           Opt[int64]
	SeedingTime        Opt[int64]
	SequentialDownload Opt[int64]
	ShareMode          Opt[int64]
	StopWhenReady      Opt[int64]
	SuperSeeding       Opt[int64]
	TotalDownloaded    Opt[int64]
	TotalUploaded      Opt[int64]

	// Trackers holds announce URLs grouped into tiers.
	Trackers [][]string

	Unfinished      Opt[[]UnfinishedPiece]
	UploadMode      Opt[int64]
	UploadRateLimit Opt[int64]
	URLList         Opt[[]string]
}

// UnfinishedPiece records the downloaded blocks of a partial piece.
type UnfinishedPiece struct {
	Bitmask []byte
	Piece   int64
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := &Record{}
	for _, f := range schema {
		f.copy(c, r)
	}
	return c
}
