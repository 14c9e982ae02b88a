package database

// Schema is the table layout qBittorrent (4.5 and later) creates in
// torrents.db. qbfrt never creates or migrates this database; Schema is
// used to build fixture databases.
const Schema = `
CREATE TABLE meta (
	id INTEGER PRIMARY KEY,
	key TEXT NOT NULL UNIQUE,
	value BLOB
);

CREATE TABLE torrents (
	id INTEGER PRIMARY KEY,
	torrent_id BLOB NOT NULL UNIQUE,
	queue_position INTEGER NOT NULL DEFAULT -1,
	name TEXT,
	category TEXT,
	tags TEXT,
	target_save_path TEXT,
	download_path TEXT,
	content_layout TEXT NOT NULL,
	ratio_limit INTEGER NOT NULL,
	seeding_time_limit INTEGER NOT NULL,
	inactive_seeding_time_limit INTEGER NOT NULL,
	share_limit_action TEXT,
	has_outer_pieces_priority INTEGER NOT NULL,
	has_seed_status INTEGER NOT NULL,
	operating_mode TEXT NOT NULL,
	stopped INTEGER NOT NULL,
	stop_condition TEXT NOT NULL DEFAULT 'None',
	libtorrent_resume_data BLOB NOT NULL,
	metadata BLOB
);

CREATE INDEX torrents_queue_position ON torrents (queue_position);

INSERT INTO meta (key, value) VALUES ('version', 7);
`
