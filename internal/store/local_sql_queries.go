package store

const (
	getLocalRecord = `SELECT id, timestamp, body
		FROM records
		WHERE collection = ? AND id = ?;`

	getAllLocalRecords = `SELECT id, timestamp, body
		FROM records
		WHERE collection = ?
		ORDER BY timestamp, id;`

	listLocalRecordIDs = `SELECT id
		FROM records
		WHERE collection = ?
		ORDER BY timestamp, id;`

	localRecordExists = `SELECT 1 FROM records WHERE collection = ? AND id = ?;`

	upsertLocalRecord = `INSERT INTO records (collection, id, timestamp, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			timestamp = excluded.timestamp,
			body = excluded.body;`

	// importLocalRecord never overwrites a local row and never writes a
	// tombstoned id.
	importLocalRecord = `INSERT OR IGNORE INTO records (collection, id, timestamp, body)
		SELECT ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM tombstones WHERE id = ?);`

	deleteLocalRecord = `DELETE FROM records WHERE collection = ? AND id = ?;`

	insertTombstone = `INSERT OR IGNORE INTO tombstones (id, collection, deleted_at)
		VALUES (?, ?, ?);`

	isTombstoned = `SELECT EXISTS (SELECT 1 FROM tombstones WHERE id = ?);`

	listTombstones = `SELECT id, collection, deleted_at
		FROM tombstones
		ORDER BY deleted_at, id;`

	countTombstones = `SELECT COUNT(*) FROM tombstones;`
)
