package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-studio-sync/models"
)

// Remote tables share one layout: the join key, the owner, the record
// timestamp and a jsonb document with every other column of the row.
const (
	columnPayload = "payload"
)

var remoteColumns = []string{models.ColumnID, models.ColumnOwner, models.ColumnTimestamp, columnPayload}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// remoteTable returns table if it names a known collection. Table names are
// interpolated into SQL, so nothing else is accepted.
func remoteTable(table string) (string, error) {
	c, err := models.ParseCollection(table)
	if err != nil {
		return "", err
	}
	return c.Table(), nil
}

// buildUpsertQuery builds an insert-or-replace keyed by id. A conflicting
// row owned by another account is left untouched, which the caller detects
// through the affected row count.
func buildUpsertQuery(table, owner string, row models.RemoteRow) (string, []any, error) {
	table, err := remoteTable(table)
	if err != nil {
		return "", nil, err
	}

	id := row.ID()
	if id == "" {
		return "", nil, fmt.Errorf("%w: missing %s", ErrInvalidRow, models.ColumnID)
	}
	rawTimestamp, _ := row[models.ColumnTimestamp].(string)
	createdAt, err := time.Parse(time.RFC3339Nano, rawTimestamp)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s %q: %w", ErrInvalidRow, models.ColumnTimestamp, rawTimestamp, err)
	}

	payload := make(map[string]any, len(row))
	for k, v := range row {
		switch k {
		case models.ColumnID, models.ColumnOwner, models.ColumnTimestamp:
			continue
		}
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
	}

	query, args, err := builder().
		Insert(table).
		Columns(remoteColumns...).
		Values(id, owner, createdAt.UTC(), string(body)).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (%[2]s) DO UPDATE SET %[3]s = EXCLUDED.%[3]s, %[4]s = EXCLUDED.%[4]s WHERE %[1]s.%[5]s = EXCLUDED.%[5]s",
			table, models.ColumnID, models.ColumnTimestamp, columnPayload, models.ColumnOwner,
		)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildSelectAllQuery(table, owner string) (string, []any, error) {
	table, err := remoteTable(table)
	if err != nil {
		return "", nil, err
	}

	query, args, err := builder().
		Select(remoteColumns...).
		From(table).
		Where(squirrel.Eq{models.ColumnOwner: owner}).
		OrderBy(models.ColumnTimestamp, models.ColumnID).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildDeleteQuery(table, id, owner string) (string, []any, error) {
	table, err := remoteTable(table)
	if err != nil {
		return "", nil, err
	}

	query, args, err := builder().
		Delete(table).
		Where(squirrel.Eq{models.ColumnID: id, models.ColumnOwner: owner}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}
