package mapping

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
)

// ChannelMappingEntry is one row of the conditions database mapping table.
type ChannelMappingEntry struct {
	ChannelIndex int `db:"ChannelIndex"`
	ChannelID    int `db:"ChannelID"`
}

const channelMappingQuery = "SELECT ChannelIndex, ChannelID FROM ChannelMapping " +
	"WHERE MinRun <= ? AND MaxRun >= ? ORDER BY ChannelIndex"

// ConnectToDatabase opens the MySQL conditions database.
func ConnectToDatabase(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to mapping database: %w", err)
	}
	return db, nil
}

// LoadFromDB builds a mapper for boards whose index/ID table comes from the
// ChannelMapping rows valid for run.
func LoadFromDB(ctx context.Context, db *sqlx.DB, run int, boards []int) (*Mapper, error) {
	rows, err := db.QueryxContext(ctx, db.Rebind(channelMappingQuery), run, run)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	pairs := make(map[int]int)
	for rows.Next() {
		var entry ChannelMappingEntry
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		pairs[entry.ChannelIndex] = entry.ChannelID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}

	m := New(boards)
	if err := m.override(pairs); err != nil {
		return nil, fmt.Errorf("run %d: %w", run, err)
	}
	slog.Info(fmt.Sprintf("channel mapping for run %d read from DB: %d channels", run, len(pairs)), "module", "mapping")
	return m, nil
}
