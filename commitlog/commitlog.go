// Package commitlog records one audit row per successful save. It is
// best-effort infrastructure around the engine: when CRDB is not configured
// the log is disabled and saves proceed without it.
package commitlog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/parqedit/parqedit/crdb"
	"github.com/parqedit/parqedit/gologger"
	"github.com/parqedit/parqedit/utils"
)

var logger = gologger.NewLogger()

type (
	Entry struct {
		ID        string
		Path      string
		Rows      int64
		Bytes     int64
		Columns   []string
		CreatedAt time.Time
	}
)

// Enabled reports whether a CRDB pool is available to write to.
func Enabled() bool {
	return crdb.PGPool != nil
}

// Record inserts an audit row for a finished save.
func Record(ctx context.Context, e Entry) error {
	return utils.ReliableExecInTx(ctx, crdb.PGPool, time.Second*10, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO commit_log (id, path, rows, bytes, columns)
			VALUES ($1, $2, $3, $4, $5)
		`, e.ID, e.Path, e.Rows, e.Bytes, e.Columns)
		return err
	})
}

// ListByPath returns the most recent commits for a path, newest first.
func ListByPath(ctx context.Context, path string, limit int) ([]Entry, error) {
	var entries []Entry
	err := utils.ReliableExec(ctx, crdb.PGPool, time.Second*10, func(ctx context.Context, conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, path, rows, bytes, columns, created_at
			FROM commit_log
			WHERE path = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, path, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var e Entry
			if err := rows.Scan(&e.ID, &e.Path, &e.Rows, &e.Bytes, &e.Columns, &e.CreatedAt); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
