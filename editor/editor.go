// Package editor ties storage, the parquet codec, and the pipelines into
// one edit session per open file.
package editor

import (
	"context"
	"fmt"
	"io"

	"github.com/parqedit/parqedit/codec"
	"github.com/parqedit/parqedit/commit"
	"github.com/parqedit/parqedit/commitlog"
	"github.com/parqedit/parqedit/editbuf"
	"github.com/parqedit/parqedit/export"
	"github.com/parqedit/parqedit/gologger"
	"github.com/parqedit/parqedit/load"
	"github.com/parqedit/parqedit/schema"
	"github.com/parqedit/parqedit/storage"
	"github.com/parqedit/parqedit/utils"
)

var logger = gologger.NewLogger()

// Session is one load->edit->save generation over a single file. It is
// owned by a single caller; operations apply in call order.
type Session struct {
	ID   string
	Path string

	store  storage.Store
	buffer *editbuf.Buffer
}

// Open reads the file, decodes it, and builds the edit buffer. The catalog
// is fixed for the life of the session.
func Open(ctx context.Context, path string) (*Session, error) {
	store := storage.ForPath(path)
	b, err := store.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	t, err := codec.Decode(b)
	if err != nil {
		return nil, err
	}

	catalog, rows, err := load.FromTable(t)
	if err != nil {
		return nil, err
	}

	buffer, err := editbuf.New(catalog, rows)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:     utils.GenSessionID(),
		Path:   path,
		store:  store,
		buffer: buffer,
	}
	logger.Debug().Str("sessionID", s.ID).Str("path", path).Int("rows", buffer.NumRows()).Msg("opened session")
	return s, nil
}

func (s *Session) Catalog() *schema.Catalog {
	return s.buffer.Catalog()
}

func (s *Session) NumRows() int {
	return s.buffer.NumRows()
}

func (s *Session) Snapshot() editbuf.Snapshot {
	return s.buffer.Snapshot()
}

// SetCell applies one text edit.
func (s *Session) SetCell(rowIndex int, columnName, text string) error {
	return s.buffer.SetCell(rowIndex, columnName, text)
}

// DeleteRows removes rows by current position and returns the new count.
func (s *Session) DeleteRows(indices []int) int {
	return s.buffer.DeleteRows(indices)
}

// AppendRow adds an all-null row and returns its index.
func (s *Session) AppendRow() int {
	return s.buffer.AppendRow()
}

func (s *Session) Select(indices []int) {
	s.buffer.Select(indices)
}

func (s *Session) Selected() []int {
	return s.buffer.Selected()
}

// Commit coerces and re-encodes the current rows. It performs no I/O and
// leaves the buffer untouched, success or failure.
func (s *Session) Commit(ctx context.Context) ([]byte, error) {
	t, err := commit.Build(s.buffer.Snapshot())
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		// abandoned commit: nothing was installed or written
		return nil, ctx.Err()
	}
	return codec.Encode(t)
}

// Save commits and writes the bytes back to the session's path, then
// records the save in the commit log if one is configured. The session
// stays editable afterwards.
func (s *Session) Save(ctx context.Context) (int, error) {
	b, err := s.Commit(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.store.Write(ctx, s.Path, b); err != nil {
		return 0, fmt.Errorf("error writing %s: %w", s.Path, err)
	}

	if commitlog.Enabled() {
		err := commitlog.Record(ctx, commitlog.Entry{
			ID:      utils.GenKSortedID("c_"),
			Path:    s.Path,
			Rows:    int64(s.buffer.NumRows()),
			Bytes:   int64(len(b)),
			Columns: s.buffer.Catalog().Names(),
		})
		if err != nil {
			// the file is already saved, don't fail the save over the audit row
			logger.Error().Err(err).Str("path", s.Path).Msg("error recording commit")
		}
	}

	logger.Debug().Str("sessionID", s.ID).Str("path", s.Path).Int("bytes", len(b)).Msg("saved file")
	return len(b), nil
}

// Export flattens the current rows to w. Best effort, no round-trip
// obligation, never mutates the buffer.
func (s *Session) Export(format export.Format, w io.Writer) ([]export.Warning, error) {
	return export.Write(format, s.buffer.Snapshot(), w)
}
