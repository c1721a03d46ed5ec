// Package export flattens a snapshot into one-way external formats. It has
// no round-trip obligation: cells are stringified per target, un-exportable
// cells are skipped with a warning instead of failing the export.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/parqedit/parqedit/editbuf"
	"github.com/parqedit/parqedit/gologger"
)

var (
	logger = gologger.NewLogger()

	ErrUnknownFormat = errors.New("unknown export format")
)

type (
	// Format selects an export target.
	Format string

	// Warning records a cell that could not be represented in the target.
	Warning struct {
		Row    int
		Column string
		Reason string
	}
)

const (
	FormatCSV    Format = "csv"
	FormatNDJSON Format = "ndjson"
	FormatXLSX   Format = "xlsx"
)

// Write renders the snapshot to w in the given format and returns any
// per-cell warnings. The snapshot is read-only; the buffer is never touched.
func Write(format Format, snap editbuf.Snapshot, w io.Writer) ([]Warning, error) {
	var (
		warnings []Warning
		err      error
	)
	switch format {
	case FormatCSV:
		warnings, err = writeCSV(snap, w)
	case FormatNDJSON:
		warnings, err = writeNDJSON(snap, w)
	case FormatXLSX:
		warnings, err = writeXLSX(snap, w)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	if err != nil {
		return warnings, err
	}
	if len(warnings) > 0 {
		logger.Warn().Str("format", string(format)).Int("skipped", len(warnings)).Msg("export skipped unrepresentable cells")
	}
	return warnings, nil
}
