package http_server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/danthegoodman1/gojsonutils"
	"github.com/parqedit/parqedit/commit"
	"github.com/parqedit/parqedit/commitlog"
	"github.com/parqedit/parqedit/editbuf"
	"github.com/parqedit/parqedit/editor"
	"github.com/parqedit/parqedit/export"
	"github.com/parqedit/parqedit/schema"
	"github.com/parqedit/parqedit/storage"
)

type (
	sessionRegistry struct {
		mu       sync.Mutex
		sessions map[string]*editor.Session
	}

	OpenSessionReqBody struct {
		Path string `validate:"required"`
	}

	SessionInfo struct {
		ID      string
		Path    string
		NumRows int
		Columns []ColumnInfo
	}

	ColumnInfo struct {
		Name     string
		Type     string
		Nullable bool
	}

	RowsPage struct {
		Offset int
		Rows   [][]string
	}

	SetCellReqBody struct {
		Row    int    `validate:"gte=0"`
		Column string `validate:"required"`
		Text   string
	}

	DeleteRowsReqBody struct {
		Indices []int `validate:"required"`
	}

	CommitStats struct {
		Bytes   int
		NumRows int
		TimeMS  int64
	}

	ExportReqBody struct {
		Format string `validate:"required,oneof=csv ndjson xlsx"`
		Target string `validate:"required"`
	}

	ExportStats struct {
		Bytes    int
		Warnings []export.Warning
	}
)

var errSessionNotFound = errors.New("session not found")

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*editor.Session)}
}

// withSession runs f while holding the registry lock, which also serializes
// mutations per session: one writer at a time, edits in call order.
func (r *sessionRegistry) withSession(id string, f func(*editor.Session) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return errSessionNotFound
	}
	return f(s)
}

func sessionInfo(s *editor.Session) SessionInfo {
	cols := s.Catalog().Columns()
	info := SessionInfo{
		ID:      s.ID,
		Path:    s.Path,
		NumRows: s.NumRows(),
		Columns: make([]ColumnInfo, len(cols)),
	}
	for i, col := range cols {
		info.Columns[i] = ColumnInfo{
			Name:     col.Name,
			Type:     col.Type.String(),
			Nullable: col.Nullable,
		}
	}
	return info
}

func (s *HTTPServer) OpenSessionHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	var reqBody OpenSessionReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	sess, err := editor.Open(ctx, reqBody.Path)
	if err != nil {
		if errors.Is(err, schema.ErrUnsupportedType) {
			return c.String(http.StatusUnprocessableEntity, err.Error())
		}
		return c.InternalError(err, "error opening session")
	}

	s.registry.mu.Lock()
	s.registry.sessions[sess.ID] = sess
	s.registry.mu.Unlock()

	return c.JSON(http.StatusCreated, sessionInfo(sess))
}

func (s *HTTPServer) GetSessionHandler(c *CustomContext) error {
	var info SessionInfo
	err := s.registry.withSession(c.Param("id"), func(sess *editor.Session) error {
		info = sessionInfo(sess)
		return nil
	})
	if errors.Is(err, errSessionNotFound) {
		return c.String(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return c.InternalError(err, "error getting session")
	}
	return c.JSON(http.StatusOK, info)
}

func (s *HTTPServer) GetRowsHandler(c *CustomContext) error {
	offset := intQueryParam(c, "offset", 0)
	limit := intQueryParam(c, "limit", 100)

	var page RowsPage
	err := s.registry.withSession(c.Param("id"), func(sess *editor.Session) error {
		snap := sess.Snapshot()
		page = rowsPage(snap, offset, limit)
		return nil
	})
	if errors.Is(err, errSessionNotFound) {
		return c.String(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return c.InternalError(err, "error reading rows")
	}
	return c.JSON(http.StatusOK, page)
}

func rowsPage(snap editbuf.Snapshot, offset, limit int) RowsPage {
	page := RowsPage{Offset: offset, Rows: [][]string{}}
	for i := offset; i < len(snap.Rows) && i < offset+limit; i++ {
		rendered := make([]string, len(snap.Rows[i]))
		for c, cell := range snap.Rows[i] {
			rendered[c] = cell.DisplayText()
		}
		page.Rows = append(page.Rows, rendered)
	}
	return page
}

func (s *HTTPServer) SetCellHandler(c *CustomContext) error {
	var reqBody SetCellReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	err := s.registry.withSession(c.Param("id"), func(sess *editor.Session) error {
		return sess.SetCell(reqBody.Row, reqBody.Column, reqBody.Text)
	})
	if errors.Is(err, errSessionNotFound) {
		return c.String(http.StatusNotFound, err.Error())
	}
	if errors.Is(err, editbuf.ErrRowIndex) || errors.Is(err, schema.ErrUnknownColumn) {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return c.InternalError(err, "error setting cell")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) DeleteRowsHandler(c *CustomContext) error {
	var reqBody DeleteRowsReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	var remaining int
	err := s.registry.withSession(c.Param("id"), func(sess *editor.Session) error {
		remaining = sess.DeleteRows(reqBody.Indices)
		return nil
	})
	if errors.Is(err, errSessionNotFound) {
		return c.String(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return c.InternalError(err, "error deleting rows")
	}
	return c.JSON(http.StatusOK, map[string]int{"NumRows": remaining})
}

// AppendRowHandler accepts an arbitrary JSON object, flattens any nesting,
// and applies each field as a text edit on a fresh all-null row.
func (s *HTTPServer) AppendRowHandler(c *CustomContext) error {
	var raw map[string]any
	if err := c.Bind(&raw); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	flat, err := gojsonutils.Flatten(raw, nil)
	if err != nil {
		return c.InternalError(err, "error flattening JSON map")
	}
	flatMap, ok := flat.(map[string]any)
	if !ok {
		return c.String(http.StatusBadRequest, fmt.Sprintf("got a non flat map: %+v", flat))
	}

	var rowIndex int
	err = s.registry.withSession(c.Param("id"), func(sess *editor.Session) error {
		for key := range flatMap {
			if _, err := sess.Catalog().ColumnIndex(key); err != nil {
				return err
			}
		}
		rowIndex = sess.AppendRow()
		for key, val := range flatMap {
			text := ""
			if val != nil {
				text = fmt.Sprint(val)
			}
			if err := sess.SetCell(rowIndex, key, text); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errSessionNotFound) {
		return c.String(http.StatusNotFound, err.Error())
	}
	if errors.Is(err, schema.ErrUnknownColumn) {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return c.InternalError(err, "error appending row")
	}
	return c.JSON(http.StatusCreated, map[string]int{"Row": rowIndex})
}

// CommitHandler coerces, re-encodes, and writes the file back to its path.
// Coercion and nullability failures name the offending cell and leave both
// the buffer and the file untouched.
func (s *HTTPServer) CommitHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	start := time.Now()
	var stats CommitStats
	err := s.registry.withSession(c.Param("id"), func(sess *editor.Session) error {
		n, err := sess.Save(ctx)
		if err != nil {
			return err
		}
		stats = CommitStats{
			Bytes:   n,
			NumRows: sess.NumRows(),
			TimeMS:  time.Since(start).Milliseconds(),
		}
		return nil
	})
	if errors.Is(err, errSessionNotFound) {
		return c.String(http.StatusNotFound, err.Error())
	}

	var coercionErr *commit.CoercionError
	if errors.As(err, &coercionErr) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"Column": coercionErr.Column,
			"Row":    coercionErr.Row,
			"Input":  coercionErr.Input,
			"Reason": coercionErr.Reason,
		})
	}
	var nullErr *commit.NullabilityError
	if errors.As(err, &nullErr) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"Column": nullErr.Column,
			"Row":    nullErr.Row,
			"Reason": "null in non-nullable column",
		})
	}
	if err != nil {
		return c.InternalError(err, "error committing session")
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *HTTPServer) ExportHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	var reqBody ExportReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	var stats ExportStats
	err := s.registry.withSession(c.Param("id"), func(sess *editor.Session) error {
		var buf bytes.Buffer
		warnings, err := sess.Export(export.Format(reqBody.Format), &buf)
		if err != nil {
			return err
		}
		if err := storage.ForPath(reqBody.Target).Write(ctx, reqBody.Target, buf.Bytes()); err != nil {
			return err
		}
		stats = ExportStats{Bytes: buf.Len(), Warnings: warnings}
		return nil
	})
	if errors.Is(err, errSessionNotFound) {
		return c.String(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return c.InternalError(err, "error exporting session")
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *HTTPServer) ListCommitsHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*10)
	defer cancel()

	if !commitlog.Enabled() {
		return c.String(http.StatusNotImplemented, "commit log not configured")
	}

	var path string
	err := s.registry.withSession(c.Param("id"), func(sess *editor.Session) error {
		path = sess.Path
		return nil
	})
	if errors.Is(err, errSessionNotFound) {
		return c.String(http.StatusNotFound, err.Error())
	}

	entries, err := commitlog.ListByPath(ctx, path, intQueryParam(c, "limit", 20))
	if err != nil {
		return c.InternalError(err, "error listing commits")
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *HTTPServer) CloseSessionHandler(c *CustomContext) error {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	if _, ok := s.registry.sessions[c.Param("id")]; !ok {
		return c.String(http.StatusNotFound, errSessionNotFound.Error())
	}
	delete(s.registry.sessions, c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
