// Package storage is the byte I/O boundary: whole-file reads and writes,
// on disk or in S3. The engine itself never touches it; only the session
// facade does, around load and save.
package storage

import (
	"context"
	"strings"

	"github.com/parqedit/parqedit/gologger"
)

var logger = gologger.NewLogger()

type Store interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, b []byte) error
}

// ForPath picks the backend by path scheme: s3://bucket/key goes to S3,
// everything else to disk under DATA_DIR.
func ForPath(path string) Store {
	if strings.HasPrefix(path, "s3://") {
		return &S3Store{}
	}
	return &DiskStore{}
}
