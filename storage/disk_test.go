package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.parquet")

	ds := &DiskStore{}
	if err := ds.Write(context.Background(), path, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	b, err := ds.Read(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" {
		t.Fatalf("read back %q", b)
	}
}

func TestDiskWriteLeavesNoTempOnSuccess(t *testing.T) {
	dir := t.TempDir()
	ds := &DiskStore{}
	if err := ds.Write(context.Background(), filepath.Join(dir, "a"), []byte("x")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestForPath(t *testing.T) {
	if _, ok := ForPath("s3://bucket/key.parquet").(*S3Store); !ok {
		t.Fatal("s3 path should pick S3Store")
	}
	if _, ok := ForPath("local/key.parquet").(*DiskStore); !ok {
		t.Fatal("bare path should pick DiskStore")
	}
}
