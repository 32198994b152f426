package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchiveRoundTripsEntries(t *testing.T) {
	modified := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	data, err := Archive([]Entry{
		{Name: "original.png", Data: []byte("before"), Modified: modified, Store: true},
		{Name: "catalog.json", Data: []byte(`{"plants":[]}`), Modified: modified},
	})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 files, got %d", len(zr.File))
	}
	if zr.File[0].Name != "original.png" || zr.File[0].Method != zip.Store {
		t.Fatalf("unexpected first entry %s method %d", zr.File[0].Name, zr.File[0].Method)
	}
	if zr.File[1].Method != zip.Deflate {
		t.Fatalf("catalog should be deflated, got method %d", zr.File[1].Method)
	}

	rc, err := zr.File[1].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `{"plants":[]}` {
		t.Fatalf("unexpected catalog body %q", body)
	}
}

func TestArchiveEmpty(t *testing.T) {
	data, err := Archive(nil)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("expected no files, got %d", len(zr.File))
	}
}
