package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssetsRoundTrip(t *testing.T) {
	data := ArchiveAssets([]Asset{
		{Filename: "result-001.png", MIME: "image/png", Data: []byte("first")},
		{Filename: "result-002.jpg", MIME: "image/jpeg", Data: []byte("second")},
	})
	if len(data) == 0 {
		t.Fatal("empty archive")
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entries = %d, want 2", len(zr.File))
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(content) != "first" {
		t.Fatalf("entry content = %q", content)
	}
}

func TestExtensionForMIME(t *testing.T) {
	if got := ExtensionForMIME("image/webp"); got != "webp" {
		t.Fatalf("webp ext = %q", got)
	}
	if got := ExtensionForMIME("application/octet-stream"); got != "bin" {
		t.Fatalf("fallback ext = %q", got)
	}
}
