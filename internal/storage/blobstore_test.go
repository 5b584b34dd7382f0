package storage

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestPutOpenDelete(t *testing.T) {
	t.Parallel()

	store, err := NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key := NewKey(".JPG")
	if !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("key = %q, want .jpg suffix", key)
	}

	n, err := store.Put(key, strings.NewReader("photo-bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if n != int64(len("photo-bytes")) {
		t.Fatalf("written = %d", n)
	}

	f, err := store.Open(key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "photo-bytes" {
		t.Fatalf("data = %q", data)
	}

	if err := store.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(key); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("open after delete err = %v", err)
	}
	if err := store.Delete(key); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	t.Parallel()

	store, err := NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", "ab", "../etc/passwd", `a\b\c`, "ab..cd"} {
		if _, err := store.Put(key, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("Put(%q) err = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestNewKeyDropsOddExtensions(t *testing.T) {
	t.Parallel()

	if key := NewKey("png"); !strings.HasSuffix(key, ".png") {
		t.Fatalf("key = %q", key)
	}
	if key := NewKey("/../../x"); strings.Contains(key, "/") {
		t.Fatalf("key = %q", key)
	}
}
