package storage

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryStorageSave(t *testing.T) {
	store := NewMemoryStorage("http://localhost:8080/media/")

	url, err := store.Save(context.Background(), Object{Key: "/avatars/u1/a.png", Body: strings.NewReader("png")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "http://localhost:8080/media/avatars/u1/a.png" {
		t.Fatalf("unexpected url %q", url)
	}
	if !store.Has("avatars/u1/a.png") {
		t.Fatal("expected object to be stored")
	}

	if _, err := store.Save(context.Background(), Object{Key: "", Body: strings.NewReader("")}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestNewKey(t *testing.T) {
	key := NewKey("covers", "user-1", "Holiday.JPG")
	if !strings.HasPrefix(key, "covers/user-1/") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("unexpected key %q", key)
	}
	if NewKey("covers", "user-1", "Holiday.JPG") == key {
		t.Fatal("expected unique keys")
	}
}
