package storage

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "https://prep.example.com/")
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.Put("images/physics/q1.png", strings.NewReader("png-bytes"))
	if err != nil || key != "images/physics/q1.png" {
		t.Fatalf("Put: %q %v", key, err)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "png-bytes" {
		t.Fatalf("got %q", b)
	}
	if u := s.URL(key); u != "https://prep.example.com/assets/images/physics/q1.png" {
		t.Fatalf("url %s", u)
	}
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"../etc/passwd", "a/../../b", "", "a/./b", `..\x`} {
		if _, err := s.Put(key, strings.NewReader("x")); !errors.Is(err, ErrBadKey) {
			t.Fatalf("Put(%q) err %v", key, err)
		}
	}
	if _, err := s.Get("../x"); !errors.Is(err, ErrBadKey) {
		t.Fatalf("Get traversal err %v", err)
	}
}
