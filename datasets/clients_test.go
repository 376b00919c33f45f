package datasets

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// TestMakeClientIDs_OnlyImmediateDirectories verifies that files at the root
// and directories nested inside clients are not reported as clients.
func TestMakeClientIDs_OnlyImmediateDirectories(t *testing.T) {
	root := t.TempDir()

	for _, dir := range []string{"client_b", "client_a", "client_c/0", "client_c/nested/deeper"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	writeFile(t, filepath.Join(root, "README.txt"), []byte("not a client"))
	writeFile(t, filepath.Join(root, "client_a", "notes.txt"), []byte("x"))

	ids, err := MakeClientIDs(root)
	if err != nil {
		t.Fatalf("MakeClientIDs failed: %v", err)
	}
	want := []string{"client_a", "client_b", "client_c"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("unexpected client ids: got %v want %v", ids, want)
	}
}

func TestMakeClientIDs_FollowsSymlinkedDirectories(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "real"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	ids, err := MakeClientIDs(root)
	if err != nil {
		t.Fatalf("MakeClientIDs failed: %v", err)
	}
	if want := []string{"linked", "real"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("unexpected client ids: got %v want %v", ids, want)
	}
}

func TestMakeClientIDs_EmptyRoot(t *testing.T) {
	ids, err := MakeClientIDs(t.TempDir())
	if err != nil {
		t.Fatalf("MakeClientIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no clients, got %v", ids)
	}
}

// TestMakeClientIDs_MissingRoot ensures a missing root is an error, not an
// empty list.
func TestMakeClientIDs_MissingRoot(t *testing.T) {
	ids, err := MakeClientIDs(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatalf("expected error for missing root, got ids %v", ids)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestMakeClientIDs_RootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	writeFile(t, path, []byte("x"))
	if _, err := MakeClientIDs(path); err == nil {
		t.Fatalf("expected error when root is a regular file")
	}
}

func TestLabelCounts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "c1", "0", "a.jpg"), []byte("a"))
	writeFile(t, filepath.Join(root, "c1", "0", "b.jpg"), []byte("b"))
	writeFile(t, filepath.Join(root, "c1", "4", "c.jpg"), []byte("c"))
	// Files directly in the client directory don't match <client>/*/*.
	writeFile(t, filepath.Join(root, "c1", "stray.jpg"), []byte("d"))

	counts, err := LabelCounts(root, "c1")
	if err != nil {
		t.Fatalf("LabelCounts failed: %v", err)
	}
	want := map[int64]int{0: 2, 4: 1}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("unexpected counts: got %v want %v", counts, want)
	}

	writeFile(t, filepath.Join(root, "c2", "bad", "a.jpg"), []byte("a"))
	if _, err := LabelCounts(root, "c2"); !errors.Is(err, ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
}

func TestClientFiles_SkipsNestedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "c", "1", "b.jpg"), []byte("b"))
	writeFile(t, filepath.Join(root, "c", "1", "a.jpg"), []byte("a"))
	writeFile(t, filepath.Join(root, "c", "1", "sub", "deep.jpg"), []byte("x"))
	writeFile(t, filepath.Join(root, "c", "0", "z.jpg"), []byte("z"))

	files, err := clientFiles(root, "c")
	if err != nil {
		t.Fatalf("clientFiles failed: %v", err)
	}
	want := []string{
		filepath.Join(root, "c", "0", "z.jpg"),
		filepath.Join(root, "c", "1", "a.jpg"),
		filepath.Join(root, "c", "1", "b.jpg"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("unexpected files:\n got %v\nwant %v", files, want)
	}
}
