package datasets

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// MakeClientIDs returns the names of the immediate subdirectories of
// clientsDir, sorted. Each name identifies one client. Files are skipped and
// nested directories are not visited.
//
// It fails if clientsDir does not exist or can't be read; the returned error
// wraps the underlying fs error (e.g. fs.ErrNotExist).
func MakeClientIDs(clientsDir string) ([]string, error) {
	entries, err := os.ReadDir(clientsDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list clients in %s", clientsDir)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if isDir(clientsDir, entry) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	klog.V(1).Infof("found %d clients in %s", len(ids), clientsDir)
	return ids, nil
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(parent string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

// clientFiles lists every non-directory entry exactly two levels below the
// client directory, i.e. the files matching <clientsDir>/<clientID>/*/*, in
// lexicographic order.
func clientFiles(clientsDir, clientID string) ([]string, error) {
	clientDir := filepath.Join(clientsDir, clientID)
	classes, err := os.ReadDir(clientDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list client %q", clientID)
	}

	var files []string
	for _, class := range classes {
		if !isDir(clientDir, class) {
			continue
		}
		classDir := filepath.Join(clientDir, class.Name())
		entries, err := os.ReadDir(classDir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list %s", classDir)
		}
		for _, entry := range entries {
			if isDir(classDir, entry) {
				continue
			}
			files = append(files, filepath.Join(classDir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrNoFiles, "matching %s", filepath.Join(clientDir, "*", "*"))
	}
	return files, nil
}

// LabelCounts returns how many image files of a client fall in each label.
// Only paths are inspected; no image is read.
func LabelCounts(clientsDir, clientID string) (map[int64]int, error) {
	files, err := clientFiles(clientsDir, clientID)
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int)
	for _, path := range files {
		label, err := LabelFromPath(path)
		if err != nil {
			return nil, err
		}
		counts[label]++
	}
	return counts, nil
}
