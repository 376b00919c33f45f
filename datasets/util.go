package datasets

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LabelFromPath returns the class label of an image: its parent directory
// name parsed as a base-10 integer. The returned error wraps ErrInvalidLabel
// if the directory name is not a number.
func LabelFromPath(path string) (int64, error) {
	parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
	if len(parts) < 2 {
		return 0, errors.Wrapf(ErrInvalidLabel, "path %q has no parent directory", path)
	}
	segment := parts[len(parts)-2]
	label, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidLabel, "%q in %s", segment, path)
	}
	return label, nil
}
