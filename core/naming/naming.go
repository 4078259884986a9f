// Package naming replaces upload filenames with random ones.
package naming

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// stemLen is how many UUID characters follow the prefix.
const stemLen = 8

// Randomize returns prefix plus eight random hex characters, followed by
// the extension of name as uploaded.
func Randomize(name, prefix string) string {
	ext := filepath.Ext(name)
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + id[:stemLen] + ext
}

// RandomizePath applies Randomize to the base name of path and keeps the
// directory.
func RandomizePath(path, prefix string) string {
	return filepath.Join(filepath.Dir(path), Randomize(filepath.Base(path), prefix))
}
