//nolint:dogsled
package test

import (
	"path/filepath"
	"runtime"
)

// ProjectRootPath returns the absolute path of the module root, whatever the working directory
// of the running test is.
func ProjectRootPath() string {
	_, filename, _, _ := runtime.Caller(0)

	return filepath.Join(filepath.Dir(filename), "..")
}

// ResourcePath resolves a path relative to the module root, e.g. ResourcePath("config", "property.yaml").
func ResourcePath(elem ...string) string {
	return filepath.Join(append([]string{ProjectRootPath()}, elem...)...)
}
