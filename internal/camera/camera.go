// Package camera defines camera configuration records and their loader.
package camera

import "strings"

// Config describes a single camera to record from.
// Records are immutable once loaded; Name must be unique within a run
// because output and log paths are derived from it.
type Config struct {
	Model   string `yaml:"model"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// SanitizeName returns the camera name with whitespace and path
// separators replaced by underscores, safe for use in file names.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ', r == '\t', r == '\n', r == '\r':
			return '_'
		case r == '/', r == '\\':
			return '_'
		}
		return r
	}, name)
}
