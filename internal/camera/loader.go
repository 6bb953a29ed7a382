package camera

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConfigError describes a rejected camera row. The whole batch is
// rejected: a bad row means the operator's list needs fixing before
// anything records.
type ConfigError struct {
	Line    int
	Name    string
	Message string
}

func (e ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("camera list line %d (%q): %s", e.Line, e.Name, e.Message)
	}
	return fmt.Sprintf("camera list line %d: %s", e.Line, e.Message)
}

// Parse reads a tab-delimited camera list: one camera per line,
// fields model, name, address. Blank lines and lines starting with
// '#' are skipped. Returns a ConfigError if a row has fewer than
// three fields or a name repeats within the batch. Names are compared
// after sanitization, because file paths are derived from sanitized
// names and must stay disjoint.
func Parse(r io.Reader) ([]Config, error) {
	var cams []Config

	type seenEntry struct {
		line int
		name string
	}
	seen := make(map[string]seenEntry)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, ConfigError{
				Line:    lineNo,
				Message: fmt.Sprintf("expected 3 tab-delimited fields (model, name, address), got %d", len(fields)),
			}
		}

		cam := Config{
			Model:   strings.TrimSpace(fields[0]),
			Name:    strings.TrimSpace(fields[1]),
			Address: strings.TrimSpace(fields[2]),
		}
		if cam.Name == "" {
			return nil, ConfigError{Line: lineNo, Message: "camera name must not be empty"}
		}
		key := SanitizeName(cam.Name)
		if prev, dup := seen[key]; dup {
			msg := fmt.Sprintf("duplicate camera name (first seen on line %d)", prev.line)
			if prev.name != cam.Name {
				msg = fmt.Sprintf("camera name collides with %q after sanitization (line %d)", prev.name, prev.line)
			}
			return nil, ConfigError{
				Line:    lineNo,
				Name:    cam.Name,
				Message: msg,
			}
		}
		seen[key] = seenEntry{line: lineNo, name: cam.Name}
		cams = append(cams, cam)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading camera list: %w", err)
	}

	return cams, nil
}

// LoadFile parses a tab-delimited camera list from a file.
func LoadFile(path string) ([]Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening camera list: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// CheckUnique verifies that no two configs share a name, comparing
// sanitized names so derived file paths stay disjoint. The loader
// already enforces this for a single file; this guards merged batches
// (file plus config-file cameras).
func CheckUnique(cams []Config) error {
	seen := make(map[string]int, len(cams))
	for i, cam := range cams {
		key := SanitizeName(cam.Name)
		if prev, dup := seen[key]; dup {
			msg := fmt.Sprintf("duplicate camera name (also entry %d)", prev+1)
			if cams[prev].Name != cam.Name {
				msg = fmt.Sprintf("camera name collides with %q after sanitization (entry %d)", cams[prev].Name, prev+1)
			}
			return ConfigError{
				Line:    i + 1,
				Name:    cam.Name,
				Message: msg,
			}
		}
		seen[key] = i
	}
	return nil
}
