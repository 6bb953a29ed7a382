package camera

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Config
		wantErr bool
	}{
		{
			name:  "single camera",
			input: "Reolink\tfront gate\t192.168.1.48\n",
			want: []Config{
				{Model: "Reolink", Name: "front gate", Address: "192.168.1.48"},
			},
		},
		{
			name: "multiple cameras preserve order",
			input: "Reolink\tfront gate\t192.168.1.48\n" +
				"Reolink\tback door\t192.168.1.49\n" +
				"Amcrest\tgarage\t192.168.1.50\n",
			want: []Config{
				{Model: "Reolink", Name: "front gate", Address: "192.168.1.48"},
				{Model: "Reolink", Name: "back door", Address: "192.168.1.49"},
				{Model: "Amcrest", Name: "garage", Address: "192.168.1.50"},
			},
		},
		{
			name: "blank lines and comments skipped",
			input: "# cameras at the house\n\n" +
				"Reolink\tfront gate\t192.168.1.48\n\n",
			want: []Config{
				{Model: "Reolink", Name: "front gate", Address: "192.168.1.48"},
			},
		},
		{
			name:  "extra fields ignored",
			input: "Reolink\tfront gate\t192.168.1.48\tnotes here\n",
			want: []Config{
				{Model: "Reolink", Name: "front gate", Address: "192.168.1.48"},
			},
		},
		{
			name:    "too few fields",
			input:   "Reolink\tfront gate\n",
			wantErr: true,
		},
		{
			name:    "space delimited rejected",
			input:   "Reolink front-gate 192.168.1.48\n",
			wantErr: true,
		},
		{
			name: "duplicate name rejected",
			input: "Reolink\tfront gate\t192.168.1.48\n" +
				"Amcrest\tfront gate\t192.168.1.50\n",
			wantErr: true,
		},
		{
			name: "sanitized name collision rejected",
			input: "Reolink\tfront gate\t192.168.1.48\n" +
				"Amcrest\tfront_gate\t192.168.1.50\n",
			wantErr: true,
		},
		{
			name:    "empty name rejected",
			input:   "Reolink\t\t192.168.1.48\n",
			wantErr: true,
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var cfgErr ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("expected ConfigError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d cameras, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("camera %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseDuplicateReportsLine(t *testing.T) {
	input := "Reolink\tgate\t192.168.1.48\n" +
		"Amcrest\tgarage\t192.168.1.50\n" +
		"Reolink\tgate\t192.168.1.51\n"

	_, err := Parse(strings.NewReader(input))
	var cfgErr ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Line != 3 {
		t.Errorf("Line = %d, want 3", cfgErr.Line)
	}
	if cfgErr.Name != "gate" {
		t.Errorf("Name = %q, want %q", cfgErr.Name, "gate")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cameras.tsv")
	content := "Reolink\tfront gate\t192.168.1.48\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cams, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cams) != 1 || cams[0].Name != "front gate" {
		t.Errorf("unexpected result: %+v", cams)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCheckUnique(t *testing.T) {
	ok := []Config{
		{Model: "Reolink", Name: "gate", Address: "a"},
		{Model: "Reolink", Name: "garage", Address: "b"},
	}
	if err := CheckUnique(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	dup := append(ok, Config{Model: "Amcrest", Name: "gate", Address: "c"})
	var cfgErr ConfigError
	if err := CheckUnique(dup); !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

// Distinct raw names that sanitize to the same string would produce
// identical log and output paths, so they are rejected too.
func TestCheckUniqueSanitizedCollision(t *testing.T) {
	cams := []Config{
		{Model: "Reolink", Name: "front gate", Address: "a"},
		{Model: "Amcrest", Name: "front_gate", Address: "b"},
	}

	err := CheckUnique(cams)
	var cfgErr ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if !strings.Contains(cfgErr.Message, "sanitization") {
		t.Errorf("message should name the collision cause: %q", cfgErr.Message)
	}
	if !strings.Contains(cfgErr.Message, "front gate") {
		t.Errorf("message should name the colliding camera: %q", cfgErr.Message)
	}
}

func TestParseSanitizedCollisionMessage(t *testing.T) {
	input := "Reolink\tfront gate\t192.168.1.48\n" +
		"Amcrest\tfront_gate\t192.168.1.50\n"

	_, err := Parse(strings.NewReader(input))
	var cfgErr ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Line != 2 {
		t.Errorf("Line = %d, want 2", cfgErr.Line)
	}
	if !strings.Contains(cfgErr.Message, "sanitization") {
		t.Errorf("message should name the collision cause: %q", cfgErr.Message)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"front gate", "front_gate"},
		{"garage", "garage"},
		{"a/b\\c", "a_b_c"},
		{"tab\there", "tab_here"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
