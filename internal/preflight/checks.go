// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// RunAll executes all preflight checks for a run of the given size.
func RunAll(cameras int, recorderPath, baseDir string) *Result {
	result := &Result{
		Checks: make([]Check, 0, 3),
		Passed: true,
	}

	fdCheck := checkFileDescriptors(cameras)
	result.Checks = append(result.Checks, fdCheck)
	if !fdCheck.Passed {
		result.Passed = false
	}

	recCheck := checkRecorder(recorderPath)
	result.Checks = append(result.Checks, recCheck)
	if !recCheck.Passed {
		result.Passed = false
	}

	dirCheck := checkBaseDir(baseDir)
	result.Checks = append(result.Checks, dirCheck)
	if !dirCheck.Passed {
		result.Passed = false
	}

	return result
}

// checkFileDescriptors verifies sufficient file descriptors are available.
func checkFileDescriptors(cameras int) Check {
	var limit syscall.Rlimit
	syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit)

	// Each recorder needs ~10 FDs (socket, output, logs), plus
	// launcher overhead (metrics server, logging).
	required := cameras*10 + 64
	actual := int(limit.Cur)

	return Check{
		Name:     "file_descriptors",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -n %d (need %d for %d cameras)", actual, required, cameras),
	}
}

// checkRecorder verifies the recording binary is available and working.
func checkRecorder(path string) Check {
	cmd := exec.Command(path, "-version")
	output, err := cmd.Output()

	if err != nil {
		return Check{
			Name:    "recorder",
			Passed:  false,
			Message: fmt.Sprintf("not found at %s: %v", path, err),
		}
	}

	// Extract version from first line: "ffmpeg version 6.1 Copyright ..."
	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		parts := strings.Fields(lines[0])
		if len(parts) >= 3 {
			version = parts[2]
		}
	}

	return Check{
		Name:    "recorder",
		Passed:  true,
		Message: fmt.Sprintf("found at %s (version %s)", path, version),
	}
}

// checkBaseDir verifies the recording base directory is writable.
func checkBaseDir(baseDir string) Check {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return Check{
			Name:    "base_dir",
			Passed:  false,
			Message: fmt.Sprintf("cannot create %s: %v", baseDir, err),
		}
	}

	probe, err := os.CreateTemp(baseDir, ".preflight-*")
	if err != nil {
		return Check{
			Name:    "base_dir",
			Passed:  false,
			Message: fmt.Sprintf("not writable: %v", err),
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	abs, _ := filepath.Abs(baseDir)
	return Check{
		Name:    "base_dir",
		Passed:  true,
		Message: fmt.Sprintf("writable at %s", abs),
	}
}

// PrintResults prints the preflight check results to stdout.
func PrintResults(result *Result) {
	fmt.Println("Preflight checks:")
	for _, check := range result.Checks {
		fmt.Println(check.String())
		if !check.Passed {
			fmt.Printf("    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Println()
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "file_descriptors":
		return "ulimit -n 4096 (or edit /etc/security/limits.conf)"
	case "recorder":
		return "install ffmpeg (apt install ffmpeg / brew install ffmpeg)"
	case "base_dir":
		return "choose a writable -base-dir or fix permissions"
	default:
		return "see documentation"
	}
}
