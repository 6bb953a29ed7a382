package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FormatSummary renders the run report for display at program exit.
func FormatSummary(r *RunReport) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════\n")
	b.WriteString("                       retina-record Run Summary\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(&b, "Run Directory:          %s\n", r.RunDir)
	fmt.Fprintf(&b, "Run Duration:           %s\n", FormatDuration(r.Duration))
	fmt.Fprintf(&b, "Cameras:                %d (%d with errors)\n", len(r.Cameras), r.Failed())
	b.WriteString("\n")

	if len(r.Cameras) > 0 {
		fmt.Fprintf(&b, "  %-20s %-12s %8s %8s\n", "Camera", "Final State", "Exit", "Restarts")
		b.WriteString("  " + strings.Repeat("─", 52) + "\n")
		for _, c := range r.Cameras {
			exit := "-"
			if c.ExitCode >= 0 {
				exit = fmt.Sprintf("%d", c.ExitCode)
			}
			fmt.Fprintf(&b, "  %-20s %-12s %8s %8d\n", c.Name, c.FinalState, exit, c.Restarts)
			if c.Err != "" {
				fmt.Fprintf(&b, "      error: %s\n", c.Err)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("Lifecycle:\n")
	fmt.Fprintf(&b, "  Total Starts:         %d\n", r.TotalStarts)
	fmt.Fprintf(&b, "  Total Restarts:       %d\n", r.TotalRestarts)
	b.WriteString("\n")

	if r.UptimeP50 > 0 || r.UptimeP95 > 0 {
		b.WriteString("Uptime Distribution:\n")
		fmt.Fprintf(&b, "  P50 (median):         %s\n", FormatDuration(r.UptimeP50))
		fmt.Fprintf(&b, "  P95:                  %s\n", FormatDuration(r.UptimeP95))
		fmt.Fprintf(&b, "  P99:                  %s\n", FormatDuration(r.UptimeP99))
		b.WriteString("\n")
	}

	if len(r.ExitCodes) > 0 {
		b.WriteString("Exit Codes:\n")
		codes := make([]int, 0, len(r.ExitCodes))
		for code := range r.ExitCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(&b, "  %3d %-16s %d\n", code, ExitCodeLabel(code), r.ExitCodes[code])
		}
		b.WriteString("\n")
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════\n")
	return b.String()
}

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ExitCodeLabel returns a human-readable label for common exit codes.
func ExitCodeLabel(code int) string {
	switch code {
	case 0:
		return "(clean)"
	case 1:
		return "(error)"
	case 137:
		return "(SIGKILL)"
	case 143:
		return "(SIGTERM)"
	default:
		return ""
	}
}
