package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

// DefaultFormat picks the analyze output format: a table for interactive
// terminals, JSON when output is piped.
func DefaultFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return "table"
	}
	return "json"
}

// FormatAnalysis renders an analysis result as table, text, or JSON.
func FormatAnalysis(result *AnalysisResult, format string) (string, error) {
	switch format {
	case "table":
		return formatAnalysisTable(result), nil
	case "text":
		return formatAnalysisText(result), nil
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling JSON: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, text, or json)", format)
	}
}

func formatAnalysisTable(result *AnalysisResult) string {
	var sb strings.Builder
	table := tablewriter.NewTable(&sb)
	table.Header([]string{"#", "Type", "Subject", "Issuer", "Not After", "Self-Signed"})

	var rows [][]string
	for _, entry := range result.Certificates {
		if entry.Error != "" {
			rows = append(rows, []string{
				fmt.Sprintf("%d", entry.Index), "error", entry.Error, "", "", "",
			})
			continue
		}
		info := entry.Info
		selfSigned := "no"
		if info.SelfSigned {
			selfSigned = "yes"
			if entry.Trusted != nil && *entry.Trusted {
				selfSigned = "yes (Mozilla-trusted)"
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", entry.Index),
			info.Type,
			info.Subject,
			info.Issuer,
			info.NotAfter.Format("2006-01-02"),
			selfSigned,
		})
	}
	table.Bulk(rows)
	table.Render()
	return sb.String()
}

func formatAnalysisText(result *AnalysisResult) string {
	var sb strings.Builder
	for i, entry := range result.Certificates {
		if i > 0 {
			sb.WriteString("\n")
		}
		if entry.Error != "" {
			fmt.Fprintf(&sb, "Certificate %d:\n", entry.Index)
			fmt.Fprintf(&sb, "  Error:       %s\n", entry.Error)
			continue
		}
		info := entry.Info
		fmt.Fprintf(&sb, "Certificate %d (%s):\n", entry.Index, info.Type)
		fmt.Fprintf(&sb, "  Subject:     %s\n", info.Subject)
		fmt.Fprintf(&sb, "  Issuer:      %s\n", info.Issuer)
		fmt.Fprintf(&sb, "  Not Before:  %s\n", info.NotBefore.Format(time.RFC3339))
		fmt.Fprintf(&sb, "  Not After:   %s\n", info.NotAfter.Format(time.RFC3339))
		fmt.Fprintf(&sb, "  Self-Signed: %v\n", info.SelfSigned)
		fmt.Fprintf(&sb, "  SHA-256:     %s\n", info.Fingerprint)
		if entry.Trusted != nil {
			fmt.Fprintf(&sb, "  Mozilla:     trusted=%v\n", *entry.Trusted)
		}
	}
	return sb.String()
}
