package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/newsdigest/history"
)

// printHistoryTable prints records in human-readable table format
func printHistoryTable(records []history.Record, offset int) {
	if len(records) == 0 {
		fmt.Println("No digests to display.")
		return
	}

	fmt.Printf("Showing %d-%d\n\n", offset+1, offset+len(records))

	for _, record := range records {
		headline := "(no headline)"
		if record.Digest != nil && record.Digest.Headline != "" {
			headline = truncate(record.Digest.Headline, 70)
		}

		fmt.Printf("%s\n", headline)
		fmt.Printf("   %s | %d articles | %s\n",
			record.CreatedAt.Local().Format("2006-01-02 15:04"),
			record.ArticleCount,
			record.Style,
		)
		fmt.Printf("   Source: %s\n", record.SourceURL)
		fmt.Printf("   ID: %s\n", record.ID.String())
		fmt.Println()
	}
}

// printHistoryCompact prints one line per record
func printHistoryCompact(records []history.Record) {
	for _, record := range records {
		headline := ""
		if record.Digest != nil {
			headline = record.Digest.Headline
		}
		fmt.Printf("%s  %s  %s\n", record.ID.String()[:8], record.CreatedAt.Local().Format("2006-01-02"), truncate(headline, 60))
	}
}

// marshalJSON renders v as indented JSON
func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// writeOutput writes text to path, or to stdout when path is empty
func writeOutput(path, text string) error {
	if path == "" {
		_, err := fmt.Print(text)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// truncate shortens s to at most n runes for display
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
