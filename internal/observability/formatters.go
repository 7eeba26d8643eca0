// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/aman/scriptline/internal/queue"
	"github.com/aman/scriptline/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBatches outputs a human-readable table of batch records.
func (p *Printer) PrintBatches(batches []types.BatchRecord) {
	if len(batches) == 0 {
		p.printBox("BATCHES", "No batches recorded yet.")
		return
	}

	var sb strings.Builder
	count := min(len(batches), maxItemsToShow)
	for i := 0; i < count; i++ {
		b := batches[i]
		sb.WriteString(fmt.Sprintf("%s  %s/%s\n", shortID(b.ID), b.Username, b.ChannelCode))
		sb.WriteString(fmt.Sprintf("  %s  %d requested, %d done, %d failed\n",
			b.Status, b.Requested, b.Processed, b.Failed))
		sb.WriteString(fmt.Sprintf("  started %s\n", b.StartedAt.Format("2006-01-02 15:04")))
	}
	if len(batches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(batches)-maxItemsToShow))
	}

	p.printBox("BATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBatchResult outputs the outcome of one finished batch.
func (p *Printer) PrintBatchResult(channelCode string, processed, skipped, failed int) {
	content := fmt.Sprintf("Channel:   %s\nProcessed: %d\nSkipped:   %d\nFailed:    %d",
		channelCode, processed, skipped, failed)
	p.printBox("BATCH RESULT", content)
}

// PrintQueueStats outputs the queue host's aggregate counters.
func (p *Printer) PrintQueueStats(stats *queue.Stats) {
	if stats == nil {
		return
	}
	content := fmt.Sprintf("Queued:     %d\nProcessing: %d\nCompleted:  %d\nFailed:     %d",
		stats.Queued, stats.Processing, stats.Completed, stats.Failed)
	p.printBox("QUEUE STATS", content)
}

// shortID truncates a UUID-length identifier for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
