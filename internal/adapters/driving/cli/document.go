package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect DOCUMENT",
	Short: "Summarise a converted document",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if readDocument == nil {
		return errors.New("document reader not configured")
	}
	doc, err := readDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	printDocument(cmd, doc)
	return nil
}

// printDocument writes a summary of doc. Descriptions are cut to the terminal
// width when stdout is a terminal.
func printDocument(cmd *cobra.Command, doc *domain.Document) {
	if doc == nil {
		cmd.Println("(no document)")
		return
	}
	width := terminalWidth()

	s := doc.Session
	cmd.Printf("Session %s\n", s.Identifier)
	cmd.Printf("  Description: %s\n", truncate(s.Description, width-15))
	if s.StartTime != "" {
		cmd.Printf("  Start time:  %s\n", s.StartTime)
	}
	if id, ok := s.Subject["subject_id"]; ok {
		cmd.Printf("  Subject:     %v\n", id)
	}

	if len(doc.Devices) > 0 {
		cmd.Println("Devices:")
		for _, name := range sortedKeys(doc.Devices) {
			d := doc.Devices[name]
			cmd.Printf("  %s  %s\n", name, truncate(d.Description, width-len(name)-4))
		}
	}

	if len(doc.Acquisition) > 0 {
		cmd.Println("Acquisition:")
		for _, name := range sortedKeys(doc.Acquisition) {
			printSeries(cmd, "  ", doc.Acquisition[name])
		}
	}

	for _, name := range sortedKeys(doc.Processing) {
		m := doc.Processing[name]
		cmd.Printf("Processing module %s: %s\n", name, truncate(m.Description, width-20-len(name)))
		for _, ts := range sortedKeys(m.TimeSeries) {
			printSeries(cmd, "  ", m.TimeSeries[ts])
		}
	}

	if len(doc.Intervals) > 0 {
		cmd.Println("Time intervals:")
		for _, name := range sortedKeys(doc.Intervals) {
			t := doc.Intervals[name]
			cmd.Printf("  %s  %s rows x %d columns\n", name, humanize.Comma(int64(t.NumRows())), len(t.Columns))
		}
	}
}

func printSeries(cmd *cobra.Command, indent string, ts domain.TimeSeries) {
	frames := ts.NumFrames()
	cmd.Printf("%s%s  %d ch x %s frames @ %s Hz (%.3f s from %.3f s), %s\n",
		indent, ts.Name, ts.NumChannels, humanize.Comma(int64(frames)),
		humanize.FormatFloat("#,###.##", ts.Rate), float64(frames)/ts.Rate, ts.StartingTime,
		humanize.Bytes(uint64(len(ts.Data)*2)))
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// truncate shortens s to width runes. A non-positive width disables it.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
