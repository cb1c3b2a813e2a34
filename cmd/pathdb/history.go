package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/maruel/pathdb/pathstore"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

var errNoHistory = errors.New("history is not enabled; use --history or PATHDB_HISTORY=1")

func (a *app) historyCmd() *cobra.Command {
	n := 20
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded revisions of the document, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.History {
				return errNoHistory
			}
			h, err := a.openHistory()
			if err != nil {
				return err
			}
			revs, err := h.History(cmd.Context(), filepath.Base(a.cfg.File), n)
			if err != nil {
				return err
			}
			for _, r := range revs {
				fmt.Fprintf(a.stdout, "%s %s %s %s\n", r.Hash[:12], r.Date.Format(time.RFC3339), r.Author, r.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", n, "Maximum number of revisions")
	return cmd
}

func (a *app) diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff [rev] [rev]",
		Short: "Show changes between revisions of the document",
		Long: `Show changes between two revisions of the document.

Without arguments the current document is compared to the last revision.
With one revision, that revision is compared to the current document.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.History {
				return errNoHistory
			}
			h, err := a.openHistory()
			if err != nil {
				return err
			}
			name := filepath.Base(a.cfg.File)
			from := "HEAD"
			if len(args) > 0 {
				from = args[0]
			}
			before, err := h.ReadAt(cmd.Context(), name, from)
			if err != nil {
				return err
			}
			var after []byte
			if len(args) > 1 {
				after, err = h.ReadAt(cmd.Context(), name, args[1])
			} else {
				after, err = h.ReadFile(name)
			}
			if err != nil {
				return err
			}
			b, err := normalize(before)
			if err != nil {
				return err
			}
			c, err := normalize(after)
			if err != nil {
				return err
			}
			colored := false
			if f, ok := a.stdout.(*os.File); ok {
				colored = isatty.IsTerminal(f.Fd())
			}
			_, err = fmt.Fprint(a.stdout, lineDiff(b, c, colored))
			return err
		},
	}
}

// normalize pretty prints a document so that diffs are line oriented.
func normalize(raw []byte) (string, error) {
	v, err := pathstore.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse revision: %w", err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", err
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

// lineDiff returns a unified style listing of from and to, each line prefixed
// with "+", "-" or " ". It is empty when both are equal.
func lineDiff(from, to string, colored bool) string {
	if from == to {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	if colored {
		add.EnableColor()
		del.EnableColor()
	} else {
		add.DisableColor()
		del.DisableColor()
	}
	var sb strings.Builder
	for _, d := range diffs {
		prefix, c := " ", (*color.Color)(nil)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, c = "+", add
		case diffmatchpatch.DiffDelete:
			prefix, c = "-", del
		}
		for line := range strings.Lines(d.Text) {
			line = prefix + strings.TrimSuffix(line, "\n")
			if c != nil {
				line = c.Sprint(line)
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
