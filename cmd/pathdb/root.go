package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/maruel/pathdb/internal/config"
	"github.com/maruel/pathdb/pathstore"
	"github.com/spf13/cobra"
)

// app holds the state shared by the subcommands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	flags config.Config
	cfg   *config.Config
	log   *slog.Logger

	history *pathstore.HistoryStorage
	closers []func() error
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, getenv: getenv, flags: config.Default()}
	root := &cobra.Command{
		Use:   "pathdb",
		Short: "Read and edit a JSON document by dot paths",
		Long: `pathdb reads and edits a JSON document addressed by dot paths.

A path is a dot separated list of object keys and array indexes, e.g.
"user.hobbies.0". The empty path "" is the whole document. Values given on
the command line are parsed as JSON and fall back to a plain string.

Exit status is 2 when a path does not exist and 1 on other errors.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.File, "file", "f", a.flags.File, "JSON document to operate on")
	pf.StringVar(&a.flags.LogLevel, "log-level", a.flags.LogLevel, "Log level (debug, info, warn, error)")
	pf.StringVarP(&a.flags.Format, "format", "o", a.flags.Format, "Output format (json, yaml)")
	pf.StringVar(&a.flags.Indent, "indent", a.flags.Indent, "Indent used when writing the document; compact when empty")
	pf.BoolVar(&a.flags.History, "history", a.flags.History, "Commit every write to a git repository in the document directory")
	pf.StringVar(&a.flags.AuthorName, "author", a.flags.AuthorName, "Commit author name with --history")
	pf.StringVar(&a.flags.AuthorEmail, "email", a.flags.AuthorEmail, "Commit author email with --history")
	pf.StringVar(&a.flags.SQLite, "sqlite", a.flags.SQLite, "Keep the document in this SQLite database")

	root.AddCommand(
		a.getCmd(), a.hasCmd(), a.setCmd(), a.replaceCmd(), a.putCmd(), a.defaultCmd(),
		a.deleteCmd(), a.removeCmd(), a.queryCmd(), a.pushCmd(), a.toggleCmd(),
		a.mergeCmd(), a.patchCmd(), a.historyCmd(), a.diffCmd(),
		a.configSchemaCmd(), a.versionCmd(),
	)
	return root
}

// setup resolves the configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(".", a.getenv)
	if err != nil {
		return err
	}
	// Explicit flags win over the environment.
	flags := cmd.Flags()
	for name, apply := range map[string]func(){
		"file":      func() { cfg.File = a.flags.File },
		"log-level": func() { cfg.LogLevel = a.flags.LogLevel },
		"format":    func() { cfg.Format = a.flags.Format },
		"indent":    func() { cfg.Indent = a.flags.Indent },
		"history":   func() { cfg.History = a.flags.History },
		"author":    func() { cfg.AuthorName = a.flags.AuthorName },
		"email":     func() { cfg.AuthorEmail = a.flags.AuthorEmail },
		"sqlite":    func() { cfg.SQLite = a.flags.SQLite },
	} {
		if flags.Changed(name) {
			apply()
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level()
	ll := &slog.LevelVar{}
	ll.Set(level)
	a.log = newLogger(a.stderr, ll)
	a.cfg = cfg
	return nil
}

// open opens the document with the configured storage.
func (a *app) open() (*pathstore.Store, error) {
	name := a.cfg.File
	opts := []pathstore.Option{pathstore.WithLogger(a.log), pathstore.WithIndent(a.cfg.Indent)}
	switch {
	case a.cfg.SQLite != "":
		db, err := pathstore.OpenSQLiteStorage(a.cfg.SQLite)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		opts = append(opts, pathstore.WithStorage(db))
	case a.cfg.History:
		h, err := a.openHistory()
		if err != nil {
			return nil, err
		}
		name = filepath.Base(name)
		opts = append(opts, pathstore.WithStorage(h))
	}
	s, err := pathstore.Open(name, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// withStore wraps fn into a cobra RunE that opens the document first and
// releases the storage afterward.
func (a *app) withStore(fn func(cmd *cobra.Command, s *pathstore.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := a.open()
		if err != nil {
			_ = a.close()
			return err
		}
		err = fn(cmd, s, args)
		if cerr := a.close(); cerr != nil && err == nil {
			err = cerr
		}
		return err
	}
}

func (a *app) openHistory() (*pathstore.HistoryStorage, error) {
	if a.history == nil {
		h, err := pathstore.NewHistoryStorage(a.cfg.Dir(), a.cfg.AuthorName, a.cfg.AuthorEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		a.history = h
	}
	return a.history, nil
}

func (a *app) close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
