package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/leavex/mepsonx/internal/log"
	"github.com/leavex/mepsonx/internal/store"
)

// runSnapshots implements the "snapshots" subcommand.
func (a *app) runSnapshots(args []string) int {
	var (
		configPath string
		verbose    bool
		dbPath     string
	)
	fs := a.flagSet("snapshots", "Usage: mepsonx snapshots [flags]\n\n"+
		"List the snapshots stored in the database, newest first. Pass an\n"+
		"id to 'mepsonx rank --snapshot' to rank an older snapshot.\n", &configPath, &verbose)
	fs.StringVar(&dbPath, "db", "", "Snapshot database (default data.db)")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		return a.fail(errors.New("snapshots takes no arguments"))
	}

	logger := log.New(a.stderr, verbose)
	defer logger.Sync() //nolint:errcheck

	cfg, err := a.loadConfig(configPath, logger)
	if err != nil {
		return a.fail(err)
	}
	dbPath = firstNonEmpty(dbPath, cfg.Data.DB)
	if dbPath == "" {
		return a.fail(errors.New("snapshots needs --db or data.db"))
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return a.fail(err)
	}
	defer s.Close()

	sums, err := s.List(context.Background())
	if err != nil {
		return a.fail(err)
	}
	logger.Printf("found %d snapshots in %s", len(sums), dbPath)

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTAKEN\tRECORDS\tSOURCE")
	for _, sum := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			sum.ID, sum.Taken.UTC().Format(time.RFC3339), sum.Records, sum.Source)
	}
	if err := tw.Flush(); err != nil {
		return a.fail(err)
	}
	return exitOK
}
