package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/leavex/mepsonx/internal/config"
	"github.com/leavex/mepsonx/internal/log"
	"github.com/leavex/mepsonx/internal/mep"
	"github.com/leavex/mepsonx/internal/output"
	"github.com/leavex/mepsonx/internal/ranking"
	"github.com/leavex/mepsonx/internal/report"
	"github.com/leavex/mepsonx/internal/scrape"
	"github.com/leavex/mepsonx/internal/store"
)

// reportTitle is the title recorded in report front matter.
const reportTitle = "MEPs on X"

// now is replaced in tests.
var now = time.Now

// runScrape implements the "scrape" subcommand.
func (a *app) runScrape(args []string) int {
	var (
		configPath string
		verbose    bool
		onlyWithX  bool
		csvPath    string
		jsonPath   string
		dbPath     string
	)
	fs := a.flagSet("scrape", "Usage: mepsonx scrape [flags]\n\n"+
		"Fetch every MEP profile from the European Parliament website and\n"+
		"write them as CSV, and optionally as JSON records and a snapshot.\n", &configPath, &verbose)
	fs.BoolVar(&onlyWithX, "only-with-x", false, "Keep only MEPs with an X account")
	fs.StringVarP(&csvPath, "output", "o", "", "CSV output path (default data.csv)")
	fs.StringVar(&jsonPath, "json", "", "Also write the records as JSON to this path")
	fs.StringVar(&dbPath, "db", "", "Also save a snapshot to this SQLite database (default data.db)")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		return a.fail(errors.New("scrape takes no arguments"))
	}

	logger := log.New(a.stderr, verbose)
	defer logger.Sync() //nolint:errcheck

	cfg, err := a.loadConfig(configPath, logger)
	if err != nil {
		return a.fail(err)
	}
	if csvPath == "" {
		csvPath = cfg.Data.CSV
	}
	if dbPath == "" && fs.Changed("db") {
		return a.fail(errors.New("--db needs a path"))
	}
	if dbPath == "" {
		dbPath = cfg.Data.DB
	}

	client, err := scrape.New(scrape.Options{
		BaseURL:     cfg.Scrape.BaseURL,
		UserAgent:   cfg.Scrape.UserAgent,
		Delay:       cfg.Scrape.Delay,
		Timeout:     cfg.Scrape.Timeout,
		Concurrency: cfg.Scrape.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		return a.fail(err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	profiles, err := client.ScrapeAll(ctx, onlyWithX)
	if err != nil {
		return a.fail(err)
	}
	if len(profiles) == 0 {
		logger.Warnf("no profiles scraped, nothing written")
		return exitOK
	}

	if err := writeFile(csvPath, func(w io.Writer) error {
		return scrape.WriteCSV(w, profiles, cfg.Scrape.Delimiter)
	}); err != nil {
		return a.fail(err)
	}
	logger.Infof("wrote %d profiles to %s", len(profiles), csvPath)

	records := scrape.Records(profiles)
	if jsonPath != "" {
		if err := mep.WriteRecords(jsonPath, records); err != nil {
			return a.fail(err)
		}
		logger.Infof("wrote %d records to %s", len(records), jsonPath)
	}

	if dbPath != "" {
		id, err := saveSnapshot(ctx, dbPath, client.ListURL(), records)
		if err != nil {
			return a.fail(err)
		}
		logger.Infof("saved snapshot %s to %s", id, dbPath)
	}
	return exitOK
}

func saveSnapshot(ctx context.Context, dbPath, source string, records []mep.Record) (string, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.Save(ctx, store.Snapshot{Taken: now(), Source: source, Records: records})
}

// runMerge implements the "merge" subcommand.
func (a *app) runMerge(args []string) int {
	var (
		configPath    string
		verbose       bool
		basePath      string
		overridesPath string
		outPath       string
	)
	fs := a.flagSet("merge", "Usage: mepsonx merge [flags]\n\n"+
		"Apply manual overrides, a JSON object keyed by MEP id, to the\n"+
		"scraped records and write the merged list.\n", &configPath, &verbose)
	fs.StringVar(&basePath, "base", "", "Base records (default data.base)")
	fs.StringVar(&overridesPath, "overrides", "", "Overrides file (default data.overrides)")
	fs.StringVarP(&outPath, "output", "o", "", "Merged output (default data.merged)")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		return a.fail(errors.New("merge takes no arguments"))
	}

	logger := log.New(a.stderr, verbose)
	defer logger.Sync() //nolint:errcheck

	cfg, err := a.loadConfig(configPath, logger)
	if err != nil {
		return a.fail(err)
	}
	basePath = firstNonEmpty(basePath, cfg.Data.Base)
	overridesPath = firstNonEmpty(overridesPath, cfg.Data.Overrides)
	outPath = firstNonEmpty(outPath, cfg.Data.Merged)

	base, err := mep.LoadRecords(basePath)
	if err != nil {
		return a.fail(err)
	}
	overrides, err := mep.LoadOverrides(overridesPath)
	if err != nil {
		return a.fail(err)
	}
	logger.Infof("loaded %d records from %s and %d overrides from %s",
		len(base), basePath, len(overrides), overridesPath)

	merged, stats := mep.ApplyOverrides(base, overrides, logger)
	if err := mep.WriteRecords(outPath, merged); err != nil {
		return a.fail(err)
	}
	logger.Infof("applied %d, created %d, skipped %d; wrote %d records to %s",
		stats.Applied, stats.Created, stats.Skipped, len(merged), outPath)
	return exitOK
}

// runRank implements the "rank" subcommand.
func (a *app) runRank(args []string) int {
	var (
		configPath   string
		verbose      bool
		dataPath     string
		dbPath       string
		snapshotID   string
		counts       bool
		groups       []string
		format       string
		outPath      string
		noProvenance bool
	)
	fs := a.flagSet("rank", "Usage: mepsonx rank [flags]\n\n"+
		"Rank countries and EU groups by their MEPs on X and write the\n"+
		"tables as a Markdown report (or JSON).\n", &configPath, &verbose)
	fs.StringVar(&dataPath, "data", "", "Merged records (default data.merged)")
	fs.StringVar(&dbPath, "db", "", "Rank a snapshot from this SQLite database instead")
	fs.StringVar(&snapshotID, "snapshot", "", "Snapshot id (default the latest)")
	fs.BoolVar(&counts, "counts", false, "Rank by MEPs on X instead of share")
	fs.StringSliceVar(&groups, "group", nil, "Grouping: country, eu-group, party (repeatable)")
	fs.StringVarP(&format, "format", "f", "markdown", "Output format: markdown, json")
	fs.StringVarP(&outPath, "output", "o", "", "Output path (default data.report, else stdout)")
	fs.BoolVar(&noProvenance, "no-provenance", false, "Omit the front matter block")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		return a.fail(errors.New("rank takes no arguments"))
	}
	if format != "markdown" && format != "json" {
		return a.fail(fmt.Errorf("unknown format %q (want markdown or json)", format))
	}

	logger := log.New(a.stderr, verbose)
	defer logger.Sync() //nolint:errcheck

	cfg, err := a.loadConfig(configPath, logger)
	if err != nil {
		return a.fail(err)
	}
	if len(groups) > 0 {
		cfg.Ranking.Groupings = groups
	}
	groupings, err := cfg.Groupings()
	if err != nil {
		return a.fail(err)
	}

	src, err := a.loadRankInput(cfg, dataPath, dbPath, snapshotID, logger)
	if err != nil {
		return a.fail(err)
	}

	kind := ranking.KindShares
	if counts {
		kind = ranking.KindCounts
	}
	r := buildReport(src.records, groupings, kind, cfg.Ranking.Fields.UsesX)
	if cfg.ProvenanceEnabled() && !noProvenance {
		r.Provenance = &report.Provenance{
			Title:     reportTitle,
			Generated: now().UTC().Truncate(time.Second),
			Source:    src.source,
			Records:   len(src.records),
			Snapshot:  src.snapshot,
		}
	}

	precision := cfg.Precision()
	emit := func(w io.Writer) error {
		if format == "json" {
			return output.Rankings(w, r, precision)
		}
		return report.Render(w, r, report.Options{Precision: precision, Pad: 1})
	}

	outPath = firstNonEmpty(outPath, cfg.Data.Report)
	if outPath == "" || outPath == "-" {
		if err := emit(a.stdout); err != nil {
			return a.fail(err)
		}
		return exitOK
	}
	if err := writeFile(outPath, emit); err != nil {
		return a.fail(err)
	}
	logger.Infof("wrote %d tables to %s", len(r.Tables), outPath)
	return exitOK
}

type rankInput struct {
	records  []mep.Record
	source   string
	snapshot string
}

// loadRankInput reads the records to rank: from a snapshot when a
// database is named, else from the merged JSON file.
func (a *app) loadRankInput(cfg *config.Config, dataPath, dbPath, snapshotID string, logger *log.Logger) (rankInput, error) {
	if snapshotID != "" && dbPath == "" {
		dbPath = cfg.Data.DB
		if dbPath == "" {
			return rankInput{}, errors.New("--snapshot needs --db or data.db")
		}
	}

	if dbPath == "" {
		path := firstNonEmpty(dataPath, cfg.Data.Merged)
		records, err := mep.LoadRecords(path)
		if err != nil {
			return rankInput{}, err
		}
		logger.Printf("loaded %d records from %s", len(records), path)
		return rankInput{records: records, source: path}, nil
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return rankInput{}, err
	}
	defer s.Close()

	ctx := context.Background()
	var snap *store.Snapshot
	if snapshotID != "" {
		snap, err = s.Get(ctx, snapshotID)
	} else {
		snap, err = s.Latest(ctx)
	}
	if err != nil {
		return rankInput{}, fmt.Errorf("%s: %w", dbPath, err)
	}
	logger.Printf("loaded snapshot %s (%d records) from %s", snap.ID, len(snap.Records), dbPath)
	return rankInput{records: snap.Records, source: snap.Source, snapshot: snap.ID}, nil
}

func buildReport(records []mep.Record, groupings []ranking.Grouping, kind ranking.Kind, usesXField string) report.Report {
	var r report.Report
	for _, g := range groupings {
		r.Tables = append(r.Tables, report.Table{
			Title: g.Title(kind),
			Label: g.Label,
			Kind:  kind,
			Rows:  g.Compute(records, kind, usesXField),
		})
	}
	return r
}

// writeFile creates path, with its parent directories, and fills it
// through write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return bw.Flush()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
