// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/symptomatch"
	"github.com/poiesic/symptomatch/advisor"
	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/importer"
	"github.com/poiesic/symptomatch/locator"
	"github.com/poiesic/symptomatch/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "symptomatch",
		Usage:     "Match symptom descriptions to dental conditions",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "Import a YAML knowledge base into a BadgerDB store",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kb",
						Aliases:  []string{"k"},
						Usage:    "Path to YAML knowledge base",
						EnvVars:  []string{"SYMPTOMATCH_KB"},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						EnvVars:  []string{"SYMPTOMATCH_DB"},
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of conditions written per transaction",
						Value: importer.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N conditions",
						Value: importer.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 100 * time.Millisecond,
					},
					&cli.BoolFlag{
						Name:  "append",
						Usage: "Append to the stored knowledge base instead of replacing it",
					},
				},
			},
			{
				Name:      "rank",
				Usage:     "Rank symptom text and print the best condition as JSON",
				ArgsUsage: "<text>",
				Action:    rankCommand,
				Flags:     engineFlags(),
			},
			{
				Name:      "advise",
				Usage:     "Rank symptom text and list nearby specialists",
				ArgsUsage: "<text>",
				Action:    adviseCommand,
				Flags:     append(engineFlags(), locatorFlags()...),
			},
			{
				Name:   "batch",
				Usage:  "Advise every line of a file concurrently, writing JSON lines",
				Action: batchCommand,
				Flags: append(append(engineFlags(), locatorFlags()...),
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "File with one query per line, - for stdin",
						Value:   "-",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent workers",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "metrics",
						Usage: "Log ranking metrics when the batch completes",
					},
				),
			},
			{
				Name:   "info",
				Usage:  "Show knowledge base size and fingerprint",
				Action: infoCommand,
				Flags:  engineFlags(),
			},
		},
	}
}

// engineFlags selects the knowledge base source shared by the query commands.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "kb",
			Aliases: []string{"k"},
			Usage:   "Path to YAML knowledge base",
			EnvVars: []string{"SYMPTOMATCH_KB"},
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory (used when --kb is not set)",
			EnvVars: []string{"SYMPTOMATCH_DB"},
		},
		&cli.StringFlag{
			Name:  "default-language",
			Usage: "Language used when detection fails (en, hi, bn)",
			Value: string(core.English),
		},
		&cli.BoolFlag{
			Name:  "stem",
			Usage: "Apply English stemming to queries and documents",
		},
	}
}

func locatorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "location",
			Usage: "Address or city to search near",
		},
		&cli.BoolFlag{
			Name:  "live",
			Usage: "Use OpenStreetMap services instead of simulated data",
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for simulated locations",
			Value: 1,
		},
		&cli.Float64Flag{
			Name:  "radius",
			Usage: "Search radius in meters",
			Value: locator.DefaultRadiusMeters,
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of specialists",
			Value: locator.DefaultLimit,
		},
		&cli.StringFlag{
			Name:    "nominatim-url",
			Usage:   "Nominatim endpoint for live geocoding",
			EnvVars: []string{"SYMPTOMATCH_NOMINATIM_URL"},
			Value:   locator.DefaultNominatimURL,
		},
		&cli.StringFlag{
			Name:    "overpass-url",
			Usage:   "Overpass endpoint for live lookups",
			EnvVars: []string{"SYMPTOMATCH_OVERPASS_URL"},
			Value:   locator.DefaultOverpassURL,
		},
	}
}

func importCommand(c *cli.Context) error {
	config := &importer.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Replace:        !c.Bool("append"),
	}

	// Validate config
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	fmt.Fprintf(c.App.ErrWriter, "Knowledge base: %s\n", c.String("kb"))
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintln(c.App.ErrWriter)

	summary, err := symptomatch.Import(c.Context, c.String("kb"), c.String("db"), config,
		symptomatch.WithImporterOptions(importer.WithProgress(c.App.ErrWriter)))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "imported %d conditions in %d batches, fingerprint %016x\n",
		summary.Imported, summary.Batches, summary.Fingerprint)
	return nil
}

func rankCommand(c *cli.Context) error {
	text, err := queryText(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	lang, result, err := engine.Rank(text)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, struct {
		Language core.Language    `json:"language"`
		Result   *core.RankResult `json:"result"`
	}{lang, result})
}

func adviseCommand(c *cli.Context) error {
	text, err := queryText(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	svc, err := newAdvisor(c, engine)
	if err != nil {
		return err
	}
	defer svc.Release()

	resp, err := svc.Advise(c.Context, advisor.Request{Text: text, Location: c.String("location")})
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, resp)
}

// batchLine is one output line of the batch command.
type batchLine struct {
	Line  int `json:"line"`
	*advisor.Response
	Error string `json:"error,omitempty"`
}

func batchCommand(c *cli.Context) error {
	input, err := openInput(c.String("input"))
	if err != nil {
		return err
	}
	defer input.Close()

	var (
		reqs  []advisor.Request
		lines []int
	)
	scanner := bufio.NewScanner(input)
	for n := 1; scanner.Scan(); n++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		reqs = append(reqs, advisor.Request{Text: text, Location: c.String("location")})
		lines = append(lines, n)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var registry *prometheus.Registry
	var extra []symptomatch.EngineOption
	if c.Bool("metrics") {
		registry = prometheus.NewRegistry()
		extra = append(extra, symptomatch.WithSearchOptions(search.WithMetrics(search.NewMetrics(registry))))
	}

	engine, err := openEngine(c, extra...)
	if err != nil {
		return err
	}
	defer engine.Close()

	svc, err := newAdvisor(c, engine, advisor.WithPoolSize(c.Int("workers")))
	if err != nil {
		return err
	}
	defer svc.Release()

	responses, err := svc.AdviseAll(c.Context, reqs)
	failures := requestErrors(err)

	enc := json.NewEncoder(c.App.Writer)
	enc.SetEscapeHTML(false)
	for i, resp := range responses {
		line := batchLine{Line: lines[i], Response: resp}
		if failure, ok := failures[i]; ok {
			line.Error = failure.Error()
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}

	slog.Info("batch complete", "queries", len(reqs), "failed", len(failures))
	if registry != nil {
		return logMetrics(registry)
	}
	return nil
}

func logMetrics(gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			value := metric.GetCounter().GetValue()
			if h := metric.GetHistogram(); h != nil {
				value = float64(h.GetSampleCount())
			}
			attrs := []any{"name", family.GetName(), "value", value}
			for _, label := range metric.GetLabel() {
				attrs = append(attrs, label.GetName(), label.GetValue())
			}
			slog.Info("metric", attrs...)
		}
	}
	return nil
}

// requestErrors indexes the per-request failures joined by AdviseAll.
func requestErrors(err error) map[int]error {
	failures := make(map[int]error)
	if err == nil {
		return failures
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var reqErr *advisor.RequestError
		if errors.As(e, &reqErr) {
			failures[reqErr.Index] = reqErr.Err
		}
	}
	return failures
}

func infoCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	out := c.App.Writer
	fmt.Fprintf(out, "Conditions: %d\n", engine.Len())
	fmt.Fprintf(out, "Fingerprint: %016x\n", engine.Fingerprint())
	for _, condition := range engine.Ranker().Conditions() {
		fmt.Fprintf(out, "  %-16s %-10s %s\n", condition.ID, condition.Urgency, condition.Specialist)
	}
	return nil
}

func queryText(c *cli.Context) (string, error) {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return "", fmt.Errorf("query text is required")
	}
	return text, nil
}

func openEngine(c *cli.Context, extra ...symptomatch.EngineOption) (*symptomatch.Engine, error) {
	config := search.NewConfig(
		search.WithDefaultLanguage(core.Language(c.String("default-language"))),
		search.WithEnglishStemming(c.Bool("stem")),
	)
	opts := []symptomatch.EngineOption{
		symptomatch.WithSearchOptions(search.WithConfig(config)),
	}
	opts = append(opts, extra...)

	switch {
	case c.String("kb") != "":
		return symptomatch.NewEngineFromFile(c.String("kb"), opts...)
	case c.String("db") != "":
		return symptomatch.OpenEngine(c.Context, c.String("db"), opts...)
	}
	return nil, fmt.Errorf("one of --kb or --db is required")
}

func newAdvisor(c *cli.Context, engine *symptomatch.Engine, opts ...advisor.Option) (*advisor.Service, error) {
	opts = append(opts,
		advisor.WithSearchRadius(c.Float64("radius")),
		advisor.WithLimit(c.Int("limit")),
	)

	if c.Bool("live") {
		nominatim := locator.NewNominatim(locator.WithBaseURL(c.String("nominatim-url")))
		overpass := locator.NewOverpass(locator.WithBaseURL(c.String("overpass-url")))
		opts = append(opts, advisor.WithLocator(nominatim, overpass))
	} else {
		sim := locator.NewSimulated(c.Uint64("seed"))
		opts = append(opts, advisor.WithLocator(sim, sim))
	}

	return engine.NewAdvisor(opts...)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
