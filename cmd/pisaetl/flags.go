package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Flags holds the command line. Environment values seed each default and
// explicit flags win.
type Flags struct {
	ConfigPath string

	MetricsBackend string
	PushGatewayURL string
	DDAgentAddr    string

	LogLevel  string
	LogFormat string

	// Overrides applied on top of the config file.
	Root      string
	Mode      string
	Kind      string
	DSN       string
	BatchSize int

	// BatchSizeSet reports whether BatchSize came from the flag or BATCH_SIZE.
	BatchSizeSet bool

	PrefixesFile string

	Validate    bool
	Watch       bool
	Check       bool
	Categorical bool
}

// parseFlags defines the flags on fs, seeds them through getenv and parses
// args.
func parseFlags(fs *flag.FlagSet, getenv func(string) string, args []string) (Flags, error) {
	envOr := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	var f Flags
	batchSize := 0
	if v := getenv("BATCH_SIZE"); v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Flags{}, fmt.Errorf("BATCH_SIZE=%q: not an integer", v)
		}
		batchSize, f.BatchSizeSet = i, true
	}

	fs.StringVar(&f.ConfigPath, "config", envOr("PISAETL_CONFIG", ""), "pipeline config JSON path (built-in defaults when empty)")
	fs.StringVar(&f.MetricsBackend, "metrics-backend", envOr("METRICS_BACKEND", "none"), "metrics backend: pushgateway, datadog, none")
	fs.StringVar(&f.PushGatewayURL, "pushgateway-url", envOr("PUSHGATEWAY_URL", "http://localhost:9091"), "Pushgateway base URL")
	fs.StringVar(&f.DDAgentAddr, "dd-agent-addr", envOr("DD_AGENT_ADDR", "127.0.0.1:8125"), "DogStatsD address")
	fs.StringVar(&f.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "debug, info, warn, error")
	fs.StringVar(&f.LogFormat, "log-format", envOr("LOG_FORMAT", "text"), "text or json")

	fs.StringVar(&f.Root, "root", "", "override source.root")
	fs.StringVar(&f.Mode, "mode", "", "override mode (required or folder)")
	fs.StringVar(&f.Kind, "kind", "", "override storage.kind")
	fs.StringVar(&f.DSN, "dsn", "", "override storage.dsn")
	fs.IntVar(&f.BatchSize, "batch-size", batchSize, "override runtime.batch_size")
	fs.StringVar(&f.PrefixesFile, "prefixes-file", "", "file with one file-name prefix per line, added to source.only_prefixes")

	fs.BoolVar(&f.Validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&f.Watch, "watch", false, "after the run, re-ingest workbooks created or rewritten under the root")
	fs.BoolVar(&f.Check, "check", false, "read the student and school workbooks, print quality checks and exit")
	fs.BoolVar(&f.Categorical, "categorical", false, "with -check, also print categorical level counts")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "batch-size" {
			f.BatchSizeSet = true
		}
	})
	return f, nil
}
