package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"pisaetl/internal/config"
	"pisaetl/internal/datasource/file"
	"pisaetl/internal/ingest"
	"pisaetl/internal/logging"
	"pisaetl/internal/metrics"
	"pisaetl/internal/metrics/datadog"
	"pisaetl/internal/metrics/prompush"
	"pisaetl/internal/report"
	"pisaetl/internal/schema"
	"pisaetl/internal/storage"
	"pisaetl/internal/watch"
)

var errInvalidConfig = errors.New("configuration is invalid")

// loadPipeline reads the config file (or the defaults) and applies the
// command-line overrides.
func loadPipeline(f Flags) (config.Pipeline, error) {
	p := config.Default()
	if f.ConfigPath != "" {
		var err error
		if p, err = config.Load(f.ConfigPath); err != nil {
			return config.Pipeline{}, err
		}
	}
	if f.Root != "" {
		p.Source.Root = f.Root
	}
	if f.Mode != "" {
		p.Mode = f.Mode
	}
	if f.Kind != "" && f.Kind != p.Storage.Kind {
		p.Storage.Kind = f.Kind
		// The config's env key names the old backend's connection string.
		p.Storage.DSNEnv = dsnEnvFor(f.Kind)
	}
	if f.DSN != "" {
		p.Storage.DSN = f.DSN
	}
	if f.BatchSizeSet {
		p.Runtime.BatchSize = f.BatchSize
	}
	if f.PrefixesFile != "" {
		prefixes, err := file.ReadList(f.PrefixesFile)
		if err != nil {
			return config.Pipeline{}, fmt.Errorf("prefixes file: %w", err)
		}
		p.Source.OnlyPrefixes = append(p.Source.OnlyPrefixes, prefixes...)
	}
	return p, nil
}

func dsnEnvFor(kind string) string {
	switch kind {
	case "mongo":
		return "MONGO_URI"
	case "mssql":
		return "MSSQL_DSN"
	case "postgres":
		return "POSTGRES_DSN"
	case "mysql":
		return "MYSQL_DSN"
	case "sqlite":
		return "SQLITE_DSN"
	}
	return ""
}

// validate prints every issue and fails on errors.
func validate(w io.Writer, p config.Pipeline) error {
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errInvalidConfig
	}
	return nil
}

// setupMetrics installs the selected backend and returns its flush func.
func setupMetrics(ctx context.Context, f Flags, job string) func() {
	log := logging.FromContext(ctx)
	nop := func() {}

	var (
		b   metrics.Backend
		err error
	)
	switch f.MetricsBackend {
	case "pushgateway":
		b, err = prompush.NewBackend(job, f.PushGatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       f.DDAgentAddr,
			GlobalTags: []string{"job:" + job},
		})
	case "", "none":
		log.Debug("metrics: disabled")
		return nop
	default:
		log.Warn("metrics: unknown backend; metrics disabled", "backend", f.MetricsBackend)
		return nop
	}
	if err != nil {
		log.Warn("metrics: backend init failed; using nop", "backend", f.MetricsBackend, "err", err)
		return nop
	}
	log.Info("metrics: enabled", "backend", f.MetricsBackend, "job", job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush failed", "err", err)
		}
	}
}

// requiredOptions applies the entities overrides to the PISA defaults.
func requiredOptions(p config.Pipeline) ingest.RequiredOptions {
	opts := ingest.DefaultRequiredOptions()
	opts.Find = file.FindOptions{MaxDepth: p.Source.MaxDepth, CaseInsensitive: p.Source.CaseInsensitive}
	opts.Student = overrideEntity(opts.Student, p.Entities.Sub("student"))
	opts.School = overrideEntity(opts.School, p.Entities.Sub("school"))
	opts.IncludeCodebook = p.Entities.Sub("codebook").Bool("enabled", true)
	return opts
}

func overrideEntity(e schema.Entity, o config.Options) schema.Entity {
	if name := o.String("file", ""); name != "" {
		e.FilePatterns = append([]string{name}, e.FilePatterns...)
	}
	e.Target = o.String("target", e.Target)
	return e
}

// run executes one pipeline and, with -watch, keeps re-ingesting changed
// workbooks until ctx ends.
func run(ctx context.Context, f Flags, p config.Pipeline, stdout io.Writer) error {
	log := logging.FromContext(ctx)

	dsn, err := config.ResolveDSN(p.Storage.DSN, p.Storage.DSNEnv, p.Storage.EnvFile)
	if err != nil {
		return err
	}
	repo, err := storage.New(ctx, storage.Config{
		Kind:           p.Storage.Kind,
		DSN:            dsn,
		Database:       p.Storage.Database,
		Schema:         p.Storage.Schema,
		CreateDatabase: p.Storage.CreateDatabase,
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	runner, err := ingest.New(repo, ingest.Options{
		Job:          p.Job,
		Kind:         p.Storage.Kind,
		BatchSize:    p.Runtime.BatchSize,
		DropExisting: p.Storage.DropExisting,
		Cache:        file.Cache{Dir: p.Source.Cache.Dir, RemotePrefix: p.Source.Cache.RemotePrefix},
	})
	if err != nil {
		return err
	}

	var (
		results  []ingest.Result
		failures []ingest.Failure
	)
	switch p.Mode {
	case config.ModeRequired:
		results, err = runner.Required(ctx, p.Source.Root, requiredOptions(p))
	case config.ModeFolder:
		results, failures, err = runner.Folder(ctx, p.Source.Root, ingest.FolderOptions{
			Recursive:    p.Source.Recursive,
			OnlyPrefixes: p.Source.OnlyPrefixes,
		})
	default:
		err = fmt.Errorf("unknown mode %q", p.Mode)
	}
	printSummary(stdout, results, failures)
	if err != nil {
		return err
	}
	if !f.Watch {
		return nil
	}

	prefixes := p.Source.OnlyPrefixes
	w, err := watch.New(p.Source.Root, watch.Options{
		Recursive: p.Source.Recursive,
		Match: func(name string) bool {
			return ingest.KeepWorkbook(filepath.Base(name), prefixes)
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()
	log.Info("watch: waiting for workbooks", "root", p.Source.Root)
	err = w.Run(ctx, func(ctx context.Context, path string) error {
		res, err := runner.File(ctx, path)
		printSummary(stdout, res, nil)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// printSummary writes one line per loaded target and per failed file.
func printSummary(w io.Writer, results []ingest.Result, failures []ingest.Failure) {
	if len(results) == 0 && len(failures) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSHEET\tTARGET\tREAD\tWRITTEN\tNOTE")
	for _, r := range results {
		note := ""
		if r.Degraded {
			note = "full sheet read"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", r.Source, r.Sheet, r.Target, r.Read, r.Written, note)
	}
	for _, f := range failures {
		fmt.Fprintf(tw, "%s\t\t\t\t\tFAILED: %v\n", f.Path, f.Err)
	}
	_ = tw.Flush()
}

// check reads the student and school workbooks without writing anything and
// prints the data-quality report.
func check(ctx context.Context, f Flags, p config.Pipeline, w io.Writer) error {
	opts := requiredOptions(p)
	paths, err := file.FindRequired(p.Source.Root, opts.Find, opts.Student.FilePatterns, opts.School.FilePatterns)
	if err != nil {
		return err
	}
	cache := file.Cache{Dir: p.Source.Cache.Dir, RemotePrefix: p.Source.Cache.RemotePrefix}

	stu, _, stuRep, stuCleaned, err := ingest.AuditEntity(ctx, p.Job, cache, paths[0], opts.Student)
	if err != nil {
		return err
	}
	sch, _, schRep, schCleaned, err := ingest.AuditEntity(ctx, p.Job, cache, paths[1], opts.School)
	if err != nil {
		return err
	}

	fields := report.DefaultFields()
	if err := report.Format(w, "student: "+paths[0],
		report.SchemaSection(stuRep),
		report.CheckIDsWeights(stu, fields).Section(),
		report.CheckSentinels(stu, fields).Section(),
		cleanedSection(stuCleaned),
	); err != nil {
		return err
	}
	if err := report.Format(w, "school: "+paths[1],
		report.SchemaSection(schRep),
		report.CheckCoverage(stu, sch, fields.SchoolID).Section(),
		cleanedSection(schCleaned),
	); err != nil {
		return err
	}
	if !f.Categorical {
		return nil
	}
	return report.FormatCategoricals(w, report.Categoricals(stu, report.CategoricalOptions{MaxLevels: 10, ShowMissing: true}))
}

// cleanedSection reports the rows a load would drop.
func cleanedSection(c ingest.Cleaned) report.Section {
	return report.Section{
		{Key: "rows_dropped_on_load", Value: c.Dropped},
		{Key: "rows_deduped_on_load", Value: c.Deduped},
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
