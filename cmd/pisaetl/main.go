// Command pisaetl loads the PISA 2018 workbooks (or every workbook of a
// folder) into MongoDB or a SQL database.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pisaetl/internal/logging"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "pisaetl/internal/storage/all"
)

func main() {
	// A .env next to the binary seeds the environment; it is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fatalf("load .env: %v", err)
	}

	f, err := parseFlags(flag.CommandLine, os.Getenv, os.Args[1:])
	if err != nil {
		fatalf("%v", err)
	}
	logging.Setup(f.LogLevel, f.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithRunID(ctx, logging.NewRunID())
	log := logging.FromContext(ctx)

	p, err := loadPipeline(f)
	if err != nil {
		fatalf("%v", err)
	}
	if err := validate(os.Stderr, p); err != nil {
		log.Error("configuration is invalid", "config", f.ConfigPath)
		os.Exit(1)
	}
	if f.Validate {
		log.Info("configuration is valid", "config", f.ConfigPath)
		return
	}

	if f.Check {
		if err := check(ctx, f, p, os.Stdout); err != nil {
			log.Error("check failed", "err", err)
			os.Exit(1)
		}
		return
	}

	flush := setupMetrics(ctx, f, p.Job)
	start := time.Now()
	log.Info("pipeline: start", "job", p.Job, "mode", p.Mode, "root", p.Source.Root, "storage", p.Storage.Kind)

	err = run(ctx, f, p, os.Stdout)
	flush()
	if err != nil {
		log.Error("pipeline: failed", "err", err, "elapsed", time.Since(start).Truncate(time.Millisecond))
		os.Exit(1)
	}
	log.Info("pipeline: completed", "elapsed", time.Since(start).Truncate(time.Millisecond))
}
