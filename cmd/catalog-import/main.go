// catalog-import copies fractal descriptors from JSON or YAML catalogs
// (or the built-in one) into a SQLite catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/catalog/sqlite"
	"github.com/marben/chaos_ifs/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	var cfg config.Common
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	db := flag.String("db", "fractals.db", "SQLite catalog to write")
	strict := flag.Bool("strict", false, "fail on the first invalid descriptor")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-db file] [-strict] [catalog.json|catalog.yaml ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := config.NewLogger(os.Stderr, cfg.LogLevel)
	chaos.SetLogger(logger)

	store, err := sqlite.Open(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := importFiles(context.Background(), store, flag.Args(), *strict)
	if err != nil {
		return err
	}
	logger.Info("import finished", "db", *db, "stored", res.stored, "skipped", res.skipped)
	return nil
}
