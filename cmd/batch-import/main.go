// batch-import reconciles downloaded batch results against a stored
// manifest and writes the final spreadsheet.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/narratext/narratext/internal/batch"
	"github.com/narratext/narratext/internal/cli"
	"github.com/narratext/narratext/internal/common"
	"github.com/narratext/narratext/internal/store"
)

func main() {
	manifestID := flag.String("manifest", "", "manifest id from batch-submit")
	manifestFile := flag.String("manifest-file", "", "manifest JSON path (alternative to -manifest)")
	resultsPath := flag.String("results", "", "downloaded output JSONL path")
	errorsPath := flag.String("errors", "", "downloaded error JSONL path (optional)")
	out := flag.String("out", "paragraphs.xlsx", "XLSX output path")
	csvOut := flag.String("csv", "", "optional CSV output path")
	keep := flag.Bool("keep", false, "keep the manifest after a successful import")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	_ = godotenv.Load()
	logger := cli.NewLogger(*verbose)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}
	if (*manifestID == "") == (*manifestFile == "") {
		logger.Error("exactly one of -manifest or -manifest-file is required")
		os.Exit(1)
	}
	if *resultsPath == "" {
		logger.Error("-results is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	var m *batch.Manifest
	if *manifestFile != "" {
		data, err := os.ReadFile(*manifestFile)
		if err != nil {
			logger.Error("read manifest file failed", "path", *manifestFile, "error", err)
			os.Exit(1)
		}
		m = &batch.Manifest{}
		if err := json.Unmarshal(data, m); err != nil {
			logger.Error("decode manifest file failed", "path", *manifestFile, "error", err)
			os.Exit(1)
		}
	} else {
		var err error
		st, err = store.Open(cfg.Store.Path, logger)
		if err != nil {
			logger.Error("open manifest store failed", "error", err)
			os.Exit(1)
		}
		defer st.Close()

		m, err = st.LoadManifest(ctx, *manifestID)
		if err != nil {
			logger.Error("load manifest failed", "manifest_id", *manifestID, "error", err)
			os.Exit(1)
		}
	}

	results, err := os.Open(*resultsPath)
	if err != nil {
		logger.Error("open results failed", "path", *resultsPath, "error", err)
		os.Exit(1)
	}
	defer results.Close()

	var errStream io.Reader
	if *errorsPath != "" {
		f, err := os.Open(*errorsPath)
		if err != nil {
			logger.Error("open errors failed", "path", *errorsPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		errStream = f
	}

	rows, err := batch.Reconcile(m, results, errStream, logger)
	if err != nil {
		logger.Error("reconcile failed", "manifest_id", m.ID, "error", err)
		os.Exit(1)
	}

	if err := cli.WriteOutputs(rows, *out, *csvOut, logger); err != nil {
		logger.Error("write output failed", "error", err)
		os.Exit(1)
	}

	if st != nil && !*keep {
		if err := st.DeleteManifest(ctx, m.ID); err != nil {
			logger.Warn("delete manifest failed", "manifest_id", m.ID, "error", err)
		}
	}
	logger.Info("batch-import.done", "batch_id", m.ID, "rows", len(rows), "out", *out)
}
