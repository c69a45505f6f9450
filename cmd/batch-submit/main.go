// batch-submit prepares an asynchronous batch: it parses and chunks the
// input PDFs, writes the request JSONL for upload to the bulk endpoint, and
// persists the manifest needed to import the results later.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/narratext/narratext/internal/batch"
	"github.com/narratext/narratext/internal/cli"
	"github.com/narratext/narratext/internal/common"
	"github.com/narratext/narratext/internal/pdfio"
	"github.com/narratext/narratext/internal/pipeline"
	"github.com/narratext/narratext/internal/store"
)

func main() {
	dir := flag.String("dir", "", "directory to scan for PDFs (non-recursive)")
	files := flag.String("files", "", "comma-separated list of PDF paths")
	out := flag.String("out", "batch_requests.jsonl", "request JSONL output path")
	manifestOut := flag.String("manifest-out", "", "optional manifest JSON output path (for file-based import)")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	_ = godotenv.Load()
	logger := cli.NewLogger(*verbose)

	cfg := common.LoadConfig()
	// No credentials needed: building a batch makes no API calls.
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	paths, err := cli.CollectPDFs(*dir, *files)
	if err != nil {
		logger.Error("input discovery failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources := make([]pipeline.Source, 0, len(paths))
	for _, path := range paths {
		doc, err := pdfio.Open(path)
		if err != nil {
			logger.Error("open pdf failed", "path", path, "error", err)
			os.Exit(1)
		}
		defer doc.Close()
		sources = append(sources, doc)
	}

	result, err := batch.Build(ctx, sources, batch.BuildOptions{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Quality:     cli.QualityFromConfig(cfg),
		ChunkBudget: cfg.Extract.ChunkBudget,
		Repeat:      cli.RepeatFromConfig(cfg),
		MaxRequests: cfg.Batch.MaxRequests,
		MaxBytes:    cfg.Batch.MaxBytes,
	}, logger)
	if err != nil {
		logger.Error("batch build failed", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Error("open manifest store failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.SaveManifest(ctx, result.Manifest); err != nil {
		logger.Error("save manifest failed", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, result.Requests, 0o644); err != nil {
		logger.Error("write request file failed", "path", *out, "error", err)
		os.Exit(1)
	}
	if *manifestOut != "" {
		data, err := json.MarshalIndent(result.Manifest, "", "  ")
		if err != nil {
			logger.Error("encode manifest failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*manifestOut, data, 0o644); err != nil {
			logger.Error("write manifest file failed", "path", *manifestOut, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("batch-submit.done",
		"batch_id", result.Manifest.ID,
		"files", len(result.Manifest.Files),
		"tasks", len(result.Manifest.Tasks),
		"requests", *out,
	)
}
