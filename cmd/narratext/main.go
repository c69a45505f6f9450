// narratext extracts narrative paragraphs from PDFs into a spreadsheet,
// calling the chat API synchronously per chunk or page image.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/narratext/narratext/internal/cli"
	"github.com/narratext/narratext/internal/common"
	"github.com/narratext/narratext/internal/llm/openai"
	"github.com/narratext/narratext/internal/parallel"
	"github.com/narratext/narratext/internal/pdfio"
	"github.com/narratext/narratext/internal/pipeline"
)

func main() {
	dir := flag.String("dir", "", "directory to scan for PDFs (non-recursive)")
	files := flag.String("files", "", "comma-separated list of PDF paths")
	out := flag.String("out", "paragraphs.xlsx", "XLSX output path")
	csvOut := flag.String("csv", "", "optional CSV output path")
	concurrency := flag.Int("concurrency", 0, "file-level concurrency (overrides FILE_CONCURRENCY)")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	_ = godotenv.Load()
	logger := cli.NewLogger(*verbose)

	cfg := common.LoadConfig()
	if err := cfg.ValidateLive(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}
	if *concurrency <= 0 {
		*concurrency = cfg.Extract.FileConcurrency
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

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	processor := pipeline.NewProcessor(logger, client, cli.QualityFromConfig(cfg))
	processor.ChunkBudget = cfg.Extract.ChunkBudget
	processor.Retry = parallel.RetryConfig{
		Retries:   cfg.Extract.Retries,
		BaseDelay: cfg.Extract.BaseDelay,
	}
	processor.Repeat = cli.RepeatFromConfig(cfg)

	rows, err := processor.Run(ctx, sources, *concurrency)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	if err := cli.WriteOutputs(rows, *out, *csvOut, logger); err != nil {
		logger.Error("write output failed", "error", err)
		os.Exit(1)
	}
	logger.Info("narratext.done", "documents", len(sources), "rows", len(rows), "out", *out)
}
