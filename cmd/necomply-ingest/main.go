package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gridseye/necomply/internal/common"
	"github.com/gridseye/necomply/internal/interfaces"
	"github.com/gridseye/necomply/internal/services/ingest"
	"github.com/gridseye/necomply/internal/services/llm"
	"github.com/gridseye/necomply/internal/services/pdf"
	"github.com/gridseye/necomply/internal/storage/badger"
	"github.com/ternarybob/arbor"
)

var (
	configFile     = flag.String("config", "", "Configuration file path")
	codeVersion    = flag.String("nec-version", "", "NEC edition year (overrides config)")
	withEmbeddings = flag.Bool("with-embeddings", false, "Generate chunk embeddings during ingest")
	backfillOnly   = flag.Bool("backfill", false, "Only backfill embeddings for pending chunks")
	showStats      = flag.Bool("stats", false, "Print corpus stats and exit")
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  necomply-ingest [flags] <path to NEC PDF or text file>")
	fmt.Fprintln(os.Stderr, "  necomply-ingest -stats")
	fmt.Fprintln(os.Stderr, "  necomply-ingest -backfill")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	var configFiles []string
	if *configFile != "" {
		configFiles = append(configFiles, *configFile)
	} else if _, err := os.Stat("necomply.toml"); err == nil {
		configFiles = append(configFiles, "necomply.toml")
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if *withEmbeddings {
		config.Ingest.Embeddings = true
	}

	version := *codeVersion
	if version == "" {
		version = config.Ingest.CodeVersion
	}

	logger := common.InitLogger(config)

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer storageManager.Close()

	if *showStats {
		printStats(storageManager)
		return
	}

	// Embeddings need a Gemini key; ingestion without them works offline
	var embedder interfaces.EmbeddingService
	if config.Ingest.Embeddings || *backfillOnly {
		_, embedder, err = llm.NewServices(config, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize embedding service")
		}
	}

	extractor := pdf.NewExtractor(logger)
	service := ingest.NewService(storageManager.CodeStorage(), extractor, embedder, &config.Ingest, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	if *backfillOnly {
		embedded, err := service.BackfillEmbeddings(ctx, version)
		if err != nil {
			logger.Fatal().Err(err).Msg("Embedding backfill failed")
		}
		fmt.Printf("Backfilled %d chunk embeddings\n", embedded)
		return
	}

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	if _, err := os.Stat(path); err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("Input file not found")
	}

	var result *ingest.Result
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		result, err = service.IngestPDF(ctx, path, version)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			result, err = service.IngestText(ctx, string(data), version)
		}
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Ingestion complete: %d sections, %d articles, %d chunks (%d embedded), %d errors\n",
		result.Sections, result.Articles, result.Chunks, result.Embedded, result.Errors)
}

func printStats(storage interfaces.StorageManager) {
	sections, _ := storage.CodeStorage().CountSections()
	articles, _ := storage.CodeStorage().CountArticles()
	chunks, _ := storage.CodeStorage().CountChunks()
	analyses, _ := storage.AnalysisStorage().CountAnalyses()

	fmt.Println("Current corpus stats:")
	fmt.Printf("  sections: %d\n", sections)
	fmt.Printf("  articles: %d\n", articles)
	fmt.Printf("  chunks:   %d\n", chunks)
	fmt.Printf("  analyses: %d\n", analyses)
}
