package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	cfgPkg "github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/config"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/excise"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/extract"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/llm"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/processor"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/store"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/tokenizer"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/server"
)

const (
	modeText  = "txt"
	modeCSV   = "csv"
	modeServe = "serve"
	modeQuery = "query"
)

type Config struct {
	ConfigPath string
	Mode       string
	OutputDir  string
	Tokenize   bool
	Embed      bool
	Store      bool
	Files      []string
}

func main() {
	config := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Config {
	var config Config

	flag.StringVar(&config.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&config.Mode, "mode", modeText, "Output mode: txt, csv, serve or query")
	flag.StringVar(&config.OutputDir, "output", ".", "Directory for .txt and .csv outputs")
	flag.BoolVar(&config.Tokenize, "tokenize", false, "Add the tokenized_sentence column to csv output")
	flag.BoolVar(&config.Embed, "embed", false, "Embed table sentences with Ollama")
	flag.BoolVar(&config.Store, "store", false, "Store sentence tables in PostgreSQL")
	flag.Parse()

	config.Files = flag.Args()
	return config
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// components are the optional stages wired from flags and config.
type components struct {
	processor processor.ProcessorConfig
	embedder  *llm.Embedder
	store     *store.VectorStore
}

func (c *components) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

func run(ctx context.Context, config Config) error {
	cfg, err := cfgPkg.LoadConfig(config.ConfigPath)
	if err != nil {
		return err
	}
	if config.Tokenize {
		cfg.Tokenizer.Enabled = true
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("✗ %v", e)
		}
		return fmt.Errorf("invalid configuration: %d problems", len(errs))
	}

	// query mode searches what earlier runs stored
	if config.Mode == modeQuery {
		config.Embed, config.Store = true, true
	}

	comps, err := setup(ctx, cfg, config)
	if err != nil {
		return err
	}
	defer comps.Close()

	switch config.Mode {
	case modeText, modeCSV:
		if len(config.Files) == 0 {
			return fmt.Errorf("no input files given")
		}
		return processFiles(ctx, config, cfg.Workers, comps)
	case modeServe:
		srvConfig := server.Config{
			Port:      cfg.Server.Port,
			Processor: comps.processor,
			Embedder:  comps.embedder,
		}
		if comps.store != nil {
			srvConfig.Store = comps.store
		}
		return server.NewWSServer(srvConfig).ListenAndServe()
	case modeQuery:
		return queryLoop(ctx, os.Stdin, comps)
	}
	return fmt.Errorf("unknown mode %q", config.Mode)
}

func setup(ctx context.Context, cfg *cfgPkg.Config, config Config) (*components, error) {
	traversal, err := extract.ParseMode(cfg.Extraction.Traversal)
	if err != nil {
		return nil, err
	}

	comps := &components{
		processor: processor.ProcessorConfig{
			Excision: excise.ExcisorConfig{
				Mode:       excise.Mode(cfg.Excision.Mode),
				OutOfRange: excise.RangePolicy(cfg.Excision.OutOfRange),
			},
			TextMode:     cfg.Extraction.TextMode,
			LookupKey:    cfg.Extraction.LookupKey,
			Traversal:    traversal,
			RawSentences: cfg.Table.RawSentences,
		},
	}

	if cfg.Tokenizer.Enabled {
		encoder, err := tokenizer.OpenEncoder(tokenizer.EncoderConfig{
			Vocabulary: cfg.Tokenizer.Vocabulary,
			VocabPath:  cfg.Tokenizer.VocabPath,
			Encoding:   cfg.Tokenizer.Encoding,
			LowerCase:  *cfg.Tokenizer.LowerCase,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tokenizer: %v", err)
		}
		tok, err := tokenizer.NewWithConfig(encoder, tokenizer.TokenizerConfig{
			MaxLength: cfg.Tokenizer.MaxTokenLength,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tokenizer: %v", err)
		}
		comps.processor.Tokenizer = tok
	}

	if config.Embed {
		comps.embedder, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			Model:     cfg.LLM.Model,
			BaseURL:   cfg.LLM.BaseURL,
			BatchSize: cfg.LLM.BatchSize,
			RateLimit: cfg.LLM.RateLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %v", err)
		}
	}

	if config.Store {
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("storing sentences needs database.url or DATABASE_URL")
		}
		comps.store, err = store.NewWithConfig(ctx, store.VectorStoreConfig{
			ConnString: cfg.Database.URL,
			TableName:  cfg.Database.TableName,
			VectorDim:  cfg.Database.VectorDim,
			BatchSize:  cfg.Database.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vector store: %v", err)
		}
	}

	return comps, nil
}
