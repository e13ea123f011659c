package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/document"
	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/processor"
)

var csvHeader = []string{"file", "section", "sentence", "prev_sentence", "next_sentence", "coordinates"}

// processFiles converts every input file concurrently, at most workers at a
// time. The first failure cancels the files not yet started.
func processFiles(ctx context.Context, config Config, workers int, comps *components) error {
	names, err := documentNames(config.Files)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	color.Blue("\nExtracting %d documents\n", len(config.Files))
	bar := getProgressBar(len(config.Files), "📄 Processing documents...")

	p := processor.NewWithConfig(comps.processor)
	var rowCount int64
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range config.Files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := processFile(ctx, &p, path, names[i], config, comps)
			if err != nil {
				return err
			}
			atomic.AddInt64(&rowCount, int64(rows))
			bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		color.Red("\n✗ %v\n", err)
		return err
	}

	bar.Finish()
	elapsed := time.Since(startTime).Seconds()
	color.Green("\n✓ Extracted %d sentences from %d documents (%.1f docs/sec)\n",
		rowCount, len(config.Files), float64(len(config.Files))/elapsed)
	return nil
}

// documentName identifies a document by its file name without extension,
// so "dir/paper.json" is "paper".
func documentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// documentNames returns the name of every input file. Two inputs with the
// same name would write the same output file and share stored rows, so they
// are rejected.
func documentNames(files []string) ([]string, error) {
	names := make([]string, len(files))
	seen := make(map[string]string, len(files))
	for i, path := range files {
		name := documentName(path)
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("%s and %s are both named %q", other, path, name)
		}
		seen[name] = path
		names[i] = name
	}
	return names, nil
}

func processFile(ctx context.Context, p *processor.Processor, path, name string, config Config, comps *components) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	doc, err := document.Read(f, name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	processed, err := p.ProcessDocument(doc)
	if err != nil {
		return 0, err
	}

	if comps.embedder != nil {
		if err := comps.embedder.EmbedRows(ctx, processed.Rows); err != nil {
			return 0, fmt.Errorf("%s: %w", doc.File, err)
		}
	}
	if comps.store != nil {
		if err := comps.store.Store(ctx, processed.Rows); err != nil {
			return 0, fmt.Errorf("%s: %w", doc.File, err)
		}
	}

	if err := writeOutput(config, processed, comps.processor.Tokenizer != nil); err != nil {
		return 0, fmt.Errorf("%s: %w", doc.File, err)
	}
	return len(processed.Rows), nil
}

// outputPath maps document "paper" to "<output>/paper.<ext>".
func outputPath(outputDir, name, ext string) string {
	return filepath.Join(outputDir, name+"."+ext)
}

func writeOutput(config Config, processed models.ProcessedDocument, tokenized bool) error {
	out, err := os.Create(outputPath(config.OutputDir, processed.File, config.Mode))
	if err != nil {
		return err
	}

	if config.Mode == modeCSV {
		err = writeCSV(out, processed.Rows, tokenized)
	} else {
		err = writeText(out, processed.Text)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// writeText writes one item per line.
func writeText(w io.Writer, items []string) error {
	for _, item := range items {
		if _, err := io.WriteString(w, item+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// writeCSV writes the sentence table. The tokenized_sentence column holds
// [token_ids, attention_mask] as JSON.
func writeCSV(w io.Writer, rows []models.SentenceRow, tokenized bool) error {
	cw := csv.NewWriter(w)

	header := csvHeader
	if tokenized {
		header = append(header[:len(header):len(header)], "tokenized_sentence")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{row.File, row.Section, row.Sentence, row.PrevSentence, row.NextSentence, row.Coordinates}
		if tokenized {
			var cell string
			if row.Tokenized != nil {
				b, err := json.Marshal(row.Tokenized.Pair())
				if err != nil {
					return err
				}
				cell = string(b)
			}
			record = append(record, cell)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
