package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// queryLoop reads questions from in and prints the closest stored sentences.
func queryLoop(ctx context.Context, in io.Reader, comps *components) error {
	color.Cyan("\nSearch stored sentences (type 'exit' to quit)")

	scanner := bufio.NewScanner(in)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	resultPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nQuery: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if strings.ToLower(query) == "exit" {
			break
		}
		if query == "" {
			continue
		}

		// Show spinner while querying
		querySpinner := getSpinner("🔍 Searching sentences...")

		embeddings, err := comps.embedder.CreateEmbedding(ctx, []string{query})
		if err != nil {
			querySpinner.Finish()
			color.Red("Error creating query embedding: %v\n", err)
			continue
		}

		rows, err := comps.store.Query(ctx, embeddings[0], 5)
		querySpinner.Finish()
		fmt.Print("\r") // Clear spinner line

		if err != nil {
			color.Red("Error querying sentences: %v\n", err)
			continue
		}
		if len(rows) == 0 {
			color.Yellow("No stored sentences have embeddings yet\n")
			continue
		}

		for i, row := range rows {
			resultPrompt("%d. [%s / %s] ", i+1, row.File, row.Section)
			fmt.Println(row.Sentence)
		}
	}

	return scanner.Err()
}
