package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

var (
	searchTopK      int
	searchAlpha     float64
	searchMode      string
	searchResources []string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed resources",
	Long: `Performs hybrid search across indexed resources.
Combines keyword (ripgrep) text search and semantic (vector) search, fused
by reciprocal rank fusion.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 10, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchAlpha, "alpha", 0.5, "text/vector fusion weight (0=text only, 1=vector only)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "hybrid", "search mode: hybrid, text, or vector")
	searchCmd.Flags().StringSliceVar(&searchResources, "resource", nil, "restrict search to these resource IDs (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Query:       args[0],
		ResourceIDs: searchResources,
		Mode:        domain.SearchMode(searchMode),
		Alpha:       searchAlpha,
		TopK:        searchTopK,
	}
	opts.Clamp()

	results, err := searchService.Search(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		cmd.Printf("  [%d] %s:%d-%d (%s, %.3f)\n", i+1, r.Filepath, r.LineStart, r.LineEnd, r.MatchType, r.Score)
		if r.ResourceName != "" {
			cmd.Printf("      Resource: %s\n", r.ResourceName)
		}
		if r.Text != "" {
			cmd.Printf("      %s\n", truncateText(r.Text, 160))
		}
		cmd.Println()
	}
	return nil
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
