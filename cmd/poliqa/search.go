package poliqa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	root "github.com/poliqa/poliqa"
	"github.com/poliqa/poliqa/pkg/config"
	"github.com/poliqa/poliqa/pkg/logger"
	"github.com/poliqa/poliqa/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <question>",
	Short: "Run one question against the policy knowledge base",
	Long: `Run a single question through the hybrid retrieval pipeline and print
the ranked results.

Examples:
  poliqa search "갑상선암 진단시 보장 금액은?"
  poliqa search --strategy comprehensive --top-k 20 "유방암 특약 보장 내용"
  poliqa search --json "면책 기간"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchStrategy string
	searchTopK     int
	searchMinScore float64
	searchNoCache  bool
	searchJSON     bool
	searchTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchStrategy, "strategy", "standard", "Execution strategy (fast, standard, comprehensive)")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "Maximum number of results (0 uses the strategy default)")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "Minimum vector similarity score")
	searchCmd.Flags().BoolVar(&searchNoCache, "no-cache", false, "Bypass the response cache")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the full response as JSON")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 60*time.Second, "Overall request timeout")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := slog.New(logger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))

	client, err := root.NewFromConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()
	defer client.Close(context.Background())

	resp, err := client.Search(ctx, &types.SearchRequest{
		Query:    args[0],
		Strategy: types.ParseStrategy(searchStrategy),
		TopK:     searchTopK,
		MinScore: searchMinScore,
		UseCache: !searchNoCache,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printResponse(resp)
	return nil
}

func printResponse(resp *types.SearchResponse) {
	fmt.Printf("Strategy: %s   Results: %d   Time: %dms   Cache hit: %v\n",
		resp.Strategy, resp.TotalCount, resp.SearchTimeMs, resp.CacheHit)
	if resp.Analysis != nil {
		fmt.Printf("Intent: %s   Query type: %s\n", resp.Analysis.Intent, resp.Analysis.QueryType)
	}
	fmt.Println()

	for _, r := range resp.Results {
		fmt.Printf("%2d. [%.4f] %s (%s)\n", r.Rank, r.FusedScore, r.NodeID, joinOrigins(r.Origins))
		if r.Content != "" {
			fmt.Printf("    %s\n", truncate(r.Content, 200))
		}
	}

	if resp.Answer != nil {
		fmt.Printf("\nAnswer (confidence %.2f):\n%s\n", resp.Answer.Confidence, resp.Answer.Text)
	}

	for _, e := range resp.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}
}

func joinOrigins(origins []types.ResultOrigin) string {
	parts := make([]string, len(origins))
	for i, o := range origins {
		parts[i] = string(o)
	}
	return strings.Join(parts, "+")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
