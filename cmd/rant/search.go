package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/rant/internal/domain"
	"github.com/MrSnakeDoc/rant/internal/sources/seed"
	"github.com/MrSnakeDoc/rant/internal/store/sqlite"
)

type searchOptions struct {
	dbPath    string
	seedFile  string
	threshold float64
	limit     int
}

var searchOpts searchOptions

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the rant corpus offline",
	Long: `Run the search pipeline against a rant database and print the result as JSON.

The query accepts the same syntax as the API: mood:<name> filters by mood,
"quoted text" must appear verbatim, the rest is fuzzy matched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd.Context(), cmd.OutOrStdout(), searchOpts, strings.Join(args, " "))
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchOpts.dbPath, "db", "rant.db", "path to the rant database")
	searchCmd.Flags().StringVar(&searchOpts.seedFile, "seed", "", "seed file declaring the mood vocabulary (default: built-in moods)")
	searchCmd.Flags().Float64Var(&searchOpts.threshold, "threshold", domain.DefaultThreshold, "fuzzy score cutoff in (0,1], lower is stricter")
	searchCmd.Flags().IntVar(&searchOpts.limit, "limit", 20, "maximum number of matches printed (0 = all)")
}

func runSearch(ctx context.Context, w io.Writer, opts searchOptions, query string) error {
	if opts.threshold <= 0 || opts.threshold > 1 {
		return fmt.Errorf("threshold must be in (0,1], got %v", opts.threshold)
	}

	vocab := domain.DefaultVocabulary()
	if opts.seedFile != "" {
		file, err := seed.NewLoader(opts.seedFile).Load()
		if err != nil {
			return err
		}
		if len(file.Moods) > 0 {
			vocab = domain.NewVocabulary(file.Moods)
		}
	}

	store, err := sqlite.New(opts.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	corpus, err := store.ListRants(ctx, domain.FeedFilter{})
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	res := domain.NewSearcher(vocab, opts.threshold).Run(corpus, query)
	if opts.limit > 0 && len(res.Matches) > opts.limit {
		res.Matches = res.Matches[:opts.limit]
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
