package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/alstn9213/open-insight/internal/analysis"
	"github.com/alstn9213/open-insight/internal/model"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank markets from the command line",
	Long: `Ranks ingested markets the same way the rankings endpoint does.

Examples:
  # Top markets by customers per store
  rank --sort OPPORTUNITY

  # Most saturated markets in one region
  rank --adm-code 1168051000 --sort OVERCROWDED

  # Weighted score ranking, exported to CSV
  rank --weights 0.5,0.3,0.2 --format csv --output ranking.csv`,
	RunE: runRank,
}

func init() {
	f := rankCmd.Flags()
	f.String("adm-code", "", "restrict candidates to one region (default: all regions)")
	f.Int64("category", 0, "category ID filter")
	f.String("sort", "", "sort option: OPPORTUNITY, OVERCROWDED, POPULATION, STORE_COUNT")
	f.String("weights", "", "comma-separated sales,stability,growth weights for score ranking")
	f.Int("limit", 0, "maximum number of results (0=use config default)")
	f.String("format", "table", "output format: table or csv")
	f.String("output", "", "output file path (default: stdout)")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	st, err := initStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	admCode, _ := cmd.Flags().GetString("adm-code")
	categoryID, _ := cmd.Flags().GetInt64("category")
	sortOption, _ := cmd.Flags().GetString("sort")
	weightsArg, _ := cmd.Flags().GetString("weights")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	if format != "table" && format != "csv" {
		return eris.Errorf("rank: --format must be table or csv (got %q)", format)
	}

	req := model.RankingRequest{
		AdmCode:    admCode,
		CategoryID: categoryID,
		SortOption: model.SortOption(sortOption),
	}
	if weightsArg != "" {
		weights, err := parseWeights(weightsArg)
		if err != nil {
			return err
		}
		req.Weights = weights
	}
	if req.Weights == nil && !req.SortOption.Valid() {
		return eris.Errorf("rank: --sort or --weights is required (got sort %q)", sortOption)
	}

	if limit <= 0 {
		limit = cfg.Ranking.TopN
	}
	analyzer := analysis.NewAnalyzer(st, nil, limit)

	results, err := analyzer.GetRankings(cmd.Context(), req)
	if err != nil {
		return eris.Wrap(err, "rank")
	}

	return outputRankResults(results, format, outputPath)
}

// parseWeights parses "sales,stability,growth" into a weight option.
func parseWeights(arg string) (*model.WeightOption, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 3 {
		return nil, eris.Errorf("rank: --weights needs 3 comma-separated values (got %q)", arg)
	}

	values := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "rank: parse weight %q", p)
		}
		if v < 0 {
			return nil, eris.Errorf("rank: weights must be non-negative (got %v)", v)
		}
		values[i] = v
	}

	return &model.WeightOption{
		SalesWeight:     values[0],
		StabilityWeight: values[1],
		GrowthWeight:    values[2],
	}, nil
}

func outputRankResults(results []model.RankedResult, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "rank: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return writeRankCSV(w, results)
	default:
		return writeRankTable(w, results)
	}
}

func writeRankCSV(w *os.File, results []model.RankedResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"rank", "region", "category", "store_count", "floating_population", "pop_per_store", "score", "badge"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "rank: write CSV header")
	}

	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Rank),
			r.RegionName,
			r.CategoryName,
			strconv.Itoa(r.StoreCount),
			strconv.Itoa(r.FloatingPopulation),
			fmt.Sprintf("%.1f", r.PopulationPerStore),
			fmt.Sprintf("%.1f", r.Score),
			r.Badge,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "rank: write CSV row")
		}
	}
	return nil
}

func writeRankTable(w *os.File, results []model.RankedResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No markets matched.")
		return err
	}

	header := fmt.Sprintf("%-5s %-30s %-20s %8s %12s %12s %8s %-20s\n",
		"Rank", "Region", "Category", "Stores", "Population", "Pop/Store", "Score", "Badge")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "rank: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 120)); err != nil {
		return eris.Wrap(err, "rank: write table separator")
	}

	for _, r := range results {
		name := r.RegionName
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		line := fmt.Sprintf("%-5d %-30s %-20s %8d %12d %12.1f %8.1f %-20s\n",
			r.Rank, name, r.CategoryName, r.StoreCount, r.FloatingPopulation,
			r.PopulationPerStore, r.Score, r.Badge)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "rank: write table row")
		}
	}
	return nil
}
