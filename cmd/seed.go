package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alstn9213/open-insight/internal/etl"
)

var (
	seedRegionsPath    string
	seedCategoriesPath string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load region and category reference data from XLSX workbooks",
	Long: `Imports the administrative region list and the business category list
from XLSX seed files. Collection and analysis both require this reference
data, so run seed once after migrate on a fresh database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedRegionsPath == "" && seedCategoriesPath == "" {
			return fmt.Errorf("at least one of --regions or --categories is required")
		}

		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if seedRegionsPath != "" {
			regions, err := etl.LoadRegionsXLSX(seedRegionsPath)
			if err != nil {
				return err
			}
			n, err := st.UpsertRegions(cmd.Context(), regions)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d regions from %s\n", n, seedRegionsPath)
		}

		if seedCategoriesPath != "" {
			categories, err := etl.LoadCategoriesXLSX(seedCategoriesPath)
			if err != nil {
				return err
			}
			n, err := st.UpsertCategories(cmd.Context(), categories)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d categories from %s\n", n, seedCategoriesPath)
		}

		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedRegionsPath, "regions", "", "path to the region seed workbook")
	seedCmd.Flags().StringVar(&seedCategoriesPath, "categories", "", "path to the category seed workbook")
	rootCmd.AddCommand(seedCmd)
}
