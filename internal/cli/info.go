package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"policyrag/internal/domain"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show collection diagnostics",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "output as JSON")
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	idx, err := openIndex(cfg, GetRootDir(), true)
	if err != nil {
		return err
	}
	defer idx.Close()

	info, err := idx.Info(domain.Collection{Name: cfg.Collection.Name})
	if err != nil {
		return fmt.Errorf("failed to read collection: %w", err)
	}

	if infoJSON {
		output, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Collection: %s\n", info.Name)
	fmt.Printf("  Location:  %s\n", info.Location)
	fmt.Printf("  Documents: %d\n", info.Count)
	fmt.Printf("  Dimension: %d\n", info.Dimension)
	fmt.Printf("  Metric:    %s\n", info.Metric)
	if info.Model != "" {
		fmt.Printf("  Model:     %s\n", info.Model)
	}
	if !info.CreatedAt.IsZero() {
		fmt.Printf("  Created:   %s\n", info.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}

	names, err := idx.Collections()
	if err == nil && len(names) > 1 {
		fmt.Printf("\nOther collections in this index:\n")
		for _, name := range names {
			if name != info.Name {
				fmt.Printf("  - %s\n", name)
			}
		}
	}
	return nil
}
