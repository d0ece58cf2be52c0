package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"awakening-quiz-engine/internal/catalog"
	"awakening-quiz-engine/internal/config"
)

// NewValidateCmd builds the CLI subcommand that loads a dataset file and
// prints its validation report without starting a server.
func NewValidateCmd(configPath *string) *cobra.Command {
	var datasetPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a quiz dataset file and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := datasetPath
			if path == "" {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				path = cfg.Dataset.Path
			}

			provider := catalog.NewProvider(catalog.NewFileLoader(path))
			cat, err := provider.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, book := range cat.Books() {
				report := cat.Report()[book.ID]
				status := "ok"
				if report.CountMismatch() {
					status = fmt.Sprintf("declared %d, parsed %d", report.DeclaredCount, report.ActualCount)
				}
				fmt.Fprintf(out, "%-25s %3d questions  legendary=%s  %s\n", book.ID, report.ActualCount, book.Legendary.ID, status)
				for _, m := range report.Malformed {
					fmt.Fprintf(out, "  quarantined %s/%s: %s\n", m.Key.ChapterID, m.Key.ID, m.Reason)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "path to dataset JSON (defaults to config)")
	return cmd
}
