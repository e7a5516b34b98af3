package cli

import (
	"fmt"

	"github.com/quiz-app/backend/internal/importer"
	"github.com/quiz-app/backend/internal/questions"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import questions from an .xlsx or .csv file",
		Long: "Import questions from a spreadsheet with topic, question and answer columns.\n" +
			"Rows missing a value are skipped and listed. Nothing is stored if the file cannot be read.",
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().Bool("replace", false, "Delete all existing questions before importing")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	parsed, err := importer.ParseFile(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	store := questions.NewStore(db, cfg.DB.Driver)

	replace, _ := cmd.Flags().GetBool("replace")
	if replace {
		if err := store.DeleteAll(ctx); err != nil {
			return err
		}
	}

	saved, err := store.SaveAll(ctx, parsed.Questions)
	if err != nil {
		return fmt.Errorf("save questions: %w", err)
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, row := range parsed.Skipped {
		fmt.Fprintf(out, "skipped row %d: %s\n", row.Row, row.Reason)
	}
	fmt.Fprintf(out, "imported %d questions, skipped %d, %d stored in total\n", saved, len(parsed.Skipped), total)
	return nil
}
