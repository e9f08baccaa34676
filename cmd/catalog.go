package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/catalog"
	"github.com/abhisek/fitrack/internal/store"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the available exercises",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(cmd *cobra.Command, b store.Backend) error {
			exercises, err := b.ListExercises(cmd.Context())
			if err != nil {
				return fmt.Errorf("list exercises: %w", err)
			}
			if len(exercises) == 0 {
				fmt.Println("No exercises. Run `fitrack catalog seed` or `fitrack catalog import <file>`.")
				return nil
			}
			printExercises(exercises)
			return nil
		})
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace the catalog with exercises from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exercises, err := catalog.Load(args[0])
		if err != nil {
			return err
		}
		return withBackend(cmd, func(cmd *cobra.Command, b store.Backend) error {
			if err := b.PutExercises(cmd.Context(), exercises); err != nil {
				return fmt.Errorf("store exercises: %w", err)
			}
			fmt.Printf("Imported %d exercises.\n", len(exercises))
			return nil
		})
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty catalog with the built-in exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return withBackend(cmd, func(cmd *cobra.Command, b store.Backend) error {
			existing, err := b.ListExercises(cmd.Context())
			if err != nil {
				return fmt.Errorf("list exercises: %w", err)
			}
			if len(existing) > 0 && !force {
				fmt.Printf("Catalog already has %d exercises; use --force to replace them.\n", len(existing))
				return nil
			}
			seed := catalog.Default()
			if err := b.PutExercises(cmd.Context(), seed); err != nil {
				return fmt.Errorf("store exercises: %w", err)
			}
			fmt.Printf("Seeded %d exercises.\n", len(seed))
			return nil
		})
	},
}

func init() {
	catalogSeedCmd.Flags().Bool("force", false, "Replace a non-empty catalog")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogSeedCmd)
}

// withBackend runs fn against the configured store, logging to stderr.
func withBackend(cmd *cobra.Command, fn func(*cobra.Command, store.Backend) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(os.Stderr, cfg)
	if err != nil {
		return err
	}
	b, err := openBackend(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(cmd, b)
}

func printExercises(exercises []appstate.Exercise) {
	fmt.Printf("%-16s  %-24s  %8s  %8s\n", "ID", "Name", "Seconds", "Kcal")
	fmt.Println(strings.Repeat("─", 62))
	for _, ex := range exercises {
		fmt.Printf("%-16s  %-24s  %8d  %8g\n", ex.ID, ex.Name, ex.Duration, ex.Calories)
	}
}
