package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show finished trainings, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		asJSON, _ := cmd.Flags().GetBool("json")
		limit, _ := cmd.Flags().GetInt("limit")

		return withBackend(cmd, func(cmd *cobra.Command, b store.Backend) error {
			records, err := b.ListFinished(cmd.Context())
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			st := appstate.InitialState()
			st.Training.History = records
			records = appstate.FilterHistory(filter)(st)
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Println("No finished trainings found.")
				return nil
			}

			fmt.Printf("%-16s  %-24s  %8s  %8s  %s\n", "Date", "Name", "Seconds", "Kcal", "State")
			fmt.Println(strings.Repeat("─", 72))
			for _, r := range records {
				fmt.Printf("%-16s  %-24s  %8.0f  %8.1f  %s\n",
					r.Date.Local().Format("2006-01-02 15:04"), r.Name, r.Duration, r.Calories, r.State)
			}
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().String("filter", "", "Case-insensitive text to match in any column")
	historyCmd.Flags().Bool("json", false, "Print records as JSON")
	historyCmd.Flags().Int("limit", 0, "Show at most this many records (0 = all)")
}
