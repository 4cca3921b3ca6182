package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"machinespirit/internal/core"
	"machinespirit/internal/observability"
	"machinespirit/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize what the assistant knows and is studying",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Knowledge == nil || Queue == nil || Drafts == nil {
			return fmt.Errorf("stores not initialized")
		}

		entries, err := Knowledge.All()
		if err != nil {
			return fmt.Errorf("reading knowledge: %w", err)
		}
		taught := 0
		for _, e := range entries {
			if e.TaughtByUser {
				taught++
			}
		}

		items, err := Queue.Items()
		if err != nil {
			return fmt.Errorf("reading queue: %w", err)
		}
		byStatus := make(map[models.QueueStatus]int)
		for _, item := range items {
			byStatus[item.Status]++
		}

		drafts, err := Drafts.All()
		if err != nil {
			return fmt.Errorf("reading drafts: %w", err)
		}
		weak := 0
		for _, d := range drafts {
			if core.IsWeakDraft(d) {
				weak++
			}
		}

		fmt.Println("Machine Spirit status")
		fmt.Println()
		fmt.Printf("  Knowledge:  %d entr(ies), %d taught by user\n", len(entries), taught)
		fmt.Printf("  Queue:      %d pending, %d done, %d failed, %d cooldown\n",
			byStatus[models.QueuePending], byStatus[models.QueueDone],
			byStatus[models.QueueFailed], byStatus[models.QueueCooldown])
		fmt.Printf("  Drafts:     %d total, %d weak\n", len(drafts), weak)

		if Cfg != nil {
			for _, name := range []string{"knowledge.yaml", "research_queue.yaml", "drafts.yaml", "turns.yaml"} {
				info, err := os.Stat(filepath.Join(Cfg.DataDir, name))
				if err != nil {
					continue
				}
				fmt.Printf("  %-21s updated %s\n", name, info.ModTime().Format("2006-01-02 15:04"))
			}
		}

		if EventLog != nil {
			since := time.Now().AddDate(0, 0, -7)
			events, err := EventLog.Read(observability.EventFilter{Since: &since})
			if err == nil {
				fmt.Printf("  Activity:   %d event(s) in the last 7 days\n", len(events))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
