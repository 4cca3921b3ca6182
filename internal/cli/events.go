package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"machinespirit/internal/observability"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the pipeline event trail",
	Long: `Read the JSONL event log: resolutions, queue mutations, research
batches, corrections, and promotions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized")
		}
		eventType, _ := cmd.Flags().GetString("type")
		sinceStr, _ := cmd.Flags().GetString("since")

		filter := observability.EventFilter{Type: eventType}
		if sinceStr != "" {
			d, err := time.ParseDuration(sinceStr)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			since := time.Now().Add(-d)
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No matching events.")
			return nil
		}
		for _, e := range events {
			fmt.Printf("%s  %-5s %-22s %s\n",
				e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Type, e.Message)
			if topic, ok := e.Data["topic"]; ok {
				fmt.Printf("%41s topic: %v\n", "", topic)
			}
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().String("type", "", "Filter by event type (e.g. router.resolved, worker.batch)")
	eventsCmd.Flags().String("since", "", "Only events newer than this duration (e.g. 24h, 30m)")
	rootCmd.AddCommand(eventsCmd)
}
