package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"machinespirit/internal/core"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage the research queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List research queue items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Queue == nil {
			return fmt.Errorf("research queue not initialized")
		}
		items, err := Queue.Items()
		if err != nil {
			return fmt.Errorf("listing queue: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("Research queue is empty.")
			return nil
		}

		fmt.Printf("%d item(s):\n\n", len(items))
		fmt.Printf("  %-10s %-30s %-8s %-20s %s\n", "STATUS", "TOPIC", "TRIES", "REQUESTED", "REASON")
		for _, item := range items {
			fmt.Printf("  %-10s %-30s %-8d %-20s %s\n",
				item.Status, truncate(item.Topic, 28), item.Attempts,
				item.RequestedAt.Format("2006-01-02 15:04"), item.Reason)
		}
		return nil
	},
}

var queueAddCmd = &cobra.Command{
	Use:   "add <topic>",
	Short: "Queue a topic for research",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Queue == nil {
			return fmt.Errorf("research queue not initialized")
		}
		queued, err := Queue.Enqueue(args[0], "manual", "cli")
		if err != nil {
			return fmt.Errorf("queueing %q: %w", args[0], err)
		}
		if !queued {
			fmt.Printf("%q is already pending.\n", args[0])
			return nil
		}
		fmt.Printf("Queued %q for research.\n", args[0])
		return nil
	},
}

var queueRequeueCmd = &cobra.Command{
	Use:   "requeue <topic>",
	Short: "Force a topic back to pending for relearning",
	Long: `Reset the queue item for a topic to pending with attempt counters
cleared, dropping any existing draft. With --wipe the stored knowledge
entry is deleted too, so the next research pass starts from nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Queue == nil || Drafts == nil || Knowledge == nil {
			return fmt.Errorf("stores not initialized")
		}
		wipe, _ := cmd.Flags().GetBool("wipe")
		if err := core.ForceRelearn(Queue, Drafts, Knowledge, EventLog, args[0], wipe); err != nil {
			return fmt.Errorf("requeueing %q: %w", args[0], err)
		}
		if wipe {
			fmt.Printf("Requeued %q and wiped its knowledge entry.\n", args[0])
		} else {
			fmt.Printf("Requeued %q.\n", args[0])
		}
		return nil
	},
}

func init() {
	queueRequeueCmd.Flags().Bool("wipe", false, "Also delete the stored knowledge entry for the topic")
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueRequeueCmd)
	rootCmd.AddCommand(queueCmd)
}
