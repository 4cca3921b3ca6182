package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run the research worker over queued topics",
	Long: `Drain pending research queue items, synthesizing a draft answer for
each topic. Strong existing drafts are preserved; weak ones are
regenerated. Interrupting the run keeps already-processed items.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Worker == nil {
			return fmt.Errorf("research worker not initialized")
		}
		batch, _ := cmd.Flags().GetInt("batch")
		loop, _ := cmd.Flags().GetBool("loop")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var (
			count int
			err   error
		)
		if loop {
			count, err = Worker.RunLoop(ctx, batch, 0)
		} else {
			count, err = Worker.Run(ctx, batch)
		}
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("running research: %w", err)
		}
		if ctx.Err() != nil {
			fmt.Printf("Interrupted after %d draft(s).\n", count)
			return nil
		}
		fmt.Printf("Synthesized %d draft(s).\n", count)
		return nil
	},
}

func init() {
	researchCmd.Flags().Int("batch", 5, "Maximum queue items per batch")
	researchCmd.Flags().Bool("loop", false, "Keep running batches until the queue drains")
	rootCmd.AddCommand(researchCmd)
}
