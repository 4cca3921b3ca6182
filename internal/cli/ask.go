package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"machinespirit/internal/core"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant a question",
	Long: `Resolve a question through the answer pipeline: arithmetic, cached
knowledge, built-in facts, research, and reasoned fallback.

If the message corrects the previous answer on the same channel
("no, that's wrong...", "actually, ..."), the correction overwrites
the stored answer instead of being routed as a new question.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Router == nil {
			return fmt.Errorf("router not initialized")
		}
		question := strings.Join(args, " ")
		channel, _ := cmd.Flags().GetString("channel")

		if Teacher != nil && Turns != nil {
			if prev, ok, err := Turns.Last(channel); err == nil && ok {
				entry, applied, err := Teacher.RecordCorrection(prev.Question, prev.Answer, question)
				if err != nil {
					return fmt.Errorf("recording correction: %w", err)
				}
				if applied {
					fmt.Printf("Corrected. I'll remember: %s\n", entry.Answer)
					return nil
				}
			}
		}

		res := Router.Resolve(context.Background(), question, channel)
		fmt.Println(core.Explain(res))
		return nil
	},
}

var correctCmd = &cobra.Command{
	Use:   "correct <message>",
	Short: "Correct the previous answer on a channel",
	Long: `Apply a correction to the most recent answer, e.g.
"spirit correct no, that's wrong. It is a Ryzen 7 desktop." The stored
answer for the previous question is overwritten.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Teacher == nil || Turns == nil {
			return fmt.Errorf("teacher not initialized")
		}
		channel, _ := cmd.Flags().GetString("channel")
		prev, ok, err := Turns.Last(channel)
		if err != nil {
			return fmt.Errorf("reading last turn: %w", err)
		}
		if !ok {
			fmt.Printf("Nothing to correct on channel %q yet.\n", channel)
			return nil
		}

		message := strings.Join(args, " ")
		entry, applied, err := Teacher.RecordCorrection(prev.Question, prev.Answer, message)
		if err != nil {
			return fmt.Errorf("recording correction: %w", err)
		}
		if !applied {
			fmt.Println("That doesn't read as a correction. Start with \"no, that's wrong\" or \"the correct answer is ...\".")
			return nil
		}
		fmt.Printf("Corrected. I'll remember: %s\n", entry.Answer)
		return nil
	},
}

func init() {
	askCmd.Flags().String("channel", "cli", "Conversation channel (turn histories are kept separate per channel)")
	correctCmd.Flags().String("channel", "cli", "Channel whose last answer to correct")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(correctCmd)
}
