package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"machinespirit/internal/core"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Review and promote synthesized draft answers",
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List synthesized drafts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Drafts == nil {
			return fmt.Errorf("draft store not initialized")
		}
		drafts, err := Drafts.All()
		if err != nil {
			return fmt.Errorf("listing drafts: %w", err)
		}
		if len(drafts) == 0 {
			fmt.Println("No drafts yet. Run 'spirit research' to synthesize queued topics.")
			return nil
		}

		keys := make([]string, 0, len(drafts))
		for key := range drafts {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Printf("%d draft(s):\n\n", len(keys))
		fmt.Printf("  %-30s %-12s %-12s %s\n", "TOPIC", "KIND", "PROVENANCE", "CREATED")
		for _, key := range keys {
			d := drafts[key]
			weak := ""
			if core.IsWeakDraft(d) {
				weak = "  (weak)"
			}
			fmt.Printf("  %-30s %-12s %-12s %s%s\n",
				truncate(d.Topic, 28), d.Kind, d.Provenance,
				d.CreatedAt.Format("2006-01-02 15:04"), weak)
		}
		return nil
	},
}

var draftsShowCmd = &cobra.Command{
	Use:   "show <topic>",
	Short: "Show a draft's short and detailed text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Drafts == nil {
			return fmt.Errorf("draft store not initialized")
		}
		draft, ok, err := Drafts.Get(args[0])
		if err != nil {
			return fmt.Errorf("reading draft: %w", err)
		}
		if !ok {
			fmt.Printf("No draft for %q.\n", args[0])
			return nil
		}
		fmt.Printf("%s  [%s, %s]\n\n", draft.Topic, draft.Kind, draft.Provenance)
		fmt.Printf("Short:\n  %s\n\nDetailed:\n", draft.Short)
		for _, line := range strings.Split(draft.Detailed, "\n") {
			fmt.Printf("  %s\n", line)
		}
		return nil
	},
}

var draftsReviewCmd = &cobra.Command{
	Use:   "review <question>",
	Short: "Find the draft that best answers a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reviewer == nil {
			return fmt.Errorf("reviewer not initialized")
		}
		question := strings.Join(args, " ")
		noInput, _ := cmd.Flags().GetBool("no-input")
		match, err := Reviewer.FindBestDraft(question)
		if err != nil {
			return fmt.Errorf("reviewing drafts: %w", err)
		}

		switch match.Outcome {
		case core.MatchNone:
			fmt.Println("No draft matches. Queue the topic with 'spirit queue add'.")
		case core.MatchSingle:
			fmt.Printf("%s\n\n%s\n\nApprove with: spirit drafts approve %q\n",
				match.Draft.Topic, core.RenderDraft(*match.Draft), match.Key)
		case core.MatchMultiple:
			if noInput {
				fmt.Println("Several drafts match; ask again naming one topic:")
				for _, topic := range match.Candidates {
					fmt.Printf("  - %s\n", topic)
				}
				return nil
			}
			topic, err := pickDraftTopic(match.Candidates)
			if err != nil {
				return err
			}
			return draftsShowCmd.RunE(cmd, []string{topic})
		}
		return nil
	},
}

var draftsApproveCmd = &cobra.Command{
	Use:   "approve <topic>",
	Short: "Promote a draft into permanent knowledge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reviewer == nil {
			return fmt.Errorf("reviewer not initialized")
		}
		entry, err := Reviewer.Promote(args[0])
		if err != nil {
			return fmt.Errorf("approving draft: %w", err)
		}
		fmt.Printf("Promoted %q into knowledge (confidence %.2f).\n", entry.Topic, entry.Confidence)
		return nil
	},
}

var draftsDropCmd = &cobra.Command{
	Use:   "drop <topic>",
	Short: "Discard a draft without promoting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Drafts == nil {
			return fmt.Errorf("draft store not initialized")
		}
		removed, err := Drafts.Delete(args[0])
		if err != nil {
			return fmt.Errorf("dropping draft: %w", err)
		}
		if !removed {
			fmt.Printf("No draft for %q.\n", args[0])
			return nil
		}
		fmt.Printf("Dropped draft %q.\n", args[0])
		return nil
	},
}

func init() {
	draftsReviewCmd.Flags().Bool("no-input", false, "List ambiguous matches instead of prompting")
	draftsCmd.AddCommand(draftsListCmd)
	draftsCmd.AddCommand(draftsShowCmd)
	draftsCmd.AddCommand(draftsReviewCmd)
	draftsCmd.AddCommand(draftsApproveCmd)
	draftsCmd.AddCommand(draftsDropCmd)
	rootCmd.AddCommand(draftsCmd)
}
