package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var teachCmd = &cobra.Command{
	Use:   "teach <topic> <answer>",
	Short: "Teach the assistant an answer",
	Long: `Store a user-supplied answer for a topic. Taught answers carry high
confidence and override whatever the assistant previously believed.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Teacher == nil {
			return fmt.Errorf("teacher not initialized")
		}
		topic := args[0]
		answer := strings.Join(args[1:], " ")

		entry, err := Teacher.Teach(topic, answer)
		if err != nil {
			return fmt.Errorf("teaching %q: %w", topic, err)
		}
		fmt.Printf("Learned %q (confidence %.2f).\n", entry.Topic, entry.Confidence)

		aliases, _ := cmd.Flags().GetStringSlice("alias")
		for _, alias := range aliases {
			if err := Knowledge.AddAlias(alias, topic); err != nil {
				return fmt.Errorf("adding alias %q: %w", alias, err)
			}
			fmt.Printf("Alias %q -> %q.\n", alias, entry.Topic)
		}
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <topic>",
	Short: "Delete a knowledge entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Knowledge == nil {
			return fmt.Errorf("knowledge store not initialized")
		}
		removed, err := Knowledge.Delete(args[0])
		if err != nil {
			return fmt.Errorf("forgetting %q: %w", args[0], err)
		}
		if !removed {
			fmt.Printf("Nothing stored for %q.\n", args[0])
			return nil
		}
		fmt.Printf("Forgot %q.\n", args[0])
		return nil
	},
}

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "List stored knowledge entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Knowledge == nil {
			return fmt.Errorf("knowledge store not initialized")
		}
		entries, err := Knowledge.All()
		if err != nil {
			return fmt.Errorf("listing knowledge: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No knowledge stored yet. Use 'spirit teach' or 'spirit ask'.")
			return nil
		}

		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Printf("%d entr(ies):\n\n", len(keys))
		for _, key := range keys {
			e := entries[key]
			marker := " "
			if e.TaughtByUser {
				marker = "*"
			}
			fmt.Printf("  %s %-30s %.2f  %s\n", marker, key, e.Confidence, truncate(e.Answer, 60))
		}
		fmt.Println("\n  * taught by user")
		return nil
	},
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func init() {
	teachCmd.Flags().StringSlice("alias", nil, "Additional topic aliases that resolve to this entry")
	rootCmd.AddCommand(teachCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(knowledgeCmd)
}
