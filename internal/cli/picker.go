package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// pickDraftTopic shows a numbered list of draft topics and returns the
// selected one. Returns an error if the user cancels.
func pickDraftTopic(candidates []string) (string, error) {
	fmt.Println("\nSeveral drafts match:")
	fmt.Println()
	for i, topic := range candidates {
		fmt.Printf("  %-4d %s\n", i+1, topic)
	}
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("Select draft [1-%d] (or 'q' to cancel): ", len(candidates))
		input, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "q" || input == "Q" {
			return "", fmt.Errorf("cancelled")
		}

		num, err := strconv.Atoi(input)
		if err != nil || num < 1 || num > len(candidates) {
			fmt.Printf("  Invalid selection. Enter a number between 1 and %d.\n", len(candidates))
			continue
		}
		return candidates[num-1], nil
	}
}
