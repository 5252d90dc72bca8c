package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the state of a generation job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := apiClient.Status(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	fmt.Printf("Job: %s\n", args[0])
	fmt.Printf("  Status: %s\n", st.Status)
	fmt.Printf("  Progress: %d%%\n", st.Progress)
	fmt.Printf("  Message: %s\n", st.Message)
	if st.Error != "" {
		fmt.Printf("  Error: %s\n", st.Error)
	}

	return nil
}
