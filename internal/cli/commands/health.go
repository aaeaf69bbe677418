package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nobita2041/ai-chatbot/internal/cli/ui"
)

var healthDetailed bool

// healthCmd checks the relay
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "check the relay and its upstream",
	Example: `  $ chatctl health
  $ chatctl health --detailed`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVarP(&healthDetailed, "detailed", "d", false, "also check the upstream credential and API")
	healthCmd.SilenceUsage = true
}

func runHealth(cmd *cobra.Command, args []string) error {
	_, apiClient, err := loadClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	resp, status, err := apiClient.Health(ctx, healthDetailed)
	if err != nil {
		ui.PrintError("health check failed: %v", err)
		return fmt.Errorf("relay unreachable")
	}

	fmt.Println(ui.RenderHealth(apiClient.Server(), resp, status))

	if status != http.StatusOK {
		return fmt.Errorf("relay unhealthy")
	}
	return nil
}
