package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/nobita2041/ai-chatbot/internal/cli/client"
	"github.com/nobita2041/ai-chatbot/internal/cli/config"
	"github.com/nobita2041/ai-chatbot/internal/cli/ui"
)

// configureCmd saves the relay address
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "set the relay address",
	Long: `Save the relay address to ~/.chatctl/config.json. The relay is checked
with a health request before the address is saved.

If no server is given with -s, you are prompted for one.`,
	Example: `  $ chatctl configure
  $ chatctl configure -s https://chat.example.com`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	configureCmd.SilenceUsage = true
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		ui.PrintError("failed to load config: %v", err)
		return fmt.Errorf("config load failed")
	}

	server := serverFlag
	if server == "" {
		prompt := &survey.Input{
			Message: "Relay address:",
			Default: cfg.Server,
		}
		if err := survey.AskOne(prompt, &server, survey.WithValidator(survey.Required)); err != nil {
			ui.PrintError("failed to read server: %v", err)
			return fmt.Errorf("input failed")
		}
	}

	apiClient, err := client.NewAPIClient(server)
	if err != nil {
		ui.PrintError("invalid server: %v", err)
		return fmt.Errorf("client creation failed")
	}

	ui.PrintInfo("Connecting to %s...", apiClient.Server())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, _, err := apiClient.Health(ctx, false); err != nil {
		ui.PrintErrorBox("Relay Unreachable", err.Error())
		return fmt.Errorf("health check failed")
	}

	cfg.Server = apiClient.Server()
	if err := cfg.Save(); err != nil {
		ui.PrintError("failed to save config: %v", err)
		return fmt.Errorf("config save failed")
	}

	configPath, _ := config.GetConfigPath()
	ui.PrintSuccessBox("✓ Relay Configured", fmt.Sprintf("Server:         %s\nConfig saved:   %s", cfg.Server, configPath))

	fmt.Println()
	ui.PrintInfo("You can now use the following commands:")
	ui.PrintBold("  chatctl chat            # Interactive chat")
	ui.PrintBold("  chatctl ask \"...\"       # One-off question")

	return nil
}
