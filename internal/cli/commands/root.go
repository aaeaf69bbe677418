package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nobita2041/ai-chatbot/internal/cli/client"
	"github.com/nobita2041/ai-chatbot/internal/cli/config"
	"github.com/nobita2041/ai-chatbot/internal/cli/ui"
)

const version = "0.1.0"

// serverFlag overrides the configured relay address for one invocation
var serverFlag string

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:     "chatctl",
	Short:   "AI chatbot terminal client",
	Version: version,
	Long: `A terminal client for the AI chatbot relay. Streams assistant replies as they
are generated, keeps the conversation history for the session and supports
image attachments and a custom system prompt.`,
	Example: `  # Point the client at a relay
  $ chatctl configure -s http://localhost:8080

  # Start interactive chat
  $ chatctl chat

  # Ask a single question about an image
  $ chatctl ask "What is in this picture?" --image cat.png

  # Check the relay and its upstream
  $ chatctl health --detailed`,
}

// Execute executes the root command
func Execute() error {
	rootCmd.SetVersionTemplate(formatVersion())
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "relay address (overrides the saved config)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(healthCmd)

	// Set custom template with bold uppercase headers
	rootCmd.SetUsageTemplate(usageTemplate())
	rootCmd.SetHelpTemplate(usageTemplate())
}

// loadClient resolves the config and builds an API client
func loadClient() (*config.Config, *client.APIClient, error) {
	cfg, err := config.Load()
	if err != nil {
		ui.PrintError("failed to load config: %v", err)
		return nil, nil, fmt.Errorf("config load failed")
	}
	if serverFlag != "" {
		cfg.Server = serverFlag
	}

	apiClient, err := client.NewAPIClient(cfg.Server)
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return nil, nil, fmt.Errorf("client creation failed")
	}
	return cfg, apiClient, nil
}

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + ui.Styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + ui.Styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + ui.Styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + ui.Styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}

// formatVersion formats the version output
func formatVersion() string {
	return fmt.Sprintf("chatctl version %s\n", version)
}
