package commands

import (
	"fmt"
	"unicode/utf8"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/nobita2041/ai-chatbot/internal/cli/config"
	"github.com/nobita2041/ai-chatbot/internal/cli/ui"
	"github.com/nobita2041/ai-chatbot/internal/validation"
)

var (
	promptReset bool
	promptShow  bool
)

// promptCmd edits the saved system prompt
var promptCmd = &cobra.Command{
	Use:   "prompt [text]",
	Short: "view or change the saved system prompt",
	Long: `Set the system prompt sent with every chat. Without arguments an editor
prompt is opened. The relay's default prompt is used while none is saved.`,
	Example: `  $ chatctl prompt "You are a concise assistant."
  $ chatctl prompt
  $ chatctl prompt --show
  $ chatctl prompt --reset`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().BoolVar(&promptReset, "reset", false, "remove the saved prompt")
	promptCmd.Flags().BoolVar(&promptShow, "show", false, "print the saved prompt")
	promptCmd.SilenceUsage = true
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		ui.PrintError("failed to load config: %v", err)
		return fmt.Errorf("config load failed")
	}

	switch {
	case promptShow:
		if cfg.SystemPrompt == "" {
			ui.PrintInfo("No system prompt saved, the relay default is used.")
			return nil
		}
		fmt.Println(cfg.SystemPrompt)
		return nil

	case promptReset:
		cfg.SystemPrompt = ""

	case len(args) == 1:
		cfg.SystemPrompt = args[0]

	default:
		editor := &survey.Editor{
			Message:       "System prompt:",
			Default:       cfg.SystemPrompt,
			AppendDefault: true,
			HideDefault:   true,
		}
		var text string
		if err := survey.AskOne(editor, &text, survey.WithValidator(survey.Required)); err != nil {
			ui.PrintError("failed to read prompt: %v", err)
			return fmt.Errorf("input failed")
		}
		cfg.SystemPrompt = text
	}

	if err := checkPrompt(cfg.SystemPrompt); err != nil {
		ui.PrintError("%v", err)
		return err
	}

	if err := cfg.Save(); err != nil {
		ui.PrintError("failed to save config: %v", err)
		return fmt.Errorf("config save failed")
	}

	if cfg.SystemPrompt == "" {
		ui.PrintSuccess("System prompt reset to the relay default")
	} else {
		ui.PrintSuccess("System prompt saved (%d characters)", utf8.RuneCountInString(cfg.SystemPrompt))
	}
	return nil
}

// checkPrompt applies the relay's length bound locally
func checkPrompt(prompt string) error {
	max := validation.DefaultLimits().SystemPromptMaxLength
	if n := utf8.RuneCountInString(prompt); n > max {
		return fmt.Errorf("system prompt is %d characters, at most %d allowed", n, max)
	}
	return nil
}
