package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nobita2041/ai-chatbot/internal/cli/attachment"
	"github.com/nobita2041/ai-chatbot/internal/cli/session"
	"github.com/nobita2041/ai-chatbot/internal/cli/tui"
	"github.com/nobita2041/ai-chatbot/internal/cli/ui"
	"github.com/nobita2041/ai-chatbot/internal/validation"
)

var chatPrompt string

// chatCmd is the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "start interactive chat",
	Long: `Start an interactive chat session with the assistant.

Features:
  • 实时流式输出
  • 多轮对话上下文 (最近 100 条)
  • 图片附件与自定义 system prompt`,
	Example: `  # Start interactive chat
  $ chatctl chat

  # Start with a one-off system prompt
  $ chatctl chat --prompt "Answer like a pirate."

  # Inside the session:
  • Enter 发送, Esc 停止生成或退出
  • /image <path> 附加图片, /prompt [text] 修改提示词, /clear 清空对话`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatPrompt, "prompt", "p", "", "system prompt for this session")
	chatCmd.SilenceUsage = true
}

func runChat(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		ui.PrintError("unexpected argument: %s", args[0])
		fmt.Println("\nRun 'chatctl chat' to start interactive session.")
		return fmt.Errorf("invalid arguments")
	}

	cfg, apiClient, err := loadClient()
	if err != nil {
		return err
	}

	prompt := cfg.SystemPrompt
	if chatPrompt != "" {
		prompt = chatPrompt
	}

	controller := session.New(apiClient, session.Options{
		SystemPrompt:        prompt,
		DefaultSystemPrompt: cfg.SystemPrompt,
		// the alt screen owns the terminal
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	loader := attachment.NewLoader(validation.DefaultLimits())

	program := tui.NewChatProgram(controller, loader)
	if err := program.Run(); err != nil {
		return fmt.Errorf("failed to run chat TUI: %w", err)
	}

	return nil
}
