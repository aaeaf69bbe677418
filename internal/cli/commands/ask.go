package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nobita2041/ai-chatbot/internal/cli/attachment"
	"github.com/nobita2041/ai-chatbot/internal/cli/client"
	"github.com/nobita2041/ai-chatbot/internal/cli/session"
	"github.com/nobita2041/ai-chatbot/internal/cli/ui"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
	"github.com/nobita2041/ai-chatbot/internal/validation"
)

var (
	askImages []string
	askPrompt string
	askSimple bool
)

// askCmd sends one question and prints the reply
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "ask a single question and print the reply",
	Long: `Send one message and print the assistant's reply as it streams in.
Press Ctrl+C to stop the reply early.`,
	Example: `  $ chatctl ask "Explain goroutines in one paragraph"
  $ chatctl ask "Describe this chart" --image chart.png
  $ chatctl ask "Hello" --simple`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askImages, "image", "i", nil, "image file to attach (repeatable)")
	askCmd.Flags().StringVarP(&askPrompt, "prompt", "p", "", "system prompt for this question")
	askCmd.Flags().BoolVar(&askSimple, "simple", false, "wait for the complete reply instead of streaming")
	askCmd.SilenceUsage = true
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" && len(askImages) == 0 {
		ui.PrintError("a question or at least one --image is required")
		return fmt.Errorf("invalid arguments")
	}

	cfg, apiClient, err := loadClient()
	if err != nil {
		return err
	}

	prompt := cfg.SystemPrompt
	if askPrompt != "" {
		prompt = askPrompt
	}

	loader := attachment.NewLoader(validation.DefaultLimits())
	images := make([]entity.ImageContent, 0, len(askImages))
	for _, path := range askImages {
		att, err := loader.Load(path)
		if err != nil {
			ui.PrintError("%v", err)
			return fmt.Errorf("attachment failed")
		}
		images = append(images, att.Image)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if askSimple {
		return askOnce(ctx, apiClient, question, images, prompt)
	}
	return askStreaming(ctx, apiClient, question, images, prompt)
}

// askStreaming drives a one-turn session and echoes the reply as it grows
func askStreaming(ctx context.Context, transport session.Transport, question string, images []entity.ImageContent, prompt string) error {
	controller := session.New(transport, session.Options{SystemPrompt: prompt})
	defer controller.Dispose()

	var (
		mu      sync.Mutex
		printed int
	)
	controller.Subscribe(func(s session.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if len(s.Streaming) > printed {
			fmt.Print(s.Streaming[printed:])
			printed = len(s.Streaming)
		}
	})

	turn, err := controller.Send(question, images)
	if err != nil {
		ui.PrintError("%v", err)
		return err
	}

	outcome, err := turn.Wait(ctx)
	if err != nil {
		controller.Cancel()
		outcome = turn.Outcome()
	}

	snap := controller.Snapshot()
	mu.Lock()
	defer mu.Unlock()

	switch outcome {
	case session.OutcomeCompleted:
		final := snap.History[len(snap.History)-1].Content.Text
		if len(final) > printed {
			fmt.Print(final[printed:])
		}
		fmt.Println()
		return nil
	case session.OutcomeCancelled:
		fmt.Println()
		ui.PrintWarning("stopped")
		return nil
	default:
		if printed > 0 {
			fmt.Println()
		}
		ui.PrintError("%s", snap.Err)
		return fmt.Errorf("request %s", outcome)
	}
}

// askOnce uses the non-streaming endpoint
func askOnce(ctx context.Context, apiClient *client.APIClient, question string, images []entity.ImageContent, prompt string) error {
	msg := entity.Message{Role: entity.RoleUser, Content: session.BuildContent(question, images)}

	resp, err := apiClient.ChatSimple(ctx, &entity.ChatRequest{
		Messages:     []entity.ChatRequestMessage{msg.ToRequest()},
		SystemPrompt: prompt,
	})
	if err != nil {
		ui.PrintError("%s", session.Describe(err))
		return err
	}

	fmt.Println(resp.Message.Content)
	return nil
}
