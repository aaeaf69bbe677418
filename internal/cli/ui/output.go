package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Out is where status lines and boxes go. color.Output handles Windows consoles.
var Out io.Writer = color.Output

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
)

func line(c *color.Color, symbol, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if symbol != "" {
		msg = symbol + " " + msg
	}
	_, _ = c.Fprintln(Out, msg)
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) { line(successColor, "✓", format, args...) }

// PrintError prints an error message
func PrintError(format string, args ...interface{}) { line(errorColor, "✗", format, args...) }

func PrintWarning(format string, args ...interface{}) { line(warningColor, "⚠", format, args...) }

func PrintInfo(format string, args ...interface{}) { line(infoColor, "ℹ", format, args...) }

func PrintBold(format string, args ...interface{}) { line(boldColor, "", format, args...) }

// PrintSuccessBox prints title and content in a green box
func PrintSuccessBox(title, content string) {
	_, _ = fmt.Fprintln(Out, Styles.SuccessBox.Render(successColor.Sprint(title)+"\n\n"+content))
}

// PrintErrorBox prints title and content in a red box
func PrintErrorBox(title, content string) {
	_, _ = fmt.Fprintln(Out, Styles.ErrorBox.Render(errorColor.Sprint(title)+"\n\n"+content))
}
