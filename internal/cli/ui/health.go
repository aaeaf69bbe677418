package ui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/fatih/color"

	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

// RenderHealth renders a health response as a tree, one node per check
func RenderHealth(server string, resp *entity.HealthCheckResponse, statusCode int) string {
	root := tree.Root(fmt.Sprintf("%s %s", rootStyle.Render(server), coloredStatus(resp.Status)))

	root.Child(formatKeyValue("HTTP", fmt.Sprintf("%d", statusCode)))
	if resp.Timestamp != "" {
		root.Child(formatKeyValue("Time", resp.Timestamp))
	}

	names := make([]string, 0, len(resp.Details))
	for name := range resp.Details {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := resp.Details[name]
		node := tree.Root(fmt.Sprintf("%s %s", valueStyle.Render(name), coloredStatus(check.Status)))
		if check.Message != "" {
			node.Child(keyStyle.Render(check.Message))
		}
		root.Child(node)
	}

	return root.String()
}

func formatKeyValue(key, value string) string {
	return fmt.Sprintf("%s %s", keyStyle.Render(key+":"), valueStyle.Render(value))
}

func coloredStatus(status entity.HealthStatus) string {
	switch status {
	case entity.HealthOK:
		return color.GreenString("● ok")
	case entity.HealthError:
		return color.RedString("● error")
	default:
		return color.YellowString("● %s", status)
	}
}
