package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/finchat/advisor/config"
	"github.com/finchat/advisor/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	advisorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	replyStyle = lipgloss.NewStyle().
			Width(80)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// runChat drives the advisor engine from an interactive terminal session.
// State lives in memory and is discarded on exit.
func runChat(cfg *config.Config) error {
	logger := newLogger(cfg)
	ctx := context.Background()

	engine, sessions, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sessions.Close()

	sessionID := uuid.NewString()

	fmt.Println(titleStyle.Render("AI Financial Advisor"))
	fmt.Println(hintStyle.Render("Tell me about your finances or ask about a stock. Type 'exit' to quit."))
	fmt.Println()

	for {
		var message string
		prompt := &survey.Input{
			Message: "You:",
		}
		if err := survey.AskOne(prompt, &message); err != nil {
			// Ctrl-C or closed stdin ends the session.
			return nil
		}

		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			fmt.Println(hintStyle.Render("Goodbye."))
			return nil
		}

		reply, err := engine.HandleTurn(ctx, sessionID, &models.TurnRequest{Message: message})
		if err != nil {
			fmt.Println(errorStyle.Render("error: " + err.Error()))
			continue
		}

		fmt.Println(advisorStyle.Render("Advisor:"))
		fmt.Println(replyStyle.Render(reply))
		fmt.Println()
	}
}
