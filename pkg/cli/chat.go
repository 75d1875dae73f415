package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/docufy-dev/docufy/pkg/cli/config"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/service/notion"
	"github.com/docufy-dev/docufy/pkg/service/websearch"
	"github.com/docufy-dev/docufy/pkg/usecase"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
)

func cmdChat() *cli.Command {
	var workspaceID string
	var userID string
	var notionAPIToken string
	var jinaAPIKey string

	var workspacesCfg config.Workspaces
	var repoCfg config.Repository
	var llmCfg config.LLM

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "workspace",
			Aliases:     []string{"w"},
			Usage:       "Workspace ID to chat in",
			Value:       "default",
			Sources:     cli.EnvVars("DOCUFY_WORKSPACE"),
			Destination: &workspaceID,
		},
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID owning the memory facts (required)",
			Required:    true,
			Sources:     cli.EnvVars("DOCUFY_USER"),
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token for page import",
			Sources:     cli.EnvVars("DOCUFY_NOTION_API_TOKEN"),
			Destination: &notionAPIToken,
		},
		&cli.StringFlag{
			Name:        "jina-api-key",
			Usage:       "Jina AI API key for web search",
			Sources:     cli.EnvVars("DOCUFY_JINA_API_KEY"),
			Destination: &jinaAPIKey,
		},
	}
	flags = append(flags, workspacesCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)

	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"c"},
		Usage:   "Interactive chat session on the terminal",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			registry, err := workspacesCfg.Configure()
			if err != nil {
				return err
			}
			if _, err := registry.Get(workspaceID); err != nil {
				return goerr.Wrap(err, "unknown workspace", goerr.V("workspace", workspaceID))
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if llmClient == nil {
				return goerr.New("LLM provider is not configured; chat requires one")
			}

			ucOpts := []usecase.Option{}
			if notionAPIToken != "" {
				notionService, err := notion.New(notionAPIToken)
				if err != nil {
					return err
				}
				ucOpts = append(ucOpts, usecase.WithNotion(notionService))
			}
			if jinaAPIKey != "" {
				ucOpts = append(ucOpts, usecase.WithWebSearch(websearch.New(jinaAPIKey)))
			}

			uc, err := usecase.New(repo, llmClient, registry, ucOpts...)
			if err != nil {
				return err
			}

			return runChatREPL(ctx, uc, workspaceID, userID)
		},
	}
}

// runChatREPL reads user lines from stdin and prints stream parts until
// EOF or an "exit" command.
func runChatREPL(ctx context.Context, uc *usecase.UseCases, workspaceID, userID string) error {
	promptColor := color.New(color.FgCyan, color.Bold)
	toolColor := color.New(color.FgYellow)
	approvalColor := color.New(color.FgMagenta, color.Bold)
	errorColor := color.New(color.FgRed)

	fmt.Printf("Docufy chat (workspace=%s, user=%s). Type \"exit\" to quit.\n", workspaceID, userID)

	conversationID := model.NewConversationID()
	var history []model.ChatMessage

	scanner := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		history = append(history, model.ChatMessage{
			ID:      model.NewConversationID(),
			Role:    model.ChatRoleUser,
			Content: line,
		})

		req := &usecase.ChatRequest{
			WorkspaceID:    workspaceID,
			UserID:         userID,
			ConversationID: conversationID,
			Messages:       history,
		}

		var reply strings.Builder
		sink := func(ctx context.Context, part *usecase.Part) {
			switch part.Type {
			case usecase.PartTypeText:
				fmt.Println(part.Text)
				reply.WriteString(part.Text)

			case usecase.PartTypeThinking:
				toolColor.Printf("… %s\n", part.Text)

			case usecase.PartTypeToolCall:
				if part.ToolCall != nil {
					toolColor.Printf("[tool] %s %s\n", part.ToolCall.Name, part.ToolCall.State)
				}

			case usecase.PartTypeToolResult:
				if part.ToolCall != nil {
					toolColor.Printf("[tool] %s done\n", part.ToolCall.Name)
				}

			case usecase.PartTypeApprovalRequest:
				if part.Approval == nil {
					return
				}
				// The sink runs before the broker waits on this id, and
				// decisions recorded early resolve the wait immediately.
				approved := askYesNo(approvalColor, scanner, part.Approval.Prompt)
				uc.Chat.RespondApproval(ctx, part.Approval.ID, approved)
			}
		}

		if err := uc.Chat.HandleTurn(ctx, req, sink); err != nil {
			errorColor.Printf("error: %v\n", err)
			// Drop the failed turn so the history stays consistent.
			history = history[:len(history)-1]
			continue
		}

		if reply.Len() > 0 {
			history = append(history, model.ChatMessage{
				ID:      model.NewConversationID(),
				Role:    model.ChatRoleAssistant,
				Content: reply.String(),
			})
		}
	}

	return scanner.Err()
}

func askYesNo(c *color.Color, scanner *bufio.Scanner, prompt string) bool {
	for {
		c.Printf("%s [y/N]: ", prompt)
		if !scanner.Scan() {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true
		case "n", "no", "":
			return false
		}
	}
}
