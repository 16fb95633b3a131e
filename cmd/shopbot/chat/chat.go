// Package chatcmder provides the chat command for interactive shopping
// conversations against a running shopbot API server.
package chatcmder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/anycompanyretail/shopbot/api"
	"github.com/anycompanyretail/shopbot/pkg/cliui"
	"github.com/anycompanyretail/shopbot/pkg/config"
	"github.com/anycompanyretail/shopbot/pkg/dotdir"
	"github.com/anycompanyretail/shopbot/pkg/logger"
	"github.com/anycompanyretail/shopbot/pkg/utils"
)

type chatCommander struct {
	apiTarget string
	configDir string
	fresh     bool
	debug     bool

	sessionID string
	logger    *slog.Logger
}

const chatLongDesc string = `Start an interactive chat session against a running shopbot server.

Messages go to the server's POST /v1/chat endpoint; the server keeps the
conversation state, so re-running "shopbot chat" resumes the previous
session. Use --fresh to start a new conversation instead.

In-session commands:
  /clear    Reset the conversation (the server reseeds its greeting)
  /exit     Quit (Ctrl+D also works)

Examples:
  shopbot chat
  shopbot chat --api-target http://localhost:8081
  shopbot chat --fresh`

const chatShortDesc string = "Interactive chat with the shopbot assistant"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.configDir = configDir

			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "Shopbot API server URL")
	cmd.Flags().BoolVar(&cmder.fresh, "fresh", false, "Start a new conversation instead of resuming")

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
	)

	dotdirManager := dotdir.NewManager()

	fmt.Println()
	if !c.fresh {
		state, err := dotdirManager.LoadSessionState(c.configDir)
		if err != nil {
			return fmt.Errorf("loading session state: %w", err)
		}
		if state != nil && state.APITarget == c.apiTarget {
			c.sessionID = state.SessionID
		}
	}

	if c.sessionID != "" {
		fmt.Printf("  %s Resuming session %s\n",
			cliui.SuccessMark,
			cliui.DimStyle.Render(utils.Truncate(c.sessionID, 16)),
		)
	} else {
		fmt.Printf("  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Server:"),
		cliui.NameStyle.Render(c.apiTarget),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /clear to reset, /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(cliui.UserPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}
		if input == "/clear" {
			if err := c.clearSession(); err != nil {
				fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
				continue
			}
			fmt.Printf("  %s Conversation cleared\n\n", cliui.SuccessMark)
			continue
		}

		reply, err := c.sendMessage(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		rendered, err := cliui.RenderMarkdown(reply)
		if err != nil {
			// Fall back to the raw reply when the terminal renderer
			// cannot be built.
			rendered = reply
		}
		fmt.Print(cliui.AssistantPrompt)
		fmt.Println(strings.TrimRight(rendered, "\n"))
		fmt.Println()

		if err := dotdirManager.SaveSessionState(c.configDir, &dotdir.SessionState{
			SessionID: c.sessionID,
			APITarget: c.apiTarget,
		}); err != nil {
			c.logger.Debug("saving session state", "error", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// sendMessage posts one chat turn to the server and records the session id
// the server assigned or confirmed.
func (c *chatCommander) sendMessage(message string) (string, error) {
	body, err := json.Marshal(api.ChatRequest{
		SessionID: c.sessionID,
		Message:   message,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending chat request",
		"api_target", c.apiTarget,
		"session_id", c.sessionID,
	)

	resp, err := c.post("/v1/chat", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp api.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	c.sessionID = chatResp.SessionID
	return chatResp.Reply, nil
}

// clearSession resets the server-side conversation for the current session.
// With no active session there is nothing to clear.
func (c *chatCommander) clearSession() error {
	if c.sessionID == "" {
		return nil
	}

	body, err := json.Marshal(api.ClearRequest{SessionID: c.sessionID})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := c.post("/v1/chat/clear", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func (c *chatCommander) post(path string, body []byte) (*http.Response, error) {
	url := c.apiTarget + path
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		// Agent turns can take several model round trips
		Timeout: 5 * time.Minute,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to server: %w", err)
	}

	return resp, nil
}
