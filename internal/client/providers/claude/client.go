package claude

import (
	"context"

	"github.com/zjrosen/clilm/internal/client"
)

func init() {
	client.RegisterClient(client.ClientClaude, func() client.HeadlessClient {
		return NewClient()
	})
}

// ClaudeClient implements client.HeadlessClient for the Claude Code CLI.
type ClaudeClient struct{}

// NewClient creates a new ClaudeClient.
func NewClient() *ClaudeClient {
	return &ClaudeClient{}
}

// Type returns the client type identifier.
func (c *ClaudeClient) Type() client.ClientType {
	return client.ClientClaude
}

// Spawn creates and starts a headless Claude process. If cfg.SessionID
// is set, resumes an existing session.
func (c *ClaudeClient) Spawn(ctx context.Context, cfg client.Config) (client.HeadlessProcess, error) {
	claudeCfg := configFromClient(cfg)
	if cfg.SessionID != "" {
		return Resume(ctx, cfg.SessionID, claudeCfg)
	}
	return Spawn(ctx, claudeCfg)
}

// Ensure ClaudeClient implements client.HeadlessClient at compile time.
var _ client.HeadlessClient = (*ClaudeClient)(nil)
