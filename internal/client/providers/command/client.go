package command

import (
	"context"

	"github.com/zjrosen/clilm/internal/client"
)

func init() {
	client.RegisterClient(client.ClientCommand, func() client.HeadlessClient {
		return NewClient()
	})
}

// CommandClient implements client.HeadlessClient for arbitrary commands.
type CommandClient struct{}

// NewClient creates a new CommandClient.
func NewClient() *CommandClient {
	return &CommandClient{}
}

// Type returns the client type identifier.
func (c *CommandClient) Type() client.ClientType {
	return client.ClientCommand
}

// Spawn starts the configured command. Sessions are not supported:
// arbitrary commands have no resume protocol.
func (c *CommandClient) Spawn(ctx context.Context, cfg client.Config) (client.HeadlessProcess, error) {
	return Spawn(ctx, configFromClient(cfg))
}

// Ensure CommandClient implements client.HeadlessClient at compile time.
var _ client.HeadlessClient = (*CommandClient)(nil)
