// Package client provides the shared infrastructure for running headless
// coding-agent CLIs as language-model backends.
//
// Each supported CLI lives in a provider subpackage (providers/claude,
// providers/codex, providers/command) and implements the HeadlessClient
// interface. Providers translate the unified Config into CLI-specific
// arguments, spawn the process through SpawnBuilder, and parse the
// program's output stream into unified OutputEvents via an EventParser.
//
// The typical flow:
//
//	c, _ := client.NewClient(client.ClientCodex)
//	proc, _ := c.Spawn(ctx, client.Config{Prompt: "...", Timeout: 2 * time.Minute})
//	res, err := client.Collect(ctx, proc)
package client
