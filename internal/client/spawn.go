package client

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/zjrosen/clilm/internal/log"
)

// SpawnBuilder assembles and starts a headless CLI process. Providers
// chain the With* methods and call Build, which starts the child and its
// pump goroutines.
type SpawnBuilder struct {
	ctx context.Context

	execPath string
	args     []string
	workDir  string
	env      []string
	stdin    string
	useStdin bool

	sessionRef    string
	timeout       time.Duration
	parser        EventParser
	extract       SessionExtractor
	captureStderr bool
	providerName  string
}

// NewSpawnBuilder creates a builder rooted at ctx.
func NewSpawnBuilder(ctx context.Context) *SpawnBuilder {
	return &SpawnBuilder{ctx: ctx}
}

// WithExecutable sets the binary and its arguments.
func (b *SpawnBuilder) WithExecutable(path string, args []string) *SpawnBuilder {
	b.execPath = path
	b.args = args
	return b
}

// WithWorkDir sets the child's working directory.
func (b *SpawnBuilder) WithWorkDir(dir string) *SpawnBuilder {
	b.workDir = dir
	return b
}

// WithEnv sets the child's full environment. Nil keeps the parent's.
func (b *SpawnBuilder) WithEnv(env []string) *SpawnBuilder {
	b.env = env
	return b
}

// WithStdin feeds input to the child's stdin and closes it. Providers
// whose CLIs read the prompt from stdin use this.
func (b *SpawnBuilder) WithStdin(input string) *SpawnBuilder {
	b.stdin = input
	b.useStdin = true
	return b
}

// WithSessionRef seeds the session identifier (resume flows).
func (b *SpawnBuilder) WithSessionRef(ref string) *SpawnBuilder {
	b.sessionRef = ref
	return b
}

// WithTimeout bounds the whole run. Zero means unlimited.
func (b *SpawnBuilder) WithTimeout(timeout time.Duration) *SpawnBuilder {
	b.timeout = timeout
	return b
}

// WithParser sets the provider's event parser. Required.
func (b *SpawnBuilder) WithParser(parser EventParser) *SpawnBuilder {
	b.parser = parser
	return b
}

// WithSessionExtractor installs the hook that captures the session ID
// from init events.
func (b *SpawnBuilder) WithSessionExtractor(extract SessionExtractor) *SpawnBuilder {
	b.extract = extract
	return b
}

// WithStderrCapture retains the child's stderr for error reporting.
func (b *SpawnBuilder) WithStderrCapture(capture bool) *SpawnBuilder {
	b.captureStderr = capture
	return b
}

// WithProviderName tags the process with its provider for logs and
// error messages.
func (b *SpawnBuilder) WithProviderName(name string) *SpawnBuilder {
	b.providerName = name
	return b
}

// Build starts the process and returns its BaseProcess.
func (b *SpawnBuilder) Build() (*BaseProcess, error) {
	if b.execPath == "" {
		return nil, fmt.Errorf("no executable configured")
	}
	if b.parser == nil {
		return nil, fmt.Errorf("no parser configured")
	}

	ctx := b.ctx
	cancel := context.CancelFunc(func() {})
	if b.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	cmd := exec.CommandContext(ctx, b.execPath, b.args...) //nolint:gosec // G204: path comes from ExecutableFinder, args from provider
	cmd.Dir = b.workDir
	if b.env != nil {
		cmd.Env = b.env
	}
	// Give pumps a moment to drain pipes after cancellation before the
	// exec package force-closes them.
	cmd.WaitDelay = 5 * time.Second

	if b.useStdin {
		cmd.Stdin = strings.NewReader(b.stdin)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	p := NewBaseProcess(ctx, cancel, cmd, stdout, stderr, b.workDir,
		WithProviderName(b.providerName),
		WithStderrCapture(b.captureStderr),
	)
	p.timeout = b.timeout
	if b.sessionRef != "" {
		p.SetSessionRef(b.sessionRef)
	}

	log.Debug(log.CatClient, "starting process",
		"provider", b.providerName, "exec", b.execPath, "workDir", b.workDir,
		"timeout", b.timeout)

	if err := p.start(b.parser, b.extract); err != nil {
		cancel()
		return nil, fmt.Errorf("starting %s: %w", b.execPath, err)
	}
	return p, nil
}
