package lm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/google/uuid"
	"github.com/zjrosen/clilm/internal/client"
	"github.com/zjrosen/clilm/internal/log"
)

// historyLimit caps the in-memory invocation history.
const historyLimit = 100

// Recorder persists finished invocations. The history store implements
// it; a nil recorder disables persistence.
type Recorder interface {
	Record(entry HistoryEntry) error
}

// HistoryEntry is one recorded LM invocation.
type HistoryEntry struct {
	GUID     string
	Provider string
	Model    string
	Prompt   string
	Response *Response
	Err      string
	Duration time.Duration
	Created  time.Time
}

// Options configures an LM.
type Options struct {
	// Command is the argv for the command provider; ignored otherwise.
	Command []string

	// Model overrides the provider's default model.
	Model string

	// WorkDir is the working directory for spawned CLIs.
	WorkDir string

	// Env is overlaid on the parent environment for every call.
	Env map[string]string

	// Timeout bounds each generation's process. Zero means no limit.
	Timeout time.Duration

	// SkipPermissions disables the CLI's permission prompts.
	SkipPermissions bool

	// SplitSystemPrompt routes a leading system message to the
	// provider's system-prompt flag instead of flattening it into the
	// prompt text. Providers without such a flag prepend it anyway.
	SplitSystemPrompt bool

	// CacheTTL enables response caching for the given duration.
	// Zero disables the cache.
	CacheTTL time.Duration

	// Recorder persists invocations; nil disables persistence.
	Recorder Recorder
}

// LM runs a headless CLI provider as a language model.
type LM struct {
	provider client.ClientType
	opts     Options
	cache    *gocache.Cache
	tracer   trace.Tracer

	mu      sync.Mutex
	history []HistoryEntry
}

// New creates an LM for the given provider.
func New(provider client.ClientType, opts Options) (*LM, error) {
	if provider == client.ClientCommand && len(opts.Command) == 0 {
		return nil, fmt.Errorf("command provider requires a non-empty command")
	}

	l := &LM{
		provider: provider,
		opts:     opts,
		tracer:   otel.Tracer("clilm/lm"),
	}
	if opts.CacheTTL > 0 {
		l.cache = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return l, nil
}

// Provider returns the LM's provider type.
func (l *LM) Provider() client.ClientType { return l.provider }

// Model returns the configured model, or the empty string for the
// provider default.
func (l *LM) Model() string { return l.opts.Model }

// Generate runs the request and returns one choice per generation.
func (l *LM) Generate(ctx context.Context, req Request) (*Response, error) {
	var system string
	if l.opts.SplitSystemPrompt {
		system, req = req.splitSystem()
	}

	prompt, err := req.flatten()
	if err != nil {
		return nil, &CLIError{Message: err.Error()}
	}

	n := req.generations()

	ctx, span := l.tracer.Start(ctx, "lm.generate", trace.WithAttributes(
		attribute.String("provider", string(l.provider)),
		attribute.String("model", l.opts.Model),
		attribute.Int("generations", n),
	))
	defer span.End()

	if key, cached := l.cacheLookup(prompt, system, n); cached != nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		log.Debug(log.CatLM, "cache hit", "provider", l.provider, "key", key)
		return cached, nil
	}

	start := time.Now()
	resp, err := l.generate(ctx, prompt, system, req, n)
	l.record(prompt, resp, err, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, err
	}

	l.cacheStore(prompt, system, n, resp)
	return resp, nil
}

// generate spawns one process per generation and assembles the response.
func (l *LM) generate(ctx context.Context, prompt, system string, req Request, n int) (*Response, error) {
	c, err := client.NewClient(l.provider)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		ID:       uuid.NewString(),
		Provider: string(l.provider),
		Model:    l.opts.Model,
		Created:  time.Now().Unix(),
	}

	for i := 0; i < n; i++ {
		text, res, err := l.runGeneration(ctx, c, prompt, system, req, i, n)
		if err != nil {
			return nil, err
		}

		resp.Choices = append(resp.Choices, Choice{
			Index:        i,
			FinishReason: "stop",
			Message:      Message{Role: "assistant", Content: text},
		})
		if res.Usage != nil {
			resp.Usage = res.Usage
		}
		if res.SessionRef != "" {
			resp.SessionRef = res.SessionRef
		}
		resp.TotalCostUSD += res.TotalCostUSD
	}

	return resp, nil
}

// runGeneration executes a single spawn-and-collect cycle.
func (l *LM) runGeneration(
	ctx context.Context,
	c client.HeadlessClient,
	prompt, system string,
	req Request,
	index, total int,
) (string, *client.Result, error) {
	ctx, span := l.tracer.Start(ctx, "lm.generation",
		trace.WithAttributes(attribute.Int("index", index)))
	defer span.End()

	cfg := client.Config{
		Command:         l.opts.Command,
		WorkDir:         l.opts.WorkDir,
		Prompt:          prompt,
		SystemPrompt:    system,
		SessionID:       req.SessionID,
		SkipPermissions: l.opts.SkipPermissions,
		Timeout:         l.opts.Timeout,
		Env:             mergeEnv(l.opts.Env, req.Env),
		GenerationIndex: index,
		GenerationTotal: total,
	}
	if l.opts.Model != "" {
		cfg.SetExtension(client.ExtClaudeModel, l.opts.Model)
		cfg.SetExtension(client.ExtCodexModel, l.opts.Model)
	}

	proc, err := c.Spawn(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, client.ErrExecutableNotFound) {
			return "", nil, &CLIError{
				Message: fmt.Sprintf("CLI command not found: %s", l.commandDisplay()),
				Err:     err,
			}
		}
		return "", nil, &CLIError{Message: "spawning CLI process", Err: err}
	}

	res, err := client.Collect(ctx, proc)
	if err != nil {
		span.RecordError(err)
		return "", nil, l.wrapRunError(err, res)
	}

	log.Debug(log.CatLM, "generation complete",
		"provider", l.provider, "index", index, "chars", len(res.Text))
	return res.Text, res, nil
}

// wrapRunError converts process-level failures into CLIErrors that carry
// the CLI's own output.
func (l *LM) wrapRunError(err error, res *client.Result) error {
	var timeoutErr *client.TimeoutError
	var exitErr *client.ExitError

	switch {
	case errors.As(err, &timeoutErr):
		return &CLIError{
			Message: fmt.Sprintf("CLI command %q timed out after %s", l.commandDisplay(), l.opts.Timeout),
			Stderr:  res.Stderr,
			Err:     err,
		}
	case errors.As(err, &exitErr):
		return &CLIError{
			Message: fmt.Sprintf("CLI command %q exited with status %d", l.commandDisplay(), exitErr.Code),
			Stdout:  exitErr.Stdout,
			Stderr:  exitErr.Stderr,
			Err:     err,
		}
	default:
		return &CLIError{Message: "CLI process failed", Stderr: res.Stderr, Err: err}
	}
}

// commandDisplay names the underlying command for error messages.
func (l *LM) commandDisplay() string {
	if l.provider == client.ClientCommand {
		return strings.Join(l.opts.Command, " ")
	}
	return string(l.provider)
}

// History returns a copy of the in-memory invocation history, oldest
// first.
func (l *LM) History() []HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]HistoryEntry, len(l.history))
	copy(out, l.history)
	return out
}

// ClearHistory empties the in-memory invocation history.
func (l *LM) ClearHistory() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = nil
}

// record appends to the history ring and forwards to the recorder.
func (l *LM) record(prompt string, resp *Response, genErr error, duration time.Duration) {
	entry := HistoryEntry{
		GUID:     uuid.NewString(),
		Provider: string(l.provider),
		Model:    l.opts.Model,
		Prompt:   prompt,
		Response: resp,
		Duration: duration,
		Created:  time.Now(),
	}
	if genErr != nil {
		entry.Err = genErr.Error()
	}

	l.mu.Lock()
	l.history = append(l.history, entry)
	if len(l.history) > historyLimit {
		l.history = l.history[len(l.history)-historyLimit:]
	}
	l.mu.Unlock()

	if l.opts.Recorder != nil {
		if err := l.opts.Recorder.Record(entry); err != nil {
			log.ErrorErr(log.CatLM, "recording invocation", err, "guid", entry.GUID)
		}
	}
}

// cacheKey hashes everything that determines a response.
func (l *LM) cacheKey(prompt, system string, n int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%d", l.provider, l.opts.Model, system, prompt, n)
	return hex.EncodeToString(h.Sum(nil))
}

func (l *LM) cacheLookup(prompt, system string, n int) (string, *Response) {
	if l.cache == nil {
		return "", nil
	}
	key := l.cacheKey(prompt, system, n)
	if v, ok := l.cache.Get(key); ok {
		if resp, ok := v.(*Response); ok {
			return key, resp
		}
	}
	return key, nil
}

func (l *LM) cacheStore(prompt, system string, n int, resp *Response) {
	if l.cache == nil {
		return
	}
	l.cache.SetDefault(l.cacheKey(prompt, system, n), resp)
}

// mergeEnv overlays call-scoped env on the configured env.
func mergeEnv(base, overlay map[string]string) map[string]string {
	if len(overlay) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
