package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/zjrosen/clilm/internal/log"
)

// ProcessStatus is the lifecycle state of a spawned CLI process.
type ProcessStatus string

const (
	StatusPending   ProcessStatus = "pending"
	StatusRunning   ProcessStatus = "running"
	StatusCompleted ProcessStatus = "completed"
	StatusFailed    ProcessStatus = "failed"
	StatusCancelled ProcessStatus = "cancelled"
)

// Channel capacities. Events buffers generously because scanner
// goroutines must never stall the child's stdout pipe for long.
const (
	eventChanCap = 100
	errorChanCap = 10
)

// captureLimit bounds how much stdout/stderr is retained for error
// reporting and raw-output fallback.
const captureLimit = 1 << 20 // 1 MiB

// SessionExtractor pulls a session identifier out of an event. Providers
// install one to capture the session ID from their CLI's init event.
type SessionExtractor func(event OutputEvent, rawLine []byte) string

// BaseProcess is the common implementation of HeadlessProcess. Provider
// process types embed it.
type BaseProcess struct {
	ctx    context.Context
	cancel context.CancelFunc
	cmd    *exec.Cmd

	stdout io.Reader
	stderr io.Reader

	events chan OutputEvent
	errors chan error

	mu         sync.Mutex
	status     ProcessStatus
	sessionRef string
	runErr     error

	wg sync.WaitGroup

	workDir       string
	providerName  string
	captureStderr bool
	timeout       time.Duration

	rawBuf    limitedBuffer
	stderrBuf limitedBuffer
}

// ProcessOption configures a BaseProcess at construction time.
type ProcessOption func(*BaseProcess)

// WithProviderName records which provider spawned the process.
func WithProviderName(name string) ProcessOption {
	return func(p *BaseProcess) { p.providerName = name }
}

// WithStderrCapture enables retention of the child's stderr for error
// reporting.
func WithStderrCapture(capture bool) ProcessOption {
	return func(p *BaseProcess) { p.captureStderr = capture }
}

// NewBaseProcess constructs a BaseProcess. cmd, stdout, and stderr may be
// nil for tests that exercise lifecycle behavior without a real child.
func NewBaseProcess(
	ctx context.Context,
	cancel context.CancelFunc,
	cmd *exec.Cmd,
	stdout, stderr io.Reader,
	workDir string,
	opts ...ProcessOption,
) *BaseProcess {
	p := &BaseProcess{
		ctx:     ctx,
		cancel:  cancel,
		cmd:     cmd,
		stdout:  stdout,
		stderr:  stderr,
		events:  make(chan OutputEvent, eventChanCap),
		errors:  make(chan error, errorChanCap),
		status:  StatusPending,
		workDir: workDir,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Events returns the read side of the event stream.
func (p *BaseProcess) Events() <-chan OutputEvent { return p.events }

// EventsWritable exposes the writable event channel for the pump
// goroutines and tests.
func (p *BaseProcess) EventsWritable() chan OutputEvent { return p.events }

// Errors returns the read side of the runtime error stream.
func (p *BaseProcess) Errors() <-chan error { return p.errors }

// ErrorsWritable exposes the writable error channel for tests.
func (p *BaseProcess) ErrorsWritable() chan error { return p.errors }

// SendError delivers a non-fatal error without blocking; errors are
// dropped when the channel is full.
func (p *BaseProcess) SendError(err error) {
	select {
	case p.errors <- err:
	default:
		log.Warn(log.CatClient, "dropping process error, channel full",
			"provider", p.providerName, "error", err)
	}
}

// Status returns the current lifecycle state.
func (p *BaseProcess) Status() ProcessStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SetStatus transitions the lifecycle state.
func (p *BaseProcess) SetStatus(s ProcessStatus) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

// IsRunning reports whether the process is in the running state.
func (p *BaseProcess) IsRunning() bool { return p.Status() == StatusRunning }

// isTerminal reports whether s is a final state.
func isTerminal(s ProcessStatus) bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Cancel terminates the process. The status flips to cancelled before
// the context is cancelled so goroutines woken by the cancellation
// observe the final state. Terminal states are never overridden.
func (p *BaseProcess) Cancel() error {
	p.mu.Lock()
	if !isTerminal(p.status) {
		p.status = StatusCancelled
	}
	p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// SessionRef returns the CLI session identifier, if one was extracted.
func (p *BaseProcess) SessionRef() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionRef
}

// SetSessionRef records the CLI session identifier.
func (p *BaseProcess) SetSessionRef(ref string) {
	p.mu.Lock()
	p.sessionRef = ref
	p.mu.Unlock()
}

// WorkDir returns the working directory the process was spawned in.
func (p *BaseProcess) WorkDir() string { return p.workDir }

// ProviderName returns the provider that spawned the process.
func (p *BaseProcess) ProviderName() string { return p.providerName }

// CaptureStderr reports whether stderr retention is enabled.
func (p *BaseProcess) CaptureStderr() bool { return p.captureStderr }

// Context returns the process's cancellation context.
func (p *BaseProcess) Context() context.Context { return p.ctx }

// WaitGroup exposes the completion wait group for tests and pumps.
func (p *BaseProcess) WaitGroup() *sync.WaitGroup { return &p.wg }

// PID returns the child's process ID, or -1 before start or in tests.
func (p *BaseProcess) PID() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// Wait blocks until all pump goroutines finish and returns the terminal
// run error, if any.
func (p *BaseProcess) Wait() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runErr
}

// Stderr returns the captured stderr (up to captureLimit).
func (p *BaseProcess) Stderr() string { return p.stderrBuf.String() }

// RawStdout returns the raw stdout seen so far (up to captureLimit).
// Providers with lenient output formats use this as the fallback text
// when no structured events arrived.
func (p *BaseProcess) RawStdout() string { return p.rawBuf.String() }

func (p *BaseProcess) setRunErr(err error) {
	p.mu.Lock()
	p.runErr = err
	p.mu.Unlock()
}

// start launches the pump goroutines: a stdout scanner feeding parser
// events, an optional stderr collector, and a waiter that reaps the
// child and closes the event stream.
func (p *BaseProcess) start(parser EventParser, extract SessionExtractor) error {
	if p.cmd == nil {
		return fmt.Errorf("no command configured")
	}
	if err := p.cmd.Start(); err != nil {
		return err
	}
	p.SetStatus(StatusRunning)

	var pumps sync.WaitGroup

	if p.stdout != nil {
		pumps.Add(1)
		go func() {
			defer pumps.Done()
			p.pumpStdout(parser, extract)
		}()
	}

	if p.stderr != nil {
		pumps.Add(1)
		go func() {
			defer pumps.Done()
			p.stderrBuf.consume(p.stderr)
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		pumps.Wait()
		err := p.cmd.Wait()
		p.finish(err)
	}()

	return nil
}

// pumpStdout scans stdout line by line, records the raw text, and feeds
// parsed events to the event channel.
func (p *BaseProcess) pumpStdout(parser EventParser, extract SessionExtractor) {
	scanner := bufio.NewScanner(p.stdout)
	scanner.Buffer(make([]byte, 64*1024), captureLimit)

	for scanner.Scan() {
		line := scanner.Bytes()
		p.rawBuf.WriteLine(line)

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		event, err := parser.ParseEvent(line)
		if err != nil {
			if err != ErrSkipEvent {
				log.Debug(log.CatClient, "unparseable output line",
					"provider", p.providerName, "error", err)
			}
			continue
		}

		if extract != nil && p.SessionRef() == "" {
			if ref := extract(event, line); ref != "" {
				p.SetSessionRef(ref)
				log.Debug(log.CatClient, "captured session ref",
					"provider", p.providerName, "session", ref)
			}
		}

		select {
		case p.events <- event:
		case <-p.ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		p.SendError(fmt.Errorf("reading stdout: %w", err))
	}
}

// finish records the child's exit result, closes the event stream, and
// settles the terminal status.
func (p *BaseProcess) finish(waitErr error) {
	defer close(p.events)

	if waitErr == nil {
		p.mu.Lock()
		if !isTerminal(p.status) {
			p.status = StatusCompleted
		}
		p.mu.Unlock()
		return
	}

	// Context expiry surfaces as a timeout rather than the opaque
	// "signal: killed" the exec package reports.
	var exitErr *exec.ExitError
	switch {
	case p.ctx.Err() == context.DeadlineExceeded:
		waitErr = &TimeoutError{Provider: p.providerName, Timeout: p.timeout}
	case errors.As(waitErr, &exitErr):
		waitErr = &ExitError{
			Provider: p.providerName,
			Code:     exitErr.ExitCode(),
			Stdout:   p.rawBuf.String(),
			Stderr:   p.stderrBuf.String(),
			Err:      exitErr,
		}
	}

	p.setRunErr(waitErr)
	p.mu.Lock()
	if !isTerminal(p.status) {
		p.status = StatusFailed
	}
	p.mu.Unlock()
}

// limitedBuffer is a concurrency-safe byte buffer that stops growing at
// captureLimit.
type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *limitedBuffer) WriteLine(line []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() >= captureLimit {
		return
	}
	b.buf.Write(line)
	b.buf.WriteByte('\n')
}

func (b *limitedBuffer) consume(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), captureLimit)
	for scanner.Scan() {
		b.WriteLine(scanner.Bytes())
	}
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
