// Package ollamacli drives a local model through the ollama binary.
//
// Generation pipes the prompt to "ollama run <model>" and streams stdout
// line by line. Model listing parses "ollama list". Sampling options are
// not exposed by the run command and are ignored.
package ollamacli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/retry"
)

// Ensure Generator implements the interfaces.
var (
	_ driven.Generator    = (*Generator)(nil)
	_ driven.ModelCatalog = (*Generator)(nil)
)

// Default configuration values.
const (
	DefaultBinary   = "ollama"
	DefaultLLMModel = "llama3"

	// waitDelay bounds how long a cancelled process may hold its pipes.
	waitDelay = 2 * time.Second
)

// ErrBinaryNotFound is returned when the ollama binary is not on PATH.
var ErrBinaryNotFound = fmt.Errorf("%w: ollama binary not found in PATH", domain.ErrConfiguration)

// CommandFunc builds the command to run. It matches exec.CommandContext.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Config holds configuration for the subprocess generator.
type Config struct {
	// Binary is the ollama executable (default: ollama).
	Binary string

	// Model is used when GenerateOptions.Model is empty (default: llama3).
	Model string

	// Retry bounds attempts to start a generation.
	Retry retry.Policy

	// Command overrides process construction. Used by tests.
	Command CommandFunc
}

// Generator runs the ollama binary once per request.
type Generator struct {
	binary  string
	model   string
	policy  retry.Policy
	command CommandFunc
}

// New creates a new subprocess generator.
func New(cfg Config) *Generator {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	if cfg.Command == nil {
		cfg.Command = exec.CommandContext
	}
	return &Generator{
		binary:  cfg.Binary,
		model:   cfg.Model,
		policy:  cfg.Retry,
		command: cfg.Command,
	}
}

// Generate collects the streamed output into one string.
func (g *Generator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var sb strings.Builder
	err := g.Stream(ctx, prompt, opts, func(token string) error {
		sb.WriteString(token)
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

// Stream delivers each stdout line of "ollama run" to fn, newline included.
// A failed process is retried only when it produced no output.
func (g *Generator) Stream(ctx context.Context, prompt string, opts driven.GenerateOptions, fn driven.TokenFunc) error {
	model := opts.Model
	if model == "" {
		model = g.model
	}

	delivered := false
	return retry.Run(ctx, g.policy, "ollama run", func() error {
		err := g.run(ctx, prompt, model, func(token string) error {
			delivered = true
			return fn(token)
		})
		if err != nil && delivered {
			return retry.Permanent(err)
		}
		return err
	})
}

func (g *Generator) run(ctx context.Context, prompt, model string, fn driven.TokenFunc) error {
	cmd := g.command(ctx, g.binary, "run", model)
	cmd.Stdin = strings.NewReader(prompt)
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return retry.Permanent(fmt.Errorf("stdout pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return startError(err)
	}

	reader := bufio.NewReader(stdout)
	var cbErr error
	for {
		line, readErr := reader.ReadString('\n')
		if line != "" && cbErr == nil {
			cbErr = fn(line)
			if cbErr != nil {
				_ = cmd.Process.Kill()
				break
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				cbErr = fmt.Errorf("read output: %w", readErr)
			}
			break
		}
	}

	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if cbErr != nil {
		return retry.Permanent(cbErr)
	}
	if waitErr != nil {
		return fmt.Errorf("ollama run %s: %w: %s", model, waitErr, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ListModels parses "ollama list". The header line is skipped and the
// model name is the first column.
func (g *Generator) ListModels(ctx context.Context) ([]string, error) {
	out, err := g.list(ctx)
	if err != nil {
		return nil, err
	}
	return parseList(out), nil
}

// Ping checks that "ollama list" succeeds.
func (g *Generator) Ping(ctx context.Context) error {
	_, err := g.list(ctx)
	return err
}

func (g *Generator) list(ctx context.Context) ([]byte, error) {
	return retry.Do(ctx, g.policy, "ollama list", func() ([]byte, error) {
		cmd := g.command(ctx, g.binary, "list")
		cmd.WaitDelay = waitDelay

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		out, err := cmd.Output()
		if err != nil {
			var execErr *exec.Error
			if errors.As(err, &execErr) {
				return nil, startError(err)
			}
			return nil, fmt.Errorf("ollama list: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return out, nil
	})
}

func parseList(out []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[0])
	}
	sort.Strings(names)
	return names
}

func startError(err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return retry.Permanent(ErrBinaryNotFound)
	}
	return retry.Permanent(fmt.Errorf("start ollama: %w", err))
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
