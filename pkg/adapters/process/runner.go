package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/registry"
)

// ArgPrefix prefixes the environment variables that carry tool arguments.
const ArgPrefix = "GENUI_ARG_"

// DefaultGracePeriod is how long a cancelled process has to exit after the
// interrupt before it is killed.
const DefaultGracePeriod = 5 * time.Second

var unsafeKey = regexp.MustCompile(`[^A-Z0-9_]`)

// Runner executes allow-listed local commands. Arguments never reach the
// command line; they are passed as GENUI_ARG_<NAME> environment variables.
type Runner struct {
	baseDir string
	grace   time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.grace = d
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{grace: DefaultGracePeriod}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds every configured tool to reg.
func (r *Runner) Register(reg *registry.Registry, tools []ToolConfig) {
	for _, cfg := range tools {
		cfg := cfg
		reg.Register(domain.Tool{
			Name:        cfg.Name,
			Description: cfg.Description,
			Parameters:  cfg.Parameters,
		}, func(ctx context.Context, args map[string]any) (any, error) {
			return r.Run(ctx, cfg, args)
		})
	}
}

// Run executes cfg with args. Standard output that parses as a JSON object
// or array is returned decoded; anything else is returned as trimmed text.
func (r *Runner) Run(ctx context.Context, cfg ToolConfig, args map[string]any) (any, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = r.baseDir
	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = r.grace
	cmd.Env = append(os.Environ(), environment(cfg.Environment, args)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("%w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if strings.HasPrefix(out, "{") || strings.HasPrefix(out, "[") {
		var v any
		if json.Unmarshal([]byte(out), &v) == nil {
			return v, nil
		}
	}
	return out, nil
}

func environment(static map[string]string, args map[string]any) []string {
	env := make([]string, 0, len(static)+len(args))
	for k, v := range static {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		key := ArgPrefix + unsafeKey.ReplaceAllString(strings.ToUpper(k), "_")
		env = append(env, key+"="+envValue(v))
	}
	return env
}

// envValue renders primitives as text and structures as JSON.
func envValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool, float64, int, int64:
		return fmt.Sprint(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	}
}
