// Package exec provides an abstraction over git subprocess execution for
// testability. Production code uses RealRunner, which shells out through
// os/exec with a per-call timeout, while tests inject a ScriptedRunner that
// returns pre-recorded responses.
package exec

import (
	"context"
	"os/exec"
	"sync"
	"time"
)

// DefaultTimeout bounds a single external query. History and tree queries
// against a healthy repository finish in well under a second; anything that
// takes longer than this is treated like any other failed query by callers.
const DefaultTimeout = 30 * time.Second

// GitRunner abstracts command execution against a repository.
type GitRunner interface {
	// Output executes a command in dir and returns stdout, or an error.
	Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

	// CombinedOutput executes a command in dir and returns combined stdout+stderr.
	CombinedOutput(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

	// Run executes a command in dir, discarding output. Used for probes where
	// only the exit status matters (e.g. rev-parse --verify).
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// RealRunner executes commands using os/exec. Each call is bounded by
// Timeout; a timed-out query fails exactly like any other failed query.
type RealRunner struct {
	Timeout time.Duration
}

// NewRealRunner returns a RealRunner with the default per-call timeout.
func NewRealRunner() *RealRunner {
	return &RealRunner{Timeout: DefaultTimeout}
}

func (r *RealRunner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Output executes a command and returns stdout, or an error.
func (r *RealRunner) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

// CombinedOutput executes a command and returns combined stdout+stderr.
func (r *RealRunner) CombinedOutput(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Run executes a command, discarding output.
func (r *RealRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Run()
}

// Response defines the response for a scripted command.
type Response struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// Matcher is a function that determines if a command matches a rule.
type Matcher func(dir, name string, args []string) bool

// Rule pairs a matcher with its response.
type Rule struct {
	Match    Matcher
	Response Response
}

// Call records a command invocation for verification.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// ScriptedRunner returns pre-recorded responses for commands. Rules are
// matched in registration order; unmatched commands are delegated to the
// fallback runner when one is set, and otherwise succeed with empty output.
type ScriptedRunner struct {
	mu       sync.RWMutex
	rules    []Rule
	calls    []Call
	fallback GitRunner
}

// NewScriptedRunner creates a ScriptedRunner. If fallback is non-nil,
// unmatched commands are delegated to it.
func NewScriptedRunner(fallback GitRunner) *ScriptedRunner {
	return &ScriptedRunner{fallback: fallback}
}

// AddRule adds a matching rule with its response.
func (s *ScriptedRunner) AddRule(match Matcher, response Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, Rule{Match: match, Response: response})
}

// AddExactMatch adds a rule that matches a specific command exactly.
func (s *ScriptedRunner) AddExactMatch(name string, args []string, response Response) {
	s.AddRule(func(dir, n string, a []string) bool {
		if n != name || len(a) != len(args) {
			return false
		}
		for i, arg := range args {
			if a[i] != arg {
				return false
			}
		}
		return true
	}, response)
}

// AddPrefixMatch adds a rule that matches commands starting with prefixArgs.
func (s *ScriptedRunner) AddPrefixMatch(name string, prefixArgs []string, response Response) {
	s.AddRule(func(dir, n string, a []string) bool {
		if n != name || len(a) < len(prefixArgs) {
			return false
		}
		for i, arg := range prefixArgs {
			if a[i] != arg {
				return false
			}
		}
		return true
	}, response)
}

// Calls returns all recorded command invocations.
func (s *ScriptedRunner) Calls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// ClearCalls clears the recorded command invocations.
func (s *ScriptedRunner) ClearCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *ScriptedRunner) findMatch(dir, name string, args []string) *Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rule := range s.rules {
		if rule.Match(dir, name, args) {
			return &rule.Response
		}
	}
	return nil
}

func (s *ScriptedRunner) record(dir, name string, args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Dir: dir, Name: name, Args: args})
}

// Output executes a scripted command.
func (s *ScriptedRunner) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	s.record(dir, name, args)

	if resp := s.findMatch(dir, name, args); resp != nil {
		return resp.Stdout, resp.Err
	}
	if s.fallback != nil {
		return s.fallback.Output(ctx, dir, name, args...)
	}
	return nil, nil
}

// CombinedOutput executes a scripted command.
func (s *ScriptedRunner) CombinedOutput(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	s.record(dir, name, args)

	if resp := s.findMatch(dir, name, args); resp != nil {
		combined := append(append([]byte{}, resp.Stdout...), resp.Stderr...)
		return combined, resp.Err
	}
	if s.fallback != nil {
		return s.fallback.CombinedOutput(ctx, dir, name, args...)
	}
	return nil, nil
}

// Run executes a scripted command.
func (s *ScriptedRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	s.record(dir, name, args)

	if resp := s.findMatch(dir, name, args); resp != nil {
		return resp.Err
	}
	if s.fallback != nil {
		return s.fallback.Run(ctx, dir, name, args...)
	}
	return nil
}

// Ensure implementations satisfy the interface.
var _ GitRunner = (*RealRunner)(nil)
var _ GitRunner = (*ScriptedRunner)(nil)
