// Package toolserver exposes a tsh session as MCP tools over stdio.
//
// The session is detached from the server process: cd and assignments
// made through the run tool persist between calls without changing the
// server's own directory or environment. Calls are serialized.
package toolserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marcelocantos/tsh/internal/ast"
	"github.com/marcelocantos/tsh/internal/audit"
	"github.com/marcelocantos/tsh/internal/builtin"
	"github.com/marcelocantos/tsh/internal/eval"
	"github.com/marcelocantos/tsh/internal/parser"
	"github.com/marcelocantos/tsh/internal/procenv"
	"github.com/marcelocantos/tsh/internal/redirect"
)

// Server is an MCP server backed by one tsh session.
type Server struct {
	mu     sync.Mutex
	env    *procenv.Env
	logger *audit.Logger // may be nil
	mcp    *server.MCPServer
}

// New returns a server whose session starts from env. logger may be nil.
func New(env *procenv.Env, logger *audit.Logger, version string) *Server {
	s := &Server{env: env, logger: logger}
	s.mcp = server.NewMCPServer("tsh", version, server.WithToolCapabilities(false))

	s.mcp.AddTool(mcp.NewTool("run",
		mcp.WithDescription("Run shell command text in the tsh session. "+
			"Supports ; & | || && { }, redirections < > >> 2> 2>> &> &>>, "+
			"$VAR expansion, NAME=value assignment and cd. Session state persists between calls."),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command text, e.g. `cd src && grep -rn TODO . | head`"),
		),
		mcp.WithString("dir",
			mcp.Description("Directory to change to before running, relative to the session directory"),
		),
	), s.handleRun)

	s.mcp.AddTool(mcp.NewTool("parse",
		mcp.WithDescription("Parse command text and return its command tree as YAML without running it."),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command text to parse"),
		),
	), s.handleParse)

	return s
}

// Serve speaks MCP on in and out until ctx is done or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// Result is the outcome of one run call.
type Result struct {
	Status int
	Exited bool // exit or quit ran; the session stays usable
	Dir    string
	Stdout string
	Stderr string
}

func (r Result) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "exit status: %d\n", r.Status)
	if r.Exited {
		sb.WriteString("exit requested; session state kept\n")
	}
	fmt.Fprintf(&sb, "cwd: %s\n", r.Dir)
	if r.Stdout != "" {
		sb.WriteString("--- stdout ---\n" + r.Stdout)
		if !strings.HasSuffix(r.Stdout, "\n") {
			sb.WriteByte('\n')
		}
	}
	if r.Stderr != "" {
		sb.WriteString("--- stderr ---\n" + r.Stderr)
		if !strings.HasSuffix(r.Stderr, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Run evaluates command in the session, capturing its output. Commands
// read from the null device.
func (s *Server) Run(ctx context.Context, command, dir string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := parser.Parse(command)
	if err != nil {
		return Result{}, err
	}
	if dir != "" {
		if err := s.env.Chdir(dir); err != nil {
			return Result{}, fmt.Errorf("dir: %w", err)
		}
	}

	var stdout, stderr bytes.Buffer
	var rec audit.Recorder
	ev := eval.New(s.env,
		eval.WithStdio(redirect.Stdio{Out: &stdout, Err: &stderr}),
		eval.WithObserver(&rec),
	)

	cwd := s.env.Dir()
	start := time.Now()
	status, err := ev.Run(ctx, tree)
	res := Result{Status: status}
	var exitErr *builtin.ExitError
	switch {
	case errors.As(err, &exitErr):
		res.Exited = true
		res.Status = exitErr.Code
	case err != nil:
		return Result{}, err
	}

	if s.logger != nil && tree != nil {
		_ = s.logger.Log(audit.Record{
			Command:  ast.Format(tree),
			Leaves:   rec.Take(),
			ExitCode: res.Status,
			Exited:   res.Exited,
			Duration: time.Since(start),
			Cwd:      cwd,
		})
	}

	res.Dir = s.env.Dir()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res, nil
}

func (s *Server) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := req.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.Run(ctx, command, req.GetString("dir", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.String()), nil
}

func (s *Server) handleParse(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := req.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := ParseYAML(command)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// ParseYAML parses command and renders its tree as YAML.
func ParseYAML(command string) (string, error) {
	tree, err := parser.Parse(command)
	if err != nil {
		return "", err
	}
	if tree == nil {
		return "", errors.New("no command")
	}
	data, err := ast.EncodeYAML(tree)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
