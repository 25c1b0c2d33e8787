package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// denyPatterns blocks commands the sandbox never allows. Matched against a
// whitespace-normalized command to resist multi-space bypass.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-[rRf]{1,3}\b`),
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)\bdd\s+if=`),
	regexp.MustCompile(`:\(\)\s*\{.*\|.*&\s*\}\s*;`),
	regexp.MustCompile(`(?i)\b(shutdown|reboot|poweroff|halt)\b`),
	regexp.MustCompile(`(?i)\bchmod\s+-R\s+777\s+/`),
	regexp.MustCompile(`>\s*/dev/sd[a-z]`),
	regexp.MustCompile(`(?i)\b(curl|wget)\b.*\|\s*(sh|bash)\b`),
	regexp.MustCompile(`(?i)\b(eval|exec)\b`),
	regexp.MustCompile(`(?i)\bsudo\b`),
	regexp.MustCompile(`(?i)\b(killall|kill\s+-9)\b`),
	regexp.MustCompile(`(?i)\b(passwd|useradd|userdel|usermod)\b`),
	regexp.MustCompile(`/etc/(shadow|passwd)\b`),
	regexp.MustCompile(`(?i)\bcrontab\s+-r\b`),
	regexp.MustCompile(`(?i)\bsystemctl\s+(stop|disable)\b`),
	regexp.MustCompile(`(?i)\bxargs\s+rm\b`),
	regexp.MustCompile(`(?i)\bshred\b`),
	regexp.MustCompile(`(?i)\bcat\s+/dev/urandom\b`),
	regexp.MustCompile(`(?i)\bwhile\s+true\b`),
	regexp.MustCompile(`(?i)\bnohup\b`),
	regexp.MustCompile(`(?i)\bgit\s+push\s+--force\b`),
}

// ShellTool runs a command with sh -c inside the workspace, time-bounded and
// output-bounded.
type ShellTool struct {
	workspaceDir   string
	timeout        time.Duration
	maxOutputChars int
	sandboxEnabled bool
}

type ShellConfig struct {
	WorkspaceDir   string
	TimeoutSecs    int
	MaxOutputChars int
	SandboxEnabled bool
}

func NewShellTool(cfg ShellConfig) *ShellTool {
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 60
	}
	if cfg.MaxOutputChars <= 0 {
		cfg.MaxOutputChars = 10000
	}
	return &ShellTool{
		workspaceDir:   cfg.WorkspaceDir,
		timeout:        time.Duration(cfg.TimeoutSecs) * time.Second,
		maxOutputChars: cfg.MaxOutputChars,
		sandboxEnabled: cfg.SandboxEnabled,
	}
}

func (t *ShellTool) Name() string { return "shell" }

func (t *ShellTool) Description() string {
	return "Execute a shell command in the workspace directory. Output is truncated past the configured limit."
}

func (t *ShellTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "The shell command to execute"}
		},
		"required": ["command"]
	}`)
}

func (t *ShellTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var params struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return ErrorResult("invalid arguments: " + err.Error()), nil
	}
	if params.Command == "" {
		return ErrorResult("command is required"), nil
	}

	if t.sandboxEnabled {
		if reason := t.denied(params.Command); reason != "" {
			return ErrorResult("command blocked by sandbox: " + reason), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", params.Command)
	if t.workspaceDir != "" {
		cmd.Dir = t.workspaceDir
	}

	output, err := cmd.CombinedOutput()
	out := string(output)
	if len(out) > t.maxOutputChars {
		out = out[:t.maxOutputChars] + "\n... (output truncated)"
	}
	if err != nil {
		return &Result{Output: out, Error: err.Error(), IsError: true}, nil
	}
	return &Result{Output: out}, nil
}

func (t *ShellTool) denied(command string) string {
	normalized := strings.Join(strings.Fields(command), " ")
	for _, p := range denyPatterns {
		if p.MatchString(normalized) {
			return fmt.Sprintf("matches deny pattern %s", p.String())
		}
	}
	if strings.Contains(normalized, "../") {
		return "path traversal detected"
	}
	if t.workspaceDir != "" && referencesOutsidePath(normalized, t.workspaceDir) {
		return "absolute path outside workspace"
	}
	return ""
}

var absPathPattern = regexp.MustCompile(`(?:^|\s)(/[a-zA-Z][a-zA-Z0-9_/.-]*)`)

func referencesOutsidePath(command, workspace string) bool {
	absWorkspace, err := filepath.Abs(workspace)
	if err != nil {
		return false
	}
	for _, m := range absPathPattern.FindAllStringSubmatch(command, -1) {
		path := m[1]
		if !strings.HasPrefix(path, absWorkspace) && path != "/dev/null" {
			return true
		}
	}
	return false
}
