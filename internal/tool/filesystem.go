package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxReadChars = 50000

// FilesystemTool reads, writes and lists files inside a workspace directory.
// Paths are validated so the model cannot reach outside the workspace.
type FilesystemTool struct {
	workspaceDir string
}

func NewFilesystemTool(workspaceDir string) *FilesystemTool {
	return &FilesystemTool{workspaceDir: workspaceDir}
}

func (t *FilesystemTool) Name() string { return "filesystem" }

func (t *FilesystemTool) Description() string {
	return "Read, write or list files in the workspace. Actions: 'read' a file, 'write' (create or overwrite) a file, 'list' a directory."
}

func (t *FilesystemTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["read", "write", "list"], "description": "Operation to perform"},
			"path": {"type": "string", "description": "Path relative to the workspace"},
			"content": {"type": "string", "description": "Content for the 'write' action"}
		},
		"required": ["action", "path"]
	}`)
}

func (t *FilesystemTool) Execute(_ context.Context, args json.RawMessage) (*Result, error) {
	var params struct {
		Action  string `json:"action"`
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return ErrorResult("invalid arguments: " + err.Error()), nil
	}

	path, err := t.resolve(params.Path)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	switch params.Action {
	case "read":
		data, err := os.ReadFile(path)
		if err != nil {
			return ErrorResult("read failed: " + err.Error()), nil
		}
		out := string(data)
		if len(out) > maxReadChars {
			out = out[:maxReadChars] + "\n... (file truncated)"
		}
		return &Result{Output: out}, nil

	case "write":
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return ErrorResult("create directory failed: " + err.Error()), nil
		}
		if err := os.WriteFile(path, []byte(params.Content), 0600); err != nil {
			return ErrorResult("write failed: " + err.Error()), nil
		}
		return &Result{Output: fmt.Sprintf("wrote %d bytes to %s", len(params.Content), params.Path)}, nil

	case "list":
		entries, err := os.ReadDir(path)
		if err != nil {
			return ErrorResult("list failed: " + err.Error()), nil
		}
		var b strings.Builder
		for _, e := range entries {
			if e.IsDir() {
				b.WriteString(e.Name() + "/\n")
			} else {
				b.WriteString(e.Name() + "\n")
			}
		}
		return &Result{Output: strings.TrimRight(b.String(), "\n")}, nil

	default:
		return ErrorResult("unknown action: " + params.Action), nil
	}
}

// resolve joins the relative path onto the workspace and rejects anything
// that escapes it, including symlinked parents.
func (t *FilesystemTool) resolve(rel string) (string, error) {
	if t.workspaceDir == "" {
		return "", fmt.Errorf("workspace directory not configured")
	}
	if strings.Contains(rel, "..") {
		return "", fmt.Errorf("path traversal not allowed")
	}

	absWorkspace, err := filepath.Abs(t.workspaceDir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(absWorkspace, filepath.Clean(rel))
	if full != absWorkspace && !strings.HasPrefix(full, absWorkspace+string(filepath.Separator)) {
		return "", fmt.Errorf("path outside workspace")
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(full)); err == nil {
		if resolved != absWorkspace && !strings.HasPrefix(resolved, absWorkspace+string(filepath.Separator)) {
			return "", fmt.Errorf("symlink escapes workspace")
		}
	}
	return full, nil
}
