package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const DefaultWorkspace = "default"

var ErrInvalidWorkspaceName = errors.New("invalid workspace name")

// ConfigDir is $SHEETDESK_CONFIG_DIR when set, else ~/.sheetdesk.
func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.sheetdesk).
	if v := strings.TrimSpace(os.Getenv("SHEETDESK_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sheetdesk"), nil
}

// NormalizeWorkspaceName trims name and rejects names that are not a single
// directory component. Each workspace is one tenant.
func NormalizeWorkspaceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidWorkspaceName)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWorkspaceName, name)
	}
	return name, nil
}

// ResolveDir picks the store directory: an explicit dir wins, then the named
// workspace, then DefaultWorkspace.
func ResolveDir(dir, workspace string) (string, error) {
	if dir = strings.TrimSpace(dir); dir != "" {
		return filepath.Clean(dir), nil
	}
	if strings.TrimSpace(workspace) == "" {
		workspace = DefaultWorkspace
	}
	return WorkspaceDir(workspace)
}

func ListWorkspaces() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	out := []string{}
	ents, err := os.ReadDir(filepath.Join(dir, "workspaces"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range ents {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
