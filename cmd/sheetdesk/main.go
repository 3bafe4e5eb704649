package main

import (
	"os"
	"strings"

	"sheetdesk/internal/cli"
)

// directLookups maps id prefixes to the show command for that entity.
var directLookups = map[string][]string{
	"tsk-": {"tasks", "show"},
	"prj-": {"projects", "show"},
	"cli-": {"clients", "show"},
	"usr-": {"users", "show"},
}

func lookupCommand(s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	for prefix, cmd := range directLookups {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) {
			return cmd, true
		}
	}
	return nil, false
}

// rewriteDirectLookupArgs makes `sheetdesk <id>` work like `sheetdesk <kind> show <id>`.
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first, so the first positional token
// is searched for rather than argv[1].
func rewriteDirectLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":       true,
		"--workspace": true,
		"--actor":     true,
		"--format":    true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
		"--debug":  true,
	}

	insert := func(i int, cmd []string) []string {
		out := make([]string, 0, len(argv)+len(cmd))
		out = append(out, argv[:i]...)
		out = append(out, cmd...)
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if cmd, ok := lookupCommand(argv[i+1]); ok {
					return insert(i+1, cmd)
				}
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if cmd, ok := lookupCommand(a); ok {
			return insert(i, cmd)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
