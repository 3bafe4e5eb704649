package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"sheetdesk/internal/mutate"
	"sheetdesk/internal/tui"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runApp(t, &App{editSheet: tui.Edit}, args)
}

func runApp(t *testing.T, app *App, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := newRootCmd(app)

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// testEnv isolates config.yaml, the log file and the store for one test.
type testEnv struct {
	t   *testing.T
	dir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("SHEETDESK_CONFIG_DIR", t.TempDir())
	t.Setenv("SHEETDESK_ACTOR", "")
	t.Setenv("SHEETDESK_WORKSPACE", "")
	t.Setenv("SHEETDESK_DIR", "")
	t.Setenv("SHEETDESK_FORMAT", "")
	return &testEnv{t: t, dir: t.TempDir()}
}

func (e *testEnv) mustRun(args ...string) map[string]any {
	e.t.Helper()
	full := append([]string{"--dir", e.dir}, args...)
	stdout, stderr, err := runCLI(e.t, full)
	if err != nil {
		e.t.Fatalf("command failed: sheetdesk %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, string(stderr), string(stdout))
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		e.t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, string(stdout), args)
	}
	if _, ok := env["data"]; !ok {
		e.t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	return env
}

func (e *testEnv) mustFail(args ...string) (stderr string, err error) {
	e.t.Helper()
	full := append([]string{"--dir", e.dir}, args...)
	stdout, errb, err := runCLI(e.t, full)
	if err == nil {
		e.t.Fatalf("expected sheetdesk %v to fail; stdout:\n%s", args, string(stdout))
	}
	return string(errb), err
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data to be an object; got %#v", env["data"])
	}
	return m
}

func dataList(t *testing.T, env map[string]any) []any {
	t.Helper()
	xs, ok := env["data"].([]any)
	if !ok {
		t.Fatalf("expected data to be a list; got %#v", env["data"])
	}
	return xs
}

func idOf(t *testing.T, env map[string]any) string {
	t.Helper()
	id, _ := dataMap(t, env)["id"].(string)
	if id == "" {
		t.Fatalf("expected data.id; got %#v", env["data"])
	}
	return id
}

// seedWorkspace creates an admin, a member, a client, a project and a task.
func seedWorkspace(e *testEnv) (adminID, memberID, clientID, projectID, taskID string) {
	e.t.Helper()
	e.mustRun("init")
	adminID = idOf(e.t, e.mustRun("users", "add", "--name", "Ada", "--email", "ada@example.com"))
	memberID = idOf(e.t, e.mustRun("--actor", adminID, "users", "add", "--name", "Mo"))
	clientID = idOf(e.t, e.mustRun("--actor", adminID, "clients", "add", "--name", "Acme"))
	projectID = idOf(e.t, e.mustRun("--actor", adminID, "projects", "add", "--client", clientID, "--name", "Website"))
	taskID = idOf(e.t, e.mustRun("--actor", adminID, "tasks", "add", "--project", projectID, "--title", "Fix login"))
	return adminID, memberID, clientID, projectID, taskID
}

func TestCLI_FirstUserIsAdminWithoutActor(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("init")

	u := dataMap(t, e.mustRun("users", "add", "--name", "Ada", "--role", "viewer"))
	if u["role"] != "admin" {
		t.Fatalf("expected first user to be admin; got %#v", u["role"])
	}
	id, _ := u["id"].(string)
	if !strings.HasPrefix(id, "usr-") {
		t.Fatalf("expected usr- id; got %q", id)
	}

	evs := dataList(t, e.mustRun("events", id))
	if len(evs) != 1 {
		t.Fatalf("expected one event for the new user; got %#v", evs)
	}
	ev := evs[0].(map[string]any)
	if ev["type"] != "user.create" || ev["actorId"] != id {
		t.Fatalf("unexpected bootstrap event: %#v", ev)
	}

	// Later users need an actor.
	_, err := e.mustFail("users", "add", "--name", "Mo")
	if !errors.Is(err, errNoActor) {
		t.Fatalf("expected errNoActor; got %v", err)
	}
}

func TestCLI_Smoke(t *testing.T) {
	e := newTestEnv(t)
	adminID, memberID, clientID, projectID, taskID := seedWorkspace(e)

	clients := dataList(t, e.mustRun("clients", "list"))
	if len(clients) != 1 {
		t.Fatalf("expected one client; got %#v", clients)
	}
	show := e.mustRun("clients", "show", clientID)
	if projects, _ := show["meta"].(map[string]any)["projects"].([]any); len(projects) != 1 {
		t.Fatalf("expected client meta to list its project; got %#v", show["meta"])
	}

	e.mustRun("--actor", adminID, "projects", "edit", projectID, "--members", memberID)
	p := dataMap(t, e.mustRun("projects", "show", projectID))
	if members, _ := p["memberIds"].([]any); len(members) != 1 || members[0] != memberID {
		t.Fatalf("expected project member %q; got %#v", memberID, p["memberIds"])
	}

	edited := e.mustRun("--actor", adminID, "tasks", "edit", taskID, "--description", "Users get **logged out**", "--priority", "--due", "2026-11-02")
	if changed, _ := edited["meta"].(map[string]any)["changed"].(bool); !changed {
		t.Fatalf("expected edit to report a change; got %#v", edited["meta"])
	}
	again := e.mustRun("--actor", adminID, "tasks", "edit", taskID, "--priority")
	if changed, _ := again["meta"].(map[string]any)["changed"].(bool); changed {
		t.Fatalf("expected repeated edit to be a no-op; got %#v", again["meta"])
	}

	e.mustRun("--actor", adminID, "tasks", "assign", taskID, memberID)
	mine := dataList(t, e.mustRun("--actor", memberID, "tasks", "list", "--mine"))
	if len(mine) != 1 {
		t.Fatalf("expected the assigned task in --mine; got %#v", mine)
	}

	_, err := e.mustFail("--actor", adminID, "tasks", "status", taskID, "blocked")
	if !errors.Is(err, mutate.ErrStatusNoteRequired) {
		t.Fatalf("expected ErrStatusNoteRequired; got %v", err)
	}
	e.mustRun("--actor", adminID, "tasks", "status", taskID, "blocked", "--note", "waiting on the client")
	blocked := dataList(t, e.mustRun("tasks", "list", "--status", "blocked"))
	if len(blocked) != 1 {
		t.Fatalf("expected one blocked task; got %#v", blocked)
	}

	e.mustRun("--actor", memberID, "timelog", "add", taskID, "--minutes", "30", "--note", "repro")
	e.mustRun("--actor", memberID, "timelog", "add", taskID, "--duration", "1h15m")
	logs := e.mustRun("timelog", "list", "--task", taskID)
	if n := len(dataList(t, logs)); n != 2 {
		t.Fatalf("expected 2 time logs; got %d", n)
	}
	ts := e.mustRun("tasks", "show", taskID)
	if minutes, _ := ts["meta"].(map[string]any)["minutes"].(float64); minutes != 105 {
		t.Fatalf("expected 105 minutes logged; got %#v", ts["meta"])
	}

	evs := dataList(t, e.mustRun("events", taskID, "--limit", "0"))
	var types []string
	for _, x := range evs {
		types = append(types, x.(map[string]any)["type"].(string))
	}
	want := []string{"task.create", "task.update", "task.assign", "task.set_status"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("task events:\n got: %v\nwant: %v", types, want)
	}

	archived := dataMap(t, e.mustRun("--actor", adminID, "tasks", "archive", taskID))
	if archived["archived"] != true {
		t.Fatalf("expected archived task; got %#v", archived)
	}
	if n := len(dataList(t, e.mustRun("tasks", "list"))); n != 0 {
		t.Fatalf("expected archived task hidden from list; got %d", n)
	}
	if n := len(dataList(t, e.mustRun("tasks", "list", "--all"))); n != 1 {
		t.Fatalf("expected --all to include the archived task; got %d", n)
	}
}

func TestCLI_MemberCannotCreateClient(t *testing.T) {
	e := newTestEnv(t)
	_, memberID, _, _, _ := seedWorkspace(e)

	_, err := e.mustFail("--actor", memberID, "clients", "add", "--name", "Other")
	var pe mutate.PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PermissionError; got %T %v", err, err)
	}
}

func TestCLI_UnknownActorIsNotFound(t *testing.T) {
	e := newTestEnv(t)
	_, _, _, _, taskID := seedWorkspace(e)

	_, err := e.mustFail("--actor", "usr-missing", "tasks", "edit", taskID, "--title", "x")
	var nf mutate.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "user" {
		t.Fatalf("expected user NotFoundError; got %v", err)
	}
}

func TestCLI_EditWithoutFlagsOpensSheet(t *testing.T) {
	e := newTestEnv(t)
	adminID, _, _, _, taskID := seedWorkspace(e)

	var got tui.EditOptions
	app := &App{editSheet: func(ctx context.Context, opts tui.EditOptions) (tui.EditOutcome, error) {
		got = opts
		return tui.EditOutcome{Kind: opts.Kind, ID: opts.ID, Saves: 1, Changed: true, Snapshots: 3}, nil
	}}
	stdout, stderr, err := runApp(t, app, []string{"--dir", e.dir, "--actor", adminID, "tasks", "edit", taskID})
	if err != nil {
		t.Fatalf("tasks edit: %v\nstderr:\n%s", err, string(stderr))
	}
	if got.Kind != tui.KindTask || got.ID != taskID || got.ActorID != adminID {
		t.Fatalf("unexpected edit options: kind=%q id=%q actor=%q", got.Kind, got.ID, got.ActorID)
	}
	if got.Store.Dir != e.dir {
		t.Fatalf("expected store dir %q; got %q", e.dir, got.Store.Dir)
	}
	if got.Limits.MaxSnapshots <= 0 || got.Limits.Debounce <= 0 {
		t.Fatalf("expected configured limits; got %#v", got.Limits)
	}

	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal: %v\nstdout:\n%s", err, string(stdout))
	}
	out := dataMap(t, env)
	if out["kind"] != "task" || out["saves"] != float64(1) || out["snapshots"] != float64(3) {
		t.Fatalf("unexpected outcome: %#v", out)
	}
}

func TestCLI_EditSheetErrorIsReturned(t *testing.T) {
	e := newTestEnv(t)
	adminID, _, clientID, _, _ := seedWorkspace(e)

	boom := errors.New("no terminal")
	app := &App{editSheet: func(ctx context.Context, opts tui.EditOptions) (tui.EditOutcome, error) {
		return tui.EditOutcome{}, boom
	}}
	_, stderr, err := runApp(t, app, []string{"--dir", e.dir, "--actor", adminID, "clients", "edit", clientID})
	if !errors.Is(err, boom) {
		t.Fatalf("expected editor error; got %v", err)
	}
	if !strings.Contains(string(stderr), "no terminal") {
		t.Fatalf("expected error on stderr; got %q", string(stderr))
	}
}

func TestCLI_YAMLFormat(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("init")
	e.mustRun("users", "add", "--name", "Ada")

	stdout, _, err := runCLI(t, []string{"--dir", e.dir, "--format", "yaml", "users", "list"})
	if err != nil {
		t.Fatalf("users list: %v", err)
	}
	if !strings.Contains(string(stdout), "name: Ada") {
		t.Fatalf("expected yaml output; got:\n%s", string(stdout))
	}
}

func TestCLI_ConfigShowUsesEnvActor(t *testing.T) {
	e := newTestEnv(t)
	t.Setenv("SHEETDESK_ACTOR", "usr-env")

	env := e.mustRun("config", "show")
	meta, _ := env["meta"].(map[string]any)
	if meta["actor"] != "usr-env" {
		t.Fatalf("expected actor from SHEETDESK_ACTOR; got %#v", meta)
	}

	env = e.mustRun("--actor", "usr-flag", "config", "show")
	meta, _ = env["meta"].(map[string]any)
	if meta["actor"] != "usr-flag" {
		t.Fatalf("expected --actor to win; got %#v", meta)
	}
}

func TestCLI_PublishProject(t *testing.T) {
	e := newTestEnv(t)
	adminID, _, _, projectID, taskID := seedWorkspace(e)
	e.mustRun("--actor", adminID, "timelog", "add", taskID, "--minutes", "90")

	_, err := e.mustFail("publish", "project", projectID)
	var mf missingFlagError
	if !errors.As(err, &mf) || mf.flag != "to" {
		t.Fatalf("expected missing --to; got %v", err)
	}

	to := t.TempDir()
	res := dataMap(t, e.mustRun("publish", "project", projectID, "--to", to, "--include-timelog"))
	written, _ := res["written"].([]any)
	if len(written) != 2 {
		t.Fatalf("expected index + one task page; got %#v", res)
	}
	if _, err := e.mustFail("publish", "project", projectID, "--to", to); err == nil {
		t.Fatalf("expected second publish without --overwrite to fail")
	}
	e.mustRun("publish", "project", projectID, "--to", to, "--overwrite")
}
