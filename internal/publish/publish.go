package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"sheetdesk/internal/model"
	"sheetdesk/internal/store"
)

type WriteOptions struct {
	IncludeArchived bool
	IncludeTimeLog  bool
	Overwrite       bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteTask writes <toDir>/tasks/<task-id>.md.
func WriteTask(db *store.DB, taskID string, toDir string, opt WriteOptions) (WriteResult, error) {
	if db == nil {
		return WriteResult{}, errors.New("missing db")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return WriteResult{}, errors.New("missing taskID")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	md, err := RenderTaskMarkdown(db, taskID, opt.renderOptions())
	if err != nil {
		return WriteResult{}, err
	}

	outDir := filepath.Join(toDir, "tasks")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(outDir, taskID+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

// WriteProject writes a client-facing report for one project:
// <toDir>/projects/<project-id>/index.md plus one page per task.
func WriteProject(db *store.DB, projectID string, toDir string, opt WriteOptions) (WriteResult, error) {
	if db == nil {
		return WriteResult{}, errors.New("missing db")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return WriteResult{}, errors.New("missing projectID")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	tasks := make([]*model.Task, 0)
	for i := range db.Tasks {
		t := &db.Tasks[i]
		if t.ProjectID != projectID {
			continue
		}
		if t.Archived && !opt.IncludeArchived {
			continue
		}
		tasks = append(tasks, t)
	}

	projectDir := filepath.Join(toDir, "projects", projectID)
	tasksDir := filepath.Join(projectDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	indexMD, err := RenderProjectIndexMarkdown(db, projectID, tasks, opt.renderOptions())
	if err != nil {
		return WriteResult{}, err
	}
	indexPath := filepath.Join(projectDir, "index.md")
	if err := writeFile(indexPath, []byte(indexMD), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	// Stop on the first failing page; pages already written stay.
	written := []string{indexPath}
	for _, t := range tasks {
		md, err := RenderTaskMarkdown(db, t.ID, opt.renderOptions())
		if err != nil {
			return WriteResult{}, err
		}
		p := filepath.Join(tasksDir, t.ID+".md")
		if err := writeFile(p, []byte(md), opt.Overwrite); err != nil {
			return WriteResult{}, err
		}
		written = append(written, p)
	}

	return WriteResult{Written: written}, nil
}

func (o WriteOptions) renderOptions() RenderOptions {
	return RenderOptions{IncludeArchived: o.IncludeArchived, IncludeTimeLog: o.IncludeTimeLog}
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
