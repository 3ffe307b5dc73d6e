package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// maxNoteOutput bounds the command output quoted in a note
const maxNoteOutput = 200

// Options configures a preflight run
type Options struct {
	Root    string
	Execute bool

	// Runner, LookPath and Now default to the shell, exec.LookPath and time.Now
	Runner   Runner
	LookPath LookPathFunc
	Now      func() time.Time
	Logger   *zap.Logger
}

// File is a discovered Bicep template
type File struct {
	Path       string
	Scope      Scope
	ParamFiles []string
}

// Report holds the findings of a preflight run
type Report struct {
	GeneratedAt time.Time
	Root        string
	AzdProject  bool
	Files       []File
	Tools       map[string]string
	Commands    []string
	Notes       []string
}

// Run inspects opts.Root and, when opts.Execute is set, runs the validation commands
func Run(ctx context.Context, opts Options) (*Report, error) {
	opts = withDefaults(opts)

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	paths, err := FindBicepFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to find bicep files: %w", err)
	}

	report := &Report{
		GeneratedAt: opts.Now().UTC(),
		Root:        root,
		AzdProject:  FindAzdProject(root),
		Tools:       CheckTools(opts.LookPath),
	}

	if len(paths) == 0 {
		report.addNote("No .bicep files found.")
	}

	for _, path := range paths {
		file := File{
			Path:       path,
			Scope:      TargetScope(path),
			ParamFiles: DetectParamFiles(path),
		}
		report.Files = append(report.Files, file)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		report.checkFile(ctx, opts, file)
	}

	opts.Logger.Info("preflight finished",
		zap.String("root", root),
		zap.Int("bicep_files", len(report.Files)),
		zap.Int("commands", len(report.Commands)),
		zap.Int("notes", len(report.Notes)))

	return report, nil
}

func withDefaults(opts Options) Options {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Runner == nil {
		opts.Runner = ShellRunner{Dir: opts.Root}
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func (r *Report) checkFile(ctx context.Context, opts Options, file File) {
	if r.Tools["bicep"] != "" {
		cmd := BuildCommand(file.Path)
		r.Commands = append(r.Commands, cmd)

		if opts.Execute {
			if rc, out := opts.Runner.Run(ctx, cmd); rc != 0 {
				r.addNote(fmt.Sprintf("bicep build failed for %s: %s", file.Path, truncate(out, maxNoteOutput)))
			}
		}
	}

	cmd, err := WhatIfCommand(file.Scope, file.Path)
	if err != nil {
		r.addNote(fmt.Sprintf("Skipped what-if for %s: template could not be read", file.Path))
		return
	}
	r.Commands = append(r.Commands, cmd)

	if !opts.Execute {
		return
	}
	if r.Tools["az"] == "" {
		r.addNote("Cannot execute az commands: 'az' not found in PATH")
		return
	}

	rc, _ := opts.Runner.Run(ctx, cmd)
	if rc == 0 {
		return
	}

	r.addNote(fmt.Sprintf("what-if failed for %s (rc=%d), trying fallback: ProviderNoRbac", file.Path, rc))
	opts.Logger.Warn("what-if failed, retrying without RBAC validation",
		zap.String("file", file.Path),
		zap.Int("rc", rc))

	if rc2, _ := opts.Runner.Run(ctx, FallbackCommand(cmd)); rc2 != 0 {
		r.addNote(fmt.Sprintf("Fallback also failed for %s: rc=%d", file.Path, rc2))
	}
}

func (r *Report) addNote(note string) {
	r.Notes = append(r.Notes, note)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
