package preflight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Tools checked on PATH, in report order
var Tools = []string{"az", "azd", "bicep"}

const (
	validationLevel         = "--validation-level Provider"
	fallbackValidationLevel = "--validation-level ProviderNoRbac"
)

// LookPathFunc resolves a tool name to its path
type LookPathFunc func(name string) (string, error)

// CheckTools resolves each tool; a missing tool maps to an empty path
func CheckTools(lookPath LookPathFunc) map[string]string {
	tools := make(map[string]string, len(Tools))
	for _, name := range Tools {
		path, err := lookPath(name)
		if err != nil {
			path = ""
		}
		tools[name] = path
	}
	return tools
}

// BuildCommand returns the bicep build dry-run for a template
func BuildCommand(bicepPath string) string {
	return fmt.Sprintf("bicep build %s --stdout", bicepPath)
}

// WhatIfCommand returns the scope-specific what-if for a template
func WhatIfCommand(scope Scope, bicepPath string) (string, error) {
	switch scope {
	case ScopeResourceGroup:
		return fmt.Sprintf("az deployment group what-if --resource-group <rg-name> --template-file %s %s", bicepPath, validationLevel), nil
	case ScopeSubscription:
		return fmt.Sprintf("az deployment sub what-if --location <location> --template-file %s %s", bicepPath, validationLevel), nil
	case ScopeManagementGroup:
		return fmt.Sprintf("az deployment mg what-if --location <location> --management-group-id <mg-id> --template-file %s %s", bicepPath, validationLevel), nil
	case ScopeTenant:
		return fmt.Sprintf("az deployment tenant what-if --location <location> --template-file %s %s", bicepPath, validationLevel), nil
	default:
		return "", fmt.Errorf("no what-if command for scope %q", scope)
	}
}

// FallbackCommand swaps the validation level of a what-if for ProviderNoRbac
func FallbackCommand(cmd string) string {
	return strings.Replace(cmd, validationLevel, fallbackValidationLevel, 1)
}

// Runner executes a shell command and returns its exit code and combined output
type Runner interface {
	Run(ctx context.Context, command string) (int, string)
}

// ShellRunner runs commands through sh -c
type ShellRunner struct {
	Dir string
}

// Run executes command and captures stdout and stderr
func (r ShellRunner) Run(ctx context.Context, command string) (int, string) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), out.String()
		}
		return 1, err.Error()
	}
	return 0, out.String()
}
