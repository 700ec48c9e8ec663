// Package auth resolves platform access tokens: environment variables first,
// then the platform's own CLI tool (gh, glab).
package auth

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/canadaduane/jj-ryu/internal/model"
)

// Source tells where a token came from.
type Source string

const (
	SourceEnv Source = "env"
	SourceCLI Source = "cli"
)

// Token is a resolved platform credential. Origin names the environment
// variable or CLI tool that supplied it, for display.
type Token struct {
	Value  string
	Source Source
	Origin string
}

// NoTokenError means neither the environment nor the CLI tool had a token.
type NoTokenError struct {
	Platform model.PlatformKind
}

func (e *NoTokenError) Error() string {
	if e.Platform == model.PlatformGitLab {
		return "no GitLab token found: set GITLAB_TOKEN or run 'glab auth login'"
	}
	return "no GitHub token found: set GITHUB_TOKEN or run 'gh auth login'"
}

// ResolveToken finds a token for the platform.
func ResolveToken(ctx context.Context, kind model.PlatformKind) (Token, error) {
	if kind == model.PlatformGitLab {
		return resolve(ctx, kind, []string{"GITLAB_TOKEN", "GL_TOKEN"}, "glab")
	}
	return resolve(ctx, kind, []string{"GITHUB_TOKEN", "GH_TOKEN"}, "gh")
}

func resolve(ctx context.Context, kind model.PlatformKind, envVars []string, tool string) (Token, error) {
	for _, name := range envVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			logs.Debug("auth: using token from %s", name)
			return Token{Value: v, Source: SourceEnv, Origin: name}, nil
		}
	}
	if v, err := cliToken(ctx, tool); err == nil && v != "" {
		logs.Debug("auth: using token from '%s auth token'", tool)
		return Token{Value: v, Source: SourceCLI, Origin: tool}, nil
	}
	return Token{}, &NoTokenError{Platform: kind}
}

func cliToken(ctx context.Context, tool string) (string, error) {
	out, err := exec.CommandContext(ctx, tool, "auth", "token").Output()
	if err != nil {
		return "", errors.Wrapf(err, "%s auth token", tool)
	}
	return strings.TrimSpace(string(out)), nil
}

// Describe renders the token source for user-facing output, e.g.
// "GITHUB_TOKEN environment variable" or "gh CLI".
func (t Token) Describe() string {
	if t.Source == SourceCLI {
		return fmt.Sprintf("%s CLI", t.Origin)
	}
	return fmt.Sprintf("%s environment variable", t.Origin)
}
