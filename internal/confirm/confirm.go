// Package confirm decides whether a live metadata write may proceed.
package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/db/models"
)

// Token is what an operator must type to approve a write.
const Token = "APPLY"

// Policy names accepted by FromPolicy.
const (
	PolicyPrompt = "prompt"
	PolicyAllow  = "allow"
	PolicyDeny   = "deny"
)

// ErrNoInput is returned when the interactive input is closed before an answer.
var ErrNoInput = errors.New("confirmation input closed")

// Provider is asked before each live write to YouTube.
type Provider interface {
	Confirm(ctx context.Context, videoID string, changes models.MetadataChanges) (bool, error)
}

// Func adapts a function to a Provider.
type Func func(ctx context.Context, videoID string, changes models.MetadataChanges) (bool, error)

func (f Func) Confirm(ctx context.Context, videoID string, changes models.MetadataChanges) (bool, error) {
	return f(ctx, videoID, changes)
}

type static bool

func (s static) Confirm(ctx context.Context, _ string, _ models.MetadataChanges) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(s), nil
}

// Allow approves every write. Use only for unattended runs that have already
// opted out of dry-run.
func Allow() Provider { return static(true) }

// Deny declines every write.
func Deny() Provider { return static(false) }

// Interactive prints a preview of each change and waits for the operator to
// type Token.
type Interactive struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{in: bufio.NewReader(in), out: out}
}

func (p *Interactive) Confirm(ctx context.Context, videoID string, changes models.MetadataChanges) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(p.out, "\nCONFIRMATION REQUIRED\nVideo ID: %s\nChanges to apply:\n", videoID)
	if changes.Title != "" {
		fmt.Fprintf(p.out, "  - title: %s\n", preview(changes.Title))
	}
	if changes.Description != "" {
		fmt.Fprintf(p.out, "  - description: %s\n", preview(changes.Description))
	}
	if len(changes.Tags) > 0 {
		fmt.Fprintf(p.out, "  - tags (merged): %s\n", preview(strings.Join(changes.Tags, ", ")))
	}
	fmt.Fprintf(p.out, "\nType '%s' to confirm, anything else to cancel: ", Token)

	line, err := p.in.ReadString('\n')
	switch {
	case errors.Is(err, io.EOF) && line == "":
		return false, ErrNoInput
	case err != nil && !errors.Is(err, io.EOF):
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if strings.TrimSpace(line) != Token {
		fmt.Fprintln(p.out, "Update cancelled")
		return false, nil
	}
	return true, nil
}

func preview(s string) string {
	if r := []rune(s); len(r) > 100 {
		return string(r[:100]) + "..."
	}
	return s
}

// FromPolicy builds the provider named by the workflow.confirmation setting.
// in and out are only used by the prompt policy.
func FromPolicy(policy string, in io.Reader, out io.Writer) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case PolicyPrompt, "":
		return NewInteractive(in, out), nil
	case PolicyAllow:
		return Allow(), nil
	case PolicyDeny:
		return Deny(), nil
	default:
		return nil, fmt.Errorf("unknown confirmation policy %q", policy)
	}
}
