package clients

import (
	"context"
	"errors"
	"os/exec"
)

// ErrNoOpener is returned when no URL opener is installed.
var ErrNoOpener = errors.New("xdg-open not found")

// XDGLauncher opens URLs with xdg-open.
type XDGLauncher struct {
	path string
}

// NewXDGLauncher looks up xdg-open on PATH.
func NewXDGLauncher() *XDGLauncher {
	l := &XDGLauncher{}
	if path, err := exec.LookPath("xdg-open"); err == nil {
		l.path = path
	}
	return l
}

// Launch starts xdg-open without waiting for it.
func (l *XDGLauncher) Launch(ctx context.Context, url string) error {
	if l.path == "" {
		return ErrNoOpener
	}
	cmd := exec.CommandContext(ctx, l.path, url)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
