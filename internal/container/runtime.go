// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs one-shot tools (such as pdftotext) inside a docker
// or podman container, streaming the input on stdin and reading stdout.
package container

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime runs containers through a specific engine binary.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the binary is on PATH and answers "info".
	Available() bool

	// ImageExists returns nil when the named image is present locally.
	ImageExists(image string) error

	// Run starts image with the optional command, pipes stdin in and
	// copies the container's stdout to stdout. The container is removed
	// on exit.
	Run(ctx context.Context, image string, command []string, stdin io.Reader, stdout io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

// engine implements Runtime. Docker and Podman differ only in the binary
// name and the subcommand that checks for a local image.
type engine struct {
	bin           string
	imageCheckCmd []string
	exec          executor
}

func (e *engine) Name() string { return e.bin }

func (e *engine) Available() bool {
	if _, err := e.exec.LookPath(e.bin); err != nil {
		return false
	}
	return e.exec.RunSilent(e.bin, "info") == nil
}

func (e *engine) ImageExists(image string) error {
	args := append(append([]string{}, e.imageCheckCmd...), image)
	if err := e.exec.RunSilent(e.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, e.bin, err)
	}
	return nil
}

func (e *engine) Run(ctx context.Context, image string, command []string, stdin io.Reader, stdout io.Writer) error {
	args := append([]string{"run", "--rm", "-i", "--network", "none", image}, command...)
	if err := e.exec.RunPiped(ctx, e.bin, args, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", e.bin, image, err)
	}
	return nil
}

func newDocker(x executor) *engine {
	return &engine{bin: binDocker, imageCheckCmd: []string{"image", "inspect"}, exec: x}
}

func newPodman(x executor) *engine {
	return &engine{bin: binPodman, imageCheckCmd: []string{"image", "exists"}, exec: x}
}

var defaultExec = &osExecutor{}

// Detect tries docker first and falls back to podman.
func Detect() (Runtime, error) {
	return detect(defaultExec)
}

func detect(x executor) (Runtime, error) {
	for _, rt := range []*engine{newDocker(x), newPodman(x)} {
		if rt.Available() {
			return rt, nil
		}
	}
	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
