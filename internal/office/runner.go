// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/officebridge/internal/container"
)

// runner executes soffice, either on the host or inside a container.
type runner interface {
	// Check verifies soffice can be started at all.
	Check(ctx context.Context) error
	// Run invokes soffice with args. workspace is the host directory every
	// path in args lives under.
	Run(ctx context.Context, workspace string, args []string, stdout, stderr io.Writer) error
	// Path translates a host path under workspace into the path soffice sees.
	Path(workspace, hostPath string) string
}

// localRunner runs an soffice binary installed on the host.
type localRunner struct {
	bin      string
	lookPath func(string) (string, error)
}

func newLocalRunner(bin string) *localRunner {
	return &localRunner{bin: bin, lookPath: exec.LookPath}
}

func (r *localRunner) Check(context.Context) error {
	if _, err := r.lookPath(r.bin); err != nil {
		return fmt.Errorf("locating %s: %w", r.bin, err)
	}
	return nil
}

func (r *localRunner) Run(ctx context.Context, _ string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

func (r *localRunner) Path(_, hostPath string) string { return hostPath }

// containerMountPoint is where the workspace appears inside the container.
const containerMountPoint = "/work"

// containerRunner runs soffice from a container image. The runtime is
// detected on first Check.
type containerRunner struct {
	image  string
	detect func(context.Context) (container.Runtime, error)
	rt     container.Runtime
}

func newContainerRunner(image string) *containerRunner {
	return &containerRunner{image: image, detect: container.DetectRuntime}
}

func (r *containerRunner) Check(ctx context.Context) error {
	if r.rt == nil {
		rt, err := r.detect(ctx)
		if err != nil {
			return err
		}
		r.rt = rt
	}
	return r.rt.ImageExists(ctx, r.image)
}

func (r *containerRunner) Run(ctx context.Context, workspace string, args []string, stdout, stderr io.Writer) error {
	if r.rt == nil {
		return fmt.Errorf("container runtime not checked")
	}
	spec := container.RunSpec{
		Image:   r.image,
		Mounts:  []container.Mount{{Source: workspace, Target: containerMountPoint}},
		Workdir: containerMountPoint,
		User:    hostUser(),
		Args:    append([]string{"soffice"}, args...),
	}
	return r.rt.Run(ctx, spec, stdout, stderr)
}

func (r *containerRunner) Path(workspace, hostPath string) string {
	rel, err := filepath.Rel(workspace, hostPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return hostPath
	}
	return path.Join(containerMountPoint, filepath.ToSlash(rel))
}

// hostUser returns "uid:gid" of the caller, or "" where ids are unavailable.
func hostUser() string {
	uid, gid := os.Getuid(), os.Getgid()
	if uid < 0 || gid < 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", uid, gid)
}
