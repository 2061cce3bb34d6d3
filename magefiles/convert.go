//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert runs a batch conversion manifest with the freshly built CLI.
func Convert(manifest string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "convert", "batch", manifest)
}

// Container groups targets for the container conversion backend.
type Container mg.Namespace

// Pull fetches the LibreOffice image named in the config (default libreoffice:latest).
func (Container) Pull(image string) error {
	if image == "" {
		image = "libreoffice:latest"
	}
	for _, runtime := range []string{"docker", "podman"} {
		if err := sh.RunV(runtime, "pull", image); err == nil {
			return nil
		}
	}
	return fmt.Errorf("could not pull %s with docker or podman", image)
}
