//go:build windows

package toolchain

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FindRuntime locates a collaborator binary. Bundled binaries under
// bin/<runtime>/windows/x64 next to the executable or the working directory take
// precedence over PATH.
func FindRuntime(runtime string) (string, error) {
	var lookup []string

	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	lookup = append(lookup, filepath.Dir(exePath))

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	lookup = append(lookup, wd)

	for _, dir := range lookup {
		binPath := filepath.Join(dir, "bin", runtime, "windows", "x64", fmt.Sprintf("%s.exe", runtime))
		if _, err = os.Stat(binPath); err != nil {
			continue // continue to next directory
		}
		return binPath, nil
	}

	binPath, err := exec.LookPath(runtime)
	if err != nil {
		return "", NewRuntimeError(runtime, "not found in bundled bin directories or PATH", err)
	}
	return binPath, nil
}
