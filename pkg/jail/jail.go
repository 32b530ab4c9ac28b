// Package jail detects and applies the fakechroot isolation wrapper that
// restricts a child process's filesystem view to a single directory.
package jail

import (
	"fmt"
	"os/exec"
	"strings"
)

// Prefix marks case names that opt into jailing by convention.
const Prefix = "case_"

// Supported reports whether the fakechroot wrapper binary is on PATH.
// Detected once per run by the caller, not per case.
func Supported() bool {
	_, err := exec.LookPath("fakechroot")
	return err == nil
}

// Eligible reports whether the named case follows the jailing convention.
func Eligible(name string) bool {
	return strings.HasPrefix(name, Prefix)
}

// Wrap prefixes command with the isolation wrapper bound to dir.
func Wrap(command, dir string) string {
	return fmt.Sprintf("fakechroot chroot %s %s", dir, command)
}
