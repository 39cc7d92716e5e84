//go:build windows

package execs

import "os/exec"

// setProcessGroup is a no-op on Windows; process groups as used for signal
// delivery are a POSIX concept.
func setProcessGroup(_ *exec.Cmd) {}

// terminateGroup kills the process directly. Descendant processes are not
// tracked on Windows.
func terminateGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	return cmd.Process.Kill()
}
