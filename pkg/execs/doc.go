// Package execs provides utilities for executing external commands.
//
// Unlike a plain [os/exec.Cmd], commands started here run in their own
// process group and stream combined stdout/stderr line-by-line to the
// caller, so that a whole command tree can be observed live and terminated
// as a unit.
package execs
