// Package exitcode names the statuses the interpreter itself produces.
package exitcode

const (
	Success       = 0
	Failure       = 1   // generic failure: built-in error, redirection, pipe creation
	Usage         = 2   // syntax errors and bad invocations of tsh itself
	NotExecutable = 126 // program found but could not be started
	NotFound      = 127 // program not found
	SignalBase    = 128 // a child killed by signal N reports SignalBase+N
)
