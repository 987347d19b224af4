// Package procenv holds the state every command of a session shares: the
// working directory and the environment table.
//
// The root Env returned by FromProcess is live: changing it changes the
// process itself, so built-ins are globally visible exactly as they are in a
// shell. Fork returns a detached copy for concurrent branches, the
// equivalent of the copy a forked child inherits. External programs always
// receive Dir and Environ of the Env they were launched from.
package procenv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// Env is a working directory plus an environment table.
type Env struct {
	mu   sync.RWMutex
	dir  string
	vars map[string]string
	live bool
}

// FromProcess captures the current process state. Mutations of the
// returned Env are applied to the process as well.
func FromProcess() (*Env, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getwd: %w", err)
	}
	e := New(dir, os.Environ())
	e.live = true
	return e, nil
}

// New creates a detached Env from a directory and KEY=value pairs.
func New(dir string, environ []string) *Env {
	e := &Env{
		dir:  filepath.Clean(dir),
		vars: make(map[string]string, len(environ)),
	}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		e.vars[k] = v
	}
	return e
}

// Live reports whether the Env mirrors the process.
func (e *Env) Live() bool {
	return e.live
}

// Dir returns the working directory.
func (e *Env) Dir() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dir
}

// Getenv returns the value of a variable, or "" if unset.
func (e *Env) Getenv(name string) string {
	v, _ := e.LookupEnv(name)
	return v
}

// LookupEnv returns the value of a variable and whether it is set.
func (e *Env) LookupEnv(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[name]
	return v, ok
}

// Setenv sets a variable.
func (e *Env) Setenv(name, value string) error {
	if name == "" || strings.ContainsAny(name, "=\x00") {
		return fmt.Errorf("setenv %q: invalid variable name", name)
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("setenv %s: value contains NUL", name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live {
		if err := os.Setenv(name, value); err != nil {
			return fmt.Errorf("setenv %s: %w", name, err)
		}
	}
	e.vars[name] = value
	return nil
}

// Chdir changes the working directory and sets PWD to the new absolute
// path. A relative dir is resolved against the current directory. On error
// nothing changes.
func (e *Env) Chdir(dir string) error {
	if dir == "" {
		return &fs.PathError{Op: "chdir", Path: dir, Err: syscall.ENOENT}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	target := dir
	if !filepath.IsAbs(target) {
		target = filepath.Join(e.dir, target)
	}
	target = filepath.Clean(target)

	if e.live {
		if err := os.Chdir(target); err != nil {
			return err
		}
		if err := os.Setenv("PWD", target); err != nil {
			_ = os.Chdir(e.dir)
			return fmt.Errorf("setenv PWD: %w", err)
		}
	} else if err := checkDir(target); err != nil {
		return err
	}

	e.dir = target
	e.vars["PWD"] = target
	return nil
}

// checkDir applies the checks chdir(2) would make without moving the
// process.
func checkDir(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return &fs.PathError{Op: "chdir", Path: path, Err: pe.Err}
		}
		return err
	}
	if !fi.IsDir() {
		return &fs.PathError{Op: "chdir", Path: path, Err: syscall.ENOTDIR}
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return &fs.PathError{Op: "chdir", Path: path, Err: err}
	}
	return nil
}

// Environ returns the environment as sorted KEY=value pairs.
func (e *Env) Environ() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Fork returns a detached copy. Changes to the copy never reach e.
func (e *Env) Fork() *Env {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c := &Env{
		dir:  e.dir,
		vars: make(map[string]string, len(e.vars)),
	}
	for k, v := range e.vars {
		c.vars[k] = v
	}
	return c
}
