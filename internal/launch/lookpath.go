package launch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	ErrNotFound      = errors.New("command not found")
	ErrNotExecutable = errors.New("permission denied")
	ErrIsDirectory   = errors.New("is a directory")
)

// LookupError reports why a verb did not resolve to a program.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string { return e.Name + ": " + e.Err.Error() }
func (e *LookupError) Unwrap() error { return e.Err }

// Env is what program lookup needs from the session state.
type Env interface {
	Getenv(name string) string
	Dir() string
}

// LookPath resolves name the way execvp does, but against the session's
// PATH and working directory rather than the interpreter's. A name
// containing a slash is used as a path.
func LookPath(name string, env Env) (string, error) {
	if name == "" {
		return "", &LookupError{Name: name, Err: ErrNotFound}
	}
	if strings.Contains(name, "/") {
		p := name
		if !filepath.IsAbs(p) {
			p = filepath.Join(env.Dir(), p)
		}
		if err := checkExecutable(p); err != nil {
			return "", &LookupError{Name: name, Err: err}
		}
		return p, nil
	}

	var denied error
	for _, dir := range filepath.SplitList(env.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(env.Dir(), dir)
		}
		p := filepath.Join(dir, name)
		err := checkExecutable(p)
		if err == nil {
			return p, nil
		}
		if denied == nil && !errors.Is(err, ErrNotFound) {
			denied = err
		}
	}
	if denied != nil {
		return "", &LookupError{Name: name, Err: denied}
	}
	return "", &LookupError{Name: name, Err: ErrNotFound}
}

func checkExecutable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return ErrNotFound
	}
	if fi.IsDir() {
		return ErrIsDirectory
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return ErrNotExecutable
	}
	return nil
}
