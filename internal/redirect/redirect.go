// Package redirect rebinds the standard streams of a command to files.
package redirect

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/marcelocantos/tsh/internal/ast"
	"github.com/marcelocantos/tsh/internal/word"
)

// FileMode is the permission used for files created by output redirection.
const FileMode = 0644

// Stdio is the stream view of a single command. A nil In reads from the
// null device; nil Out and Err discard.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Std returns the process's own streams.
func Std() Stdio {
	return Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Env is what redirection needs from the session state.
type Env interface {
	word.Lookuper
	Dir() string
}

// Opener opens redirection targets on a filesystem.
type Opener struct {
	fs afero.Fs
}

// NewOpener returns an Opener on fs, or on the OS filesystem if fs is nil.
// Only files from the OS filesystem are handed to child processes as
// descriptors; other filesystems are streamed through pipes.
func NewOpener(fs afero.Fs) *Opener {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Opener{fs: fs}
}

// Apply returns base with the redirections of s applied and a function that
// closes every file it opened. On error nothing is left open.
//
// When output and error resolve to the same path the file is opened once
// and shared, appending if either stream asked to append.
func (o *Opener) Apply(s *ast.Simple, env Env, base Stdio) (Stdio, func() error, error) {
	out := base
	var files []afero.File
	closeAll := func() error {
		var errs []error
		for _, f := range files {
			if err := f.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		files = nil
		return errors.Join(errs...)
	}
	fail := func(err error) (Stdio, func() error, error) {
		_ = closeAll()
		return base, nil, err
	}

	if s.In != nil {
		path, err := o.path(s.In, env)
		if err != nil {
			return fail(err)
		}
		f, err := o.fs.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			return fail(err)
		}
		files = append(files, f)
		out.In = f
	}

	var outPath, errPath string
	if s.Out != nil {
		p, err := o.path(s.Out, env)
		if err != nil {
			return fail(err)
		}
		outPath = p
	}
	if s.Err != nil {
		p, err := o.path(s.Err, env)
		if err != nil {
			return fail(err)
		}
		errPath = p
	}

	if outPath != "" && outPath == errPath {
		appendMode := s.Flags&(ast.OutAppend|ast.ErrAppend) != 0
		f, err := o.create(outPath, appendMode)
		if err != nil {
			return fail(err)
		}
		files = append(files, f)
		out.Out, out.Err = f, f
		return out, closeAll, nil
	}

	if outPath != "" {
		f, err := o.create(outPath, s.Flags&ast.OutAppend != 0)
		if err != nil {
			return fail(err)
		}
		files = append(files, f)
		out.Out = f
	}
	if errPath != "" {
		f, err := o.create(errPath, s.Flags&ast.ErrAppend != 0)
		if err != nil {
			return fail(err)
		}
		files = append(files, f)
		out.Err = f
	}
	return out, closeAll, nil
}

func (o *Opener) create(path string, appendMode bool) (afero.File, error) {
	flag := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	return o.fs.OpenFile(path, flag, FileMode)
}

func (o *Opener) path(w ast.Word, env Env) (string, error) {
	p := word.Resolve(w, env)
	if p == "" {
		return "", fmt.Errorf("%s: ambiguous redirect", ast.Quote(w))
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(env.Dir(), p)
	}
	return p, nil
}
