// Package resultsdir manages the per-transaction directory a non-blocking
// action writes its stdout/stderr/exitcode/pid files into, grounded on the
// atomic move/copy fallback chainwatch's daemon package uses for its own
// state-directory transitions.
package resultsdir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

const dirPerm = 0750

// Dir represents a created, ready-to-use results directory for one
// transaction.
type Dir struct {
	path string
}

// Open ensures an already-assigned results directory (its full path, e.g.
// ActionRequest.ResultsDir) exists and returns a Dir for it.
func Open(path string) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("results directory path is empty")
	}
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return nil, fmt.Errorf("create results directory %s: %w", path, err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory's absolute path.
func (d *Dir) Path() string { return d.path }

// StdoutPath, StderrPath and ExitCodePath are the three output_files entries
// the action-arguments document advertises to the child.
func (d *Dir) StdoutPath() string   { return filepath.Join(d.path, "stdout") }
func (d *Dir) StderrPath() string   { return filepath.Join(d.path, "stderr") }
func (d *Dir) ExitCodePath() string { return filepath.Join(d.path, "exitcode") }
func (d *Dir) PIDPath() string      { return filepath.Join(d.path, "pid") }

// WritePID atomically writes the child's pid, via a sibling temp file then
// rename, so a reader never observes a partially written pid file.
func (d *Dir) WritePID(pid int) error {
	return atomicWrite(d.PIDPath(), []byte(fmt.Sprintf("%d\n", pid)))
}

// ReadStdout reads back the child's stdout file. Its absence is not an
// error here — callers treat a missing file as empty stdout and log at
// debug level; this function simply distinguishes "missing" from other
// read failures so the caller can apply that policy.
func (d *Dir) ReadStdout() (text string, missing bool, err error) {
	b, err := os.ReadFile(d.StdoutPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", true, nil
		}
		return "", false, err
	}
	return string(b), false, nil
}

// ReadStderr reads back the child's stderr file. A missing stderr file is
// reported as empty text with no error — spec.md treats stderr absence as
// non-fatal.
func (d *Dir) ReadStderr() (string, error) {
	b, err := os.ReadFile(d.StderrPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(b), nil
}

func atomicWrite(dst string, data []byte) error {
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("write temp file %s: %w", tmp, err)
	}
	if err := moveFile(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", dst, err)
	}
	return nil
}

// moveFile moves src to dst via os.Rename, falling back to copy+remove on
// EXDEV (cross-device rename, e.g. a bind-mounted results root).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else {
		var errno syscall.Errno
		if !errors.As(err, &errno) || errno != syscall.EXDEV {
			return err
		}
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
