// Package workspace scopes all relative input and output names for one
// pipeline invocation and carries the overwrite policy. Both were ambient
// process-wide state in earlier tooling for this workflow; here they are
// explicit values threaded through the pipeline, with scoped helpers that
// guarantee the prior working context is restored on exit, error or not.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/coastal-group/tidegate-cli/internal/errs"
)

// Workspace scopes relative names and holds the overwrite policy for one run.
type Workspace struct {
	Dir       string
	Overwrite bool
}

// New validates that dir exists and is a directory.
func New(dir string, overwrite bool) (*Workspace, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errs.NotFoundError{Kind: "workspace", Name: dir}
		}
		return nil, eris.Wrapf(err, "workspace: stat %s", dir)
	}
	if !info.IsDir() {
		return nil, errs.Configurationf("workspace %q is not a directory", dir)
	}
	return &Workspace{Dir: dir, Overwrite: overwrite}, nil
}

// Resolve returns the absolute path of a name inside the workspace. Absolute
// names pass through untouched.
func (w *Workspace) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(w.Dir, name)
}

// Exists reports whether a name resolves to an existing file. Shapefile
// outputs are judged by their .shp part.
func (w *Workspace) Exists(name string) bool {
	_, err := os.Stat(w.Resolve(name))
	return err == nil
}

// CheckOutput enforces the overwrite policy for an output name. With
// overwrite disabled an existing output fails with AlreadyExistsError. With
// overwrite enabled the prior output (and its shapefile sidecars) is removed
// before the caller recomputes it; if the recompute later fails the prior
// output is already gone. That destroy-then-recompute ordering is inherited
// behavior callers must account for.
func (w *Workspace) CheckOutput(name string) error {
	path := w.Resolve(name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "workspace: stat output %s", name)
	}
	if !w.Overwrite {
		return &errs.AlreadyExistsError{Name: name}
	}
	for _, p := range sidecars(path) {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "workspace: remove prior output %s", p)
		}
	}
	return nil
}

// sidecars lists the file set that makes up one named output. For .shp that
// is the shp/shx/dbf/prj quartet; anything else is a single file.
func sidecars(path string) []string {
	ext := filepath.Ext(path)
	if ext != ".shp" {
		return []string{path}
	}
	base := path[:len(path)-len(ext)]
	return []string{base + ".shp", base + ".shx", base + ".dbf", base + ".prj"}
}

// Enter makes the workspace the process working directory and returns a
// restore function. The restore function must run even when the caller fails;
// nested invocations inside a longer-lived host depend on it.
func (w *Workspace) Enter() (func() error, error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, eris.Wrap(err, "workspace: getwd")
	}
	if err := os.Chdir(w.Dir); err != nil {
		return nil, eris.Wrapf(err, "workspace: chdir %s", w.Dir)
	}
	return func() error {
		if err := os.Chdir(prev); err != nil {
			return eris.Wrapf(err, "workspace: restore %s", prev)
		}
		return nil
	}, nil
}

// Use runs fn with the workspace as the working directory, restoring the
// prior directory afterwards even if fn returns an error or panics.
func (w *Workspace) Use(fn func() error) error {
	restore, err := w.Enter()
	if err != nil {
		return err
	}
	defer func() { _ = restore() }()
	return fn()
}
