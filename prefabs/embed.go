package prefabs

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Dir is the on-disk override directory. Files found there win over the
// embedded copies so tuning can be edited without rebuilding.
var Dir = "prefabs"

//go:embed *.yaml scripts/*.tengo
var embedded embed.FS

var errEmptyName = errors.New("prefabs: empty name")

// Load reads a spec file.
func Load(name string) ([]byte, error) {
	return read(specPath(name))
}

// LoadScript reads a behavior script. Bare names resolve under scripts/.
func LoadScript(name string) ([]byte, error) {
	return read(scriptPath(name))
}

func read(rel string) ([]byte, error) {
	if rel == "" {
		return nil, errEmptyName
	}
	if data, err := os.ReadFile(filepath.Join(Dir, filepath.FromSlash(rel))); err == nil {
		return data, nil
	}
	return embedded.ReadFile(rel)
}

// Specs lists the embedded spec files.
func Specs() []string {
	names, _ := fs.Glob(embedded, "*.yaml")
	return names
}

// specPath turns a name as written in a level or a flag into a path
// relative to Dir.
func specPath(name string) string {
	if name == "" {
		return ""
	}
	p := path.Clean(filepath.ToSlash(name))
	p = strings.TrimPrefix(p, "prefabs/")
	return p
}

func scriptPath(name string) string {
	p := specPath(name)
	if p == "" {
		return ""
	}
	return "scripts/" + strings.TrimPrefix(p, "scripts/")
}
