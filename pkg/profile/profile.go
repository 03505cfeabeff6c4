package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chad-russell/flea/pkg/config"
)

// Profile is a directory of symlinks materializing a computed shell:
// bin/ entries for resolved tools, merged trees for store roots, and
// .refs tracking what was linked.
type Profile struct {
	path string

	// Extra env vars layered over the profile's PATH handling,
	// usually the resolution's BuildEnv.
	Extra map[string]string
}

func OpenProfile(cfg *config.Config, path string) (*Profile, error) {
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, ".") {
		path = filepath.Join(cfg.ProfilesPath, path)
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(path, 0755)
	if err != nil {
		return nil, err
	}

	return &Profile{path: path}, nil
}

func (p *Profile) Path() string {
	return p.path
}

// Link merges a dependency root (a dir with bin/lib/share layout)
// into the profile and records the ref.
func (p *Profile) Link(id string, root string) error {
	refs := filepath.Join(p.path, ".refs")

	if tgt, err := os.Readlink(filepath.Join(refs, id)); err == nil {
		if tgt == root {
			return nil
		}
	}

	err := LinkTree(p.path, root)
	if err != nil {
		return err
	}

	err = os.MkdirAll(refs, 0755)
	if err != nil {
		return err
	}

	tgt := filepath.Join(refs, id)

	os.Remove(tgt)

	return os.Symlink(root, tgt)
}

// LinkBin links a single resolved tool into the profile's bin dir.
// Host-resolved tools don't have a root worth merging, just a
// binary.
func (p *Profile) LinkBin(name, path string) error {
	binDir := filepath.Join(p.path, "bin")

	err := os.MkdirAll(binDir, 0755)
	if err != nil {
		return err
	}

	tgt := filepath.Join(binDir, name)

	if lt, err := os.Readlink(tgt); err == nil {
		if lt == path {
			return nil
		}

		os.Remove(tgt)
	}

	return os.Symlink(path, tgt)
}

// Refs returns the linked ref names.
func (p *Profile) Refs() ([]string, error) {
	f, err := os.Open(filepath.Join(p.path, ".refs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	defer f.Close()

	return f.Readdirnames(-1)
}

func (p *Profile) UpdateEnv(env []string) []string {
	var updates []string

	binDir := filepath.Join(p.path, "bin")

	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			val := kv[5:]
			updates = append(updates, fmt.Sprintf("PATH=%s:%s", binDir, val))
		}
	}

	for k, v := range p.Extra {
		updates = append(updates, fmt.Sprintf("%s=%s", k, v))
	}

	return updates
}

func (p *Profile) ComputeEnv(env []string) []string {
	var updates []string

	binDir := filepath.Join(p.path, "bin")

	seen := map[string]struct{}{}

	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			val := kv[5:]
			kv = fmt.Sprintf("PATH=%s:%s", binDir, val)

			os.Setenv("PATH", binDir+":"+val)
		}

		eq := strings.IndexByte(kv, '=')
		if eq != -1 {
			seen[kv[:eq]] = struct{}{}
		}

		updates = append(updates, kv)
	}

	for k, v := range p.Extra {
		if _, ok := seen[k]; ok {
			continue
		}

		updates = append(updates, fmt.Sprintf("%s=%s", k, v))
	}

	return updates
}

func (p *Profile) EnvMap(env []string) map[string]string {
	m := map[string]string{}

	binDir := filepath.Join(p.path, "bin")

	for _, kv := range env {
		eq := strings.IndexByte(kv, '=')
		if eq == -1 {
			continue
		}
		k := kv[:eq]

		v := kv[eq+1:]

		if k == "PATH" {
			v = fmt.Sprintf("%s%s%s", binDir, string(filepath.ListSeparator), v)
		}

		m[k] = v
	}

	for k, v := range p.Extra {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}

	return m
}
