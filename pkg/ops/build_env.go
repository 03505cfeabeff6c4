package ops

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chad-russell/flea/pkg/data"
)

// BuildEnv computes the environment additions a resolved shell
// contributes on top of a profile's PATH handling: pkg-config search
// paths, compiler flags from resolved libraries and framework linker
// flags on darwin.
func (r *Resolution) BuildEnv() map[string]string {
	env := map[string]string{}

	var (
		pcDirs   []string
		cflags   []string
		ldflags  []string
		fwNames  []string
		seenDirs = map[string]struct{}{}
	)

	for _, dep := range r.Resolved {
		switch dep.Kind {
		case data.KindLibrary:
			dir := filepath.Dir(dep.Path)
			if _, ok := seenDirs[dir]; !ok {
				seenDirs[dir] = struct{}{}
				pcDirs = append(pcDirs, dir)
			}

			if cfg, ok := r.Configs[dep.Name]; ok {
				if cfg.Cflags != "" {
					cflags = append(cflags, cfg.Cflags)
				}

				if cfg.Libs != "" {
					ldflags = append(ldflags, cfg.Libs)
				}
			}
		case data.KindFramework:
			fwNames = append(fwNames, dep.Name)
		}
	}

	if len(pcDirs) > 0 {
		env["PKG_CONFIG_PATH"] = strings.Join(pcDirs, string(filepath.ListSeparator))
	}

	if len(cflags) > 0 {
		env["CFLAGS"] = strings.Join(cflags, " ")
	}

	sort.Strings(fwNames)

	for _, name := range fwNames {
		ldflags = append(ldflags, fmt.Sprintf("-framework %s", name))
	}

	if len(ldflags) > 0 {
		env["LDFLAGS"] = strings.Join(ldflags, " ")
	}

	return env
}
