package fetch

import (
	"fmt"
	"strings"
)

// Source describes where a catalog lives and how to retrieve it.
type Source struct {
	Name     string
	Type     string
	Location string
	Version  string

	// Populated by Fetcher to indicate the version that was actually used
	ResolvedVersion string
}

// CalcSource maps a user supplied ref onto a Source. Bare paths are
// treated as local directories, github-style paths as git repos
// (with an optional @version suffix), and urls by their scheme.
func CalcSource(name, ref string) (*Source, error) {
	if ref == "" {
		return nil, fmt.Errorf("no ref supplied")
	}

	if ref[0] == '/' || ref[0] == '~' || ref[0] == '.' {
		return &Source{
			Name:     name,
			Type:     "local",
			Location: ref,
		}, nil
	}

	switch {
	case strings.HasPrefix(ref, "oci://"):
		return &Source{
			Name:     name,
			Type:     "oci",
			Location: ref[len("oci://"):],
		}, nil
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return &Source{
			Name:     name,
			Type:     "http",
			Location: ref,
		}, nil
	case strings.HasPrefix(ref, "github.com/"):
		var repo, ver string

		idx := strings.LastIndexByte(ref, '@')
		if idx == -1 {
			repo = ref
			ver = "main"
		} else {
			repo = ref[:idx]
			ver = ref[idx+1:]
		}

		return &Source{
			Name:     name,
			Type:     "git",
			Location: "https://" + repo,
			Version:  ver,
		}, nil
	}

	return nil, fmt.Errorf("Unknown ref type: %s", ref)
}
