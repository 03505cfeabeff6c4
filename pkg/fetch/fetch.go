package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-getter"
	"github.com/mitchellh/go-homedir"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/module"
)

// Fetcher maps catalog sources onto local directories, downloading
// and caching them under Dir as needed.
type Fetcher struct {
	common

	Dir string
}

// CachePath computes where a source lives locally without fetching
// anything. Local sources resolve to themselves, everything else to a
// directory under Dir.
func (f *Fetcher) CachePath(src *Source) (string, error) {
	switch src.Type {
	case "", "local":
		return homedir.Expand(src.Location)
	case "git":
		return f.gitPath(src)
	case "http", "oci":
		return filepath.Join(f.Dir, "catalog", hashKey(src.Type+":"+src.Location)), nil
	}

	return "", fmt.Errorf("Unsupported type: %s", src.Type)
}

// Map takes a Source and maps it to a local filesystem path, performing
// any operations necessary to make that happen.
func (f *Fetcher) Map(ctx context.Context, src *Source) (string, error) {
	dest, err := f.CachePath(src)
	if err != nil {
		return "", err
	}

	switch src.Type {
	case "", "local":
		fi, err := os.Stat(dest)
		if err != nil {
			return "", err
		}

		if !fi.IsDir() {
			return "", fmt.Errorf("Path is not a directory: %s", dest)
		}

		return dest, nil
	case "git":
		if _, err := os.Stat(dest); err == nil {
			src.ResolvedVersion = src.Version
			return dest, nil
		}

		loc := "git::" + src.Location
		if src.Version != "" {
			loc += "?ref=" + url.QueryEscape(src.Version)
		}

		f.L().Debug("fetching catalog", "type", "git", "location", src.Location, "version", src.Version)

		err = getter.Get(dest, loc, getter.WithContext(ctx))
		if err != nil {
			os.RemoveAll(dest)
			return "", errors.Wrapf(err, "fetching %s", src.Location)
		}

		src.ResolvedVersion = src.Version

		return dest, nil
	case "http":
		if _, err := os.Stat(dest); err == nil {
			return dest, nil
		}

		f.L().Debug("fetching catalog", "type", "http", "location", src.Location)

		err := getter.Get(dest, src.Location, getter.WithContext(ctx))
		if err != nil {
			os.RemoveAll(dest)
			return "", errors.Wrapf(err, "fetching %s", src.Location)
		}

		return dest, nil
	case "oci":
		if _, err := os.Stat(dest); err == nil {
			return dest, nil
		}

		f.L().Debug("fetching catalog", "type", "oci", "location", src.Location)

		var p Puller

		_, err := p.Pull(ctx, src.Location, dest)
		if err != nil {
			return "", err
		}

		return dest, nil
	}

	return "", fmt.Errorf("Unsupported type: %s", src.Type)
}

// gitPath computes the cache path for a git source. The layout
// mirrors the module cache, with the location escaped so it is
// safe on case insensitive filesystems.
func (f *Fetcher) gitPath(src *Source) (string, error) {
	name := src.Location

	u, err := url.Parse(src.Location)
	if err == nil {
		name = filepath.Join(u.Host, u.Path)
	}

	escName, err := module.EscapePath(name)
	if err != nil {
		return "", err
	}

	ver := src.Version
	if ver == "" {
		ver = "main"
	}

	escVer, err := module.EscapeVersion(ver)
	if err != nil {
		return "", err
	}

	return filepath.Join(f.Dir, "catalog", escName+"@"+escVer), nil
}

func hashKey(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return base58.Encode(sum[:])
}
