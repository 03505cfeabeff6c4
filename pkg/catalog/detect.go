package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/chad-russell/flea/pkg/data"
)

func (d *Directory) detectCatalogId() error {
	f, err := os.Open(filepath.Join(d.rootPath, ".catalog-info.json"))
	if err == nil {
		defer f.Close()

		var ci data.CatalogInfo

		err = json.NewDecoder(f).Decode(&ci)
		if err != nil {
			return err
		}

		d.catalogId = ci.Id
		return nil
	}

	repo, err := git.PlainOpenWithOptions(d.rootPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err == nil {
		remote, err := repo.Remote("origin")
		if err == nil {
			urls := remote.Config().URLs
			if len(urls) != 0 {
				id, err := gitRemoteId(urls[0])
				if err != nil {
					return err
				}

				d.catalogId = id
				return nil
			}
		} else {
			if err != git.ErrRemoteNotFound {
				return err
			}
		}
	}

	// welp. I guess we'll use the directory base name

	d.catalogId = filepath.Base(d.rootPath)

	return nil
}

var scpSyntaxRe = regexp.MustCompile(`^([a-zA-Z0-9_]+)@([a-zA-Z0-9._-]+):(.*)$`)

func gitRemoteId(configUrl string) (string, error) {
	var id string
	if m := scpSyntaxRe.FindStringSubmatch(configUrl); m != nil {
		id = fmt.Sprintf("%s/%s", m[2], m[3])
	} else {
		repoURL, err := url.Parse(configUrl)
		if err != nil {
			return "", err
		}

		id = fmt.Sprintf("%s/%s", repoURL.Host, repoURL.Path)
	}

	return strings.TrimSuffix(id, ".git"), nil
}
