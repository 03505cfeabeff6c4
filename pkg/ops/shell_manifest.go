package ops

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/chad-russell/flea/pkg/data"
	"github.com/chad-russell/flea/pkg/evt"
	"github.com/chad-russell/flea/pkg/platform"
)

// ShellManifest persists the record of a computed shell into the
// state dir, signed so a profile can later prove which key computed
// it.
type ShellManifest struct {
	common

	StateDir string

	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

var ErrBadSignature = errors.New("manifest signature invalid")

func (m *ShellManifest) infoFor(shell *ShellEnv, res *Resolution, osVersion string) *data.ShellInfo {
	plat := shell.Platform()

	info := &data.ShellInfo{
		Name:      shell.Name(),
		Signature: shell.Signature(),
		Platform: &data.ShellPlatform{
			OS:        plat.OS,
			OSVersion: osVersion,
			Arch:      plat.Arch,
		},
		Constraints: shell.Constraints(),
	}

	info.Dependencies = append(info.Dependencies, res.Resolved...)

	for _, name := range res.Missing {
		info.Dependencies = append(info.Dependencies, &data.ShellDependency{
			Name: name,
		})
	}

	return info
}

func (m *ShellManifest) Write(shell *ShellEnv, res *Resolution) (string, error) {
	osVersion, err := platform.Version()
	if err != nil {
		osVersion = ""
	}

	info := m.infoFor(shell, res, osVersion)

	if m.PrivateKey != nil {
		sum, err := evt.Hash(info)
		if err != nil {
			return "", err
		}

		sig := ed25519.Sign(m.PrivateKey, sum)
		info.Signer = "1:" + base58.Encode(m.PublicKey) + ":" + base58.Encode(sig)
	}

	path := filepath.Join(m.StateDir, shell.ID()+".json")

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	err = enc.Encode(info)
	if err != nil {
		return "", err
	}

	return path, nil
}

func (m *ShellManifest) Read(path string) (*data.ShellInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	var info data.ShellInfo

	err = json.NewDecoder(f).Decode(&info)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

// Verify checks the embedded signer record against the manifest
// contents.
func (m *ShellManifest) Verify(info *data.ShellInfo) error {
	if info.Signer == "" {
		return nil
	}

	parts, err := splitSigner(info.Signer)
	if err != nil {
		return err
	}

	signer := info.Signer
	info.Signer = ""

	sum, err := evt.Hash(info)

	info.Signer = signer

	if err != nil {
		return err
	}

	if !ed25519.Verify(parts.key, sum, parts.sig) {
		return errors.Wrapf(ErrBadSignature, "shell: %s", info.Name)
	}

	return nil
}

type signerParts struct {
	key ed25519.PublicKey
	sig []byte
}

func splitSigner(s string) (*signerParts, error) {
	fields := strings.Split(s, ":")

	if len(fields) != 3 || fields[0] != "1" {
		return nil, errors.Wrapf(ErrBadSignature, "malformed signer record")
	}

	key, err := base58.Decode(fields[1])
	if err != nil {
		return nil, err
	}

	sig, err := base58.Decode(fields[2])
	if err != nil {
		return nil, err
	}

	return &signerParts{key: ed25519.PublicKey(key), sig: sig}, nil
}
