package config

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/mr-tron/base58"
	"github.com/chad-russell/flea/pkg/platform"
)

type EDSigner interface {
	Public() ed25519.PublicKey
	Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) (signature []byte, err error)
}

type Config struct {
	path      string
	configDir string

	mu sync.Mutex

	signer   crypto.Signer
	signerId string
	pubKey   ed25519.PublicKey
	privKey  ed25519.PrivateKey

	// Actual Config
	DataDir      string `json:"data-dir"`
	Path         string `json:"catalog-path"`
	ProfilesPath string `json:"profiles-path"`
	Profile      string `json:"profile"`
}

const (
	DefaultConfigPath   = "~/.config/flea/config.json"
	DefaultProfilesPath = "~/.config/flea/profiles"
	DefaultProfile      = "main"
	DefaultDataDir      = "/opt/flea"
	DefaultPath         = "github.com/chad-russell/flea-catalog"
)

func LoadConfig() (*Config, error) {
	if loc := os.Getenv("FLEA_CONFIG"); loc != "" {
		return loadFile(loc)
	}

	path, err := homedir.Expand(DefaultConfigPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		return loadFile(path)
	}

	dir := filepath.Dir(path)

	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}

	ppath, err := homedir.Expand(DefaultProfilesPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		path:      path,
		configDir: dir,

		DataDir:      DefaultDataDir,
		Path:         DefaultPath,
		ProfilesPath: ppath,
		Profile:      DefaultProfile,
	}

	return updateFromEnv(cfg)
}

func loadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	var cfg Config

	err = json.NewDecoder(f).Decode(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.path = path
	cfg.configDir = filepath.Dir(path)

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}

	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}

	if cfg.ProfilesPath == "" {
		ppath, err := homedir.Expand(DefaultProfilesPath)
		if err != nil {
			return nil, err
		}

		cfg.ProfilesPath = ppath
	}

	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}

	return updateFromEnv(&cfg)
}

func updateFromEnv(cfg *Config) (*Config, error) {
	if path := os.Getenv("FLEA_DATA_DIR"); path != "" {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !fi.IsDir() {
			return nil, fmt.Errorf("path is not a directory: %s", path)
		}

		cfg.DataDir = path
	}

	if path := os.Getenv("FLEA_PATH"); path != "" {
		cfg.Path = path
	}

	if path := os.Getenv("FLEA_PROFILES"); path != "" {
		cfg.ProfilesPath = path
	}

	if name := os.Getenv("FLEA_PROFILE"); name != "" {
		cfg.Profile = name
	}

	return ensureDirs(cfg)
}

func ensureDirs(cfg *Config) (*Config, error) {
	dirs := []string{
		cfg.DataDir,
		cfg.ProfilesPath,
		filepath.Join(cfg.ProfilesPath, cfg.Profile),
		cfg.CachePath(),
		cfg.StatePath(),
	}

	for _, dir := range dirs {
		fi, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				err = os.MkdirAll(dir, 0755)
				if err != nil {
					return nil, err
				}
			}
		} else if !fi.IsDir() {
			return nil, fmt.Errorf("path is not a directory: %s", dir)
		}
	}

	current := filepath.Join(cfg.ProfilesPath, "current")
	if _, err := os.Stat(current); err != nil {
		if os.IsNotExist(err) {
			err = os.Symlink(filepath.Join(cfg.ProfilesPath, cfg.Profile), current)
			if err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

func (c *Config) ensureSignerSet() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.signer != nil {
		return nil
	}

	var (
		signer   crypto.Signer
		priv     ed25519.PrivateKey
		pub      ed25519.PublicKey
		signerId string
	)

	path := filepath.Join(c.configDir, "key")

	if data, err := ioutil.ReadFile(path); err == nil {
		data, err = base58.Decode(string(data))
		if err != nil {
			return err
		}

		priv = ed25519.PrivateKey(data)
		pub = priv.Public().(ed25519.PublicKey)
		signerId = "1:" + base58.Encode(pub)
		signer = priv

	} else {
		epub, epriv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return err
		}

		pub = epub
		priv = epriv

		err = ioutil.WriteFile(path, []byte(base58.Encode(epriv)), 0600)
		if err != nil {
			return err
		}

		signerId = "1:" + base58.Encode(pub)
		signer = epriv
	}

	c.signer = signer
	c.signerId = signerId
	c.pubKey = pub
	c.privKey = priv

	return nil
}

func (c *Config) SignerId() (string, error) {
	if err := c.ensureSignerSet(); err != nil {
		return "", err
	}

	return c.signerId, nil
}

func (c *Config) Public() ed25519.PublicKey {
	if err := c.ensureSignerSet(); err != nil {
		return nil
	}

	return c.pubKey
}

func (c *Config) Private() ed25519.PrivateKey {
	if err := c.ensureSignerSet(); err != nil {
		return nil
	}

	return c.privKey
}

func (c *Config) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) (signature []byte, err error) {
	if err := c.ensureSignerSet(); err != nil {
		return nil, err
	}

	return c.signer.Sign(rand, digest, opts)
}

func (c *Config) ConfigDir() string {
	return c.configDir
}

func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "store")
}

func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache")
}

func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state")
}

func (c *Config) GlobalProfilePath() string {
	return filepath.Join(c.ProfilesPath, c.Profile)
}

func (c *Config) Store() *Store {
	return &Store{
		Paths:   []string{c.StorePath()},
		Default: c.StorePath(),
	}
}

type PathPart struct {
	Name string
	Path string
}

func (c *Config) NamedPath() []PathPart {
	var pp []PathPart

	for _, p := range strings.Split(c.Path, ":") {
		idx := strings.IndexByte(p, '=')
		if idx == -1 {
			pp = append(pp, PathPart{Path: p})
		} else {
			pp = append(pp, PathPart{
				Name: p[:idx],
				Path: p[idx+1:],
			})
		}
	}

	return pp
}

func (c *Config) LoadPath() []string {
	var pp []string

	for _, p := range strings.Split(c.Path, ":") {
		idx := strings.IndexByte(p, '=')
		if idx == -1 {
			pp = append(pp, p)
		} else {
			pp = append(pp, p[idx+1:])
		}
	}

	return pp
}

func (c *Config) Constraints() map[string]string {
	constraints := SystemConstraints()
	constraints["flea/root"] = c.DataDir

	return constraints
}

func SystemConstraints() map[string]string {
	plat, err := platform.Detect()
	if err != nil {
		panic(err)
	}

	constraints := map[string]string{
		"machine/arch": plat.Arch,
		"os/name":      plat.OS,
	}

	if plat.IsDarwin() {
		ver, err := platform.Version()
		if err == nil {
			constraints["darwin/version"] = ver
		}
	}

	return constraints
}
