package ops

import (
	"fmt"

	"github.com/lab47/exprcore/exprcore"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
	"github.com/chad-russell/flea/pkg/evt"
	"github.com/chad-russell/flea/pkg/lang"
	"github.com/chad-russell/flea/pkg/platform"
)

// ShellCalcSig extracts the declared attributes from an evaluated
// descriptor and computes its signature. The signature only covers
// inputs that change the dependency set: name, version, the declared
// names, the os family and any constraints. Architecture is not an
// input.
type ShellCalcSig struct {
	common

	Name         string
	Version      string
	Description  string
	Metadata     map[string]string
	Dependencies []string
	Frameworks   []string
}

func (s *ShellCalcSig) extract(proto *exprcore.Prototype) error {
	name, err := lang.StringValue(proto.Attr("name"))
	if err != nil {
		return err
	}

	if name == "" {
		return fmt.Errorf("descriptor must declare a name")
	}

	s.Name = name

	ver, err := lang.StringValue(proto.Attr("version"))
	if err != nil {
		return err
	}

	if ver == "" {
		ver = "unknown"
	}

	s.Version = ver

	s.Description, err = lang.StringValue(proto.Attr("description"))
	if err != nil {
		return err
	}

	s.Metadata, err = lang.StringMapValue(proto.Attr("metadata"))
	if err != nil {
		return err
	}

	s.Dependencies, err = lang.StringListValue(proto.Attr("dependencies"))
	if err != nil {
		return err
	}

	if len(s.Dependencies) == 0 {
		return fmt.Errorf("descriptor must declare at least one dependency")
	}

	s.Frameworks, err = lang.StringListValue(proto.Attr("frameworks"))
	if err != nil {
		return err
	}

	return nil
}

type sigData struct {
	_            struct{} `hash:"signature"`
	Name         string
	Version      string
	Family       string
	Constraints  map[string]string
	Dependencies map[string]struct{}
	Frameworks   map[string]struct{}
}

func (s *ShellCalcSig) calcSig(
	proto *exprcore.Prototype,
	plat platform.Platform,
	constraints map[string]string,
) (string, error) {
	if s.Name == "" {
		err := s.extract(proto)
		if err != nil {
			return "", err
		}
	}

	sd := sigData{
		Name:        s.Name,
		Version:     s.Version,
		Family:      plat.Family(),
		Constraints: constraints,
	}

	sd.Dependencies = make(map[string]struct{})

	for _, dep := range s.Dependencies {
		sd.Dependencies[dep] = struct{}{}
	}

	if plat.IsDarwin() && len(s.Frameworks) > 0 {
		sd.Frameworks = make(map[string]struct{})

		for _, fw := range s.Frameworks {
			sd.Frameworks[fw] = struct{}{}
		}
	}

	h, _ := blake2b.New256(nil)

	err := evt.HashInto(&sd, h)
	if err != nil {
		return "", err
	}

	return base58.Encode(h.Sum(nil)), nil
}

func (s *ShellCalcSig) Calculate(
	proto *exprcore.Prototype,
	plat platform.Platform,
	constraints map[string]string,
) (string, string, error) {
	sig, err := s.calcSig(proto, plat, constraints)
	if err != nil {
		return "", "", err
	}

	return sig, fmt.Sprintf("%s-%s-%s", sig, s.Name, plat.Family()), nil
}
