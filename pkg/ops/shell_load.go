package ops

import (
	"fmt"
	"path/filepath"

	"github.com/lab47/exprcore/exprcore"
	"github.com/pkg/errors"
	"github.com/chad-russell/flea/pkg/platform"
)

// Extension is the descriptor file extension.
const Extension = ".flea"

// DefaultDescriptor is the file a project is expected to carry.
const DefaultDescriptor = "shell" + Extension

var ErrBadDescriptor = errors.New("descriptor error detected")

// ShellLoad evaluates a shell descriptor for one platform. The
// descriptor is a program, but evaluation is pure: the only inputs
// are the descriptor text and the platform identifier, so the same
// pair always produces the same ShellEnv.
type ShellLoad struct {
	common

	loaded map[string]*ShellEnv
}

type Option func(c *loadCfg)

type loadCfg struct {
	platform    platform.Platform
	havePlat    bool
	constraints map[string]string
}

func WithPlatform(p platform.Platform) Option {
	return func(c *loadCfg) {
		c.platform = p
		c.havePlat = true
	}
}

func WithConstraints(args map[string]string) Option {
	return func(c *loadCfg) {
		c.constraints = args
	}
}

// ShellEnv is the evaluated form of a descriptor on one platform.
type ShellEnv struct {
	requestName string
	id          string
	sig         string

	prototype *exprcore.Prototype
	platform  platform.Platform

	cs ShellCalcSig

	constraints map[string]string
}

func (s *ShellEnv) Name() string {
	return s.cs.Name
}

func (s *ShellEnv) Version() string {
	return s.cs.Version
}

func (s *ShellEnv) ID() string {
	return s.id
}

func (s *ShellEnv) Signature() string {
	return s.sig
}

func (s *ShellEnv) Platform() platform.Platform {
	return s.platform
}

// Dependencies returns a copy of the declared common dependency
// names.
func (s *ShellEnv) Dependencies() []string {
	out := make([]string, len(s.cs.Dependencies))
	copy(out, s.cs.Dependencies)
	return out
}

// Frameworks returns the declared platform-integration frameworks.
// Whether they apply at all is decided later by EnvCalc, keyed on
// the os family alone.
func (s *ShellEnv) Frameworks() []string {
	out := make([]string, len(s.cs.Frameworks))
	copy(out, s.cs.Frameworks)
	return out
}

func (s *ShellEnv) Constraints() map[string]string {
	return s.constraints
}

// String returns the string representation of the value.
func (s *ShellEnv) String() string {
	return fmt.Sprintf("<shell: %s (%s)>", s.requestName, s.platform)
}

// Type returns a short string describing the value's type.
func (s *ShellEnv) Type() string {
	return "shell"
}

func (s *ShellEnv) Freeze() {}

func (s *ShellEnv) Truth() exprcore.Bool {
	return exprcore.True
}

func (s *ShellEnv) Hash() (uint32, error) {
	return exprcore.String(s.id).Hash()
}

type platformValue struct {
	plat platform.Platform
}

func (p *platformValue) String() string        { return "platform" }
func (p *platformValue) Type() string          { return "platform" }
func (p *platformValue) Freeze()               {}
func (p *platformValue) Truth() exprcore.Bool  { return exprcore.True }
func (p *platformValue) Hash() (uint32, error) { return 0, nil }

func (p *platformValue) Attr(name string) (exprcore.Value, error) {
	switch name {
	case "os":
		return exprcore.String(p.plat.OS), nil
	case "arch":
		return exprcore.String(p.plat.Arch), nil
	default:
		return exprcore.None, fmt.Errorf("unknown attr: %s", name)
	}
}

func (p *platformValue) AttrNames() []string {
	return []string{"os", "arch"}
}

// Load evaluates the descriptor source under the given name. The
// platform defaults to the host when no WithPlatform option is given.
func (s *ShellLoad) Load(name string, source []byte, opts ...Option) (*ShellEnv, error) {
	if s.loaded == nil {
		s.loaded = make(map[string]*ShellEnv)
	}

	var lc loadCfg

	for _, o := range opts {
		o(&lc)
	}

	if !lc.havePlat {
		plat, err := platform.Detect()
		if err != nil {
			return nil, err
		}

		lc.platform = plat
	}

	if !platform.IsSupported(lc.platform) {
		return nil, fmt.Errorf("unsupported platform: %s", lc.platform)
	}

	cacheKey := name + "@" + lc.platform.String()

	if env, ok := s.loaded[cacheKey]; ok {
		return env, nil
	}

	s.L().Debug("evaluating descriptor", "name", name, "platform", lc.platform.String())

	shellobj := exprcore.FromStringDict(exprcore.Root, nil)

	vars := exprcore.StringDict{
		"shell":    shellobj,
		"platform": &platformValue{plat: lc.platform},
		"join":     exprcore.NewBuiltin("join", joinFn),
		"fmt":      exprcore.NewBuiltin("fmt", fmtFn),
		"basename": exprcore.NewBuiltin("basename", basenameFn),
	}

	_, prog, err := exprcore.SourceProgram(name+Extension, source, vars.Has)
	if err != nil {
		return nil, errors.Wrapf(ErrBadDescriptor, "parsing '%s': %s", name, err)
	}

	var thread exprcore.Thread

	_, shellval, err := prog.Init(&thread, vars)
	if err != nil {
		return nil, errors.Wrapf(ErrBadDescriptor, "evaluating '%s': %s", name, err)
	}

	proto, ok := shellval.(*exprcore.Prototype)
	if !ok {
		return nil, errors.Wrapf(ErrBadDescriptor, "descriptor '%s' did not produce a shell object: %T", name, shellval)
	}

	env := &ShellEnv{
		requestName: name,
		prototype:   proto,
		platform:    lc.platform,
		constraints: lc.constraints,
	}

	env.cs.common = s.common

	sig, id, err := env.cs.Calculate(proto, lc.platform, lc.constraints)
	if err != nil {
		return nil, err
	}

	env.sig = sig
	env.id = id

	s.loaded[cacheKey] = env

	return env, nil
}

func fmtFn(thread *exprcore.Thread, b *exprcore.Builtin, args exprcore.Tuple, kwargs []exprcore.Tuple) (exprcore.Value, error) {
	var format string

	if len(kwargs) > 1 {
		return nil, fmt.Errorf("fmt: too many keyword args")
	}

	if len(kwargs) == 1 {
		pair := kwargs[0]
		if pair[0].(exprcore.String) == "format" {
			if str, ok := pair[1].(exprcore.String); ok {
				format = string(str)
			}
		} else {
			return nil, fmt.Errorf("fmt: unknown argument '%s'", pair[0])
		}
	} else {
		if str, ok := args[0].(exprcore.String); ok {
			format = string(str)
		} else {
			return nil, fmt.Errorf("fmt: format must be a string")
		}

		args = args[1:]
	}

	var parts []interface{}

	for _, a := range args {
		switch v := a.(type) {
		case exprcore.String:
			parts = append(parts, string(v))
		case exprcore.Int:
			parts = append(parts, v.String())
		default:
			return nil, fmt.Errorf("fmt only accepts strings and ints, got a %T", a)
		}
	}

	return exprcore.String(fmt.Sprintf(format, parts...)), nil
}

func joinFn(thread *exprcore.Thread, b *exprcore.Builtin, args exprcore.Tuple, kwargs []exprcore.Tuple) (exprcore.Value, error) {
	var parts []string

	for _, a := range args {
		if s, ok := a.(exprcore.String); ok {
			parts = append(parts, string(s))
		} else {
			return nil, fmt.Errorf("join only accepts strings, got a %T", a)
		}
	}

	return exprcore.String(filepath.Join(parts...)), nil
}

func basenameFn(thread *exprcore.Thread, b *exprcore.Builtin, args exprcore.Tuple, kwargs []exprcore.Tuple) (exprcore.Value, error) {
	var path string

	if err := exprcore.UnpackArgs(
		"basename", args, kwargs, "path", &path); err != nil {
		return nil, err
	}

	return exprcore.String(filepath.Base(path)), nil
}
