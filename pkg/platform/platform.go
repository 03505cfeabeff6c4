package platform

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// Platform identifies an operating system family and processor
// architecture pair that flea can produce a dev shell for.
type Platform struct {
	OS   string
	Arch string
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// Family returns the portion of the identifier that dependency
// selection is allowed to consider. Architecture never changes
// which dependencies are picked, only how they're built.
func (p Platform) Family() string {
	return p.OS
}

func (p Platform) IsDarwin() bool {
	return p.OS == "darwin"
}

var supported = []Platform{
	{OS: "linux", Arch: "amd64"},
	{OS: "linux", Arch: "arm64"},
	{OS: "darwin", Arch: "amd64"},
	{OS: "darwin", Arch: "arm64"},
}

// Supported returns the platforms a shell descriptor is evaluated
// against. The slice is a copy, callers can reorder it freely.
func Supported() []Platform {
	out := make([]Platform, len(supported))
	copy(out, supported)
	return out
}

func IsSupported(p Platform) bool {
	for _, s := range supported {
		if s == p {
			return true
		}
	}

	return false
}

func Parse(str string) (Platform, error) {
	idx := strings.IndexByte(str, '/')
	if idx == -1 {
		return Platform{}, fmt.Errorf("platform must be os/arch: %s", str)
	}

	p := Platform{
		OS:   normalizeOS(str[:idx]),
		Arch: normalizeArch(str[idx+1:]),
	}

	if !IsSupported(p) {
		return Platform{}, fmt.Errorf("unsupported platform: %s", p)
	}

	return p, nil
}

func normalizeOS(os string) string {
	switch os {
	case "macos", "osx":
		return "darwin"
	default:
		return os
	}
}

func normalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}

// Detect reports the host platform using the kernel information
// rather than compile-time constants, so a flea binary running
// under emulation reports the machine it's actually on.
func Detect() (Platform, error) {
	osName, _, _, err := host.PlatformInformation()
	if err != nil {
		return Platform{}, err
	}

	arch, err := host.KernelArch()
	if err != nil {
		return Platform{}, err
	}

	p := Platform{
		OS:   normalizeOS(detectFamily(osName)),
		Arch: normalizeArch(arch),
	}

	return p, nil
}

func detectFamily(osName string) string {
	// gopsutil reports the distro name on linux
	switch osName {
	case "darwin":
		return "darwin"
	default:
		return "linux"
	}
}

// Version returns the host OS version string, with the patch level
// stripped on darwin the way the rest of the tooling expects.
func Version() (string, error) {
	osName, _, osVersion, err := host.PlatformInformation()
	if err != nil {
		return "", err
	}

	if osName == "darwin" {
		dot := strings.LastIndexByte(osVersion, '.')
		if dot != -1 {
			osVersion = osVersion[:dot]
		}
	}

	return osVersion, nil
}
