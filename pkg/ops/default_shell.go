package ops

// FleaShell is the descriptor the flea repo itself carries. It's
// used when a project directory has no shell.flea of its own.
const FleaShell = `
fw = [
    "Security",
    "Carbon",
    "SystemConfiguration",
    "AppKit",
    "CoreServices",
    "QuartzCore",
    "ApplicationServices",
] if platform.os == "darwin" else []

shell {
    name = "flea"
    description = "build environment for the flea gui"

    dependencies = [
        "clang",
        "lld",
        "binutils",
        "rustc",
        "cargo",
        "openssl",
        "pkg-config",
        "libiconv",
    ]

    frameworks = fw
}
`

// LoadDefault evaluates the built-in descriptor.
func (s *ShellLoad) LoadDefault(opts ...Option) (*ShellEnv, error) {
	return s.Load("flea", []byte(FleaShell), opts...)
}
