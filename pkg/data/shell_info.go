package data

// ShellInfo is written into the state dir after a shell is computed.
// It's the durable record of what the descriptor resolved to on a
// given platform, and is what gets signed.
type ShellInfo struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`

	Signer string `json:"signer,omitempty"`

	Platform *ShellPlatform `json:"platform"`

	Dependencies []*ShellDependency `json:"dependencies"`

	Constraints map[string]string `json:"constraints,omitempty"`
}

type ShellPlatform struct {
	OS        string `json:"os"`
	OSVersion string `json:"os_version,omitempty"`
	Arch      string `json:"architecture"`
}

type ShellDependency struct {
	Name string `json:"name"`
	Kind string `json:"kind"`

	// Where the dependency resolved to on the host, empty when
	// the host couldn't provide it.
	Path string `json:"path,omitempty"`
}
