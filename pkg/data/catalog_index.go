package data

import "time"

// Dependency kinds a catalog may declare.
const (
	KindTool      = "tool"
	KindLibrary   = "library"
	KindFramework = "framework"
)

type CatalogEntry struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`

	// OnlyOS restricts the entry to one os family. Framework
	// entries set this to "darwin".
	OnlyOS string `json:"only_os,omitempty"`

	// Pkgconfig names that prove the library is present.
	Pkgconfig []string `json:"pkgconfig,omitempty"`

	// Alternate binary names to probe for tools (eg cc for clang).
	Aliases []string `json:"aliases,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

type CatalogIndex struct {
	CreatedAt time.Time      `json:"created_at"`
	Entries   []CatalogEntry `json:"entries"`
}

type CatalogInfo struct {
	Id string `json:"id"`

	// Signer is the base58 public key that signed the catalog
	// contents. Only set on published catalogs.
	Signer string `json:"signer,omitempty"`
}
