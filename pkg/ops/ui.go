package ops

import (
	"context"
	"fmt"
	"sort"

	"github.com/chad-russell/flea/pkg/config"
)

type UI struct {
}

func (u *UI) ShellPrologue(cfg *config.Config) error {
	constraints := cfg.Constraints()

	var keys []string

	for k := range constraints {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	fmt.Printf("Constraints:\n")

	for _, k := range keys {
		fmt.Printf("%s: %s\n", k, constraints[k])
	}

	return nil
}

func (u *UI) ListDependencies(set *DepSet) {
	fmt.Printf("Dependencies:\n")

	for _, name := range set.SortedNames() {
		fmt.Printf("  %s\n", name)
	}
}

type uiMarker struct{}

func GetUI(ctx context.Context) *UI {
	v := ctx.Value(uiMarker{})
	if v == nil {
		return &UI{}
	}

	return v.(*UI)
}
