package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/morikuni/aec"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/chad-russell/flea/pkg/cmd"
	"github.com/chad-russell/flea/pkg/config"
	"github.com/chad-russell/flea/pkg/direnv"
	"github.com/chad-russell/flea/pkg/gc"
	"github.com/chad-russell/flea/pkg/humanize"
	"github.com/chad-russell/flea/pkg/lockfile"
	"github.com/chad-russell/flea/pkg/ops"
	"github.com/chad-russell/flea/pkg/platform"
	"github.com/chad-russell/flea/pkg/profile"
)

func main() {
	c := cli.NewCLI("flea", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"setup": func() (cli.Command, error) {
			return cmd.New(
				"setup",
				"perform any system or user setup",
				setupF,
			), nil
		},
		"shell": func() (cli.Command, error) {
			return cmd.New(
				"shell",
				"Run or get information about a shell for the project descriptor",
				shellF,
			), nil
		},
		"explain": func() (cli.Command, error) {
			return cmd.New(
				"explain",
				"Show the dependency set a descriptor selects",
				explainF,
			), nil
		},
		"check": func() (cli.Command, error) {
			return cmd.New(
				"check",
				"Check which dependencies the host provides",
				checkF,
			), nil
		},
		"platforms": func() (cli.Command, error) {
			return cmd.New(
				"platforms",
				"List the supported platforms",
				platformsF,
			), nil
		},
		"env": func() (cli.Command, error) {
			return cmd.New(
				"env",
				"Output various environment information",
				envF,
			), nil
		},
		"sync": func() (cli.Command, error) {
			return cmd.New(
				"sync",
				"Fetch the catalogs on the configured path",
				syncF,
			), nil
		},
		"gc": func() (cli.Command, error) {
			return cmd.New(
				"gc",
				"Remove unreferenced manifests and cached catalogs",
				gcF,
			), nil
		},
		"debug": func() (cli.Command, error) {
			return cmd.New(
				"debug",
				"Debug various things",
				debugF,
			), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}

func setupF(ctx context.Context, opts struct{}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.Wrapf(err, "Unable to create or load configuration directory")
	}

	fmt.Printf("Config Dir: %s\n", cfg.ConfigDir())
	fmt.Printf("Flea Data Dir: %s\n", cfg.DataDir)
	fmt.Printf("User Profiles Path: %s\n", cfg.ProfilesPath)

	id, err := cfg.SignerId()
	if err != nil {
		return errors.Wrapf(err, "Unable to calculate user keys")
	}

	fmt.Printf("User Signer Id: %s\n", id)

	return nil
}

func loadProject(ctx context.Context, cfg *config.Config, name, platStr string) (*ops.Project, error) {
	var (
		plat platform.Platform
		err  error
	)

	if platStr != "" {
		plat, err = platform.Parse(platStr)
	} else {
		plat, err = platform.Detect()
	}

	if err != nil {
		return nil, err
	}

	var cl ops.ProjectLoad

	if name != "" {
		return cl.Single(cfg, name, plat)
	}

	return cl.Load(cfg, plat)
}

func shellF(ctx context.Context, opts struct {
	DumpEnv bool     `short:"E" long:"dump-env" description:"dump updated env in direnv format"`
	Setup   bool     `short:"s" long:"setup" description:"output shell code to eval to update the env"`
	Global  bool     `short:"G" long:"global" description:"execute in the context of the global profile"`
	Args    []string `positional-args:"yes"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if opts.Global {
		if opts.Setup {
			fmt.Printf("export PATH=%s/bin:%s\n", cfg.GlobalProfilePath(), os.Getenv("PATH"))
			return nil
		}

		fmt.Println("only -s accepted with -G")
		return nil
	}

	proj, err := loadProject(ctx, cfg, "", "")
	if err != nil {
		return err
	}

	var showLock bool
	cleanup, err := lockfile.Take(ctx, ".flea-lock", func() {
		if !showLock {
			fmt.Printf("Lock detected, waiting...\n")
			showLock = true
		}
	})
	if err != nil {
		return err
	}

	defer cleanup()

	res, err := proj.Resolve()
	if err != nil {
		return err
	}

	manifest := ops.ShellManifest{
		StateDir:   cfg.StatePath(),
		PrivateKey: cfg.Private(),
		PublicKey:  cfg.Public(),
	}

	path, err := manifest.Write(proj.Shell, res)
	if err != nil {
		return err
	}

	prof, err := profile.OpenProfile(cfg, ".flea-profile")
	if err != nil {
		return err
	}

	err = prof.Link(proj.Shell.ID(), path)
	if err != nil {
		return err
	}

	prof.Extra = res.BuildEnv()

	cleanup()

	if !res.Complete() {
		fmt.Fprintf(os.Stderr, "! %d dependencies missing, run `flea check` for details\n", len(res.Missing))
	}

	if opts.Setup {
		updates := prof.UpdateEnv(os.Environ())

		for _, u := range updates {
			fmt.Println(u)
		}

		return nil
	}

	if opts.DumpEnv {
		var w io.Writer

		path := os.Getenv("DIRENV_DUMP_FILE_PATH")

		if path == "" {
			w = os.Stdout
		} else {
			f, err := os.Create(path)
			if err != nil {
				return err
			}

			defer f.Close()

			w = f
		}

		fmt.Fprintln(w, direnv.Dump(prof.EnvMap(os.Environ())))
		return nil
	}

	env := prof.ComputeEnv(os.Environ())

	args := opts.Args

	if len(args) == 0 {
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}

		args = []string{shell}
	}

	exe, err := exec.LookPath(args[0])
	if err != nil {
		return err
	}

	return unix.Exec(exe, args, env)
}

func explainF(ctx context.Context, opts struct {
	Platform string `short:"p" long:"platform" description:"evaluate for the given os/arch instead of the host"`

	Pos struct {
		Name string `positional-arg-name:"name"`
	} `positional-args:"yes"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	proj, err := loadProject(ctx, cfg, opts.Pos.Name, opts.Platform)
	if err != nil {
		return err
	}

	shell := proj.Shell

	fmt.Printf("Name: %s\n", shell.Name())
	fmt.Printf("Platform: %s\n", shell.Platform())
	fmt.Printf("Signature: %s\n", shell.Signature())

	set, err := proj.CalculateSet()
	if err != nil {
		return err
	}

	ui := ops.GetUI(ctx)
	ui.ListDependencies(set)

	return nil
}

func checkF(ctx context.Context, opts struct {
	Platform string `short:"p" long:"platform" description:"evaluate for the given os/arch instead of the host"`

	Pos struct {
		Name string `positional-arg-name:"name"`
	} `positional-args:"yes"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	proj, err := loadProject(ctx, cfg, opts.Pos.Name, opts.Platform)
	if err != nil {
		return err
	}

	res, err := proj.Resolve()
	if err != nil {
		return err
	}

	err = res.Explain(os.Stdout, true)
	if err != nil {
		return err
	}

	if !res.Complete() {
		return fmt.Errorf("%d dependencies missing", len(res.Missing))
	}

	return nil
}

func platformsF(ctx context.Context, opts struct{}) error {
	host, err := platform.Detect()
	if err != nil {
		return err
	}

	for _, p := range platform.Supported() {
		marker := " "
		if p == host {
			marker = "*"
		}

		fmt.Printf("%s %s\n", marker, p)
	}

	return nil
}

func envF(ctx context.Context, opts struct {
	Global bool `short:"G" long:"global-profile" description:"output location of global profile"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if opts.Global {
		fmt.Println(cfg.GlobalProfilePath())
		return nil
	}

	proj, err := loadProject(ctx, cfg, "", "")
	if err != nil {
		return err
	}

	res, err := proj.Resolve()
	if err != nil {
		return err
	}

	env := res.BuildEnv()

	var keys []string

	for k := range env {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, env[k])
	}

	return nil
}

func syncF(ctx context.Context, opts struct{}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var cs ops.CatalogSync

	results, err := cs.Sync(ctx, cfg)
	if err != nil {
		return err
	}

	var failed int

	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("%s %s: %s\n", aec.RedF.Apply("✗"), res.Ref, res.Err)
			continue
		}

		note := ""
		if res.Changed {
			note = " (updated)"
		}

		fmt.Printf("%s %s (%d entries)%s\n", aec.GreenF.Apply("✓"), res.Id, res.Entries, note)
	}

	if failed > 0 {
		return fmt.Errorf("%d catalogs failed to sync", failed)
	}

	return nil
}

func gcF(ctx context.Context, opts struct {
	DryRun bool `short:"T" long:"dry-run" description:"output what would be removed"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	col, err := gc.NewCollector(cfg)
	if err != nil {
		return err
	}

	toKeep, err := col.Mark()
	if err != nil {
		return err
	}

	fmt.Println("## Shells Kept")
	for _, p := range toKeep {
		fmt.Println(p)
	}

	if opts.DryRun {
		toRemove, err := col.SweepUnmarked(ctx, toKeep)
		if err != nil {
			return err
		}

		fmt.Println("\n## Shells Removed")
		for _, p := range toRemove {
			fmt.Println(p)
		}

		marked, err := col.MarkCatalogs(cfg)
		if err != nil {
			return err
		}

		catalogs, err := col.SweepCatalogs(ctx, marked)
		if err != nil {
			return err
		}

		fmt.Println("\n## Catalogs Removed")
		for _, p := range catalogs {
			fmt.Println(p)
		}

		total, err := col.DiskUsage(catalogs)
		if err != nil {
			return err
		}

		sz, unit := humanize.Size(total)

		fmt.Printf("=> Disk Usage: %.2f%s\n", sz, unit)

		return nil
	}

	res, err := col.SweepAndRemove(ctx, cfg)
	if err != nil {
		return err
	}

	sz, unit := humanize.Size(res.BytesRecovered)

	fmt.Printf("\nSpace Recovered: %.2f%s\n", sz, unit)
	fmt.Printf("  Files Removed: %d\n", res.EntriesRemoved)

	return nil
}

func debugF(ctx context.Context, opts struct {
	Shell    string `short:"s" long:"shell" description:"output info about a named descriptor"`
	Platform string `short:"p" long:"platform" description:"evaluate for the given os/arch instead of the host"`
	Trace    bool   `long:"trace" description:"log in trace mode"`
}) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	level := hclog.Debug

	if opts.Trace {
		level = hclog.Trace
	}

	L := hclog.New(&hclog.LoggerOptions{
		Name:  "flea-debug",
		Level: level,
	})

	var (
		plat platform.Platform
	)

	if opts.Platform != "" {
		plat, err = platform.Parse(opts.Platform)
	} else {
		plat, err = platform.Detect()
	}

	if err != nil {
		return err
	}

	var cl ops.ProjectLoad
	cl.SetLogger(L)

	var proj *ops.Project

	if opts.Shell != "" {
		proj, err = cl.Single(cfg, opts.Shell, plat)
	} else {
		proj, err = cl.Load(cfg, plat)
	}

	if err != nil {
		return err
	}

	set, err := proj.CalculateSet()
	if err != nil {
		return err
	}

	spew.Dump(struct {
		Name         string
		ID           string
		Signature    string
		Platform     string
		Dependencies []string
		Frameworks   []string
		Selected     []string
	}{
		Name:         proj.Shell.Name(),
		ID:           proj.Shell.ID(),
		Signature:    proj.Shell.Signature(),
		Platform:     proj.Shell.Platform().String(),
		Dependencies: proj.Shell.Dependencies(),
		Frameworks:   proj.Shell.Frameworks(),
		Selected:     set.SortedNames(),
	})

	return nil
}
