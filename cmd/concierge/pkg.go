package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"concierge/internal/model"
	"concierge/internal/registry"
)

func runPackages(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge packages <add|list|show|validate> [options]")
		os.Exit(1)
	}
	switch args[0] {
	case "add":
		runPackagesAdd(args[1:])
	case "list":
		runPackagesList(args[1:])
	case "show":
		runPackagesShow(args[1:])
	case "validate":
		runPackagesValidate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown packages subcommand: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "usage: concierge packages <add|list|show|validate> [options]")
		os.Exit(1)
	}
}

func loadPackageFile(path string) *model.TaskPackage {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read package file: %v\n", err)
		os.Exit(1)
	}
	var pkg model.TaskPackage
	if err := yaml.Unmarshal(content, &pkg); err != nil {
		fmt.Fprintf(os.Stderr, "parse package file: %v\n", err)
		os.Exit(1)
	}
	return &pkg
}

func runPackagesAdd(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge packages add <file.yaml>")
		os.Exit(1)
	}
	ws := mustWorkspace()
	pkg := loadPackageFile(args[0])

	if verrs := registry.Validate(*pkg); verrs != nil {
		fmt.Fprint(os.Stderr, verrs.FormatStderr())
		os.Exit(1)
	}

	path, err := registry.New(ws).Add(*pkg)
	if err != nil {
		if errors.Is(err, registry.ErrAlreadyExists) {
			fmt.Fprintf(os.Stderr, "packages add: %s@%s is already registered; versions are immutable\n",
				pkg.PackageID, pkg.Version)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "packages add: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("registered %s@%s\n", pkg.PackageID, pkg.Version)
	fmt.Printf("  saved: %s\n", path)
}

func runPackagesList(args []string) {
	ws := mustWorkspace()
	category := ""
	if len(args) > 0 {
		category = args[0]
	}
	pkgs, skipped, err := registry.New(ws).ListDetailed(category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "packages list: %v\n", err)
		os.Exit(1)
	}
	if len(pkgs) == 0 {
		fmt.Println("no packages")
	}
	for _, p := range pkgs {
		fmt.Printf("%s@%s  %s\n", p.PackageID, p.Version, p.Title)
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.Path, s.Reason)
	}
}

func runPackagesShow(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: concierge packages show <package_id> <version>")
		os.Exit(1)
	}
	ws := mustWorkspace()
	pkg, err := registry.New(ws).Get(args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "packages show: %v\n", err)
		os.Exit(1)
	}
	if pkg == nil {
		fmt.Fprintf(os.Stderr, "package not found: %s@%s\n", args[0], args[1])
		os.Exit(1)
	}

	fmt.Printf("package %s@%s\n", pkg.PackageID, pkg.Version)
	fmt.Printf("  title:     %s\n", pkg.Title)
	fmt.Printf("  category:  %s\n", pkg.Intent.Category)
	fmt.Printf("  verbs:     %v\n", pkg.Intent.Verbs)
	fmt.Printf("  entities:  %v\n", pkg.Intent.Entities)
	fmt.Printf("  threshold: %.2f\n", pkg.Intent.ConfidenceThreshold)
	for _, s := range pkg.Pipeline.Steps {
		fmt.Printf("  step:      %s -> %s@%s\n", s.StepID, s.Worker.WorkerID, s.Worker.Version)
	}
	if h, err := pkg.Hash(); err == nil {
		fmt.Printf("  hash:      %s\n", h)
	}
}

func runPackagesValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge packages validate <file.yaml>")
		os.Exit(1)
	}
	pkg := loadPackageFile(args[0])
	if verrs := registry.Validate(*pkg); verrs != nil {
		fmt.Fprint(os.Stderr, verrs.FormatStderr())
		os.Exit(1)
	}
	fmt.Printf("%s@%s: valid\n", pkg.PackageID, pkg.Version)
}
