package main

import (
	"fmt"
	"os"
	"path/filepath"

	"concierge/internal/workspace"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "mode":
		runMode(os.Args[2:])
	case "intent":
		runIntent(os.Args[2:])
	case "job":
		runJob(os.Args[2:])
	case "plan":
		runPlanCmd(os.Args[2:])
	case "approve":
		runApprove(os.Args[2:])
	case "deny":
		runDeny(os.Args[2:])
	case "run":
		runExecute(os.Args[2:])
	case "logs":
		runLogs(os.Args[2:])
	case "packages":
		runPackages(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "doctor":
		runDoctor(os.Args[2:])
	case "version":
		fmt.Printf("concierge %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: concierge <command> [options]

workspace:
  init <dir>                     initialize a workspace
  mode [<name>]                  show or switch the active session mode
  status [<job_id>]              show workspace or job status
  doctor                         check and recover persisted records

jobs:
  intent <text>                  synthesize and persist an intent
  job create <text>              create a draft job from free text
  job list                       list jobs, newest first
  job show <job_id>              show one job
  job verify <job_id>            verify content hashes of a job
  plan <job_id>                  match a package and generate a plan
  approve <job_id> [--by <who>] [--note <text>]
  deny <job_id> [--by <who>] [--note <text>]
  run <job_id>                   execute the approved plan
  logs <job_id> [--run <run_id>] [--tail <n>] [-f]

packages:
  packages add <file.yaml>       register a task package
  packages list [<category>]     list registered packages
  packages show <id> <version>   show one package
  packages validate <file.yaml>  validate a package definition

  version                        print version
`)
}

// findWorkspace locates the workspace root: CONCIERGE_WORKSPACE if set,
// otherwise the nearest ancestor of the working directory containing
// workspace.json.
func findWorkspace() string {
	if env := os.Getenv("CONCIERGE_WORKSPACE"); env != "" {
		return env
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, workspace.ConfigFile)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mustWorkspace exits with guidance when no workspace is found or the one
// found fails validation.
func mustWorkspace() string {
	ws := findWorkspace()
	if ws == "" {
		fmt.Fprintln(os.Stderr, "error: no workspace found. Run 'concierge init <dir>' first.")
		os.Exit(1)
	}
	if err := workspace.Validate(ws); err != nil {
		fmt.Fprintf(os.Stderr, "invalid workspace %s: %v\n", ws, err)
		os.Exit(1)
	}
	return ws
}

func runInit(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge init <dir>")
		os.Exit(1)
	}
	cfg, err := workspace.Init(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Initialized workspace in %s\n", cfg.WorkspacePath)
}

func runMode(args []string) {
	ws := mustWorkspace()
	session := workspace.NewSession(ws)

	if len(args) == 0 {
		fmt.Printf("active mode: %s\n", session.Mode())
		for _, m := range workspace.Modes() {
			fmt.Printf("  %-6s %s\n", m.Name, m.Description)
		}
		return
	}

	state, err := session.SetMode(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "mode: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("active mode: %s\n", state.ActiveMode)
}

func runStatus(args []string) {
	ws := mustWorkspace()
	if len(args) == 0 {
		printWorkspaceStatus(ws)
		return
	}
	printJobStatus(ws, args[0])
}

func runDoctor(args []string) {
	ws := mustWorkspace()
	results, err := workspace.Doctor(ws)
	if err != nil {
		fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("all records healthy")
		return
	}
	for _, r := range results {
		if r.Restored {
			fmt.Printf("restored from backup: %s (%v)\n", r.Path, r.Err)
		} else {
			fmt.Printf("quarantined: %s (%v)\n", r.Path, r.Err)
		}
	}
}
