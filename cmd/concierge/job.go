package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"concierge/internal/events"
	"concierge/internal/intent"
	"concierge/internal/job"
	"concierge/internal/model"
	"concierge/internal/plan"
	"concierge/internal/registry"
	"concierge/internal/router"
	"concierge/internal/worker"
	"concierge/internal/workspace"
)

func runIntent(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge intent <text>")
		os.Exit(1)
	}
	ws := mustWorkspace()
	session := workspace.NewSession(ws)

	in, err := intent.Synthesize(strings.Join(args, " "), session.Mode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "intent: %v\n", err)
		os.Exit(1)
	}
	path, err := intent.NewManager(ws).Save(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "intent: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("intent %s\n", in.IntentID)
	fmt.Printf("  distilled: %s\n", in.DistilledIntent)
	fmt.Printf("  hash:      %s\n", in.IntentHash)
	fmt.Printf("  saved:     %s\n", path)
}

func runJob(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge job <create|list|show|verify> [options]")
		os.Exit(1)
	}
	switch args[0] {
	case "create":
		runJobCreate(args[1:])
	case "list":
		runJobList(args[1:])
	case "show":
		runJobShow(args[1:])
	case "verify":
		runJobVerify(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown job subcommand: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "usage: concierge job <create|list|show|verify> [options]")
		os.Exit(1)
	}
}

func runJobCreate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge job create <text>")
		os.Exit(1)
	}
	ws := mustWorkspace()
	session := workspace.NewSession(ws)

	in, err := intent.Synthesize(strings.Join(args, " "), session.Mode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "job create: %v\n", err)
		os.Exit(1)
	}
	if _, err := intent.NewManager(ws).Save(in); err != nil {
		fmt.Fprintf(os.Stderr, "job create: %v\n", err)
		os.Exit(1)
	}

	store := job.NewStore(ws)
	j, err := store.CreateFromIntent(in, session.Mode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "job create: %v\n", err)
		os.Exit(1)
	}
	if _, err := store.Save(j); err != nil {
		fmt.Fprintf(os.Stderr, "job create: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("job %s (%s)\n", j.JobID, j.Status)
	fmt.Printf("  title: %s\n", j.JobSpec.Title)
}

func runJobList(_ []string) {
	ws := mustWorkspace()
	jobs, err := job.NewStore(ws).List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "job list: %v\n", err)
		os.Exit(1)
	}
	if len(jobs) == 0 {
		fmt.Println("no jobs")
		return
	}
	for _, j := range jobs {
		fmt.Printf("%s  %-10s %s  %s\n", j.JobID, j.Status, j.CreatedAt, j.JobSpec.Title)
	}
}

func runJobShow(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge job show <job_id>")
		os.Exit(1)
	}
	ws := mustWorkspace()
	j := mustLoadJob(ws, args[0])

	fmt.Printf("job %s\n", j.JobID)
	fmt.Printf("  status:     %s\n", j.Status)
	fmt.Printf("  created:    %s\n", j.CreatedAt)
	fmt.Printf("  mode:       %s\n", j.ModeUsed)
	fmt.Printf("  intent:     %s\n", j.IntentRef)
	fmt.Printf("  title:      %s\n", j.JobSpec.Title)
	for _, c := range j.JobSpec.SuccessCriteria {
		fmt.Printf("  success:    %s\n", c)
	}
	for _, c := range j.JobSpec.Constraints {
		fmt.Printf("  constraint: %s\n", c)
	}
	for _, a := range j.Approvals {
		who := "unattributed"
		if a.Approver != nil {
			who = *a.Approver
		}
		fmt.Printf("  approval:   %s %s by %s\n", a.Decision, a.PlanID, who)
	}

	plans, err := plan.NewStore(ws).List(j.JobID)
	if err == nil {
		for _, p := range plans {
			fmt.Printf("  plan:       %s -> %s@%s (%.2f)\n",
				p.PlanID, p.PackageID, p.PackageVersion, p.MatchedConfidence)
		}
	}
}

func runJobVerify(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge job verify <job_id>")
		os.Exit(1)
	}
	ws := mustWorkspace()
	store := job.NewStore(ws)
	j := mustLoadJob(ws, args[0])

	failed := false
	if ok, err := store.VerifyJobSpecHash(j); err != nil || !ok {
		fmt.Printf("job_spec_hash: MISMATCH\n")
		failed = true
	} else {
		fmt.Printf("job_spec_hash: ok\n")
	}
	if ok, err := store.VerifyIntentHash(j); err != nil || !ok {
		fmt.Printf("intent_hash:   MISMATCH\n")
		failed = true
	} else {
		fmt.Printf("intent_hash:   ok\n")
	}
	if failed {
		os.Exit(1)
	}
}

func runPlanCmd(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge plan <job_id> [--category <hint>]")
		os.Exit(1)
	}
	jobID := args[0]
	var categoryHint string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--category":
			if i+1 >= len(rest) {
				fmt.Fprintln(os.Stderr, "--category requires a value")
				os.Exit(1)
			}
			i++
			categoryHint = rest[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: concierge plan <job_id> [--category <hint>]\n", rest[i])
			os.Exit(1)
		}
	}

	ws := mustWorkspace()
	store := job.NewStore(ws)
	j := mustLoadJob(ws, jobID)

	planner := plan.NewPlanner(registry.New(ws))
	result, err := planner.MatchWithAmbiguity(j.JobSpec, categoryHint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(1)
	}
	best := result.Best()
	if best == nil {
		fmt.Fprintln(os.Stderr, "plan: no package matched the job intent")
		os.Exit(1)
	}
	if result.Ambiguous {
		fmt.Fprintln(os.Stderr, "warning: ambiguous match, candidates:")
		for _, c := range result.Candidates {
			fmt.Fprintf(os.Stderr, "  %.2f %s@%s\n", c.Score, c.Package.PackageID, c.Package.Version)
		}
	}

	p, err := planner.GeneratePlan(j, &best.Package, best.Score)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(1)
	}
	if _, err := plan.NewStore(ws).Save(p); err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(1)
	}
	if err := store.TransitionToPlanned(j); err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("plan %s\n", p.PlanID)
	fmt.Printf("  package:    %s@%s\n", p.PackageID, p.PackageVersion)
	fmt.Printf("  confidence: %.2f\n", p.MatchedConfidence)
	for _, in := range p.ResolvedInputs.Inputs {
		fmt.Printf("  input:      %s = %v\n", in.Name, in.Value)
	}
	fmt.Printf("job %s -> %s\n", j.JobID, j.Status)
}

func parseDecisionFlags(args []string, usage string) (jobID, by, note string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	jobID = args[0]
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--by":
			if i+1 >= len(rest) {
				fmt.Fprintln(os.Stderr, "--by requires a value")
				os.Exit(1)
			}
			i++
			by = rest[i]
		case "--note":
			if i+1 >= len(rest) {
				fmt.Fprintln(os.Stderr, "--note requires a value")
				os.Exit(1)
			}
			i++
			note = rest[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n%s\n", rest[i], usage)
			os.Exit(1)
		}
	}
	return jobID, by, note
}

func runApprove(args []string) {
	jobID, by, note := parseDecisionFlags(args, "usage: concierge approve <job_id> [--by <who>] [--note <text>]")

	ws := mustWorkspace()
	store := job.NewStore(ws)
	j := mustLoadJob(ws, jobID)

	p, err := plan.NewStore(ws).Latest(j.JobID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "approve: %v\n", err)
		os.Exit(1)
	}
	if p == nil {
		fmt.Fprintln(os.Stderr, "approve: job has no plan")
		os.Exit(1)
	}

	// Hash verification is advisory at approval time: a mismatch means the
	// record was edited outside the tool.
	if ok, _ := store.VerifyJobSpecHash(j); !ok {
		fmt.Fprintln(os.Stderr, "warning: job_spec_hash does not match the stored spec")
	}
	if ok, _ := store.VerifyIntentHash(j); !ok {
		fmt.Fprintln(os.Stderr, "warning: intent record missing or hash mismatch")
	}

	if err := store.Approve(j, p.PlanID, by, note); err != nil {
		fmt.Fprintf(os.Stderr, "approve: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("approved plan %s\n", p.PlanID)
	fmt.Printf("job %s -> %s\n", j.JobID, j.Status)
}

func runDeny(args []string) {
	jobID, by, note := parseDecisionFlags(args, "usage: concierge deny <job_id> [--by <who>] [--note <text>]")

	ws := mustWorkspace()
	store := job.NewStore(ws)
	j := mustLoadJob(ws, jobID)

	p, err := plan.NewStore(ws).Latest(j.JobID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deny: %v\n", err)
		os.Exit(1)
	}
	if p == nil {
		fmt.Fprintln(os.Stderr, "deny: job has no plan")
		os.Exit(1)
	}
	if err := store.Deny(j, p.PlanID, by, note); err != nil {
		fmt.Fprintf(os.Stderr, "deny: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("denied plan %s\n", p.PlanID)
	fmt.Printf("job %s stays %s\n", j.JobID, j.Status)
}

func runExecute(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge run <job_id>")
		os.Exit(1)
	}
	ws := mustWorkspace()
	store := job.NewStore(ws)
	j := mustLoadJob(ws, args[0])

	p, err := plan.NewStore(ws).Latest(j.JobID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}
	if p == nil {
		fmt.Fprintln(os.Stderr, "run: job has no plan")
		os.Exit(1)
	}
	if err := job.RequireApprovedFor(j, p.PlanID); err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}
	if err := store.TransitionToRunning(j); err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}

	r := router.New(ws, worker.DefaultRegistry())
	ok, rec, err := r.ExecutePlan(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}

	if ok {
		if err := store.Complete(j); err != nil {
			fmt.Fprintf(os.Stderr, "run: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := store.Fail(j); err != nil {
			fmt.Fprintf(os.Stderr, "run: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("run %s: %s\n", rec.RunID, rec.Status)
	fmt.Printf("job %s -> %s\n", j.JobID, j.Status)
	fmt.Printf("log: %s\n", events.RunLogPath(ws, j.JobID, rec.RunID))
	if !ok {
		os.Exit(1)
	}
}

func runLogs(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: concierge logs <job_id> [--run <run_id>] [--tail <n>] [-f]")
		os.Exit(1)
	}
	jobID := args[0]
	var runID string
	var tailN int
	var follow bool
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--run":
			if i+1 >= len(rest) {
				fmt.Fprintln(os.Stderr, "--run requires a value")
				os.Exit(1)
			}
			i++
			runID = rest[i]
		case "--tail":
			if i+1 >= len(rest) {
				fmt.Fprintln(os.Stderr, "--tail requires a value")
				os.Exit(1)
			}
			i++
			n, err := strconv.Atoi(rest[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "--tail: %v\n", err)
				os.Exit(1)
			}
			tailN = n
		case "-f", "--follow":
			follow = true
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: concierge logs <job_id> [--run <run_id>] [--tail <n>] [-f]\n", rest[i])
			os.Exit(1)
		}
	}

	ws := mustWorkspace()
	reader := events.NewReader(ws)

	var logPath string
	if runID != "" {
		logPath = events.RunLogPath(ws, jobID, runID)
	} else {
		latest, err := reader.LatestRunLog(jobID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logs: %v\n", err)
			os.Exit(1)
		}
		if latest == "" && !follow {
			fmt.Fprintln(os.Stderr, "logs: job has no runs")
			os.Exit(1)
		}
		logPath = latest
		if logPath == "" {
			// Waiting for the first run: follow needs a concrete path.
			fmt.Fprintln(os.Stderr, "logs: job has no runs yet")
			os.Exit(1)
		}
	}

	if follow {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err := events.Follow(ctx, logPath, printEvent)
		if err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "logs: %v\n", err)
			os.Exit(1)
		}
		return
	}

	evs, err := events.Read(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logs: %v\n", err)
		os.Exit(1)
	}
	if tailN > 0 {
		evs = events.Tail(evs, tailN)
	}
	for _, ev := range evs {
		printEvent(ev)
	}

	summary := events.Summarize(evs)
	fmt.Printf("run %s: %s (%d events, %d steps done, %d failed)\n",
		summary.RunID, summary.Status, summary.EventCount, summary.StepsDone, summary.StepsFailed)
}

func printEvent(ev model.Event) {
	line := fmt.Sprintf("%s %-16s", ev.Timestamp, ev.Type)
	if ev.StepID != "" {
		line += " step=" + ev.StepID
	}
	if ev.WorkerID != "" {
		line += " worker=" + ev.WorkerID
	}
	if msg, ok := ev.Payload["error"].(string); ok {
		line += " error=" + msg
	}
	fmt.Println(line)
}

func mustLoadJob(ws, jobID string) *model.Job {
	j, err := job.NewStore(ws).Load(jobID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load job: %v\n", err)
		os.Exit(1)
	}
	if j == nil {
		fmt.Fprintf(os.Stderr, "job not found: %s\n", jobID)
		os.Exit(1)
	}
	return j
}

// printJobStatus projects a single job: lifecycle status plus the latest
// run, current step and produced artifacts.
func printJobStatus(ws, jobID string) {
	j := mustLoadJob(ws, jobID)
	fmt.Printf("job %s\n", j.JobID)
	fmt.Printf("  status: %s\n", j.Status)
	fmt.Printf("  title:  %s\n", j.JobSpec.Title)

	reader := events.NewReader(ws)
	logPath, err := reader.LatestRunLog(jobID)
	if err != nil || logPath == "" {
		fmt.Println("  runs:   none")
		return
	}
	evs, err := events.Read(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}
	s := events.Summarize(evs)
	fmt.Printf("  run:    %s %s (%d events, %d steps done, %d failed)\n",
		s.RunID, s.Status, s.EventCount, s.StepsDone, s.StepsFailed)
	if last := events.Latest(evs); last != nil && last.StepID != "" {
		fmt.Printf("  step:   %s\n", last.StepID)
	}

	if arts, err := reader.Artifacts(jobID); err == nil {
		for _, a := range arts {
			fmt.Printf("  artifact: %s\n", a)
		}
	}
}

func printWorkspaceStatus(ws string) {
	cfg, err := workspace.LoadConfig(ws)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}
	session := workspace.NewSession(ws)
	fmt.Printf("workspace: %s (v%s)\n", cfg.WorkspacePath, cfg.Version)
	fmt.Printf("mode:      %s\n", session.Mode())

	jobs, err := job.NewStore(ws).List()
	if err == nil {
		counts := map[model.JobStatus]int{}
		for _, j := range jobs {
			counts[j.Status]++
		}
		fmt.Printf("jobs:      %d", len(jobs))
		for _, s := range []model.JobStatus{
			model.JobStatusDraft, model.JobStatusPlanned, model.JobStatusApproved,
			model.JobStatusRunning, model.JobStatusCompleted, model.JobStatusFailed,
			model.JobStatusHalted,
		} {
			if counts[s] > 0 {
				fmt.Printf(" %s=%d", s, counts[s])
			}
		}
		fmt.Println()
	}

	pkgs, err := registry.New(ws).List("")
	if err == nil {
		fmt.Printf("packages:  %d\n", len(pkgs))
	}
}
