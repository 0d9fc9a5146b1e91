package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/govsol/internal/config"
	"github.com/example/govsol/internal/db"
	"github.com/example/govsol/internal/repository"
	"github.com/example/govsol/internal/service"
)

func newSweepCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Escalate overdue issues once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list overdue issues without escalating them")
	return cmd
}

func runSweep(cmd *cobra.Command, dryRun bool) error {
	cfg := config.Load()

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	issueRepo := repository.NewIssueRepository(database)
	userRepo := repository.NewUserRepository(database)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(database), nil)
	issues := service.NewIssueService(issueRepo, userRepo, notifications, cfg.SweepNational)

	ctx := cmd.Context()
	now := time.Now().UTC()

	if dryRun {
		overdue, err := issues.ListOverdue(ctx, now)
		if err != nil {
			return err
		}
		if len(overdue) == 0 {
			color.Green("no overdue issues")
			return nil
		}
		color.Yellow("%d overdue issue(s) would be escalated:", len(overdue))
		for _, issue := range overdue {
			fmt.Printf("  %s  %-20s  deadline %s  %s\n",
				issue.ReferenceNumber, issue.CurrentLevel,
				issue.NextEscalationDate.Format(time.RFC3339), issue.Title)
		}
		return nil
	}

	outcomes, err := issues.SweepOverdue(ctx, now)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		color.Green("no overdue issues")
		return nil
	}
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			color.Red("  %s  %s: %v", o.Reference, o.FromLevel, o.Err)
		case o.Result == service.EscalationApplied:
			color.Green("  %s  %s -> %s", o.Reference, o.FromLevel, o.ToLevel)
		case o.Result == service.EscalationRescheduled:
			color.Yellow("  %s  %s: no handler available, rescheduled", o.Reference, o.FromLevel)
		default:
			fmt.Printf("  %s  %s: %s\n", o.Reference, o.FromLevel, o.Result)
		}
	}
	return nil
}
