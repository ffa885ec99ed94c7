package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benevolat/permaplan/pkg/core/planner"
	"github.com/benevolat/permaplan/pkg/core/roster"
	"github.com/benevolat/permaplan/pkg/rosterfile"
)

// PlanCmd creates the plan command
func PlanCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build the month's schedule from a roster file",
		Long:  "Load the roster, compile the staffing rules into a decision model, solve it within the time budget, and print the resulting schedule grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterPath, _ := cmd.Flags().GetString("roster")
			if rosterPath == "" {
				rosterPath = app.Cfg.RosterPath
			}
			if rosterPath == "" {
				return fmt.Errorf("no roster file: pass --roster or set rosterPath in the config")
			}

			explain, _ := cmd.Flags().GetBool("explain")
			app.Logger.Debug("plan command", zap.String("roster", rosterPath), zap.Bool("explain", explain))

			if explain {
				return runExplain(app, rosterPath)
			}

			outcome, err := runPlan(app, rosterPath)
			if err != nil {
				return err
			}

			printOutcome(outcome)
			return nil
		},
	}

	cmd.Flags().String("roster", "", "Path to the roster YAML file")
	cmd.Flags().Bool("explain", false, "Compile the model and print its statistics without solving")

	return cmd
}

func runPlan(app *AppContext, rosterPath string) (*planner.Outcome, error) {
	r, err := loadRoster(app, rosterPath)
	if err != nil {
		return nil, err
	}
	return planner.Plan(app.Ctx, r, app.Cfg.PlannerConfig(), app.Logger)
}

// runExplain compiles the model for the roster and prints its statistics
// and the per-shift availability picture, without solving anything.
func runExplain(app *AppContext, rosterPath string) error {
	r, err := loadRoster(app, rosterPath)
	if err != nil {
		return err
	}

	stats, err := planner.Explain(r, app.Cfg.PlannerConfig())
	if err != nil {
		return err
	}

	fmt.Printf("\n🔍 Model for %s %d\n\n", r.Month, r.Year)
	fmt.Printf("Volunteers:  %d\n", len(r.Volunteers))
	fmt.Printf("Shifts:      %d\n", len(r.Shifts))
	fmt.Printf("Variables:   %d\n", stats.Variables)
	fmt.Printf("Constraints: %d\n\n", stats.Constraints)

	printShiftAvailability(r, app.Cfg.MinStaff)
	return nil
}

func loadRoster(app *AppContext, rosterPath string) (*roster.Roster, error) {
	records, err := rosterfile.Load(rosterPath)
	if err != nil {
		return nil, err
	}

	var opts []roster.Option
	pattern, err := app.Cfg.ShiftPatternRule()
	if err != nil {
		return nil, err
	}
	if pattern != nil {
		opts = append(opts, roster.WithShiftPattern(pattern))
	}

	r, err := roster.Build(time.Month(app.Cfg.Month), app.Cfg.Year, records, opts...)
	if err != nil {
		return nil, fmt.Errorf("roster construction failed: %w", err)
	}
	return r, nil
}

func printOutcome(outcome *planner.Outcome) {
	r := outcome.Roster

	fmt.Printf("\n📋 Schedule for %s %d\n\n", r.Month, r.Year)
	fmt.Printf("Plan ID:     %s\n", outcome.PlanID)
	switch outcome.Status {
	case planner.StatusOptimal:
		fmt.Printf("Status:      ✅ OPTIMAL\n")
	case planner.StatusFeasible:
		fmt.Printf("Status:      ⚠️  FEASIBLE (time budget hit - result may be suboptimal)\n")
	default:
		fmt.Printf("Status:      ❌ NO SOLUTION (no shifts opened)\n")
	}
	fmt.Printf("Objective:   %d\n", outcome.Objective)
	fmt.Printf("Open Shifts: %d/%d\n", outcome.OpenShifts, len(r.Shifts))
	fmt.Printf("Model:       %d variables, %d constraints\n", outcome.ModelStats.Variables, outcome.ModelStats.Constraints)
	fmt.Printf("Search:      %d nodes in %s\n\n", outcome.SolveStats.Nodes, outcome.SolveStats.Elapsed.Round(time.Millisecond))

	if len(r.Shifts) == 0 {
		fmt.Println("No shifts to plan - the roster declared no availability.")
		return
	}

	printShifts(outcome)
	printGrid(outcome)
	printVolunteers(outcome)
}

func printShifts(outcome *planner.Outcome) {
	fmt.Printf("📅 Shifts:\n\n")
	for _, s := range outcome.Roster.Shifts {
		kind := ""
		if s.IsSurstaff {
			kind = " (surstaff)"
		}

		if !s.IsOpen {
			fmt.Printf("  %s%s — closed\n", s.Date.Format("Mon 02 Jan"), kind)
			continue
		}

		names := make([]string, 0, len(s.AssignedVolunteers))
		for _, v := range s.AssignedVolunteers {
			name := v.Name
			if v.IsReferent {
				name += " *"
			}
			names = append(names, name)
		}
		fmt.Printf("  %s%s — %s\n", s.Date.Format("Mon 02 Jan"), kind, strings.Join(names, ", "))
	}
	fmt.Printf("\n  (* referent)\n\n")
}

func printGrid(outcome *planner.Outcome) {
	r := outcome.Roster

	nameWidth := 10
	for _, v := range r.Volunteers {
		if len(v.Name) > nameWidth {
			nameWidth = len(v.Name)
		}
	}

	fmt.Printf("🗓  Grid (R=referent assigned, X=assigned, ·=available):\n\n")
	fmt.Printf("  %-*s", nameWidth, "")
	for _, s := range r.Shifts {
		fmt.Printf(" %2d", s.Day)
	}
	fmt.Println()

	for _, v := range r.Volunteers {
		fmt.Printf("  %-*s", nameWidth, v.Name)
		for _, s := range r.Shifts {
			fmt.Printf("  %s", outcome.Grid[v.Index][s.Index].Symbol())
		}
		fmt.Println()
	}
	fmt.Println()
}

func printVolunteers(outcome *planner.Outcome) {
	fmt.Printf("🙋 Volunteers:\n\n")
	for _, v := range outcome.Roster.Volunteers {
		marker := ""
		if v.IsReferent {
			marker = " (referent)"
		}
		fmt.Printf("  %s%s: assigned %d, preferred %d\n", v.Name, marker, v.AssignedCount, v.PreferredCount)
	}
	fmt.Println()
}
