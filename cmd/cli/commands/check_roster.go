package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benevolat/permaplan/pkg/core/roster"
	"github.com/benevolat/permaplan/pkg/rosterfile"
)

// CheckRosterCmd creates the checkRoster command
func CheckRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "checkRoster <roster_file>",
		Short: "Parse and validate a roster file without planning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterPath := args[0]
			app.Logger.Debug("checkRoster command", zap.String("roster", rosterPath))

			records, err := rosterfile.Load(rosterPath)
			if err != nil {
				return err
			}

			var opts []roster.Option
			pattern, err := app.Cfg.ShiftPatternRule()
			if err != nil {
				return err
			}
			if pattern != nil {
				opts = append(opts, roster.WithShiftPattern(pattern))
			}

			r, err := roster.Build(time.Month(app.Cfg.Month), app.Cfg.Year, records, opts...)
			if err != nil {
				var dataErr *roster.DataError
				if errors.As(err, &dataErr) {
					fmt.Printf("\n❌ Roster data error: %v\n", err)
					return nil
				}
				return err
			}

			referents := 0
			for _, v := range r.Volunteers {
				if v.IsReferent {
					referents++
				}
			}

			fmt.Printf("\n✓ Roster is valid\n\n")
			fmt.Printf("Volunteers: %d (%d referents)\n", len(r.Volunteers), referents)
			fmt.Printf("Shifts:     %d (latest on day %d)\n\n", len(r.Shifts), r.MaxDay())

			printShiftAvailability(r, app.Cfg.MinStaff)

			return nil
		},
	}
}

// printShiftAvailability lists each shift with its available headcount and
// warns about shifts that cannot possibly open.
func printShiftAvailability(r *roster.Roster, minStaff int) {
	for _, s := range r.Shifts {
		available := r.AvailableVolunteers(s)
		referentAvailable := false
		for _, v := range available {
			if v.IsReferent {
				referentAvailable = true
				break
			}
		}
		warn := ""
		if len(available) < minStaff {
			warn = " ⚠️  fewer available volunteers than minimum staffing"
		} else if !referentAvailable {
			warn = " ⚠️  no referent available"
		}
		fmt.Printf("  %s: %d available%s\n", s.Date.Format("Mon 02 Jan"), len(available), warn)
	}
	fmt.Println()
}
