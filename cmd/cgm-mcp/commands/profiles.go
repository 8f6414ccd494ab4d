package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"cgm-mcp/internal/profile"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the available patient profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printProfiles(cmd.OutOrStdout(), cfg.Profiles.Profiles(), cfg.ProfileKey)
	},
}

func printProfiles(out io.Writer, profiles []profile.PatientProfile, defaultKey string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tTARGET (mg/dL)\tBANDS")
	for _, p := range profiles {
		key := p.Key
		if key == defaultKey {
			key += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%.0f-%.0f\t%d\n", key, p.DisplayName, p.TargetRange.Lower, p.TargetRange.Upper, len(p.Ranges))
	}
	return w.Flush()
}
