package version

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flarebyte/glossa/internal/buildinfo"
)

var flagJSON bool

// VersionCmd implements `glossa version`.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !flagJSON {
			_, err := fmt.Fprintf(out, "glossa %s\n", buildinfo.Summary())
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(buildinfo.Get())
	},
}

func init() {
	VersionCmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
}
