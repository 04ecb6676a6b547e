package root

import (
	"github.com/spf13/cobra"

	"github.com/flarebyte/glossa/cmd/glossa/annotate"
	"github.com/flarebyte/glossa/cmd/glossa/shared"
	"github.com/flarebyte/glossa/cmd/glossa/stages"
	"github.com/flarebyte/glossa/cmd/glossa/version"
)

// NewRootCmd creates the root command for glossa.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossa",
		Short: "Run text through a pipeline of annotation stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().CountVarP(&shared.Verbosity, "verbose", "v", "Raise log verbosity (repeatable)")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return shared.Usagef("%v", err)
	})

	cmd.AddCommand(version.VersionCmd)
	cmd.AddCommand(annotate.Cmd)
	cmd.AddCommand(stages.Cmd)
	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}
