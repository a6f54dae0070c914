package commands

import (
	"fmt"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/devsentry/devsentry/cmd/devsentry/internal/format"
	"github.com/devsentry/devsentry/pkg/version"
)

var versionTemplate = template.Must(template.New("version").Parse(`Version:      {{.Version}}
Commit:       {{.Commit}}
Built:        {{.BuildDate}}
Go version:   {{.GoVersion}}
OS/Arch:      {{.Platform}}
`))

func newVersionCommand(cliExecutable string) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  noArgs,
		// Printing the version needs neither configuration nor a workspace.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if short {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", cliExecutable, info.Version)
				return err
			}

			f := format.FromCommand(cmd)
			if f.Mode() != format.ModeTable {
				return f.PrintData(info)
			}
			return versionTemplate.Execute(cmd.OutOrStdout(), info)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")

	return cmd
}
