package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devsentry/devsentry/cmd/devsentry/internal/format"
	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/document"
	"github.com/devsentry/devsentry/pkg/identity"
)

// builtDocument is a canonical document with its device ID.
type builtDocument struct {
	doc any
	id  string
}

// buildDocument normalizes data without running the risk engine.
func buildDocument(tier analysis.Tier, source string, data []byte) (builtDocument, error) {
	switch tier {
	case analysis.TierNative:
		doc := document.BuildNative(string(data))
		return builtDocument{doc: doc, id: identity.Native(doc)}, nil
	case analysis.TierPlatform:
		raw, err := document.DecodePlatformDump(data)
		if err != nil {
			return builtDocument{}, analysis.WrapUnreadable(source, err)
		}
		doc := document.BuildPlatform(raw)
		return builtDocument{doc: doc, id: identity.Platform(doc)}, nil
	default:
		_, err := analysis.ParseTier(string(tier))
		return builtDocument{}, err
	}
}

// tierCommands builds one subcommand per tier with run as its body.
func tierCommands(operation, short string, run func(cmd *cobra.Command, f format.Formatter, built builtDocument) error) []*cobra.Command {
	tiers := []analysis.Tier{analysis.TierNative, analysis.TierPlatform}
	cmds := make([]*cobra.Command, 0, len(tiers))
	for _, tier := range tiers {
		cmds = append(cmds, &cobra.Command{
			Use:   string(tier) + " <file|->",
			Short: fmt.Sprintf(short, tier),
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f := format.FromCommand(cmd)
				data, source, err := readInput(cmd, args[0])
				if err != nil {
					return fail(f, operation, err)
				}
				built, err := buildDocument(tier, source, data)
				if err != nil {
					return fail(f, operation, err)
				}
				return run(cmd, f, built)
			},
		})
	}
	return cmds
}

func newNormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "normalize",
		Short:   "Print the canonical document of a dump",
		GroupID: "analysis",
		Long: `Print the canonical document built from a dump, without scoring it.

Table output prints the compact canonical JSON the device ID is derived
from; --output json indents it and --output yaml converts it.`,
	}

	cmd.AddCommand(tierCommands("normalize dump", "Normalize a %s dump",
		func(cmd *cobra.Command, f format.Formatter, built builtDocument) error {
			if f.Mode() != format.ModeTable {
				return f.PrintData(built.doc)
			}
			data, err := document.Marshal(built.doc)
			if err != nil {
				return fail(f, "normalize dump", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		})...)

	return cmd
}

func newIDCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "id",
		Short:   "Print the device ID of a dump",
		GroupID: "analysis",
	}

	cmd.AddCommand(tierCommands("derive device id", "Derive the device ID of a %s dump",
		func(cmd *cobra.Command, f format.Formatter, built builtDocument) error {
			if f.Mode() != format.ModeTable {
				return f.PrintData(map[string]string{"device_id": built.id})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), built.id)
			return err
		})...)

	return cmd
}
