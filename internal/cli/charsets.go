package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/passgen/passgen/internal/generator"
	"github.com/passgen/passgen/internal/options"
)

func newCharsetsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "charsets",
		Short: "List the character sets and their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := a.defaultProfile()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tDEFAULT\tCHARACTERS")
			for _, c := range generator.AllCharsets {
				state := "off"
				if defaults.Enabled(c) {
					state = "on"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c, len(c.Chars()), state, c.Chars())
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nlength: %d-%d (default %d)\n",
				options.MinLength, options.MaxLength, defaults.Length)
			return nil
		},
	}
}
