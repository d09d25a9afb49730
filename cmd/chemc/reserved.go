package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// reservedSubcommands are native-toolchain passthrough surfaces §4.14 names
// as external collaborators this core doesn't implement: they validate
// their own arguments (cobra's own flag/arg parsing) and then report that
// they're unimplemented, rather than silently doing nothing or failing to
// parse.
var reservedSubcommands = []string{"cc", "ar", "configure", "linker"}

func newReservedCmd(name string) *cobra.Command {
	return &cobra.Command{
		Use:           name,
		Short:         fmt.Sprintf("%s passthrough (reserved, not implemented in this core)", name),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("chemc %s: not implemented in this core", name)
		},
	}
}
