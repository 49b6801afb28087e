// Command taskhubctl is the operator CLI: it seeds fixture data and
// inspects task progress directly against the record store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &connOptions{}
	root := &cobra.Command{
		Use:           "taskhubctl",
		Short:         "Operator tools for taskhub",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(root)

	root.AddCommand(seedCmd(opts))
	root.AddCommand(progressCmd(opts))
	root.AddCommand(participantsCmd(opts))
	root.AddCommand(auditCmd(opts))
	return root
}
