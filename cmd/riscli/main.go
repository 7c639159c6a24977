package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ris-sdk/internal/logger"
)

var Version = "dev"

func main() {
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "riscli",
		Short:         "Encode payment tokens and send risk inquiries",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(hashCmd())
	rootCmd.AddCommand(maskCmd())
	rootCmd.AddCommand(inquiryCmd())

	return rootCmd
}
