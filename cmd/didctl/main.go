package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewDevelopment()
	defer log.Sync()

	rootCmd := &cobra.Command{
		Use:   "didctl",
		Short: "DID wallet and contract CLI",
		Long:  "didctl manages local DID wallet files and talks to the issuer and root-of-trust contracts.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(NewWalletCommand())
	rootCmd.AddCommand(NewDIDCommand())
	rootCmd.AddCommand(NewClaimCommand())
	rootCmd.AddCommand(NewVerifyCommand(log))
	rootCmd.AddCommand(NewIssuerCommand(log))
	rootCmd.AddCommand(NewTrustCommand(log))

	if err := rootCmd.Execute(); err != nil {
		log.Error("didctl failed", zap.Error(err))
		os.Exit(1)
	}
}
