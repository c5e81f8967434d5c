package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/identity"
	"github.com/digitalme/backend/internal/keys"
	"github.com/digitalme/backend/internal/vault"
	"github.com/spf13/cobra"
)

func NewWalletCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "manage local wallet files",
	}
	cmd.AddCommand(newWalletCreateCommand())
	return cmd
}

func newWalletCreateCommand() *cobra.Command {
	flags := &walletFlags{}
	var (
		name  string
		light bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "creates an empty wallet file",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := flags.secret()
			if err != nil {
				return err
			}
			if _, err := os.Stat(flags.file); err == nil {
				return fmt.Errorf("%s already exists", flags.file)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}

			params := vault.DefaultScryptParams
			if light {
				params = vault.LightScryptParams
			}
			w := identity.NewWallet(name, keys.NewEd25519(), params)
			if err := writeWallet(flags.file, w, pass); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wallet %q written to %s\n", name, flags.file)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "default", "wallet name")
	cmd.Flags().BoolVar(&light, "light-scrypt", false, "use cheap scrypt parameters (testing only)")
	return cmd
}

func NewDIDCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "did",
		Short: "create and list DIDs",
	}
	cmd.AddCommand(newDIDCreateCommand(), newDIDListCommand())
	return cmd
}

func newDIDCreateCommand() *cobra.Command {
	flags := &walletFlags{}
	var network string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "adds a new DID account to the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, pass, err := openWallet(flags)
			if err != nil {
				return err
			}
			d, err := w.CreateDID(did.Network(network))
			if err != nil {
				return err
			}
			if err := writeWallet(flags.file, w, pass); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&network, "network", string(did.TestNet), "DID network tag")
	return cmd
}

func newDIDListCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "lists the wallet's DIDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := readWallet(file)
			if err != nil {
				return err
			}
			for _, d := range w.GetAllDIDs() {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "wallet.json", "wallet file")
	return cmd
}

func NewClaimCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "store and read claims",
	}
	cmd.AddCommand(newClaimAddCommand(), newClaimGetCommand(), newClaimListCommand())
	return cmd
}

func newClaimAddCommand() *cobra.Command {
	flags := &walletFlags{}
	var claimFile string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "stores a claim file under its owner DID",
		RunE: func(cmd *cobra.Command, args []string) error {
			claim, err := readClaim(claimFile)
			if err != nil {
				return err
			}
			w, pass, err := openWallet(flags)
			if err != nil {
				return err
			}
			if err := w.AddClaim(claim); err != nil {
				return err
			}
			if err := writeWallet(flags.file, w, pass); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "claim %s stored for %s\n", claim.ID, claim.OwnerDID)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&claimFile, "claim", "claim.json", "claim file")
	return cmd
}

func newClaimGetCommand() *cobra.Command {
	flags := &walletFlags{}

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "prints a stored claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, _, err := openWallet(flags)
			if err != nil {
				return err
			}
			c, err := w.GetClaim(args[0])
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("claim %s not found", args[0])
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}

	flags.bind(cmd)
	return cmd
}

func newClaimListCommand() *cobra.Command {
	flags := &walletFlags{}
	var d string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "prints every claim owned by a DID",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, _, err := openWallet(flags)
			if err != nil {
				return err
			}
			claims, err := w.GetAllClaims(d)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), claims)
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&d, "did", "", "owner DID")
	_ = cmd.MarkFlagRequired("did")
	return cmd
}
