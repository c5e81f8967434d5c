package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/digitalme/backend/internal/identity"
	"github.com/digitalme/backend/internal/keys"
	"github.com/digitalme/backend/internal/models"
	"github.com/spf13/cobra"
)

const passphraseEnv = "DIDCTL_PASSPHRASE"

type walletFlags struct {
	file       string
	passphrase string
}

func (f *walletFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "wallet.json", "wallet file")
	cmd.Flags().StringVar(&f.passphrase, "passphrase", "", "wallet passphrase (default $"+passphraseEnv+")")
}

func (f *walletFlags) secret() (string, error) {
	if f.passphrase != "" {
		return f.passphrase, nil
	}
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("passphrase required: use --passphrase or $%s", passphraseEnv)
}

func readWallet(path string) (*identity.Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec models.WalletRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return identity.WalletFromRecord(rec, keys.NewEd25519())
}

// openWallet reads and decrypts the wallet file.
func openWallet(f *walletFlags) (*identity.Wallet, string, error) {
	pass, err := f.secret()
	if err != nil {
		return nil, "", err
	}
	w, err := readWallet(f.file)
	if err != nil {
		return nil, "", err
	}
	if err := w.Decrypt(pass); err != nil {
		return nil, "", err
	}
	return w, pass, nil
}

// writeWallet encrypts w and replaces the file.
func writeWallet(path string, w *identity.Wallet, passphrase string) error {
	enc, err := w.Encrypt(passphrase)
	if err != nil {
		return err
	}
	rec, err := enc.Export()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func readClaim(path string) (*models.Claim, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c models.Claim
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseAttributes turns key=value pairs into claim attributes. Values that
// parse as numbers or booleans keep that type.
func parseAttributes(pairs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("attribute %q: want key=value", p)
		}
		switch {
		case v == "true" || v == "false":
			attrs[k] = v == "true"
		default:
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				attrs[k] = n
			} else {
				attrs[k] = v
			}
		}
	}
	return attrs, nil
}
