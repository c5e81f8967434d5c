package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/digitalme/backend/internal/chain"
	"github.com/digitalme/backend/internal/config"
	"github.com/digitalme/backend/internal/contracts"
	"github.com/digitalme/backend/internal/events"
	"github.com/digitalme/backend/internal/keys"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/services"
	"github.com/digitalme/backend/internal/verifier"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// chainDeps are built from the same environment as the API server.
type chainDeps struct {
	cfg  *config.Config
	keys *keys.Ed25519
	base *contracts.Base
	log  *zap.Logger
}

func newChainDeps(log *zap.Logger) *chainDeps {
	cfg := config.Load()
	k := keys.NewEd25519()
	rpc := chain.NewRPCClient(cfg.NeoRPCURL, cfg.RPCTimeout, nil, log)
	balances := chain.NewNeoscanClient(cfg.NeoscanURL, cfg.RPCTimeout, nil, log)
	return &chainDeps{cfg: cfg, keys: k, base: contracts.NewBase(rpc, balances, k, cfg.DIDNetwork, nil), log: log}
}

func (d *chainDeps) issuer() *services.IssuerService {
	return services.NewIssuerService(contracts.NewIssuerContract(d.cfg.IssuerScriptHash, d.base), d.keys, d.cfg.IssuerPrivateKey, newProcessLocker(), logAudit{d.log}, logPublisher{d.log}, d.log)
}

func (d *chainDeps) trust(rotHash string) *services.TrustService {
	if rotHash == "" {
		rotHash = d.cfg.RotScriptHash
	}
	return services.NewTrustService(contracts.NewRootOfTrust(rotHash, d.base), d.keys, d.cfg.RotPrivateKey, newProcessLocker(), logAudit{d.log}, logPublisher{d.log}, d.log)
}

// processLocker serializes submissions within this process only.
type processLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newProcessLocker() *processLocker {
	return &processLocker{held: map[string]bool{}}
}

func (l *processLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, services.ErrBusy
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}

type logAudit struct{ log *zap.Logger }

func (a logAudit) Log(_ context.Context, e models.AuditLog) error {
	a.log.Info("audit", zap.String("action", e.Action), zap.String("subject", e.Subject))
	return nil
}

type logPublisher struct{ log *zap.Logger }

func (p logPublisher) Publish(_ context.Context, stream string, e events.Event) error {
	p.log.Debug("event", zap.String("stream", stream), zap.String("type", e.Type), zap.Any("payload", e.Payload))
	return nil
}

func NewVerifyCommand(log *zap.Logger) *cobra.Command {
	var (
		claimFile string
		issuerKey string
		rotHash   string
		offline   bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "verifies a claim file",
		Long:  "verify checks a claim's signature offline against --issuer-key, or runs every online check against the issuer contract.",
		RunE: func(cmd *cobra.Command, args []string) error {
			claim, err := readClaim(claimFile)
			if err != nil {
				return err
			}

			if offline {
				if issuerKey == "" {
					return fmt.Errorf("--issuer-key is required with --offline")
				}
				v := verifier.NewVerifier("", nil, keys.NewEd25519())
				ok, err := v.VerifyOffline(claim, issuerKey)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]bool{"valid": ok})
			}

			d := newChainDeps(log)
			svc := services.NewVerificationService(verifier.NewVerifier(d.cfg.IssuerScriptHash, d.base, d.keys), d.cfg.RotScriptHash, log)
			report, err := svc.Verify(cmd.Context(), claim, rotHash)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&claimFile, "claim", "claim.json", "claim file")
	cmd.Flags().BoolVar(&offline, "offline", false, "check the signature only")
	cmd.Flags().StringVar(&issuerKey, "issuer-key", "", "issuer public key (hex) for --offline")
	cmd.Flags().StringVar(&rotHash, "rot", "", "root-of-trust script hash (default $ROT_SCRIPT_HASH)")
	return cmd
}

func NewIssuerCommand(log *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issuer",
		Short: "issuer contract operations",
	}
	cmd.AddCommand(
		newIssuerInfoCommand(log),
		newIssuerSchemaCommand(log),
		newIssuerIssueCommand(log),
		newIssuerRevokeCommand(log),
	)
	return cmd
}

func newIssuerInfoCommand(log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "prints the issuer's name, DID and public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := newChainDeps(log).issuer().Info(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

func newIssuerSchemaCommand(log *zap.Logger) *cobra.Command {
	var (
		attributes []string
		revokable  bool
		register   bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "schema <name>",
		Short: "prints a schema, or registers it with --register",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newChainDeps(log).issuer()
			if !register {
				schema, err := svc.SchemaDetails(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), schema)
			}

			schema, err := svc.RegisterSchema(cmd.Context(), uuid.Nil, models.Schema{
				Name:       args[0],
				Attributes: attributes,
				Revokable:  revokable,
			}, dryRun)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), schema)
		},
	}

	cmd.Flags().BoolVar(&register, "register", false, "register the schema")
	cmd.Flags().StringSliceVar(&attributes, "attribute", nil, "schema attribute (repeatable)")
	cmd.Flags().BoolVar(&revokable, "revokable", true, "claims of this schema can be revoked")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only ask the contract whether it would succeed")
	return cmd
}

func newIssuerIssueCommand(log *zap.Logger) *cobra.Command {
	var (
		owner  string
		schema string
		attrs  []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "signs a claim for a DID and injects it on chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			attributes, err := parseAttributes(attrs)
			if err != nil {
				return err
			}
			claim, err := newChainDeps(log).issuer().IssueClaim(cmd.Context(), uuid.Nil, services.IssueClaimRequest{
				OwnerDID:   owner,
				Schema:     schema,
				Attributes: attributes,
			}, dryRun)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), claim)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner DID")
	cmd.Flags().StringVar(&schema, "schema", "", "schema name")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "attribute key=value (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only ask the contract whether it would succeed")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newIssuerRevokeCommand(log *zap.Logger) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "revoke <claim-id>",
		Short: "revokes a claim on chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := newChainDeps(log).issuer().RevokeClaim(cmd.Context(), uuid.Nil, args[0], dryRun)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"tx_hash": tx, "dry_run": dryRun})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only ask the contract whether it would succeed")
	return cmd
}

func NewTrustCommand(log *zap.Logger) *cobra.Command {
	var rotHash string

	cmd := &cobra.Command{
		Use:   "trust",
		Short: "root-of-trust operations",
	}
	cmd.PersistentFlags().StringVar(&rotHash, "rot", "", "root-of-trust script hash (default $ROT_SCRIPT_HASH)")

	check := &cobra.Command{
		Use:   "check <issuer-did> <schema>",
		Short: "asks whether an issuer is trusted for a schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := newChainDeps(log).trust(rotHash).IsTrusted(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"issuer_did": args[0], "schema": args[1], "trusted": ok})
		},
	}

	write := func(use, short string, op func(s *services.TrustService) func(context.Context, uuid.UUID, string, string, bool) (string, error)) *cobra.Command {
		var dryRun bool
		c := &cobra.Command{
			Use:   use + " <issuer-did> <schema>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				tx, err := op(newChainDeps(log).trust(rotHash))(cmd.Context(), uuid.Nil, args[0], args[1], dryRun)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"tx_hash": tx, "dry_run": dryRun})
			},
		}
		c.Flags().BoolVar(&dryRun, "dry-run", false, "only ask the contract whether it would succeed")
		return c
	}

	cmd.AddCommand(
		check,
		write("register", "trusts an issuer for a schema", func(s *services.TrustService) func(context.Context, uuid.UUID, string, string, bool) (string, error) {
			return s.RegisterIssuer
		}),
		write("deactivate", "stops trusting an issuer for a schema", func(s *services.TrustService) func(context.Context, uuid.UUID, string, string, bool) (string, error) {
			return s.DeactivateIssuer
		}),
	)
	return cmd
}
