// Package contracts turns identity operations into smart-contract calls and
// decodes their results.
package contracts

import (
	"context"
	"fmt"

	"github.com/digitalme/backend/internal/chain"
	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/metrics"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . RPC,BalanceProvider,Signer

// RPC is the node capability: read-only invocation and broadcast.
type RPC interface {
	InvokeFunction(ctx context.Context, scriptHash, operation string, params ...chain.ContractParam) (*chain.InvokeResult, error)
	SendRawTransaction(ctx context.Context, rawTx string) (bool, error)
}

type BalanceProvider interface {
	GetBalance(ctx context.Context, address string) (*chain.Balance, error)
}

// Signer is the key-pair capability used to fund and sign transactions.
type Signer interface {
	Address(privateKey string) (string, error)
	PublicKey(privateKey string) (string, error)
	Sign(hash string, privateKey string) (string, error)
}

// TxOptions carries optional system fee and transfer intents of a transaction.
// Gas is in chain.Fixed8 units.
type TxOptions struct {
	Gas     int64
	Intents []chain.TransactionOutput
}

// Base holds only immutable configuration, so one instance may serve
// concurrent calls.
type Base struct {
	rpc      RPC
	balances BalanceProvider
	signer   Signer
	network  did.Network
	metrics  *metrics.Metrics
}

func NewBase(rpc RPC, balances BalanceProvider, signer Signer, network did.Network, m *metrics.Metrics) *Base {
	return &Base{rpc: rpc, balances: balances, signer: signer, network: network, metrics: m}
}

func (b *Base) Network() did.Network {
	return b.network
}

// InvokeReadOnly runs an operation without persisting anything.
func (b *Base) InvokeReadOnly(ctx context.Context, scriptHash, operation string, params ...chain.ContractParam) (*chain.InvokeResult, error) {
	res, err := b.rpc.InvokeFunction(ctx, scriptHash, operation, params...)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", operation, err)
	}
	return res, nil
}

// invoke runs a read-only call and fails with ContractError unless the
// decoded result reports success.
func (b *Base) invoke(ctx context.Context, scriptHash, operation string, params ...chain.ContractParam) (InvocationResult, error) {
	res, err := b.InvokeReadOnly(ctx, scriptHash, operation, params...)
	if err != nil {
		return InvocationResult{}, err
	}
	out := ExtractResult(res)
	if !out.Success {
		return out, &ContractError{Message: out.Error, Raw: res}
	}
	return out, nil
}

// dryRun is invoke for write operations: it only reports whether the
// contract would accept them.
func (b *Base) dryRun(ctx context.Context, scriptHash, operation string, params ...chain.ContractParam) error {
	_, err := b.invoke(ctx, scriptHash, operation, params...)
	if err == nil {
		b.metrics.IncTransaction(operation, "dry_run")
	}
	return err
}

func (b *Base) GetStringFromOperation(ctx context.Context, scriptHash, operation string) (string, error) {
	out, err := b.invoke(ctx, scriptHash, operation)
	if err != nil {
		return "", err
	}
	s, err := out.AsString()
	if err != nil {
		return "", &ContractError{Message: fmt.Sprintf("%s returned a non-string payload: %v", operation, err)}
	}
	return s, nil
}

// SendSignedTransaction funds, signs and broadcasts an invocation of script.
// It reads the signer's balance before broadcasting, so callers must serialize
// submissions per signing key.
func (b *Base) SendSignedTransaction(ctx context.Context, script []byte, privateKey string, opts TxOptions) (string, error) {
	address, err := b.signer.Address(privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionSigningFailed, err)
	}
	publicKey, err := b.signer.PublicKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionSigningFailed, err)
	}

	sender, err := chain.ScriptHashFromPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionSigningFailed, err)
	}

	balance, err := b.balances.GetBalance(ctx, address)
	if err != nil {
		return "", fmt.Errorf("get balance: %w", err)
	}

	tx, err := chain.BuildInvocation(script, sender, balance, opts.Gas, opts.Intents)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	hash, err := tx.Hash()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionSigningFailed, err)
	}
	sig, err := b.signer.Sign(hash, privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionSigningFailed, err)
	}
	if sig == "" {
		return "", ErrTransactionSigningFailed
	}
	if err := tx.AddWitness(sig, publicKey); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionSigningFailed, err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransactionSigningFailed, err)
	}

	ok, err := b.rpc.SendRawTransaction(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("broadcast %s: %w", hash, err)
	}
	if !ok {
		return "", &TransactionFailedError{TxHash: hash, Raw: ok}
	}
	return hash, nil
}

func (b *Base) send(ctx context.Context, scriptHash, operation string, params []chain.ContractParam, privateKey string, opts TxOptions) (string, error) {
	sb := chain.NewScriptBuilder()
	if err := sb.EmitAppCall(scriptHash, operation, params, false); err != nil {
		return "", fmt.Errorf("build %s script: %w", operation, err)
	}

	hash, err := b.SendSignedTransaction(ctx, sb.Bytes(), privateKey, opts)
	if err != nil {
		b.metrics.IncTransaction(operation, "failed")
		return "", err
	}
	b.metrics.IncTransaction(operation, "submitted")
	return hash, nil
}

// contractDID is the DID a contract is addressed by: its script hash.
func contractDID(network did.Network, scriptHash string) string {
	return did.Format(network, scriptHash)
}
