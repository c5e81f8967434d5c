package contracts

import (
	"context"
	"fmt"

	"github.com/digitalme/backend/internal/chain"
)

// RootOfTrust is the proxy of a registry of trusted (issuer, schema) pairs.
type RootOfTrust struct {
	*Base
	scriptHash string
}

func NewRootOfTrust(scriptHash string, base *Base) *RootOfTrust {
	return &RootOfTrust{Base: base, scriptHash: scriptHash}
}

func (r *RootOfTrust) ScriptHash() string {
	return r.scriptHash
}

func (r *RootOfTrust) GetName(ctx context.Context) (string, error) {
	return r.GetStringFromOperation(ctx, r.scriptHash, RootOfTrustName)
}

func (r *RootOfTrust) GetDID() string {
	return contractDID(r.network, r.scriptHash)
}

func (r *RootOfTrust) IsTrusted(ctx context.Context, issuerDID, schemaName string) (bool, error) {
	out, err := r.invoke(ctx, r.scriptHash, RootOfTrustIsTrusted, chain.StringParam(issuerDID), chain.StringParam(schemaName))
	if err != nil {
		return false, err
	}
	ok, err := out.AsBool()
	if err != nil {
		return false, &ContractError{Message: fmt.Sprintf("trust of %s/%s: %v", issuerDID, schemaName, err)}
	}
	return ok, nil
}

func (r *RootOfTrust) RegisterIssuer(ctx context.Context, issuerDID, schemaName, rotKey string, opts TxOptions) (string, error) {
	params := []chain.ContractParam{chain.StringParam(issuerDID), chain.StringParam(schemaName)}
	return r.send(ctx, r.scriptHash, RootOfTrustRegisterIssuer, params, rotKey, opts)
}

func (r *RootOfTrust) DeactivateIssuer(ctx context.Context, issuerDID, schemaName, rotKey string, opts TxOptions) (string, error) {
	params := []chain.ContractParam{chain.StringParam(issuerDID), chain.StringParam(schemaName)}
	return r.send(ctx, r.scriptHash, RootOfTrustDeactivateIssuer, params, rotKey, opts)
}

func (r *RootOfTrust) RegisterIssuerTest(ctx context.Context, issuerDID, schemaName string) error {
	return r.dryRun(ctx, r.scriptHash, RootOfTrustRegisterIssuer, chain.StringParam(issuerDID), chain.StringParam(schemaName))
}

func (r *RootOfTrust) DeactivateIssuerTest(ctx context.Context, issuerDID, schemaName string) error {
	return r.dryRun(ctx, r.scriptHash, RootOfTrustDeactivateIssuer, chain.StringParam(issuerDID), chain.StringParam(schemaName))
}
