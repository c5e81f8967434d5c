package contracts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/digitalme/backend/internal/chain"
	"github.com/digitalme/backend/internal/models"
)

// IssuerContract is the proxy of one issuer's schema and claim registry.
type IssuerContract struct {
	*Base
	scriptHash string
}

func NewIssuerContract(scriptHash string, base *Base) *IssuerContract {
	return &IssuerContract{Base: base, scriptHash: scriptHash}
}

func (c *IssuerContract) ScriptHash() string {
	return c.scriptHash
}

func (c *IssuerContract) GetIssuerName(ctx context.Context) (string, error) {
	return c.GetStringFromOperation(ctx, c.scriptHash, IssuerName)
}

func (c *IssuerContract) GetIssuerDID() string {
	return contractDID(c.network, c.scriptHash)
}

// GetIssuerPublicKey returns the key claim signatures are verified against.
func (c *IssuerContract) GetIssuerPublicKey(ctx context.Context) (string, error) {
	return c.GetStringFromOperation(ctx, c.scriptHash, IssuerPublicKey)
}

func (c *IssuerContract) GetSchemaDetails(ctx context.Context, name string) (*models.Schema, error) {
	out, err := c.invoke(ctx, c.scriptHash, IssuerGetSchemaDetails, chain.StringParam(name))
	if err != nil {
		return nil, err
	}
	definition, err := out.AsString()
	if err != nil {
		return nil, &ContractError{Message: fmt.Sprintf("schema %q: %v", name, err)}
	}

	var schema models.Schema
	if err := json.Unmarshal([]byte(definition), &schema); err != nil {
		return nil, &ContractError{Message: fmt.Sprintf("schema %q: invalid definition: %v", name, err)}
	}
	return &schema, nil
}

// IsValidClaim reports whether the claim was injected by this issuer and is
// not revoked. Validity dates are not checked here.
func (c *IssuerContract) IsValidClaim(ctx context.Context, claimID string) (bool, error) {
	out, err := c.invoke(ctx, c.scriptHash, IssuerIsValidClaim, chain.StringParam(claimID))
	if err != nil {
		return false, err
	}
	ok, err := out.AsBool()
	if err != nil {
		return false, &ContractError{Message: fmt.Sprintf("claim %q: %v", claimID, err)}
	}
	return ok, nil
}

func schemaParams(schema models.Schema) ([]chain.ContractParam, error) {
	schema.ChainTx = ""
	definition, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return []chain.ContractParam{
		chain.StringParam(schema.Name),
		chain.StringParam(string(definition)),
		chain.BooleanParam(schema.Revokable),
	}, nil
}

func (c *IssuerContract) RegisterSchema(ctx context.Context, schema models.Schema, issuerKey string, opts TxOptions) (string, error) {
	params, err := schemaParams(schema)
	if err != nil {
		return "", err
	}
	return c.send(ctx, c.scriptHash, IssuerRegisterSchema, params, issuerKey, opts)
}

func (c *IssuerContract) InjectClaim(ctx context.Context, claimID, issuerKey string, opts TxOptions) (string, error) {
	return c.send(ctx, c.scriptHash, IssuerInjectClaim, []chain.ContractParam{chain.StringParam(claimID)}, issuerKey, opts)
}

func (c *IssuerContract) RevokeClaim(ctx context.Context, claimID, issuerKey string, opts TxOptions) (string, error) {
	return c.send(ctx, c.scriptHash, IssuerRevokeClaim, []chain.ContractParam{chain.StringParam(claimID)}, issuerKey, opts)
}

func (c *IssuerContract) RegisterSchemaTest(ctx context.Context, schema models.Schema) error {
	params, err := schemaParams(schema)
	if err != nil {
		return err
	}
	return c.dryRun(ctx, c.scriptHash, IssuerRegisterSchema, params...)
}

func (c *IssuerContract) InjectClaimTest(ctx context.Context, claimID string) error {
	return c.dryRun(ctx, c.scriptHash, IssuerInjectClaim, chain.StringParam(claimID))
}

func (c *IssuerContract) RevokeClaimTest(ctx context.Context, claimID string) error {
	return c.dryRun(ctx, c.scriptHash, IssuerRevokeClaim, chain.StringParam(claimID))
}
