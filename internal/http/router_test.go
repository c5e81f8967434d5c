package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/digitalme/backend/internal/chain"
	"github.com/digitalme/backend/internal/config"
	"github.com/digitalme/backend/internal/contracts"
	"github.com/digitalme/backend/internal/contracts/mocks"
	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/events"
	apphttp "github.com/digitalme/backend/internal/http"
	"github.com/digitalme/backend/internal/http/dto"
	"github.com/digitalme/backend/internal/http/handlers"
	"github.com/digitalme/backend/internal/keys"
	"github.com/digitalme/backend/internal/metrics"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/repositories"
	"github.com/digitalme/backend/internal/services"
	"github.com/digitalme/backend/internal/vault"
	"github.com/digitalme/backend/internal/verifier"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const (
	issuerHash = "0x0102030405060708090a0b0c0d0e0f1011121314"
	passphrase = "correct horse"
	apiKey     = "operator-key"
)

type memStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]models.WalletRecord
}

func (s *memStore) Get(_ context.Context, holderID uuid.UUID) (*models.HolderWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.wallets[holderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.HolderWallet{HolderID: holderID, Record: rec}, nil
}

func (s *memStore) Save(_ context.Context, holderID uuid.UUID, rec models.WalletRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[holderID] = rec
	return nil
}

type nopAudit struct{}

func (nopAudit) Log(context.Context, models.AuditLog) error { return nil }

func (nopAudit) GetBySubject(_ context.Context, subject string, _, _ int) ([]models.AuditLog, error) {
	return []models.AuditLog{{Action: "claim_issued", Subject: subject}}, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, events.Event) error { return nil }

type freeLocker struct{}

func (freeLocker) Acquire(context.Context, string) (func(), error) { return func() {}, nil }

type testApp struct {
	app *fiber.App
	rpc *mocks.MockRPC
}

func newTestApp(t *testing.T) *testApp {
	log := zap.NewNop()
	cfg := &config.Config{JWTSecret: "test-secret", OperatorAPIKey: apiKey, RateLimitPerMinute: 1000}
	k := keys.NewEd25519()

	issuerKey, err := k.GeneratePrivateKey()
	require.NoError(t, err)

	// Nothing listens here: the rate limiter fails open.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	rpc := mocks.NewMockRPC(gomock.NewController(t))
	base := contracts.NewBase(rpc, nil, k, did.TestNet, nil)

	walletSvc := services.NewWalletService(&memStore{wallets: map[uuid.UUID]models.WalletRecord{}}, nopAudit{}, freeLocker{}, nopPublisher{}, k, did.TestNet, vault.LightScryptParams, log)
	issuerSvc := services.NewIssuerService(contracts.NewIssuerContract(issuerHash, base), k, issuerKey, freeLocker{}, nopAudit{}, nopPublisher{}, log)
	verifySvc := services.NewVerificationService(verifier.NewVerifier(issuerHash, base, k), "", log)

	app := fiber.New()
	apphttp.SetupRouter(app, cfg, log, rdb, metrics.New(),
		handlers.NewAuthHandler(walletSvc, cfg, log),
		handlers.NewWalletHandler(walletSvc, log),
		handlers.NewIssuerHandler(issuerSvc, log),
		nil,
		handlers.NewVerifyHandler(verifySvc, log),
		handlers.NewAuditHandler(nopAudit{}, log),
		handlers.NewWSHub(cfg, nil, nil, log),
	)
	return &testApp{app: app, rpc: rpc}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any, headers ...string) (int, []byte) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (a *testApp) registerHolder(t *testing.T) dto.AuthResponse {
	status, body := a.do(t, fiber.MethodPost, "/api/v1/auth/holder", "", dto.HolderAuthRequest{Name: "alice", Passphrase: passphrase})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(body, &auth))
	return auth
}

func (a *testApp) operatorToken(t *testing.T) string {
	status, body := a.do(t, fiber.MethodPost, "/api/v1/auth/operator", "", dto.OperatorAuthRequest{APIKey: apiKey})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(body, &auth))
	assert.Equal(t, "operator", auth.Role)
	return auth.Token
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestApp(t)

	status, _ := a.do(t, fiber.MethodGet, "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body := a.do(t, fiber.MethodGet, "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotNil(t, body)
}

func TestHolderAuth(t *testing.T) {
	a := newTestApp(t)
	auth := a.registerHolder(t)
	assert.Equal(t, "holder", auth.Role)
	assert.Contains(t, auth.DID, "did:neoid:TestNet:")

	status, _ := a.do(t, fiber.MethodPost, "/api/v1/auth/holder", "", dto.HolderAuthRequest{HolderID: auth.HolderID, Passphrase: passphrase})
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = a.do(t, fiber.MethodPost, "/api/v1/auth/holder", "", dto.HolderAuthRequest{HolderID: auth.HolderID, Passphrase: "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = a.do(t, fiber.MethodPost, "/api/v1/auth/holder", "", dto.HolderAuthRequest{HolderID: uuid.NewString(), Passphrase: passphrase})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = a.do(t, fiber.MethodPost, "/api/v1/auth/holder", "", dto.HolderAuthRequest{HolderID: "not-a-uuid", Passphrase: passphrase})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = a.do(t, fiber.MethodPost, "/api/v1/auth/operator", "", dto.OperatorAuthRequest{APIKey: "guess"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestWalletRoutes(t *testing.T) {
	a := newTestApp(t)
	auth := a.registerHolder(t)
	pass := []string{handlers.PassphraseHeader, passphrase}

	status, _ := a.do(t, fiber.MethodGet, "/api/v1/wallet/dids", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := a.do(t, fiber.MethodGet, "/api/v1/wallet/dids", auth.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"dids":["`+auth.DID+`"]}`, string(body))

	status, _ = a.do(t, fiber.MethodPost, "/api/v1/wallet/dids", auth.Token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	claim := models.Claim{ID: "c-1", OwnerDID: auth.DID, Schema: "Email", Attributes: map[string]any{"email": "a@example.com"}}
	status, body = a.do(t, fiber.MethodPost, "/api/v1/wallet/claims", auth.Token, claim, pass...)
	require.Equal(t, fiber.StatusCreated, status, string(body))

	status, _ = a.do(t, fiber.MethodPost, "/api/v1/wallet/claims", auth.Token, claim, pass...)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = a.do(t, fiber.MethodGet, "/api/v1/wallet/claims/c-1", auth.Token, nil, pass...)
	require.Equal(t, fiber.StatusOK, status)
	var got models.Claim
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, claim, got)

	status, _ = a.do(t, fiber.MethodGet, "/api/v1/wallet/claims/missing", auth.Token, nil, pass...)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = a.do(t, fiber.MethodGet, "/api/v1/wallet/claims/c-1", auth.Token, nil, handlers.PassphraseHeader, "wrong")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = a.do(t, fiber.MethodGet, "/api/v1/wallet/claims", auth.Token, nil, pass...)
	assert.Equal(t, fiber.StatusBadRequest, status)

	orphan := models.Claim{ID: "c-2", OwnerDID: "did:neoid:TestNet:nobody"}
	status, _ = a.do(t, fiber.MethodPost, "/api/v1/wallet/claims", auth.Token, orphan, pass...)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestRolePermissions(t *testing.T) {
	a := newTestApp(t)
	holder := a.registerHolder(t)
	operator := a.operatorToken(t)

	status, _ := a.do(t, fiber.MethodPost, "/api/v1/issuer/claims", holder.Token, dto.IssueClaimRequest{OwnerDID: holder.DID, Schema: "Email"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = a.do(t, fiber.MethodGet, "/api/v1/wallet/dids", operator, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = a.do(t, fiber.MethodGet, "/api/v1/audit/c-1", holder.Token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := a.do(t, fiber.MethodGet, "/api/v1/audit/c-1", operator, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"subject":"c-1"`)

	// no root of trust configured
	status, _ = a.do(t, fiber.MethodGet, "/api/v1/trust", operator, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestIssueClaimDryRunRoute(t *testing.T) {
	a := newTestApp(t)
	holder := a.registerHolder(t)
	operator := a.operatorToken(t)

	def, err := json.Marshal(models.Schema{Name: "Email", Attributes: []string{"email"}})
	require.NoError(t, err)
	ok := func(item chain.StackItem) *chain.InvokeResult {
		return &chain.InvokeResult{Stack: []chain.StackItem{chain.NewArrayItem(chain.NewIntegerItem(1), item)}}
	}
	a.rpc.EXPECT().InvokeFunction(gomock.Any(), issuerHash, contracts.IssuerGetSchemaDetails, chain.StringParam("Email")).
		Return(ok(chain.NewStringItem(string(def))), nil)
	a.rpc.EXPECT().InvokeFunction(gomock.Any(), issuerHash, contracts.IssuerInjectClaim, gomock.Any()).
		Return(ok(chain.NewBooleanItem(true)), nil)

	status, body := a.do(t, fiber.MethodPost, "/api/v1/issuer/claims?dry_run=true", operator, dto.IssueClaimRequest{
		OwnerDID:   holder.DID,
		Schema:     "Email",
		Attributes: map[string]any{"email": "a@example.com"},
	})
	require.Equal(t, fiber.StatusOK, status, string(body))

	var claim models.Claim
	require.NoError(t, json.Unmarshal(body, &claim))
	assert.Equal(t, holder.DID, claim.OwnerDID)
	assert.NotEmpty(t, claim.Signature)
	assert.Empty(t, claim.ChainTx)
}

func TestContractFailureIsBadGateway(t *testing.T) {
	a := newTestApp(t)
	a.rpc.EXPECT().InvokeFunction(gomock.Any(), issuerHash, contracts.IssuerGetSchemaDetails, chain.StringParam("Nope")).
		Return(&chain.InvokeResult{Stack: []chain.StackItem{chain.NewArrayItem(chain.NewIntegerItem(0), chain.NewStringItem("unknown schema"))}}, nil)

	status, body := a.do(t, fiber.MethodGet, "/api/v1/issuer/schemas/Nope", "", nil)
	assert.Equal(t, fiber.StatusBadGateway, status)

	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Contains(t, e.Error, "unknown schema")
	assert.NotEmpty(t, e.RequestID)
}
