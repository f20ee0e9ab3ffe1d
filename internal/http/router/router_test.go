package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/freelance-escrow/internal/config"
	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/repository/memory"
	"github.com/ignatzorin/freelance-escrow/internal/service"
	"github.com/ignatzorin/freelance-escrow/internal/syncutil"
)

const (
	adminID    int64 = 1
	clientID   int64 = 100
	freelancer int64 = 200
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Silence()
	os.Exit(m.Run())
}

type apiEnv struct {
	engine   *gin.Engine
	tokens   *service.TokenManager
	accounts *service.AccountService
	ledger   *service.LedgerService
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	repos := memory.NewStore().Repositories()
	locks := &syncutil.KeyedMutex{}
	ledger := service.NewLedgerService(repos, locks, nil)
	orders := service.NewOrderService(repos, ledger, locks, nil)
	requests := service.NewEscrowRequestService(repos, ledger, locks, nil, decimal.RequireFromString("0.10"))
	reviews := service.NewReviewService(repos, locks, nil)
	accounts := service.NewAccountService(repos, locks)
	catalog := service.NewCatalogService(repos)
	stats := service.NewStatsService(repos)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	tokens := service.NewTokenManager("test-secret-test-secret-test-secret", time.Hour)
	auth := service.NewAuthService(repos.Accounts, tokens, []int64{adminID}, string(hash))

	cfg := &config.Config{
		Env:             "test",
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
	}

	engine := SetupRouter(
		cfg,
		auth,
		handlers.NewHealthHandler(nil, config.StorageMemory),
		handlers.NewAccountHandler(accounts, ledger),
		handlers.NewOrderHandler(orders),
		handlers.NewCatalogHandler(catalog, orders),
		handlers.NewEscrowRequestHandler(requests),
		handlers.NewReviewHandler(reviews),
		handlers.NewAdminHandler(auth, orders, stats),
		nil,
	)

	env := &apiEnv{engine: engine, tokens: tokens, accounts: accounts, ledger: ledger}
	env.register(t, clientID, valueobject.RoleClient, "500")
	env.register(t, freelancer, valueobject.RoleFreelancer, "")
	return env
}

func (e *apiEnv) register(t *testing.T, id int64, role valueobject.Role, balance string) {
	t.Helper()
	ctx := context.Background()
	_, _, err := e.accounts.Register(ctx, id, role, entity.Profile{Username: "u"})
	require.NoError(t, err)
	if balance != "" {
		_, err = e.ledger.Credit(ctx, id, decimal.RequireFromString(balance))
		require.NoError(t, err)
	}
}

func (e *apiEnv) token(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := e.tokens.Issue(userID, role)
	require.NoError(t, err)
	return tok.Token
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)

	w, body := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, config.StorageMemory, body["storage"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newAPIEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/balance", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBalance(t *testing.T) {
	env := newAPIEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/balance", env.token(t, clientID, "client"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "500.00", body["available_balance"])
	assert.Equal(t, "0.00", body["frozen_balance"])
}

func TestOrderFlowOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	clientTok := env.token(t, clientID, "client")
	freelancerTok := env.token(t, freelancer, "freelancer")

	w, body := env.do(t, http.MethodPost, "/api/orders", clientTok, map[string]any{
		"title": "Логотип", "budget": "150",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := body["data"].(map[string]any)
	assert.Equal(t, "active", order["status"])
	assert.Equal(t, "150.00", order["budget"])

	w, _ = env.do(t, http.MethodPost, "/api/orders/1/responses", freelancerTok, map[string]any{"message": "готов"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, body = env.do(t, http.MethodPost, "/api/orders/1/responses", freelancerTok, map[string]any{"message": "ещё раз"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_RESPONSE", body["code"])

	w, _ = env.do(t, http.MethodPost, "/api/orders/1/select", clientTok, map[string]any{"freelancer_id": freelancer})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, body = env.do(t, http.MethodGet, "/api/balance", clientTok, nil)
	assert.Equal(t, "350.00", body["available_balance"])
	assert.Equal(t, "150.00", body["frozen_balance"])

	w, _ = env.do(t, http.MethodPost, "/api/orders/1/confirm", clientTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, body = env.do(t, http.MethodPost, "/api/orders/1/confirm", freelancerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", body["data"].(map[string]any)["status"])

	_, body = env.do(t, http.MethodGet, "/api/balance", freelancerTok, nil)
	assert.Equal(t, "150.00", body["available_balance"])
}

func TestSelectWithoutFundsReturns422(t *testing.T) {
	env := newAPIEnv(t)
	clientTok := env.token(t, clientID, "client")

	w, _ := env.do(t, http.MethodPost, "/api/orders", clientTok, map[string]any{"title": "Сайт", "budget": "900"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = env.do(t, http.MethodPost, "/api/orders/1/responses", env.token(t, freelancer, "freelancer"), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, body := env.do(t, http.MethodPost, "/api/orders/1/select", clientTok, map[string]any{"freelancer_id": freelancer})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INSUFFICIENT_FUNDS", body["code"])
}

func TestBadInput(t *testing.T) {
	env := newAPIEnv(t)
	clientTok := env.token(t, clientID, "client")

	w, _ := env.do(t, http.MethodGet, "/api/orders/abc", clientTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/orders", clientTok, map[string]any{"title": "X", "budget": "-5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_AMOUNT", body["code"])

	w, body = env.do(t, http.MethodPost, "/api/orders", clientTok, map[string]any{"budget": "5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	w, body = env.do(t, http.MethodGet, "/api/orders/42", clientTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", body["code"])
}

func TestWithdrawalResolvedByAdmin(t *testing.T) {
	env := newAPIEnv(t)
	clientTok := env.token(t, clientID, "client")

	w, body := env.do(t, http.MethodPost, "/api/requests/withdraw", clientTok, map[string]any{
		"amount": "200", "phone": "+99365000000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "pending", body["data"].(map[string]any)["status"])

	_, body = env.do(t, http.MethodGet, "/api/balance", clientTok, nil)
	assert.Equal(t, "300.00", body["available_balance"])

	w, _ = env.do(t, http.MethodGet, "/api/admin/requests", clientTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminTok := env.token(t, adminID, service.RoleAdmin)
	w, _ = env.do(t, http.MethodPost, "/api/admin/requests/1/resolve", adminTok, map[string]any{"decision": "reject"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = env.do(t, http.MethodPost, "/api/admin/requests/1/resolve", adminTok, map[string]any{"decision": "approve"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_RESOLVED", body["code"])

	_, body = env.do(t, http.MethodGet, "/api/balance", clientTok, nil)
	assert.Equal(t, "500.00", body["available_balance"])
}

func TestAdminLogin(t *testing.T) {
	env := newAPIEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/admin/login", "", map[string]any{"admin_id": adminID, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/admin/login", "", map[string]any{"admin_id": adminID, "password": "secret-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	w, body = env.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["users"])
}

func TestUnknownRoute(t *testing.T) {
	env := newAPIEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/unknown", env.token(t, clientID, "client"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
