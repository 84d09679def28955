package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	mrand "math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucky-spin/internal/auth"
	"lucky-spin/internal/cache"
	"lucky-spin/internal/config"
	"lucky-spin/internal/database"
	"lucky-spin/internal/payment"
	adminsvc "lucky-spin/internal/services/admin"
	"lucky-spin/internal/services/game"
	"lucky-spin/internal/session"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	tmp := t.TempDir()
	cfg := &config.Config{
		EnvFilePath:     filepath.Join(tmp, ".env"),
		HTTPPort:        "0",
		JWTSecret:       "test-secret",
		JWTIssuer:       "lucky-spin",
		AdminPassword:   "admin-pass",
		AdminTOTPSecret: testTOTPSecret,
		SpinCost:        10,
		SignupBonus:     200,
		MinDeposit:      49,
		MinWithdrawal:   249,
		MaxWithdrawal:   210,
		BaseRotations:   4,
		SpinDuration:    0,
		PrizeCacheTTL:   time.Minute,
		PesapalPageURL:  "https://store.pesapal.com/moneyflow",
	}

	store, err := database.New(context.Background(), "sqlite:"+filepath.Join(tmp, "test.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtMgr := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer)
	segmentCache := cache.NewSegmentCache(cfg.PrizeCacheTTL, store.LoadPrizeConfig)
	payments := payment.NewClient(cfg.PesapalPageURL)
	sessions := session.NewManager(store, cfg.Bounds(), logger)
	envSvc := adminsvc.NewEnvService(cfg.EnvFilePath)
	rng := mrand.New(mrand.NewSource(1))
	gameSvc := game.NewService(store, segmentCache, payments, cfg, logger, rng)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(cfg, store, gameSvc, sessions, envSvc, jwtMgr, segmentCache, logger)
	RegisterRoutes(r, handler, jwtMgr, nil)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]any
	if len(w.Body.Bytes()) > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

func loginUser(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"phone":    "0712345678",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestLoginIssuesBonusLedger(t *testing.T) {
	r := newTestRouter(t)
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"phone":    "0712345678",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	ledgerState := resp["ledger"].(map[string]any)
	assert.Equal(t, float64(200), ledgerState["balance"])
	assert.Equal(t, float64(200), ledgerState["lifetimeWinnings"])
	assert.Len(t, ledgerState["history"].([]any), 1)
}

func TestLoginValidation(t *testing.T) {
	r := newTestRouter(t)
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"phone": "0712"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp["error"], "required")
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"phone":           "0712",
		"name":            "Amina",
		"password":        "secret1",
		"confirmPassword": "secret2",
		"acceptTerms":     true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSpinEndpoint(t *testing.T) {
	r := newTestRouter(t)
	token := loginUser(t, r)

	w, resp := doJSON(t, r, http.MethodPost, "/api/spins", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	credited := resp["credited"].(float64)
	balance := resp["balance"].(float64)
	assert.Equal(t, 200-10+credited, balance)

	// Audit row lands in the admin spin log.
	adminToken := adminLogin(t, r)
	w, resp = doJSON(t, r, http.MethodGet, "/api/admin/spins", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["total"])
}

func TestSpinRequiresAuth(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/spins", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDepositLifecycle(t *testing.T) {
	r := newTestRouter(t)
	token := loginUser(t, r)

	w, _ := doJSON(t, r, http.MethodPost, "/api/deposits", token, gin.H{"amount": 48})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/deposits", token, gin.H{"amount": 100})
	require.Equal(t, http.StatusOK, w.Code)
	reference := resp["reference"].(string)
	assert.Contains(t, resp["embedUrl"], "pesapal.com")

	w, resp = doJSON(t, r, http.MethodPost, "/api/deposits/"+reference+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(300), resp["balance"])

	w, _ = doJSON(t, r, http.MethodPost, "/api/deposits/"+reference+"/confirm", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWithdrawalBounds(t *testing.T) {
	r := newTestRouter(t)
	token := loginUser(t, r)

	body := gin.H{
		"amount":        249,
		"accountName":   "Amina W",
		"accountNumber": "0011223344",
		"bankName":      "KCB",
	}
	w, resp := doJSON(t, r, http.MethodPost, "/api/withdrawals", token, body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, resp["error"], "balance")

	body["amount"] = 100
	w, resp = doJSON(t, r, http.MethodPost, "/api/withdrawals", token, body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, resp["error"], "minimum withdrawal is KSH 249")
}

func TestLogoutDestroysSession(t *testing.T) {
	r := newTestRouter(t)
	token := loginUser(t, r)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/state", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRestoreAfterLogin(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/restore", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "nothing saved yet")

	loginUser(t, r)
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/restore", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := resp["user"].(map[string]any)
	assert.Equal(t, "0712345678", user["phone"])
}

func adminLogin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	require.NoError(t, err)
	w, resp := doJSON(t, r, http.MethodPost, "/api/admin/login", "", gin.H{
		"password": "admin-pass",
		"code":     code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestAdminPrizeConfigUpdateInvalidatesWheel(t *testing.T) {
	r := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/wheel", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["segments"].([]any), 8)

	adminToken := adminLogin(t, r)
	w, _ = doJSON(t, r, http.MethodPut, "/api/admin/prize-config", adminToken, gin.H{
		"segments": []gin.H{
			{"value": 5, "label": "KSH 5"},
			{"value": 0, "label": "Try Again"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = doJSON(t, r, http.MethodGet, "/api/wheel", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["segments"].([]any), 2)
}

func TestAdminLoginRejectsBadTOTP(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/admin/login", "", gin.H{
		"password": "admin-pass",
		"code":     "000000",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserTokenCannotUseAdminRoutes(t *testing.T) {
	r := newTestRouter(t)
	token := loginUser(t, r)
	w, _ := doJSON(t, r, http.MethodGet, "/api/admin/spins", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
