package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"

	"lucky-spin/internal/auth"
	"lucky-spin/internal/cache"
	"lucky-spin/internal/config"
	"lucky-spin/internal/database"
	"lucky-spin/internal/ledger"
	"lucky-spin/internal/middleware"
	"lucky-spin/internal/models"
	"lucky-spin/internal/payment"
	adminsvc "lucky-spin/internal/services/admin"
	"lucky-spin/internal/services/game"
	"lucky-spin/internal/session"
)

const sessionTokenTTL = 24 * time.Hour

var allowedEnvKeys = []string{
	"SPIN_COST",
	"SIGNUP_BONUS",
	"MIN_DEPOSIT",
	"MIN_WITHDRAWAL",
	"MAX_WITHDRAWAL",
	"BASE_ROTATIONS",
	"SPIN_DURATION",
	"PRIZE_CACHE_TTL",
	"DEPOSIT_TTL",
	"PESAPAL_PAGE_URL",
	"ADMIN_PASSWORD",
	"ADMIN_ALLOWED_IPS",
	"JWT_SECRET",
	"DATABASE_URL",
}

type Handler struct {
	cfg      *config.Config
	store    *database.Store
	game     *game.Service
	sessions *session.Manager
	env      *adminsvc.EnvService
	jwt      *auth.Manager
	cache    *cache.SegmentCache
	logger   *slog.Logger
}

func NewHandler(cfg *config.Config, store *database.Store, gameSvc *game.Service, sessions *session.Manager, envSvc *adminsvc.EnvService, jwt *auth.Manager, segmentCache *cache.SegmentCache, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    store,
		game:     gameSvc,
		sessions: sessions,
		env:      envSvc,
		jwt:      jwt,
		cache:    segmentCache,
		logger:   logger,
	}
}

func RegisterRoutes(r *gin.Engine, h *Handler, jwt *auth.Manager, adminIPs []string) {
	r.GET("/api/health", h.Health)
	r.GET("/api/wheel", h.Wheel)

	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/restore", h.Restore)

	api := r.Group("/api")
	api.Use(middleware.JWT(jwt))

	api.POST("/auth/logout", h.Logout)
	api.GET("/state", h.State)
	api.GET("/history", h.History)
	api.POST("/spins", h.Spin)
	api.POST("/deposits", h.InitiateDeposit)
	api.POST("/deposits/:reference/confirm", h.ConfirmDeposit)
	api.POST("/withdrawals", h.Withdraw)

	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminIPAllowlist(adminIPs))
	admin.POST("/login", h.AdminLogin)

	adminProtected := admin.Group("/")
	adminProtected.Use(middleware.JWT(jwt), middleware.RequireRole("admin"))
	adminProtected.GET("/prize-config", h.GetPrizeConfig)
	adminProtected.PUT("/prize-config", h.UpdatePrizeConfig)
	adminProtected.GET("/spins", h.AdminListSpins)
	adminProtected.GET("/env", h.EnvList)
	adminProtected.PUT("/env", h.EnvUpdate)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}

// Wheel exposes the current segment layout so the client can draw the
// board before anyone logs in.
func (h *Handler) Wheel(c *gin.Context) {
	segments, err := h.cache.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wheel unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"segments": segments,
		"spinCost": h.cfg.SpinCost,
	})
}

type authRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

func (h *Handler) Register(c *gin.Context) {
	h.createSession(c, true)
}

func (h *Handler) Login(c *gin.Context) {
	h.createSession(c, false)
}

func (h *Handler) createSession(c *gin.Context, register bool) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	sess, err := h.sessions.Create(c.Request.Context(), session.Credentials{
		Phone:           req.Phone,
		Name:            req.Name,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AcceptedTerms:   req.AcceptTerms,
		Register:        register,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondWithSession(c, sess)
}

// Restore reopens a session from the saved user record, the way the
// original client restored itself from local storage on page load.
func (h *Handler) Restore(c *gin.Context) {
	sess, err := h.sessions.Restore(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "restore failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no saved user"})
		return
	}
	h.respondWithSession(c, sess)
}

func (h *Handler) respondWithSession(c *gin.Context, sess *session.Session) {
	token, err := h.jwt.IssueToken(sess.Token, sess.Phone, sess.Name, "user", sessionTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"user":   gin.H{"phone": sess.Phone, "name": sess.Name, "createdAt": sess.CreatedAt},
		"ledger": sess.Ledger.Snapshot(),
		"bonus":  h.cfg.SignupBonus,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	sess, ok := h.sessionFromClaims(c)
	if !ok {
		return
	}
	if err := h.sessions.Destroy(c.Request.Context(), sess.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) State(c *gin.Context) {
	sess, ok := h.sessionFromClaims(c)
	if !ok {
		return
	}
	snap := sess.Ledger.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"user":    gin.H{"phone": sess.Phone, "name": sess.Name, "createdAt": sess.CreatedAt},
		"ledger":  snap,
		"canSpin": sess.Ledger.CanSpin(),
		"bounds": gin.H{
			"spinCost":      h.cfg.SpinCost,
			"minDeposit":    h.cfg.MinDeposit,
			"minWithdrawal": h.cfg.MinWithdrawal,
			"maxWithdrawal": h.cfg.MaxWithdrawal,
		},
	})
}

func (h *Handler) History(c *gin.Context) {
	sess, ok := h.sessionFromClaims(c)
	if !ok {
		return
	}
	snap := sess.Ledger.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"history": snap.History,
		"total":   len(snap.History),
	})
}

func (h *Handler) Spin(c *gin.Context) {
	sess, ok := h.sessionFromClaims(c)
	if !ok {
		return
	}
	outcome, err := h.game.Spin(c.Request.Context(), sess)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrSpinInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "spin already in progress"})
		case errors.Is(err, ledger.ErrInsufficientBalance):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": fmt.Sprintf("insufficient balance: each spin costs KSH %d", h.cfg.SpinCost),
			})
		default:
			h.logger.Error("spin failed", "error", err, "phone", sess.Phone)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "spin failed"})
		}
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type depositRequest struct {
	Amount int `json:"amount"`
}

func (h *Handler) InitiateDeposit(c *gin.Context) {
	sess, ok := h.sessionFromClaims(c)
	if !ok {
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	deposit, err := h.game.InitiateDeposit(sess, req.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrBelowMinimum) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": fmt.Sprintf("minimum deposit is KSH %d", h.cfg.MinDeposit),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deposit failed"})
		return
	}
	c.JSON(http.StatusOK, deposit)
}

func (h *Handler) ConfirmDeposit(c *gin.Context) {
	sess, ok := h.sessionFromClaims(c)
	if !ok {
		return
	}
	reference := c.Param("reference")
	amount, err := h.game.ConfirmDeposit(c.Request.Context(), sess, reference)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownReference) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment reference"})
			return
		}
		h.logger.Error("deposit confirm failed", "error", err, "reference", reference)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deposit failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"credited": amount,
		"balance":  sess.Ledger.Balance(),
	})
}

type withdrawalRequest struct {
	Amount        int    `json:"amount"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
}

func (h *Handler) Withdraw(c *gin.Context) {
	sess, ok := h.sessionFromClaims(c)
	if !ok {
		return
	}
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	reference, err := h.game.Withdraw(sess, game.WithdrawalRequest{
		Amount:        req.Amount,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
	})
	if err != nil {
		switch {
		case errors.Is(err, game.ErrMissingAccountDetails):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ledger.ErrBelowMinimum):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": fmt.Sprintf("minimum withdrawal is KSH %d", h.cfg.MinWithdrawal),
			})
		case errors.Is(err, ledger.ErrInsufficientBalance):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "withdrawal exceeds available balance"})
		case errors.Is(err, ledger.ErrAboveMaximum):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": fmt.Sprintf("maximum withdrawal is KSH %d", h.cfg.MaxWithdrawal),
			})
		default:
			h.logger.Error("withdrawal failed", "error", err, "phone", sess.Phone)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference": reference,
		"balance":   sess.Ledger.Balance(),
	})
}

func (h *Handler) sessionFromClaims(c *gin.Context) (*session.Session, bool) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return nil, false
	}
	sess, ok := h.sessions.Get(claims.SessionID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return nil, false
	}
	return sess, true
}

type adminLoginRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if req.Password != h.cfg.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if ok := totp.Validate(req.Code, h.cfg.AdminTOTPSecret); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid totp"})
		return
	}
	token, err := h.jwt.IssueToken("", "", "admin", "admin", 4*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) GetPrizeConfig(c *gin.Context) {
	segments, err := h.store.LoadPrizeConfig(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prize config read failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"segments": segments})
}

type prizeConfigRequest struct {
	Segments []models.Segment `json:"segments"`
}

func (h *Handler) UpdatePrizeConfig(c *gin.Context) {
	var req prizeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := h.store.ReplacePrizeConfig(c.Request.Context(), req.Segments); err != nil {
		switch {
		case errors.Is(err, database.ErrEmptyPrizeConfig), errors.Is(err, database.ErrNegativePrize):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "prize config update failed"})
		}
		return
	}
	h.cache.Invalidate()
	c.JSON(http.StatusOK, gin.H{"updated": len(req.Segments)})
}

func (h *Handler) AdminListSpins(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	records, total, err := h.store.ListSpins(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "spin log read failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"spins": records, "total": total})
}

func (h *Handler) EnvList(c *gin.Context) {
	values, err := h.env.Read()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "env read failed"})
		return
	}
	result := map[string]string{}
	for _, key := range allowedEnvKeys {
		if v, ok := values[key]; ok {
			result[key] = v
		}
	}
	c.JSON(http.StatusOK, gin.H{"env": result})
}

func (h *Handler) EnvUpdate(c *gin.Context) {
	payload := map[string]string{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	updates := map[string]string{}
	for key, value := range payload {
		if !contains(allowedEnvKeys, key) {
			continue
		}
		updates[key] = value
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid keys"})
		return
	}
	if err := h.env.Update(updates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(updates)})
}

func contains(slice []string, key string) bool {
	for _, item := range slice {
		if item == key {
			return true
		}
	}
	return false
}
