package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sengkeat-dex/orderbook-svc/internal/auth"
	"github.com/sengkeat-dex/orderbook-svc/internal/clob"
	"github.com/sengkeat-dex/orderbook-svc/internal/marketdata"
	"github.com/sengkeat-dex/orderbook-svc/internal/pipeline"
	apierrors "github.com/sengkeat-dex/orderbook-svc/pkg/errors"
)

const (
	defaultSnapshotLevels  = 10
	defaultStreamLevels    = 20
	defaultSharedSecretTTL = 0 // 0 means "use the service default"
)

// Handlers groups every HTTP entry point over the submission pipeline and
// auth service, following the teacher's *Handler-wraps-service-plus-logger
// construction (internal/api/handlers/order_handler.go).
type Handlers struct {
	pipeline    *pipeline.Pipeline
	auth        *auth.Service
	broadcaster *marketdata.Broadcaster
	logger      *zap.Logger
}

// NewHandlers builds the handler set.
func NewHandlers(p *pipeline.Pipeline, authSvc *auth.Service, broadcaster *marketdata.Broadcaster, logger *zap.Logger) *Handlers {
	return &Handlers{pipeline: p, auth: authSvc, broadcaster: broadcaster, logger: logger}
}

func pairFromQuery(c *gin.Context) (clob.TradingPair, error) {
	base := c.Query("base_token")
	quote := c.Query("quote_token")
	if base == "" || quote == "" {
		return clob.TradingPair{}, apierrors.New(apierrors.CodeValidation, "base_token and quote_token query parameters are required")
	}
	return clob.TradingPair{Base: base, Quote: quote}, nil
}

func levelsFromQuery(c *gin.Context, def int) int {
	raw := c.Query("levels")
	if raw == "" {
		return clob.ClampLevels(def)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return clob.ClampLevels(def)
	}
	return clob.ClampLevels(n)
}

func respondError(c *gin.Context, err error) {
	se, ok := apierrors.As(err)
	if !ok {
		se = apierrors.New(apierrors.CodeInternalError, "internal error")
	}
	c.AbortWithStatusJSON(se.HTTPStatus(), gin.H{"code": se.Code, "message": se.Message})
}

// CreateOrder handles POST /orderbook/orders (§4.8, §6).
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.Wrap(err, apierrors.CodeValidation, "malformed request body"))
		return
	}

	sub := auth.Subject(c)
	result, err := h.pipeline.Submit(c.Request.Context(), sub, req.toClob())
	if err != nil {
		h.logger.Warn("order submission failed", zap.Error(err), zap.String("trader_id", req.TraderID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createOrderResponse{
		OrderID:            result.OrderID,
		Success:            true,
		ExecutedTradeCount: result.ExecutedTradeCount,
	})
}

// CancelOrder handles the supplemented DELETE /orderbook/orders/{id} (§12).
func (h *Handlers) CancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apierrors.New(apierrors.CodeValidation, "id must be a positive integer"))
		return
	}

	pair, err := pairFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sub := auth.Subject(c)
	if err := h.pipeline.Cancel(c.Request.Context(), sub, pair, orderID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Prices handles GET /orderbook/prices (§6).
func (h *Handlers) Prices(c *gin.Context) {
	pair, err := pairFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	snap := h.pipeline.Depth(pair, 1)
	c.JSON(http.StatusOK, pricesResponse{BestBid: snap.BestBid, BestAsk: snap.BestAsk})
}

// Depth handles GET /orderbook/depth?levels=K (§4.9, §6).
func (h *Handlers) Depth(c *gin.Context) {
	pair, err := pairFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	levels := levelsFromQuery(c, defaultSnapshotLevels)
	snap := h.pipeline.Depth(pair, levels)
	c.JSON(http.StatusOK, toDepthResponse(snap))
}

// TradesForOrder handles GET /orderbook/orders/{id}/trades (§6).
func (h *Handlers) TradesForOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apierrors.New(apierrors.CodeValidation, "id must be a positive integer"))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	trades, err := h.pipeline.TradesForOrder(c.Request.Context(), orderID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tradesResponse{Trades: toTradeResponses(trades), Success: true})
}

// TradesForTrader handles GET /orderbook/traders/{id}/trades (§6), enforcing
// the sub == {id} authorization rule (§4.7).
func (h *Handlers) TradesForTrader(c *gin.Context) {
	traderID := c.Param("id")
	if auth.Subject(c) != traderID {
		respondError(c, apierrors.New(apierrors.CodeForbidden, "sub does not match requested trader id"))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	trades, err := h.pipeline.TradesForTrader(c.Request.Context(), traderID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tradesResponse{Trades: toTradeResponses(trades), Success: true})
}

func toTradeResponses(trades []clob.Trade) []tradeResponse {
	out := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeResponse(t))
	}
	return out
}

// IssueSharedSecretToken handles POST /auth/token/shared (§12).
func (h *Handlers) IssueSharedSecretToken(c *gin.Context) {
	var req sharedSecretTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.Wrap(err, apierrors.CodeValidation, "malformed request body"))
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	token, exp, err := h.auth.IssueSharedSecretToken(req.TraderID, req.Secret, ttl, req.Audience)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp.Unix()})
}

// IssueChallenge handles POST /auth/challenge (§12).
func (h *Handlers) IssueChallenge(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.Wrap(err, apierrors.CodeValidation, "malformed request body"))
		return
	}

	message, exp, err := h.auth.IssueChallenge(req.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challengeResponse{Challenge: message, ExpiresAt: exp.Unix()})
}

// IssueWalletToken handles POST /auth/token/wallet (§12).
func (h *Handlers) IssueWalletToken(c *gin.Context) {
	var req walletTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.Wrap(err, apierrors.CodeValidation, "malformed request body"))
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	token, exp, err := h.auth.IssueWalletToken(req.Address, req.Signature, ttl, req.Audience)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp.Unix()})
}
