package api

import "github.com/sengkeat-dex/orderbook-svc/internal/clob"

// createOrderRequest is the JSON body for POST /orderbook/orders (§6). gin
// binding tags catch shape; internal/clob.ValidateCreateOrder re-checks the
// domain semantics gin's tags can't express (cross-field price rules).
type createOrderRequest struct {
	TraderID   string  `json:"trader_id" binding:"required"`
	BaseToken  string  `json:"base_token" binding:"required,tradesymbol"`
	QuoteToken string  `json:"quote_token" binding:"required,tradesymbol"`
	Side       string  `json:"side" binding:"required,orderside"`
	OrderType  string  `json:"order_type" binding:"required,ordertype"`
	Price      *uint64 `json:"price"`
	Quantity   uint64  `json:"quantity" binding:"required"`
}

func (r createOrderRequest) toClob() clob.CreateOrderRequest {
	return clob.CreateOrderRequest{
		TraderID:   r.TraderID,
		BaseToken:  r.BaseToken,
		QuoteToken: r.QuoteToken,
		Side:       r.Side,
		OrderType:  r.OrderType,
		Price:      r.Price,
		Quantity:   r.Quantity,
	}
}

// createOrderResponse is the 2xx body for POST /orderbook/orders.
type createOrderResponse struct {
	OrderID            uint64 `json:"order_id"`
	Success            bool   `json:"success"`
	Message            string `json:"message,omitempty"`
	ExecutedTradeCount int    `json:"executed_trade_count"`
}

// pricesResponse is the 2xx body for GET /orderbook/prices.
type pricesResponse struct {
	BestBid *uint64 `json:"best_bid,omitempty"`
	BestAsk *uint64 `json:"best_ask,omitempty"`
}

// depthLevelResponse is one row of a depthResponse side.
type depthLevelResponse struct {
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// depthResponse mirrors clob.DepthSnapshot field-for-field (§3 DepthSnapshot).
type depthResponse struct {
	BaseToken  string               `json:"base_token"`
	QuoteToken string               `json:"quote_token"`
	Bids       []depthLevelResponse `json:"bids"`
	Asks       []depthLevelResponse `json:"asks"`
	BestBid    *uint64              `json:"best_bid,omitempty"`
	BestAsk    *uint64              `json:"best_ask,omitempty"`
	Timestamp  int64                `json:"timestamp"`
}

func toDepthResponse(snap clob.DepthSnapshot) depthResponse {
	resp := depthResponse{
		BaseToken:  snap.Pair.Base,
		QuoteToken: snap.Pair.Quote,
		BestBid:    snap.BestBid,
		BestAsk:    snap.BestAsk,
		Timestamp:  snap.Timestamp,
	}
	resp.Bids = make([]depthLevelResponse, 0, len(snap.Bids))
	for _, l := range snap.Bids {
		resp.Bids = append(resp.Bids, depthLevelResponse{Price: l.Price, Quantity: l.Quantity})
	}
	resp.Asks = make([]depthLevelResponse, 0, len(snap.Asks))
	for _, l := range snap.Asks {
		resp.Asks = append(resp.Asks, depthLevelResponse{Price: l.Price, Quantity: l.Quantity})
	}
	return resp
}

// tradeResponse mirrors clob.Trade field-for-field (§3 Trade, §6 TradeResponse).
type tradeResponse struct {
	ID           uint64 `json:"id"`
	MakerOrderID uint64 `json:"maker_order_id"`
	TakerOrderID uint64 `json:"taker_order_id"`
	BaseToken    string `json:"base_token"`
	QuoteToken   string `json:"quote_token"`
	Price        uint64 `json:"price"`
	Quantity     uint64 `json:"quantity"`
	Timestamp    int64  `json:"timestamp"`
}

func toTradeResponse(t clob.Trade) tradeResponse {
	return tradeResponse{
		ID:           t.ID,
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		BaseToken:    t.Pair.Base,
		QuoteToken:   t.Pair.Quote,
		Price:        t.Price,
		Quantity:     t.Quantity,
		Timestamp:    t.Timestamp,
	}
}

// tradesResponse is the 2xx body for both trade-history endpoints (§6).
type tradesResponse struct {
	Trades  []tradeResponse `json:"trades"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
}

// sharedSecretTokenRequest is the JSON body for POST /auth/token/shared (§6).
type sharedSecretTokenRequest struct {
	TraderID   string `json:"trader_id" binding:"required"`
	Secret     string `json:"secret" binding:"required"`
	TTLSeconds int64  `json:"ttl_seconds"`
	Audience   string `json:"audience"`
}

// challengeRequest is the JSON body for POST /auth/challenge (§6).
type challengeRequest struct {
	Address string `json:"address" binding:"required"`
}

// challengeResponse is the 2xx body for POST /auth/challenge (§6).
type challengeResponse struct {
	Challenge string `json:"challenge"`
	ExpiresAt int64  `json:"expires_at"`
}

// walletTokenRequest is the JSON body for POST /auth/token/wallet (§6).
type walletTokenRequest struct {
	Address    string `json:"address" binding:"required"`
	Signature  string `json:"signature" binding:"required"`
	TTLSeconds int64  `json:"ttl_seconds"`
	Audience   string `json:"audience"`
}

// tokenResponse is the 2xx body for every token-issuance endpoint (§6).
type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
