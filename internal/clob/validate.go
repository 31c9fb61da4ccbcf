package clob

import (
	"strings"
	"unicode"

	apierrors "github.com/sengkeat-dex/orderbook-svc/pkg/errors"
)

// CreateOrderRequest is the raw, unvalidated submission (§4.1 input).
type CreateOrderRequest struct {
	TraderID   string
	BaseToken  string
	QuoteToken string
	Side       string
	OrderType  string
	Price      *uint64
	Quantity   uint64
}

// ValidatedCreateOrder is what a request becomes once it has passed every
// §4.1 rule. It carries no pointer back to the raw request.
type ValidatedCreateOrder struct {
	Trader   string
	Pair     TradingPair
	Side     Side
	Type     OrderType
	Price    *uint64
	Quantity uint64
}

// ValidateCreateOrder applies §4.1 in order, rejecting on the first
// violation. It is side-effect free.
func ValidateCreateOrder(req CreateOrderRequest) (ValidatedCreateOrder, error) {
	trader := strings.TrimSpace(req.TraderID)
	if len(trader) < 3 || len(trader) > 64 || !isVisibleASCII(trader) {
		return ValidatedCreateOrder{}, apierrors.New(apierrors.CodeValidation, "trader_id must be 3-64 visible ASCII characters")
	}

	base := strings.TrimSpace(req.BaseToken)
	quote := strings.TrimSpace(req.QuoteToken)
	if !symbolPattern.MatchString(base) {
		return ValidatedCreateOrder{}, apierrors.New(apierrors.CodeValidation, "base_token must be 2-16 chars of [A-Za-z0-9_-]")
	}
	if !symbolPattern.MatchString(quote) {
		return ValidatedCreateOrder{}, apierrors.New(apierrors.CodeValidation, "quote_token must be 2-16 chars of [A-Za-z0-9_-]")
	}
	if base == quote {
		return ValidatedCreateOrder{}, apierrors.New(apierrors.CodeValidation, "base_token and quote_token must differ")
	}

	var side Side
	switch strings.ToLower(req.Side) {
	case "buy":
		side = Buy
	case "sell":
		side = Sell
	default:
		return ValidatedCreateOrder{}, apierrors.New(apierrors.CodeValidation, `side must be "buy" or "sell"`)
	}

	var orderType OrderType
	switch strings.ToLower(req.OrderType) {
	case "limit":
		orderType = Limit
	case "market":
		orderType = Market
	default:
		return ValidatedCreateOrder{}, apierrors.New(apierrors.CodeValidation, `order_type must be "limit" or "market"`)
	}

	if req.Quantity == 0 {
		return ValidatedCreateOrder{}, apierrors.New(apierrors.CodeValidation, "quantity must be greater than zero")
	}

	var price *uint64
	switch orderType {
	case Limit:
		if req.Price == nil || *req.Price == 0 {
			return ValidatedCreateOrder{}, apierrors.New(apierrors.CodeValidation, "limit orders require a positive price")
		}
		p := *req.Price
		price = &p
	case Market:
		if req.Price != nil && *req.Price == 0 {
			return ValidatedCreateOrder{}, apierrors.New(apierrors.CodeValidation, "market orders must omit price, not send zero")
		}
		price = nil
	}

	return ValidatedCreateOrder{
		Trader:   trader,
		Pair:     TradingPair{Base: base, Quote: quote},
		Side:     side,
		Type:     orderType,
		Price:    price,
		Quantity: req.Quantity,
	}, nil
}

func isVisibleASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || r == ' ' {
			return false
		}
	}
	return true
}
