package clob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/sengkeat-dex/orderbook-svc/pkg/errors"
)

func validRequest() CreateOrderRequest {
	p := uint64(1000)
	return CreateOrderRequest{
		TraderID:   "alice",
		BaseToken:  "ETH",
		QuoteToken: "USDC",
		Side:       "buy",
		OrderType:  "limit",
		Price:      &p,
		Quantity:   10,
	}
}

func TestValidateCreateOrder_Valid(t *testing.T) {
	v, err := ValidateCreateOrder(validRequest())
	require.NoError(t, err)
	assert.Equal(t, "alice", v.Trader)
	assert.Equal(t, TradingPair{Base: "ETH", Quote: "USDC"}, v.Pair)
	assert.Equal(t, Buy, v.Side)
	assert.Equal(t, Limit, v.Type)
}

func TestValidateCreateOrder_ZeroQuantityRejected(t *testing.T) {
	req := validRequest()
	req.Quantity = 0
	_, err := ValidateCreateOrder(req)
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.CodeValidation))
}

func TestValidateCreateOrder_ZeroPriceOnLimitRejected(t *testing.T) {
	req := validRequest()
	zero := uint64(0)
	req.Price = &zero
	_, err := ValidateCreateOrder(req)
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.CodeValidation))
}

func TestValidateCreateOrder_NilPriceOnLimitRejected(t *testing.T) {
	req := validRequest()
	req.Price = nil
	_, err := ValidateCreateOrder(req)
	require.Error(t, err)
}

func TestValidateCreateOrder_IdenticalBaseQuoteRejected(t *testing.T) {
	req := validRequest()
	req.QuoteToken = req.BaseToken
	_, err := ValidateCreateOrder(req)
	require.Error(t, err)
}

func TestValidateCreateOrder_DifferentCaseTokensAcceptedAsDistinctPairs(t *testing.T) {
	req := validRequest()
	req.BaseToken = "ETH"
	req.QuoteToken = "eth"
	v, err := ValidateCreateOrder(req)
	require.NoError(t, err)
	assert.Equal(t, TradingPair{Base: "ETH", Quote: "eth"}, v.Pair)
}

func TestValidateCreateOrder_MarketOrderOmitsPrice(t *testing.T) {
	req := validRequest()
	req.OrderType = "market"
	req.Price = nil
	v, err := ValidateCreateOrder(req)
	require.NoError(t, err)
	assert.Nil(t, v.Price)
}

func TestValidateCreateOrder_MarketOrderRejectsExplicitZeroPrice(t *testing.T) {
	req := validRequest()
	req.OrderType = "market"
	zero := uint64(0)
	req.Price = &zero
	_, err := ValidateCreateOrder(req)
	require.Error(t, err)
}

func TestValidateCreateOrder_MarketOrderAllowsPositivePriceHintButDiscardsIt(t *testing.T) {
	req := validRequest()
	req.OrderType = "market"
	v, err := ValidateCreateOrder(req)
	require.NoError(t, err)
	assert.Nil(t, v.Price)
}

func TestValidateCreateOrder_InvalidSymbolRejected(t *testing.T) {
	req := validRequest()
	req.BaseToken = "e"
	_, err := ValidateCreateOrder(req)
	require.Error(t, err)
}

func TestValidateCreateOrder_InvalidSideRejected(t *testing.T) {
	req := validRequest()
	req.Side = "long"
	_, err := ValidateCreateOrder(req)
	require.Error(t, err)
}

func TestValidateCreateOrder_TraderIDTooShortRejected(t *testing.T) {
	req := validRequest()
	req.TraderID = "ab"
	_, err := ValidateCreateOrder(req)
	require.Error(t, err)
}
