package errors

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ggonzalez94/lend-risk/model"
)

// Operations that require an explicit rate mode. Borrow-shaped calls must
// never fall back to a silent default.
var rateModeOps = map[string]bool{
	"borrow":        true,
	"repay":         true,
	"swapRateMode":  true,
	"rebalanceRate": true,
}

// Context is the operation metadata attached to every classified failure.
// Build it at the start of an operation and thread it through.
type Context struct {
	Operation     string
	CorrelationID string

	Asset    common.Address
	Symbol   string
	Amount   decimal.Decimal
	RateMode model.RateMode
	User     common.Address
	TxHash   common.Hash

	hasAsset  bool
	hasAmount bool
	hasUser   bool
	hasTx     bool
}

func NewContext(operation string) Context {
	return Context{
		Operation:     operation,
		CorrelationID: uuid.NewString(),
	}
}

func (c Context) WithAsset(asset common.Address, symbol string) Context {
	c.Asset = asset
	c.Symbol = symbol
	c.hasAsset = true
	return c
}

func (c Context) WithAmount(amount decimal.Decimal) Context {
	c.Amount = amount
	c.hasAmount = true
	return c
}

func (c Context) WithRateMode(mode model.RateMode) Context {
	c.RateMode = mode
	return c
}

func (c Context) WithUser(user common.Address) Context {
	c.User = user
	c.hasUser = true
	return c
}

func (c Context) WithTxHash(h common.Hash) Context {
	c.TxHash = h
	c.hasTx = true
	return c
}

// Validate rejects contexts that rely on implicit defaults: borrow-shaped
// operations must carry a valid rate mode, amounts must be non-negative.
func (c Context) Validate() *Record {
	if rateModeOps[c.Operation] && !c.RateMode.Valid() {
		return New(CodeInvalidParameters, "rate mode must be stable or variable", c)
	}
	if c.RateMode != "" && !c.RateMode.Valid() {
		return New(CodeInvalidParameters, "unrecognized rate mode", c)
	}
	if c.hasAmount && c.Amount.IsNegative() {
		return New(CodeInvalidParameters, "amount must be non-negative", c)
	}
	return nil
}

// Fields flattens the context into the Record's string map. Unset optional
// fields are omitted so identical inputs produce identical maps.
func (c Context) Fields() map[string]string {
	out := map[string]string{}
	if c.Operation != "" {
		out["operation"] = c.Operation
	}
	if c.CorrelationID != "" {
		out["correlation_id"] = c.CorrelationID
	}
	if c.hasAsset {
		out["asset"] = c.Asset.Hex()
	}
	if c.Symbol != "" {
		out["symbol"] = c.Symbol
	}
	if c.hasAmount {
		out["amount"] = c.Amount.String()
	}
	if c.RateMode != "" {
		out["rate_mode"] = string(c.RateMode)
	}
	if c.hasUser {
		out["user"] = c.User.Hex()
	}
	if c.hasTx {
		out["tx_hash"] = c.TxHash.Hex()
	}
	return out
}
