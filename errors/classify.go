package errors

import (
	"context"
	"errors"
	"strings"
)

// matchKind tags where in the precedence order a rule sits. The table below
// is scanned top to bottom and the first rule whose needles all appear in the
// lowercased raw message wins.
type matchKind string

const (
	matchRevert    matchKind = "revert"
	matchNetwork   matchKind = "network"
	matchGas       matchKind = "gas"
	matchHeuristic matchKind = "heuristic"
)

type rule struct {
	kind matchKind
	// needles must all be present, case-insensitive.
	needles []string

	code           Code
	message        string
	recovery       string
	recoveryDetail string
	retryable      bool
	severity       Severity
}

// ruleTable is the explicit, ordered classification table. Known protocol
// revert reasons come first, then transport faults, then gas execution
// faults, then loose heuristics. Overlaps are deliberate and pinned by
// tests: "insufficient collateral" must hit the collateral rule before the
// generic "insufficient" balance rule ever sees it.
var ruleTable = []rule{
	// 1. Exact protocol revert reasons.
	{
		kind: matchRevert, needles: []string{"collateral cannot cover new borrow"},
		code: CodeInsufficientCollateral, severity: SeverityInfo,
		message:  "Your collateral does not cover this borrow.",
		recovery: "add collateral", recoveryDetail: "Supply more collateral or request a smaller amount.",
	},
	{
		kind: matchRevert, needles: []string{"health factor lower than the liquidation threshold"},
		code: CodeHealthFactorTooLow, severity: SeverityInfo,
		message:  "This action would push your health factor below the liquidation threshold.",
		recovery: "add collateral or reduce debt", recoveryDetail: "Supply more collateral or repay part of your debt first.",
	},
	{
		kind: matchRevert, needles: []string{"borrowing is not enabled"},
		code: CodeBorrowingNotEnabled, severity: SeverityWarn,
		message:  "Borrowing is not enabled for this asset.",
		recovery: "choose another asset",
	},
	{
		kind: matchRevert, needles: []string{"stable borrowing is not enabled"},
		code: CodeStableBorrowingNotEnabled, severity: SeverityWarn,
		message:  "Stable-rate borrowing is not enabled for this asset.",
		recovery: "use variable rate", recoveryDetail: "Retry the borrow with the variable rate mode.",
	},
	{
		kind: matchRevert, needles: []string{"reserve is frozen"},
		code: CodeReserveFrozen, severity: SeverityWarn,
		message:  "This reserve is frozen; only withdrawals and repayments are allowed.",
		recovery: "choose another asset",
	},
	{
		kind: matchRevert, needles: []string{"reserve is paused"},
		code: CodePoolPaused, severity: SeverityWarn,
		message:  "This reserve is paused by governance.",
		recovery: "wait and retry later",
	},
	{
		kind: matchRevert, needles: []string{"reserve is inactive"},
		code: CodeReserveInactive, severity: SeverityWarn,
		message:  "This reserve is not active.",
		recovery: "choose another asset",
	},
	{
		kind: matchRevert, needles: []string{"amount must be greater than 0"},
		code: CodeInvalidParameters, severity: SeverityWarn,
		message:  "The amount must be greater than zero.",
		recovery: "adjust the amount",
	},
	{
		kind: matchRevert, needles: []string{"borrow cap is exceeded"},
		code: CodeAmountTooHigh, severity: SeverityInfo,
		message:  "The borrow cap for this asset would be exceeded.",
		recovery: "reduce the amount",
	},
	{
		kind: matchRevert, needles: []string{"supply cap is exceeded"},
		code: CodeAmountTooHigh, severity: SeverityInfo,
		message:  "The supply cap for this asset would be exceeded.",
		recovery: "reduce the amount",
	},
	{
		kind: matchRevert, needles: []string{"asset is not listed"},
		code: CodeAssetNotSupported, severity: SeverityWarn,
		message:  "This asset is not listed on the protocol.",
		recovery: "choose a supported asset",
	},

	// 2. Network and transport faults.
	{
		kind: matchNetwork, needles: []string{"timeout"},
		code: CodeDataFetchFailed, retryable: true, severity: SeverityError,
		message:  "The data provider timed out.",
		recovery: "retry", recoveryDetail: "Transient network issue; retrying usually succeeds.",
	},
	{
		kind: matchNetwork, needles: []string{"timed out"},
		code: CodeDataFetchFailed, retryable: true, severity: SeverityError,
		message:  "The data provider timed out.",
		recovery: "retry",
	},
	{
		kind: matchNetwork, needles: []string{"deadline exceeded"},
		code: CodeDataFetchFailed, retryable: true, severity: SeverityError,
		message:  "The data provider timed out.",
		recovery: "retry", recoveryDetail: "Transient network issue; retrying usually succeeds.",
	},
	{
		kind: matchNetwork, needles: []string{"context canceled"},
		code: CodeDataFetchFailed, retryable: true, severity: SeverityError,
		message:  "The request was canceled before the data arrived.",
		recovery: "retry",
	},
	{
		kind: matchNetwork, needles: []string{"connection refused"},
		code: CodeDataFetchFailed, retryable: true, severity: SeverityError,
		message:  "Could not reach the data provider.",
		recovery: "retry",
	},
	{
		kind: matchNetwork, needles: []string{"connection reset"},
		code: CodeDataFetchFailed, retryable: true, severity: SeverityError,
		message:  "The connection was reset while fetching data.",
		recovery: "retry",
	},
	{
		kind: matchNetwork, needles: []string{"no such host"},
		code: CodeDataFetchFailed, retryable: true, severity: SeverityError,
		message:  "The data provider host could not be resolved.",
		recovery: "retry", recoveryDetail: "Check connectivity if this persists.",
	},
	{
		kind: matchNetwork, needles: []string{"rate limit"},
		code: CodeDataFetchFailed, retryable: true, severity: SeverityError,
		message:  "The data provider is rate limiting requests.",
		recovery: "retry later",
	},
	{
		kind: matchNetwork, needles: []string{"nonce too low"},
		code: CodeTransactionFailed, retryable: true, severity: SeverityError,
		message:  "The transaction nonce was already used.",
		recovery: "retry", recoveryDetail: "A replacement will be built with a fresh nonce.",
	},
	{
		kind: matchNetwork, needles: []string{"replacement transaction underpriced"},
		code: CodeTransactionFailed, retryable: true, severity: SeverityError,
		message:  "The replacement transaction was underpriced.",
		recovery: "retry with a higher gas price",
	},
	{
		kind: matchNetwork, needles: []string{"insufficient funds for gas"},
		code: CodeInsufficientBalance, severity: SeverityInfo,
		message:  "Your wallet does not hold enough native token to pay for gas.",
		recovery: "top up gas", recoveryDetail: "Add native token to the wallet and retry.",
	},

	// 3. Gas execution faults.
	{
		kind: matchGas, needles: []string{"out of gas"},
		code: CodeTransactionFailed, retryable: true, severity: SeverityError,
		message:  "The transaction ran out of gas.",
		recovery: "retry with a higher gas limit",
	},
	{
		kind: matchGas, needles: []string{"invalid opcode"},
		code: CodeTransactionFailed, severity: SeverityError,
		message:  "The transaction hit an invalid opcode.",
		recovery: "report the issue", recoveryDetail: "This usually indicates a contract-level fault.",
	},
	{
		kind: matchGas, needles: []string{"execution reverted"},
		code: CodeTransactionFailed, severity: SeverityError,
		message:  "The transaction was reverted by the protocol.",
		recovery: "check the parameters and retry",
	},

	// 4. Loose heuristics. The compound collateral rule sits above the
	// balance one on purpose: both match "insufficient".
	{
		kind: matchHeuristic, needles: []string{"insufficient", "collateral"},
		code: CodeInsufficientCollateral, severity: SeverityInfo,
		message:  "Your collateral is not sufficient for this action.",
		recovery: "add collateral",
	},
	{
		kind: matchHeuristic, needles: []string{"insufficient", "balance"},
		code: CodeInsufficientBalance, severity: SeverityInfo,
		message:  "Your balance is not sufficient for this action.",
		recovery: "reduce the amount",
	},
	{
		kind: matchHeuristic, needles: []string{"insufficient", "funds"},
		code: CodeInsufficientBalance, severity: SeverityInfo,
		message:  "Your balance is not sufficient for this action.",
		recovery: "reduce the amount",
	},
	{
		kind: matchHeuristic, needles: []string{"health factor"},
		code: CodeHealthFactorTooLow, severity: SeverityInfo,
		message:  "Your health factor is too low for this action.",
		recovery: "add collateral or reduce debt", recoveryDetail: "Supply more collateral or repay part of your debt first.",
	},
	{
		kind: matchHeuristic, needles: []string{"frozen"},
		code: CodeReserveFrozen, severity: SeverityWarn,
		message:  "This reserve is frozen.",
		recovery: "choose another asset",
	},
	{
		kind: matchHeuristic, needles: []string{"paused"},
		code: CodePoolPaused, severity: SeverityWarn,
		message:  "The pool is paused.",
		recovery: "wait and retry later",
	},
	{
		kind: matchHeuristic, needles: []string{"stable", "not enabled"},
		code: CodeStableBorrowingNotEnabled, severity: SeverityWarn,
		message:  "Stable-rate borrowing is not enabled for this asset.",
		recovery: "use variable rate",
	},
	{
		kind: matchHeuristic, needles: []string{"not supported"},
		code: CodeAssetNotSupported, severity: SeverityWarn,
		message:  "This asset is not supported.",
		recovery: "choose a supported asset",
	},
	{
		kind: matchHeuristic, needles: []string{"exceeds", "cap"},
		code: CodeAmountTooHigh, severity: SeverityInfo,
		message:  "The amount exceeds a protocol cap.",
		recovery: "reduce the amount",
	},
}

// Classify maps a raw failure onto the closed code set. It is a pure
// function: the same error and context always produce the same Record. A
// Record that already went through classification is returned with the
// context merged rather than re-matched.
func Classify(raw error, ctx Context) *Record {
	if raw == nil {
		return nil
	}
	if rec, ok := As(raw); ok {
		return withContext(rec, ctx)
	}
	// Context cancellation carries no protocol message; match it by identity
	// so a wrapped ctx.Err() cannot fall through to the unknown bucket.
	if errors.Is(raw, context.DeadlineExceeded) {
		return ClassifyMessage(context.DeadlineExceeded.Error(), raw, ctx)
	}
	if errors.Is(raw, context.Canceled) {
		return ClassifyMessage(context.Canceled.Error(), raw, ctx)
	}
	return ClassifyMessage(raw.Error(), raw, ctx)
}

// ClassifyMessage runs the rule table against a raw message.
func ClassifyMessage(msg string, cause error, ctx Context) *Record {
	lowered := strings.ToLower(msg)
	for _, r := range ruleTable {
		if !matchesAll(lowered, r.needles) {
			continue
		}
		return &Record{
			Code:           r.code,
			Message:        r.message,
			Technical:      msg,
			Retryable:      r.retryable,
			Severity:       r.severity,
			Recovery:       r.recovery,
			RecoveryDetail: r.recoveryDetail,
			Context:        ctx.Fields(),
			cause:          cause,
		}
	}

	// 5. Fallback: never surface a raw protocol string unmapped.
	return &Record{
		Code:           CodeUnknown,
		Message:        "Something went wrong while talking to the protocol.",
		Technical:      msg,
		Retryable:      true,
		Severity:       SeverityError,
		Recovery:       "retry later",
		RecoveryDetail: "If the problem persists, retry with smaller amounts or different parameters.",
		Context:        ctx.Fields(),
		cause:          cause,
	}
}

func withContext(rec *Record, ctx Context) *Record {
	merged := ctx.Fields()
	for k, v := range rec.Context {
		merged[k] = v
	}
	out := *rec
	out.Context = merged
	return &out
}

func matchesAll(lowered string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(lowered, n) {
			return false
		}
	}
	return true
}
