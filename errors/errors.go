package errors

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Code is a stable, machine-readable classification of a failure. The set is
// closed: every raw error crossing the engine boundary maps to exactly one.
type Code string

const (
	CodeInsufficientBalance       Code = "INSUFFICIENT_BALANCE"
	CodeInsufficientCollateral    Code = "INSUFFICIENT_COLLATERAL"
	CodeAssetNotSupported         Code = "ASSET_NOT_SUPPORTED"
	CodeBorrowingNotEnabled       Code = "BORROWING_NOT_ENABLED"
	CodeStableBorrowingNotEnabled Code = "STABLE_BORROWING_NOT_ENABLED"
	CodeHealthFactorTooLow        Code = "HEALTH_FACTOR_TOO_LOW"
	CodeTransactionFailed         Code = "TRANSACTION_FAILED"
	CodeInvalidParameters         Code = "INVALID_PARAMETERS"
	CodeAmountTooHigh             Code = "AMOUNT_TOO_HIGH"
	CodeReserveFrozen             Code = "RESERVE_FROZEN"
	CodeReserveInactive           Code = "RESERVE_INACTIVE"
	CodePoolPaused                Code = "POOL_PAUSED"
	CodeDataFetchFailed           Code = "DATA_FETCH_FAILED"
	CodeUnknown                   Code = "UNKNOWN"
)

// Severity drives logging only, never control flow.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
	SeverityInfo  Severity = "info"
)

// ZapLevel maps a severity onto the engine's logger levels.
func (s Severity) ZapLevel() zapcore.Level {
	switch s {
	case SeverityInfo:
		return zapcore.InfoLevel
	case SeverityWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// Record is a classified failure. It carries both the user-facing message and
// the raw technical one; the raw message is never returned on its own.
type Record struct {
	Code           Code              `json:"code"`
	Message        string            `json:"message"`
	Technical      string            `json:"technical"`
	Retryable      bool              `json:"retryable"`
	Severity       Severity          `json:"severity"`
	Recovery       string            `json:"recovery,omitempty"`
	RecoveryDetail string            `json:"recovery_detail,omitempty"`
	Context        map[string]string `json:"context,omitempty"`

	cause error
}

func (r *Record) Error() string {
	if r.cause == nil {
		return fmt.Sprintf("%s: %s", r.Code, r.Message)
	}
	return fmt.Sprintf("%s: %s: %v", r.Code, r.Message, r.cause)
}

func (r *Record) Unwrap() error { return r.cause }

// As extracts a Record from an error chain.
func As(err error) (*Record, bool) {
	var target *Record
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// New builds a Record directly, for failures the engine raises itself rather
// than observes (missing data, bad arguments).
func New(code Code, message string, ctx Context) *Record {
	return &Record{
		Code:      code,
		Message:   message,
		Technical: message,
		Retryable: defaultRetryable(code),
		Severity:  defaultSeverity(code),
		Context:   ctx.Fields(),
	}
}

// Wrap is New with a preserved cause.
func Wrap(code Code, message string, cause error, ctx Context) *Record {
	r := New(code, message, ctx)
	r.cause = cause
	if cause != nil {
		r.Technical = cause.Error()
	}
	return r
}

// LogTo emits the record at the level its severity maps to.
func (r *Record) LogTo(log *zap.Logger) {
	if log == nil {
		return
	}
	fields := make([]zap.Field, 0, len(r.Context)+3)
	fields = append(fields,
		zap.String("code", string(r.Code)),
		zap.Bool("retryable", r.Retryable),
		zap.String("technical", r.Technical),
	)
	keys := make([]string, 0, len(r.Context))
	for k := range r.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.String(k, r.Context[k]))
	}
	log.Log(r.Severity.ZapLevel(), r.Message, fields...)
}

func defaultSeverity(code Code) Severity {
	switch code {
	case CodeInsufficientBalance, CodeInsufficientCollateral, CodeHealthFactorTooLow, CodeAmountTooHigh:
		return SeverityInfo
	case CodeInvalidParameters, CodeAssetNotSupported, CodeBorrowingNotEnabled,
		CodeStableBorrowingNotEnabled, CodeReserveFrozen, CodeReserveInactive, CodePoolPaused:
		return SeverityWarn
	default:
		return SeverityError
	}
}

func defaultRetryable(code Code) bool {
	switch code {
	case CodeDataFetchFailed, CodeUnknown:
		return true
	default:
		return false
	}
}
