package scan

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Result is what the host's scan callback delivered: either decoded text or
// an error.
type Result struct {
	DecodedText string
	Err         error
}

// OutcomeKind classifies an interpreted scan.
type OutcomeKind int

const (
	// OutcomeNone means the callback carried neither text nor an error.
	OutcomeNone OutcomeKind = iota
	OutcomeAvailable
	OutcomeUnavailable
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAvailable:
		return "available"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

// Outcome is the interpreted scan: what the session should do and the
// transient message to show.
type Outcome struct {
	Kind    OutcomeKind
	Box     int
	Code    ErrorCode
	Message string
}

// Interpreter turns scan results into outcomes.
type Interpreter struct {
	source Source
	locale Locale
	logger *zap.Logger
}

// NewInterpreter creates an Interpreter. A nil logger disables logging.
func NewInterpreter(source Source, locale Locale, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{source: source, locale: locale, logger: logger}
}

// Locale returns the message locale in use.
func (i *Interpreter) Locale() Locale {
	return i.locale
}

// Interpret maps a scan result to an outcome. Errors never escape: they come
// back as OutcomeFailed with a localized message.
func (i *Interpreter) Interpret(ctx context.Context, r Result) Outcome {
	if r.Err != nil {
		code := codeOf(r.Err)
		i.logger.Info("scan failed", zap.Int("code", int(code)), zap.Error(r.Err))
		return i.failed(code)
	}
	if r.DecodedText == "" {
		return Outcome{Kind: OutcomeNone}
	}

	avail, err := i.source.Lookup(ctx, r.DecodedText)
	if err != nil {
		i.logger.Warn("availability lookup failed", zap.String("payload", r.DecodedText), zap.Error(err))
		return i.failed(CodeInternalError)
	}

	out := Outcome{Box: avail.Box, Message: SuccessMessage(r.DecodedText, i.locale)}
	if avail.Available {
		out.Kind = OutcomeAvailable
	} else {
		out.Kind = OutcomeUnavailable
	}
	return out
}

func (i *Interpreter) failed(code ErrorCode) Outcome {
	return Outcome{Kind: OutcomeFailed, Code: code, Message: ErrorMessage(code, i.locale)}
}

func codeOf(err error) ErrorCode {
	var sdkErr *SDKError
	if errors.As(err, &sdkErr) {
		return sdkErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeOperationTimedOut
	}
	if errors.Is(err, context.Canceled) {
		return CodeUserCancelled
	}
	return CodeInternalError
}
