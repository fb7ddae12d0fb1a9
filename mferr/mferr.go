// Package mferr defines the error kinds the media pipeline surfaces at its
// public boundary (spec §7). Every kind is a concrete, comparable struct
// implementing error, composed with the standard library's errors.Is/As via
// Unwrap where a kind wraps a cause. None of these are ever thrown as a
// panic; panics are reserved for Buffer cursor invariant violations, which
// indicate a programming error rather than a pipeline-level failure.
package mferr

import "fmt"

// OperatorKind names the category of operator a NoOperator error refers to.
type OperatorKind string

const (
	KindReader       OperatorKind = "reader"
	KindStreamReader OperatorKind = "stream-reader"
	KindWriter       OperatorKind = "writer"
	KindStreamWriter OperatorKind = "stream-writer"
)

type (
	// NoOperator reports that no reader, writer, stream-reader, or
	// stream-writer accepted the requested target type.
	NoOperator struct {
		Kind   OperatorKind
		Target string
	}

	// TransformationFailed wraps any error raised by an operator or filter.
	// Per spec §4.5/§4.6, wrapping is skipped when Cause is already an
	// IllegalArgument: that case propagates the IllegalArgument verbatim
	// instead of being wrapped here.
	TransformationFailed struct {
		Cause error
	}

	// CharsetInvalid reports that the charset named by a Content-Type
	// parameter (or an explicit override) is malformed or unsupported.
	CharsetInvalid struct {
		Name string
	}

	// NoAcceptedContentType reports that a WriterContext could not
	// reconcile the Accept header with any configured writer or default.
	NoAcceptedContentType struct{}

	// AlreadyConsumed reports a second subscription, or a second As/AsStream
	// call, on a single-shot ReadableContent.
	AlreadyConsumed struct{}

	// IllegalArgument reports a caller programming error — a nil value, an
	// unknown "by class"/"by qualifier" target, or similar. Unlike the other
	// kinds, IllegalArgument is never wrapped in TransformationFailed. It is
	// delivered like the other kinds, as a failed Single/Multi; no pipeline
	// method raises it synchronously at the call site.
	IllegalArgument struct {
		Message string
	}
)

// ErrBlockTimeout is returned by Single.Block when the supplied deadline
// elapses before an item, error, or completion arrives.
var ErrBlockTimeout = blockTimeout{}

type blockTimeout struct{}

func (blockTimeout) Error() string { return "mediaflow: block timeout exceeded" }

func (e NoOperator) Error() string {
	return fmt.Sprintf("mediaflow: no %s accepts %s", e.Kind, e.Target)
}

func (e TransformationFailed) Error() string {
	return fmt.Sprintf("mediaflow: transformation failed: %v", e.Cause)
}

func (e TransformationFailed) Unwrap() error { return e.Cause }

func (e CharsetInvalid) Error() string {
	return fmt.Sprintf("mediaflow: invalid charset %q", e.Name)
}

func (NoAcceptedContentType) Error() string {
	return "mediaflow: no accepted content type could be negotiated"
}

func (AlreadyConsumed) Error() string {
	return "mediaflow: content has already been consumed"
}

func (e IllegalArgument) Error() string {
	return fmt.Sprintf("mediaflow: illegal argument: %s", e.Message)
}

// Wrap builds a TransformationFailed from cause, except when cause is
// already an IllegalArgument (or wraps one), in which case cause is
// returned unchanged so it propagates verbatim per spec §4.5 step 5 and
// §4.6 step 5.
func Wrap(cause error) error {
	if cause == nil {
		return nil
	}
	var ia IllegalArgument
	if asIllegalArgument(cause, &ia) {
		return cause
	}
	return TransformationFailed{Cause: cause}
}

func asIllegalArgument(err error, target *IllegalArgument) bool {
	for err != nil {
		if ia, ok := err.(IllegalArgument); ok { //nolint:errorlint // concrete-kind check, not general errors.As chain
			*target = ia
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
