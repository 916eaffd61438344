package errors

import (
	stderrors "errors"
	"maps"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain tags ErrorInfo details produced by the ledger.
const Domain = "github.com/louisbranch/stakedrop"

// Error carries a stable code alongside an internal message.
//
// Metadata values fill the placeholders of the localized message for Code.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same code, so sentinel values such as
// New(CodeRosterFull, "") work with errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Code == e.Code
}

// New returns an error without metadata or cause.
func New(code Code, message string) *Error {
	return build(code, message, nil, nil)
}

// WithMetadata returns an error whose metadata feeds message templating.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return build(code, message, metadata, nil)
}

// Wrap returns an error that records cause.
func Wrap(code Code, message string, cause error) *Error {
	return build(code, message, nil, cause)
}

// WrapWithMetadata combines WithMetadata and Wrap.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return build(code, message, metadata, cause)
}

func build(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{Code: code, Message: message, Metadata: maps.Clone(metadata), Cause: cause}
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if !stderrors.As(err, &target) {
		return nil, false
	}
	return target, true
}

// CodeOf reports the code of err, or CodeUnknown when err carries none.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeUnknown
}

// ToGRPCStatus renders e as a status error. The status message keeps the
// internal text; userMessage travels in a LocalizedMessage detail next to an
// ErrorInfo holding the code and metadata.
func (e *Error) ToGRPCStatus(locale string, userMessage string) error {
	base := status.New(e.Code.GRPCCode(), e.Error())
	detailed, err := base.WithDetails(
		&errdetails.ErrorInfo{Reason: string(e.Code), Domain: Domain, Metadata: e.Metadata},
		&errdetails.LocalizedMessage{Locale: locale, Message: userMessage},
	)
	if err != nil {
		return base.Err()
	}
	return detailed.Err()
}

// FromGRPCStatus recovers the ledger error encoded in st, or nil when st has
// no ErrorInfo from this domain.
func FromGRPCStatus(st *status.Status) *Error {
	if st == nil {
		return nil
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == Domain {
			return build(Code(info.GetReason()), st.Message(), info.GetMetadata(), nil)
		}
	}
	return nil
}
