package portfolio

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ErrorKind classifies a CoreError into the three families described by the
// engine's error taxonomy: storage, provider, and business logic.
type ErrorKind int

const (
	// Storage family.
	InvalidFileFormat ErrorKind = iota
	UnsupportedVersion
	Encryption
	Decryption
	Serialization
	Deserialization
	FileIO

	// Provider family.
	Api
	Network
	NoProvider

	// Business family.
	ValidationError
	EventNotFound
	PriceNotAvailable
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidFileFormat:
		return "InvalidFileFormat"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case Encryption:
		return "Encryption"
	case Decryption:
		return "Decryption"
	case Serialization:
		return "Serialization"
	case Deserialization:
		return "Deserialization"
	case FileIO:
		return "FileIO"
	case Api:
		return "Api"
	case Network:
		return "Network"
	case NoProvider:
		return "NoProvider"
	case ValidationError:
		return "ValidationError"
	case EventNotFound:
		return "EventNotFound"
	case PriceNotAvailable:
		return "PriceNotAvailable"
	default:
		return "Unknown"
	}
}

// CoreError is the single error type returned by every fallible operation
// in this module, mirroring the small sum-of-kinds taxonomy used throughout
// the engine rather than one Go type per failure mode.
type CoreError struct {
	Kind ErrorKind

	// Kind-specific fields.
	Provider string // Api
	Symbol   string // PriceNotAvailable
	Currency string // PriceNotAvailable
	Date     string // PriceNotAvailable

	// generic human-readable detail / wrapped cause.
	Detail string
	Cause  error
}

func (e *CoreError) Error() string {
	switch e.Kind {
	case UnsupportedVersion:
		return fmt.Sprintf("unsupported file version: %s", e.Detail)
	case Decryption:
		return "decryption failed: wrong password or corrupted file"
	case Api:
		return fmt.Sprintf("API error (%s): %s", e.Provider, e.Detail)
	case NoProvider:
		return fmt.Sprintf("no provider available for asset kind: %s", e.Detail)
	case EventNotFound:
		return fmt.Sprintf("event not found: %s", e.Detail)
	case PriceNotAvailable:
		return fmt.Sprintf("price not available for %s in %s on %s", e.Symbol, e.Currency, e.Date)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
}

func (e *CoreError) Unwrap() error { return e.Cause }

func newErr(kind ErrorKind, detail string) *CoreError { return &CoreError{Kind: kind, Detail: detail} }

func wrapErr(kind ErrorKind, detail string, cause error) *CoreError {
	return &CoreError{Kind: kind, Detail: detail, Cause: cause}
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

// sensitiveParam matches query-string parameter names that are redacted
// before a Network error is constructed, per the engine's error-sanitization
// contract: any URL or body fragment carrying a credential-shaped parameter
// name must not reach a stored error.
var sensitiveParam = regexp.MustCompile(`(?i)(key|token|api_key)=[^&\s]*`)

// sanitizeNetworkDetail redacts credential-shaped query parameters from a
// transport error message before it is wrapped into a Network CoreError.
func sanitizeNetworkDetail(detail string) string {
	return sensitiveParam.ReplaceAllString(detail, "$1=<redacted>")
}

// NetworkError builds a Network CoreError from a transport failure,
// sanitizing any credential-shaped query parameter in the message first.
func NetworkError(cause error) *CoreError {
	return wrapErr(Network, sanitizeNetworkDetail(cause.Error()), cause)
}

// ApiError builds an Api CoreError from a provider's own error response
// (a non-2xx status, an unparseable body, an empty quote), sanitizing any
// credential-shaped parameter the message might still carry.
func ApiError(provider string, cause error) *CoreError {
	return &CoreError{Kind: Api, Provider: provider, Detail: sanitizeNetworkDetail(cause.Error()), Cause: cause}
}

// WrapEncryption builds an Encryption CoreError from a lower-level cipher
// construction failure (e.g. a malformed key). Exported for the container
// package, which has no other way to report AEAD setup failures in the
// engine's own error taxonomy.
func WrapEncryption(cause error) *CoreError {
	return wrapErr(Encryption, cause.Error(), cause)
}

// ErrDecryption builds a Decryption CoreError. The underlying AEAD tag
// mismatch is deliberately not wrapped as Cause: a wrong password and a
// corrupted file must be indistinguishable to the caller, and leaking
// cipher internals here would not help either case.
func ErrDecryption() *CoreError { return newErr(Decryption, "") }

// NewError builds a CoreError of any kind with a plain detail string, for
// packages outside the domain core (container, resolver) that need to
// surface engine error kinds without reaching into unexported helpers.
func NewError(kind ErrorKind, detail string) *CoreError { return newErr(kind, detail) }

func marshalString(s string) ([]byte, error) { return json.Marshal(s) }

func unmarshalString(b []byte) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", err
	}
	return s, nil
}

func unmarshalJSON(b []byte, v any) error { return json.Unmarshal(b, v) }
