package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Stage indicates where in the guest lifecycle the error occurred
type Stage string

const (
	StageLoad        Stage = "load"        // reading/compiling the guest binary
	StageInstantiate Stage = "instantiate" // linking against the host API
	StageCall        Stage = "call"        // invoking a guest entry point
)

// Kind categorizes the error
type Kind string

const (
	KindSourceUnavailable   Kind = "source_unavailable"
	KindInvalidBinary       Kind = "invalid_binary"
	KindUnsupportedBinary   Kind = "unsupported_binary"
	KindMissingImport       Kind = "missing_import"
	KindIncompatibleVersion Kind = "incompatible_version"
	KindMissingExport       Kind = "missing_export"
	KindLinkFailed          Kind = "link_failed"
	KindGuestTrap           Kind = "guest_trap"
)

// Error is the structured error type used throughout the host
type Error struct {
	Cause  error
	Stage  Stage
	Kind   Kind
	Source string // guest source name, when known
	Phase  string // lifecycle phase name, for call errors
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Stage))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Source != "" {
		b.WriteString(" for ")
		b.WriteString(fmt.Sprintf("%q", e.Source))
	}

	if e.Phase != "" {
		b.WriteString(" during ")
		b.WriteString(e.Phase)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Stage == t.Stage && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(stage Stage, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Stage: stage,
			Kind:  kind,
		},
	}
}

// Source sets the guest source name
func (b *Builder) Source(name string) *Builder {
	b.err.Source = name
	return b
}

// Phase sets the lifecycle phase name
func (b *Builder) Phase(name string) *Builder {
	b.err.Phase = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// SourceUnavailable creates a load error for an unreadable guest source
func SourceUnavailable(source string, cause error) *Error {
	return &Error{
		Stage:  StageLoad,
		Kind:   KindSourceUnavailable,
		Source: source,
		Detail: "read guest source",
		Cause:  cause,
	}
}

// InvalidBinary creates a load error for bytes that do not compile
func InvalidBinary(source string, cause error) *Error {
	return &Error{
		Stage:  StageLoad,
		Kind:   KindInvalidBinary,
		Source: source,
		Detail: "compile guest module",
		Cause:  cause,
	}
}

// UnsupportedBinary creates a load error for recognized-but-unsupported formats
func UnsupportedBinary(source, detail string) *Error {
	return &Error{
		Stage:  StageLoad,
		Kind:   KindUnsupportedBinary,
		Source: source,
		Detail: detail,
	}
}

// IncompatibleVersion creates an instantiation error for a host API version
// the host cannot satisfy
func IncompatibleVersion(source, requested, provided string) *Error {
	return &Error{
		Stage:  StageInstantiate,
		Kind:   KindIncompatibleVersion,
		Source: source,
		Detail: fmt.Sprintf("guest requires host API %s, host provides %s", requested, provided),
	}
}

// MissingExport creates an instantiation error for an absent guest export
func MissingExport(source, name string) *Error {
	return &Error{
		Stage:  StageInstantiate,
		Kind:   KindMissingExport,
		Source: source,
		Detail: fmt.Sprintf("guest does not export %q", name),
	}
}

// LinkFailed creates an instantiation error wrapping a substrate failure
func LinkFailed(source string, cause error) *Error {
	return &Error{
		Stage:  StageInstantiate,
		Kind:   KindLinkFailed,
		Source: source,
		Detail: "instantiate guest module",
		Cause:  cause,
	}
}

// GuestCall creates a call error carrying the lifecycle phase name
func GuestCall(phase string, cause error) *Error {
	return &Error{
		Stage:  StageCall,
		Kind:   KindGuestTrap,
		Phase:  phase,
		Detail: "guest call failed",
		Cause:  cause,
	}
}

// Stage predicates classify wrapped errors without knowing the kind.

// IsLoad reports whether err is a load-stage error
func IsLoad(err error) bool {
	return isStage(err, StageLoad)
}

// IsInstantiation reports whether err is an instantiate-stage error
func IsInstantiation(err error) bool {
	return isStage(err, StageInstantiate)
}

// IsGuestCall reports whether err is a call-stage error
func IsGuestCall(err error) bool {
	return isStage(err, StageCall)
}

func isStage(err error, stage Stage) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Stage == stage
	}
	return false
}

// MissingImport represents a single unresolved import
type MissingImport struct {
	Namespace string // e.g., "canvas:host/api@0.1.0"
	Function  string // e.g., "fill-rect"
}

// MissingImportsError is returned when a guest imports functions the host
// does not provide
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "namespace#function" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		ns, fn := parseImportKey(imp)
		result.Imports = append(result.Imports, MissingImport{
			Namespace: ns,
			Function:  fn,
		})
	}
	return result
}

func parseImportKey(key string) (namespace, function string) {
	ns, fn, found := strings.Cut(key, "#")
	if found {
		return ns, fn
	}
	return key, ""
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "missing host function(s): none specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing %d host function(s):\n", len(e.Imports)))

	// Group by namespace for cleaner output
	byNS := make(map[string][]string)
	var nsOrder []string
	for _, imp := range e.Imports {
		if _, exists := byNS[imp.Namespace]; !exists {
			nsOrder = append(nsOrder, imp.Namespace)
		}
		fn := demangleRust(imp.Function)
		byNS[imp.Namespace] = append(byNS[imp.Namespace], fn)
	}

	for _, ns := range nsOrder {
		b.WriteString("\n  ")
		b.WriteString(ns)
		b.WriteString(":\n")
		for _, fn := range byNS[ns] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}

// MissingExportsError is returned when a guest lacks required entry points
type MissingExportsError struct {
	Exports []string
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "missing guest export(s): none specified"
	}
	return fmt.Sprintf("missing %d guest export(s): %s",
		len(e.Exports), strings.Join(e.Exports, ", "))
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	_, ok := target.(*MissingExportsError)
	return ok
}

// demangleRust attempts to extract a readable function name from a mangled
// Rust symbol, since guests are commonly built from Rust
func demangleRust(name string) string {
	// Rust mangled names start with _ZN
	if !strings.HasPrefix(name, "_ZN") {
		return name
	}

	// Extract path segments from mangled name
	// Format: _ZN<len><name><len><name>...E
	s := name[3:] // skip "_ZN"
	var parts []string

	for len(s) > 0 && s[0] != 'E' {
		// Read length (can be multiple digits)
		lenEnd := 0
		for lenEnd < len(s) && s[lenEnd] >= '0' && s[lenEnd] <= '9' {
			lenEnd++
		}
		if lenEnd == 0 {
			break
		}

		length := 0
		for i := 0; i < lenEnd; i++ {
			length = length*10 + int(s[i]-'0')
		}
		s = s[lenEnd:]

		if length > len(s) {
			break
		}

		part := s[:length]
		s = s[length:]

		// Skip wit_import markers and hash suffixes (17 char hashes starting with 'h')
		if strings.HasPrefix(part, "wit_import") {
			continue
		}
		if len(part) == 17 && part[0] == 'h' {
			allHex := true
			for i := 1; i < 17; i++ {
				c := part[i]
				if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
					allHex = false
					break
				}
			}
			if allHex {
				continue
			}
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return name
	}

	return strings.Join(parts, "::")
}
