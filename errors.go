package blueprint

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeMissingTypeSpecification indicates a recipe without a target type
	CodeMissingTypeSpecification = "MISSING_TYPE_SPECIFICATION"

	// CodeDuplicateRegistration indicates a name is already registered
	CodeDuplicateRegistration = "DUPLICATE_REGISTRATION"

	// CodeMissingConfiguration indicates no recipe, alias or parent entry matched a name
	CodeMissingConfiguration = "MISSING_CONFIGURATION"

	// CodeTypeAssertionViolation indicates a resolved type fails the configured assert_type
	CodeTypeAssertionViolation = "TYPE_ASSERTION_VIOLATION"

	// CodeProxyUnavailable indicates the configured lazy proxy is not registered
	CodeProxyUnavailable = "PROXY_UNAVAILABLE"

	// CodeTypeNotFound indicates a type path is not present in the registry
	CodeTypeNotFound = "TYPE_NOT_FOUND"

	// CodeModuleNotFound indicates a module path is not present in the registry
	CodeModuleNotFound = "MODULE_NOT_FOUND"

	// CodeSymbolNotFound indicates a module symbol or object attribute is missing
	CodeSymbolNotFound = "SYMBOL_NOT_FOUND"

	// CodeFactoryNotFound indicates a factory method is not declared on a type
	CodeFactoryNotFound = "FACTORY_NOT_FOUND"

	// CodeInvalidRecipe indicates a recipe mapping could not be normalized
	CodeInvalidRecipe = "INVALID_RECIPE"

	// CodeCircularDependency indicates a relation cycle during resolution
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"

	// CodeConstructionFailed indicates a constructor or factory returned an error
	CodeConstructionFailed = "CONSTRUCTION_FAILED"

	// CodeInjectionUnsupported indicates properties cannot be assigned to an instance
	CodeInjectionUnsupported = "INJECTION_UNSUPPORTED"

	// CodeOverlayActive indicates an overlay is already installed
	CodeOverlayActive = "OVERLAY_ACTIVE"

	// CodeInvalidArgument indicates a malformed argument to a container operation
	CodeInvalidArgument = "INVALID_ARGUMENT"
)

// =============================================================================
// ERROR TYPE
// =============================================================================

// Error is the error type returned by every container operation.
// Two errors match under errors.Is when their codes are equal.
type Error struct {
	Code    string
	Message string
	Cause   error
	Context map[string]any
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code, or is one of the
// generic kinds (ErrNotFound, ErrAttributeAccess) this code belongs to.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}

	for _, kind := range errorKinds[e.Code] {
		if target == kind {
			return true
		}
	}

	return false
}

// WithContext attaches a diagnostic key/value and returns the receiver.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}

	e.Context[key] = value

	return e
}

// NewError creates an Error with the given code.
func NewError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotFound matches every lookup failure (names, types, modules).
	ErrNotFound = errors.New("not found")

	// ErrAttributeAccess matches failures of attribute-style access: unknown
	// container names and missing symbols or attributes.
	ErrAttributeAccess = errors.New("attribute access failed")
)

var errorKinds = map[string][]error{
	CodeMissingConfiguration: {ErrNotFound, ErrAttributeAccess},
	CodeTypeNotFound:         {ErrNotFound},
	CodeModuleNotFound:       {ErrNotFound},
	CodeSymbolNotFound:       {ErrNotFound, ErrAttributeAccess},
	CodeFactoryNotFound:      {ErrNotFound},
}

// ErrMissingTypeSpecificationSentinel is a sentinel for errors.Is checks.
var ErrMissingTypeSpecificationSentinel = NewError(CodeMissingTypeSpecification, "missing type specification", nil)

// ErrDuplicateRegistrationSentinel is a sentinel for errors.Is checks.
var ErrDuplicateRegistrationSentinel = NewError(CodeDuplicateRegistration, "duplicate registration", nil)

// ErrMissingConfigurationSentinel is a sentinel for errors.Is checks.
var ErrMissingConfigurationSentinel = NewError(CodeMissingConfiguration, "missing configuration", nil)

// ErrTypeAssertionViolationSentinel is a sentinel for errors.Is checks.
var ErrTypeAssertionViolationSentinel = NewError(CodeTypeAssertionViolation, "type assertion violation", nil)

// ErrProxyUnavailableSentinel is a sentinel for errors.Is checks.
var ErrProxyUnavailableSentinel = NewError(CodeProxyUnavailable, "proxy unavailable", nil)

// ErrCircularDependencySentinel is a sentinel for errors.Is checks.
var ErrCircularDependencySentinel = NewError(CodeCircularDependency, "circular dependency", nil)

// ErrOverlayActive is returned when an overlay is installed while another is active.
var ErrOverlayActive = NewError(CodeOverlayActive, "an overlay is already active", nil)

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// ErrMissingTypeSpecification creates an error for a recipe without a type.
func ErrMissingTypeSpecification(name string) *Error {
	return NewError(
		CodeMissingTypeSpecification,
		fmt.Sprintf("recipe '%s' does not specify a type", name),
		nil,
	).WithContext("recipe", name)
}

// ErrDuplicateRegistration creates an error for an already registered name.
func ErrDuplicateRegistration(name string) *Error {
	return NewError(
		CodeDuplicateRegistration,
		fmt.Sprintf("there is already a recipe named '%s'", name),
		nil,
	).WithContext("recipe", name)
}

// ErrMissingConfiguration creates an error for an unknown name.
func ErrMissingConfiguration(name string) *Error {
	return NewError(
		CodeMissingConfiguration,
		fmt.Sprintf("no recipe named '%s'", name),
		nil,
	).WithContext("recipe", name)
}

// ErrTypeAssertionViolation creates an error for a failed assert_type check.
func ErrTypeAssertionViolation(name string, actual, expected *Type) *Error {
	return NewError(
		CodeTypeAssertionViolation,
		fmt.Sprintf("%s is not a subtype of %s, which violates recipe '%s'", actual, expected, name),
		nil,
	).WithContext("recipe", name).
		WithContext("type", actual.Name()).
		WithContext("assert_type", expected.Name())
}

// ErrProxyUnavailable creates an error for an unregistered lazy proxy.
func ErrProxyUnavailable(proxy string) *Error {
	return NewError(
		CodeProxyUnavailable,
		fmt.Sprintf("lazy proxy '%s' is not registered", proxy),
		nil,
	).WithContext("proxy", proxy)
}

// ErrTypeNotFound creates an error for an unknown type path.
func ErrTypeNotFound(path string) *Error {
	return NewError(
		CodeTypeNotFound,
		fmt.Sprintf("type '%s' is not registered", path),
		nil,
	).WithContext("type", path)
}

// ErrModuleNotFound creates an error for an unknown module path.
func ErrModuleNotFound(path string) *Error {
	return NewError(
		CodeModuleNotFound,
		fmt.Sprintf("module '%s' is not registered", path),
		nil,
	).WithContext("module", path)
}

// ErrSymbolNotFound creates an error for a missing symbol or attribute.
func ErrSymbolNotFound(owner, symbol string) *Error {
	return NewError(
		CodeSymbolNotFound,
		fmt.Sprintf("'%s' has no attribute '%s'", owner, symbol),
		nil,
	).WithContext("owner", owner).
		WithContext("symbol", symbol)
}

// ErrFactoryNotFound creates an error for an undeclared factory method.
func ErrFactoryNotFound(typ, method string) *Error {
	return NewError(
		CodeFactoryNotFound,
		fmt.Sprintf("type '%s' declares no factory method '%s'", typ, method),
		nil,
	).WithContext("type", typ).
		WithContext("factory_method", method)
}

// ErrInvalidRecipe creates an error for a recipe that cannot be normalized.
func ErrInvalidRecipe(name string, cause error) *Error {
	return NewError(
		CodeInvalidRecipe,
		fmt.Sprintf("recipe '%s' is invalid", name),
		cause,
	).WithContext("recipe", name)
}

// ErrCircularDependency creates an error for a relation cycle.
func ErrCircularDependency(cycle []string) *Error {
	return NewError(
		CodeCircularDependency,
		fmt.Sprintf("circular dependency detected: %s", strings.Join(cycle, " -> ")),
		nil,
	).WithContext("cycle", cycle)
}

// NewConstructionError wraps a failure raised while building a recipe.
func NewConstructionError(name, operation string, cause error) *Error {
	return NewError(
		CodeConstructionFailed,
		fmt.Sprintf("recipe '%s' failed during %s", name, operation),
		cause,
	).WithContext("recipe", name).
		WithContext("operation", operation)
}

// ErrInjectionUnsupported creates an error for an instance that cannot receive properties.
func ErrInjectionUnsupported(name string, instance any) *Error {
	return NewError(
		CodeInjectionUnsupported,
		fmt.Sprintf("recipe '%s': cannot assign properties to %T", name, instance),
		nil,
	).WithContext("recipe", name).
		WithContext("instance_type", fmt.Sprintf("%T", instance))
}

// ErrInvalidArgument creates an error for a malformed operation argument.
func ErrInvalidArgument(message string) *Error {
	return NewError(CodeInvalidArgument, message, nil)
}
