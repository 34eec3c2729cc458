package types

import (
	"errors"
	"fmt"
)

// Definition construction errors.
var (
	ErrEmptyName   = errors.New("name must not be empty")
	ErrEmptyValues = errors.New("values must not be empty")
	ErrEmptyFiles  = errors.New("files must not be empty")
	ErrImportEmpty = errors.New("import must specify either 'files' or 'modules'")
	ErrImportBoth  = errors.New("import cannot specify both 'files' and 'modules'")
)

// Stable machine codes carried by FieldValidationError. Callers branch on
// the code; the Message is for humans.
const (
	CodeMissing          = "missing"
	CodeExtraForbidden   = "extra_forbidden"
	CodeIntType          = "int_type"
	CodeFloatType        = "float_type"
	CodeStringType       = "string_type"
	CodeBoolType         = "bool_type"
	CodeListType         = "list_type"
	CodeDictType         = "dict_type"
	CodeDatetimeType     = "datetime_type"
	CodeUUIDType         = "uuid_type"
	CodeEnum             = "enum"
	CodeGreaterThan      = "greater_than"
	CodeGreaterThanEqual = "greater_than_equal"
	CodeLessThan         = "less_than"
	CodeLessThanEqual    = "less_than_equal"
	CodeMultipleOf       = "multiple_of"
	CodeExcluded         = "excluded"
	CodeWholeNumber      = "whole_number"
	CodeStringTooShort   = "string_too_short"
	CodeStringTooLong    = "string_too_long"
	CodePatternMismatch  = "string_pattern_mismatch"
	CodeListTooShort     = "too_short"
	CodeListTooLong      = "too_long"
	CodeBefore           = "before"
	CodeAfter            = "after"
	CodePathExists       = "path_exists"
	CodeIsFile           = "is_file"
	CodeIsDir            = "is_dir"
	CodeFileExt          = "file_ext"
	CodeURLFormat        = "url_format"
	CodeURLProtocol      = "url_protocol"
	CodeURLBase          = "url_base"
	CodeURLUnreachable   = "url_unreachable"
	CodeQuantityInvalid  = "quantity_invalid"
	CodeQuantityDim      = "quantity_dimension"
	CodeAnyOf            = "any_of"
	CodeUnique           = "unique"
)

// GrammarError reports a type string that fails to parse: bad bracket
// nesting, wrong map arity, or a malformed ref. Raised at Property
// construction time, never deferred.
type GrammarError struct {
	TypeString string
	Reason     string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("invalid type %q: %s", e.TypeString, e.Reason)
}

// UnresolvedReferenceError reports a type name that appears in a property's
// referenced-types set but is not defined anywhere in the schema.
type UnresolvedReferenceError struct {
	TypeName string // owning TypeDef
	Property string // offending property
	Unknown  string // the name that did not resolve
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("Unknown type '%s' referenced in property '%s.%s'",
		e.Unknown, e.TypeName, e.Property)
}

// DependencyError reports that the generator's work-list made zero progress
// on a full pass. It covers both true structural cycles and types that were
// never supplied; the two cases are indistinguishable from the generator's
// viewpoint and are deliberately reported as one condition.
type DependencyError struct {
	Pending []string // every still-pending TypeDef name
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("Unable to resolve dependencies for types: %v. "+
		"Possible circular dependency or missing type definition.", e.Pending)
}

// FieldValidationError reports a value that fails a compiled per-field
// check. Code is one of the Code* constants; Message is the human-readable
// explanation of the failed constraint.
type FieldValidationError struct {
	Type    string // generated type name, or the definition kind
	Field   string // field path within the record ("tags.0" for elements)
	Code    string
	Message string
	Value   any // the offending value, nil when not applicable
}

func (e *FieldValidationError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Type, e.Field, e.Message)
}

// ReferenceIntegrityError reports a ref[] value with no matching target
// after the collection is fully materialized. Distinct from
// FieldValidationError: it can only be produced by the whole-collection
// reference pass, never by per-line validation.
type ReferenceIntegrityError struct {
	SourceType  string
	SourceField string
	Value       any
	Target      string // "Type.Field"
}

func (e *ReferenceIntegrityError) Error() string {
	return fmt.Sprintf("Reference error: %s.%s value %v not found in %s",
		e.SourceType, e.SourceField, e.Value, e.Target)
}

// DuplicateDefinitionError reports a name collision in a Registry. The
// registry policy is hard-fail: later registrations never silently replace
// earlier ones.
type DuplicateDefinitionError struct {
	Name string
	Kind string // "type_def", "enum" or "module"
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("duplicate definition: %s '%s' is already registered", e.Kind, e.Name)
}
