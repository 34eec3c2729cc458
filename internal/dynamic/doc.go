// Package dynamic turns declarative TypeDef and Enumeration definitions
// into runtime descriptors that validate untyped JSON mappings.
//
// There is no code generation and no reflection-built structs: a descriptor
// is plain data (ordered fields, each with a resolved kind tree and a
// compiled constraint list) driven by one generic validation routine.
// Definitions may arrive in any order; Generate resolves inter-type
// dependencies with a work list and reports the full set of unresolvable
// types when it stalls.
package dynamic
