// Package types defines the definition model of the engn data engine:
// the type-string grammar, the TypeDef/Enumeration/Module/Import entities,
// the Schema aggregate, the definition Registry, and the standard error
// types shared by the generator and the storage engine.
package types
