package types

import "encoding/json"

// Module declares a named, reusable bundle of definition files. File paths
// are relative to the file that imports the module.
type Module struct {
	EngnType    string   `json:"engn_type"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Files       []string `json:"files"`
}

// NewModule constructs a Module with the discriminator set.
func NewModule(name string, files ...string) Module {
	return Module{EngnType: KindModule, Name: name, Files: files}
}

func (Module) item() {}

// Kind returns the fixed discriminator "module".
func (Module) Kind() string { return KindModule }

// Validate checks that the name and the file list are present.
func (m Module) Validate() error {
	if m.Name == "" {
		return &FieldValidationError{Type: "Module", Field: "name", Code: CodeMissing, Message: "Field required"}
	}
	if m.Files == nil {
		return &FieldValidationError{Type: "Module", Field: "files", Code: CodeMissing, Message: "Field required"}
	}
	return nil
}

// MarshalJSON forces the discriminator regardless of how the value was
// constructed.
func (m Module) MarshalJSON() ([]byte, error) {
	type alias Module
	a := alias(m)
	a.EngnType = KindModule
	if a.Files == nil {
		a.Files = []string{}
	}
	return json.Marshal(a)
}

// Import pulls other definition files into the file that carries it, either
// directly by path or indirectly through named modules. Exactly one of
// Files and Modules must be non-empty; an empty list counts as unset.
type Import struct {
	EngnType string   `json:"engn_type"`
	Files    []string `json:"files,omitempty"`
	Modules  []string `json:"modules,omitempty"`
}

// NewFileImport constructs an Import of explicit file paths.
func NewFileImport(files ...string) Import {
	return Import{EngnType: KindImport, Files: files}
}

// NewModuleImport constructs an Import of named modules.
func NewModuleImport(modules ...string) Import {
	return Import{EngnType: KindImport, Modules: modules}
}

func (Import) item() {}

// Kind returns the fixed discriminator "import".
func (Import) Kind() string { return KindImport }

// Validate enforces the files-xor-modules invariant.
func (i Import) Validate() error {
	switch {
	case len(i.Files) == 0 && len(i.Modules) == 0:
		return ErrImportEmpty
	case len(i.Files) > 0 && len(i.Modules) > 0:
		return ErrImportBoth
	}
	return nil
}

// MarshalJSON forces the discriminator regardless of how the value was
// constructed.
func (i Import) MarshalJSON() ([]byte, error) {
	type alias Import
	a := alias(i)
	a.EngnType = KindImport
	return json.Marshal(a)
}
