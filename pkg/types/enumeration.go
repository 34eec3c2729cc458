package types

import "encoding/json"

// Enumeration declares a closed string-valued type: a unique name and the
// ordered list of allowed values.
type Enumeration struct {
	EngnType    string   `json:"engn_type"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Values      []string `json:"values"`
}

// NewEnumeration constructs an Enumeration with the discriminator set.
func NewEnumeration(name string, values ...string) Enumeration {
	return Enumeration{EngnType: KindEnum, Name: name, Values: values}
}

func (Enumeration) item() {}

// Kind returns the fixed discriminator "enum".
func (Enumeration) Kind() string { return KindEnum }

// Validate checks that the name and the values list are present.
func (e Enumeration) Validate() error {
	if e.Name == "" {
		return &FieldValidationError{Type: "Enumeration", Field: "name", Code: CodeMissing, Message: "Field required"}
	}
	if e.Values == nil {
		return &FieldValidationError{Type: "Enumeration", Field: "values", Code: CodeMissing, Message: "Field required"}
	}
	return nil
}

// Contains reports whether v is one of the enumeration's values.
func (e Enumeration) Contains(v string) bool {
	for _, val := range e.Values {
		if val == v {
			return true
		}
	}
	return false
}

// MarshalJSON forces the discriminator regardless of how the value was
// constructed.
func (e Enumeration) MarshalJSON() ([]byte, error) {
	type alias Enumeration
	a := alias(e)
	a.EngnType = KindEnum
	if a.Values == nil {
		a.Values = []string{}
	}
	return json.Marshal(a)
}
