package ir

// Resource is the declared shape of one resource, before multiplicity
// expansion.
type Resource struct {
	Type      string   `json:"type"`
	Name      string   `json:"name"`
	Provider  string   `json:"provider"`
	DependsOn []string `json:"dependsOn,omitempty"`

	// Count and ForEach are mutually exclusive repetition meta-arguments.
	// Count expands into ordinal instances, ForEach into keyed instances.
	Count   int            `json:"count,omitempty"`
	ForEach map[string]any `json:"forEach,omitempty"`

	Lifecycle *Lifecycle `json:"lifecycle,omitempty"`

	// Timeout overrides the engine's per-operation timeout for this
	// resource, as a Go duration string.
	Timeout string `json:"timeout,omitempty"`

	Preconditions  []Condition `json:"preconditions,omitempty"`
	Postconditions []Condition `json:"postconditions,omitempty"`

	// Properties holds the desired attributes. Values are literals or
	// ir.Reference.
	Properties map[string]any `json:"properties,omitempty"`

	// Index is set on instances produced by multiplicity expansion.
	Index *IndexKey `json:"-"`
}

type Lifecycle struct {
	CreateBeforeDestroy bool     `json:"createBeforeDestroy,omitempty"`
	PreventDestroy      bool     `json:"preventDestroy,omitempty"`
	IgnoreChanges       []string `json:"ignoreChanges,omitempty"`
}

// Condition is a declarative validator over a resource's attributes.
// Preconditions check desired attributes at plan time; postconditions
// check observed attributes after apply.
type Condition struct {
	Attribute string `json:"attribute"`
	// Operator is one of "eq", "neq", "set" (attribute present and
	// non-empty).
	Operator     string `json:"operator"`
	Value        any    `json:"value,omitempty"`
	ErrorMessage string `json:"errorMessage"`
}

// Address returns the instance address, including the expansion index.
func (r *Resource) Address() Address {
	return Address{Type: r.Type, Name: r.Name, Index: r.Index}
}

// Clone returns a deep copy of the resource declaration.
func (r *Resource) Clone() *Resource {
	clone := &Resource{
		Type:     r.Type,
		Name:     r.Name,
		Provider: r.Provider,
		Count:    r.Count,
		Timeout:  r.Timeout,
		Index:    r.Index,
	}
	clone.DependsOn = append([]string(nil), r.DependsOn...)
	if r.ForEach != nil {
		clone.ForEach = DeepCopyProperties(r.ForEach)
	}
	if r.Lifecycle != nil {
		lc := *r.Lifecycle
		lc.IgnoreChanges = append([]string(nil), r.Lifecycle.IgnoreChanges...)
		clone.Lifecycle = &lc
	}
	clone.Preconditions = append([]Condition(nil), r.Preconditions...)
	clone.Postconditions = append([]Condition(nil), r.Postconditions...)
	clone.Properties = DeepCopyProperties(r.Properties)
	return clone
}
