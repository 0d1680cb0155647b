// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Category is one of the three Gene Ontology sub-ontologies.
type Category string

const (
	CategoryNone              Category = ""
	CategoryBiologicalProcess Category = "BP"
	CategoryMolecularFunction Category = "MF"
	CategoryCellularComponent Category = "CC"
)

// namespaces maps OBO namespace literals to categories.
var namespaces = map[string]Category{
	"biological_process": CategoryBiologicalProcess,
	"molecular_function": CategoryMolecularFunction,
	"cellular_component": CategoryCellularComponent,
}

// CategoryFromNamespace maps an OBO namespace literal such as
// "biological_process" to its Category.
func CategoryFromNamespace(ns string) (Category, error) {
	c, ok := namespaces[ns]
	if !ok {
		return CategoryNone, fmt.Errorf("unknown namespace %q", ns)
	}
	return c, nil
}

// ParseCategory accepts the short form ("BP", "MF", "CC") or an OBO
// namespace literal.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryBiologicalProcess, CategoryMolecularFunction, CategoryCellularComponent:
		return Category(s), nil
	}
	return CategoryFromNamespace(s)
}

// Term is a single GO term node.
type Term struct {
	// ID is the stable identifier, e.g. "GO:0008150".
	ID string `json:"id" yaml:"id"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Category is BP, MF or CC.
	Category Category `json:"category" yaml:"category"`

	// Obsolete marks terms retired from the ontology.
	Obsolete bool `json:"obsolete,omitempty" yaml:"obsolete,omitempty"`

	// AltIDs are alternate identifiers resolving to this term.
	AltIDs []string `json:"alt_ids,omitempty" yaml:"alt_ids,omitempty"`

	// Parents are is_a targets. No parents means the term is a root.
	Parents []string `json:"parents,omitempty" yaml:"parents,omitempty"`

	// Children is derived from the parents of other terms.
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`

	// Level is the shortest distance to a root (root = 1). Zero means not
	// yet computed.
	Level int `json:"level" yaml:"level"`

	// Depth is the longest distance to a root (root = 1). Zero means not
	// yet computed.
	Depth int `json:"depth" yaml:"depth"`
}

// IsRoot reports whether the term has no parents.
func (t *Term) IsRoot() bool { return len(t.Parents) == 0 }

// AddParent appends id to Parents unless already present.
func (t *Term) AddParent(id string) {
	t.Parents = appendUnique(t.Parents, id)
}

// AddAltID appends id to AltIDs unless already present.
func (t *Term) AddAltID(id string) {
	t.AltIDs = appendUnique(t.AltIDs, id)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
