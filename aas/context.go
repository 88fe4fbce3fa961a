package aas

import (
	"fmt"
	"strconv"
)

// TargetNode is the element being linked, with everything the linker may use.
type TargetNode struct {
	IDShort            string              `json:"idShort,omitempty"`
	ModelType          string              `json:"modelType,omitempty"`
	ValueType          string              `json:"valueType,omitempty"`
	Descriptions       map[string]string   `json:"description,omitempty"`
	Semantic           SemanticSummary     `json:"semantic"`
	Qualifiers         []Qualifier         `json:"qualifiers,omitempty"`
	ConceptDescription *ConceptDescription `json:"conceptDescription,omitempty"`
}

// ParentNode is one ancestor of the target, excluding the submodel.
type ParentNode struct {
	Path               string              `json:"path"`
	IDShort            string              `json:"idShort,omitempty"`
	ModelType          string              `json:"modelType,omitempty"`
	Semantic           SemanticSummary     `json:"semantic"`
	ConceptDescription *ConceptDescription `json:"conceptDescription,omitempty"`
}

// SiblingNode is an element sharing the target's parent collection.
type SiblingNode struct {
	Index              int                 `json:"index"`
	IDShort            string              `json:"idShort,omitempty"`
	ModelType          string              `json:"modelType,omitempty"`
	Semantic           SemanticSummary     `json:"semantic"`
	ConceptDescription *ConceptDescription `json:"conceptDescription,omitempty"`
}

// SubmodelBlock identifies the submodel owning the target.
type SubmodelBlock struct {
	IDShort            string              `json:"idShort,omitempty"`
	Semantic           SemanticSummary     `json:"semantic"`
	ConceptDescription *ConceptDescription `json:"conceptDescription,omitempty"`
}

// Context is the read-only semantic context for one target element. It is
// built once per linking run and never mutated by the loop.
type Context struct {
	Submodel    *SubmodelBlock `json:"submodel,omitempty"`
	ParentChain []ParentNode   `json:"parent_chain"`
	Target      TargetNode     `json:"target"`
	Siblings    []SiblingNode  `json:"siblings"`
	Path        string         `json:"path"`
}

// BuildContext extracts the semantic context for the element at path.
// The addressed node must be an object.
func BuildContext(doc *Document, path Path) (*Context, error) {
	target, err := Resolve(doc.Root, path)
	if err != nil {
		return nil, err
	}
	if target.Kind() != KindObject {
		return nil, fmt.Errorf("target at path %q is a %s, not an object", path, target.Kind())
	}

	targetSem := SemanticsOf(target)
	ctx := &Context{
		ParentChain: []ParentNode{},
		Siblings:    []SiblingNode{},
		Target: TargetNode{
			IDShort:            target.StringField("idShort"),
			ModelType:          target.StringField("modelType"),
			ValueType:          target.StringField("valueType"),
			Descriptions:       Descriptions(target),
			Semantic:           targetSem,
			Qualifiers:         QualifiersOf(target),
			ConceptDescription: doc.LookupConcept(targetSem.PrimaryID()),
		},
		Path: path.String(),
	}

	parents := collectParents(doc, path)
	for _, p := range parents {
		if p.ModelType == "Submodel" {
			if ctx.Submodel == nil {
				ctx.Submodel = &SubmodelBlock{
					IDShort:            p.IDShort,
					Semantic:           p.Semantic,
					ConceptDescription: p.ConceptDescription,
				}
			}
			continue
		}
		ctx.ParentChain = append(ctx.ParentChain, p)
	}

	ctx.Siblings = collectSiblings(doc, path)
	return ctx, nil
}

// collectParents walks every path prefix from the root down to the target's
// parent, keeping only object ancestors.
func collectParents(doc *Document, path Path) []ParentNode {
	var parents []ParentNode
	for i := 1; i < len(path); i++ {
		prefix := path[:i]
		node, err := Resolve(doc.Root, prefix)
		if err != nil || node.Kind() != KindObject {
			continue
		}

		sem := SemanticsOf(node)
		parents = append(parents, ParentNode{
			Path:               prefix.String(),
			IDShort:            node.StringField("idShort"),
			ModelType:          node.StringField("modelType"),
			Semantic:           sem,
			ConceptDescription: doc.LookupConcept(sem.PrimaryID()),
		})
	}
	return parents
}

// collectSiblings gathers elements from the parent's value/statements arrays,
// skipping the target itself.
func collectSiblings(doc *Document, path Path) []SiblingNode {
	siblings := []SiblingNode{}
	leafIdx, err := strconv.Atoi(path.Leaf())
	if err != nil {
		return siblings
	}
	parent, err := Resolve(doc.Root, path.Parent().Parent())
	if err != nil || parent.Kind() != KindObject {
		return siblings
	}

	for _, key := range []string{"value", "statements"} {
		list, ok := parent.Field(key)
		if !ok || list.Kind() != KindArray {
			continue
		}
		// Only the collection the target lives in contributes siblings.
		if key != path.Parent().Leaf() {
			continue
		}
		for i := 0; i < list.Len(); i++ {
			if i == leafIdx {
				continue
			}
			child, _ := list.Index(i)
			if child.Kind() != KindObject {
				continue
			}
			sem := SemanticsOf(child)
			siblings = append(siblings, SiblingNode{
				Index:              i,
				IDShort:            child.StringField("idShort"),
				ModelType:          child.StringField("modelType"),
				Semantic:           sem,
				ConceptDescription: doc.LookupConcept(sem.PrimaryID()),
			})
		}
	}
	return siblings
}
