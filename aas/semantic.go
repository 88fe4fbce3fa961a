package aas

// SemanticSummary groups the semantic reference URIs attached to an element.
type SemanticSummary struct {
	// Primary holds the semanticId key values.
	Primary []string `json:"primary"`
	// ListElement holds semanticIdListElement key values (SubmodelElementList).
	ListElement []string `json:"listElement"`
	// Supplemental holds all key values from supplementalSemanticIds.
	Supplemental []string `json:"supplemental"`
}

// PrimaryID returns the first primary semantic URI, or empty.
func (s SemanticSummary) PrimaryID() string {
	if len(s.Primary) > 0 {
		return s.Primary[0]
	}
	return ""
}

// Qualifier is a constraint attached to an element, with its own semantics.
type Qualifier struct {
	Type         string   `json:"type,omitempty"`
	Kind         string   `json:"kind,omitempty"`
	ValueType    string   `json:"valueType,omitempty"`
	Value        string   `json:"value,omitempty"`
	SemanticURIs []string `json:"semantic_uris,omitempty"`
}

// RefURIs returns every keys[].value URI from a Reference-like object.
// Works for semanticId, semanticIdListElement and supplementalSemanticIds
// entries alike; non-object inputs yield nil.
func RefURIs(ref *Node) []string {
	if ref.Kind() != KindObject {
		return nil
	}
	keys, ok := ref.Field("keys")
	if !ok || keys.Kind() != KindArray {
		return nil
	}

	var uris []string
	for i := 0; i < keys.Len(); i++ {
		key, _ := keys.Index(i)
		if v := key.StringField("value"); v != "" {
			uris = append(uris, v)
		}
	}
	return uris
}

// SemanticsOf summarizes all semantic references of an element.
func SemanticsOf(node *Node) SemanticSummary {
	sum := SemanticSummary{
		Primary:      []string{},
		ListElement:  []string{},
		Supplemental: []string{},
	}
	if node.Kind() != KindObject {
		return sum
	}

	if sid, ok := node.Field("semanticId"); ok {
		sum.Primary = append(sum.Primary, RefURIs(sid)...)
	}
	if sidLE, ok := node.Field("semanticIdListElement"); ok {
		sum.ListElement = append(sum.ListElement, RefURIs(sidLE)...)
	}
	if supps, ok := node.Field("supplementalSemanticIds"); ok && supps.Kind() == KindArray {
		for i := 0; i < supps.Len(); i++ {
			ref, _ := supps.Index(i)
			sum.Supplemental = append(sum.Supplemental, RefURIs(ref)...)
		}
	}
	return sum
}

// Descriptions collects language→text pairs from a node's description array.
func Descriptions(node *Node) map[string]string {
	descs := make(map[string]string)
	arr, ok := node.Field("description")
	if !ok || arr.Kind() != KindArray {
		return descs
	}

	for i := 0; i < arr.Len(); i++ {
		entry, _ := arr.Index(i)
		lang := entry.StringField("language")
		text := entry.StringField("text")
		if lang != "" && text != "" {
			descs[lang] = text
		}
	}
	return descs
}

// QualifiersOf extracts the qualifiers of an element, including each
// qualifier's own semantic URIs.
func QualifiersOf(node *Node) []Qualifier {
	arr, ok := node.Field("qualifiers")
	if !ok || arr.Kind() != KindArray {
		return nil
	}

	var qs []Qualifier
	for i := 0; i < arr.Len(); i++ {
		entry, _ := arr.Index(i)
		if entry.Kind() != KindObject {
			continue
		}
		q := Qualifier{
			Type:      entry.StringField("type"),
			Kind:      entry.StringField("kind"),
			ValueType: entry.StringField("valueType"),
			Value:     entry.StringField("value"),
		}
		if sid, ok := entry.Field("semanticId"); ok {
			q.SemanticURIs = RefURIs(sid)
		}
		qs = append(qs, q)
	}
	return qs
}
