package aas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// ConceptDescription is a compact view of an AAS ConceptDescription entry.
type ConceptDescription struct {
	ID           string            `json:"id"`
	IDShort      string            `json:"idShort,omitempty"`
	Descriptions map[string]string `json:"description,omitempty"`
	IsCaseOf     []string          `json:"isCaseOf,omitempty"`
}

// Document is a decoded AAS environment with an index over its
// conceptDescriptions array.
type Document struct {
	Root *Node

	// cds maps ConceptDescription.id to all entries carrying that id.
	// Duplicate ids occur in published templates, so entries are not collapsed.
	cds map[string][]*ConceptDescription
	all []*ConceptDescription
}

// DecodeDocument parses raw AAS JSON into a Document. The byte stream may be
// UTF-8 (with or without BOM) or UTF-16 in either byte order; published
// templates exist in all of these encodings.
func DecodeDocument(data []byte) (*Document, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	root, err := DecodeNode(text)
	if err != nil {
		return nil, fmt.Errorf("parse AAS JSON: %w", err)
	}

	doc := &Document{Root: root, cds: make(map[string][]*ConceptDescription)}
	doc.indexConceptDescriptions()
	return doc, nil
}

// decodeText normalizes the input to UTF-8, trying BOM-marked and unmarked
// UTF-16 variants before giving up.
func decodeText(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return data[3:], nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return utf16Decode(data[2:], false), nil
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return utf16Decode(data[2:], true), nil
	}

	if utf8.Valid(data) {
		return data, nil
	}

	// No BOM and not valid UTF-8: guess UTF-16 byte order from the first
	// byte pair (JSON starts with ASCII, so one of the two bytes is zero).
	if len(data) >= 2 {
		if data[0] != 0 && data[1] == 0 {
			return utf16Decode(data, false), nil
		}
		if data[0] == 0 && data[1] != 0 {
			return utf16Decode(data, true), nil
		}
	}

	return nil, fmt.Errorf("unable to decode input as UTF-8 or UTF-16")
}

func utf16Decode(data []byte, bigEndian bool) []byte {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		if bigEndian {
			units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
		} else {
			units = append(units, uint16(data[i+1])<<8|uint16(data[i]))
		}
	}
	return []byte(string(utf16.Decode(units)))
}

// indexConceptDescriptions builds the id index from the environment's
// conceptDescriptions array.
func (d *Document) indexConceptDescriptions() {
	arr, ok := d.Root.Field("conceptDescriptions")
	if !ok || arr.Kind() != KindArray {
		return
	}

	for i := 0; i < arr.Len(); i++ {
		entry, _ := arr.Index(i)
		if entry.Kind() != KindObject {
			continue
		}

		cd := &ConceptDescription{
			ID:           entry.StringField("id"),
			IDShort:      entry.StringField("idShort"),
			Descriptions: Descriptions(entry),
		}
		if isCase, ok := entry.Field("isCaseOf"); ok && isCase.Kind() == KindArray {
			for j := 0; j < isCase.Len(); j++ {
				ref, _ := isCase.Index(j)
				cd.IsCaseOf = append(cd.IsCaseOf, RefURIs(ref)...)
			}
		}

		d.all = append(d.all, cd)
		if cd.ID != "" {
			d.cds[cd.ID] = append(d.cds[cd.ID], cd)
		}
	}
}

// ConceptDescriptions returns all concept descriptions in document order.
func (d *Document) ConceptDescriptions() []*ConceptDescription {
	return d.all
}

// LookupConcept returns the first concept description registered under the
// given semantic id, or nil.
func (d *Document) LookupConcept(id string) *ConceptDescription {
	if id == "" {
		return nil
	}
	if entries := d.cds[id]; len(entries) > 0 {
		return entries[0]
	}
	return nil
}

// MatchConcepts returns all concept descriptions whose id equals semanticID.
func (d *Document) MatchConcepts(semanticID string) []*ConceptDescription {
	return d.cds[semanticID]
}

// MarshalJSON renders the concept description in a stable shape.
func (c *ConceptDescription) MarshalJSON() ([]byte, error) {
	type alias ConceptDescription
	return json.Marshal((*alias)(c))
}
