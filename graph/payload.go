package graph

import (
	"encoding/json"
	"errors"
	"time"
)

// Triple is one subject-predicate-object assertion about a linked entity.
type Triple struct {
	Subject    string    `json:"subject"`
	Predicate  string    `json:"predicate"`
	Object     any       `json:"object"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
}

// Predicates asserted for a semantic link.
const (
	PredicateLinkTarget   = "semlink.link.targetPath"
	PredicateLinkQuery    = "semlink.link.query"
	PredicateLinkEntity   = "semlink.link.entity"
	PredicateLinkLabel    = "semlink.link.entityLabel"
	PredicateLinkRank     = "semlink.link.rank"
	PredicateLinkDocument = "semlink.link.document"
)

// tripleSource identifies this tool as the origin of link assertions.
const tripleSource = "semlink.link"

// EntityIngestMessage is the wire format consumed by the graph ingester.
type EntityIngestMessage struct {
	ID        string    `json:"id"`
	Triples   []Triple  `json:"triples"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the message is well-formed before publishing.
func (m *EntityIngestMessage) Validate() error {
	if m.ID == "" {
		return errors.New("entity ID is required")
	}
	if len(m.Triples) == 0 {
		return errors.New("at least one triple is required")
	}
	return nil
}

// Marshal serializes the message for the wire.
func (m *EntityIngestMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
