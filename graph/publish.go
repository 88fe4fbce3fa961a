// Package graph publishes accepted semantic links to the knowledge graph
// over NATS JetStream.
package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semlink/linker"
)

// IngestSubject is the stream subject for graph entity ingestion.
const IngestSubject = "graph.ingest.entity"

// Publisher writes link entities to the graph ingest stream. A nil
// Publisher (or one without a connection) degrades to a no-op so linking
// runs work without a broker.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher wraps a NATS connection for graph publishing. Pass a nil
// connection to disable publishing.
func NewPublisher(nc *nats.Conn) (*Publisher, error) {
	if nc == nil {
		return &Publisher{}, nil
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}
	return &Publisher{js: js}, nil
}

// PublishLink publishes the selected candidates of a linking result.
// Results without selections are skipped.
func (p *Publisher) PublishLink(ctx context.Context, document string, result *linker.Result) error {
	if p == nil || p.js == nil {
		return nil // no broker configured
	}
	if result == nil || len(result.Selected) == 0 {
		return nil
	}

	now := time.Now()
	entityID := LinkEntityID(document, result.Path)

	triples := []Triple{
		{
			Subject:    entityID,
			Predicate:  PredicateLinkDocument,
			Object:     document,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  PredicateLinkTarget,
			Object:     result.Path,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  PredicateLinkQuery,
			Object:     result.Query,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
	}

	for _, c := range result.Selected {
		triples = append(triples,
			Triple{
				Subject:    entityID,
				Predicate:  PredicateLinkEntity,
				Object:     c.ID,
				Source:     tripleSource,
				Timestamp:  now,
				Confidence: c.Score,
			},
			Triple{
				Subject:    entityID,
				Predicate:  PredicateLinkLabel,
				Object:     c.Label,
				Source:     tripleSource,
				Timestamp:  now,
				Confidence: c.Score,
			},
			Triple{
				Subject:    entityID,
				Predicate:  PredicateLinkRank,
				Object:     c.Rank,
				Source:     tripleSource,
				Timestamp:  now,
				Confidence: c.Score,
			},
		)
	}

	msg := EntityIngestMessage{
		ID:        entityID,
		Triples:   triples,
		UpdatedAt: now,
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid link entity: %w", err)
	}

	data, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal link entity: %w", err)
	}

	if _, err := p.js.Publish(ctx, IngestSubject, data); err != nil {
		return fmt.Errorf("publish link entity: %w", err)
	}
	return nil
}

// LinkEntityID generates a consistent entity ID for a link.
// Format: semlink.local.link.<document>.<path with / replaced by .>
func LinkEntityID(document, path string) string {
	p := strings.ReplaceAll(path, "/", ".")
	return fmt.Sprintf("semlink.local.link.%s.%s", document, p)
}
