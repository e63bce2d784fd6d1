package weaviate

import (
	"context"
	"fmt"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"governai/internal/index"
)

// Store keeps session chunks in Weaviate. Every object carries its session ID
// so searches and deletes never cross sessions.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return EnsureSchema(ctx, &schemaClient{client: s.client})
}

func (s *Store) Add(ctx context.Context, sessionID string, chunks []index.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}
	for i, c := range chunks {
		_, err := s.client.Data().Creator().
			WithClassName(ClassName).
			WithProperties(map[string]interface{}{
				"text":      c.Text,
				"sessionId": sessionID,
				"chunkId":   c.ID,
				"source":    c.Source,
				"title":     c.Title,
				"link":      c.Link,
				"published": c.Published.UTC().Format(time.RFC3339),
				"position":  c.Position,
			}).
			WithVector(vectors[i]).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("store chunk %d: %w", i, err)
		}
	}
	return nil
}

func sessionFilter(sessionID string) *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{"sessionId"}).
		WithOperator(filters.Equal).
		WithValueString(sessionID)
}

func (s *Store) Search(ctx context.Context, sessionID string, vector []float32, k int) ([]index.ScoredChunk, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "chunkId"},
		{Name: "source"},
		{Name: "title"},
		{Name: "link"},
		{Name: "published"},
		{Name: "position"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(ClassName).
		WithNearVector(nearVector).
		WithWhere(sessionFilter(sessionID)).
		WithLimit(k).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	var results []index.ScoredChunk
	data, _ := res.Data["Get"].(map[string]interface{})
	rows, _ := data[ClassName].([]interface{})
	for _, row := range rows {
		props, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		results = append(results, toScoredChunk(props))
	}
	return results, nil
}

func toScoredChunk(props map[string]interface{}) index.ScoredChunk {
	var sc index.ScoredChunk
	sc.Text, _ = props["text"].(string)
	sc.ID, _ = props["chunkId"].(string)
	sc.Source, _ = props["source"].(string)
	sc.Title, _ = props["title"].(string)
	sc.Link, _ = props["link"].(string)
	if p, ok := props["published"].(string); ok {
		if t, err := time.Parse(time.RFC3339, p); err == nil {
			sc.Published = t.UTC()
		}
	}
	if pos, ok := props["position"].(float64); ok {
		sc.Position = int(pos)
	}
	if additional, ok := props["_additional"].(map[string]interface{}); ok {
		// cosine distance: similarity = 1 - distance
		switch d := additional["distance"].(type) {
		case float64:
			sc.Score = float32(1 - d)
		case string:
			var f float64
			if _, err := fmt.Sscanf(d, "%f", &f); err == nil {
				sc.Score = float32(1 - f)
			}
		}
	}
	return sc
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(ClassName).
		WithOutput("minimal").
		WithWhere(sessionFilter(sessionID)).
		Do(ctx)
	return err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(ClassName).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	agg, _ := res.Data["Aggregate"].(map[string]interface{})
	rows, _ := agg[ClassName].([]interface{})
	if len(rows) == 0 {
		return 0, nil
	}
	row, _ := rows[0].(map[string]interface{})
	meta, _ := row["meta"].(map[string]interface{})
	count, _ := meta["count"].(float64)
	return int(count), nil
}
