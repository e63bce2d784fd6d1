package weaviate

import (
	"context"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the Weaviate class holding article chunks of every live session.
const ClassName = "ArticleChunk"

// SchemaClient defines the Weaviate schema operations EnsureSchema needs.
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

func chunkProperties() []*models.Property {
	return []*models.Property{
		{Name: "text", DataType: []string{"text"}},
		{Name: "sessionId", DataType: []string{"string"}},
		{Name: "chunkId", DataType: []string{"string"}},
		{Name: "source", DataType: []string{"string"}},
		{Name: "title", DataType: []string{"text"}},
		{Name: "link", DataType: []string{"string"}},
		{Name: "published", DataType: []string{"date"}},
		{Name: "position", DataType: []string{"int"}},
	}
}

// EnsureSchema creates the chunk class, or adds any property an older
// deployment is missing.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	properties := chunkProperties()
	if !exists {
		return client.CreateClass(ctx, &models.Class{
			Class:       ClassName,
			Description: "An overlapping window of a news article's title and summary",
			Vectorizer:  "none",
			Properties:  properties,
		})
	}

	class, err := client.GetClass(ctx, ClassName)
	if err != nil {
		return err
	}

	existing := make(map[string]bool)
	for _, p := range class.Properties {
		existing[p.Name] = true
	}
	for _, p := range properties {
		if !existing[p.Name] {
			if err := client.AddProperty(ctx, ClassName, p); err != nil {
				return err
			}
		}
	}
	return nil
}

type schemaClient struct {
	client *weaviate.Client
}

func (a *schemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	return a.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
}

func (a *schemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	return a.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (a *schemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return a.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
}

func (a *schemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return a.client.Schema().PropertyCreator().WithClassName(className).WithProperty(property).Do(ctx)
}
