package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/repositories"
	tsclient "github.com/zatekoja/Patientrecordanonymizationdesign/internal/infrastructure/clients/typesense"
)

const collectionName = "stage1_records"

// Stage1IndexAdapter indexes storage-anonymized records in Typesense so
// cohort queries (by demographic bucket or anonymous patient) don't hit
// the primary store.
type Stage1IndexAdapter struct {
	client *tsclient.Client
}

// Ensure Stage1IndexAdapter implements Stage1IndexRepository
var _ repositories.Stage1IndexRepository = (*Stage1IndexAdapter)(nil)

// NewStage1IndexAdapter creates a new Typesense index adapter.
func NewStage1IndexAdapter(client *tsclient.Client) *Stage1IndexAdapter {
	return &Stage1IndexAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *Stage1IndexAdapter) InitSchema(ctx context.Context) error {
	// Check if collection exists
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "batch_id", Type: "string", Facet: pointer.True()},
			{Name: "anonymous_pid", Type: "string", Facet: pointer.True()},
			{Name: "age_range", Type: "string", Facet: pointer.True()},
			{Name: "country", Type: "string", Facet: pointer.True()},
			{Name: "region", Type: "string", Optional: pointer.True()},
			{Name: "gender", Type: "string", Facet: pointer.True()},
			{Name: "occupation_category", Type: "string", Facet: pointer.True()},
			{Name: "lab_test", Type: "string", Optional: pointer.True()},
			{Name: "indexed_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("indexed_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// IndexBatch indexes the Stage-1 output of one batch.
func (a *Stage1IndexAdapter) IndexBatch(ctx context.Context, batchID string, records []*entities.Stage1Record) error {
	now := time.Now().Unix()
	for _, record := range records {
		document := map[string]interface{}{
			"id":                  uuid.New().String(),
			"batch_id":            batchID,
			"anonymous_pid":       record.AnonymousID,
			"age_range":           record.AgeRange,
			"country":             record.Country,
			"region":              record.Region,
			"gender":              record.Gender,
			"occupation_category": record.OccupationCategory,
			"lab_test":            record.Clinical[entities.FieldLabTest],
			"indexed_at":          now,
		}

		_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
		if err != nil {
			return fmt.Errorf("failed to index stage1 record: %w", err)
		}
	}

	return nil
}

// SearchCohort returns indexed records matching a demographic bucket.
func (a *Stage1IndexAdapter) SearchCohort(ctx context.Context, country, ageRange string, limit int) ([]*entities.Stage1Record, error) {
	if limit <= 0 {
		limit = 50
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		QueryBy:  pointer.String("anonymous_pid"),
		FilterBy: pointer.String(fmt.Sprintf("country:=%s && age_range:=%s", country, ageRange)),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search stage1 records: %w", err)
	}

	records := []*entities.Stage1Record{}
	if result.Hits == nil {
		return records, nil
	}
	for _, hit := range *result.Hits {
		doc := *hit.Document

		record := &entities.Stage1Record{
			Clinical: map[string]string{},
		}
		if val, ok := doc["anonymous_pid"].(string); ok {
			record.AnonymousID = val
		}
		if val, ok := doc["age_range"].(string); ok {
			record.AgeRange = val
		}
		if val, ok := doc["country"].(string); ok {
			record.Country = val
		}
		if val, ok := doc["region"].(string); ok {
			record.Region = val
		}
		if val, ok := doc["gender"].(string); ok {
			record.Gender = val
		}
		if val, ok := doc["occupation_category"].(string); ok {
			record.OccupationCategory = val
		}
		if val, ok := doc["lab_test"].(string); ok && val != "" {
			record.Clinical[entities.FieldLabTest] = val
		}

		records = append(records, record)
	}

	return records, nil
}
