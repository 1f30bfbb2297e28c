package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/repositories"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Patientrecordanonymizationdesign/pkg/errors"
)

const stage1Table = "stage1_records"

// Stage1Adapter implements Stage-1 record persistence in Postgres. The
// table only ever sees anonymized rows; there is no column for any direct
// identifier.
type Stage1Adapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// Ensure Stage1Adapter implements Stage1Repository
var _ repositories.Stage1Repository = (*Stage1Adapter)(nil)

// NewStage1Adapter creates a new stage-1 record adapter.
func NewStage1Adapter(client *postgres.Client) *Stage1Adapter {
	return &Stage1Adapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// SaveBatch inserts the enforced Stage-1 output of one batch.
func (a *Stage1Adapter) SaveBatch(ctx context.Context, batchID, hospitalID string, records []*entities.Stage1Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]interface{}, 0, len(records))
	for _, rec := range records {
		rows = append(rows, goqu.Record{
			"id":                  uuid.New().String(),
			"batch_id":            batchID,
			"hospital_id":         nullable(hospitalID),
			"anonymous_pid":       rec.AnonymousID,
			"age_range":           rec.AgeRange,
			"country":             rec.Country,
			"region":              nullable(rec.Region),
			"gender":              rec.Gender,
			"occupation_category": rec.OccupationCategory,
			"lab_test":            nullable(rec.Clinical[entities.FieldLabTest]),
			"test_date":           nullable(rec.Clinical[entities.FieldTestDate]),
			"diagnosis_date":      nullable(rec.Clinical[entities.FieldDiagnosisDate]),
			"encounter_date":      nullable(rec.Clinical[entities.FieldEncounterDate]),
			"result":              nullable(rec.Clinical[entities.FieldResult]),
			"unit":                nullable(rec.Clinical[entities.FieldUnit]),
			"reference_range":     nullable(rec.Clinical[entities.FieldReferenceRange]),
			"created_at":          now,
		})
	}

	query, args, err := a.db.Insert(stage1Table).Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build stage-1 insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save stage-1 batch", err)
	}

	return nil
}

// ListByBatch returns the stored records of a batch in insertion order.
func (a *Stage1Adapter) ListByBatch(ctx context.Context, batchID string) ([]*entities.Stage1Record, error) {
	return a.list(ctx, goqu.Ex{"batch_id": batchID})
}

// ListByAnonymousID returns all stored records for an anonymous patient.
func (a *Stage1Adapter) ListByAnonymousID(ctx context.Context, anonymousID string) ([]*entities.Stage1Record, error) {
	return a.list(ctx, goqu.Ex{"anonymous_pid": anonymousID})
}

func (a *Stage1Adapter) list(ctx context.Context, where goqu.Ex) ([]*entities.Stage1Record, error) {
	query, args, err := a.db.From(stage1Table).
		Select(
			"anonymous_pid", "age_range", "country", "region", "gender", "occupation_category",
			"lab_test", "test_date", "diagnosis_date", "encounter_date",
			"result", "unit", "reference_range",
		).
		Where(where).
		Order(goqu.I("created_at").Asc(), goqu.I("anonymous_pid").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stage-1 select query", err)
	}

	sqlRows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list stage-1 records", err)
	}
	defer sqlRows.Close()

	var records []*entities.Stage1Record
	for sqlRows.Next() {
		rec := &entities.Stage1Record{}
		var region, labTest, testDate, diagnosisDate, encounterDate, result, unit, refRange sql.NullString

		if err := sqlRows.Scan(
			&rec.AnonymousID, &rec.AgeRange, &rec.Country, &region, &rec.Gender, &rec.OccupationCategory,
			&labTest, &testDate, &diagnosisDate, &encounterDate,
			&result, &unit, &refRange,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan stage-1 record", err)
		}

		rec.Region = region.String
		setClinical(rec, entities.FieldLabTest, labTest)
		setClinical(rec, entities.FieldTestDate, testDate)
		setClinical(rec, entities.FieldDiagnosisDate, diagnosisDate)
		setClinical(rec, entities.FieldEncounterDate, encounterDate)
		setClinical(rec, entities.FieldResult, result)
		setClinical(rec, entities.FieldUnit, unit)
		setClinical(rec, entities.FieldReferenceRange, refRange)

		records = append(records, rec)
	}

	if err := sqlRows.Err(); err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed reading stage-1 rows from %s", stage1Table), err)
	}

	return records, nil
}

func setClinical(rec *entities.Stage1Record, field string, v sql.NullString) {
	if !v.Valid || v.String == "" {
		return
	}
	if rec.Clinical == nil {
		rec.Clinical = make(map[string]string)
	}
	rec.Clinical[field] = v.String
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
