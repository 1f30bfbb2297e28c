package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

// clinicalColumns is the fixed column order for clinical attributes so
// exports are byte-stable across runs.
var clinicalColumns = []string{
	entities.FieldLabTest,
	entities.FieldTestDate,
	entities.FieldDiagnosisDate,
	entities.FieldEncounterDate,
	entities.FieldResult,
	entities.FieldUnit,
	entities.FieldReferenceRange,
}

// CSVExporter writes anonymized records as CSV for downstream analysis.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// WriteStage1 writes storage-anonymized records with a header row.
func (e *CSVExporter) WriteStage1(w io.Writer, records []*entities.Stage1Record) error {
	writer := csv.NewWriter(w)

	header := append([]string{
		"Anonymous PID",
		"Age Range",
		"Country",
		"Region",
		"Gender",
		"Occupation Category",
	}, clinicalColumns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.AnonymousID,
			record.AgeRange,
			record.Country,
			record.Region,
			record.Gender,
			record.OccupationCategory,
		}
		for _, col := range clinicalColumns {
			row = append(row, record.Clinical[col])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteStage2 writes chain-anonymized records with a header row.
func (e *CSVExporter) WriteStage2(w io.Writer, records []*entities.Stage2Record) error {
	writer := csv.NewWriter(w)

	header := append([]string{
		"Anonymous PID",
		"Age Range",
		"Country",
		"Gender",
		"Occupation Category",
	}, clinicalColumns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.AnonymousID,
			record.AgeRange,
			record.Country,
			record.Gender,
			record.OccupationCategory,
		}
		for _, col := range clinicalColumns {
			row = append(row, record.Clinical[col])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
