package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

// JSONExporter writes batch output as indented JSON.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// WriteBatchResult writes the full batch output, provenance included.
func (e *JSONExporter) WriteBatchResult(w io.Writer, result *entities.BatchResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode batch result: %w", err)
	}
	return nil
}

// WriteProvenance writes only the provenance records of a batch.
func (e *JSONExporter) WriteProvenance(w io.Writer, records []*entities.ProvenanceRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to encode provenance records: %w", err)
	}
	return nil
}
