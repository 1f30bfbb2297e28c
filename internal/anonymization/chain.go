package anonymization

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
)

// chainDateFields are the clinical date fields rounded to month precision
// for the immutable ledger representation.
var chainDateFields = []string{
	entities.FieldTestDate,
	entities.FieldDiagnosisDate,
	entities.FieldEncounterDate,
}

// chainOccupationKeywords maps Stage-1 occupation categories (and looser
// labels such as "Healthcare Worker") onto the broader chain buckets.
var chainOccupationKeywords = []struct {
	Bucket   string
	Keywords []string
}{
	{OccupationHealthcare, []string{"health", "medic"}},
	{OccupationEducation, []string{"educat", "teach"}},
	{OccupationGovernment, []string{"govern", "public"}},
	{OccupationBusiness, []string{"business", "financ", "trade"}},
	{OccupationAgriculture, []string{"agricultur", "farm"}},
	{OccupationTechnology, []string{"technolog", "engineer"}},
	{OccupationService, []string{"service"}},
	{OccupationStudent, []string{"student"}},
	{OccupationNotEmployed, []string{"not employed", "unemployed", "retired"}},
	{OccupationUnknown, []string{"unknown"}},
}

// ChainGeneralize derives the chain (Stage-2) representation from a stored
// Stage-1 record. Every transform is a strict further-generalization or an
// exact copy; a missing Stage-1 field passes through untouched rather than
// raising, so a partially populated record still chains.
func ChainGeneralize(rec *entities.Stage1Record) *entities.Stage2Record {
	out := &entities.Stage2Record{
		AnonymousID:        rec.AnonymousID,
		AgeRange:           WidenAgeRange(rec.AgeRange),
		Country:            rec.Country,
		Gender:             rec.Gender,
		OccupationCategory: CoarsenOccupation(rec.OccupationCategory),
	}
	// Region/district granularity is dropped entirely; only country remains.

	if len(rec.Clinical) > 0 {
		out.Clinical = make(map[string]string, len(rec.Clinical))
		for k, v := range rec.Clinical {
			out.Clinical[k] = v
		}
		for _, field := range chainDateFields {
			if v, ok := out.Clinical[field]; ok {
				out.Clinical[field] = RoundDateToMonth(v)
			}
		}
		if v, ok := out.Clinical[entities.FieldResult]; ok {
			out.Clinical[entities.FieldResult] = RoundResult(v)
		}
	}

	return out
}

// WidenAgeRange recomputes a 5-year storage bucket as a 10-year chain
// bucket: "<1" widens to "<10", "90+" is already terminal, "L-U" becomes
// floor(L/10)*10 through +9. The transform is idempotent and anything
// unparseable (including an absent range) passes through unchanged.
func WidenAgeRange(ageRange string) string {
	s := strings.TrimSpace(ageRange)
	switch s {
	case "":
		return ageRange
	case "<1", "<10":
		return "<10"
	case "90+":
		return "90+"
	}

	bounds := strings.SplitN(s, "-", 2)
	if len(bounds) != 2 {
		return ageRange
	}
	lower, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return ageRange
	}
	if _, err := strconv.Atoi(strings.TrimSpace(bounds[1])); err != nil {
		return ageRange
	}

	low := (lower / 10) * 10
	return fmt.Sprintf("%d-%d", low, low+9)
}

// UnparseableDates reports which clinical date fields of a record will
// pass through chain generalization unchanged because their values cannot
// be parsed.
func UnparseableDates(rec *entities.Stage1Record) []string {
	var fields []string
	for _, field := range chainDateFields {
		v := strings.TrimSpace(rec.Clinical[field])
		if v == "" {
			continue
		}
		if _, ok := ParseDate(v); !ok {
			fields = append(fields, field)
		}
	}
	return fields
}

// RoundDateToMonth rounds a date to YYYY-MM. Unparseable dates pass
// through unchanged; an already month-precision value is left alone.
func RoundDateToMonth(raw string) string {
	s := strings.TrimSpace(raw)
	if t, ok := ParseDate(s); ok {
		return t.Format("2006-01")
	}
	return raw
}

// CoarsenOccupation maps a Stage-1 occupation label onto the broader chain
// bucket via keyword match. Unmatched non-empty labels become Other; empty
// passes through.
func CoarsenOccupation(category string) string {
	text := strings.ToLower(strings.TrimSpace(category))
	if text == "" {
		return category
	}
	for _, b := range chainOccupationKeywords {
		for _, kw := range b.Keywords {
			if strings.Contains(text, kw) {
				return b.Bucket
			}
		}
	}
	return OccupationOther
}

// RoundResult rounds a numeric result: 2 decimals below 1, 1 decimal below
// 10, nearest integer otherwise. Non-numeric results pass through.
func RoundResult(raw string) string {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return raw
	}

	switch abs := math.Abs(v); {
	case abs < 1:
		return strconv.FormatFloat(math.Round(v*100)/100, 'f', 2, 64)
	case abs < 10:
		return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
	default:
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
}
