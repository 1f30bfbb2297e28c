package anonymization

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientrecordanonymizationdesign/pkg/errors"
)

// Gender buckets.
const (
	GenderMale    = "Male"
	GenderFemale  = "Female"
	GenderOther   = "Other"
	GenderUnknown = "Unknown"
)

// Occupation category buckets. Free-text occupations are keyword-matched
// into one of these; anything else non-empty becomes Other.
const (
	OccupationHealthcare  = "Healthcare"
	OccupationEducation   = "Education"
	OccupationGovernment  = "Government"
	OccupationBusiness    = "Business"
	OccupationAgriculture = "Agriculture"
	OccupationTechnology  = "Technology"
	OccupationService     = "Service"
	OccupationStudent     = "Student"
	OccupationNotEmployed = "Not Employed"
	OccupationOther       = "Other"
	OccupationUnknown     = "Unknown"
)

// countryKeywords maps a country to city/keyword substrings found in
// address-like fields. Ordered; first match wins. Country names themselves
// are included so "Kampala, Uganda" and plain "Uganda" both resolve.
var countryKeywords = []struct {
	Country  string
	Keywords []string
}{
	{"Uganda", []string{"uganda", "kampala", "entebbe", "jinja", "gulu", "mbarara", "mbale"}},
	{"Kenya", []string{"kenya", "nairobi", "mombasa", "kisumu", "nakuru", "eldoret"}},
	{"Tanzania", []string{"tanzania", "dar es salaam", "dodoma", "arusha", "mwanza", "zanzibar"}},
	{"Rwanda", []string{"rwanda", "kigali", "butare", "gisenyi"}},
	{"Nigeria", []string{"nigeria", "lagos", "abuja", "kano", "ibadan", "port harcourt"}},
	{"Ghana", []string{"ghana", "accra", "kumasi", "tamale"}},
	{"Ethiopia", []string{"ethiopia", "addis ababa", "dire dawa"}},
	{"South Africa", []string{"south africa", "johannesburg", "cape town", "durban", "pretoria"}},
	{"India", []string{"india", "mumbai", "delhi", "bangalore", "chennai", "kolkata"}},
	{"United Kingdom", []string{"united kingdom", "london", "manchester", "birmingham", "glasgow"}},
	{"United States", []string{"united states", "usa", "new york", "chicago", "los angeles", "houston"}},
}

// occupationKeywords maps category buckets to substrings matched against
// lowercased free text. Ordered so the more specific buckets win.
var occupationKeywords = []struct {
	Category string
	Keywords []string
}{
	{OccupationStudent, []string{"student", "pupil", "undergraduate"}},
	{OccupationNotEmployed, []string{"not employed", "unemployed", "jobless", "retired", "none"}},
	{OccupationHealthcare, []string{"health", "doctor", "nurse", "medic", "clinic", "pharmac", "midwife", "dentist", "surgeon"}},
	{OccupationEducation, []string{"teach", "educat", "school", "lecturer", "professor", "tutor"}},
	{OccupationGovernment, []string{"government", "civil servant", "public servant", "police", "soldier", "army", "minister"}},
	{OccupationAgriculture, []string{"farm", "agricultur", "fisher", "herds"}},
	{OccupationTechnology, []string{"software", "engineer", "developer", "technolog", "programmer", " it ", "data"}},
	{OccupationBusiness, []string{"business", "trader", "merchant", "entrepreneur", "accountant", "banker", "financ", "sales"}},
	{OccupationService, []string{"driver", "waiter", "waitress", "cleaner", "security", "chef", "cook", "retail", "service", "hairdresser"}},
}

// Demographics holds the four generalized quasi-identifiers attached to a
// Stage-1 record.
type Demographics struct {
	AgeRange           string
	Country            string
	Gender             string
	OccupationCategory string
}

// Generalizer derives generalized demographics from canonical raw fields.
// The clock is injectable so age-from-birth-date is testable.
type Generalizer struct {
	now func() time.Time
}

// NewGeneralizer creates a generalizer using the wall clock.
func NewGeneralizer() *Generalizer {
	return &Generalizer{now: time.Now}
}

// NewGeneralizerAt creates a generalizer with a fixed reference time.
func NewGeneralizerAt(now time.Time) *Generalizer {
	return &Generalizer{now: func() time.Time { return now }}
}

// Generalize derives the demographic tuple for one canonical record.
// Age range and country are required and fail with a missing-attribute
// error when unresolvable; gender and occupation never fail.
func (g *Generalizer) Generalize(rec entities.RawRecord, hctx entities.HospitalContext) (Demographics, error) {
	age, err := g.resolveAge(rec)
	if err != nil {
		return Demographics{}, err
	}

	country, err := resolveCountry(rec, hctx)
	if err != nil {
		return Demographics{}, err
	}

	return Demographics{
		AgeRange:           GeneralizeAge(age),
		Country:            country,
		Gender:             NormalizeGender(rec.Get(entities.FieldGender)),
		OccupationCategory: CategorizeOccupation(rec.Get(entities.FieldOccupation)),
	}, nil
}

// resolveAge prefers a numeric Age field and falls back to calendar-aware
// subtraction from the birth date.
func (g *Generalizer) resolveAge(rec entities.RawRecord) (int, error) {
	if raw := rec.Get(entities.FieldAge); raw != "" {
		if age, err := strconv.Atoi(raw); err == nil && age >= 0 {
			return age, nil
		}
	}

	if raw := rec.Get(entities.FieldDateOfBirth); raw != "" {
		if dob, ok := ParseDate(raw); ok {
			now := g.now()
			age := now.Year() - dob.Year()
			// Decrement if the birthday has not yet occurred this year.
			if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
				age--
			}
			if age >= 0 {
				return age, nil
			}
		}
	}

	return 0, apperrors.NewMissingAttributeError("record has no resolvable age: no numeric age and no parseable birth date")
}

// GeneralizeAge maps an age to its 5-year storage bucket: "<1" below one,
// "90+" from ninety up, otherwise "L-L+4" with L = floor(age/5)*5.
func GeneralizeAge(age int) string {
	switch {
	case age < 1:
		return "<1"
	case age >= 90:
		return "90+"
	default:
		lower := (age / 5) * 5
		return fmt.Sprintf("%d-%d", lower, lower+4)
	}
}

// resolveCountry extracts a country from the address field via the keyword
// dictionary, falling back to the hospital context.
func resolveCountry(rec entities.RawRecord, hctx entities.HospitalContext) (string, error) {
	if addr := strings.ToLower(rec.Get(entities.FieldAddress)); addr != "" {
		for _, c := range countryKeywords {
			for _, kw := range c.Keywords {
				if strings.Contains(addr, kw) {
					return c.Country, nil
				}
			}
		}
	}

	if country := strings.TrimSpace(hctx.Country); country != "" {
		return country, nil
	}

	return "", apperrors.NewMissingAttributeError("record has no resolvable country: no address match and no hospital default")
}

// NormalizeGender maps free text to Male, Female, Other or Unknown. Any
// other non-empty value passes through as-is; empty becomes Unknown.
func NormalizeGender(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return GenderUnknown
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	case "other", "o":
		return GenderOther
	default:
		return strings.TrimSpace(raw)
	}
}

// CategorizeOccupation keyword-matches free text into a category bucket.
// Non-empty unmatched text becomes Other; empty becomes Unknown.
func CategorizeOccupation(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return OccupationUnknown
	}

	// Pad so word-boundary keywords like " it " can match at the edges.
	padded := " " + text + " "
	for _, oc := range occupationKeywords {
		for _, kw := range oc.Keywords {
			if strings.Contains(padded, kw) {
				return oc.Category
			}
		}
	}
	return OccupationOther
}

// dateLayouts recognized across birth dates and clinical dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseDate attempts the recognized layouts in order.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
