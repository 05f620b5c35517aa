package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is the two-valued classification of a dance video. The numeric
// values are the codes stored in the category column.
type Category int

const (
	CategoryTagged   Category = 0
	CategoryUntagged Category = 1
)

const (
	labelTagged   = "tagged"
	labelUntagged = "untagged"
)

// Categories returns both categories in code order.
func Categories() []Category {
	return []Category{CategoryTagged, CategoryUntagged}
}

// Label returns the human label stored next to the code.
func (c Category) Label() string {
	switch c {
	case CategoryTagged:
		return labelTagged
	case CategoryUntagged:
		return labelUntagged
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

func (c Category) String() string { return c.Label() }

// Valid reports whether c is one of the two known categories.
func (c Category) Valid() bool {
	return c == CategoryTagged || c == CategoryUntagged
}

// Opposite returns the other category.
func (c Category) Opposite() Category {
	if c == CategoryTagged {
		return CategoryUntagged
	}
	return CategoryTagged
}

// ParseCategory resolves a category from its label ("tagged", "untagged").
func ParseCategory(label string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case labelTagged:
		return CategoryTagged, nil
	case labelUntagged:
		return CategoryUntagged, nil
	default:
		return 0, fmt.Errorf("unknown category label %q", label)
	}
}

// MarshalText encodes a category as its label.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown category code %d", int(c))
	}
	return []byte(c.Label()), nil
}

// UnmarshalText decodes a category label.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// parseCategoryCode accepts integer codes and integral floats ("1.0"), which
// is how spreadsheet tools tend to rewrite nullable integer columns.
func parseCategoryCode(code string) (Category, error) {
	code = strings.TrimSpace(code)
	n, err := strconv.Atoi(code)
	if err != nil {
		f, ferr := strconv.ParseFloat(code, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("invalid category code %q", code)
		}
		n = int(f)
	}
	c := Category(n)
	if !c.Valid() {
		return 0, fmt.Errorf("unknown category code %d", n)
	}
	return c, nil
}

// DanceType is the closed set of dance behaviours a video can show.
type DanceType string

const (
	DanceWaggle  DanceType = "waggle"
	DanceRound   DanceType = "round"
	DanceTremble DanceType = "tremble"
	DanceMixed   DanceType = "mixed"
	DanceOther   DanceType = "other"
)

// DefaultDanceType is the "no correction needed" selection. Saving it clears
// corrected_dance_type.
const DefaultDanceType = DanceWaggle

// DanceTypes returns every dance type in display order.
func DanceTypes() []DanceType {
	return []DanceType{DanceWaggle, DanceRound, DanceTremble, DanceMixed, DanceOther}
}

// Valid reports whether d is a known dance type.
func (d DanceType) Valid() bool {
	switch d {
	case DanceWaggle, DanceRound, DanceTremble, DanceMixed, DanceOther:
		return true
	}
	return false
}

// ParseDanceType resolves a dance type case-insensitively.
func ParseDanceType(s string) (DanceType, error) {
	d := DanceType(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown dance type %q", s)
	}
	return d, nil
}

// Record is one row of the dataset file. A nil CorrectedCategory means the
// record carries no category correction; code and label are always written
// together from it.
type Record struct {
	DayDanceID         string
	WaggleID           string
	Category           Category
	Confidence         string
	CorrectedCategory  *Category
	DanceType          DanceType
	CorrectedDanceType *DanceType

	// extra holds values of unrecognised columns so they survive a save.
	extra []string
}

// EffectiveCategory is the corrected category if set, else the original.
func (r *Record) EffectiveCategory() Category {
	if r.CorrectedCategory != nil {
		return *r.CorrectedCategory
	}
	return r.Category
}

// EffectiveDanceType is the corrected dance type if set, else the original.
// An empty original means the default.
func (r *Record) EffectiveDanceType() DanceType {
	if r.CorrectedDanceType != nil {
		return *r.CorrectedDanceType
	}
	if r.DanceType == "" {
		return DefaultDanceType
	}
	return r.DanceType
}

// IsCategoryCorrected reports whether a category correction is present.
func (r *Record) IsCategoryCorrected() bool {
	return r.CorrectedCategory != nil
}

// SetCorrectedCategory records a category override.
func (r *Record) SetCorrectedCategory(c Category) {
	r.CorrectedCategory = &c
}

// ClearCorrectedCategory removes the category override.
func (r *Record) ClearCorrectedCategory() {
	r.CorrectedCategory = nil
}

// ApplyDanceType stores a reviewer's dance type selection. The default
// selection clears the correction, anything else sets it.
func (r *Record) ApplyDanceType(d DanceType) {
	if d == DefaultDanceType {
		r.CorrectedDanceType = nil
		return
	}
	r.CorrectedDanceType = &d
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	out := *r
	if r.CorrectedCategory != nil {
		c := *r.CorrectedCategory
		out.CorrectedCategory = &c
	}
	if r.CorrectedDanceType != nil {
		d := *r.CorrectedDanceType
		out.CorrectedDanceType = &d
	}
	out.extra = append([]string(nil), r.extra...)
	return &out
}
