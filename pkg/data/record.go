package data

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// ErrMissingField means a decoded record omitted a field or sent it as null.
var ErrMissingField = errors.New("data: missing record field")

// Column names of the travel dataset.
const (
	ColAge                    = "Age"
	ColTypeofContact          = "TypeofContact"
	ColCityTier               = "CityTier"
	ColDurationOfPitch        = "DurationOfPitch"
	ColOccupation             = "Occupation"
	ColGender                 = "Gender"
	ColNumberOfPersonVisiting = "NumberOfPersonVisiting"
	ColNumberOfFollowups      = "NumberOfFollowups"
	ColProductPitched         = "ProductPitched"
	ColPreferredPropertyStar  = "PreferredPropertyStar"
	ColMaritalStatus          = "MaritalStatus"
	ColNumberOfTrips          = "NumberOfTrips"
	ColPassport               = "Passport"
	ColPitchSatisfactionScore = "PitchSatisfactionScore"
	ColOwnCar                 = "OwnCar"
	ColNumberOfChildren       = "NumberOfChildrenVisiting"
	ColDesignation            = "Designation"
	ColMonthlyIncome          = "MonthlyIncome"
	ColTotalVisiting          = "TotalVisiting"
	ColProdTaken              = "ProdTaken"
)

// RawRecord is one prospective customer as submitted for inference.
type RawRecord struct {
	Age                      int     `json:"Age" validate:"gte=0,lte=120"`
	TypeofContact            string  `json:"TypeofContact" validate:"required"`
	CityTier                 int     `json:"CityTier" validate:"gte=1,lte=3"`
	DurationOfPitch          float64 `json:"DurationOfPitch" validate:"gte=0"`
	Occupation               string  `json:"Occupation" validate:"required"`
	Gender                   string  `json:"Gender" validate:"required"`
	NumberOfPersonVisiting   int     `json:"NumberOfPersonVisiting" validate:"gte=0"`
	NumberOfFollowups        float64 `json:"NumberOfFollowups" validate:"gte=0"`
	ProductPitched           string  `json:"ProductPitched" validate:"required"`
	PreferredPropertyStar    float64 `json:"PreferredPropertyStar" validate:"gte=0,lte=5"`
	MaritalStatus            string  `json:"MaritalStatus" validate:"required"`
	NumberOfTrips            float64 `json:"NumberOfTrips" validate:"gte=0"`
	Passport                 int     `json:"Passport" validate:"oneof=0 1"`
	PitchSatisfactionScore   int     `json:"PitchSatisfactionScore" validate:"gte=0,lte=5"`
	OwnCar                   int     `json:"OwnCar" validate:"oneof=0 1"`
	NumberOfChildrenVisiting float64 `json:"NumberOfChildrenVisiting" validate:"gte=0"`
	Designation              string  `json:"Designation" validate:"required"`
	MonthlyIncome            float64 `json:"MonthlyIncome" validate:"gte=0"`

	missing []string // fields absent from the decoded JSON
}

// recordFields are the JSON keys every request must carry.
var recordFields = []string{
	ColAge, ColTypeofContact, ColCityTier, ColDurationOfPitch, ColOccupation, ColGender,
	ColNumberOfPersonVisiting, ColNumberOfFollowups, ColProductPitched, ColPreferredPropertyStar,
	ColMaritalStatus, ColNumberOfTrips, ColPassport, ColPitchSatisfactionScore, ColOwnCar,
	ColNumberOfChildren, ColDesignation, ColMonthlyIncome,
}

// UnmarshalJSON decodes the record and notes every field that is absent or null.
func (r *RawRecord) UnmarshalJSON(b []byte) error {
	type plain RawRecord
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	present := make(map[string]bool, len(raw))
	for k, v := range raw {
		if !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			present[strings.ToLower(k)] = true
		}
	}

	*r = RawRecord(p)
	r.missing = nil
	for _, name := range recordFields {
		if !present[strings.ToLower(name)] {
			r.missing = append(r.missing, name)
		}
	}
	return nil
}

// Missing lists the fields a decoded record did not carry.
func (r *RawRecord) Missing() []string { return r.missing }

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks that every field is populated and in range.
func (r *RawRecord) Validate() error {
	if len(r.missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(r.missing, ", "))
	}
	validateOnce.Do(func() { validate = validator.New() })
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("data: invalid record: %w", err)
	}
	return nil
}

// Frame returns the record as a single-row frame, columns in dataset order.
func (r *RawRecord) Frame() *Frame {
	num := func(name string, v float64) *Column { return NewNumeric(name, []float64{v}) }
	cat := func(name, v string) *Column { return NewCategorical(name, []string{v}) }

	f, _ := NewFrame(
		num(ColAge, float64(r.Age)),
		cat(ColTypeofContact, r.TypeofContact),
		num(ColCityTier, float64(r.CityTier)),
		num(ColDurationOfPitch, r.DurationOfPitch),
		cat(ColOccupation, r.Occupation),
		cat(ColGender, r.Gender),
		num(ColNumberOfPersonVisiting, float64(r.NumberOfPersonVisiting)),
		num(ColNumberOfFollowups, r.NumberOfFollowups),
		cat(ColProductPitched, r.ProductPitched),
		num(ColPreferredPropertyStar, r.PreferredPropertyStar),
		cat(ColMaritalStatus, r.MaritalStatus),
		num(ColNumberOfTrips, r.NumberOfTrips),
		num(ColPassport, float64(r.Passport)),
		num(ColPitchSatisfactionScore, float64(r.PitchSatisfactionScore)),
		num(ColOwnCar, float64(r.OwnCar)),
		num(ColNumberOfChildren, r.NumberOfChildrenVisiting),
		cat(ColDesignation, r.Designation),
		num(ColMonthlyIncome, r.MonthlyIncome),
	)
	return f
}
