// Package datatest builds synthetic travel datasets for tests.
package datatest

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand"
	"strconv"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
)

var (
	contacts     = []string{"Company Invited", "Self Enquiry"}
	occupations  = []string{"Free Lancer", "Large Business", "Salaried", "Small Business"}
	genders      = []string{"Female", "Male"}
	products     = []string{"Basic", "Deluxe", "King", "Standard", "Super Deluxe"}
	maritals     = []string{"Divorced", "Married", "Single", "Unmarried"}
	designations = []string{"AVP", "Executive", "Manager", "Senior Manager", "VP"}
)

// Frame returns n rows with the raw travel schema plus CustomerID and ProdTaken.
// ProdTaken follows a linear rule on Passport, Designation and NumberOfTrips, so a
// linear model can learn it. About 3% of Age and TypeofContact values are missing.
func Frame(n int, seed int64) *data.Frame {
	rnd := rand.New(rand.NewSource(seed))
	pickStr := func(xs []string) string { return xs[rnd.Intn(len(xs))] }

	id := make([]float64, n)
	age := make([]float64, n)
	contact := make([]string, n)
	tier := make([]float64, n)
	pitch := make([]float64, n)
	occupation := make([]string, n)
	gender := make([]string, n)
	persons := make([]float64, n)
	followups := make([]float64, n)
	product := make([]string, n)
	star := make([]float64, n)
	marital := make([]string, n)
	trips := make([]float64, n)
	passport := make([]float64, n)
	satisfaction := make([]float64, n)
	car := make([]float64, n)
	children := make([]float64, n)
	designation := make([]string, n)
	income := make([]float64, n)
	target := make([]float64, n)

	for i := 0; i < n; i++ {
		id[i] = float64(200000 + i)
		age[i] = float64(18 + rnd.Intn(45))
		contact[i] = pickStr(contacts)
		if rnd.Float64() < 0.03 {
			age[i] = math.NaN()
			contact[i] = ""
		}
		tier[i] = float64(1 + rnd.Intn(3))
		pitch[i] = float64(5 + rnd.Intn(30))
		occupation[i] = pickStr(occupations)
		gender[i] = pickStr(genders)
		persons[i] = float64(1 + rnd.Intn(4))
		followups[i] = float64(1 + rnd.Intn(6))
		product[i] = pickStr(products)
		star[i] = float64(3 + rnd.Intn(3))
		marital[i] = pickStr(maritals)
		trips[i] = float64(1 + rnd.Intn(7))
		if rnd.Float64() < 0.35 {
			passport[i] = 1
		}
		satisfaction[i] = float64(1 + rnd.Intn(5))
		car[i] = float64(rnd.Intn(2))
		children[i] = float64(rnd.Intn(3))
		designation[i] = pickStr(designations)
		income[i] = 15000 + rnd.Float64()*25000

		score := 2 * passport[i]
		if designation[i] == "Executive" {
			score += 1.5
		}
		if trips[i] > 3 {
			score += 0.5
		}
		if score > 2.2 {
			target[i] = 1
		}
	}

	f, err := data.NewFrame(
		data.NewNumeric("CustomerID", id),
		data.NewNumeric(data.ColProdTaken, target),
		data.NewNumeric(data.ColAge, age),
		data.NewCategorical(data.ColTypeofContact, contact),
		data.NewNumeric(data.ColCityTier, tier),
		data.NewNumeric(data.ColDurationOfPitch, pitch),
		data.NewCategorical(data.ColOccupation, occupation),
		data.NewCategorical(data.ColGender, gender),
		data.NewNumeric(data.ColNumberOfPersonVisiting, persons),
		data.NewNumeric(data.ColNumberOfFollowups, followups),
		data.NewCategorical(data.ColProductPitched, product),
		data.NewNumeric(data.ColPreferredPropertyStar, star),
		data.NewCategorical(data.ColMaritalStatus, marital),
		data.NewNumeric(data.ColNumberOfTrips, trips),
		data.NewNumeric(data.ColPassport, passport),
		data.NewNumeric(data.ColPitchSatisfactionScore, satisfaction),
		data.NewNumeric(data.ColOwnCar, car),
		data.NewNumeric(data.ColNumberOfChildren, children),
		data.NewCategorical(data.ColDesignation, designation),
		data.NewNumeric(data.ColMonthlyIncome, income),
	)
	if err != nil {
		panic(err)
	}
	return f.Drop("CustomerID")
}

// Record is the reference inference record.
func Record() *data.RawRecord {
	return &data.RawRecord{
		Age:                      34,
		TypeofContact:            "Self Inquiry",
		CityTier:                 1,
		DurationOfPitch:          8.0,
		Occupation:               "Salaried",
		Gender:                   "Male",
		NumberOfPersonVisiting:   3,
		NumberOfFollowups:        4.0,
		ProductPitched:           "Basic",
		PreferredPropertyStar:    3.0,
		MaritalStatus:            "Married",
		NumberOfTrips:            2.0,
		Passport:                 1,
		PitchSatisfactionScore:   3,
		OwnCar:                   1,
		NumberOfChildrenVisiting: 1.0,
		Designation:              "Executive",
		MonthlyIncome:            20000.0,
	}
}

// WriteCSV writes f with a header row. Missing values become empty cells.
func WriteCSV(w io.Writer, f *data.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Names()); err != nil {
		return err
	}
	row := make([]string, len(f.Columns()))
	for i := 0; i < f.Len(); i++ {
		for j, c := range f.Columns() {
			switch {
			case c.IsMissing(i):
				row[j] = ""
			case c.Kind == data.Categorical:
				row[j] = c.Cat[i]
			default:
				row[j] = strconv.FormatFloat(c.Num[i], 'f', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
