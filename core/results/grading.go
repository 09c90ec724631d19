package results

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

var (
	fifty = decimal.NewFromInt(50)
	four  = decimal.NewFromInt(4)

	gradeFloors = []struct {
		floor decimal.Decimal
		grade string
	}{
		{decimal.NewFromInt(81), "A"},
		{decimal.NewFromInt(75), "B"},
		{decimal.NewFromInt(65), "C"},
		{decimal.NewFromInt(55), "D"},
	}

	gradePoints = map[string]decimal.Decimal{
		"A": decimal.NewFromInt(4),
		"B": decimal.NewFromInt(3),
		"C": decimal.NewFromInt(2),
		"D": decimal.NewFromInt(1),
		"F": decimal.Zero,
	}

	gradeComments = map[string]string{
		"A": "VIZURI SANA",
		"B": "VIZURI",
		"C": "WASTANI",
		"D": "HAFIFU",
		"F": "MBAYA",
	}
)

// Score is the mean of the present scores (0 when both are missing), at 2dp.
func Score(test, exam decimal.NullDecimal) decimal.Decimal {
	switch {
	case test.Valid && exam.Valid:
		return test.Decimal.Add(exam.Decimal).Div(decimal.NewFromInt(2)).Round(2)
	case test.Valid:
		return test.Decimal.Round(2)
	case exam.Valid:
		return exam.Decimal.Round(2)
	}
	return decimal.Zero
}

// GradeFor maps an average to A (≥81), B (≥75), C (≥65), D (≥55) or F.
func GradeFor(avg decimal.Decimal) string {
	for _, g := range gradeFloors {
		if avg.GreaterThanOrEqual(g.floor) {
			return g.grade
		}
	}
	return "F"
}

func StatusFor(avg decimal.Decimal) string {
	if avg.GreaterThanOrEqual(fifty) {
		return StatusPass
	}
	return StatusFail
}

func PointsFor(grade string) decimal.Decimal {
	return gradePoints[grade]
}

func CommentFor(grade string) string {
	if c, ok := gradeComments[grade]; ok {
		return c
	}
	return gradeComments["F"]
}

// SubjectGPA is the legacy subject figure avg / 50 × 4, at 3dp.
func SubjectGPA(avg decimal.Decimal) decimal.Decimal {
	return avg.Div(fifty).Mul(four).Round(3)
}

// Mean returns the arithmetic mean of values (0 for none), at the given places.
func Mean(values []decimal.Decimal, places int32) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values)))).Round(places)
}

// DistinctPositions ranks the distinct averages descending; each input gets the 1-based index of
// its average in that list, so 80, 70, 70, 60 rank 1, 2, 2, 3.
func DistinctPositions(avgs []decimal.Decimal) []int {
	distinct := make([]decimal.Decimal, 0, len(avgs))
	for _, a := range avgs {
		found := false
		for _, d := range distinct {
			if d.Equal(a) {
				found = true
				break
			}
		}
		if !found {
			distinct = append(distinct, a)
		}
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i].GreaterThan(distinct[j]) })

	positions := make([]int, len(avgs))
	for i, a := range avgs {
		for j, d := range distinct {
			if d.Equal(a) {
				positions[i] = j + 1
				break
			}
		}
	}
	return positions
}

// TieAveragedPositions gives tied averages the mean of the positions they span,
// so 80, 70, 70, 60 rank 1, 2.5, 2.5, 4 and three equal averages all rank 2.
func TieAveragedPositions(avgs []decimal.Decimal) []decimal.Decimal {
	order := make([]int, len(avgs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return avgs[order[i]].GreaterThan(avgs[order[j]]) })

	positions := make([]decimal.Decimal, len(avgs))
	for start := 0; start < len(order); {
		end := start
		for end+1 < len(order) && avgs[order[end+1]].Equal(avgs[order[start]]) {
			end++
		}
		// ranks start+1 .. end+1
		pos := decimal.NewFromInt(int64(start + end + 2)).Div(decimal.NewFromInt(2))
		for k := start; k <= end; k++ {
			positions[order[k]] = pos
		}
		start = end + 1
	}
	return positions
}
