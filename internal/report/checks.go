package report

import (
	"math"

	"pisaetl/internal/record"
)

// IDsWeights summarizes identifier integrity and sampling weights.
type IDsWeights struct {
	N            int
	HasStudentID bool
	HasSchoolID  bool
	// DuplicateIDs counts every row whose student id appears more than once.
	DuplicateIDs    int
	NullSchoolIDs   int
	DistinctSchools int
	HasWeight       bool
	WeightNull      int
	WeightNonPos    int
	WeightSum       float64
}

// CheckIDsWeights inspects the id and weight columns of t.
func CheckIDsWeights(t *record.Table, f Fields) IDsWeights {
	r := IDsWeights{
		N:            t.Len(),
		HasStudentID: t.HasColumn(f.StudentID),
		HasSchoolID:  t.HasColumn(f.SchoolID),
		HasWeight:    t.HasColumn(f.Weight),
	}
	if r.HasStudentID {
		counts := make(map[string]int, r.N)
		for _, v := range t.Column(f.StudentID) {
			if !v.IsNull() {
				counts[v.Text()]++
			}
		}
		for _, c := range counts {
			if c > 1 {
				r.DuplicateIDs += c
			}
		}
	}
	if r.HasSchoolID {
		schools := make(map[string]struct{})
		for _, v := range t.Column(f.SchoolID) {
			if v.IsNull() {
				r.NullSchoolIDs++
				continue
			}
			schools[v.Text()] = struct{}{}
		}
		r.DistinctSchools = len(schools)
	}
	if r.HasWeight {
		for _, v := range t.Column(f.Weight) {
			w, ok := num(v)
			if !ok {
				r.WeightNull++
				continue
			}
			if w <= 0 {
				r.WeightNonPos++
			}
			r.WeightSum += w
		}
	}
	return r
}

// Section renders r. Checks whose column is absent are omitted.
func (r IDsWeights) Section() Section {
	s := Section{
		{"has_student_id", r.HasStudentID},
		{"has_school_id", r.HasSchoolID},
	}
	if r.HasStudentID {
		s = append(s, Item{"student_id_duplicates", r.DuplicateIDs}, Item{"student_id_duplicates_%", Pct(r.DuplicateIDs, r.N)})
	}
	if r.HasSchoolID {
		s = append(s,
			Item{"school_id_null", r.NullSchoolIDs},
			Item{"school_id_null_%", Pct(r.NullSchoolIDs, r.N)},
			Item{"distinct_schools", r.DistinctSchools},
		)
	}
	if r.HasWeight {
		s = append(s,
			Item{"weight_null_%", Pct(r.WeightNull, r.N)},
			Item{"weight_non_positive_%", Pct(r.WeightNonPos, r.N)},
			Item{"weight_sum", r.WeightSum},
		)
	} else {
		s = append(s, Item{"weight_null_%", nil}, Item{"weight_non_positive_%", nil}, Item{"weight_sum", nil})
	}
	return s
}

// FieldShare is the share of one field's rows matching a condition.
type FieldShare struct {
	Field string
	Count int
	Pct   float64
}

// Sentinels summarizes missing-value codes and range violations.
type Sentinels struct {
	// Codes holds, per sentinel field present, rows coded -9..-5.
	Codes []FieldShare
	// ESCSOutOfRange is nil when ESCS is absent.
	ESCSOutOfRange *FieldShare
	// PVMissing counts non-numeric cells over all PV columns present; nil
	// when there are none.
	PVMissing *FieldShare
}

// CheckSentinels scans t for PISA missing codes and implausible values.
func CheckSentinels(t *record.Table, f Fields) Sentinels {
	var r Sentinels
	n := t.Len()
	for _, field := range f.Sentinel {
		if !t.HasColumn(field) {
			continue
		}
		var codes, out int
		for _, v := range t.Column(field) {
			x, ok := num(v)
			if !ok {
				continue
			}
			if isSentinel(x) {
				codes++
			}
			if field == f.ESCS && (x < escsMin || x > escsMax) {
				out++
			}
		}
		r.Codes = append(r.Codes, FieldShare{Field: field, Count: codes, Pct: Pct(codes, n)})
		if field == f.ESCS {
			r.ESCSOutOfRange = &FieldShare{Field: field, Count: out, Pct: Pct(out, n)}
		}
	}

	var present, bad int
	for _, pv := range f.PVs {
		if !t.HasColumn(pv) {
			continue
		}
		present++
		for _, v := range t.Column(pv) {
			if _, ok := num(v); !ok {
				bad++
			}
		}
	}
	if present > 0 {
		r.PVMissing = &FieldShare{Field: "PV", Count: bad, Pct: Pct(bad, n*present)}
	}
	return r
}

func isSentinel(x float64) bool {
	return x == math.Trunc(x) && x >= -9 && x <= -5
}

// Section renders r.
func (r Sentinels) Section() Section {
	var s Section
	for _, c := range r.Codes {
		s = append(s, Item{c.Field + "_sentinels_%", c.Pct})
	}
	if r.ESCSOutOfRange != nil {
		s = append(s, Item{"escs_out_of_range_%", r.ESCSOutOfRange.Pct})
	}
	if r.PVMissing != nil {
		s = append(s, Item{"pv_missing_values_%", r.PVMissing.Pct})
	}
	return s
}

// Coverage relates student rows to the school table.
type Coverage struct {
	StudentSchools int
	Schools        int
	// Matched counts student rows whose school id exists in the school table.
	Matched  int
	Students int
}

// CheckCoverage joins students to schools on field.
func CheckCoverage(students, schools *record.Table, field string) Coverage {
	known := make(map[string]struct{}, schools.Len())
	for _, v := range schools.Column(field) {
		if !v.IsNull() {
			known[v.Text()] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	var c Coverage
	c.Schools = len(known)
	for _, v := range students.Column(field) {
		if v.IsNull() {
			continue
		}
		c.Students++
		seen[v.Text()] = struct{}{}
		if _, ok := known[v.Text()]; ok {
			c.Matched++
		}
	}
	c.StudentSchools = len(seen)
	return c
}

// Section renders c.
func (c Coverage) Section() Section {
	return Section{
		{"schools_in_students", c.StudentSchools},
		{"schools_in_schools", c.Schools},
		{"match_%", Pct(c.Matched, c.Students)},
		{"matched_rows", c.Matched},
	}
}
