package school

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
)

// ImportHeader lists the columns accepted by ImportStudents, in their canonical order.
var ImportHeader = []string{
	"registration_number", "surname", "firstname", "middle_name", "gender", "category",
	"guardian1_mobile_number", "guardian2_mobile_number", "has_nhif", "nhif_source", "nhif_number",
	"address", "current_class", "alumni_session",
}

var requiredImportColumns = []string{"registration_number", "surname", "firstname", "gender", "category"}

// RowError reports why a CSV line was not imported. Line is 1-based and counts the header.
type RowError struct {
	Line  int    `json:"line"`
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

type ImportResult struct {
	Created []Student  `json:"created"`
	Errors  []RowError `json:"errors"`
}

// closestName returns the known column most similar to name, or "" when nothing is close.
func closestName(name string, known []string) string {
	best, bestRatio := "", 0.6
	for _, k := range known {
		m := difflib.NewMatcher(strings.Split(name, ""), strings.Split(k, ""))
		if r := m.Ratio(); r > bestRatio {
			best, bestRatio = k, r
		}
	}
	return best
}

// parseImportHeader maps column names to their index. Unknown or missing columns fail the whole import.
func parseImportHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	var flds []core.FieldError
	for i, col := range header {
		col = core.CleanString(strings.TrimPrefix(col, "\ufeff"), true /* lower */)
		known := false
		for _, k := range ImportHeader {
			if k == col {
				known = true
				break
			}
		}
		if !known {
			msg := fmt.Sprintf("unknown column %q", col)
			if hint := closestName(col, ImportHeader); hint != "" {
				msg += fmt.Sprintf(", did you mean %q?", hint)
			}
			flds = append(flds, core.FieldError{Field: col, Error: msg})
			continue
		}
		idx[col] = i
	}
	for _, col := range requiredImportColumns {
		if _, ok := idx[col]; !ok {
			flds = append(flds, core.FieldError{Field: col, Error: "missing column"})
		}
	}
	if len(flds) > 0 {
		return nil, core.NewValidationError(errors.New("invalid CSV header"), flds...)
	}
	return idx, nil
}

// ImportStudents creates the students listed in a CSV document.
// Rows that fail validation are reported and skipped; the valid ones are created in one transaction.
func (svc *Service) ImportStudents(ctx context.Context, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return ImportResult{}, core.NewFieldError("file", "the file is empty")
		}
		return ImportResult{}, errors.Wrap(err, "reading CSV header")
	}
	idx, err := parseImportHeader(header)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Created: []Student{}, Errors: []RowError{}}
	err = svc.tx.InTx(ctx, func(ctx context.Context) error {
		classes, err := svc.repo.ListClasses(ctx)
		if err != nil {
			return err
		}
		classByName := make(map[string]int64, len(classes))
		for _, c := range classes {
			classByName[strings.ToLower(c.Name)] = c.ID
		}
		sessions, err := svc.repo.ListPeriods(ctx, KindSession)
		if err != nil {
			return err
		}
		sessionByName := make(map[string]int64, len(sessions))
		for _, s := range sessions {
			sessionByName[strings.ToLower(s.Name)] = s.ID
		}
		seen := make(map[string]int)

		line := 1
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			line++
			if err != nil {
				res.Errors = append(res.Errors, RowError{Line: line, Error: err.Error()})
				continue
			}
			get := func(col string) string {
				if i, ok := idx[col]; ok && i < len(record) {
					return core.CleanString(record[i])
				}
				return ""
			}

			in := StudentInput{
				RegistrationNumber: get("registration_number"),
				Surname:            get("surname"),
				Firstname:          get("firstname"),
				MiddleName:         get("middle_name"),
				Gender:             strings.ToUpper(get("gender")),
				Category:           strings.ToLower(get("category")),
				Guardian1Mobile:    get("guardian1_mobile_number"),
				Guardian2Mobile:    get("guardian2_mobile_number"),
				NHIFSource:         strings.ToLower(get("nhif_source")),
				NHIFNumber:         get("nhif_number"),
				Address:            get("address"),
			}
			if v := get("has_nhif"); v != "" {
				if in.HasNHIF, err = strconv.ParseBool(strings.ToLower(v)); err != nil {
					res.Errors = append(res.Errors, RowError{Line: line, Field: "has_nhif", Error: "must be true or false"})
					continue
				}
			}
			if name := get("current_class"); name != "" {
				id, ok := classByName[strings.ToLower(name)]
				if !ok {
					res.Errors = append(res.Errors, RowError{Line: line, Field: "current_class", Error: fmt.Sprintf("unknown class %q", name)})
					continue
				}
				in.ClassID = null.Int64From(id)
			}
			if name := get("alumni_session"); name != "" {
				id, ok := sessionByName[strings.ToLower(name)]
				if !ok {
					res.Errors = append(res.Errors, RowError{Line: line, Field: "alumni_session", Error: fmt.Sprintf("unknown session %q", name)})
					continue
				}
				in.AlumniSessionID = null.Int64From(id)
			}

			if err = in.Validate(svc.validate); err != nil {
				res.Errors = append(res.Errors, rowErrors(line, err)...)
				continue
			}
			if prev, dup := seen[in.RegistrationNumber]; dup {
				res.Errors = append(res.Errors, RowError{
					Line:  line,
					Field: "registration_number",
					Error: fmt.Sprintf("duplicates line %d", prev),
				})
				continue
			}
			seen[in.RegistrationNumber] = line
			if _, err = svc.repo.GetStudentByRegNo(ctx, in.RegistrationNumber); err == nil {
				res.Errors = append(res.Errors, RowError{Line: line, Field: "registration_number", Error: ErrStudentExists.Error()})
				continue
			} else if errors.Cause(err) != ErrStudentNotFound {
				return err
			}

			now := core.NowFunc().UTC()
			std := Student{CreatedAt: now}
			applyStudentInput(&std, in, now)
			std, err = svc.repo.CreateStudent(ctx, std)
			if err != nil {
				return errors.Wrapf(err, "importing line %d", line)
			}
			res.Created = append(res.Created, std)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	svc.logger.Info(fmt.Sprintf("imported %d students (%d rejected rows)", len(res.Created), len(res.Errors)))
	return res, nil
}

func rowErrors(line int, err error) []RowError {
	switch verr := errors.Cause(err).(type) {
	case *core.ValidationError:
		out := make([]RowError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			out = append(out, RowError{Line: line, Field: f.Field, Error: f.Error})
		}
		return out
	case validator.ValidationErrors:
		out := make([]RowError, 0, len(verr))
		for _, fe := range verr {
			msg := fmt.Sprintf("failed the %q rule", fe.Tag())
			if fe.Tag() == "required" {
				msg = "this field is required"
			}
			out = append(out, RowError{Line: line, Field: fe.Field(), Error: msg})
		}
		return out
	}
	return []RowError{{Line: line, Error: err.Error()}}
}
