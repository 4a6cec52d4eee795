// Package importer ingests licence rows from CSV files.
package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/ufsc-france/gestion-backend/internal/licences"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/textkey"
)

// PreviewLimit caps the rows echoed back by a preview.
const PreviewLimit = 50

// DefaultMaxRows bounds a single import.
const DefaultMaxRows = 5000

const (
	colLastName   = "nom"
	colFirstName  = "prenom"
	colEmail      = "email"
	colPhone      = "telephone"
	colBirthDate  = "date_naissance"
	colSex        = "sexe"
	colAddress    = "adresse"
	colCity       = "ville"
	colPostalCode = "code_postal"
)

var requiredColumns = []string{colLastName, colFirstName, colEmail}

// headerAliases maps folded header labels to import columns. Export headers
// are included so an exported file can be imported back.
var headerAliases = map[string]string{
	"nom":               colLastName,
	"last_name":         colLastName,
	"prenom":            colFirstName,
	"first_name":        colFirstName,
	"email":             colEmail,
	"e_mail":            colEmail,
	"telephone":         colPhone,
	"phone":             colPhone,
	"date_naissance":    colBirthDate,
	"date_de_naissance": colBirthDate,
	"birth_date":        colBirthDate,
	"sexe":              colSex,
	"sex":               colSex,
	"adresse":           colAddress,
	"address":           colAddress,
	"ville":             colCity,
	"city":              colCity,
	"code_postal":       colPostalCode,
	"postal_code":       colPostalCode,
}

// RowError points at one invalid field of the source file.
type RowError struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Row is a validated line ready to become a licence.
type Row struct {
	Line  int
	Input licences.CreateLicenceInput
}

// Parsed is the outcome of reading a whole file.
type Parsed struct {
	Headers []string
	Rows    []Row
	Errors  []RowError
	Total   int
	Invalid int
}

// Parse reads a comma separated file whose header names at least nom,
// prenom and email. Header matching ignores case and accents. Blank lines
// are skipped; every other line is validated and either kept or reported.
func Parse(r io.Reader, maxRows int) (*Parsed, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable csv header")
	}

	index := map[string]int{}
	for i, label := range header {
		if col, ok := headerAliases[textkey.Fold(label)]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required columns").
			WithDetails(map[string]any{"missing": missing})
	}

	out := &Parsed{Headers: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed csv")
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		out.Total++
		if out.Total > maxRows {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many rows").
				WithDetails(map[string]any{"max_rows": maxRows})
		}

		row, rowErrs := validateRow(line, func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		})
		if len(rowErrs) > 0 {
			out.Errors = append(out.Errors, rowErrs...)
			out.Invalid++
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func validateRow(line int, get func(string) string) (Row, []RowError) {
	var errs []RowError
	fail := func(field, msg string) {
		errs = append(errs, RowError{Line: line, Field: field, Message: msg})
	}

	last, first, email := get(colLastName), get(colFirstName), get(colEmail)
	if last == "" {
		fail(colLastName, "required")
	}
	if first == "" {
		fail(colFirstName, "required")
	}
	switch {
	case email == "":
		fail(colEmail, "required")
	case !licences.ValidEmail(email):
		fail(colEmail, "invalid email")
	}
	birth := get(colBirthDate)
	if birth != "" && !licences.ValidBirthDate(birth) {
		fail(colBirthDate, "expected YYYY-MM-DD")
	}
	sex := get(colSex)
	if sex != "" {
		if _, ok := licences.ParseSex(sex); !ok {
			fail(colSex, "expected M or F")
		}
	}
	if len(errs) > 0 {
		return Row{}, errs
	}

	return Row{
		Line: line,
		Input: licences.CreateLicenceInput{
			LastName:  last,
			FirstName: first,
			Email:     email,
			PersonInput: licences.PersonInput{
				Phone:      optional(get(colPhone)),
				BirthDate:  optional(birth),
				Sex:        optional(sex),
				Address:    optional(get(colAddress)),
				City:       optional(get(colCity)),
				PostalCode: optional(get(colPostalCode)),
			},
		},
	}, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
