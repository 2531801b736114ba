// Package staffimport parses bulk staff uploads. CSV and XLSX are
// supported; rows are validated individually so one bad line never sinks
// the batch.
package staffimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"conicore/internal/domain"
)

// requiredColumns must all be present in the header row. phone and
// department are optional.
var requiredColumns = []string{"name", "email", "role"}

// RowError reports one rejected row. Line numbers are 1-based and include
// the header row, matching what the user sees in a spreadsheet.
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Result is the outcome of one import batch.
type Result struct {
	Imported []domain.StaffMember `json:"imported"`
	Errors   []RowError           `json:"errors"`
	Total    int                  `json:"total"`
}

// ImportCSV parses a comma-separated staff upload for a business.
func ImportCSV(data []byte, businessID, createdBy string) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return importRows(records, businessID, createdBy)
}

// ImportXLSX parses the first sheet of an Excel staff upload.
func ImportXLSX(data []byte, businessID, createdBy string) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedFileType, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return importRows(rows, businessID, createdBy)
}

func importRows(rows [][]string, businessID, createdBy string) (*Result, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("upload must contain a header row and at least one staff row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	var missing []string
	for _, col := range requiredColumns {
		if !contains(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	result := &Result{Total: len(rows) - 1}
	now := time.Now().UTC().Format(time.RFC3339)

	for i, row := range rows[1:] {
		line := i + 2
		fields := map[string]string{}
		for j, value := range row {
			if j < len(header) {
				fields[header[j]] = strings.TrimSpace(value)
			}
		}
		if allEmpty(fields) {
			result.Total--
			continue
		}

		member, err := buildMember(fields, businessID, createdBy, now)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Error: err.Error()})
			continue
		}
		result.Imported = append(result.Imported, member)
	}
	return result, nil
}

func buildMember(fields map[string]string, businessID, createdBy, now string) (domain.StaffMember, error) {
	name := fields["name"]
	if len(name) < 2 {
		return domain.StaffMember{}, fmt.Errorf("name is required and must be at least 2 characters")
	}
	email := strings.ToLower(fields["email"])
	if !validEmail(email) {
		return domain.StaffMember{}, fmt.Errorf("valid email is required")
	}
	roleText := strings.ToLower(fields["role"])
	if roleText == "" {
		return domain.StaffMember{}, fmt.Errorf("role is required")
	}
	role := domain.StaffRole(roleText)
	if !domain.ValidStaffRoles[role] {
		return domain.StaffMember{}, fmt.Errorf("invalid role %q, must be one of: owner, admin, manager, accountant, sales, staff, viewer", roleText)
	}

	return domain.StaffMember{
		ID:          uuid.NewString(),
		BusinessID:  businessID,
		Name:        name,
		Email:       email,
		Role:        role,
		Phone:       fields["phone"],
		Department:  fields["department"],
		Status:      "invited",
		Permissions: domain.RolePermissions[role],
		CreatedAt:   now,
		CreatedBy:   createdBy,
	}, nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 {
		return false
	}
	dot := strings.LastIndex(email, ".")
	return dot > at+1 && dot < len(email)-1
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

func allEmpty(fields map[string]string) bool {
	for _, v := range fields {
		if v != "" {
			return false
		}
	}
	return true
}
