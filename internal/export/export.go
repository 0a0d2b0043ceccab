// Package export renders a batch of resume records as CSV or XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/muhammadolammi/resumeextract/internal/resume"
)

const (
	// Filename is the name the CSV export is offered under.
	Filename = "resume_analysis.csv"
	// XLSXFilename is the name the spreadsheet export is offered under.
	XLSXFilename = "resume_analysis.xlsx"

	// SkillSeparator joins skills inside one cell. Skills never contain ';'
	// because the extractor splits on it.
	SkillSeparator = "; "
)

// Columns is the header row, in output order.
var Columns = []string{
	"name",
	"email",
	"phone",
	"skills",
	"experience_summary",
	"education",
	"linkedin",
	"github",
}

// Row flattens rec in Columns order. Line breaks inside a cell are written as
// "\n", so a table read back with ReadCSV carries no "\r\n".
func Row(rec resume.ResumeRecord) []string {
	row := []string{
		rec.Name,
		rec.Email,
		rec.Phone,
		strings.Join(rec.Skills, SkillSeparator),
		rec.ExperienceSummary,
		rec.Education,
		rec.LinkedIn,
		rec.GitHub,
	}
	for i, cell := range row {
		row[i] = crlf.Replace(cell)
	}
	return row
}

var crlf = strings.NewReplacer("\r\n", "\n")

// WriteCSV writes the header and one row per record. Fields holding commas,
// quotes or newlines are quoted.
func WriteCSV(w io.Writer, records []resume.ResumeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(Row(rec)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV renders records to UTF-8 CSV bytes.
func CSV(records []resume.ResumeRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadCSV parses output of WriteCSV back into records.
func ReadCSV(r io.Reader) ([]resume.ResumeRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i, col := range Columns {
		if header[i] != col {
			return nil, fmt.Errorf("csv header: column %d is %q, want %q", i+1, header[i], col)
		}
	}

	records := []resume.ResumeRecord{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
		records = append(records, resume.ResumeRecord{
			Name:              row[0],
			Email:             row[1],
			Phone:             row[2],
			Skills:            splitSkills(row[3]),
			ExperienceSummary: row[4],
			Education:         row[5],
			LinkedIn:          row[6],
			GitHub:            row[7],
		})
	}
}

func splitSkills(cell string) []string {
	skills := []string{}
	if cell == "" {
		return skills
	}
	for _, s := range strings.Split(cell, strings.TrimSpace(SkillSeparator)) {
		skills = append(skills, strings.TrimSpace(s))
	}
	return skills
}

// XLSX renders records to a workbook with a single "Resumes" sheet.
func XLSX(records []resume.ResumeRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Resumes"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	write := func(col, row int, v string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}
	for i, h := range Columns {
		if err := write(i+1, 1, h); err != nil {
			return nil, err
		}
	}
	for r, rec := range records {
		for c, v := range Row(rec) {
			if err := write(c+1, r+2, v); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 18) // name
	_ = f.SetColWidth(sheet, "B", "C", 28) // email, phone
	_ = f.SetColWidth(sheet, "D", "D", 40) // skills
	_ = f.SetColWidth(sheet, "E", "F", 60) // summary, education
	_ = f.SetColWidth(sheet, "G", "H", 40) // links

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
