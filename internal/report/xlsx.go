package report

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/employer-resolve/internal/aggregate"
	"github.com/sells-group/employer-resolve/internal/naics"
)

// SheetName is the worksheet WriteXLSX creates.
const SheetName = "Employers"

var xlsxHeader = []string{
	"Rank", "Employer", "Initial Approvals", "Initial Denials",
	"Continuing Approvals", "Continuing Denials", "Total Approvals",
	"Total Denials", "Approval Rate", "Industry Codes", "Industry Sectors",
	"Variants", "Records",
}

// WriteXLSX writes records as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []aggregate.AggregateRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	hdr := sheet.AddRow()
	for _, h := range xlsxHeader {
		hdr.AddCell().SetString(h)
	}

	for i, r := range records {
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetString(r.Canonical)
		row.AddCell().SetInt64(r.InitialApprovals)
		row.AddCell().SetInt64(r.InitialDenials)
		row.AddCell().SetInt64(r.ContinuingApprovals)
		row.AddCell().SetInt64(r.ContinuingDenials)
		row.AddCell().SetInt64(r.TotalApprovals)
		row.AddCell().SetInt64(r.TotalDenials)
		row.AddCell().SetFloat(r.ApprovalRate)
		row.AddCell().SetString(strings.Join(r.IndustryCodes, ", "))
		row.AddCell().SetString(sectorTitles(r.IndustryCodes))
		row.AddCell().SetString(strings.Join(r.Variants, "; "))
		row.AddCell().SetInt(r.Records)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}

func sectorTitles(codes []string) string {
	var titles []string
	for _, c := range codes {
		if t := naics.Title(c); t != "" {
			titles = append(titles, t)
		}
	}
	return strings.Join(titles, "; ")
}
