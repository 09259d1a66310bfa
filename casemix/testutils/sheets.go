package testutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// HHRGHeader mirrors the column layout of the HHRG public use file. Columns 8 and up hold
// currency-formatted values.
var HHRGHeader = []interface{}{
	"Prvdr_ID", "Prvdr_Name", "Prvdr_City", "State", "Prvdr_Zip", "Smry_Ctgry", "Grpng", "Grpng_Desc",
	"Tot_Epsd_Stay_Cnt", "Avg_Chrg_Per_Epsd", "Avg_Pymt_Per_Epsd", "Outlier_Note",
}

// HHRGRow builds a row matching HHRGHeader.
func HHRGRow(id, name, state, smry, grouping, desc string, episodes interface{}, charge string) []interface{} {
	return []interface{}{
		id, name, "CHICAGO", state, "60601", smry, grouping, desc,
		episodes, charge, "$1,000.00", "n/a",
	}
}

var CaseMixHeader = []interface{}{
	"Payment Group", "Description", "Clinical, Functional, and Service Levels",
	"2013 HH PPS Case-Mix Weights", "2014 Final HH PPS Case-Mix Weights",
}

func CaseMixRow(group, desc, levels string, weight float64) []interface{} {
	return []interface{}{group, desc, levels, weight - 0.01, weight}
}

// WriteSheet saves rows to a new spreadsheet named name under dir and returns its path.
func WriteSheet(t *testing.T, dir, name string, rows [][]interface{}) string {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}
