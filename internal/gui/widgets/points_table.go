package widgets

import (
	"strconv"

	"curve-digitizer/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

var pointColumns = []string{"#", "Pixel X", "Pixel Y", "X", "Y"}

// PointsTable shows extracted points; the first row is the header.
type PointsTable struct {
	table  *widget.Table
	pixels []models.Point
	data   []models.Point
}

func NewPointsTable() *PointsTable {
	pt := &PointsTable{}
	pt.table = widget.NewTable(
		func() (int, int) { return len(pt.pixels) + 1, len(pointColumns) },
		func() fyne.CanvasObject { return widget.NewLabel("000000.000") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(pt.cellText(id.Row, id.Col))
		},
	)
	return pt
}

func (pt *PointsTable) GetContainer() fyne.CanvasObject {
	return pt.table
}

// SetPoints replaces the table contents. data may be nil.
func (pt *PointsTable) SetPoints(pixels, data []models.Point) {
	pt.pixels = pixels
	pt.data = data
	pt.table.Refresh()
}

func (pt *PointsTable) cellText(row, col int) string {
	if row == 0 {
		return pointColumns[col]
	}
	i := row - 1
	if i >= len(pt.pixels) {
		return ""
	}

	switch col {
	case 0:
		return strconv.Itoa(i + 1)
	case 1:
		return strconv.FormatFloat(pt.pixels[i].X, 'f', 2, 64)
	case 2:
		return strconv.FormatFloat(pt.pixels[i].Y, 'f', 2, 64)
	case 3, 4:
		if i >= len(pt.data) {
			return "--"
		}
		if col == 3 {
			return strconv.FormatFloat(pt.data[i].X, 'g', 6, 64)
		}
		return strconv.FormatFloat(pt.data[i].Y, 'g', 6, 64)
	}
	return ""
}
