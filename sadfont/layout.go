package sadfont

import "image"

// Layout is a grid of Cols x Rows cells, each CellWidth x CellHeight pixels,
// optionally separated (and framed) by LineWidth pixel lines.
type Layout struct {
	Cols, Rows            int
	CellWidth, CellHeight int
	LineWidth             int
}

func (l Layout) Size() image.Point {
	return image.Pt(
		l.Cols*l.CellWidth+(l.Cols+1)*l.LineWidth,
		l.Rows*l.CellHeight+(l.Rows+1)*l.LineWidth,
	)
}

// Cell returns the rectangle of glyph code. The row is not bounded by
// l.Rows, so codes past the last row land below the sheet.
func (l Layout) Cell(code int) image.Rectangle {
	col, row := code%l.Cols, code/l.Cols
	x := col*(l.CellWidth+l.LineWidth) + l.LineWidth
	y := row*(l.CellHeight+l.LineWidth) + l.LineWidth
	return image.Rect(x, y, x+l.CellWidth, y+l.CellHeight)
}

// Lines returns the grid line rectangles, vertical ones first.
func (l Layout) Lines() []image.Rectangle {
	if l.LineWidth <= 0 {
		return nil
	}
	sz := l.Size()
	res := make([]image.Rectangle, 0, l.Cols+l.Rows+2)
	for i := 0; i <= l.Cols; i++ {
		x := i * (l.CellWidth + l.LineWidth)
		res = append(res, image.Rect(x, 0, x+l.LineWidth, sz.Y))
	}
	for i := 0; i <= l.Rows; i++ {
		y := i * (l.CellHeight + l.LineWidth)
		res = append(res, image.Rect(0, y, sz.X, y+l.LineWidth))
	}
	return res
}
