package sweep

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WriteTable writes the Points as a table with a row per budget
func WriteTable(w io.Writer, points []Point) {
	data := make([][]string, len(points))
	for i, p := range points {
		data[i] = []string{
			strconv.Itoa(p.Budget),
			strconv.Itoa(p.Parameters),
			strconv.FormatFloat(p.Cost, 'f', 4, 64),
			strconv.FormatFloat(100*p.Accuracy, 'f', 2, 64) + "%",
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"BUDGET", "PARAMETERS", "COST", "ACCURACY"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)
	table.AppendBulk(data)
	table.Render()
}

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

func newPlot(points []Point, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "budget"
	p.Y.Label.Text = "accuracy %"
	p.Y.Min, p.Y.Max = 0, 100
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(points))
	for i, pt := range points {
		pts[i].X = float64(pt.Budget)
		pts[i].Y = 100 * pt.Accuracy
	}

	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't plot sweep")
	}
	line.Width = 2
	line.Color = plotutil.Color(0)
	scatter.Color = plotutil.Color(0)

	p.Add(line, scatter)
	p.Legend.Add("test accuracy", line, scatter)
	return p, nil
}

// WritePlot writes an SVG plot of accuracy against budget to w
func WritePlot(w io.Writer, points []Point, title string) error {
	p, err := newPlot(points, title)
	if err != nil {
		return err
	}

	writer, err := p.WriterTo(plotWidth, plotHeight, "svg")
	if err != nil {
		return errors.Wrapf(err, "Error writing plot")
	}

	_, err = writer.WriteTo(w)
	return err
}

// SavePlot saves the plot to a file, in the format given by the file's extension (e.g. ".svg")
func SavePlot(path string, points []Point, title string) error {
	p, err := newPlot(points, title)
	if err != nil {
		return err
	}

	return p.Save(plotWidth, plotHeight, path)
}
