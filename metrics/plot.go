package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/tabpipe/pkg/errors"
)

// SaveROCPlot renders one or more named ROC curves to a PNG, with the
// chance diagonal for reference.
func SaveROCPlot(path string, curves map[string][]ROCPoint) error {
	if len(curves) == 0 {
		return errors.NewValueError("SaveROCPlot", "no curves to plot")
	}

	p := plot.New()
	p.Title.Text = "ROC"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = false

	diagonal := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}
	chance, err := plotter.NewLine(diagonal)
	if err != nil {
		return errors.Wrap(err, "SaveROCPlot: chance line")
	}
	chance.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(chance)

	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)

	for k, name := range names {
		points := curves[name]
		xys := make(plotter.XYs, len(points))
		for i, pt := range points {
			xys[i] = plotter.XY{X: pt.FPR, Y: pt.TPR}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "SaveROCPlot: curve %q", name)
		}
		line.Color = plotutil.Color(k)
		p.Add(line)
		p.Legend.Add(name, line)
	}

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrap(err, fmt.Sprintf("SaveROCPlot: save %s", path))
	}
	return nil
}
