package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// plotLabelCounts writes a grouped bar chart with one group per client and
// one bar per label, showing how the classes are partitioned across clients.
func plotLabelCounts(outPath string, clientIDs []string, counts map[string]map[int64]int) error {
	if len(clientIDs) == 0 {
		return errors.New("no clients to plot")
	}

	labelSet := make(map[int64]bool)
	for _, c := range counts {
		for label := range c {
			labelSet[label] = true
		}
	}
	labels := make([]int64, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	p := plot.New()
	p.Title.Text = "Images per label and client"
	p.Y.Label.Text = "images"

	barWidth := vg.Points(40 / float64(max(len(labels), 1)))
	for i, label := range labels {
		values := make(plotter.Values, len(clientIDs))
		for j, id := range clientIDs {
			values[j] = float64(counts[id][label])
		}
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = barWidth * vg.Length(float64(i)-float64(len(labels)-1)/2)
		p.Add(bars)
		p.Legend.Add(fmt.Sprintf("label %d", label), bars)
	}
	p.Legend.Top = true
	p.NominalX(clientIDs...)
	p.Add(plotter.NewGrid())

	if err := ensureDir(filepath.Dir(outPath)); err != nil {
		return err
	}
	width := vg.Length(max(6, len(clientIDs))) * vg.Inch
	return p.Save(width, 5*vg.Inch, outPath)
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
