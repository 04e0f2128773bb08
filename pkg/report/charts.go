// Package report renders segmentation charts as PNG images.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/model"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/segment"
)

const size = 5 * vg.Inch

// SilhouetteChart plots silhouette against segment count and marks the chosen k.
func SilhouetteChart(meta *segment.Metadata) ([]byte, error) {
	if len(meta.Candidates) == 0 {
		return nil, errors.New("report: no candidate segment counts")
	}
	p := plot.New()
	p.Title.Text = "Silhouette by segment count"
	p.X.Label.Text = "k"
	p.Y.Label.Text = "silhouette"

	pts := make(plotter.XYs, len(meta.Candidates))
	for i, c := range meta.Candidates {
		pts[i] = plotter.XY{X: float64(c.K), Y: c.Silhouette}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("report: silhouette line: %w", err)
	}
	line.LineStyle.Width = vg.Points(2)
	p.Add(line, points)

	chosen, err := plotter.NewScatter(plotter.XYs{{X: float64(meta.ChosenCount), Y: meta.QualityScore}})
	if err != nil {
		return nil, fmt.Errorf("report: chosen marker: %w", err)
	}
	chosen.Color = color.RGBA{R: 255, A: 255}
	chosen.Shape = draw.CircleGlyph{}
	chosen.Radius = vg.Points(5)
	p.Add(chosen)
	p.Legend.Add(fmt.Sprintf("chosen k=%d", meta.ChosenCount), chosen)

	return render(p)
}

// SegmentScatter projects X onto its first two principal components and plots each
// segment in its own colour, with centroids as crosses.
func SegmentScatter(X [][]float64, labels []int, centroids [][]float64, seed int64) ([]byte, error) {
	if len(X) != len(labels) {
		return nil, errors.New("report: rows and labels differ in length")
	}
	pca := model.NewPCA(2, 100, seed)
	if err := pca.Fit(X); err != nil {
		return nil, fmt.Errorf("report: pca: %w", err)
	}
	proj, err := pca.Transform(X)
	if err != nil {
		return nil, fmt.Errorf("report: pca: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Customer segments (first two principal components)"
	p.X.Label.Text = "PC1"
	p.Y.Label.Text = "PC2"

	for k := range centroids {
		pts := make(plotter.XYs, 0)
		for i, l := range labels {
			if l == k {
				pts = append(pts, plotter.XY{X: proj[i][0], Y: proj[i][1]})
			}
		}
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("report: segment %d: %w", k, err)
		}
		s.Color = plotutil.Color(k)
		s.Radius = vg.Points(1.5)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("segment %d", k), s)
	}

	if len(centroids) > 0 {
		cproj, err := pca.Transform(centroids)
		if err != nil {
			return nil, fmt.Errorf("report: pca centroids: %w", err)
		}
		centroidPts := make(plotter.XYs, len(cproj))
		for i, c := range cproj {
			centroidPts[i] = plotter.XY{X: c[0], Y: c[1]}
		}
		c, err := plotter.NewScatter(centroidPts)
		if err != nil {
			return nil, fmt.Errorf("report: centroids: %w", err)
		}
		c.Color = color.RGBA{A: 255}
		c.Shape = draw.CrossGlyph{}
		c.Radius = vg.Points(5)
		p.Add(c)
	}
	return render(p)
}

func render(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(size, size, "png")
	if err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	return buf.Bytes(), nil
}
