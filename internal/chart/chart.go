// Package chart renders forecast series into PNG images.
//
// Every Render call produces its own file; the caller owns it and must
// Close the returned Artifact once the image has been delivered.
package chart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/i474232898/weather-bot/internal/common"
	"github.com/i474232898/weather-bot/internal/weather"
)

const (
	chartTitle  = "Прогноз температуры на неделю"
	xAxisLabel  = "Дата и время"
	yAxisLabel  = "Температура (°C)"
	filePrefix  = "forecast-"
	fileSuffix  = ".png"
	imageFormat = "png"
)

// ErrEmptySeries is returned when there is nothing to plot.
var ErrEmptySeries = errors.New("empty forecast series")

// Artifact is a rendered chart file.
type Artifact struct {
	Path   string
	Points int

	once sync.Once
	err  error
}

// Close removes the file. It is safe to call more than once.
func (a *Artifact) Close() error {
	a.once.Do(func() {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.err = err
		}
	})
	return a.err
}

// Renderer writes charts into a single directory.
type Renderer struct {
	dir    string
	width  vg.Length
	height vg.Length
	now    func() time.Time
}

// NewRenderer creates dir if needed and returns a Renderer writing 10x5 inch images.
func NewRenderer(dir string) (*Renderer, error) {
	if dir == "" {
		return nil, fmt.Errorf("chart directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}
	return &Renderer{
		dir:    dir,
		width:  10 * vg.Inch,
		height: 5 * vg.Inch,
		now:    time.Now,
	}, nil
}

// Dir returns the directory charts are written to.
func (r *Renderer) Dir() string {
	return r.dir
}

// Render plots series in the given order and writes a new PNG file
// named after the session and the request time.
func (r *Renderer) Render(ctx context.Context, sessionID string, series []weather.ForecastPoint) (*Artifact, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, _, err := buildPlot(series)
	if err != nil {
		return nil, err
	}
	wt, err := p.WriterTo(r.width, r.height, imageFormat)
	if err != nil {
		return nil, fmt.Errorf("prepare chart canvas: %w", err)
	}

	name := fmt.Sprintf("%s%s-%d-%s%s", filePrefix, common.SafeKey(sessionID), r.now().UnixNano(), uuid.NewString(), fileSuffix)
	path := filepath.Join(r.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create chart file: %w", err)
	}
	_, writeErr := wt.WriteTo(f)
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write chart file: %w", err)
	}

	return &Artifact{Path: path, Points: len(series)}, nil
}

// Sweep removes chart files older than maxAge and returns how many were removed.
// It catches files left behind when delivery never completed.
func (r *Renderer) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, fmt.Errorf("read chart directory: %w", err)
	}

	cutoff := r.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("chart: failed to remove stale %s: %v", name, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// buildPlot returns the plot together with the exact points it draws.
func buildPlot(series []weather.ForecastPoint) (*plot.Plot, plotter.XYs, error) {
	p := plot.New()
	p.Title.Text = chartTitle
	p.X.Label.Text = xAxisLabel
	p.Y.Label.Text = yAxisLabel

	xys := make(plotter.XYs, len(series))
	labels := make([]string, len(series))
	for i, pt := range series {
		xys[i].X = float64(i)
		xys[i].Y = pt.TemperatureC
		labels[i] = pt.Label
	}

	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, nil, fmt.Errorf("build chart line: %w", err)
	}
	points.Shape = draw.CircleGlyph{}

	p.Add(plotter.NewGrid(), line, points)
	p.NominalX(labels...)

	// Many samples: rotate and shrink the time labels.
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.Font.Size = vg.Points(8)

	return p, xys, nil
}
