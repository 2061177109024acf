package visual

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/wonny/fairaudit/internal/audit"
	"github.com/wonny/fairaudit/internal/classification"
	"github.com/wonny/fairaudit/internal/describe"
	"github.com/wonny/fairaudit/internal/mitigation"
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorOrange,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorCyan,
	chart.ColorYellow,
}

func colorAt(i int) drawing.Color { return palette[i%len(palette)] }

// Renderer draws audit charts as PNG.
type Renderer struct {
	Height int
	log    zerolog.Logger
}

// NewRenderer creates a renderer
func NewRenderer(log zerolog.Logger) *Renderer {
	return &Renderer{
		Height: 480,
		log:    log.With().Str("component", "visual.renderer").Logger(),
	}
}

// =============================================================================
// Exploratory
// =============================================================================

// GroupCounts draws the number of records per group.
func (r *Renderer) GroupCounts(w io.Writer, s *describe.Summary) error {
	bars := make([]chart.Value, 0, len(s.Groups))
	for i, g := range s.Groups {
		bars = append(bars, bar(g.Value, float64(g.Count), i))
	}
	return r.bars(w, fmt.Sprintf("Records by %s", s.Attribute), bars)
}

// GroupMeans draws the per-group mean of field with the overall mean as the last bar.
func (r *Renderer) GroupMeans(w io.Writer, s *describe.Summary, field describe.Field, title string) error {
	bars := make([]chart.Value, 0, len(s.Groups)+1)
	for i, g := range s.RankBy(field) {
		bars = append(bars, bar(g.Value, g.Means[field], i))
	}
	overall := chart.Value{
		Label: "overall",
		Value: s.Overall[field],
		Style: chart.Style{FillColor: chart.ColorBlack, StrokeColor: chart.ColorBlack},
	}
	return r.bars(w, title, append(bars, overall))
}

// ScoreDistribution draws one line per group: share of the group at each score.
func (r *Renderer) ScoreDistribution(w io.Writer, dists []*describe.Distribution) error {
	if len(dists) == 0 {
		return fmt.Errorf("no distributions to draw")
	}

	series := make([]chart.Series, 0, len(dists))
	maxShare := 0.0
	for i, d := range dists {
		total := 0
		for _, c := range d.Counts {
			total += c
		}

		xs := make([]float64, len(d.Counts))
		ys := make([]float64, len(d.Counts))
		for j, c := range d.Counts {
			xs[j] = float64(d.Min + j)
			if total > 0 {
				ys[j] = float64(c) / float64(total)
			}
			maxShare = math.Max(maxShare, ys[j])
		}

		series = append(series, chart.ContinuousSeries{
			Name:    d.Group.Value,
			Style:   chart.Style{StrokeColor: colorAt(i), StrokeWidth: 2},
			XValues: xs,
			YValues: ys,
		})
	}

	graph := chart.Chart{
		Title:  "Score distribution by group",
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20},
		},
		XAxis: chart.XAxis{
			Name:  "score",
			Range: &chart.ContinuousRange{Min: float64(dists[0].Min), Max: float64(dists[0].Max)},
		},
		YAxis: chart.YAxis{
			Name:  "share of group",
			Range: &chart.ContinuousRange{Min: 0, Max: upper(maxShare)},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// =============================================================================
// Error rates / Mitigation
// =============================================================================

// ErrorRates draws FPR and FNR side by side for every group.
func (r *Renderer) ErrorRates(w io.Writer, metrics []classification.GroupMetrics) error {
	bars := make([]chart.Value, 0, 2*len(metrics))
	for i, m := range metrics {
		bars = append(bars,
			bar(m.Group.Value+" FPR", m.FalsePositiveRate, i),
			bar(m.Group.Value+" FNR", m.FalseNegativeRate, i))
	}
	return r.bars(w, "False positive / false negative rate", bars)
}

// Mitigation draws SPD and DI before and after reweighing.
func (r *Renderer) Mitigation(w io.Writer, res *mitigation.Result) error {
	bars := []chart.Value{
		bar("SPD before", res.Before.StatisticalParityDifference, 0),
		bar("SPD after", res.After.StatisticalParityDifference, 1),
		bar("DI before", res.Before.DisparateImpact, 0),
		bar("DI after", res.After.DisparateImpact, 1),
	}
	return r.bars(w, "Fairness before and after reweighing", bars)
}

// =============================================================================
// Report
// =============================================================================

// WriteAll renders every chart the report has data for into dir and returns
// the written paths.
func (r *Renderer) WriteAll(dir string, report *audit.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	type job struct {
		name string
		draw func(io.Writer) error
	}
	var jobs []job

	if s := report.Descriptive; s != nil {
		jobs = append(jobs,
			job{"exploratory_counts.png", func(w io.Writer) error { return r.GroupCounts(w, s) }},
			job{"exploratory_recidivism.png", func(w io.Writer) error {
				return r.GroupMeans(w, s, describe.FieldGroundTruth, "Recidivism rate by group")
			}},
			job{"exploratory_scores.png", func(w io.Writer) error {
				return r.GroupMeans(w, s, describe.FieldScore, "Mean score by group")
			}},
		)
	}
	if len(report.Distributions) > 0 {
		jobs = append(jobs, job{"score_distribution.png", func(w io.Writer) error {
			return r.ScoreDistribution(w, report.Distributions)
		}})
	}
	if len(report.ErrorRates) > 0 {
		jobs = append(jobs, job{"error_rates.png", func(w io.Writer) error {
			return r.ErrorRates(w, report.ErrorRates)
		}})
	}
	if report.Mitigation != nil {
		jobs = append(jobs, job{"mitigation.png", func(w io.Writer) error {
			return r.Mitigation(w, report.Mitigation)
		}})
	}

	paths := make([]string, 0, len(jobs))
	for _, j := range jobs {
		path := filepath.Join(dir, j.name)
		if err := writeFile(path, j.draw); err != nil {
			return paths, fmt.Errorf("render %s: %w", j.name, err)
		}
		paths = append(paths, path)
	}

	r.log.Info().Str("dir", dir).Int("charts", len(paths)).Msg("charts written")
	return paths, nil
}

// =============================================================================
// Internal
// =============================================================================

func (r *Renderer) bars(w io.Writer, title string, bars []chart.Value) error {
	if len(bars) == 0 {
		return fmt.Errorf("%s: nothing to draw", title)
	}

	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}

	graph := chart.BarChart{
		Title:  title,
		Height: r.Height,
		Width:  max(640, 110*len(bars)),
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth:     60,
		UseBaseValue: lo < 0,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo * 1.1, Max: upper(hi)},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

func bar(label string, value float64, colorIndex int) chart.Value {
	c := colorAt(colorIndex)
	return chart.Value{
		Label: label,
		Value: value,
		Style: chart.Style{FillColor: c, StrokeColor: c},
	}
}

// upper pads v by 10% so the tallest bar does not touch the frame.
// go-chart rejects a zero-height range, so an all-zero chart gets a unit axis.
func upper(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v * 1.1
}

func writeFile(path string, draw func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := draw(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
