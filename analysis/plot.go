package analysis

import (
	"fmt"
	"path/filepath"

	"github.com/zeu5/forage-rl/util"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// DefaultWindow of the moving average applied to per step rewards
const DefaultWindow = 50

// MovingAverage over the trailing window, shorter at the start
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		window = 1
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

func linePlot(title, xLabel, yLabel string, series map[string][]float64, order []string, savePath string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	for i, name := range order {
		values := series[name]
		points := make(plotter.XYs, len(values))
		for j, v := range values {
			points[j] = plotter.XY{
				X: float64(j),
				Y: v,
			}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("plotting %s: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, savePath)
}

// Plot writes rewards.png, epsilon.png and, when at least one episode
// finished, episodes.png under the recorder directory. It returns the
// written paths.
func (r *Recorder) Plot() ([]string, error) {
	steps := r.Steps()
	episodes := r.Episodes()
	if len(steps) == 0 {
		return nil, nil
	}
	if err := util.EnsureDir(r.fs, r.dir); err != nil {
		return nil, err
	}
	raw, err := r.fs.RawPath(r.dir)
	if err != nil {
		return nil, err
	}

	rewards := make([]float64, len(steps))
	epsilons := make([]float64, len(steps))
	for i, s := range steps {
		rewards[i] = s.Reward
		epsilons[i] = s.Epsilon
	}
	written := make([]string, 0, 3)

	path := filepath.Join(raw, "rewards.png")
	err = linePlot("Reward", "Iteration", "Reward",
		map[string][]float64{
			"reward":     rewards,
			"moving avg": MovingAverage(rewards, DefaultWindow),
		},
		[]string{"reward", "moving avg"}, path)
	if err != nil {
		return written, err
	}
	written = append(written, path)

	path = filepath.Join(raw, "epsilon.png")
	err = linePlot("Exploration", "Iteration", "Epsilon",
		map[string][]float64{"epsilon": epsilons}, []string{"epsilon"}, path)
	if err != nil {
		return written, err
	}
	written = append(written, path)

	if len(episodes) == 0 {
		return written, nil
	}
	lengths := make([]float64, len(episodes))
	returns := make([]float64, len(episodes))
	for i, e := range episodes {
		lengths[i] = float64(e.Steps)
		returns[i] = e.Return
	}
	path = filepath.Join(raw, "episodes.png")
	err = linePlot("Episodes", "Episode", "Value",
		map[string][]float64{"length": lengths, "return": returns},
		[]string{"length", "return"}, path)
	if err != nil {
		return written, err
	}
	written = append(written, path)
	r.logger.Infof("Plots written to %s", raw)
	return written, nil
}
