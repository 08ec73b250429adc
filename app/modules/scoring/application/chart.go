package scoringservice

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	chartBackground = drawing.ColorFromHex("f7f5ef")
	chartBar        = drawing.ColorFromHex("2f6f4f")
	chartText       = drawing.ColorFromHex("1d1d1b")
)

// maxChartBars keeps labels legible on large competitions.
const maxChartBars = 20

// StandingsChart renders the leading rosters' totals as a PNG bar chart.
func (s *ScoringService) StandingsChart(ctx context.Context, competitionID uuid.UUID) ([]byte, error) {
	standings, err := s.Standings(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return renderStandingsChart(standings)
}

func renderStandingsChart(standings []Standing) ([]byte, error) {
	if len(standings) == 0 {
		return renderNoStandings()
	}
	if len(standings) > maxChartBars {
		standings = standings[:maxChartBars]
	}

	top := 1.0
	bars := make([]chart.Value, 0, len(standings))
	for _, st := range standings {
		label := fmt.Sprintf("%d. %s", st.Rank, st.OwnerID)
		if st.Provisional {
			label += "*"
		}
		bars = append(bars, chart.Value{
			Label: label,
			Value: float64(st.TotalPoints),
			Style: chart.Style{FillColor: chartBar, StrokeColor: chartBar},
		})
		if v := float64(st.TotalPoints); v > top {
			top = v
		}
	}

	graph := chart.BarChart{
		Title:      "Standings",
		Width:      960,
		Height:     480,
		BarWidth:   32,
		Background: chart.Style{FillColor: chartBackground},
		Canvas:     chart.Style{FillColor: chartBackground},
		XAxis:      chart.Style{FontColor: chartText},
		YAxis: chart.YAxis{
			Name:  "Points",
			Style: chart.Style{FontColor: chartText},
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render standings chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func renderNoStandings() ([]byte, error) {
	const msg = "No standings yet"

	graph := chart.Chart{
		Width:      400,
		Height:     200,
		Background: chart.Style{FillColor: chartBackground},
		Canvas:     chart.Style{FillColor: chartBackground},
		XAxis:      chart.XAxis{Style: chart.Hidden()},
		YAxis:      chart.YAxis{Style: chart.Hidden()},
		Series: []chart.Series{
			// go-chart renders nothing without a visible series.
			chart.ContinuousSeries{
				Style:   chart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: 1},
				XValues: []float64{0, 1},
				YValues: []float64{0, 1},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
				r.SetFont(defaults.Font)
				r.SetFontColor(chartText)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				r.Text(msg, (cb.Width()-tb.Width())/2, (cb.Height()+tb.Height())/2)
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render placeholder chart: %w", err)
	}
	return buffer.Bytes(), nil
}
