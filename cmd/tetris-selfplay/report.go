package main

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/plus3/tetrisai/agent"
	"github.com/plus3/tetrisai/tetris"
)

type Report struct {
	// Configuration
	Episodes int
	Workers  int
	Policy   string
	Width    int
	Height   int
	Duration time.Duration
	Output   string

	// Results
	Played     int
	TotalTime  time.Duration
	Score      Stats[int]
	Lines      Stats[int]
	Pieces     Stats[int]
	Reward     Stats[float64]
	LineCounts [tetris.MaxLinesPerPiece]int
	Turns      int64
	PolicyTime agent.StageStats
	ApplyTime  agent.StageStats
}

type number interface {
	~int | ~int64 | ~float64
}

type Stats[T number] struct {
	Min     T
	Max     T
	Avg     float64
	Samples []T
}

func (s *Stats[T]) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total float64
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += float64(sample)
	}
	s.Avg = total / float64(len(s.Samples))
}

// Add folds the worker results into the report and finalizes its stats.
func (r *Report) Add(results []WorkerResult) {
	var stats *agent.DriverStats
	for _, res := range results {
		for i, ep := range res.Episodes {
			r.Played++
			r.Score.Samples = append(r.Score.Samples, ep.Score)
			r.Lines.Samples = append(r.Lines.Samples, ep.Lines)
			r.Pieces.Samples = append(r.Pieces.Samples, ep.Pieces)
			r.Reward.Samples = append(r.Reward.Samples, res.Rewards[i])
			for k, n := range ep.LineCounts {
				r.LineCounts[k] += n
			}
		}
		if res.Stats != nil {
			stats = mergeStats(stats, res.Stats)
		}
	}
	r.Score.Finalize()
	r.Lines.Finalize()
	r.Pieces.Finalize()
	r.Reward.Finalize()
	if stats != nil {
		r.Turns = stats.Turns
		r.PolicyTime = stats.Policy
		r.ApplyTime = stats.Apply
	}
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Tetris Self-Play Report

## Configuration
- **Board:** {{.Width}}x{{.Height}}
- **Policy:** {{.Policy}}
- **Workers:** {{.Workers}}
- **Episodes Requested:** {{.Episodes}}
{{- if .Duration}}
- **Time Limit:** {{.Duration}}
{{- end}}
- **Dataset:** {{.Output}}

## Results
- **Episodes Played:** {{.Played}}
- **Total Turns:** {{.Turns}}
- **Total Time:** {{.TotalTime}}
- **Score:** avg {{f2 .Score.Avg}}, min {{.Score.Min}}, max {{.Score.Max}}
- **Lines:** avg {{f2 .Lines.Avg}}, min {{.Lines.Min}}, max {{.Lines.Max}}
- **Pieces:** avg {{f2 .Pieces.Avg}}, min {{.Pieces.Min}}, max {{.Pieces.Max}}
- **Reward:** avg {{f2 .Reward.Avg}}, min {{f2 .Reward.Min}}, max {{f2 .Reward.Max}}
- **Clears:** single {{index .LineCounts 0}}, double {{index .LineCounts 1}}, triple {{index .LineCounts 2}}, four {{index .LineCounts 3}}

## Turn Latency
- **Policy:** avg {{.PolicyTime.AvgDuration}}, min {{.PolicyTime.MinDuration}}, max {{.PolicyTime.MaxDuration}}
- **Apply + Enumerate:** avg {{.ApplyTime.AvgDuration}}, min {{.ApplyTime.MinDuration}}, max {{.ApplyTime.MaxDuration}}
`

	fm := template.FuncMap{
		"f2": func(v float64) string {
			return fmt.Sprintf("%.2f", v)
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
