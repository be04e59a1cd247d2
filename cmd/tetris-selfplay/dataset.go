package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/plus3/tetrisai/agent"
	"github.com/plus3/tetrisai/tetris"
)

var featureNames = [tetris.FeatureCount]string{"lines", "height", "bumpiness", "holes"}

// Dataset appends one CSV row per played turn: every action's feature
// vector, the chosen action, the lines it cleared and the episode id.
// Writes from concurrent workers are serialised.
type Dataset struct {
	mu      sync.Mutex
	f       *os.File
	w       *csv.Writer
	actions int
	rows    int
}

// OpenDataset opens path for appending and writes the header if the file is
// empty.
func OpenDataset(path string, actions int) (*Dataset, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	d := &Dataset{f: f, w: csv.NewWriter(f), actions: actions}
	if info.Size() == 0 {
		if err := d.write([][]string{Header(actions)}); err != nil {
			f.Close()
			return nil, err
		}
		d.rows = 0
	}
	return d, nil
}

// Header returns the column names for a board with the given action count.
func Header(actions int) []string {
	header := make([]string, 0, actions*tetris.FeatureCount+3)
	for a := range actions {
		col, rot := tetris.DecodeAction(a)
		for _, name := range featureNames {
			header = append(header, fmt.Sprintf("c%d_r%d_%s", col, rot, name))
		}
	}
	return append(header, "action", "lines", "episode")
}

func (d *Dataset) write(rows [][]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, row := range rows {
		if err := d.w.Write(row); err != nil {
			return err
		}
	}
	d.w.Flush()
	if err := d.w.Error(); err != nil {
		return err
	}
	d.rows += len(rows)
	return nil
}

// Rows returns the number of turn rows written so far.
func (d *Dataset) Rows() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rows
}

// Close flushes and closes the file.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.w.Flush()
	if err := d.w.Error(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}

// Observer returns an observer buffering the rows of one episode.
func (d *Dataset) Observer(episode int) *DatasetObserver {
	return &DatasetObserver{dataset: d, episode: strconv.Itoa(episode)}
}

// DatasetObserver buffers rows until Commit, so an episode cut short never
// ends up half written.
type DatasetObserver struct {
	dataset *Dataset
	episode string
	rows    [][]string
}

func (o *DatasetObserver) Execute(frame *agent.TurnFrame) {
	flat := frame.Space.Flat()
	row := make([]string, 0, len(flat)+3)
	for _, v := range flat {
		row = append(row, strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	row = append(row,
		strconv.Itoa(frame.Action),
		strconv.Itoa(frame.Outcome.Lines),
		o.episode,
	)
	o.rows = append(o.rows, row)
}

// Commit writes the buffered rows.
func (o *DatasetObserver) Commit() error {
	err := o.dataset.write(o.rows)
	o.rows = nil
	return err
}
