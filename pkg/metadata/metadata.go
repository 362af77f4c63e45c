// Package metadata loads the video corpus metadata table.
//
// The table is a CSV file with at least the columns videoid, page_dir and
// name. The name column holds the caption. Rows missing any required value
// are dropped at load time.
package metadata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"

	"github.com/user/clipset/pkg/ports"
)

// Required column names in the metadata CSV.
const (
	ColumnVideoID = "videoid"
	ColumnPageDir = "page_dir"
	ColumnCaption = "name"
)

// Row is one entry of the metadata table.
type Row struct {
	VideoID string
	PageDir string
	Caption string
}

// Table is an immutable, in-memory metadata table.
type Table struct {
	rows []Row
}

// Load reads and filters the metadata table at path.
//
// When subsample is positive, a deterministic random subset of that many
// rows is kept, drawn with the given seed so repeated runs see the same
// subset.
func Load(fs ports.FileSystem, path string, subsample int, seed int64) (*Table, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	rows, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}

	if subsample > 0 {
		if subsample > len(rows) {
			return nil, fmt.Errorf("subsample %d exceeds %d metadata rows", subsample, len(rows))
		}
		rows = sampleRows(rows, subsample, seed)
	}

	return &Table{rows: rows}, nil
}

// Len returns the number of usable rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the row at index i.
func (t *Table) Row(i int) Row { return t.rows[i] }

func parse(data []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{ColumnVideoID, ColumnPageDir, ColumnCaption} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var rows []Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := Row{
			VideoID: field(record, cols[ColumnVideoID]),
			PageDir: field(record, cols[ColumnPageDir]),
			Caption: field(record, cols[ColumnCaption]),
		}
		// dropna: a row with any missing value is unusable.
		if row.VideoID == "" || row.PageDir == "" || row.Caption == "" {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return record[i]
}

// sampleRows draws n rows without replacement using a seeded permutation.
func sampleRows(rows []Row, n int, seed int64) []Row {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(rows))
	out := make([]Row, n)
	for i := 0; i < n; i++ {
		out[i] = rows[perm[i]]
	}
	return out
}
