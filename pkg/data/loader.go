package data

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// missingTokens are the cell values treated as missing on ingestion.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
}

// LoadOptions controls CSV ingestion.
type LoadOptions struct {
	// DropColumns are removed after reading (identity columns such as CustomerID).
	DropColumns []string
}

// LoadCSV reads a header-first CSV file into a Frame.
func LoadCSV(path string, opts LoadOptions) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data: open %s: %w", path, err)
	}
	defer file.Close()

	f, err := ReadCSV(file, opts)
	if err != nil {
		return nil, fmt.Errorf("data: read %s: %w", path, err)
	}
	return f, nil
}

// ReadCSV parses CSV from r. A column is numeric when every non-missing cell parses
// as a float; otherwise it is categorical.
func ReadCSV(r io.Reader, opts LoadOptions) (*Frame, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	raw := make([][]string, len(header))
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for j := range header {
			raw[j] = append(raw[j], strings.TrimSpace(rec[j]))
		}
	}
	if len(raw) == 0 || len(raw[0]) == 0 {
		return nil, ErrEmptyDataset
	}

	cols := make([]*Column, 0, len(header))
	for j, name := range header {
		cols = append(cols, inferColumn(name, raw[j]))
	}
	f, err := NewFrame(cols...)
	if err != nil {
		return nil, err
	}
	return f.Drop(opts.DropColumns...), nil
}

func inferColumn(name string, cells []string) *Column {
	nums := make([]float64, len(cells))
	for i, v := range cells {
		if missingTokens[v] {
			nums[i] = math.NaN()
			continue
		}
		num, err := strconv.ParseFloat(v, 64)
		if err != nil {
			cats := make([]string, len(cells))
			for k, c := range cells {
				if !missingTokens[c] {
					cats[k] = c
				}
			}
			return NewCategorical(name, cats)
		}
		nums[i] = num
	}
	return NewNumeric(name, nums)
}
