// Package parse loads a CSV example file into the X/Y arrays the tree and
// forest packages expect, auto-detecting whether the first column holds a
// regression target or a classification label.
package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Input holds the result of parsing a CSV example file: features, the
// target in whichever of YClf/YReg matches the detected/forced problem
// type, and the variable names taken from a header row (or synthesized as
// X1, X2, ...).
type Input struct {
	IsRegression bool
	X            [][]float64
	YClf         []string  // nil when IsRegression is true
	YReg         []float64 // nil when IsRegression is false
	VarNames     []string
}

// CSV parses r as a csv.Reader, detecting a header row and, unless
// forceClf is set, whether the first column is a regression target or a
// classification label: it's treated as regression until a value fails to
// parse as a float, at which point the whole column is reinterpreted as
// labels. Passing forceClf skips that detection and always parses the
// first column as a label.
func CSV(r io.Reader, forceClf bool) (*Input, error) {
	reader := csv.NewReader(r)

	p := &Input{IsRegression: !forceClf}

	row, err := reader.Read()
	if err != nil {
		return p, err
	}

	varNames, err := parseHeader(row)
	if err == nil {
		p.VarNames = varNames
	} else {
		for i := range row[1:] {
			p.VarNames = append(p.VarNames, fmt.Sprintf("X%d", i+1))
		}

		if err := p.parseRow(row); err != nil {
			return p, err
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p, err
		}

		if err := p.parseRow(row); err != nil {
			return p, err
		}
	}

	if p.IsRegression {
		p.YClf = nil
	} else {
		p.YReg = nil
	}

	return p, nil
}

func (p *Input) parseRow(row []string) error {
	xi, err := parseFeatureVals(row)
	if err != nil {
		return err
	}
	p.X = append(p.X, xi)

	if p.IsRegression {
		yi, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			p.IsRegression = false
		}
		p.YReg = append(p.YReg, yi)
	}
	p.YClf = append(p.YClf, row[0])

	return nil
}

func parseFeatureVals(row []string) ([]float64, error) {
	var xi []float64
	if len(row) < 1 {
		return xi, errors.New("row has no columns")
	}
	for _, val := range row[1:] {
		fv, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return xi, err
		}
		xi = append(xi, fv)
	}
	return xi, nil
}

// parseHeader reports an error (and no names) when row doesn't look like a
// header: input is numeric-only, so a row is a header only when none of its
// feature columns parses as a float.
func parseHeader(row []string) ([]string, error) {
	colNames := []string{}

	if len(row) > 1 {
		for _, val := range row[1:] {
			if _, err := strconv.ParseFloat(val, 64); err == nil {
				return colNames, errors.New("not a header row")
			}
			colNames = append(colNames, val)
		}
	}

	return colNames, nil
}
