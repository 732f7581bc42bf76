package feature

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"
)

// WriteFile writes f as a JSON array of records or as CSV with a header row,
// chosen by the extension of path. Parent directories are created.
func WriteFile(f *frame.Frame, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".csv" {
		return fmt.Errorf("%w: feature file extension %q", apperrors.ErrUnsupported, ext)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if ext == ".json" {
		err = writeJSON(file, f)
	} else {
		err = writeCSV(file, f)
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, f *frame.Frame) error {
	body, err := f.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func writeCSV(w io.Writer, f *frame.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(f.Grid(true)); err != nil {
		return err
	}
	return cw.Error()
}

// ReadFile loads a feature file written by WriteFile. CSV cells stay strings; JSON
// values are decoded and the column order of the first record is kept.
func ReadFile(path string) (*frame.Frame, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".csv" {
		return nil, fmt.Errorf("%w: feature file extension %q", apperrors.ErrUnsupported, ext)
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: feature file %s", apperrors.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if ext == ".json" {
		return readJSON(file)
	}
	return readCSV(file)
}

func readCSV(r io.Reader) (*frame.Frame, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrParse, err)
	}
	f := frame.New()
	if len(rows) == 0 {
		return f, nil
	}
	header := rows[0]
	for j, name := range header {
		values := make([]any, len(rows)-1)
		for i, row := range rows[1:] {
			values[i] = row[j]
		}
		if err := f.Set(frame.NewColumn(name, frame.String, values)); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrParse, err)
		}
	}
	return f, nil
}

func readJSON(r io.Reader) (*frame.Frame, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var records []map[string]any
	var order []string
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		rec := make(map[string]any)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", apperrors.ErrParse, err)
			}
			name, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected field name, got %v", apperrors.ErrParse, tok)
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("%w: field %q: %w", apperrors.ErrParse, name, err)
			}
			if len(records) == 0 {
				order = append(order, name)
			}
			rec[name] = v
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return frame.New(), nil
	}
	return frame.FromRecords(records, order), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrParse, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", apperrors.ErrParse, want, tok)
	}
	return nil
}
