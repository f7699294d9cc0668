package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column names of the cleaned catalog CSV.
const (
	ColName            = "pl_name"
	ColHost            = "hostname"
	ColRA              = "ra"
	ColDec             = "dec"
	ColDistance        = "sy_dist"
	ColEqTemp          = "pl_eqt"
	ColRadius          = "pl_rade"
	ColOrbitalPeriod   = "pl_orbper"
	ColStellarTeff     = "st_teff"
	ColDiscoveryMethod = "discoverymethod"
	ColPredictedClass  = "predicted_class"
)

// Columns is the order used when writing CSV.
var Columns = []string{
	ColName, ColHost, ColRA, ColDec, ColDistance, ColEqTemp,
	ColRadius, ColOrbitalPeriod, ColStellarTeff, ColDiscoveryMethod, ColPredictedClass,
}

// ErrMissingHeader is returned when the input has no header row.
var ErrMissingHeader = errors.New("catalog CSV has no header")

// LoadStats summarizes a CSV load.
type LoadStats struct {
	Rows       int // data rows seen
	Loaded     int // records returned
	Malformed  int // rows skipped because they could not be read
	Duplicates int // rows skipped because pl_name was already seen
}

// ReadCSV reads catalog records from r. Unknown columns are ignored and
// absent columns leave the matching field missing. Rows repeating an
// earlier pl_name are dropped, keeping the first.
func ReadCSV(r io.Reader) ([]Record, LoadStats, error) {
	var stats LoadStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	header, err := reader.Read()
	if err == io.EOF {
		return nil, stats, ErrMissingHeader
	}
	if err != nil {
		return nil, stats, fmt.Errorf("read CSV header: %w", err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}

	seen := make(map[string]bool)
	var records []Record

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, stats, fmt.Errorf("read CSV row: %w", err)
			}
			stats.Rows++
			stats.Malformed++
			continue
		}
		stats.Rows++
		if len(row) != len(header) {
			stats.Malformed++
			continue
		}

		rec := parseRow(row, colMap)
		if rec.Name != "" {
			if seen[rec.Name] {
				stats.Duplicates++
				continue
			}
			seen[rec.Name] = true
		}
		records = append(records, rec)
	}

	stats.Loaded = len(records)
	return records, stats, nil
}

func parseRow(row []string, colMap map[string]int) Record {
	text := func(col string) string {
		if idx, ok := colMap[col]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	num := func(col string) Float {
		return ParseFloat(text(col))
	}

	return Record{
		Name:              text(ColName),
		Host:              text(ColHost),
		RADeg:             num(ColRA),
		DecDeg:            num(ColDec),
		DistancePc:        num(ColDistance),
		EqTempK:           num(ColEqTemp),
		RadiusEarth:       num(ColRadius),
		OrbitalPeriodDays: num(ColOrbitalPeriod),
		StellarTeffK:      num(ColStellarTeff),
		DiscoveryMethod:   text(ColDiscoveryMethod),
		PredictedClass:    text(ColPredictedClass),
	}
}

// LoadFile reads a catalog CSV from disk.
func LoadFile(path string) ([]Record, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	records, stats, err := ReadCSV(f)
	if err != nil {
		return nil, stats, fmt.Errorf("load %s: %w", path, err)
	}
	return records, stats, nil
}

// WriteCSV writes records using the cleaned catalog schema.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Name,
			r.Host,
			r.RADeg.String(),
			r.DecDeg.String(),
			r.DistancePc.String(),
			r.EqTempK.String(),
			r.RadiusEarth.String(),
			r.OrbitalPeriodDays.String(),
			r.StellarTeffK.String(),
			r.DiscoveryMethod,
			r.PredictedClass,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
