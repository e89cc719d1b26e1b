package simulator

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadODPairs reads OD pairs from a CSV file with rows of
// home_lat,home_lon,work_lat,work_lon. A non-numeric first row is treated as
// a header and skipped.
func LoadODPairs(path string) ([]ODPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadODPairs(f)
}

func ReadODPairs(r io.Reader) ([]ODPair, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	odPairs := make([]ODPair, 0)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		homeLat, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("od csv line %d: %w", line, err)
		}
		homeLon, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("od csv line %d: %w", line, err)
		}
		workLat, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("od csv line %d: %w", line, err)
		}
		workLon, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("od csv line %d: %w", line, err)
		}

		odPairs = append(odPairs, ODPair{
			HomeLat: homeLat,
			HomeLon: homeLon,
			WorkLat: workLat,
			WorkLon: workLon,
		})
	}
	return odPairs, nil
}
