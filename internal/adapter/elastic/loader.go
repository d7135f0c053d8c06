package elastic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olivere/elastic/v7"

	"github.com/couchcryptid/venue-discovery/internal/domain"
)

// tsvColumns is the expected header of a venue file.
var tsvColumns = []string{"id", "name", "address", "category", "lat", "lon"}

// ReadVenuesTSV parses a tab-separated venue file. The first row must be the
// header id, name, address, category, lat, lon.
func ReadVenuesTSV(r io.Reader) ([]Venue, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = len(tsvColumns)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("venue file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range tsvColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, fmt.Errorf("header column %d: expected %q, got %q", i+1, col, header[i])
		}
	}

	var venues []Venue
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := parseVenue(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		venues = append(venues, v)
	}
	return venues, nil
}

func parseVenue(rec []string) (Venue, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
	if err != nil {
		return Venue{}, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rec[5]), 64)
	if err != nil {
		return Venue{}, fmt.Errorf("parse lon: %w", err)
	}
	c := domain.Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Venue{}, err
	}
	id := strings.TrimSpace(rec[0])
	if id == "" {
		return Venue{}, errors.New("missing id")
	}
	return Venue{
		ID:       id,
		Name:     strings.TrimSpace(rec[1]),
		Address:  strings.TrimSpace(rec[2]),
		Category: strings.TrimSpace(rec[3]),
		Location: elastic.GeoPoint{Lat: lat, Lon: lon},
	}, nil
}
