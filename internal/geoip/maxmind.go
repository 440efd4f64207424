package geoip

import (
	"fmt"
	"os"
	"strconv"

	"github.com/evyataryagoni/udfkit/internal/ipaddr"
	"github.com/oschwald/maxminddb-golang"
)

// mmdbRecord contains only the fields we decode from a City database.
// area_code and dma_code are not part of GeoIP2 but appear in databases
// converted from the legacy format; DMA falls back to metro_code.
type mmdbRecord struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Subdivisions []struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Postal struct {
		Code string `maxminddb:"code"`
	} `maxminddb:"postal"`
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
		MetroCode uint     `maxminddb:"metro_code"`
		AreaCode  uint     `maxminddb:"area_code"`
		DMACode   uint     `maxminddb:"dma_code"`
	} `maxminddb:"location"`
}

// orgRecord covers ISP/Enterprise databases (root or traits level) and ASN databases
type orgRecord struct {
	Organization   string `maxminddb:"organization"`
	ASOrganization string `maxminddb:"autonomous_system_organization"`
	Traits         struct {
		Organization   string `maxminddb:"organization"`
		ASOrganization string `maxminddb:"autonomous_system_organization"`
	} `maxminddb:"traits"`
}

// MaxMind is a Database backed by a MaxMind DB (MMDB) file held in memory
type MaxMind struct {
	reader   *maxminddb.Reader
	language string
}

// OpenMaxMind opens an MMDB file and reads names in English
func OpenMaxMind(path string) (Database, error) {
	return MaxMindOpener("en")(path)
}

// MaxMindOpener returns an Opener that reads localized names in language,
// falling back to English when a name has no translation.
func MaxMindOpener(language string) Opener {
	if language == "" {
		language = "en"
	}
	return func(path string) (Database, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read mmdb %q: %w", path, err)
		}
		r, err := maxminddb.FromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("open mmdb %q: %w", path, err)
		}
		return &MaxMind{reader: r, language: language}, nil
	}
}

// DatabaseType returns the type recorded in the file metadata (e.g. "GeoIP2-City")
func (m *MaxMind) DatabaseType() string {
	return m.reader.Metadata.DatabaseType
}

// Lookup implements Database
func (m *MaxMind) Lookup(ip uint32) (Record, error) {
	var rec mmdbRecord
	_, ok, err := m.reader.LookupNetwork(ipaddr.ToNetIP(ip), &rec)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNoData
	}

	out := Record{
		CountryName: m.name(rec.Country.Names),
		CountryCode: rec.Country.ISOCode,
		City:        m.name(rec.City.Names),
		PostalCode:  rec.Postal.Code,
		MetroCode:   rec.Location.MetroCode,
		AreaCode:    rec.Location.AreaCode,
		DMACode:     rec.Location.DMACode,
	}
	if out.DMACode == 0 {
		out.DMACode = rec.Location.MetroCode
	}
	if len(rec.Subdivisions) > 0 {
		out.Region = rec.Subdivisions[0].ISOCode
		out.RegionName = m.name(rec.Subdivisions[0].Names)
	}
	if rec.Location.Latitude != nil && rec.Location.Longitude != nil {
		out.Latitude = *rec.Location.Latitude
		out.Longitude = *rec.Location.Longitude
		out.HasLocation = true
	}
	return out, nil
}

// Organization implements Database
func (m *MaxMind) Organization(ip uint32) (string, error) {
	var rec orgRecord
	_, ok, err := m.reader.LookupNetwork(ipaddr.ToNetIP(ip), &rec)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoData
	}

	for _, org := range []string{
		rec.Organization,
		rec.Traits.Organization,
		rec.ASOrganization,
		rec.Traits.ASOrganization,
	} {
		if org != "" {
			return org, nil
		}
	}
	return "", nil
}

// RecordID implements Database. The id is the record's offset in the data
// section, which is shared by every address pointing at the same record.
func (m *MaxMind) RecordID(ip uint32) (string, error) {
	offset, err := m.reader.LookupOffset(ipaddr.ToNetIP(ip))
	if err != nil {
		return "", err
	}
	if offset == maxminddb.NotFound {
		return "", ErrNoData
	}
	return strconv.FormatUint(uint64(offset), 10), nil
}

func (m *MaxMind) name(names map[string]string) string {
	if name := names[m.language]; name != "" {
		return name
	}
	return names["en"]
}
