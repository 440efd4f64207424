package geoip

import "strings"

// Attribute selects which piece of geo information Resolve returns
type Attribute int

// The zero Attribute is invalid so an unset value never resolves
const (
	CountryName Attribute = iota + 1
	CountryCode
	AreaCode
	City
	DMACode
	Latitude
	Longitude
	MetroCode
	PostalCode
	Region
	RegionName
	Org
	ID
)

var attributeNames = map[Attribute]string{
	CountryName: "COUNTRY_NAME",
	CountryCode: "COUNTRY_CODE",
	AreaCode:    "AREA_CODE",
	City:        "CITY",
	DMACode:     "DMA_CODE",
	Latitude:    "LATITUDE",
	Longitude:   "LONGITUDE",
	MetroCode:   "METRO_CODE",
	PostalCode:  "POSTAL_CODE",
	Region:      "REGION",
	RegionName:  "REGION_NAME",
	Org:         "ORG",
	ID:          "ID",
}

var attributesByName = func() map[string]Attribute {
	m := make(map[string]Attribute, len(attributeNames))
	for attr, name := range attributeNames {
		m[name] = attr
	}
	return m
}()

// ParseAttribute maps a name such as "COUNTRY_NAME" (case-insensitive)
// to its Attribute. Unknown names return false.
func ParseAttribute(name string) (Attribute, bool) {
	attr, ok := attributesByName[strings.ToUpper(strings.TrimSpace(name))]
	return attr, ok
}

// Attributes returns every known attribute in declaration order
func Attributes() []Attribute {
	out := make([]Attribute, 0, len(attributeNames))
	for attr := CountryName; attr <= ID; attr++ {
		out = append(out, attr)
	}
	return out
}

// Valid reports whether a is one of the declared attributes
func (a Attribute) Valid() bool {
	_, ok := attributeNames[a]
	return ok
}

func (a Attribute) String() string {
	if name, ok := attributeNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}
