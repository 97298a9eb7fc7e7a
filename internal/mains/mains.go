// Package mains detects the local electrical mains frequency so the
// simulated turntable motor hums at the right pitch for the listener.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultHz is used when detection fails or the timezone carries no
// country information. 50Hz is the more common supply globally.
const DefaultHz = 50.0

// HumFrequency returns the local mains frequency in Hz (50 or 60),
// resolved from the system timezone.
func HumFrequency() float64 {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return DefaultHz
	}
	return HumFrequencyForTimezone(timezone)
}

// HumFrequencyForTimezone returns the mains frequency for a given IANA
// timezone.
func HumFrequencyForTimezone(timezone string) float64 {
	// UTC/GMT carry no country association
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return DefaultHz
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return DefaultHz
	}

	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return DefaultHz
	}

	return humFrequencyForCountry(country)
}

// humFrequencyForCountry maps a country name to its supply frequency.
// Unknown countries get 50Hz.
func humFrequencyForCountry(country string) float64 {
	// Japan is split 50/60Hz by region; the Tokyo side is 50Hz and the
	// most populous, so that is what we pick.
	if country == "Japan" {
		return 50.0
	}

	if hz60Countries[country] {
		return 60.0
	}
	return 50.0
}

// hz60Countries lists countries using 60Hz mains power.
// All other countries use 50Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// North America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,

	// Central America
	"Belize":      true,
	"Costa Rica":  true,
	"El Salvador": true,
	"Guatemala":   true,
	"Honduras":    true,
	"Nicaragua":   true,
	"Panama":      true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America (partial—most use 50Hz)
	"Brazil":    true, // Note: Brazil has both 50Hz and 60Hz regions; 60Hz predominant
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia (partial)
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
