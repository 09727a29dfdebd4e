// Package scrape collects MEP contact details from the European
// Parliament website.
package scrape

import (
	"net/url"
	"strings"

	"github.com/leavex/mepsonx/internal/mep"
)

// Entry is an MEP found on the full list page.
type Entry struct {
	ID  string
	URL string
}

// Profile is the data scraped from one MEP profile page. Fields the page
// does not carry are empty.
type Profile struct {
	ID                      string `json:"mep_id"`
	Name                    string `json:"name"`
	ProfileURL              string `json:"profile_url"`
	Email                   string `json:"email"`
	XURL                    string `json:"x_url"`
	XHandle                 string `json:"x_handle"`
	PoliticalGroup          string `json:"political_group"`
	Country                 string `json:"country"`
	NationalParty           string `json:"national_party"`
	CountryAndNationalParty string `json:"country_and_national_party"`
}

// CSVHeader lists the CSV columns in output order.
var CSVHeader = []string{
	"mep_id",
	"name",
	"profile_url",
	"email",
	"x_url",
	"x_handle",
	"political_group",
	"country",
	"national_party",
	"country_and_national_party",
}

func (p Profile) csvRow() []string {
	return []string{
		p.ID,
		p.Name,
		p.ProfileURL,
		p.Email,
		p.XURL,
		p.XHandle,
		p.PoliticalGroup,
		p.Country,
		p.NationalParty,
		p.CountryAndNationalParty,
	}
}

// Record converts p to an MEP record as stored in the data files.
func (p Profile) Record() mep.Record {
	return mep.Record{
		mep.KeyID:                      p.ID,
		mep.KeyName:                    p.Name,
		mep.KeyProfileURL:              p.ProfileURL,
		mep.KeyEmail:                   p.Email,
		mep.KeyXURL:                    p.XURL,
		mep.KeyXHandle:                 p.XHandle,
		mep.KeyEUGroup:                 p.PoliticalGroup,
		mep.KeyCountry:                 p.Country,
		mep.KeyParty:                   p.NationalParty,
		mep.KeyCountryAndNationalParty: p.CountryAndNationalParty,
		mep.KeyUsesX:                   p.XURL != "",
	}
}

// Records converts profiles to records, keeping their order.
func Records(profiles []Profile) []mep.Record {
	out := make([]mep.Record, len(profiles))
	for i, p := range profiles {
		out[i] = p.Record()
	}
	return out
}

// XHandle returns the first path segment of an X profile URL, such as
// "MikaAaltola" for https://x.com/MikaAaltola, or "".
func XHandle(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	handle, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	return handle
}
