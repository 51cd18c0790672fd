package cris

import (
	"bytes"
	"encoding/json"
	"strings"

	"research2crossref/internal/record"
)

// flexString accepts JSON strings and numbers; the CRIS reports Year and
// SerialNumber as either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(data))
	return nil
}

type searchResponse struct {
	TotalCount   int               `json:"TotalCount"`
	Publications []publicationJSON `json:"Publications"`
}

type publicationJSON struct {
	ID              string          `json:"Id"`
	Title           string          `json:"Title"`
	Abstract        string          `json:"Abstract"`
	Year            flexString      `json:"Year"`
	Persons         []personJSON    `json:"Persons"`
	IncludedPapers  []includedPaper `json:"IncludedPapers"`
	Language        *languageJSON   `json:"Language"`
	IdentifierIsbn  []string        `json:"IdentifierIsbn"`
	IdentifierDoi   []string        `json:"IdentifierDoi"`
	DispDate        string          `json:"DispDate"`
	Series          []seriesJSON    `json:"Series"`
	PublicationType *namedJSON      `json:"PublicationType"`
	Conference      *conferenceJSON `json:"Conference"`
	Publisher       *publisherJSON  `json:"Publisher"`
}

type personJSON struct {
	PersonData    personData         `json:"PersonData"`
	Role          *namedJSON         `json:"Role"`
	Organizations []organizationJSON `json:"Organizations"`
}

type personData struct {
	FirstName       string   `json:"FirstName"`
	LastName        string   `json:"LastName"`
	IdentifierOrcid []string `json:"IdentifierOrcid"`
}

type organizationJSON struct {
	OrganizationData organizationData `json:"OrganizationData"`
}

type organizationData struct {
	ID                string           `json:"Id"`
	NameEng           string           `json:"NameEng"`
	City              string           `json:"City"`
	Country           string           `json:"Country"`
	OrganizationTypes []namedJSON      `json:"OrganizationTypes"`
	Identifiers       []orgIdentifiers `json:"Identifiers"`
}

type orgIdentifiers struct {
	Type  typeValue `json:"Type"`
	Value string    `json:"Value"`
}

type typeValue struct {
	Value string `json:"Value"`
}

type namedJSON struct {
	ID      string `json:"Id"`
	NameEng string `json:"NameEng"`
}

type includedPaper struct {
	Publication string `json:"Publication"`
}

type languageJSON struct {
	Iso string `json:"Iso"`
}

type seriesJSON struct {
	SerialItem   namedJSON  `json:"SerialItem"`
	SerialNumber flexString `json:"SerialNumber"`
}

type conferenceJSON struct {
	Name      string `json:"Name"`
	Acronym   string `json:"Acronym"`
	Place     string `json:"Place"`
	StartDate string `json:"StartDate"`
	EndDate   string `json:"EndDate"`
}

type publisherJSON struct {
	Name  string `json:"Name"`
	Place string `json:"Place"`
}

// toRecord maps the wire shape onto the record model. The Crossref type is
// not known to the CRIS and is assigned by the caller.
func (p publicationJSON) toRecord() record.Publication {
	pub := record.Publication{
		ID:       strings.TrimSpace(p.ID),
		Title:    p.Title,
		Abstract: p.Abstract,
		Year:     strings.TrimSpace(string(p.Year)),
		ISBN:     first(p.IdentifierIsbn),
		DOI:      first(p.IdentifierDoi),
		DispDate: strings.TrimSpace(p.DispDate),
	}
	if p.Language != nil {
		pub.Language = p.Language.Iso
	}
	if p.PublicationType != nil {
		pub.SubType = strings.TrimSpace(p.PublicationType.NameEng)
	}
	for _, person := range p.Persons {
		pub.Contributors = append(pub.Contributors, person.toContributor())
	}
	for _, s := range p.Series {
		pub.Series = append(pub.Series, record.SeriesEntry{
			SeriesID:   strings.TrimSpace(s.SerialItem.ID),
			ItemNumber: strings.TrimSpace(string(s.SerialNumber)),
		})
	}
	for _, paper := range p.IncludedPapers {
		if ref := strings.TrimSpace(paper.Publication); ref != "" {
			pub.IncludedPapers = append(pub.IncludedPapers, ref)
		}
	}
	if c := p.Conference; c != nil {
		pub.Conference = &record.Conference{
			Name:      c.Name,
			Acronym:   c.Acronym,
			Location:  c.Place,
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
		}
	}
	if pb := p.Publisher; pb != nil {
		pub.Publisher = &record.Publisher{Name: pb.Name, Place: pb.Place}
	}
	return pub
}

func (p personJSON) toContributor() record.Contributor {
	c := record.Contributor{
		GivenName:  p.PersonData.FirstName,
		FamilyName: p.PersonData.LastName,
		ORCID:      first(p.PersonData.IdentifierOrcid),
	}
	if p.Role != nil && strings.EqualFold(strings.TrimSpace(p.Role.NameEng), "editor") {
		c.Role = record.RoleEditor
	}
	for _, org := range p.Organizations {
		data := org.OrganizationData
		aff := record.Affiliation{
			OrganizationName: data.NameEng,
			City:             data.City,
			Country:          data.Country,
		}
		if len(data.OrganizationTypes) > 0 {
			aff.OrganizationType = data.OrganizationTypes[0].NameEng
		}
		for _, id := range data.Identifiers {
			aff.Identifiers = append(aff.Identifiers, record.OrgIdentifier{Type: id.Type.Value, Value: id.Value})
		}
		c.Affiliations = append(c.Affiliations, aff)
	}
	return c
}

func first(values []string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
