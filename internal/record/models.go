package record

import (
	"fmt"
	"strings"
)

// PublicationType is the Crossref content type a record is registered as.
type PublicationType string

const (
	TypeDissertation PublicationType = "dissertation"
	TypeBook         PublicationType = "book"
	TypePreprint     PublicationType = "preprint"
	TypeReport       PublicationType = "report"
	TypeProceeding   PublicationType = "proceeding"
)

var allTypes = []PublicationType{
	TypeDissertation,
	TypeBook,
	TypePreprint,
	TypeReport,
	TypeProceeding,
}

// Types returns every supported publication type in display order.
func Types() []PublicationType {
	out := make([]PublicationType, len(allTypes))
	copy(out, allTypes)
	return out
}

// ParseType resolves a user supplied publication type name.
func ParseType(value string) (PublicationType, error) {
	normalized := PublicationType(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range allTypes {
		if t == normalized {
			return t, nil
		}
	}
	names := make([]string, 0, len(allTypes))
	for _, t := range allTypes {
		names = append(names, string(t))
	}
	return "", fmt.Errorf("unsupported publication type %q (allowed: %s)", value, strings.Join(names, ", "))
}

// Role is the contributor role emitted in the deposit.
type Role string

const (
	RoleAuthor Role = "author"
	RoleEditor Role = "editor"
)

// Sequence marks the first contributor of a list.
type Sequence string

const (
	SequenceFirst      Sequence = "first"
	SequenceAdditional Sequence = "additional"
)

// SequenceAt returns the sequence value for the contributor at index i.
func SequenceAt(i int) Sequence {
	if i == 0 {
		return SequenceFirst
	}
	return SequenceAdditional
}

// OrgIdentifier is an identifier attached to an organization record.
type OrgIdentifier struct {
	Type  string
	Value string
}

// Affiliation links a contributor to an organization.
type Affiliation struct {
	OrganizationName string
	OrganizationType string
	RORID            string
	Identifiers      []OrgIdentifier
	IsHome           bool
	PlaceName        string
	City             string
	Country          string
	DepartmentPath   string
}

// Place renders the institution place. PlaceName wins when set, otherwise
// "City, Country" with empty parts dropped.
func (a Affiliation) Place() string {
	if place := strings.TrimSpace(a.PlaceName); place != "" {
		return place
	}
	parts := make([]string, 0, 2)
	if city := strings.TrimSpace(a.City); city != "" {
		parts = append(parts, city)
	}
	if country := strings.TrimSpace(a.Country); country != "" {
		parts = append(parts, country)
	}
	return strings.Join(parts, ", ")
}

// Contributor is a person attached to a publication.
type Contributor struct {
	GivenName    string
	FamilyName   string
	Role         Role
	ORCID        string
	Affiliations []Affiliation
}

// SeriesEntry is one series membership of a publication.
type SeriesEntry struct {
	SeriesID   string
	ItemNumber string
}

// Conference carries event metadata for proceedings.
type Conference struct {
	Name      string
	Acronym   string
	Location  string
	StartDate string
	EndDate   string
}

// Empty reports whether no usable conference data is present.
func (c *Conference) Empty() bool {
	if c == nil {
		return true
	}
	return strings.TrimSpace(c.Name) == "" &&
		strings.TrimSpace(c.Acronym) == "" &&
		strings.TrimSpace(c.Location) == "" &&
		strings.TrimSpace(c.StartDate) == "" &&
		strings.TrimSpace(c.EndDate) == ""
}

// Publisher names the publishing organization and its place.
type Publisher struct {
	Name  string
	Place string
}

// Publication is a bibliographic record as fetched from the CRIS.
type Publication struct {
	ID             string
	Title          string
	Abstract       string
	Year           string
	Language       string
	Type           PublicationType
	SubType        string
	Contributors   []Contributor
	Series         []SeriesEntry
	ISBN           string
	DOI            string
	DispDate       string
	Conference     *Conference
	Publisher      *Publisher
	IncludedPapers []string
}

// HasDOI reports whether the source record already carries a DOI.
func (p Publication) HasDOI() bool {
	return strings.TrimSpace(p.DOI) != ""
}

// Normalized is the cleaned, resolved derivative of a Publication.
type Normalized struct {
	Publication
	ItemNumber   string
	IncludedDOIs []string
	Degree       string
}

// ApprovalDate splits DispDate into year, month and day. ok is false when the
// date is absent or too short to carry all three parts.
func (n Normalized) ApprovalDate() (year, month, day string, ok bool) {
	d := strings.TrimSpace(n.DispDate)
	if len(d) < 10 {
		return "", "", "", false
	}
	return d[0:4], d[5:7], d[8:10], true
}
