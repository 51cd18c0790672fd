package cris

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// selectedFields is the projection requested for candidate records.
var selectedFields = []string{
	"Id",
	"Title",
	"Abstract",
	"Year",
	"Persons.PersonData.FirstName",
	"Persons.PersonData.LastName",
	"Persons.PersonData.IdentifierOrcid",
	"Persons.Organizations.OrganizationData.Id",
	"Persons.Organizations.OrganizationData.NameEng",
	"Persons.Organizations.OrganizationData.City",
	"Persons.Organizations.OrganizationData.Country",
	"Persons.Organizations.OrganizationData.OrganizationTypes.NameEng",
	"Persons.Organizations.OrganizationData.Identifiers",
	"Persons.Role.NameEng",
	"IncludedPapers",
	"Language.Iso",
	"IdentifierIsbn",
	"IdentifierDoi",
	"DispDate",
	"Series",
	"PublicationType.NameEng",
	"Conference",
	"Publisher",
}

// Filter selects candidate publications for a batch run. The zero value
// matches everything, so batch callers start from DefaultFilter.
type Filter struct {
	PublicationTypeID string
	CreatedAfter      time.Time
	Validated         bool
	HasLocalFullText  bool
	MissingDOI        bool
	RequireISBN       bool
	ExcludeInactive   bool
	Max               int
}

// DefaultFilter returns the filter used by incremental batch runs.
func DefaultFilter(publicationTypeID string, createdAfter time.Time, max int) Filter {
	return Filter{
		PublicationTypeID: publicationTypeID,
		CreatedAfter:      createdAfter,
		Validated:         true,
		HasLocalFullText:  true,
		MissingDOI:        true,
		RequireISBN:       true,
		ExcludeInactive:   true,
		Max:               max,
	}
}

// Query renders the filter as a Lucene query string.
func (f Filter) Query() string {
	var clauses []string
	if f.Validated {
		clauses = append(clauses, "_exists_:ValidatedBy")
	}
	if id := strings.TrimSpace(f.PublicationTypeID); id != "" {
		clauses = append(clauses, fmt.Sprintf("PublicationType.Id:%q", id))
	}
	if f.MissingDOI {
		clauses = append(clauses, "!_exists_:IdentifierDoi")
	}
	if !f.CreatedAfter.IsZero() {
		// Day granularity; the watermark margin absorbs the rounding.
		clauses = append(clauses, fmt.Sprintf("CreatedDate:[%s TO *]", f.CreatedAfter.UTC().Format("2006-01-02")))
	}
	if f.HasLocalFullText {
		clauses = append(clauses, "DataObjects.IsLocal:true", "DataObjects.IsMainFulltext:true")
	}
	if f.ExcludeInactive {
		clauses = append(clauses, "IsDraft:false", "IsDeleted:false", "!_exists_:ReplacedById")
	}
	if f.RequireISBN {
		clauses = append(clauses, "_exists_:IdentifierIsbn")
	}
	if len(clauses) == 0 {
		return "*"
	}
	return strings.Join(clauses, " && ")
}

func idQuery(id string) string {
	return fmt.Sprintf("Id:%q", strings.TrimSpace(id))
}

func maxParam(max int) string {
	if max <= 0 {
		return ""
	}
	return strconv.Itoa(max)
}
