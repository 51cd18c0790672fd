package crossref

import "encoding/xml"

const (
	SchemaVersion   = "5.4.0"
	schemaNamespace = "http://www.crossref.org/schema/5.4.0"
	schemaLocation  = "http://www.crossref.org/schema/5.4.0 https://www.crossref.org/schemas/crossref5.4.0.xsd"
	xsiNamespace    = "http://www.w3.org/2001/XMLSchema-instance"
	jatsNamespace   = "http://www.ncbi.nlm.nih.gov/JATS1"
	orcidBaseURL    = "https://orcid.org/"
	timestampLayout = "20060102150405"
)

// The types below mirror the subset of the deposit schema r2c emits. Field
// order is element order. Prefixed names (xsi:, jats:) are written literally
// because encoding/xml would otherwise invent its own prefixes.

type doiBatch struct {
	XMLName        xml.Name `xml:"doi_batch"`
	Xmlns          string   `xml:"xmlns,attr"`
	XmlnsXSI       string   `xml:"xmlns:xsi,attr"`
	XmlnsJATS      string   `xml:"xmlns:jats,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`
	Version        string   `xml:"version,attr"`
	Head           head     `xml:"head"`
	Body           body     `xml:"body"`
}

type head struct {
	BatchID    string    `xml:"doi_batch_id"`
	Timestamp  string    `xml:"timestamp"`
	Depositor  depositor `xml:"depositor"`
	Registrant string    `xml:"registrant"`
}

type depositor struct {
	Name  string `xml:"depositor_name"`
	Email string `xml:"email_address"`
}

// body holds exactly one non-nil skeleton.
type body struct {
	Dissertation  *metadata    `xml:"dissertation,omitempty"`
	Book          *book        `xml:"book,omitempty"`
	PostedContent *metadata    `xml:"posted_content,omitempty"`
	ReportPaper   *reportPaper `xml:"report-paper,omitempty"`
	Conference    *conference  `xml:"conference,omitempty"`
}

type book struct {
	BookType string    `xml:"book_type,attr"`
	Metadata *metadata `xml:"book_metadata"`
}

type reportPaper struct {
	Metadata *metadata `xml:"report-paper_metadata"`
}

type conference struct {
	Contributors *contributors        `xml:"contributors,omitempty"`
	Event        *eventMetadata       `xml:"event_metadata,omitempty"`
	Proceedings  *proceedingsMetadata `xml:"proceedings_metadata"`
}

// proceedingsMetadata orders publisher ahead of publication_date and the
// ISBN, unlike the other skeletons.
type proceedingsMetadata struct {
	Language        string           `xml:"language,attr,omitempty"`
	Title           string           `xml:"proceedings_title"`
	Publisher       *publisher       `xml:"publisher,omitempty"`
	PublicationDate *publicationDate `xml:"publication_date,omitempty"`
	ISBN            *isbn            `xml:"isbn,omitempty"`
	NoISBN          *noISBN          `xml:"noisbn,omitempty"`
	DOIData         doiData          `xml:"doi_data"`
}

type eventMetadata struct {
	Name     string          `xml:"conference_name"`
	Acronym  string          `xml:"conference_acronym,omitempty"`
	Location string          `xml:"conference_location,omitempty"`
	Date     *conferenceDate `xml:"conference_date,omitempty"`
}

type conferenceDate struct {
	StartYear  string `xml:"start_year,attr,omitempty"`
	StartMonth string `xml:"start_month,attr,omitempty"`
	StartDay   string `xml:"start_day,attr,omitempty"`
	EndYear    string `xml:"end_year,attr,omitempty"`
	EndMonth   string `xml:"end_month,attr,omitempty"`
	EndDay     string `xml:"end_day,attr,omitempty"`
}

// metadata is the shared content model of every skeleton. Elements a type
// never carries are left nil and omitted.
type metadata struct {
	PublicationType    string              `xml:"publication_type,attr,omitempty"`
	Type               string              `xml:"type,attr,omitempty"`
	Language           string              `xml:"language,attr,omitempty"`
	Contributors       *contributors       `xml:"contributors,omitempty"`
	Titles             *titles             `xml:"titles,omitempty"`
	ApprovalDate       *dateParts          `xml:"approval_date,omitempty"`
	Institution        *institution        `xml:"institution,omitempty"`
	Degree             string              `xml:"degree,omitempty"`
	Version            *versionInfo        `xml:"version,omitempty"`
	Abstract           *abstract           `xml:"jats:abstract,omitempty"`
	PostedDate         *dateParts          `xml:"posted_date,omitempty"`
	PublicationDate    *publicationDate    `xml:"publication_date,omitempty"`
	ItemNumber         *itemNumber         `xml:"item_number,omitempty"`
	ISBN               *isbn               `xml:"isbn,omitempty"`
	NoISBN             *noISBN             `xml:"noisbn,omitempty"`
	Publisher          *publisher          `xml:"publisher,omitempty"`
	RelatedIdentifiers *relatedIdentifiers `xml:"relatedIdentifiers,omitempty"`
	DOIData            doiData             `xml:"doi_data"`
}

type contributors struct {
	People []personName `xml:"person_name"`
}

type personName struct {
	Role         string        `xml:"contributor_role,attr"`
	Sequence     string        `xml:"sequence,attr"`
	GivenName    string        `xml:"given_name,omitempty"`
	Surname      string        `xml:"surname"`
	Affiliations *affiliations `xml:"affiliations,omitempty"`
	ORCID        *orcid        `xml:"ORCID,omitempty"`
}

type affiliations struct {
	Institutions []institution `xml:"institution"`
}

type institution struct {
	Name       string          `xml:"institution_name,omitempty"`
	Place      string          `xml:"institution_place,omitempty"`
	Department string          `xml:"institution_department,omitempty"`
	IDs        []institutionID `xml:"institution_id,omitempty"`
}

type institutionID struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type orcid struct {
	Authenticated string `xml:"authenticated,attr"`
	Value         string `xml:",chardata"`
}

type titles struct {
	Title string `xml:"title"`
}

type dateParts struct {
	MediaType string `xml:"media_type,attr,omitempty"`
	Month     string `xml:"month,omitempty"`
	Day       string `xml:"day,omitempty"`
	Year      string `xml:"year"`
}

type publicationDate struct {
	MediaType string `xml:"media_type,attr"`
	Year      string `xml:"year"`
}

type versionInfo struct {
	Info string `xml:"version_info"`
}

type abstract struct {
	Paragraphs []string `xml:"jats:p"`
}

type itemNumber struct {
	Type  string `xml:"item_number_type,attr"`
	Value string `xml:",chardata"`
}

type isbn struct {
	MediaType string `xml:"media_type,attr"`
	Value     string `xml:",chardata"`
}

type noISBN struct {
	Reason string `xml:"reason,attr"`
}

type publisher struct {
	Name  string `xml:"publisher_name"`
	Place string `xml:"publisher_place,omitempty"`
}

type relatedIdentifiers struct {
	Items []relatedIdentifier `xml:"relatedIdentifier"`
}

type relatedIdentifier struct {
	IdentifierType string `xml:"relatedIdentifierType,attr"`
	RelationType   string `xml:"relationType,attr"`
	Value          string `xml:",chardata"`
}

type doiData struct {
	DOI      string `xml:"doi"`
	Resource string `xml:"resource"`
}
