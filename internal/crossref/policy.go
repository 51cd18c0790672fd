package crossref

import "research2crossref/internal/record"

// Inclusion states how an optional element is treated for a publication type.
type Inclusion int

const (
	// Never means the element is not emitted for the type.
	Never Inclusion = iota
	// IfPresent emits the element only when the record carries the data.
	IfPresent
	// Always emits the element on every document of the type.
	Always
	// DefaultIfAbsent emits the element, falling back to a placeholder.
	DefaultIfAbsent
)

func (i Inclusion) String() string {
	switch i {
	case IfPresent:
		return "if_present"
	case Always:
		return "always"
	case DefaultIfAbsent:
		return "default_if_absent"
	default:
		return "never"
	}
}

// Element names an optional part of the deposit document.
type Element string

const (
	ElementApprovalDate       Element = "approval_date"
	ElementDegree             Element = "degree"
	ElementInstitution        Element = "institution"
	ElementISBN               Element = "isbn"
	ElementPublisher          Element = "publisher"
	ElementAbstract           Element = "abstract"
	ElementVersion            Element = "version"
	ElementEventMetadata      Element = "event_metadata"
	ElementRelatedIdentifiers Element = "relatedIdentifiers"
	ElementItemNumber         Element = "item_number"
	ElementPublicationDate    Element = "publication_date"
	ElementPostedDate         Element = "posted_date"
)

// Skeleton is the body element a type is deposited under.
type Skeleton string

const (
	SkeletonDissertation  Skeleton = "dissertation"
	SkeletonBook          Skeleton = "book"
	SkeletonPostedContent Skeleton = "posted_content"
	SkeletonReportPaper   Skeleton = "report-paper"
	SkeletonConference    Skeleton = "conference"
)

// FieldPolicy declares the document shape of one publication type.
type FieldPolicy struct {
	Skeleton Skeleton
	Role     record.Role
	Elements map[Element]Inclusion
	// PublisherPlace controls whether publisher_place is emitted alongside
	// the publisher name.
	PublisherPlace bool
	// HomePublisher substitutes the home institution as publisher.
	HomePublisher bool
}

// Inclusion returns the rule for e, Never when the table has no entry.
func (p FieldPolicy) Inclusion(e Element) Inclusion {
	if p.Elements == nil {
		return Never
	}
	return p.Elements[e]
}

var policies = map[record.PublicationType]FieldPolicy{
	record.TypeDissertation: {
		Skeleton:      SkeletonDissertation,
		Role:          record.RoleAuthor,
		HomePublisher: true,
		Elements: map[Element]Inclusion{
			ElementApprovalDate:       IfPresent,
			ElementDegree:             IfPresent,
			ElementInstitution:        Always,
			ElementISBN:               IfPresent,
			ElementPublisher:          Always,
			ElementAbstract:           IfPresent,
			ElementVersion:            Always,
			ElementRelatedIdentifiers: IfPresent,
			ElementItemNumber:         IfPresent,
			ElementPublicationDate:    IfPresent,
		},
	},
	record.TypeBook: {
		Skeleton:       SkeletonBook,
		Role:           record.RoleAuthor,
		PublisherPlace: true,
		Elements: map[Element]Inclusion{
			ElementISBN:            DefaultIfAbsent,
			ElementPublisher:       DefaultIfAbsent,
			ElementAbstract:        IfPresent,
			ElementPublicationDate: IfPresent,
		},
	},
	record.TypePreprint: {
		Skeleton: SkeletonPostedContent,
		Role:     record.RoleAuthor,
		Elements: map[Element]Inclusion{
			ElementVersion:    Always,
			ElementPostedDate: IfPresent,
		},
	},
	record.TypeReport: {
		Skeleton:       SkeletonReportPaper,
		Role:           record.RoleAuthor,
		PublisherPlace: true,
		Elements: map[Element]Inclusion{
			ElementISBN:            IfPresent,
			ElementPublisher:       DefaultIfAbsent,
			ElementAbstract:        IfPresent,
			ElementVersion:         Always,
			ElementPublicationDate: IfPresent,
			ElementItemNumber:      IfPresent,
		},
	},
	record.TypeProceeding: {
		Skeleton:       SkeletonConference,
		Role:           record.RoleEditor,
		PublisherPlace: true,
		Elements: map[Element]Inclusion{
			ElementISBN:            DefaultIfAbsent,
			ElementPublisher:       DefaultIfAbsent,
			ElementEventMetadata:   IfPresent,
			ElementPublicationDate: IfPresent,
		},
	},
}

// PolicyFor returns the field policy registered for t.
func PolicyFor(t record.PublicationType) (FieldPolicy, bool) {
	p, ok := policies[t]
	return p, ok
}
