package crossref

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"research2crossref/internal/record"
	"research2crossref/internal/services"
	"research2crossref/internal/textutil"
)

// Depositor identifies who submits deposits to Crossref.
type Depositor struct {
	Name       string
	Email      string
	Registrant string
}

// HomeInstitution is the fixed institutional identity used for degree
// granting institution blocks and implicit publishers.
type HomeInstitution struct {
	Name  string
	Place string
	RORID string
}

// Config bundles the immutable inputs of a Builder.
type Config struct {
	Depositor       Depositor
	Home            HomeInstitution
	DOIPrefix       string
	ResourceBaseURL string
	Now             func() time.Time
}

// Builder maps normalized records onto deposit documents.
type Builder struct {
	cfg Config
}

// BuildOption customizes a single Build call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	suffix string
}

// WithSuffix registers the record under an explicit DOI suffix instead of
// one derived from its ISBN. A suffix that already carries the configured
// prefix is accepted.
func WithSuffix(suffix string) BuildOption {
	return func(o *buildOptions) {
		o.suffix = suffix
	}
}

// NewBuilder validates cfg and returns a Builder.
func NewBuilder(cfg Config) (*Builder, error) {
	cfg.DOIPrefix = strings.TrimSuffix(strings.TrimSpace(cfg.DOIPrefix), "/")
	if cfg.DOIPrefix == "" {
		return nil, services.Wrap(services.ErrConfiguration, "build", "new builder", "doi prefix is required", nil)
	}
	if strings.TrimSpace(cfg.Depositor.Name) == "" || strings.TrimSpace(cfg.Depositor.Email) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "build", "new builder", "depositor name and email are required", nil)
	}
	if strings.TrimSpace(cfg.Depositor.Registrant) == "" {
		cfg.Depositor.Registrant = cfg.Home.Name
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Builder{cfg: cfg}, nil
}

// Prefix returns the DOI prefix registrations are minted under.
func (b *Builder) Prefix() string {
	return b.cfg.DOIPrefix
}

// RegistrationID derives the DOI a record would be registered under without
// building the full document.
func (b *Builder) RegistrationID(n record.Normalized, opts ...BuildOption) (string, error) {
	suffix, err := b.suffix(n, opts)
	if err != nil {
		return "", err
	}
	return b.cfg.DOIPrefix + "/" + suffix, nil
}

// Build assembles the deposit document for n. Required fields without a
// default yield a *ValidationError naming the field.
func (b *Builder) Build(n record.Normalized, opts ...BuildOption) (*Document, error) {
	policy, ok := PolicyFor(n.Type)
	if !ok {
		return nil, missing("publication_type")
	}
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return nil, missing("title")
	}
	people := b.contributors(n.Contributors, policy.Role)
	if people == nil {
		return nil, missing("contributors")
	}
	suffix, err := b.suffix(n, opts)
	if err != nil {
		return nil, err
	}

	builtAt := b.cfg.Now()
	regID := b.cfg.DOIPrefix + "/" + suffix
	meta := b.metadata(n, policy, title, regID)

	batch := doiBatch{
		Xmlns:          schemaNamespace,
		XmlnsXSI:       xsiNamespace,
		XmlnsJATS:      jatsNamespace,
		SchemaLocation: schemaLocation,
		Version:        SchemaVersion,
		Head: head{
			BatchID:   regID,
			Timestamp: builtAt.Format(timestampLayout),
			Depositor: depositor{
				Name:  b.cfg.Depositor.Name,
				Email: b.cfg.Depositor.Email,
			},
			Registrant: b.cfg.Depositor.Registrant,
		},
	}

	switch policy.Skeleton {
	case SkeletonDissertation:
		meta.PublicationType = "full_text"
		meta.Contributors = people
		batch.Body.Dissertation = meta
	case SkeletonBook:
		meta.Contributors = people
		batch.Body.Book = &book{BookType: "monograph", Metadata: meta}
	case SkeletonPostedContent:
		meta.Type = "preprint"
		meta.Contributors = people
		batch.Body.PostedContent = meta
	case SkeletonReportPaper:
		meta.Contributors = people
		batch.Body.ReportPaper = &reportPaper{Metadata: meta}
	case SkeletonConference:
		conf := &conference{
			Contributors: people,
			Proceedings: &proceedingsMetadata{
				Language:        meta.Language,
				Title:           title,
				Publisher:       meta.Publisher,
				PublicationDate: meta.PublicationDate,
				ISBN:            meta.ISBN,
				NoISBN:          meta.NoISBN,
				DOIData:         meta.DOIData,
			},
		}
		if policy.Inclusion(ElementEventMetadata) != Never {
			conf.Event = eventFor(n.Conference, title)
		}
		batch.Body.Conference = conf
	default:
		return nil, fmt.Errorf("unhandled skeleton %q", policy.Skeleton)
	}

	payload, err := xml.MarshalIndent(batch, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode deposit: %w", err)
	}
	data := make([]byte, 0, len(xml.Header)+len(payload)+1)
	data = append(data, xml.Header...)
	data = append(data, payload...)
	data = append(data, '\n')

	return &Document{
		registrationID: regID,
		suffix:         suffix,
		data:           data,
		builtAt:        builtAt,
		pubType:        n.Type,
	}, nil
}

func (b *Builder) suffix(n record.Normalized, opts []BuildOption) (string, error) {
	var o buildOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	suffix := strings.TrimSpace(o.suffix)
	if suffix != "" {
		suffix = strings.TrimPrefix(suffix, b.cfg.DOIPrefix+"/")
	} else {
		suffix = textutil.CompactIdentifier(n.ISBN)
	}
	if suffix == "" {
		return "", missing("registration_id")
	}
	return suffix, nil
}

func (b *Builder) metadata(n record.Normalized, policy FieldPolicy, title, regID string) *metadata {
	meta := &metadata{
		Language: strings.TrimSpace(n.Language),
		DOIData: doiData{
			DOI:      regID,
			Resource: b.resource(n.ID),
		},
	}
	meta.Titles = &titles{Title: title}

	if include(policy, ElementApprovalDate, true) {
		if year, month, day, ok := n.ApprovalDate(); ok {
			meta.ApprovalDate = &dateParts{Month: month, Day: day, Year: year}
		}
	}
	if include(policy, ElementInstitution, false) {
		meta.Institution = b.homeInstitution()
	}
	if include(policy, ElementDegree, n.Degree != "") {
		meta.Degree = n.Degree
	}
	if include(policy, ElementVersion, false) {
		meta.Version = &versionInfo{Info: "1"}
	}
	if include(policy, ElementAbstract, n.Abstract != "") {
		meta.Abstract = &abstract{Paragraphs: []string{n.Abstract}}
	}
	year := strings.TrimSpace(n.Year)
	if include(policy, ElementPostedDate, year != "") {
		meta.PostedDate = &dateParts{Year: year}
	}
	if include(policy, ElementPublicationDate, year != "") {
		meta.PublicationDate = &publicationDate{MediaType: "print", Year: year}
	}
	if include(policy, ElementItemNumber, n.ItemNumber != "") {
		meta.ItemNumber = &itemNumber{Type: "institution", Value: n.ItemNumber}
	}

	isbnValue := strings.TrimSpace(n.ISBN)
	switch policy.Inclusion(ElementISBN) {
	case IfPresent, Always:
		if isbnValue != "" {
			meta.ISBN = &isbn{MediaType: "print", Value: isbnValue}
		}
	case DefaultIfAbsent:
		if isbnValue != "" {
			meta.ISBN = &isbn{MediaType: "print", Value: isbnValue}
		} else {
			meta.NoISBN = &noISBN{Reason: "monograph"}
		}
	}

	meta.Publisher = b.publisher(n.Publisher, policy)

	if include(policy, ElementRelatedIdentifiers, len(n.IncludedDOIs) > 0) {
		related := &relatedIdentifiers{Items: make([]relatedIdentifier, 0, len(n.IncludedDOIs))}
		for _, doi := range n.IncludedDOIs {
			related.Items = append(related.Items, relatedIdentifier{
				IdentifierType: "DOI",
				RelationType:   "HasPart",
				Value:          doi,
			})
		}
		meta.RelatedIdentifiers = related
	}
	return meta
}

// include evaluates the policy for elements whose absence cannot be
// papered over with a placeholder.
func include(policy FieldPolicy, e Element, present bool) bool {
	switch policy.Inclusion(e) {
	case Always:
		return true
	case IfPresent, DefaultIfAbsent:
		return present
	default:
		return false
	}
}

func (b *Builder) publisher(src *record.Publisher, policy FieldPolicy) *publisher {
	rule := policy.Inclusion(ElementPublisher)
	if rule == Never {
		return nil
	}
	if policy.HomePublisher {
		return &publisher{Name: b.cfg.Home.Name}
	}
	var name, place string
	if src != nil {
		name = strings.TrimSpace(src.Name)
		place = strings.TrimSpace(src.Place)
	}
	if name == "" {
		if rule == IfPresent {
			return nil
		}
		name, place = b.cfg.Home.Name, textutil.FirstNonEmpty(place, b.cfg.Home.Place)
	}
	if name == "" {
		return nil
	}
	out := &publisher{Name: name}
	if policy.PublisherPlace {
		out.Place = place
	}
	return out
}

func (b *Builder) homeInstitution() *institution {
	inst := &institution{
		Name:  b.cfg.Home.Name,
		Place: b.cfg.Home.Place,
	}
	if ror := strings.TrimSpace(b.cfg.Home.RORID); ror != "" {
		inst.IDs = []institutionID{{Type: "ror", Value: ror}}
	}
	return inst
}

func (b *Builder) resource(crisID string) string {
	return b.cfg.ResourceBaseURL + strings.TrimSpace(crisID)
}

func (b *Builder) contributors(list []record.Contributor, role record.Role) *contributors {
	people := make([]personName, 0, len(list))
	for _, c := range list {
		surname := strings.TrimSpace(c.FamilyName)
		given := strings.TrimSpace(c.GivenName)
		if surname == "" {
			// surname is mandatory in person_name; a mononym goes there.
			surname, given = given, ""
		}
		if surname == "" {
			continue
		}
		p := personName{
			Role:      string(role),
			Sequence:  string(record.SequenceAt(len(people))),
			GivenName: given,
			Surname:   surname,
		}
		if affs := affiliationsFor(c.Affiliations); affs != nil {
			p.Affiliations = affs
		}
		if id := orcidURI(c.ORCID); id != "" {
			p.ORCID = &orcid{Authenticated: "true", Value: id}
		}
		people = append(people, p)
	}
	if len(people) == 0 {
		return nil
	}
	return &contributors{People: people}
}

func affiliationsFor(list []record.Affiliation) *affiliations {
	out := make([]institution, 0, len(list))
	for _, aff := range list {
		name := strings.TrimSpace(aff.OrganizationName)
		ror := strings.TrimSpace(aff.RORID)
		if name == "" && ror == "" {
			continue
		}
		inst := institution{
			Name:       name,
			Place:      aff.Place(),
			Department: strings.TrimSpace(aff.DepartmentPath),
		}
		if ror != "" {
			inst.IDs = []institutionID{{Type: "ror", Value: ror}}
		}
		out = append(out, inst)
	}
	if len(out) == 0 {
		return nil
	}
	return &affiliations{Institutions: out}
}

func orcidURI(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return "https://" + strings.TrimPrefix(strings.TrimPrefix(id, "http://"), "https://")
	}
	return orcidBaseURL + id
}

func eventFor(c *record.Conference, fallbackName string) *eventMetadata {
	if c.Empty() {
		return nil
	}
	event := &eventMetadata{
		Name:     textutil.FirstNonEmpty(c.Name, c.Acronym, fallbackName),
		Acronym:  strings.TrimSpace(c.Acronym),
		Location: strings.TrimSpace(c.Location),
	}
	start := splitDate(c.StartDate)
	end := splitDate(c.EndDate)
	if start[0] != "" || end[0] != "" {
		event.Date = &conferenceDate{
			StartYear:  start[0],
			StartMonth: start[1],
			StartDay:   start[2],
			EndYear:    end[0],
			EndMonth:   end[1],
			EndDay:     end[2],
		}
	}
	return event
}

// splitDate breaks a YYYY-MM-DD prefix into its parts. Missing parts stay
// empty so partial dates still yield a year.
func splitDate(value string) [3]string {
	var out [3]string
	value = strings.TrimSpace(value)
	if len(value) >= 10 {
		value = value[:10]
	}
	parts := strings.SplitN(value, "-", 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		out[i] = strings.TrimSpace(parts[i])
	}
	if len(out[0]) != 4 {
		return [3]string{}
	}
	return out
}
