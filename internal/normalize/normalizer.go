package normalize

import (
	"context"
	"log/slog"
	"strings"

	"research2crossref/internal/logging"
	"research2crossref/internal/record"
	"research2crossref/internal/services"
	"research2crossref/internal/textutil"
)

// Resolver looks up the DOI registered for another CRIS publication. An empty
// string with a nil error means the publication has no DOI.
type Resolver interface {
	ResolveDOI(ctx context.Context, publicationID string) (string, error)
}

// HomeInstitution is the fixed identity substituted into home affiliations.
type HomeInstitution struct {
	Name  string
	Place string
	RORID string
}

// Options configures institution-specific normalization rules.
type Options struct {
	Home HomeInstitution
	// OrgTypeMarker is matched as a prefix of the organization type name.
	OrgTypeMarker  string
	ThesisSeriesID string
	// RORIdentifierType names the organization identifier type carrying a ROR id.
	RORIdentifierType string
}

const defaultRORIdentifierType = "ROR_ID"

// Normalizer derives cleaned, resolved copies of CRIS publications.
type Normalizer struct {
	resolver Resolver
	opts     Options
	logger   *slog.Logger
}

// New constructs a Normalizer. A nil resolver disables included-paper lookup.
func New(resolver Resolver, opts Options, logger *slog.Logger) *Normalizer {
	if strings.TrimSpace(opts.RORIdentifierType) == "" {
		opts.RORIdentifierType = defaultRORIdentifierType
	}
	return &Normalizer{
		resolver: resolver,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "normalize"),
	}
}

// Normalize returns a cleaned copy of pub. The input is never modified. The
// only error returned is cancellation of ctx; resolution failures are logged
// and the affected included paper is omitted.
func (n *Normalizer) Normalize(ctx context.Context, pub record.Publication) (record.Normalized, error) {
	out := record.Normalized{
		Publication: record.Publication{
			ID:       strings.TrimSpace(pub.ID),
			Title:    textutil.CleanText(pub.Title),
			Abstract: textutil.CleanText(pub.Abstract),
			Year:     strings.TrimSpace(pub.Year),
			Language: strings.ToLower(strings.TrimSpace(pub.Language)),
			Type:     pub.Type,
			SubType:  strings.TrimSpace(pub.SubType),
			ISBN:     strings.TrimSpace(pub.ISBN),
			DOI:      strings.TrimSpace(pub.DOI),
			DispDate: strings.TrimSpace(pub.DispDate),
		},
	}

	out.Contributors = n.contributors(pub.Contributors)
	out.Series = copySeries(pub.Series)
	out.IncludedPapers = append([]string(nil), pub.IncludedPapers...)
	out.Conference = cleanConference(pub.Conference)
	out.Publisher = cleanPublisher(pub.Publisher)
	out.ItemNumber = n.itemNumber(pub.Series)
	out.Degree = Degree(pub.Type, pub.SubType)

	dois, err := n.includedDOIs(ctx, pub.IncludedPapers)
	if err != nil {
		return record.Normalized{}, err
	}
	out.IncludedDOIs = dois
	return out, nil
}

// Degree maps a dissertation's CRIS sub-type onto the Crossref degree
// abbreviation. Other publication types carry no degree.
func Degree(t record.PublicationType, subType string) string {
	if t != record.TypeDissertation {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(subType)) {
	case "doctoral thesis":
		return "PhD"
	case "licentiate thesis":
		return "Licentiate"
	default:
		return ""
	}
}

func (n *Normalizer) itemNumber(series []record.SeriesEntry) string {
	want := strings.TrimSpace(n.opts.ThesisSeriesID)
	if want == "" {
		return ""
	}
	for _, entry := range series {
		if strings.TrimSpace(entry.SeriesID) == want {
			return textutil.CleanText(entry.ItemNumber)
		}
	}
	return ""
}

func (n *Normalizer) contributors(in []record.Contributor) []record.Contributor {
	out := make([]record.Contributor, 0, len(in))
	for _, c := range in {
		cleaned := record.Contributor{
			GivenName:  textutil.CleanText(c.GivenName),
			FamilyName: textutil.CleanText(c.FamilyName),
			Role:       c.Role,
			ORCID:      bareORCID(c.ORCID),
		}
		if cleaned.GivenName == "" && cleaned.FamilyName == "" {
			continue
		}
		if cleaned.Role == "" {
			cleaned.Role = record.RoleAuthor
		}
		cleaned.Affiliations = make([]record.Affiliation, 0, len(c.Affiliations))
		for _, aff := range c.Affiliations {
			cleaned.Affiliations = append(cleaned.Affiliations, n.affiliation(aff))
		}
		out = append(out, cleaned)
	}
	return out
}

func (n *Normalizer) affiliation(in record.Affiliation) record.Affiliation {
	out := record.Affiliation{
		OrganizationName: textutil.CleanText(in.OrganizationName),
		OrganizationType: strings.TrimSpace(in.OrganizationType),
		RORID:            strings.TrimSpace(in.RORID),
		Identifiers:      append([]record.OrgIdentifier(nil), in.Identifiers...),
		PlaceName:        textutil.CleanText(in.PlaceName),
		City:             textutil.CleanText(in.City),
		Country:          textutil.CleanText(in.Country),
		DepartmentPath:   textutil.CleanText(in.DepartmentPath),
	}
	marker := strings.TrimSpace(n.opts.OrgTypeMarker)
	if marker != "" && strings.HasPrefix(out.OrganizationType, marker) {
		out.IsHome = true
		out.OrganizationName = n.opts.Home.Name
		out.PlaceName = n.opts.Home.Place
		out.RORID = n.opts.Home.RORID
		return out
	}
	if out.RORID == "" {
		for _, id := range out.Identifiers {
			if strings.EqualFold(strings.TrimSpace(id.Type), n.opts.RORIdentifierType) {
				if value := strings.TrimSpace(id.Value); value != "" {
					out.RORID = value
					break
				}
			}
		}
	}
	return out
}

func (n *Normalizer) includedDOIs(ctx context.Context, refs []string) ([]string, error) {
	dois := make([]string, 0, len(refs))
	if len(refs) == 0 {
		return dois, nil
	}
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if n.resolver == nil {
			continue
		}
		doi, err := n.resolver.ResolveDOI(ctx, ref)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logging.WarnWithContext(logging.WithContext(ctx, n.logger), "included paper DOI lookup failed", "doi_resolution",
				logging.String("included_paper", ref),
				logging.String(logging.FieldErrorKind, string(services.KindResolution)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(services.KindResolution)),
				logging.String(logging.FieldImpact, "related identifier omitted from deposit"),
			)
			continue
		}
		doi = strings.TrimSpace(doi)
		if doi == "" {
			n.logger.Debug("included paper has no DOI", logging.String("included_paper", ref))
			continue
		}
		if _, dup := seen[doi]; dup {
			continue
		}
		seen[doi] = struct{}{}
		dois = append(dois, doi)
	}
	return dois, nil
}

func copySeries(in []record.SeriesEntry) []record.SeriesEntry {
	if len(in) == 0 {
		return nil
	}
	out := make([]record.SeriesEntry, len(in))
	for i, entry := range in {
		out[i] = record.SeriesEntry{
			SeriesID:   strings.TrimSpace(entry.SeriesID),
			ItemNumber: strings.TrimSpace(entry.ItemNumber),
		}
	}
	return out
}

func cleanConference(in *record.Conference) *record.Conference {
	if in == nil {
		return nil
	}
	out := &record.Conference{
		Name:      textutil.CleanText(in.Name),
		Acronym:   textutil.CleanText(in.Acronym),
		Location:  textutil.CleanText(in.Location),
		StartDate: strings.TrimSpace(in.StartDate),
		EndDate:   strings.TrimSpace(in.EndDate),
	}
	if out.Empty() {
		return nil
	}
	return out
}

func cleanPublisher(in *record.Publisher) *record.Publisher {
	if in == nil {
		return nil
	}
	out := &record.Publisher{
		Name:  textutil.CleanText(in.Name),
		Place: textutil.CleanText(in.Place),
	}
	if out.Name == "" && out.Place == "" {
		return nil
	}
	return out
}

// bareORCID strips any URI prefix so the builder can emit one canonical form.
func bareORCID(value string) string {
	value = strings.TrimSpace(value)
	for _, prefix := range []string{"https://orcid.org/", "http://orcid.org/", "orcid.org/"} {
		if len(value) >= len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
			return strings.TrimSpace(value[len(prefix):])
		}
	}
	return value
}
