package crossref_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research2crossref/internal/crossref"
	"research2crossref/internal/record"
	"research2crossref/internal/services"
)

const prefix = "10.63959"

var fixedNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

func newBuilder(t *testing.T) *crossref.Builder {
	t.Helper()
	b, err := crossref.NewBuilder(crossref.Config{
		Depositor: crossref.Depositor{Name: "Research Support", Email: "support@example.org"},
		Home: crossref.HomeInstitution{
			Name:  "Chalmers University of Technology",
			Place: "Gothenburg, Sweden",
			RORID: "https://ror.org/040wg7k59",
		},
		DOIPrefix:       prefix,
		ResourceBaseURL: "https://research.example.org/publication/",
		Now:             func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return b
}

func minimalRecord(t record.PublicationType) record.Normalized {
	return record.Normalized{
		Publication: record.Publication{
			ID:    "abc123",
			Title: "On Things",
			Type:  t,
			Contributors: []record.Contributor{
				{GivenName: "Ada", FamilyName: "Lovelace", Role: record.RoleAuthor},
			},
		},
		IncludedDOIs: []string{},
	}
}

func fullRecord(t record.PublicationType) record.Normalized {
	n := minimalRecord(t)
	n.Abstract = "An abstract."
	n.Year = "2024"
	n.Language = "en"
	n.ISBN = "978-91-7905-123-4"
	n.DispDate = "2024-05-17T10:00:00"
	n.Degree = "PhD"
	n.ItemNumber = "5432"
	n.IncludedDOIs = []string{"10.1000/one"}
	n.Conference = &record.Conference{Name: "Conf", StartDate: "2024-06-01", EndDate: "2024-06-03"}
	n.Publisher = &record.Publisher{Name: "Press", Place: "Gothenburg"}
	return n
}

var markers = map[crossref.Element]string{
	crossref.ElementApprovalDate:       "<approval_date>",
	crossref.ElementDegree:             "<degree>",
	crossref.ElementInstitution:        "<institution>",
	crossref.ElementPublisher:          "<publisher>",
	crossref.ElementAbstract:           "<jats:abstract>",
	crossref.ElementVersion:            "<version>",
	crossref.ElementEventMetadata:      "<event_metadata>",
	crossref.ElementRelatedIdentifiers: "<relatedIdentifiers>",
}

func TestBuildHonorsPolicyTable(t *testing.T) {
	b := newBuilder(t)
	for _, pubType := range record.Types() {
		policy, ok := crossref.PolicyFor(pubType)
		require.True(t, ok, "no policy for %s", pubType)

		for name, n := range map[string]record.Normalized{
			"minimal": minimalRecord(pubType),
			"full":    fullRecord(pubType),
		} {
			doc, err := b.Build(n, crossref.WithSuffix("x1"))
			require.NoError(t, err, "%s/%s", pubType, name)
			xml := string(doc.Bytes())

			for element, marker := range markers {
				switch policy.Inclusion(element) {
				case crossref.Never:
					assert.NotContains(t, xml, marker, "%s/%s must omit %s", pubType, name, element)
				case crossref.Always, crossref.DefaultIfAbsent:
					assert.Contains(t, xml, marker, "%s/%s must include %s", pubType, name, element)
				}
			}

			switch policy.Inclusion(crossref.ElementISBN) {
			case crossref.Never:
				assert.NotContains(t, xml, "<isbn", "%s/%s", pubType, name)
				assert.NotContains(t, xml, "<noisbn", "%s/%s", pubType, name)
			case crossref.DefaultIfAbsent:
				assert.True(t, strings.Contains(xml, "<isbn") || strings.Contains(xml, "<noisbn"), "%s/%s", pubType, name)
			}
		}
	}
}

func TestBuildFailsWithoutTitleForEveryType(t *testing.T) {
	b := newBuilder(t)
	for _, pubType := range record.Types() {
		n := fullRecord(pubType)
		n.Title = " "
		_, err := b.Build(n)

		var verr *crossref.ValidationError
		require.ErrorAs(t, err, &verr, "%s", pubType)
		assert.Equal(t, "title", verr.Field)
		assert.True(t, errors.Is(err, services.ErrValidation))
	}
}

func TestBuildDissertationFromISBN(t *testing.T) {
	n := minimalRecord(record.TypeDissertation)
	n.ISBN = "978-91-7905-123-4"

	doc, err := newBuilder(t).Build(n)
	require.NoError(t, err)

	assert.Equal(t, prefix+"/9789179051234", doc.RegistrationID())
	assert.Equal(t, "9789179051234.xml", doc.FileName())
	assert.Equal(t, "20240517093000.xml", doc.TimestampFileName())

	xml := string(doc.Bytes())
	assert.True(t, strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.NotContains(t, xml, "relatedIdentifiers")
	assert.Contains(t, xml, "<doi_batch_id>"+prefix+"/9789179051234</doi_batch_id>")
	assert.Contains(t, xml, "<timestamp>20240517093000</timestamp>")
	assert.Contains(t, xml, "<doi>"+prefix+"/9789179051234</doi>")
	assert.Contains(t, xml, "<resource>https://research.example.org/publication/abc123</resource>")
	assert.Contains(t, xml, `<isbn media_type="print">978-91-7905-123-4</isbn>`)
	assert.Contains(t, xml, `<institution_id type="ror">https://ror.org/040wg7k59</institution_id>`)
	assert.Contains(t, xml, `version="5.4.0"`)
	assert.Contains(t, xml, `xmlns:jats="http://www.ncbi.nlm.nih.gov/JATS1"`)
}

func TestBuildDissertationRelatedIdentifiers(t *testing.T) {
	n := fullRecord(record.TypeDissertation)
	n.IncludedDOIs = []string{"10.1000/one", "10.1000/two"}

	doc, err := newBuilder(t).Build(n)
	require.NoError(t, err)
	xml := string(doc.Bytes())

	first := strings.Index(xml, "10.1000/one")
	second := strings.Index(xml, "10.1000/two")
	require.True(t, first > 0 && second > first, "related identifiers out of order")
	assert.Contains(t, xml, `relatedIdentifierType="DOI"`)
	assert.Contains(t, xml, `relationType="HasPart"`)
	assert.Contains(t, xml, "<day>17</day>")
	assert.Contains(t, xml, "<degree>PhD</degree>")
	assert.Contains(t, xml, `<item_number item_number_type="institution">5432</item_number>`)
}

func TestBuildUnresolvedIncludedPaperStillBuilds(t *testing.T) {
	n := minimalRecord(record.TypeDissertation)
	n.ISBN = "9789179051234"
	n.IncludedPapers = []string{"unresolvable"}

	doc, err := newBuilder(t).Build(n)
	require.NoError(t, err)
	assert.NotContains(t, string(doc.Bytes()), "relatedIdentifiers")
}

func TestBuildProceedingWithoutConference(t *testing.T) {
	n := minimalRecord(record.TypeProceeding)
	n.ISBN = "9789179051234"

	doc, err := newBuilder(t).Build(n)
	require.NoError(t, err)
	xml := string(doc.Bytes())

	assert.NotContains(t, xml, "event_metadata")
	assert.Contains(t, xml, "<proceedings_title>On Things</proceedings_title>")
	assert.Contains(t, xml, `contributor_role="editor"`)
	assert.NotContains(t, xml, `contributor_role="author"`)
}

func TestBuildProceedingEventMetadata(t *testing.T) {
	n := minimalRecord(record.TypeProceeding)
	n.Conference = &record.Conference{Acronym: "ICX", Location: "Lund", StartDate: "2024-06-01", EndDate: "2024-06-03"}

	doc, err := newBuilder(t).Build(n, crossref.WithSuffix(prefix+"/icx-2024"))
	require.NoError(t, err)
	xml := string(doc.Bytes())

	assert.Equal(t, prefix+"/icx-2024", doc.RegistrationID())
	assert.Contains(t, xml, "<conference_name>ICX</conference_name>")
	assert.Contains(t, xml, `start_year="2024"`)
	assert.Contains(t, xml, `end_day="03"`)
	assert.Contains(t, xml, `<noisbn reason="monograph"></noisbn>`)
}

func TestBuildProceedingElementOrder(t *testing.T) {
	n := fullRecord(record.TypeProceeding)

	doc, err := newBuilder(t).Build(n, crossref.WithSuffix("conf-1"))
	require.NoError(t, err)
	xml := string(doc.Bytes())

	start := strings.Index(xml, "<proceedings_metadata")
	require.True(t, start > 0, "missing proceedings_metadata")
	body := xml[start:]

	order := []string{"<proceedings_title>", "<publisher>", "<publication_date", "<isbn", "<doi_data>"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(body, marker)
		require.True(t, idx >= 0, "missing %s", marker)
		assert.Greater(t, idx, last, "%s out of order", marker)
		last = idx
	}
	assert.NotContains(t, body, "<titles>")
}

func TestBuildBookWithoutISBNUsesMarker(t *testing.T) {
	doc, err := newBuilder(t).Build(minimalRecord(record.TypeBook), crossref.WithSuffix("book-1"))
	require.NoError(t, err)
	xml := string(doc.Bytes())

	assert.Contains(t, xml, `<noisbn reason="monograph">`)
	assert.Contains(t, xml, `book_type="monograph"`)
	assert.Contains(t, xml, "<publisher_name>Chalmers University of Technology</publisher_name>")
}

func TestBuildContributorSequenceAndORCID(t *testing.T) {
	n := minimalRecord(record.TypeReport)
	n.Contributors = []record.Contributor{
		{GivenName: "Ada", FamilyName: "Lovelace", ORCID: "0000-0002-1825-0097"},
		{GivenName: "Alan", FamilyName: "Turing", Affiliations: []record.Affiliation{
			{OrganizationName: "KTH", RORID: "https://ror.org/026vcq606", City: "Stockholm", Country: "Sweden"},
		}},
		{FamilyName: "Hopper"},
	}

	doc, err := newBuilder(t).Build(n, crossref.WithSuffix("r1"))
	require.NoError(t, err)
	xml := string(doc.Bytes())

	assert.Equal(t, 1, strings.Count(xml, `sequence="first"`))
	assert.Equal(t, 2, strings.Count(xml, `sequence="additional"`))
	assert.Less(t, strings.Index(xml, "Lovelace"), strings.Index(xml, `sequence="additional"`))
	assert.Contains(t, xml, `<ORCID authenticated="true">https://orcid.org/0000-0002-1825-0097</ORCID>`)
	assert.Contains(t, xml, "<institution_place>Stockholm, Sweden</institution_place>")
}

func TestBuildRequiresContributorsAndSuffix(t *testing.T) {
	b := newBuilder(t)

	n := minimalRecord(record.TypeBook)
	n.Contributors = nil
	_, err := b.Build(n, crossref.WithSuffix("x"))
	var verr *crossref.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "contributors", verr.Field)

	_, err = b.Build(minimalRecord(record.TypeBook))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "registration_id", verr.Field)

	n = minimalRecord("poster")
	_, err = b.Build(n, crossref.WithSuffix("x"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "publication_type", verr.Field)
}

func TestNewBuilderRequiresPrefix(t *testing.T) {
	_, err := crossref.NewBuilder(crossref.Config{Depositor: crossref.Depositor{Name: "a", Email: "b"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrConfiguration))
}

func TestDocumentBytesIsACopy(t *testing.T) {
	doc, err := newBuilder(t).Build(minimalRecord(record.TypePreprint), crossref.WithSuffix("pp"))
	require.NoError(t, err)

	first := doc.Bytes()
	first[0] = 'X'
	assert.Equal(t, byte('<'), doc.Bytes()[0])
	assert.Equal(t, record.TypePreprint, doc.Type())
}
