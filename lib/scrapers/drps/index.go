package drps

import (
	"context"
	"strings"

	"drps-backend/lib/catalog"
	"drps-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("scrapers/drps")

// An index strategy extracts the full school list from the schools index
// page. Strategies are tried in order and the first non-empty result wins,
// results are never merged across strategies.
type indexStrategy func(doc *goquery.Document, base string) []catalog.School

var indexStrategies = []indexStrategy{
	schoolsByCollegeHeading,
	schoolsByPrecedingText,
	schoolsByScheduleLinks,
}

// Index fetches the schools index page and returns the three colleges with
// their schools attached. Colleges come back in canonical order even when
// empty.
func (c *Client) Index(ctx context.Context) ([]catalog.College, error) {
	ctx, span := tracer.Start(ctx, "client:Index")
	defer span.End()

	doc, err := c.fetch(ctx, c.IndexUrl())
	if err != nil {
		return nil, err
	}

	var schools []catalog.School
	for _, strategy := range indexStrategies {
		schools = strategy(doc, c.BaseUrl())
		if len(schools) > 0 {
			break
		}
	}

	byCollege := map[string][]catalog.School{}
	for _, school := range schools {
		byCollege[school.College] = append(byCollege[school.College], school)
	}

	var colleges []catalog.College
	for _, name := range catalog.CollegeNames() {
		colleges = append(colleges, catalog.College{
			Name:    name,
			Schools: byCollege[name],
		})
	}
	return colleges, nil
}

// schoolsByCollegeHeading locates the text node carrying each college name
// and walks forward (and upward) through the sibling structure to the
// nearest following list of schools.
func schoolsByCollegeHeading(doc *goquery.Document, base string) []catalog.School {
	root := doc.Get(0)

	var schools []catalog.School
	for _, college := range catalog.CollegeNames() {
		for _, heading := range htmlutil.FindTextNodes(root, college) {
			list := nearestFollowingList(heading)
			if list == nil {
				continue
			}
			schools = append(schools, schoolsFromList(list, college, base)...)
			break
		}
	}
	return schools
}

func nearestFollowingList(node *html.Node) *html.Node {
	cur := node
	for cur != nil {
		for sib := cur.NextSibling; sib != nil; sib = sib.NextSibling {
			if sib.Type == html.ElementNode && sib.Data == "ul" {
				return sib
			}
		}
		cur = cur.Parent
	}
	return nil
}

// how far back to look when attributing a list to a college heading
const precedingTextWindow = 200

// schoolsByPrecedingText inspects the bounded window of text before every
// list in the document and attributes the list to whichever college name
// appears there.
func schoolsByPrecedingText(doc *goquery.Document, base string) []catalog.School {
	var schools []catalog.School
	for _, list := range doc.Find("ul").Nodes {
		before := htmlutil.PrecedingText(list, precedingTextWindow)

		for _, college := range catalog.CollegeNames() {
			if strings.Contains(before, college) {
				schools = append(schools, schoolsFromList(list, college, base)...)
				break
			}
		}
	}
	return schools
}

// schoolsByScheduleLinks scans every "(Schedule X)" link on the page,
// inferring the college from ancestor text where possible and falling back
// to keyword guesses on the link text. The keyword heuristics are inherently
// approximate; Arts is the default when nothing matches.
func schoolsByScheduleLinks(doc *goquery.Document, base string) []catalog.School {
	var schools []catalog.School
	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		text := htmlutil.CleanText(link.Text())
		href := link.AttrOr("href", "")
		if href == "" || !strings.Contains(text, "Schedule") {
			return
		}

		college := collegeFromAncestors(link)
		if college == "" {
			college = guessCollege(text)
		}

		name, schedule := splitSchedule(text)
		schools = append(schools, catalog.School{
			Name:     name,
			Url:      schoolUrl(base, href),
			College:  college,
			Schedule: schedule,
			Code:     schoolCode(href),
		})
	})
	return schools
}

func collegeFromAncestors(link *goquery.Selection) string {
	if len(link.Nodes) == 0 {
		return ""
	}
	matched := ""
	htmlutil.AncestorText(link.Nodes[0], func(text string) bool {
		for _, college := range catalog.CollegeNames() {
			if strings.Contains(text, college) {
				matched = college
				return true
			}
		}
		return false
	})
	return matched
}

func guessCollege(linkText string) string {
	switch {
	case strings.Contains(linkText, "Edinburgh College of Art"),
		strings.Contains(linkText, "Divinity"):
		return catalog.CollegeArts
	case strings.Contains(linkText, "Engineering"),
		strings.Contains(linkText, "Informatics"):
		return catalog.CollegeScience
	case strings.Contains(linkText, "Medicine"),
		strings.Contains(linkText, "Veterinary"):
		return catalog.CollegeMedicine
	default:
		return catalog.CollegeArts
	}
}

func schoolsFromList(list *html.Node, college, base string) []catalog.School {
	var schools []catalog.School
	goquery.NewDocumentFromNode(list).Find("li").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a").First()
		if link.Length() == 0 {
			return
		}
		href := link.AttrOr("href", "")
		text := htmlutil.CleanText(link.Text())
		if text == "" || href == "" || strings.HasPrefix(href, "#") {
			return
		}

		name, schedule := splitSchedule(text)
		schools = append(schools, catalog.School{
			Name:     name,
			Url:      schoolUrl(base, href),
			College:  college,
			Schedule: schedule,
			Code:     schoolCode(href),
		})
	})
	return schools
}

// splitSchedule strips a trailing "(Schedule X)" suffix from a school's link
// text into a separate schedule field.
func splitSchedule(text string) (name, schedule string) {
	idx := strings.Index(text, "(Schedule ")
	if idx < 0 {
		return text, ""
	}
	name = strings.TrimSpace(text[:idx])
	rest := text[idx+len("(Schedule "):]
	schedule = "Schedule " + strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ")"))
	return name, schedule
}

// schoolCode pulls the short school code out of a school URL's filename
// token, e.g. "cx_s_su210.htm" -> "su210".
func schoolCode(href string) string {
	idx := strings.Index(href, "cx_s_")
	if idx < 0 {
		return ""
	}
	code := href[idx+len("cx_s_"):]
	return strings.ReplaceAll(code, ".htm", "")
}

// schoolUrl resolves a school link against the edition base. Index page
// links are relative to the /dpt/ directory.
func schoolUrl(base, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return base + "/dpt/" + strings.TrimPrefix(href, "/")
}
