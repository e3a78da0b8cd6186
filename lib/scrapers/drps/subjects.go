package drps

import (
	"context"
	"strings"

	"drps-backend/lib/catalog"
	"drps-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Subjects fetches a school page and extracts its subject areas.
func (c *Client) Subjects(ctx context.Context, school catalog.School) ([]catalog.Subject, error) {
	ctx, span := tracer.Start(ctx, "client:Subjects")
	defer span.End()

	doc, err := c.fetch(ctx, school.Url)
	if err != nil {
		return nil, err
	}
	return parseSubjects(doc, school.Url, school), nil
}

func parseSubjects(doc *goquery.Document, pageUrl string, school catalog.School) []catalog.Subject {
	subjects := subjectsFromListItems(doc, pageUrl, school)
	if len(subjects) == 0 {
		subjects = subjectsFromMainContent(doc, pageUrl, school)
	}
	return dedupeSubjects(subjects)
}

// subjectsFromListItems walks every list item carrying a link; school pages
// normally present their subject areas as bullet points.
func subjectsFromListItems(doc *goquery.Document, pageUrl string, school catalog.School) []catalog.Subject {
	var subjects []catalog.Subject
	doc.Find("li").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a").First()
		if link.Length() == 0 {
			return
		}
		if subject, ok := subjectFromLink(link, pageUrl, school); ok {
			subjects = append(subjects, subject)
		}
	})
	return subjects
}

// subjectsFromMainContent is the fallback for pages that don't use lists: it
// scans every link inside the designated main-content region instead.
func subjectsFromMainContent(doc *goquery.Document, pageUrl string, school catalog.School) []catalog.Subject {
	region := doc.Find("div.content")
	if region.Length() == 0 {
		region = doc.Find("td.content")
	}

	var subjects []catalog.Subject
	region.Find("a").Each(func(_ int, link *goquery.Selection) {
		if subject, ok := subjectFromLink(link, pageUrl, school); ok {
			subjects = append(subjects, subject)
		}
	})
	return subjects
}

func subjectFromLink(link *goquery.Selection, pageUrl string, school catalog.School) (catalog.Subject, bool) {
	href := link.AttrOr("href", "")
	text := htmlutil.CleanText(link.Text())
	if href == "" || text == "" || isNavigationHref(href) {
		return catalog.Subject{}, false
	}
	return catalog.Subject{
		Name:       text,
		Url:        resolveAgainstDir(pageUrl, href),
		SchoolName: school.Name,
		SchoolCode: school.Code,
		College:    school.College,
	}, true
}

// navigation and regulation links live on school pages alongside the subject
// lists and must not be mistaken for subjects
func isNavigationHref(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(href, "#") ||
		strings.Contains(lower, "index") ||
		strings.Contains(lower, "search") ||
		strings.Contains(lower, "regulations")
}

// first occurrence wins
func dedupeSubjects(subjects []catalog.Subject) []catalog.Subject {
	seen := map[string]bool{}
	var unique []catalog.Subject
	for _, subject := range subjects {
		if seen[subject.Name] {
			continue
		}
		seen[subject.Name] = true
		unique = append(unique, subject)
	}
	return unique
}

// resolveAgainstDir resolves a relative href against the directory of the
// page it appeared on.
func resolveAgainstDir(pageUrl, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	href = strings.TrimPrefix(href, "/")
	idx := strings.LastIndex(pageUrl, "/")
	if idx < 0 {
		return href
	}
	return pageUrl[:idx] + "/" + href
}
