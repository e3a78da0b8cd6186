package drps

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"drps-backend/lib/catalog"
	"drps-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Courses fetches a subject page and extracts its course listing. Courses
// that carry a detail link get their detail page fetched and merged in
// before they are returned; a failed detail fetch keeps the basic record.
func (c *Client) Courses(ctx context.Context, subject catalog.Subject) ([]catalog.Course, error) {
	ctx, span := tracer.Start(ctx, "client:Courses")
	defer span.End()

	doc, err := c.fetch(ctx, subject.Url)
	if err != nil {
		return nil, err
	}

	courses := coursesFromTables(doc, subject.Url, subject)
	if len(courses) == 0 {
		courses = coursesFromLinks(doc, subject.Url, subject)
	}

	for i := range courses {
		if courses[i].Url == "" {
			continue
		}
		details, err := c.CourseDetails(ctx, courses[i].Url)
		if err != nil {
			slog.WarnContext(
				ctx, "failed to fetch course details",
				"code", courses[i].Code, "url", courses[i].Url, "err", err,
			)
			continue
		}
		courses[i].Details = details
	}
	return courses, nil
}

// coursesFromTables locates course tables by their header row and reads one
// course per data row.
func coursesFromTables(doc *goquery.Document, pageUrl string, subject catalog.Subject) []catalog.Course {
	tables := doc.Find("table.sitstablegrid")
	if tables.Length() == 0 {
		tables = doc.Find("table")
	}

	var courses []catalog.Course
	tables.Each(func(_ int, table *goquery.Selection) {
		var headers []string
		table.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, strings.ToLower(htmlutil.CleanText(th.Text())))
		})
		if !isCourseTable(headers) {
			return
		}

		codeIdx := headerIndex(headers, 0, "code")
		availabilityIdx := headerIndex(headers, 1, "availability")
		nameIdx := headerIndex(headers, 2, "course name", "name")
		periodIdx := headerIndex(headers, 3, "period")
		creditsIdx := headerIndex(headers, 4, "credit")

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= max(codeIdx, nameIdx) {
				return
			}

			code := htmlutil.CleanText(cells.Eq(codeIdx).Text())
			name, courseUrl := nameAndUrl(cells.Eq(nameIdx), pageUrl)
			if !isCourseCode(code) || name == "" {
				return
			}

			courses = append(courses, catalog.Course{
				Code:         code,
				Name:         name,
				Url:          courseUrl,
				Availability: cellText(cells, availabilityIdx),
				Period:       cellText(cells, periodIdx),
				Credits:      cellText(cells, creditsIdx),
				Subject:      subject.Name,
				SchoolName:   subject.SchoolName,
				College:      subject.College,
			})
		})
	})
	return courses
}

func isCourseTable(headers []string) bool {
	if len(headers) == 0 {
		return false
	}
	joined := strings.Join(headers, " ")
	for _, marker := range []string{"code", "course", "name"} {
		if strings.Contains(joined, marker) {
			return true
		}
	}
	return false
}

// headerIndex resolves a column by case-insensitive header substring match,
// defaulting to the column's conventional position.
func headerIndex(headers []string, fallback int, substrs ...string) int {
	for _, substr := range substrs {
		for i, header := range headers {
			if strings.Contains(header, substr) {
				return i
			}
		}
	}
	return fallback
}

// nameAndUrl reads the course name cell, preferring link text over raw cell
// text, and resolves the detail link when one exists.
func nameAndUrl(cell *goquery.Selection, pageUrl string) (string, string) {
	link := cell.Find("a").First()
	if link.Length() == 0 {
		return htmlutil.CleanText(cell.Text()), ""
	}
	name := htmlutil.CleanText(link.Text())
	href := link.AttrOr("href", "")
	if href == "" {
		return name, ""
	}
	return name, resolveAgainstDir(pageUrl, href)
}

func cellText(cells *goquery.Selection, idx int) string {
	if idx >= cells.Length() {
		return ""
	}
	return htmlutil.CleanText(cells.Eq(idx).Text())
}

// legend/key rows share the course tables' structure and must be dropped
var legendTokens = []string{"key", "legend", "available", "not available"}

func isCourseCode(code string) bool {
	if code == "" {
		return false
	}
	lower := strings.ToLower(code)
	if strings.Contains(lower, "course") || strings.Contains(lower, "code") {
		return false
	}
	for _, token := range legendTokens {
		if strings.Contains(lower, token) {
			return false
		}
	}
	return catalog.CodePattern.MatchString(code)
}

var codeAnywhere = regexp.MustCompile(`[A-Z]{2,}[0-9]{4,}`)

// coursesFromLinks is the fallback for subject pages without course tables:
// any link whose text or href carries a course code becomes a minimal course
// record with empty availability, period and credits.
func coursesFromLinks(doc *goquery.Document, pageUrl string, subject catalog.Subject) []catalog.Course {
	var courses []catalog.Course
	for _, anchor := range htmlutil.GetAnchors(doc.Find("a")) {
		if anchor.Href == "" || anchor.Name == "" {
			continue
		}
		if strings.HasPrefix(anchor.Href, "#") || strings.Contains(strings.ToLower(anchor.Href), "index") {
			continue
		}

		code := codeAnywhere.FindString(anchor.Name)
		if code == "" {
			code = codeAnywhere.FindString(anchor.Href)
		}
		if code == "" {
			continue
		}

		courses = append(courses, catalog.Course{
			Code:       code,
			Name:       anchor.Name,
			Url:        resolveAgainstDir(pageUrl, anchor.Href),
			Subject:    subject.Name,
			SchoolName: subject.SchoolName,
			College:    subject.College,
		})
	}
	return courses
}
