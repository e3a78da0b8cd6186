package drps

import (
	"context"
	"strings"

	"drps-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// CourseDetails fetches a course's detail page and returns every field that
// could be captured from it. An empty map is a valid result.
func (c *Client) CourseDetails(ctx context.Context, courseUrl string) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "client:CourseDetails")
	defer span.End()

	doc, err := c.fetch(ctx, courseUrl)
	if err != nil {
		return nil, err
	}
	return parseCourseDetails(doc), nil
}

// A field rule maps a recognized header substring to a normalized detail
// key. Rules are matched in order, first match wins.
type fieldRule struct {
	header string
	key    string
}

var outlineRules = []fieldRule{
	{"School", "school"},
	{"Credit level", "credit_level"},
	{"SCQF Credits", "scqf_credits"},
	{"ECTS Credits", "ects_credits"},
	{"Summary", "summary"},
	{"Course description", "course_description"},
	{"College", "college_detail"},
	{"Availability", "availability_detail"},
}

var entryRequirementRules = []fieldRule{
	{"Pre-requisites", "pre_requisites"},
	{"Co-requisites", "co_requisites"},
	{"Prohibited Combinations", "prohibited_combinations"},
	{"Other requirements", "other_requirements"},
	{"Additional Costs", "additional_costs"},
}

var deliveryRules = []fieldRule{
	{"Academic year", "academic_year"},
	{"Course Start", "course_start"},
	{"Timetable", "timetable"},
	{"Learning and Teaching activities", "learning_activities"},
	{"Quota", "quota"},
}

var visitingStudentRules = []fieldRule{
	{"Pre-requisites", "visiting_prerequisites"},
	{"High Demand Course", "high_demand"},
}

func parseCourseDetails(doc *goquery.Document) map[string]string {
	details := map[string]string{}

	heading := doc.Find("h1").First()
	if heading.Length() == 0 {
		heading = doc.Find("h2").First()
	}
	if title := htmlutil.CleanText(heading.Text()); title != "" {
		details["full_title"] = title
	}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		caption := htmlutil.CleanText(table.Find("caption").First().Text())
		switch {
		case strings.Contains(caption, "Course Outline"):
			applyFieldRules(table, outlineRules, details)
		case strings.Contains(caption, "Entry Requirements"):
			applyFieldRules(table, entryRequirementRules, details)
		case strings.Contains(caption, "Course Delivery Information"):
			applyFieldRules(table, deliveryRules, details)
		case strings.Contains(caption, "Information for Visiting Students"):
			applyFieldRules(table, visitingStudentRules, details)
		default:
			applyGenericRows(table, details)
		}
	})

	// some pages render these outside any captioned table
	captureFollowingCell(doc, "Course description", "course_description", details)
	captureFollowingCell(doc, "Summary", "summary", details)

	return details
}

// applyFieldRules scans a table's two-cell rows and maps recognized header
// substrings to their detail keys.
func applyFieldRules(table *goquery.Selection, rules []fieldRule, details map[string]string) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		header, value, ok := headerValueCells(row)
		if !ok {
			return
		}
		for _, rule := range rules {
			if strings.Contains(header, rule.header) {
				details[rule.key] = value
				return
			}
		}
	})
}

// applyGenericRows captures uncaptioned tables without data loss: the detail
// key is derived from the header text itself.
func applyGenericRows(table *goquery.Selection, details map[string]string) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		header, value, ok := headerValueCells(row)
		if !ok {
			return
		}
		details[normalizeKey(header)] = value
	})
}

func headerValueCells(row *goquery.Selection) (header, value string, ok bool) {
	cells := row.Find("th, td")
	if cells.Length() < 2 {
		return "", "", false
	}
	header = htmlutil.CleanText(cells.Eq(0).Text())
	value = htmlutil.CleanText(cells.Eq(1).Text())
	if header == "" {
		return "", "", false
	}
	return header, value, true
}

var keyReplacer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	"(", "",
	")", "",
)

func normalizeKey(header string) string {
	return keyReplacer.Replace(strings.ToLower(header))
}

// captureFollowingCell finds a header cell containing marker and stores the
// text of the cell that follows it in document order.
func captureFollowingCell(doc *goquery.Document, marker, key string, details map[string]string) {
	found := false
	doc.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		if found || !strings.Contains(cell.Text(), marker) {
			return
		}
		if value := followingCellText(cell); value != "" {
			details[key] = value
			found = true
		}
	})
}

func followingCellText(cell *goquery.Selection) string {
	next := cell.NextAllFiltered("td").First()
	if next.Length() > 0 {
		return htmlutil.CleanText(next.Text())
	}
	for row := cell.Closest("tr").Next(); row.Length() > 0; row = row.Next() {
		td := row.Find("td").First()
		if td.Length() > 0 {
			return htmlutil.CleanText(td.Text())
		}
	}
	return ""
}
