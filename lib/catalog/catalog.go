package catalog

import (
	"encoding/json"
	"regexp"
)

// The three colleges every school must be attributed to. The index page
// never spells out the mapping reliably, so attribution is best-effort.
const (
	CollegeArts     = "College of Arts, Humanities and Social Sciences"
	CollegeScience  = "College of Science and Engineering"
	CollegeMedicine = "College of Medicine and Veterinary Medicine"
)

func CollegeNames() []string {
	return []string{CollegeArts, CollegeScience, CollegeMedicine}
}

// CodePattern matches valid course codes, e.g. "PSYC10001".
// Rows whose code cell fails this pattern are discarded.
var CodePattern = regexp.MustCompile(`^[A-Z]{2,}[0-9]{4,}$`)

type College struct {
	Name    string   `json:"name"`
	Schools []School `json:"schools"`
}

// CollegeSummary is the shape written to all_colleges.json.
type CollegeSummary struct {
	Name         string `json:"name"`
	SchoolsCount int    `json:"schools_count"`
}

type School struct {
	Name     string `json:"name"`
	Url      string `json:"url"`
	College  string `json:"college"`
	Schedule string `json:"schedule"`
	Code     string `json:"code"`
}

type Subject struct {
	Name       string `json:"name"`
	Url        string `json:"url"`
	SchoolName string `json:"school_name"`
	SchoolCode string `json:"school_code"`
	College    string `json:"college"`
}

// Course is a single catalogued unit of study. The string back-references
// (Subject, SchoolName, College) identify owners by name for reporting only,
// they are never used for traversal.
type Course struct {
	Code         string
	Name         string
	Url          string
	Availability string
	Period       string
	Credits      string
	Subject      string
	SchoolName   string
	College      string

	// Details holds every field captured from the course's detail page.
	// The key set is open-ended: unrecognized table rows are stored under
	// a key normalized from their header text.
	Details map[string]string
}

// reserved course keys that never come from Details
var courseFields = map[string]bool{
	"code":         true,
	"name":         true,
	"url":          true,
	"availability": true,
	"period":       true,
	"credits":      true,
	"subject":      true,
	"school_name":  true,
	"college":      true,
}

// MarshalJSON flattens Details into the course object itself so downstream
// consumers see one flat record per course, the way the maintenance scripts
// expect it.
func (c Course) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(c.Details)+9)
	for k, v := range c.Details {
		if courseFields[k] {
			continue
		}
		out[k] = v
	}
	out["code"] = c.Code
	out["name"] = c.Name
	out["url"] = c.Url
	out["availability"] = c.Availability
	out["period"] = c.Period
	out["credits"] = c.Credits
	out["subject"] = c.Subject
	out["school_name"] = c.SchoolName
	out["college"] = c.College
	return json.Marshal(out)
}

func (c *Course) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Code = raw["code"]
	c.Name = raw["name"]
	c.Url = raw["url"]
	c.Availability = raw["availability"]
	c.Period = raw["period"]
	c.Credits = raw["credits"]
	c.Subject = raw["subject"]
	c.SchoolName = raw["school_name"]
	c.College = raw["college"]

	for k := range raw {
		if courseFields[k] {
			continue
		}
		if c.Details == nil {
			c.Details = map[string]string{}
		}
		c.Details[k] = raw[k]
	}
	return nil
}
