package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"drps-backend/lib/catalog"
)

// PersistError reports a failed write of a crawl output file. Persistence
// failures never abort a crawl, callers log them and move on.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Store writes crawl output as pretty-printed JSON, one file per college,
// per school and per school course list, under a single output root.
type Store struct {
	root string
}

func NewStore(root string) (Store, error) {
	for _, dir := range []string{root,
		filepath.Join(root, "colleges"),
		filepath.Join(root, "schools"),
		filepath.Join(root, "courses"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Store{}, err
		}
	}
	return Store{root: root}, nil
}

func (s Store) save(record any, path string) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	return nil
}

func (s Store) SaveCollege(college catalog.College) error {
	if college.Schools == nil {
		college.Schools = []catalog.School{}
	}
	name := strings.ReplaceAll(college.Name, " ", "_")
	return s.save(college, filepath.Join(s.root, "colleges", name+".json"))
}

type schoolRecord struct {
	catalog.School
	Subjects []catalog.Subject `json:"subjects"`
}

func (s Store) SaveSchool(school catalog.School, subjects []catalog.Subject) error {
	if subjects == nil {
		subjects = []catalog.Subject{}
	}
	record := schoolRecord{School: school, Subjects: subjects}
	return s.save(record, filepath.Join(s.root, "schools", school.Code+".json"))
}

var schoolNameSanitizer = strings.NewReplacer(
	" ", "_",
	",", "",
	"(", "",
	")", "",
	"/", "_",
)

// SaveCourses writes a school's aggregated course list. The filename comes
// from the sanitized display name, not the school code, because that is what
// the downstream maintenance scripts key on.
func (s Store) SaveCourses(school catalog.School, courses []catalog.Course) error {
	if courses == nil {
		courses = []catalog.Course{}
	}
	name := schoolNameSanitizer.Replace(school.Name)
	path := filepath.Join(s.root, "courses", fmt.Sprintf("courses_%s.json", name))
	return s.save(courses, path)
}

func (s Store) SaveAllColleges(colleges []catalog.CollegeSummary) error {
	if colleges == nil {
		colleges = []catalog.CollegeSummary{}
	}
	return s.save(colleges, filepath.Join(s.root, "all_colleges.json"))
}

func (s Store) SaveAllSchools(schools []catalog.School) error {
	if schools == nil {
		schools = []catalog.School{}
	}
	return s.save(schools, filepath.Join(s.root, "all_schools.json"))
}
