package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"drps-backend/lib/catalog"
	"drps-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	index    func(ctx context.Context) ([]catalog.College, error)
	subjects func(ctx context.Context, school catalog.School) ([]catalog.Subject, error)
	courses  func(ctx context.Context, subject catalog.Subject) ([]catalog.Course, error)
}

func (f fakeScraper) Index(ctx context.Context) ([]catalog.College, error) {
	return f.index(ctx)
}

func (f fakeScraper) Subjects(ctx context.Context, school catalog.School) ([]catalog.Subject, error) {
	return f.subjects(ctx, school)
}

func (f fakeScraper) Courses(ctx context.Context, subject catalog.Subject) ([]catalog.Course, error) {
	return f.courses(ctx, subject)
}

func testStore(t *testing.T) (Store, string) {
	root := t.TempDir()
	store, err := NewStore(root)
	require.NoError(t, err)
	return store, root
}

func readJson(t *testing.T, path string, out any) {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

var testSchool = catalog.School{
	Name:    "School of Philosophy, Psychology and Language Sciences",
	Url:     "http://www.drps.ed.ac.uk/24-25/dpt/cx_s_su227.htm",
	College: catalog.CollegeArts,
	Code:    "su227",
}

func course(code, subject string) catalog.Course {
	return catalog.Course{
		Code:       code,
		Name:       "Course " + code,
		Subject:    subject,
		SchoolName: testSchool.Name,
		College:    testSchool.College,
	}
}

// one broken subject must not cost the school its other subjects
func TestRunSkipsFailingSubject(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:crawler")
	defer cleanup()

	store, root := testStore(t)

	subjects := []catalog.Subject{
		{Name: "Psychology", SchoolName: testSchool.Name, College: testSchool.College},
		{Name: "Linguistics", SchoolName: testSchool.Name, College: testSchool.College},
		{Name: "Philosophy", SchoolName: testSchool.Name, College: testSchool.College},
	}

	scraper := fakeScraper{
		index: func(context.Context) ([]catalog.College, error) {
			return []catalog.College{
				{Name: catalog.CollegeArts, Schools: []catalog.School{testSchool}},
				{Name: catalog.CollegeScience},
				{Name: catalog.CollegeMedicine},
			}, nil
		},
		subjects: func(context.Context, catalog.School) ([]catalog.Subject, error) {
			return subjects, nil
		},
		courses: func(_ context.Context, subject catalog.Subject) ([]catalog.Course, error) {
			switch subject.Name {
			case "Psychology":
				return []catalog.Course{course("PSYC10001", subject.Name)}, nil
			case "Philosophy":
				return []catalog.Course{course("PHIL10001", subject.Name)}, nil
			default:
				return nil, errors.New("subject page unavailable")
			}
		},
	}

	summary, err := New(scraper, store, Options{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Summary{Colleges: 3, Schools: 1, Courses: 2}, summary)

	var saved []catalog.Course
	readJson(t, filepath.Join(
		root, "courses",
		"courses_School_of_Philosophy_Psychology_and_Language_Sciences.json",
	), &saved)

	require.Len(t, saved, 2)
	require.Equal(t, "PSYC10001", saved[0].Code)
	require.Equal(t, "PHIL10001", saved[1].Code)
}

func TestRunIndexFailureAborts(t *testing.T) {
	store, root := testStore(t)

	scraper := fakeScraper{
		index: func(context.Context) ([]catalog.College, error) {
			return nil, errors.New("index page unreachable")
		},
	}

	summary, err := New(scraper, store, Options{}).Run(context.Background())
	require.Error(t, err)
	require.Equal(t, Summary{}, summary)

	_, err = os.Stat(filepath.Join(root, "all_colleges.json"))
	require.True(t, os.IsNotExist(err))
}

// a school whose subject extraction fails is still recorded, with an empty
// subject list
func TestRunRecordsSchoolWhenSubjectsFail(t *testing.T) {
	store, root := testStore(t)

	scraper := fakeScraper{
		index: func(context.Context) ([]catalog.College, error) {
			return []catalog.College{
				{Name: catalog.CollegeArts, Schools: []catalog.School{testSchool}},
			}, nil
		},
		subjects: func(context.Context, catalog.School) ([]catalog.Subject, error) {
			return nil, errors.New("school page unreachable")
		},
	}

	summary, err := New(scraper, store, Options{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Summary{Colleges: 1, Schools: 1, Courses: 0}, summary)

	var record struct {
		Name     string            `json:"name"`
		Subjects []catalog.Subject `json:"subjects"`
	}
	readJson(t, filepath.Join(root, "schools", "su227.json"), &record)
	require.Equal(t, testSchool.Name, record.Name)
	require.Empty(t, record.Subjects)
}

// persistence failures are logged and swallowed, a crawl that scraped
// successfully still completes with a full summary
func TestRunSurvivesPersistFailure(t *testing.T) {
	store, root := testStore(t)
	for _, dir := range []string{"colleges", "schools", "courses"} {
		path := filepath.Join(root, dir)
		require.NoError(t, os.RemoveAll(path))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	scraper := fakeScraper{
		index: func(context.Context) ([]catalog.College, error) {
			return []catalog.College{
				{Name: catalog.CollegeArts, Schools: []catalog.School{testSchool}},
			}, nil
		},
		subjects: func(context.Context, catalog.School) ([]catalog.Subject, error) {
			return []catalog.Subject{{Name: "Psychology"}}, nil
		},
		courses: func(_ context.Context, subject catalog.Subject) ([]catalog.Course, error) {
			return []catalog.Course{course("PSYC10001", subject.Name)}, nil
		},
	}

	summary, err := New(scraper, store, Options{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Summary{Colleges: 1, Schools: 1, Courses: 1}, summary)
}

func TestRunWritesSummaries(t *testing.T) {
	store, root := testStore(t)

	scraper := fakeScraper{
		index: func(context.Context) ([]catalog.College, error) {
			return []catalog.College{
				{Name: catalog.CollegeArts, Schools: []catalog.School{testSchool}},
				{Name: catalog.CollegeScience},
				{Name: catalog.CollegeMedicine},
			}, nil
		},
		subjects: func(context.Context, catalog.School) ([]catalog.Subject, error) {
			return []catalog.Subject{{Name: "Psychology"}}, nil
		},
		courses: func(_ context.Context, subject catalog.Subject) ([]catalog.Course, error) {
			return []catalog.Course{course("PSYC10001", subject.Name)}, nil
		},
	}

	_, err := New(scraper, store, Options{}).Run(context.Background())
	require.NoError(t, err)

	var colleges []catalog.CollegeSummary
	readJson(t, filepath.Join(root, "all_colleges.json"), &colleges)
	require.Equal(t, []catalog.CollegeSummary{
		{Name: catalog.CollegeArts, SchoolsCount: 1},
		{Name: catalog.CollegeScience},
		{Name: catalog.CollegeMedicine},
	}, colleges)

	var schools []catalog.School
	readJson(t, filepath.Join(root, "all_schools.json"), &schools)
	require.Equal(t, []catalog.School{testSchool}, schools)
}
