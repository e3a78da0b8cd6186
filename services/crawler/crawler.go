package crawler

import (
	"context"
	"log/slog"
	"time"

	"drps-backend/lib/catalog"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/crawler")

// Scraper is the slice of the catalogue client the crawler walks. Every call
// is a blocking fetch+parse of one page (Courses also fetches each course's
// detail page).
type Scraper interface {
	Index(ctx context.Context) ([]catalog.College, error)
	Subjects(ctx context.Context, school catalog.School) ([]catalog.Subject, error)
	Courses(ctx context.Context, subject catalog.Subject) ([]catalog.Course, error)
}

type Options struct {
	// pause between successive subject-course fetches; politeness towards
	// the upstream server, not a correctness requirement
	Delay time.Duration
}

// Crawler walks the full catalogue hierarchy strictly sequentially:
// index -> college -> school -> subjects -> courses. A failing school or
// subject contributes nothing and the crawl continues with its siblings;
// only a failed index extraction aborts the run.
type Crawler struct {
	scraper Scraper
	store   Store
	delay   time.Duration
}

func New(scraper Scraper, store Store, opts Options) Crawler {
	return Crawler{
		scraper: scraper,
		store:   store,
		delay:   opts.Delay,
	}
}

type Summary struct {
	Colleges int
	Schools  int
	Courses  int
}

func (c Crawler) Run(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "crawler:Run")
	defer span.End()

	colleges, err := c.scraper.Index(ctx)
	if err != nil {
		// no index means nothing to crawl
		return Summary{}, err
	}

	var allColleges []catalog.CollegeSummary
	var allSchools []catalog.School
	courseCount := 0

	for _, college := range colleges {
		slog.InfoContext(
			ctx, "crawling college",
			"college", college.Name, "schools", len(college.Schools),
		)
		allColleges = append(allColleges, catalog.CollegeSummary{
			Name:         college.Name,
			SchoolsCount: len(college.Schools),
		})
		if err := c.store.SaveCollege(college); err != nil {
			slog.ErrorContext(ctx, "failed to save college", "college", college.Name, "err", err)
		}

		for _, school := range college.Schools {
			allSchools = append(allSchools, school)
			courseCount += c.crawlSchool(ctx, school)
		}
	}

	if err := c.store.SaveAllColleges(allColleges); err != nil {
		slog.ErrorContext(ctx, "failed to save college summary", "err", err)
	}
	if err := c.store.SaveAllSchools(allSchools); err != nil {
		slog.ErrorContext(ctx, "failed to save school summary", "err", err)
	}

	return Summary{
		Colleges: len(allColleges),
		Schools:  len(allSchools),
		Courses:  courseCount,
	}, nil
}

// crawlSchool scrapes one school's subjects and their courses, persisting
// the school record and the aggregated course list. Returns how many courses
// were found.
func (c Crawler) crawlSchool(ctx context.Context, school catalog.School) int {
	slog.InfoContext(ctx, "crawling school", "school", school.Name, "url", school.Url)

	subjects, err := c.scraper.Subjects(ctx, school)
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to scrape subjects",
			"school", school.Name, "url", school.Url, "err", err,
		)
	}
	if err := c.store.SaveSchool(school, subjects); err != nil {
		slog.ErrorContext(ctx, "failed to save school", "school", school.Name, "err", err)
	}

	// aggregated in crawl order: subject order then row order
	var courses []catalog.Course
	for _, subject := range subjects {
		slog.InfoContext(ctx, "crawling subject", "subject", subject.Name, "url", subject.Url)

		found, err := c.scraper.Courses(ctx, subject)
		if err != nil {
			slog.ErrorContext(
				ctx, "failed to scrape courses",
				"subject", subject.Name, "url", subject.Url, "err", err,
			)
		} else {
			courses = append(courses, found...)
		}

		if c.delay > 0 {
			time.Sleep(c.delay)
		}
	}

	if err := c.store.SaveCourses(school, courses); err != nil {
		slog.ErrorContext(ctx, "failed to save courses", "school", school.Name, "err", err)
	}
	return len(courses)
}
