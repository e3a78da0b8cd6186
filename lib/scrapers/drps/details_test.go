package drps

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCourseDetailsEntryRequirements(t *testing.T) {
	d := doc(t, `
		<h1>Intro to Psych (PSYC10001)</h1>
		<table>
			<caption>Entry Requirements (not applicable to Visiting Students)</caption>
			<tr><th>Pre-requisites</th><td>None</td></tr>
			<tr><th>Prohibited Combinations</th><td>PSYC10002</td></tr>
			<tr><th>Additional Costs</th><td>None</td></tr>
		</table>
	`)

	details := parseCourseDetails(d)
	require.Equal(t, "Intro to Psych (PSYC10001)", details["full_title"])
	require.Equal(t, "None", details["pre_requisites"])
	require.Equal(t, "PSYC10002", details["prohibited_combinations"])
	require.Equal(t, "None", details["additional_costs"])
}

func TestParseCourseDetailsOutlineAndDelivery(t *testing.T) {
	d := doc(t, `
		<table>
			<caption>Course Outline</caption>
			<tr><th>School</th><td>School of Philosophy, Psychology and Language Sciences</td></tr>
			<tr><th>Credit level (Normal year taken)</th><td>SCQF Level 8</td></tr>
			<tr><th>SCQF Credits</th><td>20</td></tr>
			<tr><th>Summary</th><td>An introduction to psychology.</td></tr>
		</table>
		<table>
			<caption>Course Delivery Information</caption>
			<tr><th>Academic year</th><td>2024/25</td></tr>
			<tr><th>Quota:</th><td>120</td></tr>
			<tr><th>Timetable</th><td>Timetable</td></tr>
		</table>
	`)

	details := parseCourseDetails(d)
	require.Equal(t, "School of Philosophy, Psychology and Language Sciences", details["school"])
	require.Equal(t, "SCQF Level 8", details["credit_level"])
	require.Equal(t, "20", details["scqf_credits"])
	require.Equal(t, "An introduction to psychology.", details["summary"])
	require.Equal(t, "2024/25", details["academic_year"])
	require.Equal(t, "120", details["quota"])
	require.Equal(t, "Timetable", details["timetable"])
}

// a table with an unrecognized caption is still captured, the keys derive
// from the header text
func TestParseCourseDetailsGenericTable(t *testing.T) {
	d := doc(t, `
		<table>
			<caption>Contacts</caption>
			<tr><th>Course organiser</th><td>Dr Example</td></tr>
			<tr><th>Course secretary (maternity cover)</th><td>Ms Example</td></tr>
		</table>
	`)

	details := parseCourseDetails(d)
	require.Equal(t, "Dr Example", details["course_organiser"])
	require.Equal(t, "Ms Example", details["course_secretary_maternity_cover"])
}

// some pages render the description outside any captioned table
func TestParseCourseDetailsFollowingCell(t *testing.T) {
	d := doc(t, `
		<table>
			<tr><td>Course description</td><td>A broad survey of the field.</td></tr>
		</table>
		<table>
			<tr><td>Summary</td></tr>
			<tr><td>Short version of the description.</td></tr>
		</table>
	`)

	details := parseCourseDetails(d)
	require.Equal(t, "A broad survey of the field.", details["course_description"])
	require.Equal(t, "Short version of the description.", details["summary"])
}

func TestParseCourseDetailsVisitingStudents(t *testing.T) {
	d := doc(t, `
		<table>
			<caption>Information for Visiting Students</caption>
			<tr><th>Pre-requisites</th><td>Visiting students should have prior coursework.</td></tr>
			<tr><th>High Demand Course?</th><td>Yes</td></tr>
		</table>
	`)

	details := parseCourseDetails(d)
	require.Equal(t, "Visiting students should have prior coursework.", details["visiting_prerequisites"])
	require.Equal(t, "Yes", details["high_demand"])
}

func TestNormalizeKey(t *testing.T) {
	require.Equal(t, "course_organiser", normalizeKey("Course organiser"))
	require.Equal(t, "credit_level_normal_year_taken", normalizeKey("Credit level (Normal year taken)"))
	require.Equal(t, "learning_teaching", normalizeKey("Learning/Teaching"))
}
