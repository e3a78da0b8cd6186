package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCourseJsonFlattening(t *testing.T) {
	course := Course{
		Code:       "PSYC10001",
		Name:       "Intro to Psych",
		Period:     "Semester 1",
		Subject:    "Psychology",
		SchoolName: "School of Philosophy, Psychology and Language Sciences",
		College:    CollegeArts,
		Details: map[string]string{
			"prohibited_combinations": "PSYC10002",
			"quota":                   "120",
			// a detail key must never shadow a basic field
			"code": "HACK99999",
		},
	}

	data, err := json.Marshal(course)
	require.NoError(t, err)

	var flat map[string]string
	require.NoError(t, json.Unmarshal(data, &flat))

	require.Equal(t, "PSYC10001", flat["code"])
	require.Equal(t, "Intro to Psych", flat["name"])
	require.Equal(t, "Semester 1", flat["period"])
	require.Equal(t, "PSYC10002", flat["prohibited_combinations"])
	require.Equal(t, "120", flat["quota"])

	// downstream enrichment fields are never written by the crawler
	_, hasBulletpoints := flat["bulletpoints"]
	require.False(t, hasBulletpoints)

	var back Course
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, course.Code, back.Code)
	require.Equal(t, "PSYC10002", back.Details["prohibited_combinations"])
	require.NotContains(t, back.Details, "code")
}

func TestCodePattern(t *testing.T) {
	valid := []string{"PSYC10001", "ARCH12345", "MATH0800123"}
	for _, code := range valid {
		require.True(t, CodePattern.MatchString(code), code)
	}

	invalid := []string{"", "PSYC", "10001", "P10001", "psyc10001", "PSYC100", "PSYC10001x"}
	for _, code := range invalid {
		require.False(t, CodePattern.MatchString(code), code)
	}
}
