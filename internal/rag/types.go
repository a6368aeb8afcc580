// Package rag connects the HTTP layer to the external course-materials RAG engine.
package rag

import "errors"

// ErrMalformedResponse is returned when the engine replies with an unexpected payload shape.
var ErrMalformedResponse = errors.New("malformed engine response")

// CourseAnalytics summarizes the courses loaded into the engine.
type CourseAnalytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// Normalized returns a copy whose titles are never nil, so it encodes as [].
func (a CourseAnalytics) Normalized() CourseAnalytics {
	if a.CourseTitles == nil {
		a.CourseTitles = []string{}
	}
	return a
}
