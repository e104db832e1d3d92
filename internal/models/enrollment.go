package models

import "time"

// EnrollmentStatus is the state of a user's enrollment in a course.
type EnrollmentStatus string

const (
	EnrollmentEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentInProgress EnrollmentStatus = "in_progress"
	EnrollmentCompleted  EnrollmentStatus = "completed"
	EnrollmentDropped    EnrollmentStatus = "dropped"
)

// Enrollment associates a user with a course. A user enrolls in a course
// at most once (unique user+course pair).
type Enrollment struct {
	ID                   string
	UserID               string
	CourseID             string
	Status               EnrollmentStatus
	CompletionPercentage float64
	EnrolledAt           time.Time
	LastAccessed         time.Time
}
