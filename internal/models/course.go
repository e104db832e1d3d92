package models

import "time"

// DifficultyLevel grades a course for learners.
type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

func (d DifficultyLevel) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Course is an authored unit of study. Unpublished courses are visible only
// to educators and admins.
type Course struct {
	ID                string
	Title             string
	Description       *string
	CreatorID         string
	Difficulty        DifficultyLevel
	Category          *string
	EstimatedDuration *int // hours
	ImageURL          *string
	IsPublished       bool
	EnrollmentCount   int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Difficulty *DifficultyLevel
	Category   *string
}
