package models

import "time"

// Progress accumulates a user's learning activity within one course.
// One row per user+course pair, upserted as exercise attempts arrive.
type Progress struct {
	ID                 string
	UserID             string
	CourseID           string
	LessonsCompleted   int
	ExercisesCompleted int
	CorrectAnswers     int
	TotalScore         int
	AverageAccuracy    float64 // derived: CorrectAnswers / ExercisesCompleted
	TimeSpent          int     // minutes
	StreakDays         int
	LastActivity       time.Time
	UpdatedAt          time.Time
}

// ProgressDelta is one activity increment folded into a progress row. All
// fields are additive so concurrent submissions never clobber each other.
type ProgressDelta struct {
	Lessons   int
	Exercises int
	Correct   int
	Score     int
	TimeSpent int
}
