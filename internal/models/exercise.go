package models

import "time"

// ExerciseType identifies the interaction style of an exercise.
type ExerciseType string

const (
	ExerciseMultipleChoice  ExerciseType = "multiple_choice"
	ExerciseFillInTheBlanks ExerciseType = "fill_in_the_blanks"
	ExerciseSpeaking        ExerciseType = "speaking"
	ExerciseListening       ExerciseType = "listening"
	ExerciseMatching        ExerciseType = "matching"
	ExerciseVocabularyGame  ExerciseType = "vocabulary_game"
	ExerciseGrammarDrill    ExerciseType = "grammar_drill"
)

func (e ExerciseType) Valid() bool {
	switch e {
	case ExerciseMultipleChoice, ExerciseFillInTheBlanks, ExerciseSpeaking,
		ExerciseListening, ExerciseMatching, ExerciseVocabularyGame, ExerciseGrammarDrill:
		return true
	}
	return false
}

// ExerciseDifficulty grades a single exercise.
type ExerciseDifficulty string

const (
	ExerciseEasy   ExerciseDifficulty = "easy"
	ExerciseMedium ExerciseDifficulty = "medium"
	ExerciseHard   ExerciseDifficulty = "hard"
)

func (e ExerciseDifficulty) Valid() bool {
	switch e {
	case ExerciseEasy, ExerciseMedium, ExerciseHard:
		return true
	}
	return false
}

// Exercise is an interactive assessment belonging to a course.
// CorrectAnswer is never serialized to students; grading happens
// server-side on attempt submission.
type Exercise struct {
	ID            string
	CourseID      string
	Title         string
	ExerciseType  ExerciseType
	QuestionText  *string
	AudioURL      *string
	CorrectAnswer *string
	Options       []string
	Difficulty    ExerciseDifficulty
	Points        int
	TimeLimit     *int // seconds
	OrderIndex    int
	IsActive      bool
	CreatedAt     time.Time
}

// ExerciseAttempt records one graded submission.
type ExerciseAttempt struct {
	ID          string
	UserID      string
	ExerciseID  string
	UserAnswer  string
	IsCorrect   bool
	ScoreEarned int
	TimeTaken   *int // seconds
	Feedback    string
	AttemptedAt time.Time
}
