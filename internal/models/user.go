package models

import (
	"time"
)

// UserRole identifies what a user is allowed to do on the platform.
type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleEducator UserRole = "educator"
	RoleAdmin    UserRole = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleEducator, RoleAdmin:
		return true
	}
	return false
}

// ProficiencyLevel is a learner's self-assessed language level.
type ProficiencyLevel string

const (
	ProficiencyBeginner     ProficiencyLevel = "beginner"
	ProficiencyIntermediate ProficiencyLevel = "intermediate"
	ProficiencyAdvanced     ProficiencyLevel = "advanced"
)

func (p ProficiencyLevel) Valid() bool {
	switch p {
	case ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced:
		return true
	}
	return false
}

// User is an account on the platform: student, educator, or admin.
type User struct {
	ID               string
	Email            string
	PasswordHash     string
	FirstName        string
	LastName         string
	Role             UserRole
	Proficiency      ProficiencyLevel
	LearningGoals    *string
	ProfilePicture   *string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
