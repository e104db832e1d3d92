package models

import "time"

// ContentType identifies the kind of a course content item.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentVideo    ContentType = "video"
	ContentAudio    ContentType = "audio"
	ContentDocument ContentType = "document"
	ContentImage    ContentType = "image"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentText, ContentVideo, ContentAudio, ContentDocument, ContentImage:
		return true
	}
	return false
}

// CourseContent is a lesson or material attached to a course. URL-backed
// content stores a location; text content stores the body inline.
type CourseContent struct {
	ID          string
	CourseID    string
	Title       string
	ContentType ContentType
	ContentURL  *string
	ContentText *string
	OrderIndex  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
