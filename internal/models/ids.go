package models

import "github.com/google/uuid"

// CourseID identifies a course aggregate.
type CourseID string

// TeachingRequestID identifies a teaching request aggregate.
type TeachingRequestID string

// TutorID identifies a tutor. A tutor shares its identifier with the owning user.
type TutorID string

// UserID identifies a registered user (learner, tutor or administrator).
type UserID string

// SubjectID identifies a subject.
type SubjectID string

// NewCourseID generates a random course identifier.
func NewCourseID() CourseID { return CourseID(uuid.NewString()) }

// NewTeachingRequestID generates a random teaching request identifier.
func NewTeachingRequestID() TeachingRequestID { return TeachingRequestID(uuid.NewString()) }

func (id CourseID) String() string          { return string(id) }
func (id TeachingRequestID) String() string { return string(id) }
func (id TutorID) String() string           { return string(id) }
func (id UserID) String() string            { return string(id) }
func (id SubjectID) String() string         { return string(id) }

// SameAs reports whether the tutor is the given user.
func (id TutorID) SameAs(user *UserID) bool {
	return user != nil && string(id) == string(*user)
}
