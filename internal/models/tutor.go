package models

import "time"

// TutorStatus captures the verification state of a tutor profile.
type TutorStatus string

const (
	TutorStatusActive   TutorStatus = "ACTIVE"
	TutorStatusInActive TutorStatus = "INACTIVE"
	TutorStatusUnproven TutorStatus = "UNPROVEN"
)

// Tutor is a user registered to teach. Its identifier is the owning user's identifier.
type Tutor struct {
	ID            TutorID       `db:"id" json:"id"`
	UserID        UserID        `db:"user_id" json:"user_id"`
	FullName      string        `db:"full_name" json:"full_name"`
	Status        TutorStatus   `db:"status" json:"status"`
	AcademicLevel AcademicLevel `db:"academic_level" json:"academic_level"`
	University    string        `db:"university" json:"university"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}
