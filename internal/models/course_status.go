package models

// CourseStatus captures the lifecycle states of a course.
type CourseStatus string

const (
	CourseStatusPendingApproval CourseStatus = "PENDING_APPROVAL"
	CourseStatusAvailable       CourseStatus = "AVAILABLE"
	CourseStatusInProgress      CourseStatus = "IN_PROGRESS"
	CourseStatusConfirmed       CourseStatus = "CONFIRMED"
	CourseStatusRefunded        CourseStatus = "REFUNDED"
	CourseStatusCancelled       CourseStatus = "CANCELLED"
)

// CourseStatuses lists every known status.
var CourseStatuses = []CourseStatus{
	CourseStatusPendingApproval,
	CourseStatusAvailable,
	CourseStatusInProgress,
	CourseStatusConfirmed,
	CourseStatusRefunded,
	CourseStatusCancelled,
}

// statuses that block tutor dissociation
var terminalStatuses = map[CourseStatus]struct{}{
	CourseStatusRefunded:  {},
	CourseStatusCancelled: {},
}

// statuses in which a tutor is attached to the course
var tutoredStatuses = map[CourseStatus]struct{}{
	CourseStatusInProgress: {},
	CourseStatusConfirmed:  {},
	CourseStatusRefunded:   {},
}

// IsValid reports whether s is a known status.
func (s CourseStatus) IsValid() bool {
	for _, known := range CourseStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// AllowsDissociation reports whether a tutor may be removed while the course is in s.
func (s CourseStatus) AllowsDissociation() bool {
	_, terminal := terminalStatuses[s]
	return s.IsValid() && !terminal
}

// RequiresTutor reports whether a course in s must have a tutor assigned.
func (s CourseStatus) RequiresTutor() bool {
	_, ok := tutoredStatuses[s]
	return ok
}

// LearningMode describes how sessions are delivered.
type LearningMode string

const (
	LearningModeOnline  LearningMode = "ONLINE"
	LearningModeOffline LearningMode = "OFFLINE"
	LearningModeHybrid  LearningMode = "HYBRID"
)

// Gender of a learner.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// GenderOption expresses a tutor gender preference.
type GenderOption string

const (
	GenderOptionNone   GenderOption = "NONE"
	GenderOptionMale   GenderOption = "MALE"
	GenderOptionFemale GenderOption = "FEMALE"
)

// AcademicLevel of a tutor.
type AcademicLevel string

const (
	AcademicLevelOptional      AcademicLevel = "OPTIONAL"
	AcademicLevelUnderGraduate AcademicLevel = "UNDERGRADUATE"
	AcademicLevelGraduated     AcademicLevel = "GRADUATED"
	AcademicLevelLecturer      AcademicLevel = "LECTURER"
)
