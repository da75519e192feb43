package errors

import "net/http"

// Course lifecycle catalog. Codes are the stable contract surface for callers.
var (
	ErrCourseNotFound  = New("Courses.NotFound", http.StatusNotFound, "course not found")
	ErrTutorNotFound   = New("Tutors.NotFound", http.StatusNotFound, "tutor not found")
	ErrSubjectNotFound = New("Subjects.NotFound", http.StatusNotFound, "subject not found")

	ErrCourseUnavailable            = New("Courses.Unavailable", http.StatusBadRequest, "course is not available")
	ErrStatusInvalidForUnassignment = New("Courses.StatusInvalidForUnassignment", http.StatusBadRequest, "course can not unassign tutor due to having been cancelled or refunded")
	ErrHaveNotBeenAssigned          = New("Courses.HaveNotBeenAssigned", http.StatusBadRequest, "course has not been assigned to a tutor")
	ErrNotBeenConfirmed             = New("Courses.NotBeenConfirmed", http.StatusBadRequest, "course has not been confirmed")
	ErrReviewNotAllowedYet          = New("Courses.ReviewNotAllowedYet", http.StatusBadRequest, "course review is not allowed yet")

	ErrTitleLengthOutOfRange       = New("Courses.TitleLengthOutOfRange", http.StatusBadRequest, "title should be between 50 and 256 characters")
	ErrDescriptionLengthOutOfRange = New("Courses.DescriptionLengthOutOfRange", http.StatusBadRequest, "description should be at most 512 characters")
	ErrInvalidReviewRate           = New("Courses.InvalidReviewRate", http.StatusBadRequest, "rate should be between 1 and 5")
	ErrInvalidDetailLength         = New("Courses.InvalidDetailLength", http.StatusBadRequest, "detail should be at most 500 characters")
	ErrSessionDurationOutOfRange   = New("Courses.SessionDurationOutOfRange", http.StatusBadRequest, "session duration should be at least 60 minutes")

	ErrTutorAndLearnerShouldNotBeTheSame = New("Courses.TutorAndLearnerShouldNotBeTheSame", http.StatusBadRequest, "tutor and learner should not be the same")
	ErrTeachingRequestAlreadyExist       = New("Courses.TeachingRequestAlreadyExist", http.StatusBadRequest, "teaching request already exists")
)
