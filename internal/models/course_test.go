package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

func validParams(t *testing.T) CourseParams {
	t.Helper()
	session, err := NewSession(90, DurationUnitMinute, SessionFrequencyWeekly)
	require.NoError(t, err)
	address, err := NewAddress("Ho Chi Minh", "District 1", "12 Nguyen Hue")
	require.NoError(t, err)
	learner := UserID("learner-1")
	return CourseParams{
		Title:              strings.Repeat("a", MinTitleRunes),
		Description:        "Grade 10 maths, twice a week",
		LearningMode:       LearningModeOffline,
		SessionFee:         NewFee(200000, ""),
		ChargeFee:          NewFee(50000, ""),
		Session:            session,
		Address:            address,
		LearnerDetail:      NewLearnerDetail("Lan", GenderFemale, "0900000000", 0, &learner),
		TutorSpecification: NewTutorSpecification("", ""),
		SubjectID:          SubjectID("math"),
	}
}

func newCourse(t *testing.T) *Course {
	t.Helper()
	course, err := NewCourse(validParams(t))
	require.NoError(t, err)
	course.PullEvents()
	return course
}

// tutor attached exactly in the tutored statuses
func assertTutorInvariant(t *testing.T, c *Course) {
	t.Helper()
	assert.Equal(t, c.Status.RequiresTutor(), c.TutorID != nil, "status %s tutor %v", c.Status, c.TutorID)
}

func TestNewCourseTitleBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		runes int
		err   error
	}{
		{"below minimum", MinTitleRunes - 1, appErrors.ErrTitleLengthOutOfRange},
		{"minimum", MinTitleRunes, nil},
		{"maximum", MaxTitleRunes, nil},
		{"above maximum", MaxTitleRunes + 1, appErrors.ErrTitleLengthOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams(t)
			params.Title = strings.Repeat("ô", tc.runes)
			course, err := NewCourse(params)
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err))
				assert.Nil(t, course)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, CourseStatusPendingApproval, course.Status)
			assertTutorInvariant(t, course)
		})
	}
}

func TestNewCourseCountsTrailingWhitespace(t *testing.T) {
	params := validParams(t)
	params.Title = strings.Repeat("a", MinTitleRunes-1) + " "
	course, err := NewCourse(params)
	require.NoError(t, err)
	assert.Equal(t, params.Title, course.Title)

	params.Title = strings.Repeat("a", MaxTitleRunes) + " "
	_, err = NewCourse(params)
	assert.True(t, errors.Is(err, appErrors.ErrTitleLengthOutOfRange))

	require.NoError(t, course.UpdateCourse(validParams(t)))
	params.Title = strings.Repeat("b", MaxTitleRunes) + " "
	assert.True(t, errors.Is(course.UpdateCourse(params), appErrors.ErrTitleLengthOutOfRange))
}

func TestSetCourseStatusRecordsOverride(t *testing.T) {
	course := newCourse(t)
	course.SetCourseStatus(CourseStatusAvailable)
	course.PullEvents()

	course.SetCourseStatus(CourseStatusAvailable)
	assert.Equal(t, CourseStatusAvailable, course.Status)
	events := course.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventCourseStatusOverridden, events[0].Name)
	assert.Equal(t, string(CourseStatusAvailable), events[0].Payload[PayloadPreviousStatus])
	assert.Equal(t, string(CourseStatusAvailable), events[0].Payload[PayloadStatus])

	course.SetCourseStatus(CourseStatusCancelled)
	events = course.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, string(CourseStatusAvailable), events[0].Payload[PayloadPreviousStatus])
	assert.Equal(t, string(CourseStatusCancelled), events[0].Payload[PayloadStatus])
}

func TestNewCourseRejectsLongDescription(t *testing.T) {
	params := validParams(t)
	params.Description = strings.Repeat("d", MaxDescriptionRunes+1)
	_, err := NewCourse(params)
	assert.True(t, errors.Is(err, appErrors.ErrDescriptionLengthOutOfRange))
}

func TestNewCourseRecordsCreatedEvent(t *testing.T) {
	course, err := NewCourse(validParams(t))
	require.NoError(t, err)
	events := course.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventCourseCreated, events[0].Name)
	assert.Equal(t, course.ID.String(), events[0].AggregateID)
	assert.Equal(t, "learner-1", events[0].Payload[PayloadLearnerID])
	assert.Empty(t, course.PullEvents())
}

func TestUpdateCourseValidatesAndOverwrites(t *testing.T) {
	course := newCourse(t)
	params := validParams(t)
	params.Title = strings.Repeat("b", 60)
	params.LearningMode = LearningModeOnline
	require.NoError(t, course.UpdateCourse(params))
	assert.Equal(t, LearningModeOnline, course.LearningMode)
	assert.Equal(t, EventCourseUpdated, course.PullEvents()[0].Name)

	params.Title = "short"
	assert.True(t, errors.Is(course.UpdateCourse(params), appErrors.ErrTitleLengthOutOfRange))
	assert.Equal(t, strings.Repeat("b", 60), course.Title)
}

func TestAssignTutorRejectsLearnerInAnyStatus(t *testing.T) {
	for _, status := range CourseStatuses {
		course := newCourse(t)
		course.SetCourseStatus(status)
		err := course.AssignTutor(TutorID("learner-1"))
		assert.True(t, errors.Is(err, appErrors.ErrTutorAndLearnerShouldNotBeTheSame), string(status))
		assert.Nil(t, course.TutorID)
		assert.Equal(t, status, course.Status)
	}
}

func TestAssignTutorIsIdempotent(t *testing.T) {
	course := newCourse(t)
	course.SetCourseStatus(CourseStatusAvailable)
	require.NoError(t, course.AssignTutor("tutor-1"))
	require.NoError(t, course.AssignTutor("tutor-1"))
	assert.Equal(t, CourseStatusInProgress, course.Status)
	assert.Equal(t, TutorID("tutor-1"), *course.TutorID)
	assertTutorInvariant(t, course)
}

func TestConfirmCourseRequiresAssignment(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	course := newCourse(t)
	course.SetCourseStatus(CourseStatusAvailable)
	assert.True(t, errors.Is(course.ConfirmCourse(now), appErrors.ErrHaveNotBeenAssigned))

	require.NoError(t, course.AssignTutor("tutor-1"))
	require.NoError(t, course.ConfirmCourse(now))
	assert.Equal(t, CourseStatusConfirmed, course.Status)
	require.NotNil(t, course.ConfirmedAt)
	assert.Equal(t, now, *course.ConfirmedAt)
	assertTutorInvariant(t, course)
}

func confirmedCourse(t *testing.T, confirmedAt time.Time) *Course {
	t.Helper()
	course := newCourse(t)
	course.SetCourseStatus(CourseStatusAvailable)
	require.NoError(t, course.AssignTutor("tutor-1"))
	require.NoError(t, course.ConfirmCourse(confirmedAt))
	course.PullEvents()
	return course
}

func TestReviewCourseWaitingPeriod(t *testing.T) {
	confirmedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	course := confirmedCourse(t, confirmedAt)
	err := course.ReviewCourse(5, "great", "learner-1", confirmedAt.AddDate(0, 0, 29))
	assert.True(t, errors.Is(err, appErrors.ErrReviewNotAllowedYet))
	assert.Nil(t, course.Review)

	require.NoError(t, course.ReviewCourse(5, "great", "learner-1", confirmedAt.AddDate(0, 0, 30)))
	require.NotNil(t, course.Review)
	assert.Equal(t, 5, course.Review.Rate)
	assert.Equal(t, EventCourseReviewed, course.PullEvents()[0].Name)
}

func TestReviewCourseValidation(t *testing.T) {
	confirmedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	later := confirmedAt.Add(ReviewWaitingPeriod)

	course := newCourse(t)
	assert.True(t, errors.Is(course.ReviewCourse(4, "", "learner-1", later), appErrors.ErrNotBeenConfirmed))

	course = confirmedCourse(t, confirmedAt)
	assert.True(t, errors.Is(course.ReviewCourse(0, "", "learner-1", later), appErrors.ErrInvalidReviewRate))
	assert.True(t, errors.Is(course.ReviewCourse(6, "", "learner-1", later), appErrors.ErrInvalidReviewRate))
	assert.True(t, errors.Is(course.ReviewCourse(3, strings.Repeat("x", MaxReviewDetailRunes+1), "learner-1", later), appErrors.ErrInvalidDetailLength))
	assert.NoError(t, course.ReviewCourse(3, strings.Repeat("x", MaxReviewDetailRunes), "learner-1", later))
}

func TestReviewCourseRevisionKeepsCreation(t *testing.T) {
	confirmedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	first := confirmedAt.Add(ReviewWaitingPeriod)
	second := first.Add(48 * time.Hour)

	course := confirmedCourse(t, confirmedAt)
	require.NoError(t, course.ReviewCourse(2, "meh", "learner-1", first))
	require.NoError(t, course.ReviewCourse(4, "better now", "admin-1", second))

	assert.Equal(t, 4, course.Review.Rate)
	assert.Equal(t, first, course.Review.CreatedAt)
	assert.Equal(t, "learner-1", course.Review.CreatedBy)
	assert.Equal(t, second, course.Review.ModifiedAt)
	assert.Equal(t, "admin-1", course.Review.ModifiedBy)
}

func TestDissociateTutor(t *testing.T) {
	for _, status := range []CourseStatus{CourseStatusRefunded, CourseStatusCancelled} {
		course := newCourse(t)
		course.SetCourseStatus(status)
		assert.True(t, errors.Is(course.DissociateTutor("n"), appErrors.ErrStatusInvalidForUnassignment), string(status))
	}

	course := newCourse(t)
	course.SetCourseStatus(CourseStatusAvailable)
	assert.True(t, errors.Is(course.DissociateTutor("n"), appErrors.ErrHaveNotBeenAssigned))

	require.NoError(t, course.AssignTutor("tutor-1"))
	course.PullEvents()
	require.NoError(t, course.DissociateTutor("tutor unavailable"))
	assert.Nil(t, course.TutorID)
	assert.Equal(t, "tutor unavailable", course.Note)
	assert.Equal(t, CourseStatusAvailable, course.Status)
	assertTutorInvariant(t, course)

	events := course.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "tutor-1", events[0].Payload[PayloadTutorID])
}

func TestDissociateTutorClearsConfirmation(t *testing.T) {
	confirmedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	course := confirmedCourse(t, confirmedAt)
	require.NoError(t, course.ReviewCourse(4, "good", "learner-1", confirmedAt.Add(ReviewWaitingPeriod)))

	require.NoError(t, course.DissociateTutor("tutor moved"))
	assert.Equal(t, CourseStatusAvailable, course.Status)
	assert.Nil(t, course.Review)
	assert.Nil(t, course.ConfirmedAt)
	assertTutorInvariant(t, course)
}

func TestRefundCourse(t *testing.T) {
	course := newCourse(t)
	course.SetCourseStatus(CourseStatusAvailable)
	require.NoError(t, course.AssignTutor("tutor-1"))
	assert.True(t, errors.Is(course.RefundCourse("x"), appErrors.ErrCourseUnavailable))

	require.NoError(t, course.ConfirmCourse(time.Now()))
	require.NoError(t, course.RefundCourse("learner moved"))
	assert.Equal(t, CourseStatusRefunded, course.Status)
	assert.Equal(t, "learner moved", course.Note)
	assertTutorInvariant(t, course)

	assert.True(t, errors.Is(course.DissociateTutor("late"), appErrors.ErrStatusInvalidForUnassignment))
}

func TestCourseLifecycleKeepsTutorInvariant(t *testing.T) {
	confirmedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	course := newCourse(t)
	assertTutorInvariant(t, course)

	course.SetCourseStatus(CourseStatusAvailable)
	course.PullEvents()
	steps := []func() error{
		func() error { return course.AssignTutor("tutor-1") },
		func() error { return course.DissociateTutor("swap") },
		func() error { return course.AssignTutor("tutor-2") },
		func() error { return course.ConfirmCourse(confirmedAt) },
		func() error { return course.ReviewCourse(5, "", "learner-1", confirmedAt.Add(ReviewWaitingPeriod)) },
		func() error { return course.RefundCourse("refund") },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertTutorInvariant(t, course)
	}
	assert.Equal(t, CourseStatusRefunded, course.Status)
	assert.Len(t, course.PullEvents(), len(steps))
}
