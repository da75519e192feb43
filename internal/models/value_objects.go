package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

// Currency codes accepted for fees.
const (
	CurrencyVND = "VND"
	CurrencyUSD = "USD"
)

// Fee is an amount of money in a currency.
type Fee struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// NewFee builds a fee, defaulting the currency to VND.
func NewFee(amount float64, currency string) Fee {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = CurrencyVND
	}
	return Fee{Amount: amount, Currency: currency}
}

// DurationUnit is the unit of a session duration.
type DurationUnit string

const (
	DurationUnitMinute DurationUnit = "MINUTE"
	DurationUnitHour   DurationUnit = "HOUR"
)

// SessionFrequency is how often sessions happen.
type SessionFrequency string

const (
	SessionFrequencyDaily   SessionFrequency = "DAILY"
	SessionFrequencyWeekly  SessionFrequency = "WEEKLY"
	SessionFrequencyMonthly SessionFrequency = "MONTHLY"
	SessionFrequencyCustom  SessionFrequency = "CUSTOM"
)

// MinSessionMinutes is the shortest accepted session.
const MinSessionMinutes = 60

// Session describes the length and cadence of a tutoring session.
type Session struct {
	Value     float64          `json:"value"`
	Unit      DurationUnit     `json:"unit"`
	Frequency SessionFrequency `json:"frequency"`
}

// NewSession validates and builds a session. Empty unit and frequency default to minutes per week.
func NewSession(value float64, unit DurationUnit, frequency SessionFrequency) (Session, error) {
	if unit == "" {
		unit = DurationUnitMinute
	}
	if frequency == "" {
		frequency = SessionFrequencyWeekly
	}
	s := Session{Value: value, Unit: unit, Frequency: frequency}
	if s.Minutes() < MinSessionMinutes {
		return Session{}, appErrors.ErrSessionDurationOutOfRange
	}
	return s, nil
}

// Minutes returns the session length in minutes.
func (s Session) Minutes() float64 {
	if s.Unit == DurationUnitHour {
		return s.Value * 60
	}
	return s.Value
}

// DisplayValue renders the session for humans, e.g. "90 MINUTE per WEEKLY".
func (s Session) DisplayValue() string {
	value := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", s.Value), "0"), ".")
	if s.Frequency == SessionFrequencyCustom {
		return fmt.Sprintf("%s %s", value, s.Unit)
	}
	return fmt.Sprintf("%s %s per %s", value, s.Unit, s.Frequency)
}

// Address locates offline sessions.
type Address struct {
	City     string `json:"city"`
	District string `json:"district"`
	Detail   string `json:"detail"`
}

// NewAddress requires every component to be present.
func NewAddress(city, district, detail string) (Address, error) {
	a := Address{
		City:     strings.TrimSpace(city),
		District: strings.TrimSpace(district),
		Detail:   strings.TrimSpace(detail),
	}
	if a.City == "" || a.District == "" || a.Detail == "" {
		return Address{}, appErrors.Clone(appErrors.ErrValidation, "city, district and detail are required")
	}
	return a, nil
}

func (a Address) String() string {
	return fmt.Sprintf("%s, District: %s, City: %s", a.Detail, a.District, a.City)
}

// LearnerDetail describes who will attend the course.
type LearnerDetail struct {
	Name             string  `json:"name"`
	Gender           Gender  `json:"gender"`
	ContactNumber    string  `json:"contact_number"`
	NumberOfLearners int     `json:"number_of_learners"`
	LearnerID        *UserID `json:"learner_id,omitempty"`
}

// NewLearnerDetail builds learner details; learnerID is nil for unregistered learners.
func NewLearnerDetail(name string, gender Gender, contact string, headcount int, learnerID *UserID) LearnerDetail {
	if headcount <= 0 {
		headcount = 1
	}
	if gender == "" {
		gender = GenderMale
	}
	return LearnerDetail{
		Name:             strings.TrimSpace(name),
		Gender:           gender,
		ContactNumber:    strings.TrimSpace(contact),
		NumberOfLearners: headcount,
		LearnerID:        learnerID,
	}
}

// TutorSpecification is the learner's soft preference about the tutor.
type TutorSpecification struct {
	Gender        GenderOption  `json:"gender"`
	AcademicLevel AcademicLevel `json:"academic_level"`
}

// NewTutorSpecification fills unset preferences with their neutral values.
func NewTutorSpecification(gender GenderOption, level AcademicLevel) TutorSpecification {
	if gender == "" {
		gender = GenderOptionNone
	}
	if level == "" {
		level = AcademicLevelOptional
	}
	return TutorSpecification{Gender: gender, AcademicLevel: level}
}

// Review limits.
const (
	MinReviewRate        = 1
	MaxReviewRate        = 5
	MaxReviewDetailRunes = 500
)

// Review is the learner's feedback on a confirmed course.
type Review struct {
	Rate       int       `json:"rate"`
	Detail     string    `json:"detail"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedBy string    `json:"modified_by"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NewReview validates the rate and detail length.
func NewReview(rate int, detail, reviewer string, now time.Time) (*Review, error) {
	if rate < MinReviewRate || rate > MaxReviewRate {
		return nil, appErrors.ErrInvalidReviewRate
	}
	if utf8.RuneCountInString(detail) > MaxReviewDetailRunes {
		return nil, appErrors.ErrInvalidDetailLength
	}
	return &Review{
		Rate:       rate,
		Detail:     detail,
		CreatedBy:  reviewer,
		CreatedAt:  now,
		ModifiedBy: reviewer,
		ModifiedAt: now,
	}, nil
}
