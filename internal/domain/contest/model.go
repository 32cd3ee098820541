package contest

import (
	"errors"
	"time"
)

// Contest is a promotional contest. At most one is active at a time.
type Contest struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Prizes      string    `json:"prizes"`
	ImageFileID string    `json:"image_file_id,omitempty"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunningAt reports whether the contest is active and not yet ended.
func (c *Contest) RunningAt(now time.Time) bool {
	return c.IsActive && !c.EndDate.Before(now)
}

// Patch holds the fields of a contest edit; nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Prizes      *string
	ImageFileID *string
	EndDate     *time.Time
}

var ErrNotFound = errors.New("contest not found")

// DateLayout is the format admins type contest end dates in.
const DateLayout = "2006-01-02 15:04"

// ParseEndDate parses an end date typed by an admin in loc. The date must
// lie after now.
func ParseEndDate(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if !t.After(now) {
		return time.Time{}, ErrDateInPast
	}
	return t, nil
}

var (
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD HH:MM")
	ErrDateInPast  = errors.New("end date must be in the future")
)
