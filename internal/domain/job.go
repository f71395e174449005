package domain

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusNotApplied   Status = "not_applied"
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusOffer        Status = "offer"
	StatusRejected     Status = "rejected"
	StatusGhosted      Status = "ghosted"
	StatusDumped       Status = "dumped"
)

// ActiveStatuses are the statuses still worth ranking.
var ActiveStatuses = []Status{StatusNotApplied, StatusApplied, StatusInterviewing, StatusOffer}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNotApplied, StatusApplied, StatusInterviewing, StatusOffer,
		StatusRejected, StatusGhosted, StatusDumped:
		return st, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

func (s Status) Active() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

type Track string

const (
	TrackEngineering Track = "engineering"
	TrackManagement  Track = "management"
)

func (t Track) Valid() bool {
	return t == "" || t == TrackEngineering || t == TrackManagement
}

type WorkLocation string

const (
	WorkRemote WorkLocation = "remote"
	WorkHybrid WorkLocation = "hybrid"
	WorkOffice WorkLocation = "office"
)

func (w WorkLocation) Valid() bool {
	switch w {
	case "", WorkRemote, WorkHybrid, WorkOffice:
		return true
	}
	return false
}

// JobOpening is a tracked opening. Only Ratings and Wow affect its score.
type JobOpening struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	JobLocation string    `json:"jobLocation,omitempty"`
	Country     string    `json:"country,omitempty"`
	PostingURL  string    `json:"postingUrl,omitempty"`
	DateOpened  string    `json:"dateOpened,omitempty"` // YYYY-MM-DD
	DateAdded   time.Time `json:"dateAdded"`

	Wow          bool         `json:"wow"`
	Track        Track        `json:"track,omitempty"`
	WorkLocation WorkLocation `json:"workLocation,omitempty"`

	Status         Status     `json:"status"`
	AppliedAt      *time.Time `json:"appliedAt,omitempty"`
	InterviewingAt *time.Time `json:"interviewingAt,omitempty"`
	OfferAt        *time.Time `json:"offerAt,omitempty"`
	RejectedAt     *time.Time `json:"rejectedAt,omitempty"`
	GhostedAt      *time.Time `json:"ghostedAt,omitempty"`
	DumpedAt       *time.Time `json:"dumpedAt,omitempty"`

	SalaryMin      *int   `json:"salaryMin,omitempty"`
	SalaryMax      *int   `json:"salaryMax,omitempty"`
	SalaryCurrency string `json:"salaryCurrency,omitempty"`

	Ratings

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetStatus moves the job to s and stamps the matching timestamp.
func (j *JobOpening) SetStatus(s Status, at time.Time) {
	j.Status = s
	t := at.UTC()
	switch s {
	case StatusApplied:
		j.AppliedAt = &t
	case StatusInterviewing:
		j.InterviewingAt = &t
	case StatusOffer:
		j.OfferAt = &t
	case StatusRejected:
		j.RejectedAt = &t
	case StatusGhosted:
		j.GhostedAt = &t
	case StatusDumped:
		j.DumpedAt = &t
	}
}
