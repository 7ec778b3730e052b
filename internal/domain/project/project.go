package project

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrNotFound is returned by stores when no project matches the requested id.
var ErrNotFound = errors.New("project not found")

// ErrAlreadyExists is returned by stores on insert of an id that is taken.
var ErrAlreadyExists = errors.New("project already exists")

// idPattern keeps ids usable as a single URL path segment.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const (
	MaxNameLength        = 255
	MaxDescriptionLength = 4000
	MaxLocationLength    = 255
	MaxClientNameLength  = 255
	MaxIDLength          = 64
)

type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusOnHold     Status = "on_hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every accepted Status value.
var Statuses = []Status{StatusPlanned, StatusInProgress, StatusOnHold, StatusCompleted, StatusCancelled}

type Project struct {
	ProjectID   string     `json:"project_id" yaml:"project_id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Location    string     `json:"location,omitempty" yaml:"location"`
	ClientName  string     `json:"client_name,omitempty" yaml:"client_name"`
	Status      Status     `json:"status" yaml:"status"`
	Budget      float64    `json:"budget" yaml:"budget"`
	StartDate   *time.Time `json:"start_date,omitempty" yaml:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty" yaml:"end_date"`
	CreatedAt   time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"-"`
}

// Normalize trims free-text fields and fills in the default status.
func (p *Project) Normalize() {
	p.ProjectID = strings.TrimSpace(p.ProjectID)
	p.Name = strings.TrimSpace(p.Name)
	p.Location = strings.TrimSpace(p.Location)
	p.ClientName = strings.TrimSpace(p.ClientName)
	if p.Status == "" {
		p.Status = StatusPlanned
	}
}

// Validate checks the field rules shared by create and update. The returned
// error, when non-nil, is a validation.Errors keyed by JSON field name.
func (p Project) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ProjectID,
			validation.Length(0, MaxIDLength),
			validation.Match(idPattern).Error("may contain only letters, digits, '-' and '_'"),
		),
		validation.Field(&p.Name,
			validation.Required.Error("is required"),
			validation.RuneLength(1, MaxNameLength),
		),
		validation.Field(&p.Description, validation.RuneLength(0, MaxDescriptionLength)),
		validation.Field(&p.Location, validation.RuneLength(0, MaxLocationLength)),
		validation.Field(&p.ClientName, validation.RuneLength(0, MaxClientNameLength)),
		validation.Field(&p.Status, validation.In(statusValues()...).Error("must be one of planned, in_progress, on_hold, completed, cancelled")),
		validation.Field(&p.Budget, validation.Min(0.0).Error("must not be negative")),
		validation.Field(&p.EndDate, validation.By(p.endNotBeforeStart)),
	)
}

// ValidateForUpdate additionally requires the identifier.
func (p Project) ValidateForUpdate() error {
	errs := validation.Errors{}
	if err := p.Validate(); err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for k, v := range fieldErrs {
			errs[k] = v
		}
	}
	if strings.TrimSpace(p.ProjectID) == "" {
		errs["project_id"] = errors.New("is required")
	}
	return errs.Filter()
}

func (p Project) endNotBeforeStart(value interface{}) error {
	end, _ := value.(*time.Time)
	if end == nil || p.StartDate == nil {
		return nil
	}
	if end.Before(*p.StartDate) {
		return errors.New("must not be before start_date")
	}
	return nil
}

func statusValues() []interface{} {
	out := make([]interface{}, len(Statuses))
	for i, s := range Statuses {
		out[i] = s
	}
	return out
}
