// internal/domain/protocol.go
package domain

import (
	"slices"
	"time"
)

// Meal is one entry of a diet, rendered in list order.
type Meal struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
}

// Diet groups the ordered meals of a protocol.
type Diet struct {
	ID    string `bson:"id" json:"id"`
	Meals []Meal `bson:"meals" json:"meals"`
}

// Exercise is a single line of a workout.
type Exercise struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Sets  int    `bson:"sets" json:"sets"`
	Reps  int    `bson:"reps" json:"reps"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Workout is a named, ordered list of exercises.
type Workout struct {
	ID        string     `bson:"id" json:"id"`
	Name      string     `bson:"name" json:"name"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

// Supplement is one entry of the supplementation schedule.
type Supplement struct {
	ID        string `bson:"id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Dosage    string `bson:"dosage" json:"dosage"`
	Frequency string `bson:"frequency" json:"frequency"`
	Notes     string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Protocol is a time-boxed plan (diet, workouts, supplements) for one customer.
type Protocol struct {
	ID           string       `bson:"_id" json:"id"`
	CustomerID   string       `bson:"customerId" json:"customer_id"` // Reference by id only, not enforced
	Diet         Diet         `bson:"diet" json:"diet"`
	Workouts     []Workout    `bson:"workouts" json:"workouts"`
	Supplements  []Supplement `bson:"supplements" json:"supplements"`
	StartDate    time.Time    `bson:"startDate" json:"start_date"`
	EndDate      time.Time    `bson:"endDate" json:"end_date"` // Always StartDate + DurationDays - 1 day
	DurationDays int          `bson:"durationDays" json:"duration_days"`
	CreatedAt    time.Time    `bson:"createdAt" json:"created_at"`
	SentAt       *time.Time   `bson:"sentAt,omitempty" json:"sent_at,omitempty"` // Set once by mark-sent
}

// EndDateFor derives the last day of a protocol starting at start.
func EndDateFor(start time.Time, durationDays int) time.Time {
	return start.AddDate(0, 0, durationDays-1)
}

// IsSent reports whether the protocol left the draft state.
func (p Protocol) IsSent() bool {
	return p.SentAt != nil
}

// IsActiveAt reports whether the end date is strictly after now.
func (p Protocol) IsActiveAt(now time.Time) bool {
	return p.EndDate.After(now)
}

// Clone returns a deep copy that shares no slices or pointers with p.
func (p Protocol) Clone() Protocol {
	out := p
	out.Diet = cloneDiet(p.Diet)
	out.Workouts = cloneWorkouts(p.Workouts)
	out.Supplements = slices.Clone(p.Supplements)
	if p.SentAt != nil {
		sent := *p.SentAt
		out.SentAt = &sent
	}
	return out
}

// NewProtocol carries the caller-supplied fields of a protocol.
// ID, CreatedAt and EndDate are assigned by the store.
type NewProtocol struct {
	CustomerID   string
	DurationDays int
	StartDate    time.Time
	Diet         Diet
	Workouts     []Workout
	Supplements  []Supplement
}

// ProtocolPatch holds a partial update. Sub-collections are replaced as a whole.
type ProtocolPatch struct {
	CustomerID   *string
	DurationDays *int
	StartDate    *time.Time
	Diet         *Diet
	Workouts     *[]Workout
	Supplements  *[]Supplement
}

// Apply merges the present fields of p into pr and keeps the end date derived.
func (p ProtocolPatch) Apply(pr *Protocol) {
	setString(&pr.CustomerID, p.CustomerID)
	if p.DurationDays != nil {
		pr.DurationDays = *p.DurationDays
	}
	if p.StartDate != nil {
		pr.StartDate = *p.StartDate
	}
	if p.Diet != nil {
		pr.Diet = cloneDiet(*p.Diet)
	}
	if p.Workouts != nil {
		pr.Workouts = cloneWorkouts(*p.Workouts)
	}
	if p.Supplements != nil {
		pr.Supplements = slices.Clone(*p.Supplements)
	}
	pr.EndDate = EndDateFor(pr.StartDate, pr.DurationDays)
}

func cloneDiet(d Diet) Diet {
	return Diet{ID: d.ID, Meals: slices.Clone(d.Meals)}
}

func cloneWorkouts(ws []Workout) []Workout {
	if ws == nil {
		return nil
	}
	out := make([]Workout, len(ws))
	for i, w := range ws {
		out[i] = Workout{ID: w.ID, Name: w.Name, Exercises: slices.Clone(w.Exercises)}
	}
	return out
}
