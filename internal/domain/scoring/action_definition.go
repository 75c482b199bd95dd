// Package scoring contains the scoring context: the action catalog, immutable
// activity entries and the append-only points ledger.
package scoring

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// Category classifies a sustainable action.
type Category string

const (
	CategoryMobility    Category = "mobility"
	CategoryConsumption Category = "consumption"
	CategoryRecycling   Category = "recycling"
	CategoryEnergy      Category = "energy"
	CategoryNutrition   Category = "nutrition"
	CategoryOther       Category = "other"
)

// IsValid checks that the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryMobility, CategoryConsumption, CategoryRecycling,
		CategoryEnergy, CategoryNutrition, CategoryOther:
		return true
	}
	return false
}

// Unit is the measurement unit a quantity is expressed in.
type Unit string

const (
	UnitPiece      Unit = "piece"
	UnitKilometers Unit = "km"
	UnitMinutes    Unit = "minutes"
	UnitKilograms  Unit = "kg"
	UnitLiters     Unit = "liters"
)

// IsValid checks that the unit is one of the known values.
func (u Unit) IsValid() bool {
	switch u {
	case UnitPiece, UnitKilometers, UnitMinutes, UnitKilograms, UnitLiters:
		return true
	}
	return false
}

// ActionDefinition defines a type of sustainable action with base points.
// It is owned by the catalog and referenced by ID from activity entries.
// Immutable except for administrative base-points updates and the active flag.
type ActionDefinition struct {
	ID          shared.ActionID
	Name        string
	Description string
	Category    Category
	Unit        Unit
	BasePoints  int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewActionDefinition creates a new active action definition.
func NewActionDefinition(name, description string, category Category, unit Unit, basePoints int) (*ActionDefinition, error) {
	if name == "" {
		return nil, shared.NewDomainError("scoring", "NewActionDefinition", shared.ErrEmptyValue, "name is required")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("scoring", "NewActionDefinition", shared.ErrInvalidInput, "unknown category")
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("scoring", "NewActionDefinition", shared.ErrInvalidInput, "unknown unit")
	}
	if basePoints <= 0 {
		return nil, shared.ErrInvalidBasePoints
	}

	now := time.Now().UTC()
	return &ActionDefinition{
		ID:          shared.ActionID(uuid.NewString()),
		Name:        name,
		Description: description,
		Category:    category,
		Unit:        unit,
		BasePoints:  basePoints,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CalculatePoints converts a quantity into points for this action.
// Rounding is half-up: round(quantity * basePoints) to the nearest integer.
// Pure: no side effects.
func (a *ActionDefinition) CalculatePoints(quantity float64) (int, error) {
	if quantity <= 0 {
		return 0, shared.ErrInvalidQuantity
	}
	if !a.Active {
		return 0, shared.ErrActionInactive
	}
	return int(math.Round(quantity * float64(a.BasePoints))), nil
}

// Activate marks the action as usable for new activities.
func (a *ActionDefinition) Activate() {
	a.Active = true
	a.UpdatedAt = time.Now().UTC()
}

// Deactivate retires the action. Existing activity entries keep their points.
func (a *ActionDefinition) Deactivate() {
	a.Active = false
	a.UpdatedAt = time.Now().UTC()
}

// UpdateBasePoints changes the base points for future activities.
func (a *ActionDefinition) UpdateBasePoints(basePoints int) error {
	if basePoints <= 0 {
		return shared.ErrInvalidBasePoints
	}
	a.BasePoints = basePoints
	a.UpdatedAt = time.Now().UTC()
	return nil
}
