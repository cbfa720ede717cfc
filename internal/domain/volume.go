package domain

import "time"

type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionDamaged   Condition = "damaged"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged:
		return true
	}
	return false
}

type VolumeLoanStatus string

const (
	VolumeAvailable   VolumeLoanStatus = "available"
	VolumeLoaned      VolumeLoanStatus = "loaned"
	VolumeOverdue     VolumeLoanStatus = "overdue"
	VolumeLost        VolumeLoanStatus = "lost"
	VolumeMaintenance VolumeLoanStatus = "maintenance"
)

// OnLoan reports whether the status implies an open loan.
func (s VolumeLoanStatus) OnLoan() bool {
	return s == VolumeLoaned || s == VolumeOverdue
}

// Volume is one physical, barcoded copy of a title.
type Volume struct {
	ID         string
	TitleID    string
	CopyNumber int
	Barcode    string
	Condition  Condition
	LocationID *string
	LoanStatus VolumeLoanStatus
	// ReferenceOnly marks a non-circulating copy.
	ReferenceOnly bool
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Circulates reports whether the copy may leave the shelf at all, regardless
// of whether it is currently loaned.
func (v Volume) Circulates() bool {
	if v.ReferenceOnly || v.Condition == ConditionDamaged {
		return false
	}
	return v.LoanStatus != VolumeLost && v.LoanStatus != VolumeMaintenance
}

// VolumeUpdate carries a partial catalog correction. Nil fields are left alone.
type VolumeUpdate struct {
	Condition     *Condition
	LocationID    *string
	ClearLocation bool
	Notes         *string
	ReferenceOnly *bool
}

// Empty reports whether the update changes nothing.
func (u VolumeUpdate) Empty() bool {
	return u.Condition == nil && u.LocationID == nil && !u.ClearLocation && u.Notes == nil && u.ReferenceOnly == nil
}
