package domain

import "time"

// ConcessionType is a rider category mapping to a fare discount percentage.
type ConcessionType string

const (
	ConcessionGeneral  ConcessionType = "general"
	ConcessionStudent  ConcessionType = "student"
	ConcessionChild    ConcessionType = "child"
	ConcessionWomen    ConcessionType = "women"
	ConcessionElderly  ConcessionType = "elderly"
	ConcessionDisabled ConcessionType = "disabled"
)

// Valid reports whether c is a known rider category.
func (c ConcessionType) Valid() bool {
	switch c {
	case ConcessionGeneral, ConcessionStudent, ConcessionChild,
		ConcessionWomen, ConcessionElderly, ConcessionDisabled:
		return true
	}
	return false
}

// User represents a registered rider.
type User struct {
	ID         string
	Name       string
	Phone      string
	Concession ConcessionType
	CreatedAt  time.Time
}
