// Package model contains the catalog records passed between layers.
package model

import "time"

// Kind identifies a catalog resource type.
type Kind string

// Resource kinds served by the API.
const (
	KindCreditPackage Kind = "credit_package"
	KindSkill         Kind = "skill"
)

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// CreditPackage is a purchasable bundle of coaching credits.
// Price is validated as a whole number even though storage keeps two decimals.
type CreditPackage struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreditAmount int64     `json:"credit_amount"`
	Price        int64     `json:"price"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// Skill is a tag describing what a coach teaches.
type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
