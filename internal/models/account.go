// internal/models/account.go
package models

import (
	"github.com/google/uuid"
)

// Account is the fund ledger entry for a principal. The row ID equals the
// principal's identity (the JWT subject); rows are created lazily the first
// time a principal touches money. Balance is integer minor units and never
// goes negative.
type Account struct {
	BaseModel
	DisplayName string        `json:"display_name" gorm:"size:100"`
	Role        PrincipalRole `json:"role" gorm:"type:varchar(20);default:'consumer'"`
	Balance     int64         `json:"balance" gorm:"not null;default:0"`
}

func (Account) TableName() string {
	return "accounts"
}

// NewAccount returns an empty account for the given principal.
func NewAccount(principal uuid.UUID) *Account {
	return &Account{BaseModel: BaseModel{ID: principal}}
}
