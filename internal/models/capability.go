// internal/models/capability.go
package models

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ProductCap is the capability token minted with a product and delivered only
// to its supplier. Possession of the secret is the sole proof of
// administrative control over the product; the secret itself is revealed
// exactly once at mint time and only its bcrypt hash is stored.
type ProductCap struct {
	BaseModel
	ProductID  uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex"`
	HolderID   uuid.UUID `json:"holder_id" gorm:"type:uuid;not null;index"`
	SecretHash string    `json:"-" gorm:"size:255;not null"`
}

func (ProductCap) TableName() string {
	return "product_caps"
}

func (c *ProductCap) SetSecret(secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.SecretHash = string(hash)
	return nil
}

func (c *ProductCap) CheckSecret(secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret))
}

// AdminCap is the single systemwide arbitration capability. Exactly one row
// is minted at bootstrap and its secret is printed to the server log once.
type AdminCap struct {
	BaseModel
	HolderID   uuid.UUID `json:"holder_id" gorm:"type:uuid;not null"`
	SecretHash string    `json:"-" gorm:"size:255;not null"`
}

func (AdminCap) TableName() string {
	return "admin_caps"
}

func (c *AdminCap) SetSecret(secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.SecretHash = string(hash)
	return nil
}

func (c *AdminCap) CheckSecret(secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret))
}
