// internal/database/bootstrap.go
package database

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlot/openlot-backend/internal/config"
	"github.com/openlot/openlot-backend/internal/models"
	"github.com/openlot/openlot-backend/internal/utils"
)

// Bootstrap performs the one-time administrative setup: exactly one arbiter
// capability is minted for the configured admin principal. The secret is
// printed to the log once and only its hash is stored; re-running against an
// initialized database is a no-op.
func Bootstrap(db *gorm.DB, cfg config.MarketConfig) error {
	var count int64
	if err := db.Model(&models.AdminCap{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check admin capability: %w", err)
	}
	if count > 0 {
		return nil
	}

	holder := uuid.New()
	if cfg.AdminPrincipal != "" {
		parsed, err := uuid.Parse(cfg.AdminPrincipal)
		if err != nil {
			return fmt.Errorf("invalid MARKET_ADMIN_PRINCIPAL: %w", err)
		}
		holder = parsed
	}

	secret, err := utils.GenerateCapabilitySecret()
	if err != nil {
		return fmt.Errorf("failed to generate admin secret: %w", err)
	}

	cap := &models.AdminCap{HolderID: holder}
	if err := cap.SetSecret(secret); err != nil {
		return fmt.Errorf("failed to hash admin secret: %w", err)
	}

	if err := db.Create(cap).Error; err != nil {
		return fmt.Errorf("failed to mint admin capability: %w", err)
	}

	// The only time the secret is ever visible.
	log.Printf("Arbiter capability minted for principal %s", holder)
	log.Printf("Arbiter secret (store it now, it will not be shown again): %s", secret)

	// Make sure the arbiter has a ledger account.
	admin := models.NewAccount(holder)
	admin.Role = models.PrincipalRoleAdmin
	if err := db.Where("id = ?", holder).FirstOrCreate(admin).Error; err != nil {
		return fmt.Errorf("failed to create arbiter account: %w", err)
	}

	return nil
}
