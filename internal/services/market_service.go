// internal/services/market_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlot/openlot-backend/internal/config"
	"github.com/openlot/openlot-backend/internal/market"
	"github.com/openlot/openlot-backend/internal/models"
	"github.com/openlot/openlot-backend/internal/utils"
)

// Not-found conditions share the market error type so handlers map every
// rejection through one code path.
var (
	ErrProductNotFound   = &market.Error{Code: "PRODUCT_NOT_FOUND", Message: "product not found"}
	ErrComplaintNotFound = &market.Error{Code: "COMPLAINT_NOT_FOUND", Message: "complaint not found"}
	ErrAccountNotFound   = &market.Error{Code: "ACCOUNT_NOT_FOUND", Message: "account not found"}
)

// MarketService drives the product lifecycle. Every transition runs as one
// database transaction: the product row is locked, the pure state machine in
// the market package checks preconditions and mutates the records, and the
// resulting rows plus any fund movement are persisted together. The clock is
// injectable; production uses wall time, tests pin it.
type MarketService struct {
	db            *gorm.DB
	cfg           *config.Config
	notifications *NotificationService
	nowFn         func() int64
}

func NewMarketService(db *gorm.DB, cfg *config.Config, notifications *NotificationService) *MarketService {
	return &MarketService{
		db:            db,
		cfg:           cfg,
		notifications: notifications,
		nowFn:         func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source. Intended for tests.
func (s *MarketService) SetNowFunc(now func() int64) {
	if now == nil {
		s.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	s.nowFn = now
}

// lockForUpdate row-locks the query on Postgres. The sqlite test driver
// serializes writers on its own and rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Request DTOs

type CreateProductRequest struct {
	Description string `json:"description" validate:"required,min=3"`
	Quality     int    `json:"quality" validate:"gte=0,lte=100"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Duration    int64  `json:"duration" validate:"required,gt=0"`
}

type PlaceBidRequest struct {
	Description  string   `json:"description" validate:"max=2000"`
	Requirements []string `json:"requirements" validate:"max=20,dive,requirement_tag"`
}

type ChooseConsumerRequest struct {
	Consumer uuid.UUID `json:"consumer" validate:"required"`
	Payment  int64     `json:"payment" validate:"required,gt=0"`
}

type FileComplaintRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=2000"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	Open       *bool      `json:"open,omitempty"`
	PriceMin   *int64     `json:"price_min,omitempty"`
	PriceMax   *int64     `json:"price_max,omitempty"`
}

// CreateProduct lists a new lot and mints its capability token. The secret is
// returned exactly once; only its hash is stored.
func (s *MarketService) CreateProduct(supplier uuid.UUID, req *CreateProductRequest) (*models.Product, string, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, "", fmt.Errorf("validation failed: %w", err)
	}

	if req.Duration > s.cfg.Market.MaxListDuration {
		return nil, "", market.ErrInvalidDuration
	}

	product, cap, err := market.NewProduct(s.nowFn(), supplier, req.Description, req.Quality, req.Price, req.Duration)
	if err != nil {
		return nil, "", err
	}

	secret, err := utils.GenerateCapabilitySecret()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate capability secret: %w", err)
	}
	if err := cap.SetSecret(secret); err != nil {
		return nil, "", fmt.Errorf("failed to hash capability secret: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if err := tx.Create(cap).Error; err != nil {
			return fmt.Errorf("failed to mint product capability: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return product, secret, nil
}

func (s *MarketService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Bids").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *MarketService) SearchProducts(params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{})

	if params.SupplierID != nil {
		query = query.Where("supplier_id = ?", *params.SupplierID)
	}
	if params.Open != nil {
		query = query.Where("chosen = ?", !*params.Open)
	}
	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}
	if params.Search != "" {
		query = query.Where("LOWER(description) LIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "price", "quality", "deadline"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// PlaceBid submits a consumer profile against an open product.
func (s *MarketService) PlaceBid(productID, bidder uuid.UUID, req *PlaceBidRequest) (*models.Bid, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var bid *models.Bid
	err := s.db.Transaction(func(tx *gorm.DB) error {
		product, err := s.loadProductForUpdate(tx, productID, true)
		if err != nil {
			return err
		}

		bid = market.NewBid(product.ID, bidder, req.Description, req.Requirements)
		if err := market.PlaceBid(product, bid); err != nil {
			return err
		}

		if err := tx.Create(bid).Error; err != nil {
			return fmt.Errorf("failed to store bid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(bidder, models.NotificationTypeBidPlaced, &productID,
		"Bid placed", "Your bid was placed and is pending selection.")
	return bid, nil
}

// ListBids returns the pending bid table. Only the capability holder may
// inspect it.
func (s *MarketService) ListBids(productID uuid.UUID, capSecret string) ([]models.Bid, error) {
	if _, err := s.verifyProductCap(s.db, productID, capSecret); err != nil {
		return nil, err
	}

	var bids []models.Bid
	if err := s.db.Where("product_id = ?", productID).Order("created_at asc").Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch bids: %w", err)
	}
	return bids, nil
}

func (s *MarketService) BidsByBidder(bidder uuid.UUID, params utils.PaginationParams) ([]models.Bid, int64, error) {
	query := s.db.Model(&models.Bid{}).Where("bidder_id = ?", bidder)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bids: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at"})
	query = utils.ApplyPagination(query, params)

	var bids []models.Bid
	if err := query.Find(&bids).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch bids: %w", err)
	}
	return bids, total, nil
}

// ChooseConsumer locks the escrow and closes bidding: the capability holder's
// payment is debited from their account, merged into the product's escrow
// balance, and the winning bid is removed from the table and returned.
func (s *MarketService) ChooseConsumer(productID uuid.UUID, capSecret string, req *ChooseConsumerRequest) (*models.Bid, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var winner *models.Bid
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cap, err := s.verifyProductCap(tx, productID, capSecret)
		if err != nil {
			return err
		}

		product, err := s.loadProductForUpdate(tx, productID, true)
		if err != nil {
			return err
		}

		// Debit the payment before the engine merges it into escrow; the
		// transaction rolls both back together on any rejection.
		if err := s.debitAccount(tx, cap.HolderID, req.Payment); err != nil {
			return err
		}

		winner, err = market.ChooseConsumer(cap, product, req.Payment, req.Consumer)
		if err != nil {
			return err
		}

		if err := tx.Unscoped().Delete(&models.Bid{}, "id = ?", winner.ID).Error; err != nil {
			return fmt.Errorf("failed to consume winning bid: %w", err)
		}

		return s.saveProduct(tx, product)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(req.Consumer, models.NotificationTypeBidSelected, &productID,
		"Bid selected", "Your bid was selected and payment is held in escrow.")
	return winner, nil
}

// SubmitOrder records the selected consumer's intent to proceed, before the
// deadline.
func (s *MarketService) SubmitOrder(productID, caller uuid.UUID) (*models.Product, error) {
	var product *models.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		product, err = s.loadProductForUpdate(tx, productID, false)
		if err != nil {
			return err
		}

		if err := market.SubmitOrder(product, caller, s.nowFn()); err != nil {
			return err
		}
		return s.saveProduct(tx, product)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(product.SupplierID, models.NotificationTypeOrderSubmitted, &productID,
		"Order submitted", "The selected consumer submitted the order.")
	return product, nil
}

// ConfirmOrder releases the escrow to the selected consumer. The withdrawal
// is guarded twice: the engine rejects an empty escrow, and the persistence
// layer clears the balance with a compare-and-clear so no interleaving can
// drain one fill twice.
func (s *MarketService) ConfirmOrder(productID uuid.UUID, capSecret string) (*models.Product, error) {
	var product *models.Product
	var payout *market.Payout
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cap, err := s.verifyProductCap(tx, productID, capSecret)
		if err != nil {
			return err
		}

		product, err = s.loadProductForUpdate(tx, productID, false)
		if err != nil {
			return err
		}

		payout, err = market.ConfirmOrder(cap, product, s.nowFn())
		if err != nil {
			return err
		}

		if err := s.drainEscrow(tx, product, payout); err != nil {
			return err
		}
		return s.creditAccount(tx, payout.Recipient, payout.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(payout.Recipient, models.NotificationTypeOrderConfirmed, &productID,
		"Order confirmed", "The supplier confirmed the order; escrow was released to you.")
	return product, nil
}

// FileComplaint opens a dispute once the deadline has passed. Escrow stays
// locked until arbitration.
func (s *MarketService) FileComplaint(productID, caller uuid.UUID, req *FileComplaintRequest) (*models.Complaint, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var complaint *models.Complaint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		product, err := s.loadProductForUpdate(tx, productID, false)
		if err != nil {
			return err
		}

		complaint, err = market.FileComplaint(product, caller, s.nowFn(), req.Reason)
		if err != nil {
			return err
		}

		if err := tx.Create(complaint).Error; err != nil {
			return fmt.Errorf("failed to store complaint: %w", err)
		}
		return s.saveProduct(tx, product)
	})
	if err != nil {
		return nil, err
	}

	counterpart := complaint.SupplierID
	if caller == complaint.SupplierID {
		counterpart = complaint.ConsumerID
	}
	s.notifications.Notify(counterpart, models.NotificationTypeComplaintFiled, &productID,
		"Complaint filed", "A complaint was filed against this product; arbitration is pending.")
	return complaint, nil
}

func (s *MarketService) GetComplaint(id uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := s.db.First(&complaint, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &complaint, nil
}

func (s *MarketService) ListOpenComplaints(params utils.PaginationParams) ([]models.Complaint, int64, error) {
	query := s.db.Model(&models.Complaint{}).Where("resolved = ?", false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count complaints: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at"})
	query = utils.ApplyPagination(query, params)

	var complaints []models.Complaint
	if err := query.Find(&complaints).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch complaints: %w", err)
	}
	return complaints, total, nil
}

// ResolveDispute settles an open dispute. forConsumer picks the winning
// party; the escrow drains to them and the complaint becomes terminal. Only
// the arbiter capability may call this, and only one resolution per dispute
// can ever succeed.
func (s *MarketService) ResolveDispute(complaintID uuid.UUID, capSecret string, forConsumer bool) (*models.Complaint, error) {
	var complaint *models.Complaint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		admin, err := s.verifyAdminCap(tx, capSecret)
		if err != nil {
			return err
		}

		complaint = &models.Complaint{}
		if err := lockForUpdate(tx).First(complaint, "id = ?", complaintID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrComplaintNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		product, err := s.loadProductForUpdate(tx, complaint.ProductID, false)
		if err != nil {
			return err
		}

		var payout *market.Payout
		if forConsumer {
			payout, err = market.ResolveForConsumer(admin, product, complaint)
		} else {
			payout, err = market.ResolveForSupplier(admin, product, complaint)
		}
		if err != nil {
			return err
		}

		now := time.Now()
		complaint.ResolvedAt = &now
		if err := tx.Save(complaint).Error; err != nil {
			return fmt.Errorf("failed to persist complaint: %w", err)
		}

		if err := s.drainEscrow(tx, product, payout); err != nil {
			return err
		}
		return s.creditAccount(tx, payout.Recipient, payout.Amount)
	})
	if err != nil {
		return nil, err
	}

	for _, recipient := range []uuid.UUID{complaint.ConsumerID, complaint.SupplierID} {
		s.notifications.Notify(recipient, models.NotificationTypeDisputeResolved, &complaint.ProductID,
			"Dispute resolved", "The arbiter settled the dispute on this product.")
	}
	return complaint, nil
}

// Accounts (fund ledger)

func (s *MarketService) GetAccount(principal uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, "id = ?", principal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &account, nil
}

// CreditAccount is the external fund collaborator's entry point: the arbiter
// capability tops up a principal's ledger balance.
func (s *MarketService) CreditAccount(principal uuid.UUID, amount int64, capSecret string) (*models.Account, error) {
	if amount <= 0 {
		return nil, market.ErrInvalidPrice
	}

	var account *models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.verifyAdminCap(tx, capSecret); err != nil {
			return err
		}
		if err := s.creditAccount(tx, principal, amount); err != nil {
			return err
		}
		account = &models.Account{}
		return tx.First(account, "id = ?", principal).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(principal, models.NotificationTypeAccountCredited, nil,
		"Account credited", "Your ledger balance was topped up.")
	return account, nil
}

// Internal helpers

func (s *MarketService) loadProductForUpdate(tx *gorm.DB, id uuid.UUID, withBids bool) (*models.Product, error) {
	query := lockForUpdate(tx)
	var product models.Product
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if withBids {
		if err := tx.Where("product_id = ?", id).Order("created_at asc").Find(&product.Bids).Error; err != nil {
			return nil, fmt.Errorf("failed to load bid table: %w", err)
		}
	}
	return &product, nil
}

func (s *MarketService) saveProduct(tx *gorm.DB, product *models.Product) error {
	if err := tx.Omit("Bids", "Complaints").Save(product).Error; err != nil {
		return fmt.Errorf("failed to persist product: %w", err)
	}
	return nil
}

// drainEscrow persists a withdrawn escrow with a compare-and-clear: the
// update only lands if the stored balance still equals the amount the engine
// withdrew. Zero rows affected means another transaction drained the fill
// first.
func (s *MarketService) drainEscrow(tx *gorm.DB, product *models.Product, payout *market.Payout) error {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND payment = ?", product.ID, payout.Amount).
		Updates(map[string]interface{}{
			"payment":         0,
			"dispute":         product.Dispute,
			"order_submitted": product.OrderSubmitted,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to drain escrow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return market.ErrEscrowEmpty
	}
	return nil
}

func (s *MarketService) creditAccount(tx *gorm.DB, principal uuid.UUID, amount int64) error {
	account := models.NewAccount(principal)
	if err := tx.Where("id = ?", principal).FirstOrCreate(account).Error; err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	result := tx.Model(&models.Account{}).Where("id = ?", principal).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to credit account: %w", result.Error)
	}
	return nil
}

func (s *MarketService) debitAccount(tx *gorm.DB, principal uuid.UUID, amount int64) error {
	result := tx.Model(&models.Account{}).
		Where("id = ? AND balance >= ?", principal, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return fmt.Errorf("failed to debit account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return market.ErrInsufficientBalance
	}
	return nil
}

func (s *MarketService) verifyProductCap(tx *gorm.DB, productID uuid.UUID, secret string) (*models.ProductCap, error) {
	if secret == "" {
		return nil, market.ErrInvalidCapability
	}
	var cap models.ProductCap
	if err := tx.First(&cap, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrInvalidCapability
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := cap.CheckSecret(secret); err != nil {
		return nil, market.ErrInvalidCapability
	}
	return &cap, nil
}

func (s *MarketService) verifyAdminCap(tx *gorm.DB, secret string) (*models.AdminCap, error) {
	if secret == "" {
		return nil, market.ErrInvalidCapability
	}
	var cap models.AdminCap
	if err := tx.First(&cap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrInvalidCapability
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := cap.CheckSecret(secret); err != nil {
		return nil, market.ErrInvalidCapability
	}
	return &cap, nil
}
