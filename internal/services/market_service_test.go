// internal/services/market_service_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openlot/openlot-backend/internal/config"
	"github.com/openlot/openlot-backend/internal/market"
	"github.com/openlot/openlot-backend/internal/models"
	"github.com/openlot/openlot-backend/internal/utils"
)

const (
	suiteNow      = int64(1_000_000)
	suiteDuration = int64(1_000)
)

type MarketServiceSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *MarketService
	now int64

	supplier uuid.UUID
	consumer uuid.UUID

	adminSecret string
}

func (s *MarketServiceSuite) SetupTest() {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(
		&models.Account{},
		&models.Product{},
		&models.Bid{},
		&models.Complaint{},
		&models.ProductCap{},
		&models.AdminCap{},
		&models.Notification{},
	))
	s.db = db

	cfg := &config.Config{
		Market: config.MarketConfig{MaxListDuration: 90 * 24 * 3600},
	}
	s.svc = NewMarketService(db, cfg, NewNotificationService(db))
	s.now = suiteNow
	s.svc.SetNowFunc(func() int64 { return s.now })

	s.supplier = uuid.New()
	s.consumer = uuid.New()
	s.createAccount(s.supplier, 10_000)
	s.createAccount(s.consumer, 0)

	admin := &models.AdminCap{HolderID: uuid.New()}
	s.adminSecret = "cap_test_admin_secret"
	s.Require().NoError(admin.SetSecret(s.adminSecret))
	s.Require().NoError(db.Create(admin).Error)
}

func (s *MarketServiceSuite) createAccount(principal uuid.UUID, balance int64) {
	account := models.NewAccount(principal)
	account.Balance = balance
	s.Require().NoError(s.db.Create(account).Error)
}

func (s *MarketServiceSuite) balanceOf(principal uuid.UUID) int64 {
	var account models.Account
	s.Require().NoError(s.db.First(&account, "id = ?", principal).Error)
	return account.Balance
}

// listProduct creates a standard lot and returns it with its capability
// secret.
func (s *MarketServiceSuite) listProduct() (*models.Product, string) {
	product, secret, err := s.svc.CreateProduct(s.supplier, &CreateProductRequest{
		Description: "bulk widget lot",
		Quality:     85,
		Price:       100,
		Duration:    suiteDuration,
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(secret)
	return product, secret
}

// selectConsumer drives a product to the Selected state: the consumer bids
// and the supplier picks them with a payment of 150.
func (s *MarketServiceSuite) selectConsumer(product *models.Product, secret string) {
	_, err := s.svc.PlaceBid(product.ID, s.consumer, &PlaceBidRequest{Requirements: []string{"high_quality"}})
	s.Require().NoError(err)
	_, err = s.svc.ChooseConsumer(product.ID, secret, &ChooseConsumerRequest{Consumer: s.consumer, Payment: 150})
	s.Require().NoError(err)
}

func (s *MarketServiceSuite) TestCreateProductMintsCapability() {
	product, secret := s.listProduct()

	s.Equal(suiteNow+suiteDuration, product.Deadline)
	s.False(product.Chosen)
	s.Zero(product.Payment)

	// The stored token verifies against the returned secret, and only the
	// bcrypt hash is on disk.
	var cap models.ProductCap
	s.Require().NoError(s.db.First(&cap, "product_id = ?", product.ID).Error)
	s.Equal(s.supplier, cap.HolderID)
	s.NoError(cap.CheckSecret(secret))
	s.Error(cap.CheckSecret("cap_wrong"))
}

func (s *MarketServiceSuite) TestCreateProductRejectsExcessiveDuration() {
	_, _, err := s.svc.CreateProduct(s.supplier, &CreateProductRequest{
		Description: "eternal lot",
		Quality:     50,
		Price:       100,
		Duration:    365 * 24 * 3600,
	})
	s.ErrorIs(err, market.ErrInvalidDuration)
}

func (s *MarketServiceSuite) TestPlaceBidPersistsAndNotifies() {
	product, _ := s.listProduct()

	bid, err := s.svc.PlaceBid(product.ID, s.consumer, &PlaceBidRequest{
		Description:  "need it insured",
		Requirements: []string{"insured", "high_quality"},
	})
	s.Require().NoError(err)

	var stored models.Bid
	s.Require().NoError(s.db.First(&stored, "id = ?", bid.ID).Error)
	s.Equal([]string{"insured", "high_quality"}, []string(stored.Requirements))

	var count int64
	s.db.Model(&models.Notification{}).Where("recipient_id = ?", s.consumer).Count(&count)
	s.EqualValues(1, count)
}

func (s *MarketServiceSuite) TestPlaceBidRejectsDuplicate() {
	product, _ := s.listProduct()

	_, err := s.svc.PlaceBid(product.ID, s.consumer, &PlaceBidRequest{})
	s.Require().NoError(err)
	_, err = s.svc.PlaceBid(product.ID, s.consumer, &PlaceBidRequest{})
	s.ErrorIs(err, market.ErrDuplicateBid)
}

func (s *MarketServiceSuite) TestPlaceBidRejectsUnmetRequirements() {
	product, _, err := s.svc.CreateProduct(s.supplier, &CreateProductRequest{
		Description: "budget lot",
		Quality:     40,
		Price:       50,
		Duration:    suiteDuration,
	})
	s.Require().NoError(err)

	_, err = s.svc.PlaceBid(product.ID, s.consumer, &PlaceBidRequest{Requirements: []string{"high_quality"}})
	s.ErrorIs(err, market.ErrRequirementsNotMet)
}

func (s *MarketServiceSuite) TestPlaceBidUnknownProduct() {
	_, err := s.svc.PlaceBid(uuid.New(), s.consumer, &PlaceBidRequest{})
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *MarketServiceSuite) TestChooseConsumerLocksEscrow() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)

	// Payment left the supplier's ledger and sits in escrow.
	s.EqualValues(10_000-150, s.balanceOf(s.supplier))

	var stored models.Product
	s.Require().NoError(s.db.First(&stored, "id = ?", product.ID).Error)
	s.True(stored.Chosen)
	s.EqualValues(150, stored.Payment)
	s.Require().NotNil(stored.ConsumerID)
	s.Equal(s.consumer, *stored.ConsumerID)

	// The winning bid was consumed from the table.
	var bids int64
	s.db.Model(&models.Bid{}).Where("product_id = ?", product.ID).Count(&bids)
	s.Zero(bids)
}

func (s *MarketServiceSuite) TestChooseConsumerRejectsBadSecret() {
	product, _ := s.listProduct()
	_, err := s.svc.PlaceBid(product.ID, s.consumer, &PlaceBidRequest{})
	s.Require().NoError(err)

	_, err = s.svc.ChooseConsumer(product.ID, "cap_forged", &ChooseConsumerRequest{Consumer: s.consumer, Payment: 150})
	s.ErrorIs(err, market.ErrInvalidCapability)
}

func (s *MarketServiceSuite) TestChooseConsumerRollsBackOnLowPayment() {
	product, secret := s.listProduct()
	_, err := s.svc.PlaceBid(product.ID, s.consumer, &PlaceBidRequest{})
	s.Require().NoError(err)

	// 99 < price 100: the transition rejects and the debit rolls back.
	_, err = s.svc.ChooseConsumer(product.ID, secret, &ChooseConsumerRequest{Consumer: s.consumer, Payment: 99})
	s.ErrorIs(err, market.ErrInsufficientFunds)
	s.EqualValues(10_000, s.balanceOf(s.supplier))
}

func (s *MarketServiceSuite) TestChooseConsumerRejectsPoorSupplier() {
	poor := uuid.New()
	s.createAccount(poor, 10)
	product, secret, err := s.svc.CreateProduct(poor, &CreateProductRequest{
		Description: "lot beyond means",
		Quality:     50,
		Price:       100,
		Duration:    suiteDuration,
	})
	s.Require().NoError(err)
	_, err = s.svc.PlaceBid(product.ID, s.consumer, &PlaceBidRequest{})
	s.Require().NoError(err)

	_, err = s.svc.ChooseConsumer(product.ID, secret, &ChooseConsumerRequest{Consumer: s.consumer, Payment: 150})
	s.ErrorIs(err, market.ErrInsufficientBalance)
	s.EqualValues(10, s.balanceOf(poor))
}

func (s *MarketServiceSuite) TestChooseConsumerRejectsUnknownBidder() {
	product, secret := s.listProduct()
	_, err := s.svc.ChooseConsumer(product.ID, secret, &ChooseConsumerRequest{Consumer: uuid.New(), Payment: 150})
	s.ErrorIs(err, market.ErrNoSuchBid)
}

func (s *MarketServiceSuite) TestSubmitOrderOnlySelectedConsumer() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)

	_, err := s.svc.SubmitOrder(product.ID, uuid.New())
	s.ErrorIs(err, market.ErrWrongAddress)

	updated, err := s.svc.SubmitOrder(product.ID, s.consumer)
	s.Require().NoError(err)
	s.True(updated.OrderSubmitted)
}

func (s *MarketServiceSuite) TestSubmitOrderAfterDeadline() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)

	s.now = product.Deadline
	_, err := s.svc.SubmitOrder(product.ID, s.consumer)
	s.ErrorIs(err, market.ErrDeadlineExpired)
}

func (s *MarketServiceSuite) TestConfirmOrderReleasesEscrowOnce() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)
	_, err := s.svc.SubmitOrder(product.ID, s.consumer)
	s.Require().NoError(err)

	confirmed, err := s.svc.ConfirmOrder(product.ID, secret)
	s.Require().NoError(err)
	s.Zero(confirmed.Payment)
	s.EqualValues(150, s.balanceOf(s.consumer))

	// The fill can only be drained once.
	_, err = s.svc.ConfirmOrder(product.ID, secret)
	s.ErrorIs(err, market.ErrEscrowEmpty)
	s.EqualValues(150, s.balanceOf(s.consumer))
}

func (s *MarketServiceSuite) TestConfirmOrderRequiresSubmission() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)

	_, err := s.svc.ConfirmOrder(product.ID, secret)
	s.ErrorIs(err, market.ErrOrderNotSubmitted)
}

func (s *MarketServiceSuite) TestFileComplaintOnlyAfterDeadline() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)

	_, err := s.svc.FileComplaint(product.ID, s.consumer, &FileComplaintRequest{Reason: "never delivered"})
	s.ErrorIs(err, market.ErrDeadlineNotReached)

	s.now = product.Deadline + 1
	complaint, err := s.svc.FileComplaint(product.ID, s.consumer, &FileComplaintRequest{Reason: "never delivered"})
	s.Require().NoError(err)
	s.Equal(s.consumer, complaint.FiledBy)
	s.False(complaint.Resolved)

	// Only one open dispute per product.
	_, err = s.svc.FileComplaint(product.ID, s.supplier, &FileComplaintRequest{Reason: "consumer vanished"})
	s.ErrorIs(err, market.ErrDisputePending)
}

func (s *MarketServiceSuite) TestFileComplaintRejectsThirdParty() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)
	s.now = product.Deadline + 1

	_, err := s.svc.FileComplaint(product.ID, uuid.New(), &FileComplaintRequest{Reason: "unrelated"})
	s.ErrorIs(err, market.ErrUnauthorizedParty)
}

func (s *MarketServiceSuite) TestResolveDisputeForConsumer() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)
	s.now = product.Deadline + 1
	complaint, err := s.svc.FileComplaint(product.ID, s.consumer, &FileComplaintRequest{Reason: "never delivered"})
	s.Require().NoError(err)

	resolved, err := s.svc.ResolveDispute(complaint.ID, s.adminSecret, true)
	s.Require().NoError(err)
	s.True(resolved.Resolved)
	s.True(resolved.Decision)
	s.NotNil(resolved.ResolvedAt)
	s.EqualValues(150, s.balanceOf(s.consumer))

	// Terminal: the same dispute cannot be settled twice.
	_, err = s.svc.ResolveDispute(complaint.ID, s.adminSecret, false)
	s.ErrorIs(err, market.ErrComplaintResolved)
}

func (s *MarketServiceSuite) TestResolveDisputeForSupplier() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)
	s.now = product.Deadline + 1
	complaint, err := s.svc.FileComplaint(product.ID, s.supplier, &FileComplaintRequest{Reason: "consumer vanished"})
	s.Require().NoError(err)

	resolved, err := s.svc.ResolveDispute(complaint.ID, s.adminSecret, false)
	s.Require().NoError(err)
	s.True(resolved.Resolved)
	s.False(resolved.Decision)

	// The escrowed 150 returned to the supplier.
	s.EqualValues(10_000, s.balanceOf(s.supplier))
	s.Zero(s.balanceOf(s.consumer))
}

func (s *MarketServiceSuite) TestResolveDisputeRequiresArbiterSecret() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)
	s.now = product.Deadline + 1
	complaint, err := s.svc.FileComplaint(product.ID, s.consumer, &FileComplaintRequest{Reason: "never delivered"})
	s.Require().NoError(err)

	_, err = s.svc.ResolveDispute(complaint.ID, "cap_forged", true)
	s.ErrorIs(err, market.ErrInvalidCapability)
	_, err = s.svc.ResolveDispute(complaint.ID, secret, true)
	s.ErrorIs(err, market.ErrInvalidCapability)
}

func (s *MarketServiceSuite) TestConfirmAfterResolutionFails() {
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)
	_, err := s.svc.SubmitOrder(product.ID, s.consumer)
	s.Require().NoError(err)

	s.now = product.Deadline + 1
	complaint, err := s.svc.FileComplaint(product.ID, s.consumer, &FileComplaintRequest{Reason: "defective"})
	s.Require().NoError(err)
	_, err = s.svc.ResolveDispute(complaint.ID, s.adminSecret, true)
	s.Require().NoError(err)

	// The deadline has passed anyway, but the drained escrow alone makes a
	// late confirmation impossible.
	s.now = product.Deadline - 1
	_, err = s.svc.ConfirmOrder(product.ID, secret)
	s.ErrorIs(err, market.ErrEscrowEmpty)
}

func (s *MarketServiceSuite) TestListBidsRequiresCapability() {
	product, secret := s.listProduct()
	_, err := s.svc.PlaceBid(product.ID, s.consumer, &PlaceBidRequest{})
	s.Require().NoError(err)

	_, err = s.svc.ListBids(product.ID, "")
	s.ErrorIs(err, market.ErrInvalidCapability)

	bids, err := s.svc.ListBids(product.ID, secret)
	s.Require().NoError(err)
	s.Len(bids, 1)
	s.Equal(s.consumer, bids[0].BidderID)
}

func (s *MarketServiceSuite) TestSearchProductsFilters() {
	s.listProduct()
	product, secret := s.listProduct()
	s.selectConsumer(product, secret)

	open := true
	products, total, err := s.svc.SearchProducts(ProductSearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 10},
		Open:             &open,
	})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Require().Len(products, 1)
	s.False(products[0].Chosen)
}

func (s *MarketServiceSuite) TestCreditAccountRequiresArbiter() {
	_, err := s.svc.CreditAccount(s.consumer, 500, "cap_forged")
	s.ErrorIs(err, market.ErrInvalidCapability)

	account, err := s.svc.CreditAccount(s.consumer, 500, s.adminSecret)
	s.Require().NoError(err)
	s.EqualValues(500, account.Balance)
}

func (s *MarketServiceSuite) TestCreditAccountCreatesLedgerRow() {
	fresh := uuid.New()
	account, err := s.svc.CreditAccount(fresh, 250, s.adminSecret)
	s.Require().NoError(err)
	s.EqualValues(250, account.Balance)
}

func TestMarketServiceSuite(t *testing.T) {
	suite.Run(t, new(MarketServiceSuite))
}
