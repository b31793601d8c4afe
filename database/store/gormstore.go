package store

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/vaultmesh/checkout/database/orm"
)

// GormStore is the production Store backed by GORM, matching the
// teacher's direct-*gorm.DB style but behind the Store interface.
type GormStore struct {
	db *gorm.DB
}

// New wraps an already-opened *gorm.DB (see database/mysql.NewMySQLDB)
// as a Store.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(dbTx *gorm.DB) error {
		return fn(&GormStore{db: dbTx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}

	if err == gorm.ErrRecordNotFound {
		return ErrNotFound
	}

	if err == gorm.ErrDuplicatedKey {
		return ErrConflict
	}

	return err
}

// ---- users ----

func (s *GormStore) GetUser(ctx context.Context, id string) (*orm.User, error) {
	u := &orm.User{}
	err := s.conn(ctx).Where("id = ?", id).First(u).Error
	return u, wrapErr(err)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*orm.User, error) {
	u := &orm.User{}
	err := s.conn(ctx).Where("email = ?", email).First(u).Error
	return u, wrapErr(err)
}

func (s *GormStore) SetUserProcessorCustomer(ctx context.Context, userID, customerID string) error {
	return wrapErr(s.conn(ctx).Model(&orm.User{}).
		Where("id = ?", userID).
		Update("processor_customer_id", customerID).
		Error)
}

// ---- providers ----

func (s *GormStore) GetProvider(ctx context.Context, id string) (*orm.Provider, error) {
	p := &orm.Provider{}
	err := s.conn(ctx).Where("id = ?", id).First(p).Error
	return p, wrapErr(err)
}

func (s *GormStore) GetProviderBySlug(ctx context.Context, slug string) (*orm.Provider, error) {
	p := &orm.Provider{}
	err := s.conn(ctx).Where("slug = ?", slug).First(p).Error
	return p, wrapErr(err)
}

func (s *GormStore) ListProviders(ctx context.Context) ([]*orm.Provider, error) {
	ps := make([]*orm.Provider, 0)
	err := s.conn(ctx).Find(&ps).Error
	return ps, wrapErr(err)
}

// ---- plans ----

func (s *GormStore) GetPlan(ctx context.Context, id string) (*orm.StoragePlan, error) {
	p := &orm.StoragePlan{}
	err := s.conn(ctx).Where("id = ?", id).First(p).Error
	return p, wrapErr(err)
}

func (s *GormStore) GetPlanByExternalID(
	ctx context.Context,
	providerID, externalPlanID string,
) (*orm.StoragePlan, error) {
	p := &orm.StoragePlan{}
	err := s.conn(ctx).
		Where("provider_id = ? AND external_plan_id = ?", providerID, externalPlanID).
		First(p).
		Error
	return p, wrapErr(err)
}

func (s *GormStore) ListPlansByProvider(ctx context.Context, providerID string) ([]*orm.StoragePlan, error) {
	ps := make([]*orm.StoragePlan, 0)
	err := s.conn(ctx).Where("provider_id = ?", providerID).Find(&ps).Error
	return ps, wrapErr(err)
}

func (s *GormStore) UpsertPlan(ctx context.Context, plan *orm.StoragePlan) error {
	existing, err := s.GetPlanByExternalID(ctx, plan.ProviderID, plan.ExternalPlanID)
	if err == ErrNotFound {
		return wrapErr(s.conn(ctx).Create(plan).Error)
	}
	if err != nil {
		return err
	}

	plan.ID = existing.ID
	plan.Version = existing.Version + 1
	return wrapErr(s.conn(ctx).Model(&orm.StoragePlan{}).
		Where("id = ?", existing.ID).
		Updates(plan).
		Error)
}

func (s *GormStore) MarkPlansUnavailable(
	ctx context.Context,
	providerID string,
	keepExternalIDs []string,
) (int64, error) {
	tx := s.conn(ctx).Model(&orm.StoragePlan{}).
		Where("provider_id = ? AND status = ?", providerID, orm.PlanStatusAvailable)
	if len(keepExternalIDs) > 0 {
		tx = tx.Where("external_plan_id NOT IN ?", keepExternalIDs)
	}

	res := tx.Update("status", orm.PlanStatusUnavailable)
	return res.RowsAffected, wrapErr(res.Error)
}

// ---- orders ----

func (s *GormStore) CreateOrder(ctx context.Context, order *orm.Order) error {
	return wrapErr(s.conn(ctx).Create(order).Error)
}

func (s *GormStore) GetOrder(ctx context.Context, id string) (*orm.Order, error) {
	o := &orm.Order{}
	err := s.conn(ctx).Where("id = ?", id).First(o).Error
	return o, wrapErr(err)
}

func (s *GormStore) GetOrderByIdempotencyKey(ctx context.Context, key string) (*orm.Order, error) {
	o := &orm.Order{}
	err := s.conn(ctx).Where("idempotency_key = ?", key).First(o).Error
	return o, wrapErr(err)
}

func (s *GormStore) GetOrderByNumber(ctx context.Context, orderNumber string) (*orm.Order, error) {
	o := &orm.Order{}
	err := s.conn(ctx).Where("order_number = ?", orderNumber).First(o).Error
	return o, wrapErr(err)
}

func (s *GormStore) UpdateOrderStatus(
	ctx context.Context,
	id string,
	from, next orm.OrderStatus,
	mutate func(*orm.Order),
) error {
	return s.Transaction(ctx, func(tx Store) error {
		gs := tx.(*GormStore)
		o := &orm.Order{}
		if err := gs.conn(ctx).Where("id = ?", id).First(o).Error; err != nil {
			return wrapErr(err)
		}

		if o.Status != from {
			return ErrInvalidOrderStatus(o.Status, from)
		}
		if !from.CanTransition(next) {
			return ErrIllegalOrderTransition(from, next)
		}

		o.Status = next
		if mutate != nil {
			mutate(o)
		}

		return wrapErr(gs.conn(ctx).Save(o).Error)
	})
}

func (s *GormStore) UpdateOrder(ctx context.Context, order *orm.Order) error {
	return wrapErr(s.conn(ctx).Save(order).Error)
}

func (s *GormStore) ListOrdersAwaitingAllocation(ctx context.Context, limit int) ([]*orm.Order, error) {
	os := make([]*orm.Order, 0)
	err := s.conn(ctx).
		Where("status = ?", orm.OrderStatusPaymentCompleted).
		Where("id NOT IN (?)", s.conn(ctx).Model(&orm.BlockchainTransaction{}).
			Select("order_id").
			Where("status <> ?", orm.TransactionStatusFailed),
		).
		Limit(limit).
		Find(&os).
		Error
	return os, wrapErr(err)
}

// ---- payments ----

func (s *GormStore) CreatePayment(ctx context.Context, p *orm.Payment) error {
	return wrapErr(s.conn(ctx).Create(p).Error)
}

func (s *GormStore) GetPayment(ctx context.Context, id string) (*orm.Payment, error) {
	p := &orm.Payment{}
	err := s.conn(ctx).Where("id = ?", id).First(p).Error
	return p, wrapErr(err)
}

func (s *GormStore) GetLivePaymentByOrderID(ctx context.Context, orderID string) (*orm.Payment, error) {
	p := &orm.Payment{}
	err := s.conn(ctx).
		Where("order_id = ? AND status IN ?", orderID, []orm.PaymentStatus{
			orm.PaymentStatusPending,
			orm.PaymentStatusProcessing,
			orm.PaymentStatusSucceeded,
		}).
		Order("created_at desc").
		First(p).
		Error
	return p, wrapErr(err)
}

func (s *GormStore) GetPaymentBySessionID(ctx context.Context, sessionID string) (*orm.Payment, error) {
	p := &orm.Payment{}
	err := s.conn(ctx).Where("processor_session_id = ?", sessionID).First(p).Error
	return p, wrapErr(err)
}

func (s *GormStore) GetPaymentByIntentID(ctx context.Context, intentID string) (*orm.Payment, error) {
	p := &orm.Payment{}
	err := s.conn(ctx).Where("processor_payment_intent_id = ?", intentID).First(p).Error
	return p, wrapErr(err)
}

func (s *GormStore) UpdatePayment(ctx context.Context, p *orm.Payment) error {
	return wrapErr(s.conn(ctx).Save(p).Error)
}

// ---- blockchain transactions ----

func (s *GormStore) CreateBlockchainTransaction(ctx context.Context, t *orm.BlockchainTransaction) error {
	return wrapErr(s.conn(ctx).Create(t).Error)
}

func (s *GormStore) GetBlockchainTransaction(ctx context.Context, id string) (*orm.BlockchainTransaction, error) {
	t := &orm.BlockchainTransaction{}
	err := s.conn(ctx).Where("id = ?", id).First(t).Error
	return t, wrapErr(err)
}

func (s *GormStore) GetLiveTransactionByOrderID(
	ctx context.Context,
	orderID string,
) (*orm.BlockchainTransaction, error) {
	t := &orm.BlockchainTransaction{}
	err := s.conn(ctx).
		Where("order_id = ? AND status <> ?", orderID, orm.TransactionStatusFailed).
		Order("created_at desc").
		First(t).
		Error
	return t, wrapErr(err)
}

func (s *GormStore) UpdateBlockchainTransaction(ctx context.Context, t *orm.BlockchainTransaction) error {
	return wrapErr(s.conn(ctx).Save(t).Error)
}

func (s *GormStore) ListTransactionsByStatus(
	ctx context.Context,
	statuses []orm.TransactionStatus,
	limit int,
) ([]*orm.BlockchainTransaction, error) {
	ts := make([]*orm.BlockchainTransaction, 0)
	err := s.conn(ctx).Where("status IN ?", statuses).Limit(limit).Find(&ts).Error
	return ts, wrapErr(err)
}

// ---- provider sync logs ----

func (s *GormStore) CreateProviderSyncLog(ctx context.Context, l *orm.ProviderSyncLog) error {
	return wrapErr(s.conn(ctx).Create(l).Error)
}

func (s *GormStore) FinishProviderSyncLog(ctx context.Context, l *orm.ProviderSyncLog) error {
	now := time.Now().UTC()
	l.FinishedAt = &now
	return wrapErr(s.conn(ctx).Save(l).Error)
}

// ---- system config ----

func (s *GormStore) GetSystemConfig(ctx context.Context, key string) (*orm.SystemConfig, error) {
	c := &orm.SystemConfig{}
	err := s.conn(ctx).Where("config_key = ?", key).First(c).Error
	return c, wrapErr(err)
}
