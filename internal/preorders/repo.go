package preorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	"github.com/angelmondragon/materialhub-backend/pkg/pagination"
)

// Repository persists pre-order requests. Every mutation is conditional and reports the rows it touched.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, preorder *models.PreOrderRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PreOrderRequest, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*models.PreOrderRequest, error)
	UpdateIfStatus(ctx context.Context, id uuid.UUID, from []enums.PreOrderStatus, unpaid bool, updates map[string]any) (int64, error)
	DeleteIfStatus(ctx context.Context, id, sellerID uuid.UUID, from []enums.PreOrderStatus) (int64, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	ListByStatus(ctx context.Context, status enums.PreOrderStatus, cursor *pagination.Cursor, limit int) ([]models.PreOrderRequest, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.PreOrderRequest, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, preorder *models.PreOrderRequest) error {
	return r.db.WithContext(ctx).Create(preorder).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PreOrderRequest, error) {
	var preorder models.PreOrderRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&preorder).Error; err != nil {
		return nil, err
	}
	return &preorder, nil
}

func (r *repository) FindByPaymentIntent(ctx context.Context, intentID string) (*models.PreOrderRequest, error) {
	var preorder models.PreOrderRequest
	if err := r.db.WithContext(ctx).Where("payment_intent_id = ?", intentID).First(&preorder).Error; err != nil {
		return nil, err
	}
	return &preorder, nil
}

// UpdateIfStatus applies updates only while the row is in one of from. A zero count means another writer won.
func (r *repository) UpdateIfStatus(ctx context.Context, id uuid.UUID, from []enums.PreOrderStatus, unpaid bool, updates map[string]any) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PreOrderRequest{}).
		Where("id = ?", id).
		Where("status IN ?", from)
	if unpaid {
		query = query.Where("paid = ?", false)
	}
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteIfStatus(ctx context.Context, id, sellerID uuid.UUID, from []enums.PreOrderStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND seller_id = ?", id, sellerID).
		Where("status IN ?", from).
		Where("paid = ?", false).
		Delete(&models.PreOrderRequest{})
	return result.RowsAffected, result.Error
}

// MarkOverdue flips accepted pay_later requests past their due date. Rows already overdue are not matched, so reruns change nothing.
func (r *repository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PreOrderRequest{}).
		Where("status = ?", enums.PreOrderStatusAccepted).
		Where("payment_option = ?", enums.PaymentOptionPayLater).
		Where("paid = ?", false).
		Where("payment_due_date IS NOT NULL AND payment_due_date < ?", now).
		Updates(map[string]any{
			"status":     enums.PreOrderStatusOverdue,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) ListByStatus(ctx context.Context, status enums.PreOrderStatus, cursor *pagination.Cursor, limit int) ([]models.PreOrderRequest, error) {
	var rows []models.PreOrderRequest
	query := r.db.WithContext(ctx).Model(&models.PreOrderRequest{}).Where("status = ?", status)
	err := pagination.Apply(query, cursor, limit).Find(&rows).Error
	return rows, err
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.PreOrderRequest, error) {
	var rows []models.PreOrderRequest
	query := r.db.WithContext(ctx).Model(&models.PreOrderRequest{}).Where("seller_id = ?", sellerID)
	err := pagination.Apply(query, cursor, limit).Find(&rows).Error
	return rows, err
}
