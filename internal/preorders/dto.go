package preorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
)

// SubmitInput is a seller's new material request.
type SubmitInput struct {
	MaterialName          string
	Quantity              string
	ContactEmail          string
	ContactPhone          string
	PreferredDeliveryDate time.Time
	PaymentOption         enums.PaymentOption
}

// DecideInput carries a supplier's accept or reject. Price is the raw quoted amount.
type DecideInput struct {
	PreOrderID    uuid.UUID
	SupplierID    uuid.UUID
	Decision      enums.PreOrderDecision
	Price         *string
	SupplierNotes *string
}

// PayInput is a direct payment by the owning seller.
type PayInput struct {
	PreOrderID      uuid.UUID
	SellerID        uuid.UUID
	PaymentIntentID *string
}

// ListResult is one page of requests plus the cursor of the next page.
type ListResult struct {
	Items  []PreOrderDTO `json:"items"`
	Cursor string        `json:"cursor"`
}

// PreOrderDTO is the API shape of a request.
type PreOrderDTO struct {
	ID                    uuid.UUID                    `json:"id"`
	SellerID              uuid.UUID                    `json:"sellerId"`
	SupplierID            *uuid.UUID                   `json:"supplierId,omitempty"`
	MaterialName          string                       `json:"materialName"`
	Quantity              string                       `json:"quantity"`
	ContactEmail          string                       `json:"email"`
	ContactPhone          string                       `json:"contact"`
	PreferredDeliveryDate time.Time                    `json:"preferredDate"`
	PaymentOption         enums.PaymentOption          `json:"paymentOption"`
	SupplierNotes         *string                      `json:"supplierNotes,omitempty"`
	SupplierResponse      *SupplierResponseDTO         `json:"supplierResponse,omitempty"`
	PaymentDueDate        *time.Time                   `json:"paymentDueDate,omitempty"`
	Paid                  bool                         `json:"paid"`
	PaymentDate           *time.Time                   `json:"paymentDate,omitempty"`
	DeliveryStatus        enums.PreOrderDeliveryStatus `json:"deliveryStatus"`
	Status                enums.PreOrderStatus         `json:"status"`
	CreatedAt             time.Time                    `json:"createdAt"`
	UpdatedAt             time.Time                    `json:"updatedAt"`
}

type SupplierResponseDTO struct {
	Accepted    bool             `json:"accepted"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	RespondedAt *time.Time       `json:"respondedAt,omitempty"`
}

// FromModel maps a stored request into its API shape. The payment intent id stays server-side.
func FromModel(m *models.PreOrderRequest) *PreOrderDTO {
	if m == nil {
		return nil
	}
	dto := &PreOrderDTO{
		ID:                    m.ID,
		SellerID:              m.SellerID,
		SupplierID:            m.SupplierID,
		MaterialName:          m.MaterialName,
		Quantity:              m.Quantity,
		ContactEmail:          m.ContactEmail,
		ContactPhone:          m.ContactPhone,
		PreferredDeliveryDate: m.PreferredDeliveryDate,
		PaymentOption:         m.PaymentOption,
		SupplierNotes:         m.SupplierNotes,
		PaymentDueDate:        m.PaymentDueDate,
		Paid:                  m.Paid,
		PaymentDate:           m.PaymentDate,
		DeliveryStatus:        m.DeliveryStatus,
		Status:                m.Status,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
	if m.Response.Accepted != nil {
		dto.SupplierResponse = &SupplierResponseDTO{
			Accepted:    *m.Response.Accepted,
			Price:       m.Response.Price,
			RespondedAt: m.Response.RespondedAt,
		}
	}
	return dto
}

// PaymentState is what the payment bridge needs to know about a request.
type PaymentState struct {
	PreOrderID      uuid.UUID
	SellerID        uuid.UUID
	SupplierID      *uuid.UUID
	Status          enums.PreOrderStatus
	Amount          decimal.Decimal
	Paid            bool
	PaymentIntentID *string
}
