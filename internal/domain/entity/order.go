package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// Order - заказ и его конечный автомат. Методы перехода только проверяют
// допустимость и меняют поля заказа; движение денег выполняет сервис
// в той же транзакции.
type Order struct {
	ID                   int64
	Kind                 valueobject.OrderKind
	ClientID             int64
	Title                string
	Description          string
	Budget               decimal.Decimal
	ServiceID            *int64
	Status               valueobject.OrderStatus
	SelectedFreelancerID *int64
	ClientConfirmed      bool
	FreelancerConfirmed  bool
	ConfirmedByAdmin     bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CompletedAt          *time.Time
	CancelledAt          *time.Time
}

func NewOrder(clientID int64, title, description string, budget decimal.Decimal) (*Order, error) {
	title, err := validation.RequiredText("название заказа", title, validation.MaxOrderTitleLength)
	if err != nil {
		return nil, err
	}
	description, err = validation.OptionalText("описание заказа", description, validation.MaxOrderDescriptionLength)
	if err != nil {
		return nil, err
	}
	if err := valueobject.RequirePositive(budget); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Order{
		Kind:        valueobject.OrderKindStandard,
		ClientID:    clientID,
		Title:       title,
		Description: description,
		Budget:      budget,
		Status:      valueobject.OrderStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewServiceOrder создаёт заказ готовой услуги: исполнитель известен сразу,
// заказ стартует в статусе in_progress и ждёт подтверждения администратора.
func NewServiceOrder(clientID int64, listing *ServiceListing) (*Order, error) {
	if listing.FreelancerID == clientID {
		return nil, apperror.ErrSelfResponseForbidden
	}
	if err := valueobject.RequirePositive(listing.Price); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	serviceID := listing.ID
	freelancerID := listing.FreelancerID
	return &Order{
		Kind:                 valueobject.OrderKindService,
		ClientID:             clientID,
		Title:                listing.Title,
		Description:          listing.Description,
		Budget:               listing.Price,
		ServiceID:            &serviceID,
		Status:               valueobject.OrderStatusInProgress,
		SelectedFreelancerID: &freelancerID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func (o *Order) IsOwnedBy(userID int64) bool {
	return o.ClientID == userID
}

func (o *Order) IsParticipant(userID int64) bool {
	if o.ClientID == userID {
		return true
	}
	return o.SelectedFreelancerID != nil && *o.SelectedFreelancerID == userID
}

// FreelancerID возвращает выбранного исполнителя или 0.
func (o *Order) FreelancerID() int64 {
	if o.SelectedFreelancerID == nil {
		return 0
	}
	return *o.SelectedFreelancerID
}

// CheckRespond проверяет, может ли фрилансер откликнуться на заказ.
func (o *Order) CheckRespond(freelancerID int64) error {
	if o.Status != valueobject.OrderStatusActive {
		return apperror.ErrOrderNotActive
	}
	if o.ClientID == freelancerID {
		return apperror.ErrSelfResponseForbidden
	}
	return nil
}

// CheckSelect проверяет выбор исполнителя без изменения заказа.
func (o *Order) CheckSelect(callerID int64) error {
	if !o.Status.CanTransitionTo(valueobject.OrderStatusInProgress) {
		return apperror.ErrOrderNotActive
	}
	if o.ClientID != callerID {
		return apperror.ErrNotOrderOwner
	}
	return nil
}

// Select переводит заказ в работу с выбранным исполнителем и сбрасывает подтверждения.
func (o *Order) Select(callerID, freelancerID int64) error {
	if err := o.CheckSelect(callerID); err != nil {
		return err
	}
	if freelancerID == o.ClientID {
		return apperror.ErrSelfResponseForbidden
	}
	o.Status = valueobject.OrderStatusInProgress
	o.SelectedFreelancerID = &freelancerID
	o.ClientConfirmed = false
	o.FreelancerConfirmed = false
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// HasConfirmed сообщает, подтвердил ли участник выполнение.
func (o *Order) HasConfirmed(userID int64) bool {
	switch userID {
	case o.ClientID:
		return o.ClientConfirmed
	case o.FreelancerID():
		return o.FreelancerConfirmed
	}
	return false
}

// Confirm отмечает подтверждение участника. Возвращает true, когда подтвердили
// обе стороны и заказ перешёл в completed. Повторное подтверждение ничего не меняет.
func (o *Order) Confirm(callerID int64) (bool, error) {
	if !o.IsParticipant(callerID) {
		return false, apperror.ErrNotParticipant
	}
	if !o.Status.CanTransitionTo(valueobject.OrderStatusCompleted) {
		return false, apperror.ErrOrderNotInProgress
	}
	if o.Kind == valueobject.OrderKindService && !o.ConfirmedByAdmin {
		return false, apperror.ErrOrderAwaitingAdmin
	}
	if o.HasConfirmed(callerID) {
		return false, nil
	}

	if callerID == o.ClientID {
		o.ClientConfirmed = true
	} else {
		o.FreelancerConfirmed = true
	}
	now := time.Now().UTC()
	o.UpdatedAt = now

	if !o.ClientConfirmed || !o.FreelancerConfirmed {
		return false, nil
	}
	o.Status = valueobject.OrderStatusCompleted
	o.CompletedAt = &now
	return true, nil
}

func (o *Order) checkAdminDecision() error {
	if o.Kind != valueobject.OrderKindService {
		return apperror.ErrNotServiceOrder
	}
	if !o.Status.CanTransitionTo(valueobject.OrderStatusCancelled) {
		return apperror.ErrOrderNotInProgress
	}
	if o.ConfirmedByAdmin {
		return apperror.ErrOrderAlreadyConfirmed
	}
	return nil
}

// AdminConfirm разрешает начать работу по заказу услуги.
func (o *Order) AdminConfirm() error {
	if err := o.checkAdminDecision(); err != nil {
		return err
	}
	o.ConfirmedByAdmin = true
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// AdminReject отменяет заказ услуги до начала работы.
func (o *Order) AdminReject() error {
	if err := o.checkAdminDecision(); err != nil {
		return err
	}
	now := time.Now().UTC()
	o.Status = valueobject.OrderStatusCancelled
	o.CancelledAt = &now
	o.UpdatedAt = now
	return nil
}
