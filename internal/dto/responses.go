package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
)

const amountScale = 2

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type AccountResponse struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	Available string    `json:"available_balance"`
	Frozen    string    `json:"frozen_balance"`
	CreatedAt time.Time `json:"created_at"`
}

func NewAccountResponse(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Role:      string(a.Role),
		Username:  a.Username,
		FirstName: a.FirstName,
		Available: a.Available.StringFixed(amountScale),
		Frozen:    a.Frozen.StringFixed(amountScale),
		CreatedAt: a.CreatedAt,
	}
}

type OrderResponse struct {
	ID                   int64      `json:"id"`
	Kind                 string     `json:"kind"`
	ClientID             int64      `json:"client_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Budget               string     `json:"budget"`
	ServiceID            *int64     `json:"service_id,omitempty"`
	Status               string     `json:"status"`
	SelectedFreelancerID *int64     `json:"selected_freelancer_id,omitempty"`
	ClientConfirmed      bool       `json:"client_confirmed"`
	FreelancerConfirmed  bool       `json:"freelancer_confirmed"`
	ConfirmedByAdmin     bool       `json:"confirmed_by_admin"`
	CreatedAt            time.Time  `json:"created_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
}

func NewOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:                   o.ID,
		Kind:                 string(o.Kind),
		ClientID:             o.ClientID,
		Title:                o.Title,
		Description:          o.Description,
		Budget:               o.Budget.StringFixed(amountScale),
		ServiceID:            o.ServiceID,
		Status:               string(o.Status),
		SelectedFreelancerID: o.SelectedFreelancerID,
		ClientConfirmed:      o.ClientConfirmed,
		FreelancerConfirmed:  o.FreelancerConfirmed,
		ConfirmedByAdmin:     o.ConfirmedByAdmin,
		CreatedAt:            o.CreatedAt,
		CompletedAt:          o.CompletedAt,
		CancelledAt:          o.CancelledAt,
	}
}

func NewOrderList(orders []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

// OrderResponseItem - отклик фрилансера на заказ.
type OrderResponseItem struct {
	OrderID      int64     `json:"order_id"`
	FreelancerID int64     `json:"freelancer_id"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewOrderResponseItem(r *entity.Response) OrderResponseItem {
	return OrderResponseItem{
		OrderID:      r.OrderID,
		FreelancerID: r.FreelancerID,
		Message:      r.Message,
		CreatedAt:    r.CreatedAt,
	}
}

func NewOrderResponseItems(responses []*entity.Response) []OrderResponseItem {
	out := make([]OrderResponseItem, 0, len(responses))
	for _, r := range responses {
		out = append(out, NewOrderResponseItem(r))
	}
	return out
}

type EscrowRequestResponse struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Type          string     `json:"type"`
	Amount        string     `json:"amount"`
	Phone         string     `json:"phone,omitempty"`
	Status        string     `json:"status"`
	BalanceBefore string     `json:"balance_before"`
	Commission    string     `json:"commission"`
	Payout        string     `json:"payout"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy    *int64     `json:"resolved_by,omitempty"`
}

func NewEscrowRequestResponse(r *entity.EscrowRequest) EscrowRequestResponse {
	return EscrowRequestResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		Type:          string(r.Type),
		Amount:        r.Amount.StringFixed(amountScale),
		Phone:         r.Phone,
		Status:        string(r.Status),
		BalanceBefore: r.BalanceBefore.StringFixed(amountScale),
		Commission:    r.Commission.StringFixed(amountScale),
		Payout:        r.Payout.StringFixed(amountScale),
		CreatedAt:     r.CreatedAt,
		ResolvedAt:    r.ResolvedAt,
		ResolvedBy:    r.ResolvedBy,
	}
}

func NewEscrowRequestList(requests []*entity.EscrowRequest) []EscrowRequestResponse {
	out := make([]EscrowRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, NewEscrowRequestResponse(r))
	}
	return out
}

type ReviewResponse struct {
	OrderID    int64     `json:"order_id"`
	ReviewerID int64     `json:"reviewer_id"`
	ReviewedID int64     `json:"reviewed_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewReviewResponse(r *entity.Review) ReviewResponse {
	return ReviewResponse{
		OrderID:    r.OrderID,
		ReviewerID: r.ReviewerID,
		ReviewedID: r.ReviewedID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

func NewReviewList(reviews []*entity.Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, NewReviewResponse(r))
	}
	return out
}

type RatingResponse struct {
	UserID  int64   `json:"user_id"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type ServiceResponse struct {
	ID           int64     `json:"id"`
	FreelancerID int64     `json:"freelancer_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	Price        string    `json:"price"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewServiceResponse(s *entity.ServiceListing) ServiceResponse {
	return ServiceResponse{
		ID:           s.ID,
		FreelancerID: s.FreelancerID,
		Title:        s.Title,
		Description:  s.Description,
		Category:     s.Category,
		Price:        s.Price.StringFixed(amountScale),
		CreatedAt:    s.CreatedAt,
	}
}

func NewServiceList(listings []*entity.ServiceListing) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(listings))
	for _, s := range listings {
		out = append(out, NewServiceResponse(s))
	}
	return out
}

type TransactionResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	OrderID   *int64    `json:"order_id,omitempty"`
	RequestID *int64    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTransactionList(txs []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionResponse{
			ID:        tx.ID,
			Type:      string(tx.Type),
			Amount:    tx.Amount.StringFixed(amountScale),
			OrderID:   tx.OrderID,
			RequestID: tx.RequestID,
			CreatedAt: tx.CreatedAt,
		})
	}
	return out
}

// ActionResponse - результат изменяющей операции вместе с порождёнными событиями.
type ActionResponse struct {
	Data   interface{} `json:"data"`
	Events interface{} `json:"events,omitempty"`
}
