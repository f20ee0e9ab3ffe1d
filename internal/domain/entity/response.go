package entity

import (
	"strings"
	"time"
)

// Response - отклик фрилансера на заказ. Неизменяем после создания.
type Response struct {
	OrderID      int64
	FreelancerID int64
	Message      string
	CreatedAt    time.Time
}

func NewResponse(orderID, freelancerID int64, message string) *Response {
	return &Response{
		OrderID:      orderID,
		FreelancerID: freelancerID,
		Message:      strings.TrimSpace(message),
		CreatedAt:    time.Now().UTC(),
	}
}
