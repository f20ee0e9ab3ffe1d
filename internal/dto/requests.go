package dto

// Суммы принимаются строкой ("150", "150.50 TMT") и разбираются
// valueobject.ParseAmount, чтобы не терять точность на float.

type CreateOrderRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Budget      string `json:"budget" binding:"required"`
}

type RespondToOrderRequest struct {
	Message string `json:"message"`
}

type SelectFreelancerRequest struct {
	FreelancerID int64 `json:"freelancer_id" binding:"required"`
}

type WithdrawalRequest struct {
	Amount string `json:"amount" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
}

type TopupRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type ResolveRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
}

type AddReviewRequest struct {
	OrderID    int64  `json:"order_id" binding:"required"`
	ReviewedID int64  `json:"reviewed_id" binding:"required"`
	Rating     int    `json:"rating" binding:"required"`
	Comment    string `json:"comment"`
}

type CreateServiceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price" binding:"required"`
}

type AdminLoginRequest struct {
	AdminID  int64  `json:"admin_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}
