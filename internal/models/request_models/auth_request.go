package request_models

type RegisterRequest struct {
	OrganizationCode string `json:"organization_code" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	FullName         string `json:"full_name" binding:"required"`
	Password         string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
