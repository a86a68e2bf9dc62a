package dto

type IssueTokenRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
}
