package domain

type IssueTokenResponse struct {
	UserID    string `json:"user_id"`
	AuthToken string `json:"auth_token"`
}
