package auth

import (
	"fmt"
	"strings"

	"github.com/ougirez/shoplist/internal/domain"
	"github.com/ougirez/shoplist/internal/pkg/constants"
	"github.com/ougirez/shoplist/internal/pkg/utils"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Authenticate turns a signed auth token into the credentials forwarded to
// every collaborator call.
func (svc *Service) Authenticate(token string) (domain.Credentials, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Credentials{}, constants.ErrMissingAuthCookie
	}

	wrapper, err := utils.ParseAuthToken(token)
	if err != nil {
		return domain.Credentials{}, err
	}
	if wrapper.UserID == "" {
		return domain.Credentials{}, fmt.Errorf("%w: token without user", constants.ErrUnauthorized)
	}

	return domain.Credentials{UserID: wrapper.UserID, Token: token}, nil
}

func (svc *Service) IssueToken(userID string) (*domain.IssueTokenResponse, error) {
	authToken, err := utils.GenerateAuthToken(&utils.AuthTokenWrapper{UserID: userID})
	if err != nil {
		return nil, err
	}

	return &domain.IssueTokenResponse{UserID: userID, AuthToken: authToken}, nil
}
