package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fieldtrack/tracker-go/internal/config"
	"github.com/fieldtrack/tracker-go/internal/model"
	"github.com/fieldtrack/tracker-go/internal/repository"
	"github.com/fieldtrack/tracker-go/internal/util"
)

// CreateAccountResult carries the one-time plaintext token; only its hash
// is stored.
type CreateAccountResult struct {
	Account *model.Account `json:"account"`
	Token   string         `json:"token"`
}

type AccountService struct {
	accountRepo repository.AccountRepository
}

func NewAccountService(accountRepo repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

func (s *AccountService) Create(ctx context.Context, name, password string) (*CreateAccountResult, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	var passwordHash *string
	if password != "" {
		hash, err := util.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = &hash
	}

	account, err := s.accountRepo.Create(ctx, model.CreateAccountParams{
		Name:            name,
		TokenHash:       util.HashToken(token),
		PasswordHash:    passwordHash,
		RateLimitPerMin: config.DefaultRateLimitPerMin,
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	log.Info().Str("accountId", account.ID).Msg("account created")

	return &CreateAccountResult{Account: account, Token: token}, nil
}

// RegenerateToken replaces the account's bearer token after verifying the
// account password.
func (s *AccountService) RegenerateToken(ctx context.Context, accountID, password string) (*CreateAccountResult, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil || account.PasswordHash == nil || !util.CheckPasswordHash(password, *account.PasswordHash) {
		return nil, fmt.Errorf("password verification failed")
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	updated, err := s.accountRepo.UpdateToken(ctx, accountID, util.HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("update token: %w", err)
	}

	log.Info().Str("accountId", accountID).Msg("account token regenerated")

	return &CreateAccountResult{Account: updated, Token: token}, nil
}
