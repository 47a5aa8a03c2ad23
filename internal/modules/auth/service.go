package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic/internal/domain"
	"clinic/internal/tenant"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type jwtService interface {
	GenerateToken(tokenID, userID, orgID string) (string, error)
}

// Service contains the session lifecycle: login issues a ledger entry and signs
// it, logout revokes it.
type Service struct {
	users   UserRepositoryInterface
	members MembershipRepositoryInterface
	ledger  SessionLedger
	jwt     jwtService
	log     *zap.Logger
}

type LoginResult struct {
	User        *domain.User
	AccessToken string
	TokenID     string
	// OrgID is the organization bound into the token, zero when none was.
	OrgID tenant.OrgID
}

func NewService(
	users UserRepositoryInterface,
	members MembershipRepositoryInterface,
	ledger SessionLedger,
	jwt jwtService,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:   users,
		members: members,
		ledger:  ledger,
		jwt:     jwt,
		log:     log,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	orgID, err := s.selectOrg(ctx, user.ID, req.OrgID)
	if err != nil {
		return nil, err
	}

	tokenID, err := s.ledger.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwt.GenerateToken(tokenID, user.ID, orgID.String())
	if err != nil {
		// The entry was never handed out; retire it so it cannot be matched later.
		if revokeErr := s.ledger.Revoke(ctx, tokenID); revokeErr != nil {
			s.log.Warn("revoke unsigned session", zap.String("token_id", tokenID), zap.Error(revokeErr))
		}
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	s.log.Info("session issued",
		zap.String("user_id", user.ID),
		zap.String("token_id", tokenID),
		zap.String("org_id", orgID.String()),
	)

	user.PasswordHash = ""
	return &LoginResult{
		User:        user,
		AccessToken: accessToken,
		TokenID:     tokenID,
		OrgID:       orgID,
	}, nil
}

// selectOrg picks the organization claim for a new token: the requested one if
// the user belongs to it, otherwise the only membership when there is exactly one.
func (s *Service) selectOrg(ctx context.Context, userID, requested string) (tenant.OrgID, error) {
	if strings.TrimSpace(requested) != "" {
		orgID, err := tenant.ParseOrgID(requested)
		if err != nil {
			return tenant.OrgID{}, err
		}
		m, err := s.members.GetByUserAndOrg(ctx, userID, orgID)
		if err != nil {
			return tenant.OrgID{}, err
		}
		if m == nil {
			return tenant.OrgID{}, ErrNotMember
		}
		return orgID, nil
	}

	memberships, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return tenant.OrgID{}, err
	}
	if len(memberships) == 1 {
		return memberships[0].OrgID, nil
	}
	return tenant.OrgID{}, nil
}

// Logout revokes the presented session. Revoking an already revoked session is
// not an error.
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	if err := s.ledger.Revoke(ctx, tokenID); err != nil {
		return err
	}
	s.log.Info("session revoked", zap.String("token_id", tokenID))
	return nil
}

// LogoutAll revokes every active session of userID and returns how many were revoked.
func (s *Service) LogoutAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.ledger.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.Info("sessions revoked", zap.String("user_id", userID), zap.Int64("count", n))
	return n, nil
}

func (s *Service) GetSession(ctx context.Context, userID, tokenID string) (*SessionResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &SessionResponse{
		User:        UserPublic{ID: user.ID, Name: user.Name, Email: user.Email},
		TokenID:     tokenID,
		Memberships: make([]MembershipPublic, 0, len(memberships)),
	}
	for _, m := range memberships {
		resp.Memberships = append(resp.Memberships, MembershipPublic{OrgID: m.OrgID.String(), Role: string(m.Role)})
	}
	return resp, nil
}
