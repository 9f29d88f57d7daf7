package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/auth/domain"
	"github.com/smallbiznis/autoparts/internal/auth/password"
	"github.com/smallbiznis/autoparts/internal/authctx"
	"github.com/smallbiznis/autoparts/internal/clock"
	"github.com/smallbiznis/autoparts/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	defaultSessionTTL = 7 * 24 * time.Hour
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
	GenID       *snowflake.Node
	Clock       clock.Clock
	Config      config.Config
}

type Service struct {
	log         *zap.Logger
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	genID       *snowflake.Node
	clock       clock.Clock
	sessionTTL  time.Duration
}

func New(p Params) domain.Service {
	ttl := time.Duration(p.Config.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Service{
		log:         p.Log.Named("auth.service"),
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
		genID:       p.GenID,
		clock:       p.Clock,
		sessionTTL:  ttl,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}

	var hashed *string
	if req.Password != "" {
		if len(strings.TrimSpace(req.Password)) < password.MinLength {
			return nil, domain.ErrWeakPassword
		}
		encoded, err := password.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		hashed = &encoded
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultDisplayName(email)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate().Int64(),
		Email:        email,
		Name:         name,
		IsAdmin:      req.IsAdmin,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.Int64("user_id", user.ID), zap.Bool("is_admin", user.IsAdmin))
	return user, nil
}

func (s *Service) EnsureUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return s.CreateUser(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.IsAdmin && !user.IsAdmin {
		fields["is_admin"] = true
	}
	if user.PasswordHash == nil && req.Password != "" {
		if len(strings.TrimSpace(req.Password)) < password.MinLength {
			return nil, domain.ErrWeakPassword
		}
		encoded, err := password.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = encoded
	}
	if len(fields) == 0 {
		return user, nil
	}

	fields["updated_at"] = s.clock.Now()
	if err := s.repo.UpdateFields(ctx, user.ID, fields); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, user.ID)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		s.log.Info("login rejected", zap.Int64("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:               s.genID.Generate().Int64(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(s.sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		User:      toResponse(user),
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}
	if session.RevokedAt != nil {
		return nil
	}
	return s.sessionRepo.RevokeSession(ctx, session.ID, s.clock.Now())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, *domain.User, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil, domain.ErrInvalidSession
		}
		return nil, nil, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, nil, domain.ErrSessionExpired
	}

	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidSession
		}
		return nil, nil, err
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, nil, err
	}
	session.LastSeenAt = now
	return session, user, nil
}

func (s *Service) CurrentUser(ctx context.Context) (*domain.UserResponse, error) {
	userID, err := authctx.UserIDFromContext(ctx)
	if err != nil {
		return nil, domain.ErrInvalidSession
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(user)
	return &resp, nil
}

func (s *Service) FindUsers(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
	return s.repo.FindByIDs(ctx, ids)
}

func toResponse(u *domain.User) domain.UserResponse {
	return domain.UserResponse{
		ID:      snowflake.ID(u.ID).String(),
		Email:   u.Email,
		Name:    u.Name,
		Picture: u.Picture,
		IsAdmin: u.IsAdmin,
	}
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func defaultDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if strings.TrimSpace(local) != "" {
		return local
	}
	return email
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

var _ domain.Service = (*Service)(nil)
