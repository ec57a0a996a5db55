package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
	"shortmark/internal/dto"
	"shortmark/internal/mailer"
	"shortmark/internal/model"
	"shortmark/internal/repository"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt 只使用前 72 字节
	mailTimeout       = 30 * time.Second
)

type UserDeps struct {
	Users   UserStore
	Tokens  *auth.TokenIssuer
	Mailer  mailer.Mailer
	Logger  *zap.Logger
	BaseURL string
	// IsAdminEmail 注册时判断是否授予管理员
	IsAdminEmail func(email string) bool
}

type UserService struct {
	users        UserStore
	tokens       *auth.TokenIssuer
	mailer       mailer.Mailer
	logger       *zap.Logger
	baseURL      string
	isAdminEmail func(string) bool
	validate     *validator.Validate
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

func NewUserService(deps UserDeps) *UserService {
	s := &UserService{
		users:        deps.Users,
		tokens:       deps.Tokens,
		mailer:       deps.Mailer,
		logger:       deps.Logger,
		baseURL:      strings.TrimRight(deps.BaseURL, "/"),
		isAdminEmail: deps.IsAdminEmail,
		validate:     validator.New(),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.mailer == nil {
		s.mailer = mailer.NewLogMailer(s.logger)
	}
	if s.isAdminEmail == nil {
		s.isAdminEmail = func(string) bool { return false }
	}
	return s
}

// Register 注册新用户并异步发送验证邮件
func (s *UserService) Register(ctx context.Context, req dto.RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		return nil, apperrors.InvalidRequestError(apperrors.MsgEmailInvalid)
	}
	if len(req.Password) < minPasswordLength || len(req.Password) > maxPasswordLength {
		return nil, apperrors.InvalidRequestError(apperrors.MsgPasswordInvalid)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict(apperrors.MsgEmailTaken)
	} else if missing, appErr := lookupError(err); !missing {
		return nil, appErr
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	user := &model.User{
		Email:             email,
		Name:              strings.TrimSpace(req.Name),
		PasswordHash:      hash,
		IsAdmin:           s.isAdminEmail(email),
		VerificationToken: newVerificationToken(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.Conflict(apperrors.MsgEmailTaken)
		}
		s.logger.Error("Failed to create user", zap.String("email", email), zap.Error(err))
		return nil, apperrors.SystemError(err)
	}

	s.logger.Info("User registered",
		zap.String("id", user.ID),
		zap.String("email", email),
		zap.Bool("admin", user.IsAdmin))
	s.sendVerification(user.Email, user.VerificationToken)
	return user, nil
}

// Login 邮箱或密码错误统一返回 InvalidCredentials
func (s *UserService) Login(ctx context.Context, req dto.LoginRequest) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return nil, appErr
		}
		return nil, apperrors.InvalidCredentials()
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	if !ok {
		s.logger.Warn("Login failed", zap.String("user_id", user.ID))
		return nil, apperrors.InvalidCredentials()
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.SystemError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// VerifyEmail 校验邮箱验证令牌，令牌只能使用一次
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return nil, appErr
		}
		return nil, apperrors.InvalidRequestError(apperrors.MsgVerificationToken)
	}

	if err := s.users.Update(ctx, user, map[string]interface{}{
		"is_verified":        true,
		"verification_token": "",
	}); err != nil {
		return nil, apperrors.SystemError(err)
	}
	user.IsVerified = true
	user.VerificationToken = ""
	s.logger.Info("Email verified", zap.String("user_id", user.ID))
	return user, nil
}

// ResendVerification 重新生成令牌并发送；已验证的用户直接返回
func (s *UserService) ResendVerification(ctx context.Context, p auth.Principal) error {
	user, err := s.Me(ctx, p)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil
	}

	token := newVerificationToken()
	if err := s.users.Update(ctx, user, map[string]interface{}{"verification_token": token}); err != nil {
		return apperrors.SystemError(err)
	}
	s.sendVerification(user.Email, token)
	return nil
}

// Me 当前登录用户
func (s *UserService) Me(ctx context.Context, p auth.Principal) (*model.User, error) {
	if !p.IsRegistered() {
		return nil, apperrors.NotRegistered()
	}
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return nil, appErr
		}
		return nil, apperrors.NotFound(apperrors.MsgUserNotFound)
	}
	return user, nil
}

// Authenticate 解析 Bearer token 并加载最新的管理员/验证状态
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Anonymous, apperrors.NotRegistered()
	}
	return s.Principal(ctx, userID)
}

func (s *UserService) Principal(ctx context.Context, userID string) (auth.Principal, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if missing, appErr := lookupError(err); !missing {
			return auth.Anonymous, appErr
		}
		return auth.Anonymous, apperrors.NotRegistered()
	}
	return auth.Principal{
		UserID:     user.ID,
		IsAdmin:    user.IsAdmin,
		IsVerified: user.IsVerified,
	}, nil
}

func (s *UserService) sendVerification(email, token string) {
	link := s.baseURL + "/api/auth/verify?token=" + url.QueryEscape(token)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mailer.SendVerification(ctx, email, link); err != nil {
			s.logger.Warn("Failed to send verification email", zap.String("email", email), zap.Error(err))
		}
	}()
}

func newVerificationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
