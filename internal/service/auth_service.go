package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Bandi-Aditya/OfflineExam/internal/config"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("otp invalid or expired")
)

// TokenType distinguishes student vs admin tokens.
type TokenType string

const (
	TokenTypeStudent TokenType = "student"
	TokenTypeAdmin   TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    int       `json:"user_id"`
}

// AuthService handles authentication, JWT issuance and the OTP store.
// One-time passwords live in Redis with a TTL, never in process memory,
// so any server instance can verify an OTP issued by another.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
	log zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg: cfg,
		rdb: rdb,
		log: log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken creates a signed JWT for the given identity.
func (s *AuthService) GenerateToken(userID int, tokenType TokenType) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: tokenType,
		UserID:    userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// IssueOTP generates a 6-digit one-time password for a student and stores
// it in Redis under a TTL. Returns the OTP so the caller can hand it to a
// delivery collaborator — this service never sends mail itself.
func (s *AuthService) IssueOTP(ctx context.Context, studentID int) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	otp := strconv.FormatInt(n.Int64()+100000, 10)

	key := config.CacheKey.StudentOTPKey(studentID)
	if err := s.rdb.Set(ctx, key, otp, s.cfg.OTPTTL).Err(); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	s.log.Info().Int("student_id", studentID).Msg("OTP issued")
	return otp, nil
}

// VerifyOTP checks a presented OTP. The stored value is consumed on the
// first attempt, right or wrong, so an issued OTP gets exactly one
// verification and can never authenticate twice.
func (s *AuthService) VerifyOTP(ctx context.Context, studentID int, otp string) error {
	key := config.CacheKey.StudentOTPKey(studentID)

	stored, err := s.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("fetch otp: %w", err)
	}

	if stored != otp {
		return ErrInvalidOTP
	}
	return nil
}

// RegisterLogin records the student's active JWT ID in Redis with the same
// expiry as the token. Purely informational for admins; logins are not
// blocked on it.
func (s *AuthService) RegisterLogin(ctx context.Context, studentID int, jti string) {
	key := config.CacheKey.StudentLoginKey(studentID)
	if err := s.rdb.Set(ctx, key, jti, s.cfg.JWTExpiry).Err(); err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Failed to register login session")
	}
}
