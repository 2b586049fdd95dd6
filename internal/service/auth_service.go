package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"quarry/internal/mailer"
	"quarry/internal/middleware"
	"quarry/internal/models"
	"quarry/internal/repository"
	"quarry/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService owns the signup/verification/login lifecycle. OTP delivery is
// best-effort; a mail failure never fails the signup itself.
type AuthService struct {
	userRepo repository.UserRepository
	mail     mailer.Mailer
	now      func() time.Time
}

type SignupInput struct {
	FullName     string
	Email        string
	Password     string
	Field        string
	Profession   string
	ReferralCode string
}

type VerifyOTPInput struct {
	Email string
	OTP   string
}

type LoginInput struct {
	Email    string
	Password string
}

type ResetPasswordInput struct {
	Email       string
	OTP         string
	NewPassword string
}

func NewAuthService(userRepo repository.UserRepository, mail mailer.Mailer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		mail:     mail,
		now:      time.Now,
	}
}

// generateOTP draws a uniform 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to draw OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Signup registers an unverified user, issues an OTP, and settles referral
// credits when a valid referral code was supplied.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if !models.ValidProblemField(in.Field) {
		return nil, models.NewValidationError("Invalid field")
	}
	if in.Profession == "" {
		return nil, models.NewValidationError("Profession is required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	var referrer *models.User
	if in.ReferralCode != "" {
		referrer, err = s.userRepo.GetByReferralCode(ctx, in.ReferralCode)
		if err != nil {
			return nil, err
		}
		if referrer == nil {
			return nil, models.NewValidationError("Invalid referral code")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	code, err := GenerateReferralCode(ctx, s.userRepo.ReferralCodeExists)
	if err != nil {
		return nil, err
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	expiry := s.now().Add(models.OTPValidFor)

	user := &models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		Password:     string(hash),
		Field:        in.Field,
		Profession:   in.Profession,
		ReferralCode: code,
		ReferredBy:   in.ReferralCode,
		OTP:          otp,
		OTPExpiry:    &expiry,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if referrer != nil {
		s.settleReferral(ctx, referrer, user)
	}

	if err := s.mail.SendOTP(ctx, user.Email, user.FullName, otp); err != nil {
		middleware.Logger.WarnContext(ctx, "OTP mail delivery failed",
			"user_id", user.ID,
			"error", err.Error(),
		)
	}

	return user, nil
}

// settleReferral credits both sides of a referral. Failures are logged and
// counted; the signup itself already committed.
func (s *AuthService) settleReferral(ctx context.Context, referrer, referee *models.User) {
	if err := s.userRepo.Credit(ctx, referee.ID, repository.CreditReferral, models.RewardReferee); err != nil {
		middleware.Logger.WarnContext(ctx, "referee credit failed",
			"user_id", referee.ID,
			"error", err.Error(),
		)
		middleware.CreditFailures.Inc()
	} else {
		middleware.CoinsCredited.WithLabelValues(string(repository.CreditReferral)).Add(models.RewardReferee)
	}

	err := s.userRepo.RecordReferral(ctx, referrer.ID, &models.ReferralEntry{
		Name:       referee.FullName,
		Email:      referee.Email,
		Profession: referee.Profession,
		JoinedAt:   s.now(),
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "referrer credit failed",
			"user_id", referrer.ID,
			"error", err.Error(),
		)
		middleware.CreditFailures.Inc()
		return
	}
	middleware.CoinsCredited.WithLabelValues(string(repository.CreditReferral)).Add(models.RewardReferrer)
}

// VerifyOTP marks the account verified, clears the transient OTP state, and
// hands the user back for token issuance.
func (s *AuthService) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", in.Email)
	}

	if user.OTP == "" || user.OTP != in.OTP {
		return nil, models.NewUnauthorizedError("Invalid or expired OTP")
	}
	if user.OTPExpiry == nil || s.now().After(*user.OTPExpiry) {
		return nil, models.NewUnauthorizedError("Invalid or expired OTP")
	}

	user.Verified = true
	user.OTP = ""
	user.OTPExpiry = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResendOTP issues a fresh verification code for an account that has not
// finished signup yet.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", email)
	}
	if user.Verified {
		return models.NewValidationError("Account already verified")
	}

	otp, err := generateOTP()
	if err != nil {
		return models.NewInternalError(err)
	}
	expiry := s.now().Add(models.OTPValidFor)
	user.OTP = otp
	user.OTPExpiry = &expiry
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := s.mail.SendOTP(ctx, user.Email, user.FullName, otp); err != nil {
		middleware.Logger.WarnContext(ctx, "OTP mail delivery failed",
			"user_id", user.ID,
			"error", err.Error(),
		)
	}
	return nil
}

// Login authenticates a verified user by email and password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if !user.Verified {
		return nil, models.NewForbiddenError("Account not verified")
	}
	return user, nil
}

// ForgotPassword re-issues an OTP for a password reset.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", email)
	}

	otp, err := generateOTP()
	if err != nil {
		return models.NewInternalError(err)
	}
	expiry := s.now().Add(models.OTPValidFor)
	user.OTP = otp
	user.OTPExpiry = &expiry
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := s.mail.SendOTP(ctx, user.Email, user.FullName, otp); err != nil {
		middleware.Logger.WarnContext(ctx, "OTP mail delivery failed",
			"user_id", user.ID,
			"error", err.Error(),
		)
	}
	return nil
}

// ResetPassword replaces the password after OTP verification.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError("User", in.Email)
	}
	if user.OTP == "" || user.OTP != in.OTP {
		return models.NewUnauthorizedError("Invalid or expired OTP")
	}
	if user.OTPExpiry == nil || s.now().After(*user.OTPExpiry) {
		return models.NewUnauthorizedError("Invalid or expired OTP")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	user.OTP = ""
	user.OTPExpiry = nil
	return s.userRepo.Update(ctx, user)
}
