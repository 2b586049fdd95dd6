// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user in the Quarry application. Wallet coins are split
// into per-source earning counters; WalletCoins always equals the sum of
// those counters because no other credit path exists.
type User struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	FullName   string `gorm:"not null" json:"full_name"`
	Email      string `gorm:"unique;not null" json:"email"`
	Password   string `gorm:"not null" json:"-"`
	Field      string `gorm:"not null" json:"field"`
	Profession string `gorm:"not null" json:"profession"`

	WalletCoins       float64 `gorm:"not null;default:0" json:"wallet_coins"`
	CoinsFromLikes    float64 `gorm:"not null;default:0" json:"coins_from_likes"`
	CoinsFromComments float64 `gorm:"not null;default:0" json:"coins_from_comments"`
	CoinsFromReferral float64 `gorm:"not null;default:0" json:"coins_from_referral"`
	CoinsFromPosts    float64 `gorm:"not null;default:0" json:"coins_from_posts"`

	ReferralCode  string          `gorm:"uniqueIndex;size:6;not null" json:"referral_code"`
	ReferredBy    string          `gorm:"size:6" json:"referred_by,omitempty"`
	ReferralCount int             `gorm:"not null;default:0" json:"referral_count"`
	Referrals     []ReferralEntry `gorm:"foreignKey:ReferrerID" json:"referrals,omitempty"`

	Verified bool `gorm:"not null;default:false" json:"verified"`
	// OTP and OTPExpiry are transient verification state, cleared after use.
	OTP       string     `json:"-"`
	OTPExpiry *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Problems  []Problem      `gorm:"foreignKey:PosterID" json:"problems,omitempty"`
}

// ReferralEntry is one row of a user's append-only referral log.
type ReferralEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReferrerID uint      `gorm:"not null;index" json:"referrer_id"`
	Name       string    `gorm:"not null" json:"name"`
	Email      string    `gorm:"not null" json:"email"`
	Profession string    `json:"profession"`
	JoinedAt   time.Time `json:"joined_at"`
}

// Reward amounts in wallet coins, credited inside the same transaction as
// the action they reward.
const (
	RewardLike     = 0.2
	RewardComment  = 0.1
	RewardPost     = 1.0
	RewardReferee  = 5.0
	RewardReferrer = 10.0
)

// OTPValidFor is how long an issued one-time passcode stays valid.
const OTPValidFor = 10 * time.Minute
