package seed

import (
	"fmt"
	"log"

	"quarry/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumProblems int
	ShouldClean bool
}

// walletDelta accumulates coins earned while seeding so the per-source
// counters and the total stay consistent with the engagement data.
type walletDelta struct {
	likes, comments, referral, posts float64
	referralCount                    int
}

// Seed populates the database with demo users, problems, votes and comments.
// The denormalized counts, scores and wallets it writes are consistent with
// the underlying rows, the same invariants production writes maintain.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d problems...", opts.NumUsers, opts.NumProblems)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	f := NewFactory(db)
	credits := map[uint]*walletDelta{}
	delta := func(id uint) *walletDelta {
		if credits[id] == nil {
			credits[id] = &walletDelta{}
		}
		return credits[id]
	}

	users, err := createUsers(db, f, opts.NumUsers, delta)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	problems := 0
	for i := 0; i < opts.NumProblems; i++ {
		poster := users[f.r.Intn(len(users))]
		problem, err := f.CreateProblem(poster)
		if err != nil {
			return fmt.Errorf("failed to create problem: %w", err)
		}
		delta(poster.ID).posts += models.RewardPost

		if err := seedEngagement(f, users, problem, delta); err != nil {
			return fmt.Errorf("failed to seed engagement: %w", err)
		}
		problems++
	}
	log.Printf("✓ %d problems created with votes and comments", problems)

	if err := applyWallets(db, credits); err != nil {
		return fmt.Errorf("failed to apply wallet credits: %w", err)
	}

	log.Println("🎉 Database seeding completed successfully!")
	log.Println("📧 All seed users have the password: password123")
	return nil
}

// createUsers builds the user base; roughly a third of users join through a
// referral code of an earlier user, with both referral rewards applied.
func createUsers(db *gorm.DB, f *Factory, n int, delta func(uint) *walletDelta) ([]*models.User, error) {
	if n < 1 {
		n = 1
	}
	users := make([]*models.User, 0, n)

	for i := 0; i < n; i++ {
		var referrer *models.User
		if i > 0 && f.r.Intn(100) < 30 {
			referrer = users[f.r.Intn(i)]
		}

		user, err := f.CreateUser(func(u *models.User) {
			if referrer != nil {
				u.ReferredBy = referrer.ReferralCode
			}
		})
		if err != nil {
			return nil, err
		}

		if referrer != nil {
			entry := &models.ReferralEntry{
				ReferrerID: referrer.ID,
				Name:       user.FullName,
				Email:      user.Email,
				Profession: user.Profession,
				JoinedAt:   user.CreatedAt,
			}
			if err := db.Create(entry).Error; err != nil {
				return nil, err
			}
			delta(user.ID).referral += models.RewardReferee
			d := delta(referrer.ID)
			d.referral += models.RewardReferrer
			d.referralCount++
		}

		users = append(users, user)
	}
	return users, nil
}

// seedEngagement gives one problem a random set of voters and commenters and
// writes back the matching counts and score.
func seedEngagement(f *Factory, users []*models.User, problem *models.Problem, delta func(uint) *walletDelta) error {
	maxVoters := len(users)
	if maxVoters > 9 {
		maxVoters = 9
	}

	likes, dislikes := 0, 0
	for _, idx := range f.r.Perm(len(users))[:f.r.Intn(maxVoters)] {
		voter := users[idx]
		direction := models.VoteLike
		if f.r.Intn(100) < 25 {
			direction = models.VoteDislike
		}
		if err := f.CreateVote(voter, problem, direction); err != nil {
			return err
		}
		if direction == models.VoteLike {
			likes++
			delta(voter.ID).likes += models.RewardLike
		} else {
			dislikes++
		}
	}

	comments := f.r.Intn(4)
	for i := 0; i < comments; i++ {
		author := users[f.r.Intn(len(users))]
		if _, err := f.CreateComment(author, problem); err != nil {
			return err
		}
		delta(author.ID).comments += models.RewardComment
	}

	return f.db.Model(problem).Updates(map[string]any{
		"like_count":    likes,
		"dislike_count": dislikes,
		"comment_count": comments,
		"score":         models.Score(likes, dislikes, comments),
	}).Error
}

// applyWallets writes the accumulated per-source earnings. The total is the
// sum of the sources, matching the production credit path.
func applyWallets(db *gorm.DB, credits map[uint]*walletDelta) error {
	for id, d := range credits {
		total := d.likes + d.comments + d.referral + d.posts
		updates := map[string]any{
			"coins_from_likes":    gorm.Expr("coins_from_likes + ?", d.likes),
			"coins_from_comments": gorm.Expr("coins_from_comments + ?", d.comments),
			"coins_from_referral": gorm.Expr("coins_from_referral + ?", d.referral),
			"coins_from_posts":    gorm.Expr("coins_from_posts + ?", d.posts),
			"wallet_coins":        gorm.Expr("wallet_coins + ?", total),
		}
		if d.referralCount > 0 {
			updates["referral_count"] = gorm.Expr("referral_count + ?", d.referralCount)
		}
		if err := db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
	}
	return nil
}

// clearData removes all seeded rows, children first. Plain deletes keep this
// portable across postgres and the sqlite test database.
func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	for _, model := range []any{
		&models.Vote{},
		&models.Comment{},
		&models.Problem{},
		&models.ReferralEntry{},
		&models.User{},
	} {
		err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error
		if err != nil {
			return err
		}
	}
	return nil
}
