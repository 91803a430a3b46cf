package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greenlens/internal/models"
)

// Ledger owns a user's point balance, points history, and badge set.
type Ledger struct {
	db *mongo.Database
}

func NewLedger(db *mongo.Database) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) users() *mongo.Collection {
	return l.db.Collection("users")
}

// awardUpdate builds the single-document update applying a point delta and
// its history entry together. The $inc amount and the pushed entry's amount
// are always the same value, so the history sums to the balance delta.
func awardUpdate(amount int, action string, at time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"points": amount},
		"$push": bson.M{
			"pointsHistory": models.PointsEntry{
				Amount:    amount,
				Action:    action,
				Timestamp: at,
			},
		},
	}
}

// badgeFilter matches the user only while they do not already hold the named
// badge, so concurrent awards crossing the same threshold cannot append a
// duplicate.
func badgeFilter(userID primitive.ObjectID, name string) bson.M {
	return bson.M{"_id": userID, "badges.name": bson.M{"$ne": name}}
}

// AwardPoints applies a point delta and its history entry as one document
// update, so concurrent awards to the same user cannot lose increments or
// leave the history out of step with the balance. It then evaluates badge
// thresholds against the new balance and returns the updated user.
func (l *Ledger) AwardPoints(ctx context.Context, userID primitive.ObjectID, amount int, action string) (*models.User, error) {
	if amount == 0 {
		return nil, NewInvalidInputError("points amount must be non-zero")
	}

	var user models.User
	err := l.users().FindOneAndUpdate(
		ctx,
		bson.M{"_id": userID},
		awardUpdate(amount, action, time.Now().UTC()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, NewInternalError("could not award points", err)
	}

	for _, badge := range EvaluateBadges(user.Points, user.Badges, time.Now().UTC()) {
		result, err := l.users().UpdateOne(ctx, badgeFilter(userID, badge.Name), bson.M{
			"$push": bson.M{"badges": badge},
		})
		if err != nil {
			return nil, NewInternalError("could not award badges", err)
		}
		if result.ModifiedCount > 0 {
			user.Badges = append(user.Badges, badge)
		}
	}

	return &user, nil
}

// FindByID loads a user by id.
func (l *Ledger) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := l.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, NewInternalError("could not load user", err)
	}
	return &user, nil
}

// FindByEmail loads a user by email, the token subject.
func (l *Ledger) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := l.users().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, NewInternalError("could not load user", err)
	}
	return &user, nil
}

// List returns all users. The password hash is excluded at the projection
// level, not just at serialization time.
func (l *Ledger) List(ctx context.Context) ([]models.User, error) {
	cursor, err := l.users().Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"password_hash": 0}))
	if err != nil {
		return nil, NewInternalError("could not list users", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, NewInternalError("could not decode users", err)
	}
	return users, nil
}
