package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"greenlens/internal/models"
)

// Leaderboard timeframes.
const (
	TimeframeAll   = "all"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

// Leaderboard computes windowed point totals per user and paginates a
// descending ranking.
type Leaderboard struct {
	db *mongo.Database
}

func NewLeaderboard(db *mongo.Database) *Leaderboard {
	return &Leaderboard{db: db}
}

// RankedUser is one leaderboard row. TotalPoints is the stored balance for
// the all-time ranking and the windowed history sum otherwise.
type RankedUser struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Avatar      string             `bson:"avatar" json:"avatar"`
	Points      int                `bson:"points" json:"points"`
	Badges      []models.Badge     `bson:"badges" json:"badges"`
	TotalPoints int                `bson:"totalPoints" json:"totalPoints"`
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// WindowStart returns the inclusive lower bound of a timeframe window, or
// ok=false for the all-time timeframe. Unknown timeframes are an error.
func WindowStart(timeframe string, now time.Time) (time.Time, bool, error) {
	switch timeframe {
	case TimeframeAll:
		return time.Time{}, false, nil
	case TimeframeWeek:
		return now.AddDate(0, 0, -7), true, nil
	case TimeframeMonth:
		return now.AddDate(0, 0, -30), true, nil
	default:
		return time.Time{}, false, NewInvalidInputError("timeframe must be one of all, week, month")
	}
}

// Pages computes how many pages a total spans: ceil(total/limit).
func Pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Rank returns one leaderboard page, sorted by totalPoints descending with
// _id as a stable tie-break.
func (l *Leaderboard) Rank(ctx context.Context, timeframe string, page, limit int) ([]RankedUser, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	now := time.Now().UTC()
	since, windowed, err := WindowStart(timeframe, now)
	if err != nil {
		return nil, nil, err
	}

	match := bson.M{}
	var totalPoints interface{} = "$points"
	if windowed {
		match["pointsHistory.timestamp"] = bson.M{"$gte": since}
		// Sum the amounts of history entries inside the window.
		totalPoints = bson.M{"$sum": bson.M{"$map": bson.M{
			"input": bson.M{"$filter": bson.M{
				"input": bson.M{"$ifNull": bson.A{"$pointsHistory", bson.A{}}},
				"as":    "h",
				"cond":  bson.M{"$gte": bson.A{"$$h.timestamp", since}},
			}},
			"as": "h",
			"in": "$$h.amount",
		}}}
	}

	skip := (page - 1) * limit
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$project", Value: bson.M{
			"name":        1,
			"email":       1,
			"points":      1,
			"badges":      1,
			"avatar":      1,
			"totalPoints": totalPoints,
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "totalPoints", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		bson.D{{Key: "$skip", Value: skip}},
		bson.D{{Key: "$limit", Value: limit}},
	}

	cursor, err := l.db.Collection("users").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, nil, NewInternalError("could not rank users", err)
	}
	users := []RankedUser{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, nil, NewInternalError("could not decode ranking", err)
	}

	total, err := l.db.Collection("users").CountDocuments(ctx, match)
	if err != nil {
		return nil, nil, NewInternalError("could not count users", err)
	}

	return users, &Pagination{
		Total: int(total),
		Page:  page,
		Limit: limit,
		Pages: Pages(int(total), limit),
	}, nil
}

// TimeframeStats aggregates point activity inside one trailing window.
type TimeframeStats struct {
	TotalPoints  int      `bson:"totalPoints" json:"totalPoints"`
	TotalActions int      `bson:"totalActions" json:"totalActions"`
	UniqueUsers  []string `bson:"-" json:"uniqueUsers"`
}

type AllTimeStats struct {
	TotalPoints int `bson:"totalPoints" json:"totalPoints"`
	TotalUsers  int `bson:"totalUsers" json:"totalUsers"`
	TotalBadges int `bson:"totalBadges" json:"totalBadges"`
}

type LeaderboardStats struct {
	Weekly  TimeframeStats `json:"weekly"`
	Monthly TimeframeStats `json:"monthly"`
	AllTime AllTimeStats   `json:"allTime"`
}

// Stats runs one faceted aggregation covering weekly, monthly, and all-time
// point activity.
func (l *Leaderboard) Stats(ctx context.Context) (*LeaderboardStats, error) {
	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	windowFacet := func(since time.Time) bson.A {
		return bson.A{
			bson.M{"$unwind": "$pointsHistory"},
			bson.M{"$match": bson.M{"pointsHistory.timestamp": bson.M{"$gte": since}}},
			bson.M{"$group": bson.M{
				"_id":          nil,
				"totalPoints":  bson.M{"$sum": "$pointsHistory.amount"},
				"totalActions": bson.M{"$sum": 1},
				"uniqueUsers":  bson.M{"$addToSet": "$_id"},
			}},
		}
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$facet", Value: bson.M{
			"weeklyStats":  windowFacet(weekAgo),
			"monthlyStats": windowFacet(monthAgo),
			"allTimeStats": bson.A{
				bson.M{"$group": bson.M{
					"_id":         nil,
					"totalPoints": bson.M{"$sum": "$points"},
					"totalUsers":  bson.M{"$sum": 1},
					"totalBadges": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$badges", bson.A{}}}}},
				}},
			},
		}}},
	}

	cursor, err := l.db.Collection("users").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, NewInternalError("could not aggregate stats", err)
	}

	var raw []struct {
		WeeklyStats []struct {
			TotalPoints  int                  `bson:"totalPoints"`
			TotalActions int                  `bson:"totalActions"`
			UniqueUsers  []primitive.ObjectID `bson:"uniqueUsers"`
		} `bson:"weeklyStats"`
		MonthlyStats []struct {
			TotalPoints  int                  `bson:"totalPoints"`
			TotalActions int                  `bson:"totalActions"`
			UniqueUsers  []primitive.ObjectID `bson:"uniqueUsers"`
		} `bson:"monthlyStats"`
		AllTimeStats []AllTimeStats `bson:"allTimeStats"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, NewInternalError("could not decode stats", err)
	}
	if len(raw) == 0 {
		return nil, NewNotFoundError("no statistics found")
	}

	stats := &LeaderboardStats{
		Weekly:  TimeframeStats{UniqueUsers: []string{}},
		Monthly: TimeframeStats{UniqueUsers: []string{}},
	}
	if len(raw[0].WeeklyStats) > 0 {
		w := raw[0].WeeklyStats[0]
		stats.Weekly.TotalPoints = w.TotalPoints
		stats.Weekly.TotalActions = w.TotalActions
		for _, id := range w.UniqueUsers {
			stats.Weekly.UniqueUsers = append(stats.Weekly.UniqueUsers, id.Hex())
		}
	}
	if len(raw[0].MonthlyStats) > 0 {
		m := raw[0].MonthlyStats[0]
		stats.Monthly.TotalPoints = m.TotalPoints
		stats.Monthly.TotalActions = m.TotalActions
		for _, id := range m.UniqueUsers {
			stats.Monthly.UniqueUsers = append(stats.Monthly.UniqueUsers, id.Hex())
		}
	}
	if len(raw[0].AllTimeStats) > 0 {
		stats.AllTime = raw[0].AllTimeStats[0]
	}
	return stats, nil
}
