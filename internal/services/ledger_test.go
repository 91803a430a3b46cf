package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greenlens/internal/models"
)

func TestAwardUpdateKeepsHistoryInStepWithBalance(t *testing.T) {
	now := time.Now().UTC()

	// Each award applies its delta and its history line in one update, so
	// after any sequence of awards the history amounts sum to the total
	// balance change.
	var balanceDelta, historySum int
	for _, amount := range []int{10, 50, -5, 3} {
		update := awardUpdate(amount, "test action", now)

		inc, ok := update["$inc"].(bson.M)
		require.True(t, ok)
		assert.Equal(t, amount, inc["points"])

		push, ok := update["$push"].(bson.M)
		require.True(t, ok)
		entry, ok := push["pointsHistory"].(models.PointsEntry)
		require.True(t, ok)
		assert.Equal(t, amount, entry.Amount)
		assert.Equal(t, "test action", entry.Action)
		assert.Equal(t, now, entry.Timestamp)

		balanceDelta += amount
		historySum += entry.Amount
	}
	assert.Equal(t, balanceDelta, historySum)
}

func TestBadgeFilterExcludesHolders(t *testing.T) {
	userID := primitive.NewObjectID()
	filter := badgeFilter(userID, "Eco Starter")

	assert.Equal(t, userID, filter["_id"])
	// The filter must miss once the badge name is present, so a concurrent
	// award cannot push a second copy.
	assert.Equal(t, bson.M{"$ne": "Eco Starter"}, filter["badges.name"])
}
