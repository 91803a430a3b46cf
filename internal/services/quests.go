package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"greenlens/internal/ai"
	"greenlens/internal/models"
)

// MaxActiveQuests caps how many assignments a user may hold at once.
const MaxActiveQuests = 5

var questCategories = []string{
	"Waste Reduction",
	"Energy Conservation",
	"Water Conservation",
	"Transportation",
	"Sustainable Food",
	"Community Action",
	"Education",
	"Recycling",
	"Reuse",
	"Green Living",
}

// Quests manages the quest catalog and per-user assignments. Completed
// quests retire: the catalog entry stays assigned and the generator refills
// the available pool.
type Quests struct {
	db     *mongo.Database
	ledger *Ledger
	gen    ai.Generator
}

func NewQuests(db *mongo.Database, ledger *Ledger, gen ai.Generator) *Quests {
	return &Quests{db: db, ledger: ledger, gen: gen}
}

func (q *Quests) quests() *mongo.Collection {
	return q.db.Collection("quests")
}

func (q *Quests) assignments() *mongo.Collection {
	return q.db.Collection("assigned_quests")
}

func (q *Quests) activeCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := q.assignments().CountDocuments(ctx, bson.M{
		"userId": userID,
		"status": models.AssignmentActive,
	})
	if err != nil {
		return 0, NewInternalError("could not count active quests", err)
	}
	return count, nil
}

// ListAvailable returns up to MaxActiveQuests available quests for the user.
// A user already at the active cap gets an empty list. When the available
// pool is short, new candidates are synthesized by the generative model;
// candidates that fail schema validation are discarded, never inserted.
func (q *Quests) ListAvailable(ctx context.Context, userID primitive.ObjectID) ([]models.Quest, error) {
	active, err := q.activeCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active >= MaxActiveQuests {
		return []models.Quest{}, nil
	}

	cursor, err := q.quests().Find(ctx, bson.M{
		"status":     models.QuestAvailable,
		"assignedTo": nil,
	})
	if err != nil {
		return nil, NewInternalError("could not list quests", err)
	}
	var available []models.Quest
	if err := cursor.All(ctx, &available); err != nil {
		return nil, NewInternalError("could not decode quests", err)
	}

	if len(available) < MaxActiveQuests {
		generated := q.generateQuests(ctx, MaxActiveQuests-len(available))
		available = append(available, generated...)
	}

	if len(available) > MaxActiveQuests {
		available = available[:MaxActiveQuests]
	}
	return available, nil
}

// generateQuests asks the model for n quest candidates and inserts the ones
// that validate. Any failure degrades to returning fewer quests.
func (q *Quests) generateQuests(ctx context.Context, n int) []models.Quest {
	text, err := q.gen.GenerateText(ctx, generationPrompt(n))
	if err != nil {
		slog.Warn("quest generation failed", slog.Any("err", err))
		return nil
	}

	var candidates []questCandidate
	if !ai.ExtractArray(text, &candidates) {
		slog.Warn("quest generation returned no parseable candidates")
		return nil
	}

	var inserted []models.Quest
	for _, c := range candidates {
		quest, err := c.validate()
		if err != nil {
			slog.Warn("discarding generated quest candidate", slog.Any("err", err))
			continue
		}
		quest.CreatedAt = time.Now().UTC()
		result, err := q.quests().InsertOne(ctx, quest)
		if err != nil {
			slog.Warn("could not insert generated quest", slog.Any("err", err))
			continue
		}
		quest.ID = result.InsertedID.(primitive.ObjectID)
		inserted = append(inserted, quest)
	}
	return inserted
}

// questCandidate is the loosely-structured shape the generator emits. It is
// validated into a models.Quest before anything touches the database.
type questCandidate struct {
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	PointsAwarded       int     `json:"pointsAwarded"`
	Difficulty          string  `json:"difficulty"`
	EnvironmentalImpact string  `json:"environmentalImpact"`
	Category            string  `json:"category"`
	CarbonSaved         float64 `json:"carbonSaved"`
	WaterSaved          float64 `json:"waterSaved"`
	WastePrevented      float64 `json:"wastePrevented"`
}

func (c questCandidate) validate() (models.Quest, error) {
	var zero models.Quest
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return zero, errors.New("missing title")
	}
	if strings.TrimSpace(c.Description) == "" {
		return zero, errors.New("missing description")
	}
	if c.PointsAwarded < 1 || c.PointsAwarded > 1000 {
		return zero, fmt.Errorf("pointsAwarded %d out of range", c.PointsAwarded)
	}
	switch c.Difficulty {
	case "Easy", "Medium", "Hard":
	default:
		return zero, fmt.Errorf("unknown difficulty %q", c.Difficulty)
	}
	if strings.TrimSpace(c.Category) == "" {
		return zero, errors.New("missing category")
	}
	if c.CarbonSaved < 0 || c.WaterSaved < 0 || c.WastePrevented < 0 {
		return zero, errors.New("negative impact estimate")
	}

	return models.Quest{
		Title:               title,
		Description:         strings.TrimSpace(c.Description),
		PointsAwarded:       c.PointsAwarded,
		Difficulty:          c.Difficulty,
		Category:            strings.TrimSpace(c.Category),
		EnvironmentalImpact: strings.TrimSpace(c.EnvironmentalImpact),
		CarbonSaved:         c.CarbonSaved,
		WaterSaved:          c.WaterSaved,
		WastePrevented:      c.WastePrevented,
		Status:              models.QuestAvailable,
		AssignedTo:          nil,
	}, nil
}

func generationPrompt(n int) string {
	return fmt.Sprintf(`Generate %d unique, diverse, and creative environmental sustainability tasks/quests that someone could realistically complete.

Each task should:
1. Be specific, actionable, and completable within 1-7 days
2. Have a clear environmental benefit that can be measured
3. Be appropriate for the current season and time of year
4. Require photographic proof to verify completion
5. Vary in difficulty (include easy, medium, and hard tasks)

Format the output as a JSON array of objects with these fields:
- title: A catchy, concise title (max 10 words)
- description: Detailed instructions (2-3 sentences)
- pointsAwarded: A number between 10-100 based on difficulty (easy: 10-30, medium: 31-60, hard: 61-100)
- difficulty: "Easy", "Medium", or "Hard"
- environmentalImpact: A specific environmental benefit
- category: One of these categories: %s
- carbonSaved: Approximate CO2 equivalent saved in kg (a realistic number)
- waterSaved: Approximate water saved in liters (if applicable, otherwise 0)
- wastePrevented: Approximate waste prevented in kg (if applicable, otherwise 0)`,
		n, strings.Join(questCategories, ", "))
}

// assignGuard decides whether an assignment may proceed given the user's
// active count and the quest's current state. A nil quest checks only the
// cap. An assignee on the quest blocks assignment regardless of what the
// status field reads.
func assignGuard(active int64, quest *models.Quest) error {
	if active >= MaxActiveQuests {
		return NewConflictError("you already have 5 active quests; complete some before taking on more")
	}
	if quest == nil {
		return nil
	}
	if quest.Status != models.QuestAvailable || quest.AssignedTo != nil {
		return NewConflictError("quest is not available for assignment")
	}
	return nil
}

// Assign binds an available quest to the user. The quest flip is an atomic
// conditional update requiring status==available and no assignee at write
// time, so two concurrent assigns cannot both win. If the follow-up
// assignment insert fails the flip is reverted best-effort.
func (q *Quests) Assign(ctx context.Context, userID primitive.ObjectID, questID string) (*models.AssignedQuest, error) {
	qid, err := primitive.ObjectIDFromHex(questID)
	if err != nil {
		return nil, NewInvalidInputError("invalid quest ID format")
	}

	active, err := q.activeCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := assignGuard(active, nil); err != nil {
		return nil, err
	}

	var quest models.Quest
	if err := q.quests().FindOne(ctx, bson.M{"_id": qid}).Decode(&quest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("quest not found")
		}
		return nil, NewInternalError("could not load quest", err)
	}
	if err := assignGuard(active, &quest); err != nil {
		return nil, err
	}

	result, err := q.quests().UpdateOne(ctx,
		bson.M{"_id": qid, "status": models.QuestAvailable, "assignedTo": nil},
		bson.M{"$set": bson.M{"status": models.QuestAssigned, "assignedTo": userID}},
	)
	if err != nil {
		return nil, NewInternalError("could not assign quest", err)
	}
	if result.ModifiedCount == 0 {
		// Lost the race: someone else claimed the quest between the read
		// and the conditional write.
		return nil, NewConflictError("quest is not available for assignment")
	}

	assignment := models.AssignedQuest{
		QuestID:    qid,
		UserID:     userID,
		Status:     models.AssignmentActive,
		AssignedAt: time.Now().UTC(),
	}
	inserted, err := q.assignments().InsertOne(ctx, assignment)
	if err != nil {
		_, revertErr := q.quests().UpdateOne(ctx,
			bson.M{"_id": qid, "assignedTo": userID},
			bson.M{"$set": bson.M{"status": models.QuestAvailable, "assignedTo": nil}},
		)
		if revertErr != nil {
			slog.Error("could not revert quest after failed assignment insert",
				slog.String("quest_id", questID), slog.Any("err", revertErr))
		}
		return nil, NewInternalError("could not record assignment", err)
	}
	assignment.ID = inserted.InsertedID.(primitive.ObjectID)

	quest.Status = models.QuestAssigned
	quest.AssignedTo = &userID
	assignment.QuestDetails = &quest
	return &assignment, nil
}

// CompletionResult is what Complete hands back to the handler.
type CompletionResult struct {
	Message       string `json:"message"`
	PointsAwarded int    `json:"points_awarded"`
}

// Complete marks the caller's active assignment completed, records the proof
// reference, and awards the quest's points through the ledger. The quest
// catalog entry stays assigned: completed quests retire rather than recycle.
func (q *Quests) Complete(ctx context.Context, userID primitive.ObjectID, assignedID, proofPath, description string) (*CompletionResult, error) {
	aid, err := primitive.ObjectIDFromHex(assignedID)
	if err != nil {
		return nil, NewInvalidInputError("invalid assigned quest ID format")
	}

	var assignment models.AssignedQuest
	err = q.assignments().FindOne(ctx, bson.M{
		"_id":    aid,
		"userId": userID,
		"status": models.AssignmentActive,
	}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("active quest not found or does not belong to you")
		}
		return nil, NewInternalError("could not load assignment", err)
	}

	var quest models.Quest
	if err := q.quests().FindOne(ctx, bson.M{"_id": assignment.QuestID}).Decode(&quest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("quest details not found")
		}
		return nil, NewInternalError("could not load quest", err)
	}

	now := time.Now().UTC()
	_, err = q.assignments().UpdateOne(ctx, bson.M{"_id": aid}, bson.M{
		"$set": bson.M{
			"status":         models.AssignmentCompleted,
			"completedAt":    now,
			"proofImagePath": proofPath,
			"description":    description,
		},
	})
	if err != nil {
		return nil, NewInternalError("could not complete quest", err)
	}

	points := quest.PointsAwarded
	if points <= 0 {
		points = 50
	}
	if _, err := q.ledger.AwardPoints(ctx, userID, points, "Completed Quest: "+quest.Title); err != nil {
		return nil, err
	}

	return &CompletionResult{
		Message:       "Quest completed successfully!",
		PointsAwarded: points,
	}, nil
}

// ListByStatus returns the user's assignments in a given state, each
// enriched with its quest details. A missing or unresolvable quest reference
// omits questDetails for that entry instead of failing the list.
func (q *Quests) ListByStatus(ctx context.Context, userID primitive.ObjectID, status string) ([]models.AssignedQuest, error) {
	cursor, err := q.assignments().Find(ctx, bson.M{"userId": userID, "status": status})
	if err != nil {
		return nil, NewInternalError("could not list assignments", err)
	}
	var assignments []models.AssignedQuest
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, NewInternalError("could not decode assignments", err)
	}

	for i := range assignments {
		var quest models.Quest
		if err := q.quests().FindOne(ctx, bson.M{"_id": assignments[i].QuestID}).Decode(&quest); err != nil {
			slog.Warn("could not resolve quest details",
				slog.String("quest_id", assignments[i].QuestID.Hex()), slog.Any("err", err))
			continue
		}
		assignments[i].QuestDetails = &quest
	}
	if assignments == nil {
		assignments = []models.AssignedQuest{}
	}
	return assignments, nil
}
