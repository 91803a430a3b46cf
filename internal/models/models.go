package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PointsEntry is one line of a user's points history. Amount carries the
// signed delta that was applied to the user's points at Timestamp.
type PointsEntry struct {
	Amount    int       `bson:"amount" json:"amount"`
	Action    string    `bson:"action" json:"action"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Badge is a one-time achievement marker. A user's badge set holds at most
// one entry per name; entries are never removed.
type Badge struct {
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	ImageURL    string    `bson:"imageUrl" json:"imageUrl"`
	EarnedAt    time.Time `bson:"earnedAt" json:"earnedAt"`
}

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	PasswordHash  string             `bson:"password_hash" json:"-"`
	Avatar        string             `bson:"avatar" json:"avatar"`
	Points        int                `bson:"points" json:"points"`
	PointsHistory []PointsEntry      `bson:"pointsHistory" json:"pointsHistory"`
	Badges        []Badge            `bson:"badges" json:"badges"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

type Resource struct {
	Title string `bson:"title" json:"title"`
	URL   string `bson:"url" json:"url"`
}

// SustainableAction is a reusable catalog template. CreatedBy is the owning
// user; only the owner may update or delete the action.
type SustainableAction struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title               string             `bson:"title" json:"title"`
	Description         string             `bson:"description" json:"description"`
	Category            string             `bson:"category" json:"category"`
	Difficulty          string             `bson:"difficulty" json:"difficulty"`
	EnvironmentalImpact string             `bson:"environmentalImpact" json:"environmentalImpact"`
	PointsAwarded       int                `bson:"pointsAwarded" json:"pointsAwarded"`
	Tips                []string           `bson:"tips" json:"tips"`
	Resources           []Resource         `bson:"resources" json:"resources"`
	CreatedBy           primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
}

// Quest catalog states. Only available and assigned are reached in practice;
// verified is reserved.
const (
	QuestAvailable = "available"
	QuestAssigned  = "assigned"
	QuestVerified  = "verified"
)

// Quest invariant: AssignedTo is non-nil exactly when Status is assigned.
type Quest struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title               string              `bson:"title" json:"title"`
	Description         string              `bson:"description" json:"description"`
	PointsAwarded       int                 `bson:"pointsAwarded" json:"pointsAwarded"`
	Difficulty          string              `bson:"difficulty" json:"difficulty"`
	Category            string              `bson:"category" json:"category"`
	EnvironmentalImpact string              `bson:"environmentalImpact" json:"environmentalImpact"`
	CarbonSaved         float64             `bson:"carbonSaved" json:"carbonSaved"`
	WaterSaved          float64             `bson:"waterSaved" json:"waterSaved"`
	WastePrevented      float64             `bson:"wastePrevented" json:"wastePrevented"`
	Status              string              `bson:"status" json:"status"`
	AssignedTo          *primitive.ObjectID `bson:"assignedTo" json:"assignedTo"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
}

// AssignedQuest states.
const (
	AssignmentActive    = "active"
	AssignmentCompleted = "completed"
)

// AssignedQuest binds one quest to one user. It is created active and flips
// to completed exactly once; it is never deleted.
type AssignedQuest struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	QuestID        primitive.ObjectID `bson:"questId" json:"questId"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Status         string             `bson:"status" json:"status"`
	AssignedAt     time.Time          `bson:"assignedAt" json:"assignedAt"`
	CompletedAt    *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ProofImagePath string             `bson:"proofImagePath,omitempty" json:"proofImagePath,omitempty"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`

	// QuestDetails is response-only enrichment, never persisted.
	QuestDetails *Quest `bson:"-" json:"questDetails,omitempty"`
}

type DisposalOption struct {
	Method              string   `bson:"method" json:"method"`
	Description         string   `bson:"description" json:"description"`
	Steps               []string `bson:"steps" json:"steps"`
	EnvironmentalImpact string   `bson:"environmentalImpact,omitempty" json:"environmentalImpact,omitempty"`
}

// DisposalResult is an immutable snapshot of one analysis result, persisted
// so it can be shared. Clients send arbitrary extra keys alongside the known
// ones; Extra keeps them round-trippable without loosening the schema.
type DisposalResult struct {
	ID                  primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	ItemName            string                 `bson:"itemName" json:"itemName"`
	ItemDescription     string                 `bson:"itemDescription" json:"itemDescription"`
	Categories          []string               `bson:"categories" json:"categories"`
	DisposalOptions     []DisposalOption       `bson:"disposalOptions" json:"disposalOptions"`
	AdditionalResources string                 `bson:"additionalResources,omitempty" json:"additionalResources,omitempty"`
	ResourceLink        string                 `bson:"resourceLink,omitempty" json:"resourceLink,omitempty"`
	ImagePath           string                 `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
	UserID              *primitive.ObjectID    `bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt           time.Time              `bson:"createdAt" json:"createdAt"`
	Extra               map[string]interface{} `bson:",inline" json:"-"`
}
