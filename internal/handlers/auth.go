package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"greenlens/internal/middleware"
	"greenlens/internal/models"
	"greenlens/internal/services"
)

const tokenLifetime = 30 * 24 * time.Hour

type AuthHandler struct {
	db        *mongo.Database
	ledger    *services.Ledger
	jwtSecret []byte
	validate  *validator.Validate
}

func NewAuthHandler(db *mongo.Database, ledger *services.Ledger, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{
		db:        db,
		ledger:    ledger,
		jwtSecret: jwtSecret,
		validate:  validator.New(),
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidInputError("invalid body"))
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := h.validate.Struct(req); err != nil {
		writeError(w, services.NewInvalidInputError("name, email and password are required"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, services.NewInternalError("could not hash password", err))
		return
	}

	user := models.User{
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  string(hashed),
		Avatar:        "default-avatar.png",
		PointsHistory: []models.PointsEntry{},
		Badges:        []models.Badge{},
		CreatedAt:     time.Now().UTC(),
	}
	result, err := h.db.Collection("users").InsertOne(r.Context(), user)
	if err != nil {
		if isDuplicateKey(err) {
			writeError(w, services.NewInvalidInputError("email already registered"))
			return
		}
		writeError(w, services.NewInternalError("could not create user", err))
		return
	}

	// Welcome bonus goes through the ledger so history and badges stay
	// consistent with every other award.
	userID := result.InsertedID.(primitive.ObjectID)
	if _, err := h.ledger.AwardPoints(r.Context(), userID, 10, "Joined GreenLens community"); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.issueJWT(req.Email)
	if err != nil {
		writeError(w, services.NewInternalError("could not issue token", err))
		return
	}
	writeData(w, http.StatusCreated, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, services.NewInvalidInputError("invalid body"))
		return
	}
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || c.Password == "" {
		writeError(w, services.NewInvalidInputError("email and password required"))
		return
	}

	user, err := h.ledger.FindByEmail(r.Context(), c.Email)
	if err != nil {
		writeError(w, services.NewUnauthorizedError("invalid credentials"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)) != nil {
		writeError(w, services.NewUnauthorizedError("invalid credentials"))
		return
	}

	token, err := h.issueJWT(user.Email)
	if err != nil {
		writeError(w, services.NewInternalError("could not issue token", err))
		return
	}
	writeData(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	writeData(w, http.StatusOK, userPayload(user))
}

type updateDetailsRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// UpdateDetails applies the whitelisted profile fields and returns the
// updated user.
func (h *AuthHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidInputError("invalid body"))
		return
	}

	set := bson.M{}
	if strings.TrimSpace(req.Name) != "" {
		set["name"] = strings.TrimSpace(req.Name)
	}
	if strings.TrimSpace(req.Avatar) != "" {
		set["avatar"] = strings.TrimSpace(req.Avatar)
	}
	if len(set) > 0 {
		_, err := h.db.Collection("users").UpdateOne(r.Context(), bson.M{"_id": user.ID}, bson.M{"$set": set})
		if err != nil {
			writeError(w, services.NewInternalError("could not update user", err))
			return
		}
	}

	updated, err := h.ledger.FindByID(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, userPayload(updated))
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		writeError(w, services.NewInvalidInputError("invalid body"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		writeError(w, services.NewUnauthorizedError("current password is incorrect"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, services.NewInternalError("could not hash password", err))
		return
	}
	_, err = h.db.Collection("users").UpdateOne(r.Context(),
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"password_hash": string(hashed)}},
	)
	if err != nil {
		writeError(w, services.NewInternalError("could not update password", err))
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"updated": true})
}

func (h *AuthHandler) issueJWT(email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": email,
		"exp": now.Add(tokenLifetime).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// isDuplicateKey reports whether an insert hit a unique index.
func isDuplicateKey(err error) bool {
	var writeException mongo.WriteException
	if errors.As(err, &writeException) {
		for _, we := range writeException.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	return false
}
