package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"greenlens/internal/ai"
	"greenlens/internal/db"
	"greenlens/internal/handlers"
	mw "greenlens/internal/middleware"
	"greenlens/internal/services"
	"greenlens/internal/uploads"
)

func mustGetenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	mongoURI := mustGetenv("MONGODB_URI", "mongodb://localhost:27017")
	dbName := mustGetenv("MONGODB_DB", "greenlens")
	port := mustGetenv("PORT", "8080")
	clientURL := mustGetenv("CLIENT_URL", "http://localhost:3000")
	uploadPath := mustGetenv("UPLOAD_PATH", "./uploads")

	conn, err := db.Connect(mongoURI, dbName)
	if err != nil {
		slog.Error("failed to connect to mongodb", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := conn.Disconnect(); err != nil {
			slog.Warn("mongodb disconnect failed", slog.Any("err", err))
		}
	}()

	store, err := uploads.NewStore(uploadPath, "/uploads")
	if err != nil {
		slog.Error("failed to prepare upload directory", slog.Any("err", err))
		os.Exit(1)
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		slog.Warn("GEMINI_API_KEY not set; AI features will report unavailable")
	}
	gen, err := ai.NewGeminiGenerator(context.Background(), ai.Config{
		APIKey: geminiKey,
		Model:  os.Getenv("GEMINI_MODEL"),
	})
	if err != nil {
		slog.Error("failed to create gemini client", slog.Any("err", err))
		os.Exit(1)
	}

	ledger := services.NewLedger(conn.Database)
	quests := services.NewQuests(conn.Database, ledger, gen)
	leaderboard := services.NewLeaderboard(conn.Database)

	authHandler := handlers.NewAuthHandler(conn.Database, ledger, []byte(jwtSecret))
	usersHandler := handlers.NewUsersHandler(ledger)
	pointsHandler := handlers.NewPointsHandler(conn.Database, ledger)
	actionsHandler := handlers.NewActionsHandler(conn.Database)
	questsHandler := handlers.NewQuestsHandler(quests, store)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboard)
	imageHandler := handlers.NewImageHandler(gen, store, ledger)
	disposalHandler := handlers.NewDisposalHandler(conn.Database, clientURL)
	authMW := mw.NewAuthMiddleware([]byte(jwtSecret), ledger)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		slog.Error("failed to create request logger", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.ZapRequestLogger(zapLogger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		environment := mustGetenv("APP_ENV", "development")
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":      "ok",
				"environment": environment,
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
			})
		})

		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)

		api.Get("/leaderboard", leaderboardHandler.Rank)
		api.Get("/leaderboard/stats", leaderboardHandler.Stats)

		api.Get("/disposal-results/{id}", disposalHandler.Get)

		api.Group(func(opt chi.Router) {
			opt.Use(authMW.OptionalAuth)
			opt.Post("/image/analyze", imageHandler.Analyze)
			opt.Post("/image/identify", imageHandler.Identify)
			opt.Post("/image/find-products", imageHandler.FindProducts)
			opt.Post("/disposal-results", disposalHandler.Create)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)

			pr.Get("/auth/me", authHandler.Me)
			pr.Put("/auth/updatedetails", authHandler.UpdateDetails)
			pr.Put("/auth/updatepassword", authHandler.UpdatePassword)

			pr.Get("/users", usersHandler.List)
			pr.Get("/users/{id}", usersHandler.Get)

			pr.Post("/points/add", pointsHandler.Add)
			pr.Get("/points/history", pointsHandler.History)
			pr.Post("/points/record-action", pointsHandler.RecordAction)

			pr.Post("/actions", actionsHandler.Create)
			pr.Get("/actions", actionsHandler.List)
			pr.Get("/actions/{id}", actionsHandler.Get)
			pr.Put("/actions/{id}", actionsHandler.Update)
			pr.Delete("/actions/{id}", actionsHandler.Delete)

			pr.Get("/quests/available", questsHandler.Available)
			pr.Get("/quests/active", questsHandler.Active)
			pr.Get("/quests/completed", questsHandler.Completed)
			pr.Post("/quests/assign/{id}", questsHandler.Assign)
			pr.Post("/quests/complete/{id}", questsHandler.Complete)
			pr.Get("/quests/impact", questsHandler.Impact)
		})
	})

	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(store.Dir())))
	r.Get("/uploads/*", fs.ServeHTTP)

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		slog.Info("server starting", slog.String("addr", ":"+port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.Any("err", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutdown initiated")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	slog.Info("server stopped")
}
