package main

import (
	"log"
	"time"

	"penaltybox-backend/config"
	"penaltybox-backend/database"
	"penaltybox-backend/handlers"
	"penaltybox-backend/middleware"
	"penaltybox-backend/services"
	"penaltybox-backend/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Connect to Redis (optional, won't crash if unavailable)
	rdb := database.ConnectRedis(cfg)

	// Blob storage for proof uploads and thumbnails
	storage, err := services.NewStorage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	// Background image pipeline
	tasks := services.NewTaskRunner(db, storage, cfg.ThumbnailWidth, cfg.ThumbnailHeight, cfg.TaskQueueSize)
	tasks.Start(cfg.TaskWorkers)
	defer tasks.Stop()

	// Services
	notifier := services.NewNotifier(cfg)
	tokens := services.NewTokenStore(rdb, utils.TokenTTL)
	members := services.NewMembershipService(db)
	rules := services.NewRuleService(db)
	penalties := services.NewPenaltyService(db, notifier)
	proofs := services.NewProofService(db, storage, tasks, notifier)
	payments := services.NewPaymentService(db, cfg.AllowAdminCrossAllocation)

	h := handlers.New(cfg, db, members, rules, penalties, proofs, payments, tokens)

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// Health check
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"message":   cfg.AppName + " is running",
			"timestamp": time.Now().UTC(),
		})
	})

	// Stored blobs (thumbnails and not-yet-processed originals)
	r.Static("/uploads", storage.BasePath())

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired(cfg.JWTSecret, tokens))
	{
		// Users
		api.GET("/users", h.ListUsers)
		api.PUT("/users/:id", h.UpdateUser)
		api.POST("/users/:id/change-password", h.ChangePassword)

		// Groups
		api.POST("/groups", h.CreateGroup)
		api.GET("/groups", h.GetGroups)
		api.GET("/groups/:id", h.GetGroup)
		api.POST("/groups/:id/members", h.AddMember)
		api.DELETE("/groups/:id/members/:uid", h.RemoveMember)
		api.GET("/groups/:id/leaderboard", h.GetLeaderboard)

		// Rules
		api.POST("/groups/:id/rules", h.CreateRule)
		api.GET("/groups/:id/rules", h.GetRules)
		api.PUT("/groups/:id/rules/:rule_id", h.UpdateRule)
		api.DELETE("/groups/:id/rules/:rule_id", h.DeleteRule)

		// Penalties
		api.POST("/penalties", h.CreatePenalty)
		api.GET("/penalties", h.GetPenalties)
		api.GET("/penalties/user/:id", h.GetUserPenalties)
		api.PUT("/penalties/:id/status", h.UpdatePenaltyStatus)

		// Proofs
		api.POST("/proofs/upload/:penalty_id", h.UploadProof)
		api.GET("/proofs/penalty/:id", h.GetProofsForPenalty)
		api.GET("/proofs", h.GetProofs)
		api.POST("/proofs/:id/approve", h.ApproveProof)
		api.POST("/proofs/:id/decline", h.DeclineProof)
		api.DELETE("/proofs/:id", h.DeleteProof)

		// Payments
		api.POST("/payments", h.RecordPayment)
		api.POST("/payments/cash/:penalty_id", h.RecordCashPayment)
		api.GET("/payments", h.GetPayments)
	}

	// Start server
	addr := "0.0.0.0:" + cfg.Port
	log.Printf("🚀 %s server starting on %s", cfg.AppName, addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
