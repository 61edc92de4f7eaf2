package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"turing-review/config"
	"turing-review/models"
	"turing-review/reviewers"
	"turing-review/services"
	"turing-review/storage"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	submissionsCounter prometheus.Counter
	decisionsCounter   *prometheus.CounterVec
)

func init() {
	submissionsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_submissions_total",
			Help: "Total number of papers submitted for review.",
		},
	)
	decisionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editorial_decisions_total",
			Help: "Total number of editorial decisions, by outcome.",
		},
		[]string{"decision"},
	)
	prometheus.MustRegister(submissionsCounter, decisionsCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		// Einreichung, Reviewer-Registrierung und alle Leseendpunkte
		// sind öffentlich; der API-Key schützt nur administrative Schreibzugriffe.
		if c.Request.Method == http.MethodGet ||
			c.FullPath() == "/submit" ||
			c.FullPath() == "/reviewers/register" ||
			c.FullPath() == "/reviewers/:id/calibrate" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.Paper{},
		&models.Review{},
		&models.EditorialDecision{},
		&models.GuestReviewer{},
		&models.GuestReviewRecord{},
	)

	// Setup Services
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	crypto, err := services.NewCrypto(cfg.GuestAPIKeySecret)
	if err != nil {
		logging.Fatal("Crypto setup failed", zap.Error(err))
	}

	staff := reviewers.BuildStaffReviewers(cfg, logging)
	editor := reviewers.NewEditor(cfg, logging)
	assignment := services.NewAssignmentService(cfg, db, logging)
	promotion := services.NewPromotionService(db, logging)
	calibration := services.NewCalibrationService(cfg, db, logging, crypto)
	rateLimit := services.NewRateLimitService(cfg, db, logging)
	mailer := services.NewMailService(cfg, logging)
	reviewService := services.NewReviewService(cfg, db, logging, staff, editor, assignment, promotion, crypto, mailer)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupSubmitRoutes(router, cfg, db, s3Client, rateLimit, reviewService, logging)
	setupPaperRoutes(router, db, logging)
	setupReviewerRoutes(router, cfg, db, crypto, calibration, logging)

	// Setup Cron: täglicher Inaktivitäts-Sweep für API-Modus-Reviewer
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled inactivity sweep...")
		count, err := promotion.ExpireInactiveAPIReviewers()
		if err != nil {
			logging.Error("Inactivity sweep failed", zap.Error(err))
		} else {
			logging.Info("Inactivity sweep completed", zap.Int("deactivated", count))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// setupSubmitRoutes konfiguriert die Manuskript-Einreichung. Die
// Review-Pipeline läuft asynchron; der Endpunkt antwortet sofort mit 202.
func setupSubmitRoutes(router *gin.Engine, cfg *config.Config, db *gorm.DB,
	s3Client *awss3.Client, rateLimit *services.RateLimitService,
	reviewService *services.ReviewService, log *zap.Logger) {

	router.POST("/submit", func(c *gin.Context) {
		type SubmitRequest struct {
			Title       string `json:"title" binding:"required"`
			Abstract    string `json:"abstract" binding:"required"`
			Authors     string `json:"authors"`
			Email       string `json:"email"`
			Keywords    string `json:"keywords"`
			ContentText string `json:"content_text"`
		}

		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: title and abstract are required"})
			return
		}
		if cfg.RequireEmail && strings.TrimSpace(req.Email) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required for submission"})
			return
		}

		allowed, msg, err := rateLimit.CheckSubmissionLimit(req.Email)
		if err != nil {
			log.Error("Rate limit check failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": msg})
			return
		}

		authors := strings.TrimSpace(req.Authors)
		if authors == "" {
			authors = "Anonymous"
		}
		paper := models.Paper{
			Title:       req.Title,
			Abstract:    req.Abstract,
			Authors:     authors,
			Email:       strings.ToLower(strings.TrimSpace(req.Email)),
			Keywords:    req.Keywords,
			ContentText: req.ContentText,
			Status:      models.StatusSubmitted,
			SubmittedAt: time.Now(),
		}
		if err := db.Create(&paper).Error; err != nil {
			log.Error("Failed to create paper", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		submissionsCounter.Inc()

		// Archivkopie ist best-effort und blockiert die Einreichung nicht.
		if paper.ContentText != "" {
			if link, err := storage.ArchiveManuscript(s3Client, cfg, paper.ID, paper.ContentText); err != nil {
				log.Warn("Manuscript archive upload failed",
					zap.Uint("paper_id", paper.ID),
					zap.Error(err))
			} else {
				db.Model(&paper).Update("s3_link", link)
			}
		}

		go func(paperID uint) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("Review pipeline panicked",
						zap.Uint("paper_id", paperID),
						zap.Any("panic", r))
				}
			}()
			if err := reviewService.RunReviewPipeline(context.Background(), paperID); err != nil {
				log.Error("Review pipeline failed",
					zap.Uint("paper_id", paperID),
					zap.Error(err))
				return
			}
			var ed models.EditorialDecision
			if err := db.Where("paper_id = ?", paperID).First(&ed).Error; err == nil {
				decisionsCounter.WithLabelValues(ed.FinalDecision).Inc()
			}
		}(paper.ID)

		c.JSON(http.StatusAccepted, gin.H{
			"paper_id": paper.ID,
			"status":   paper.Status,
			"message":  "Paper submitted. The review usually takes a few minutes.",
		})
	})
}

// setupPaperRoutes konfiguriert die Leseendpunkte für Paper, Reviews und
// Entscheidungen.
func setupPaperRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	rg := router.Group("/papers")

	rg.GET("", func(c *gin.Context) {
		query := db.Model(&models.Paper{})
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var papers []models.Paper
		if err := query.Order("submitted_at desc").Limit(200).Find(&papers).Error; err != nil {
			log.Error("Database query for papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		// Autoren sehen keine fremden E-Mail-Adressen.
		for i := range papers {
			papers[i].Email = ""
			papers[i].ContentText = ""
		}
		c.JSON(http.StatusOK, papers)
	})

	// Body-gesteuerter Endpunkt für komplexe Abfragen
	rg.POST("/query", func(c *gin.Context) {
		type PaperQuery struct {
			Status      string `json:"status"`
			Decided     *bool  `json:"decided"`
			Publication *bool  `json:"publication"`
			Limit       int    `json:"limit"`
		}

		var req PaperQuery
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		query := db.Model(&models.Paper{})
		if req.Status != "" {
			query = query.Where("status = ?", req.Status)
		}
		if req.Decided != nil {
			if *req.Decided {
				query = query.Where("decided_at IS NOT NULL")
			} else {
				query = query.Where("decided_at IS NULL")
			}
		}
		if req.Publication != nil {
			if *req.Publication {
				query = query.Where("publication_number IS NOT NULL")
			} else {
				query = query.Where("publication_number IS NULL")
			}
		}
		if req.Limit > 0 {
			query = query.Limit(req.Limit)
		}

		var papers []models.Paper
		if err := query.Order("submitted_at desc").Find(&papers).Error; err != nil {
			log.Error("Database query for papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		for i := range papers {
			papers[i].Email = ""
			papers[i].ContentText = ""
		}
		c.JSON(http.StatusOK, papers)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id := c.Param("id")

		var paper models.Paper
		if err := db.First(&paper, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
				return
			}
			log.Error("DB error loading paper", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		paper.Email = ""

		var revs []models.Review
		if err := db.Where("paper_id = ?", paper.ID).Order("reviewed_at asc").Find(&revs).Error; err != nil {
			log.Error("DB error loading reviews", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		for i := range revs {
			revs[i].RawResponse = ""
		}

		resp := gin.H{
			"paper":   paper,
			"reviews": revs,
		}
		var ed models.EditorialDecision
		if err := db.Where("paper_id = ?", paper.ID).First(&ed).Error; err == nil {
			resp["decision"] = ed
		}
		c.JSON(http.StatusOK, resp)
	})
}

// setupReviewerRoutes konfiguriert Registrierung, Kalibrierung und
// Profile der Community-Reviewer.
func setupReviewerRoutes(router *gin.Engine, cfg *config.Config, db *gorm.DB,
	crypto *services.Crypto, calibration *services.CalibrationService, log *zap.Logger) {

	rg := router.Group("/reviewers")

	rg.POST("/register", func(c *gin.Context) {
		type RegisterRequest struct {
			DisplayName    string `json:"display_name" binding:"required"`
			Email          string `json:"email" binding:"required"`
			Personality    string `json:"personality"`
			ExpertiseAreas string `json:"expertise_areas"`
			Mode           string `json:"mode" binding:"required"`
			BackendModel   string `json:"backend_model"`
			APIBaseURL     string `json:"api_base_url"`
			APIKey         string `json:"api_key"`
			APIModelName   string `json:"api_model_name"`
		}

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: display_name, email and mode are required"})
			return
		}
		switch req.Mode {
		case models.ModePrompt:
			if req.BackendModel == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "backend_model is required in prompt mode"})
				return
			}
		case models.ModeAPI:
			if req.APIBaseURL == "" || req.APIKey == "" || req.APIModelName == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "api_base_url, api_key and api_model_name are required in api mode"})
				return
			}
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'prompt' or 'api'"})
			return
		}

		encrypted, err := crypto.EncryptAPIKey(req.APIKey)
		if err != nil {
			log.Error("API key encryption failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		gr := models.GuestReviewer{
			DisplayName:     req.DisplayName,
			Email:           strings.ToLower(strings.TrimSpace(req.Email)),
			Personality:     req.Personality,
			ExpertiseAreas:  req.ExpertiseAreas,
			Mode:            req.Mode,
			BackendModel:    req.BackendModel,
			APIBaseURL:      req.APIBaseURL,
			APIKeyEncrypted: encrypted,
			APIModelName:    req.APIModelName,
			Level:           models.LevelApplicant,
			IsActive:        true,
			RegisteredAt:    time.Now(),
		}
		if err := db.Create(&gr).Error; err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "a reviewer with this email already exists"})
			return
		}

		// Kalibrierung läuft asynchron; der Status ist über das Profil abrufbar.
		go func(id uint) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("Calibration panicked", zap.Uint("reviewer_id", id), zap.Any("panic", r))
				}
			}()
			var reviewer models.GuestReviewer
			if err := db.First(&reviewer, id).Error; err != nil {
				return
			}
			if _, _, err := calibration.RunCalibration(context.Background(), &reviewer); err != nil {
				log.Error("Calibration run failed", zap.Uint("reviewer_id", id), zap.Error(err))
			}
		}(gr.ID)

		c.JSON(http.StatusCreated, gin.H{
			"reviewer_id": gr.ID,
			"level":       gr.Level,
			"level_label": gr.LevelLabel(),
			"message":     "Registered. Calibration is running; check your profile for the result.",
		})
	})

	rg.POST("/:id/calibrate", func(c *gin.Context) {
		var gr models.GuestReviewer
		if err := db.First(&gr, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "reviewer not found"})
			return
		}
		if gr.Level > models.LevelApplicant {
			c.JSON(http.StatusConflict, gin.H{"error": "reviewer is already calibrated"})
			return
		}

		passed, errMsg, err := calibration.RunCalibration(c.Request.Context(), &gr)
		if err != nil {
			log.Error("Calibration run failed", zap.Uint("reviewer_id", gr.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"passed":            passed,
			"calibration_error": errMsg,
			"level":             gr.Level,
			"level_label":       gr.LevelLabel(),
		})
	})

	rg.GET("", func(c *gin.Context) {
		var list []models.GuestReviewer
		if err := db.Where("is_active = ?", true).
			Order("level desc, registered_at asc").Find(&list).Error; err != nil {
			log.Error("Database query for reviewers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		out := make([]gin.H, 0, len(list))
		for _, gr := range list {
			var total, valid int64
			db.Model(&models.GuestReviewRecord{}).Where("guest_reviewer_id = ?", gr.ID).Count(&total)
			db.Model(&models.GuestReviewRecord{}).Where("guest_reviewer_id = ? AND format_valid = ?", gr.ID, true).Count(&valid)
			var avgLen *float64
			db.Model(&models.GuestReviewRecord{}).
				Select("AVG(comment_length)").
				Where("guest_reviewer_id = ? AND format_valid = ?", gr.ID, true).
				Scan(&avgLen)
			validRate := 0.0
			if total > 0 {
				validRate = float64(valid) / float64(total)
			}
			entry := gin.H{
				"id":            gr.ID,
				"display_name":  gr.DisplayName,
				"level":         gr.Level,
				"level_label":   gr.LevelLabel(),
				"mode":          gr.Mode,
				"total_reviews": total,
				"valid_reviews": valid,
				"valid_rate":    validRate,
			}
			if avgLen != nil {
				entry["avg_comment_length"] = *avgLen
			}
			out = append(out, entry)
		}
		c.JSON(http.StatusOK, out)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var gr models.GuestReviewer
		if err := db.First(&gr, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "reviewer not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var total, valid, sent int64
		db.Model(&models.GuestReviewRecord{}).Where("guest_reviewer_id = ?", gr.ID).Count(&total)
		db.Model(&models.GuestReviewRecord{}).Where("guest_reviewer_id = ? AND format_valid = ?", gr.ID, true).Count(&valid)
		db.Model(&models.GuestReviewRecord{}).Where("guest_reviewer_id = ? AND sent_to_editor = ?", gr.ID, true).Count(&sent)

		resp := gin.H{
			"id":                 gr.ID,
			"display_name":       gr.DisplayName,
			"expertise_areas":    gr.ExpertiseAreas,
			"mode":               gr.Mode,
			"level":              gr.Level,
			"level_label":        gr.LevelLabel(),
			"is_active":          gr.IsActive,
			"consecutive_errors": gr.ConsecutiveErrors,
			"calibration_passed": gr.CalibrationPassed,
			"calibration_error":  gr.CalibrationError,
			"registered_at":      gr.RegisteredAt,
			"last_active_at":     gr.LastActiveAt,
			"total_reviews":      total,
			"valid_reviews":      valid,
			"sent_to_editor":     sent,
		}

		if gr.Mode == models.ModePrompt {
			now := time.Now()
			monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
			var used int64
			db.Model(&models.GuestReviewRecord{}).
				Where("guest_reviewer_id = ? AND created_at >= ?", gr.ID, monthStart).
				Count(&used)
			resp["prompt_quota_used"] = used
			resp["prompt_quota_limit"] = cfg.PromptModeMonthlyQuota
		}
		c.JSON(http.StatusOK, resp)
	})
}
