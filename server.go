package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/middlewares"
	"github.com/CJB-2702/Armada-PBMS-sub001/models"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"github.com/CJB-2702/Armada-PBMS-sub001/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = "8080"

var tracer = otel.Tracer("armada-pbms")

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(os.Getenv("CORS_ALLOW_ORIGINS"), ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Business-Id", "X-User-Id", "X-User-Name", "X-Correlation-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		// redis is nil until ConnectRedisWithRetry finishes; the probe stays
		// 200 because the cache layer degrades to db reads
		if rdb := config.GetRedisDB(); rdb == nil {
			status["redis"] = "connecting"
		} else if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			status["redis"] = "down"
		} else {
			status["redis"] = "ok"
		}
		c.JSON(http.StatusOK, status)
	})

	api := r.Group("/", middlewares.SessionMiddleware())

	// asset models
	api.POST("/asset-models", createHandler(models.CreateAssetModel))
	api.GET("/asset-models", func(c *gin.Context) {
		name := queryString(c, "name")
		results, err := models.GetAssetModels(c.Request.Context(), name)
		respondList(c, results, err)
	})
	api.GET("/asset-models/:id", idHandler(models.GetAssetModel))
	api.PUT("/asset-models/:id", updateHandler(models.UpdateAssetModel))
	api.POST("/asset-models/:id/toggle-active", toggleActiveHandler(models.ToggleActiveAssetModel))
	api.PUT("/asset-models/:id/details/service-schedule", updateHandler(models.UpdateServiceSchedule))

	// assets
	api.POST("/assets", createHandler(models.CreateAsset))
	api.GET("/assets", func(c *gin.Context) {
		assetNumber := queryString(c, "asset_number")
		modelId := queryInt(c, "model_id")
		results, err := models.GetAssets(c.Request.Context(), assetNumber, modelId)
		respondList(c, results, err)
	})
	api.GET("/assets/:id", idHandler(models.GetAsset))
	api.PUT("/assets/:id", updateHandler(models.UpdateAsset))
	api.POST("/assets/:id/status", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input struct {
			Status models.AssetStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		asset, err := models.UpdateAssetStatus(c.Request.Context(), id, input.Status)
		respondOne(c, asset, err)
	})
	api.PUT("/assets/:id/details/purchase-info", updateHandler(models.UpdatePurchaseInfo))
	api.PUT("/assets/:id/details/vehicle-registration", updateHandler(models.UpdateVehicleRegistration))
	api.PUT("/assets/:id/details/safety-checklist", updateHandler(models.UpdateSafetyChecklist))
	api.PUT("/assets/:id/details/warranty-receipt", updateHandler(models.UpdateWarrantyReceipt))
	api.PUT("/assets/:id/details/meter-log", updateHandler(models.UpdateMeterLog))

	// dispatches
	api.POST("/dispatches", createHandler(models.CreateDispatch))
	api.GET("/dispatches", func(c *gin.Context) {
		assetId := queryInt(c, "asset_id")
		results, err := models.GetDispatches(c.Request.Context(), assetId, nil)
		respondList(c, results, err)
	})
	api.GET("/dispatches/:id", idHandler(models.GetDispatch))
	api.PUT("/dispatches/:id/details/trip-ticket", updateHandler(models.UpdateTripTicket))
	api.POST("/dispatches/:id/close", func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input struct {
			OdometerIn decimal.Decimal `json:"odometer_in"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dispatch, err := models.CloseDispatch(c.Request.Context(), id, input.OdometerIn)
		respondOne(c, dispatch, err)
	})

	// attachment configuration
	api.POST("/attachment-rules", createHandler(models.CreateAttachmentRule))
	api.GET("/attachment-rules", func(c *gin.Context) {
		results, err := models.GetAttachmentRules(c.Request.Context())
		respondList(c, results, err)
	})
	api.POST("/attachment-rules/:id/toggle-active", toggleActiveHandler(models.ToggleActiveAttachmentRule))

	// audit trail
	api.GET("/histories", func(c *gin.Context) {
		referenceId := queryInt(c, "reference_id")
		referenceType := queryString(c, "reference_type")
		if referenceId == nil || referenceType == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference_type and reference_id are required"})
			return
		}
		results, err := models.GetHistories(c.Request.Context(), *referenceType, *referenceId)
		respondList(c, results, err)
	})

	// the detail-attachment boundary: list everything attached to one owner,
	// or retroactively materialize missing attachments
	api.GET("/owners/:category/:id/attachments", func(c *gin.Context) {
		category, ownerId, ok := ownerParams(c)
		if !ok {
			return
		}
		results, err := models.ListDetailAttachments(c.Request.Context(), category, ownerId)
		respondList(c, results, err)
	})
	api.GET("/owners/:category/:id/attachments/:key", func(c *gin.Context) {
		category, ownerId, ok := ownerParams(c)
		if !ok {
			return
		}
		record, err := models.FindDetailRecord(c.Request.Context(), category, ownerId, c.Param("key"))
		respondOne(c, record, err)
	})
	api.DELETE("/owners/:category/:id/attachments/:key", func(c *gin.Context) {
		category, ownerId, ok := ownerParams(c)
		if !ok {
			return
		}
		err := models.DeleteDetailAttachment(c.Request.Context(), category, ownerId, c.Param("key"))
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
	api.POST("/owners/:category/:id/attach", func(c *gin.Context) {
		category, ownerId, ok := ownerParams(c)
		if !ok {
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "attach.explicit",
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		created, err := models.AttachDetailsForOwner(ctx, category, ownerId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "owner not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"created": len(created)})
	})

	// Start listening immediately (startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations as
	// a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// The registry is populated once here; it is never mutated at request time.
	models.RegisterBuiltinDetailKinds()

	// Start the attachment sweeper (retroactive attach after rule changes).
	sweeperCtx, cancelSweeper := context.WithCancel(context.Background())
	defer cancelSweeper()
	if seconds := intFromEnv("ATTACHMENT_SWEEP_SECONDS", 0); seconds > 0 {
		go workflow.NewAttachmentSweeper(db, logger, time.Duration(seconds)*time.Second).Run(sweeperCtx)
	}

	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelSweeper()

	// Drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

// createHandler binds a New* input and runs the model's create function.
func createHandler[In any, Out any](create func(ctx context.Context, input *In) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input In
		if err := c.ShouldBindJSON(&input); err != nil {
			var validationErrors validator.ValidationErrors
			if errors.As(err, &validationErrors) {
				c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := create(c.Request.Context(), &input)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// updateHandler binds an input body and runs an id-keyed update function.
func updateHandler[In any, Out any](update func(ctx context.Context, id int, input *In) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input In
		if err := c.ShouldBindJSON(&input); err != nil {
			var validationErrors validator.ValidationErrors
			if errors.As(err, &validationErrors) {
				c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := update(c.Request.Context(), id, &input)
		respondOne(c, result, err)
	}
}

func idHandler[Out any](get func(ctx context.Context, id int) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		result, err := get(c.Request.Context(), id)
		respondOne(c, result, err)
	}
}

func toggleActiveHandler[Out any](toggle func(ctx context.Context, id int, isActive bool) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input struct {
			IsActive *bool `json:"is_active" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := toggle(c.Request.Context(), id, *input.IsActive)
		respondOne(c, result, err)
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func ownerParams(c *gin.Context) (models.OwnerCategory, int, bool) {
	category, err := models.ParseOwnerCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", 0, false
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return "", 0, false
	}
	return category, id, true
}

func respondOne(c *gin.Context, result interface{}, err error) {
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func respondList(c *gin.Context, results interface{}, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func queryString(c *gin.Context, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}

func queryInt(c *gin.Context, key string) *int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
