// api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bazario/api/database"
	"bazario/api/handlers"
	"bazario/api/middleware"
	"bazario/api/search"
	"bazario/api/store"
	"bazario/api/suggest"
)

func main() {
	// Load .env file at the very start
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Initialize PostgreSQL Database (users, products) ---
	dbClient, err := database.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
	}
	defer dbClient.Close()

	// --- Initialize ClickHouse Database (search activity log) ---
	chClient, err := database.NewClickHouseDB()
	if err != nil {
		log.Fatalf("Failed to initialize ClickHouse database: %v", err)
	}
	defer chClient.Close()

	// --- Initialize Stores ---
	userStore := store.NewUserStore(dbClient.DB)
	productStore := store.NewProductStore(dbClient.DB)
	activityStore := store.NewActivityStore(chClient)

	// --- Suggestion engine over the two stores ---
	engine := suggest.NewEngine(activityStore, productStore)

	// --- Instant-search index over a startup catalog snapshot ---
	index := search.NewIndex(nil, 0)
	loadCatalogSnapshot(productStore, index)

	// --- Initialize Handlers ---
	authHandlers := handlers.NewAuthHandlers(userStore, handlers.NewGoogleVerifier())
	recommendationHandlers := handlers.NewRecommendationHandlers(activityStore, engine)
	productHandlers := handlers.NewProductHandlers(productStore, index)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")
	{
		// Authentication Endpoints (no authentication required)
		api.POST("/register", authHandlers.Register)
		api.POST("/login", authHandlers.Login)
		api.POST("/google-signin", authHandlers.GoogleSignIn)
		api.POST("/logout", authHandlers.Logout)

		// Catalog Endpoints (no authentication required)
		api.GET("/products/approved", productHandlers.ListApproved)
		api.GET("/instant-search", productHandlers.InstantSearch)

		// Tracking and suggestions identify the user when a token is
		// present but never reject anonymous visitors.
		optional := api.Group("/")
		optional.Use(middleware.OptionalAuth())
		{
			optional.POST("/track-search", recommendationHandlers.TrackSearch)
			optional.GET("/suggestions", recommendationHandlers.GetSuggestions)
		}

		// Protected Routes (require a valid JWT token)
		protected := api.Group("/")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/search-trends", recommendationHandlers.GetSearchTrends)
			protected.GET("/profile", func(c *gin.Context) {
				userID := c.MustGet("user_id").(int64)
				userEmail := c.MustGet("user_email").(string)
				userRole := c.MustGet("user_role").(string)

				c.JSON(http.StatusOK, gin.H{
					"success":    true,
					"user_id":    userID,
					"user_email": userEmail,
					"user_role":  userRole,
				})
			})
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Go API server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Go API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// loadCatalogSnapshot fills the instant-search index with the approved
// catalog. The snapshot is point-in-time: it is not kept consistent with
// later catalog mutations. Failure leaves the index empty; instant search
// degrades to no results while the rest of the API works.
func loadCatalogSnapshot(productStore *store.ProductStore, index *search.Index) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	products, total, err := productStore.ListApproved(ctx, 1, 1000)
	if err != nil {
		log.Printf("Failed to load catalog snapshot for instant search: %v", err)
		return
	}

	index.Reload(products)
	log.Printf("Instant-search index loaded with %d of %d approved products.", len(products), total)
}
