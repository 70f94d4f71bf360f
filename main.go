package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/authz"
	"ripple/content"
	"ripple/handlers"
	"ripple/identity"
	"ripple/mailer"
	"ripple/media"
	"ripple/relationship"
	"ripple/routes"
	"ripple/store/mongostore"
	"ripple/token"
)

func main() {
	logger := log.New(os.Stdout, "ripple: ", log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		logger.Printf(".env file not loaded: %v", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	mongoURI := os.Getenv("MONGODB_URI")
	if jwtSecret == "" || mongoURI == "" {
		logger.Fatal("JWT_SECRET and MONGODB_URI must be set")
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "ripple"
	}

	// Connect to MongoDB with retry.
	var st *mongostore.Mongostore
	var dbErr error
	for i := 1; i <= 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		st, dbErr = mongostore.Connect(ctx, mongoURI, dbName)
		cancel()
		if dbErr == nil {
			break
		}
		logger.Printf("MongoDB connection attempt %d failed: %v", i, dbErr)
		time.Sleep(2 * time.Second)
	}
	if dbErr != nil {
		logger.Fatal("Failed to connect to MongoDB: ", dbErr)
	}
	defer func() {
		if err := st.Disconnect(); err != nil {
			logger.Printf("MongoDB disconnect: %v", err)
		}
	}()

	idxCtx, idxCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := st.EnsureIndexes(idxCtx); err != nil {
		logger.Fatal("Failed to create indexes: ", err)
	}
	idxCancel()

	// Collaborators: created once, injected, reused for the process life.
	var mediaStore media.Store = media.Disabled{}
	if url := os.Getenv("CLOUDINARY_URL"); url != "" {
		cld, err := media.NewCloudinary(url, "ripple")
		if err != nil {
			logger.Fatal("Cloudinary configuration: ", err)
		}
		mediaStore = cld
	} else {
		logger.Println("CLOUDINARY_URL not set, media uploads disabled")
	}

	var mail mailer.Sender = mailer.Noop{}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		mail = mailer.NewSMTP(host, os.Getenv("SMTP_PORT"),
			os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD"), os.Getenv("MAIL_FROM"))
	}

	issuer := token.NewIssuer(jwtSecret, token.DefaultTTL)
	az := authz.NewEngine(parseAdminIDs(os.Getenv("ADMIN_USER_IDS"), logger))
	rel := relationship.NewEngine(st)
	contentSvc := content.NewService(st, az, rel, mediaStore, logger)
	identitySvc := identity.NewService(st, az, rel, contentSvc,
		identity.BcryptHasher{}, issuer, mediaStore, mail, logger)
	handler := handlers.New(identitySvc, contentSvc, rel, logger)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := routes.SetupRouter(handler, issuer)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("Server running on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Println("Forced shutdown: ", err)
	}
	logger.Println("Server stopped")
}

// parseAdminIDs reads the comma-separated ADMIN_USER_IDS list. Accounts
// named here carry the block/unblock capability.
func parseAdminIDs(raw string, logger *log.Logger) []primitive.ObjectID {
	var ids []primitive.ObjectID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(part)
		if err != nil {
			logger.Printf("ignoring invalid admin id %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
