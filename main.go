package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"storymap-go/internal/api"
	"storymap-go/internal/handlers"
	"storymap-go/internal/push"
	"storymap-go/internal/store"
	"storymap-go/internal/worker"
)

// Shell assets pre-cached at install time. The cache version tag changes
// with each deployment so activation can prune exactly the stale caches.
var shellManifest = []string{
	"/",
	"/index.html",
	"/app.bundle.js",
	"/app.css",
	"/favicon.png",
	"/images/logo.png",
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	// Redis Configuration (offline shell cache)
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if db, err := strconv.Atoi(s); err == nil {
			redisDB = db
		}
	}

	cache := store.NewRedisCache(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// PostgreSQL Configuration (local persistent store)
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pgStore, err := store.NewPostgresStore(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	ctx := context.Background()
	if err := pgStore.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Remote story API client
	apiClient := api.NewClient(os.Getenv("STORY_API_URL"))

	// Offline cache worker proxying the deployed shell origin
	upstream := os.Getenv("SHELL_UPSTREAM")
	if upstream == "" {
		upstream = "http://localhost:9000"
	}
	cacheVersion := os.Getenv("CACHE_VERSION")
	if cacheVersion == "" {
		cacheVersion = "storymap-v1"
	}

	shellWorker := worker.New(worker.Config{
		Cache:    cache,
		Upstream: upstream,
		Version:  cacheVersion,
		Manifest: shellManifest,
		BasePath: "/",
	})

	go func() {
		if err := shellWorker.Install(ctx); err != nil {
			log.Printf("Worker install failed, serving network-only: %v", err)
			return
		}
		if err := shellWorker.Activate(ctx); err != nil {
			log.Printf("Worker activate failed: %v", err)
		}
	}()

	// VAPID keys from env, or generate them
	vapidPrivateKey := os.Getenv("VAPID_PRIVATE_KEY")
	vapidPublicKey := os.Getenv("VAPID_PUBLIC_KEY")
	if vapidPrivateKey == "" || vapidPublicKey == "" {
		log.Println("VAPID keys not found in environment. Generating new keys...")
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Fatal("Failed to generate VAPID keys:", err)
		}
		vapidPrivateKey = privateKey
		vapidPublicKey = publicKey
		log.Printf("Generated VAPID Keys:\nVAPID_PRIVATE_KEY=%s\nVAPID_PUBLIC_KEY=%s\n(Add these to your .env file to persist them)", privateKey, publicKey)
	}

	// Push subscription manager. Capability is probed once at startup.
	publicOrigin := os.Getenv("PUBLIC_ORIGIN")
	if publicOrigin == "" {
		publicOrigin = "http://localhost:8080"
	}
	pushServiceURL := os.Getenv("PUSH_SERVICE_URL")
	if pushServiceURL == "" {
		pushServiceURL = publicOrigin + "/push/receive"
	}
	pushEnabled := os.Getenv("PUSH_ENABLED") != "false"

	capability := push.ProbeCapability(pushServiceURL, pushEnabled)
	log.Printf("Push capability: %s", capability)

	platform := push.NewLocalPlatform(pushServiceURL, push.PermissionGranted)
	pushManager := push.NewManager(push.Config{
		Capability: capability,
		Platform:   platform,
		Registrar:  apiClient,
		Settings:   pgStore,
		Worker:     shellWorker,
		Origin:     publicOrigin,
		ServerKey:  vapidPublicKey,
		Token: func(ctx context.Context) string {
			token, _, _ := pgStore.GetSetting(ctx, store.SettingAuthToken)
			return token
		},
	})

	h := handlers.NewHandler(pgStore, apiClient, pushManager, shellWorker)
	h.VAPIDPublicKey = vapidPublicKey
	h.VAPIDPrivateKey = vapidPrivateKey
	h.Subscriber = os.Getenv("PUSH_SUBSCRIBER")
	if h.Subscriber == "" {
		h.Subscriber = "mailto:admin@example.com"
	}

	// Auth routes
	http.HandleFunc("/api/login", h.LoginHandler)
	http.HandleFunc("/api/register", h.RegisterHandler)
	http.HandleFunc("/api/logout", h.LogoutHandler)
	http.HandleFunc("/api/session", h.SessionHandler)

	// Story routes
	http.HandleFunc("/api/stories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetStoriesHandler(w, r)
		case http.MethodPost:
			h.AddStoryHandler(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Bookmark routes
	http.HandleFunc("/api/bookmarks", handlers.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetBookmarksHandler(w, r)
		case http.MethodPost:
			h.AddBookmarkHandler(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	http.HandleFunc("/api/bookmarks/", handlers.AuthMiddleware(h.BookmarkByIDHandler))

	// Push routes
	http.HandleFunc("/api/push/vapid-public-key", h.GetVAPIDKeyHandler)
	http.HandleFunc("/api/push/subscribe", handlers.AuthMiddleware(h.SubscribePushHandler))
	http.HandleFunc("/api/push/unsubscribe", handlers.AuthMiddleware(h.UnsubscribePushHandler))
	http.HandleFunc("/api/push/status", h.PushStatusHandler)
	http.HandleFunc("/api/push/send", handlers.AuthMiddleware(h.SendPushHandler))
	http.HandleFunc("/push/receive", h.ReceivePushHandler)

	// Metrics
	http.Handle("/metrics", promhttp.Handler())

	// Everything else goes through the offline cache worker: cache-first
	// with network fallback, shell fallback for offline navigations.
	http.Handle("/", shellWorker)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Listening on :" + port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}
