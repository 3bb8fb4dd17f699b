package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/go-checkout-flow/internal/awsx"
	"github.com/imrishuroy/go-checkout-flow/internal/cart"
	"github.com/imrishuroy/go-checkout-flow/internal/catalog"
	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
	"github.com/imrishuroy/go-checkout-flow/internal/config"
	"github.com/imrishuroy/go-checkout-flow/internal/fulfillment"
	"github.com/imrishuroy/go-checkout-flow/internal/handlers"
	"github.com/imrishuroy/go-checkout-flow/internal/notify"
	"github.com/imrishuroy/go-checkout-flow/internal/orders"
	"github.com/imrishuroy/go-checkout-flow/internal/provider"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	clients, err := awsx.NewClients(ctx)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	var store orders.Store
	switch os.Getenv("STORE_BACKEND") {
	case "", "dynamo":
		store = orders.NewDynamoStore(clients.DynamoDB, cfg.OrdersTable, cfg.SessionKeysTable)
	case "memory":
		store = orders.NewMemoryStore()
	default:
		log.Fatalf("unknown STORE_BACKEND %q", os.Getenv("STORE_BACKEND"))
	}

	var dispatcher notify.Dispatcher = notify.LogDispatcher{}
	if cfg.QueueURL != "" {
		dispatcher = notify.NewSQSDispatcher(clients.SQS, cfg.QueueURL, cfg.OwnerEmail)
	}

	var fallback catalog.SnapshotStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		fallback = catalog.NewRedisSnapshotStore(redis.NewClient(&redis.Options{Addr: addr}))
	}

	client := provider.NewHTTPClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)
	metrics := awsx.NewMetrics(clients.CloudWatch, "CheckoutFlow")

	pipeline := fulfillment.NewPipeline(store, client, dispatcher, orders.NewTimestampGenerator(), metrics)

	r := setupRouter(handlers.HandlerConfig{
		Provider:      client,
		Catalog:       catalog.NewCache(client, cfg.Products, fallback),
		Validator:     cart.NewValidator(client, cfg),
		Builder:       checkout.NewBuilder(cfg),
		Pipeline:      pipeline,
		Store:         store,
		WebhookSecret: cfg.WebhookSecret,
	})

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
