package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"BookCart/internal/cart"
	"BookCart/internal/checkout"
	"BookCart/internal/orders"
	"BookCart/internal/session"
	"BookCart/internal/storefront"
	"BookCart/pkg/kit"
)

func main() {
	service := "cartd"
	log := kit.NewLogger(service, os.Getenv("LOG_DEV") == "1")
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8084")
	ordersURL := getenv("ORDERS_URL", "http://localhost:8083")
	jwtSecret := getenv("JWT_SECRET", "dev-secret")
	cartFile := getenv("CART_FILE", "cart.json")
	databaseURL := os.Getenv("DATABASE_URL")

	slot := pickSlot(databaseURL, cartFile, log)

	store := cart.NewStore(slot, log)
	sess := session.NewTokenSession(session.NewTokenMaker(jwtSecret))

	orch := &checkout.Orchestrator{
		Cart:    store,
		Session: sess,
		Orders:  orders.NewClient(ordersURL),
		Log:     log,
	}

	s := &storefront.Server{
		Cart:     store,
		Checkout: orch,
		Session:  sess,
		Log:      log,
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:      log,
		Service:  service,
		Registry: prometheus.NewRegistry(),

		MetricsEnabled: os.Getenv("METRICS_ENABLED") == "1",
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func pickSlot(databaseURL, cartFile string, log *zap.Logger) cart.Persistence {
	if databaseURL == "" {
		log.Info("using file snapshot slot", zap.String("path", cartFile))
		return cart.NewFileSlot(cartFile)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}

	slot := cart.NewPostgresSlot(db)
	if err := slot.EnsureSchema(context.Background()); err != nil {
		log.Fatal("ensure cart schema", zap.Error(err))
	}

	log.Info("using postgres snapshot slot")
	return slot
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
