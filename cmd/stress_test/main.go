package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/marketplace/internal/adapter/event"
	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/config"
	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
)

const (
	itemCount  = 20
	windowSize = 3
	buyerCount = 50
	itemPrice  = "9.99"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Initialize adapters and services
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	cart := service.NewCartService(quiet, redisAdapter, mysqlAdapter, cfg.CartMaxItems)
	orders := service.NewOrderService(quiet, service.Dependencies{
		Catalog: mysqlAdapter,
		Orders:  mysqlAdapter,
		Users:   mysqlAdapter,
		Cache:   redisAdapter,
		Events:  event.NopPublisher{},
	}, cart, service.NewOTPService(mysqlAdapter, nil))
	projector := service.NewOrderProjector(mysqlAdapter, mysqlAdapter, mysqlAdapter)

	// Seed one seller with a fresh batch of items
	run := uuid.NewString()[:8]
	seller := "stress-seller-" + run
	if err := mysqlAdapter.CreateUser(ctx, domain.User{
		ID: seller, FirstName: "Stress", LastName: "Seller", Email: seller + "@example.com",
	}); err != nil {
		log.Fatalf("failed to seed seller: %v", err)
	}

	price := decimal.RequireFromString(itemPrice)
	items := make([]domain.Item, itemCount)
	for i := range items {
		items[i] = domain.Item{
			ID:       fmt.Sprintf("stress-%s-%02d", run, i),
			Name:     fmt.Sprintf("stress item %d", i),
			Price:    price,
			Category: domain.CategoryOther,
			SellerID: seller,
			Status:   domain.ItemStatusAvailable,
		}
		if err := mysqlAdapter.CreateItem(ctx, items[i]); err != nil {
			log.Fatalf("failed to seed item: %v", err)
		}
	}

	// Counters
	var successCount atomic.Int32
	var conflictCount atomic.Int32
	var errorCount atomic.Int32

	// Every buyer checks out an overlapping window of items
	var wg sync.WaitGroup
	start := time.Now()

	for b := 0; b < buyerCount; b++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			checkout := make([]domain.CheckoutItem, 0, windowSize)
			for k := 0; k < windowSize; k++ {
				it := items[(n+k)%itemCount]
				checkout = append(checkout, domain.CheckoutItem{ItemID: it.ID, Price: it.Price})
			}

			buyer := fmt.Sprintf("stress-buyer-%s-%d", run, n)
			_, err := orders.CreateOrder(ctx, buyer, uuid.NewString(), checkout)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, service.ErrItemsUnavailable):
				conflictCount.Add(1)
			default:
				errorCount.Add(1)
				log.Printf("buyer %d: %v", n, err)
			}
		}(b)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Items:            %d\n", itemCount)
	fmt.Printf("Buyers:           %d (window of %d)\n", buyerCount, windowSize)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Unavailable:      %d\n", conflictCount.Load())
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	sold, err := projector.SoldOrders(ctx, seller)
	if err != nil {
		log.Fatalf("failed to load sold orders: %v", err)
	}
	claimed := make(map[string]int)
	for _, o := range sold {
		for _, li := range o.Items {
			claimed[li.Item.ID]++
		}
	}

	doubles := 0
	for id, n := range claimed {
		if n > 1 {
			doubles++
			fmt.Printf("FAIL: item %s claimed by %d orders\n", id, n)
		}
	}
	if doubles == 0 {
		fmt.Println("PASS: No item claimed by more than one order")
	}

	if len(claimed) == int(success)*windowSize {
		fmt.Printf("PASS: %d orders hold %d items\n", success, len(claimed))
	} else {
		fmt.Printf("FAIL: Expected %d claimed items, got %d\n", int(success)*windowSize, len(claimed))
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	current, err := mysqlAdapter.GetItems(ctx, ids)
	if err != nil {
		log.Fatalf("failed to reload items: %v", err)
	}
	soldItems := 0
	for _, it := range current {
		if !it.Available() {
			soldItems++
		}
	}
	if soldItems == len(claimed) {
		fmt.Println("PASS: Every sold item belongs to an order")
	} else {
		fmt.Printf("FAIL: %d items sold but %d claimed by orders\n", soldItems, len(claimed))
	}
}
