package main

import (
	"context"
	"log"
	"os"

	"ai-postgen-be/internal/repository/implementation"
	"ai-postgen-be/pkg/database"
	"ai-postgen-be/pkg/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding Product Catalog...")

	products := []store.Product{
		{ID: "cua-ca-mau", Name: "Cua gạch Cà Mau", Description: "Cua gạch son nuôi quảng canh, giao sống trong ngày", Price: 450000, Unit: "kg"},
		{ID: "tom-hum-bong", Name: "Tôm hùm bông", Description: "Tôm hùm bông Nha Trang, size 0.8 đến 1.2kg mỗi con", Price: 1650000, Unit: "kg"},
		{ID: "ghe-xanh", Name: "Ghẹ xanh", Description: "Ghẹ xanh Phú Quốc chắc thịt, đánh bắt trong đêm", Price: 520000, Unit: "kg"},
		{ID: "hau-sua", Name: "Hàu sữa Pháp", Description: "Hàu sữa nuôi tại Long Sơn, ăn sống hoặc nướng mỡ hành", Price: 180000, Unit: "chục"},
		{ID: "muc-ong", Name: "Mực ống câu", Description: "Mực ống câu tươi, thân dày, hợp hấp gừng hoặc chiên giòn", Price: 390000, Unit: "kg"},
	}

	repo := implementation.NewProductRepository(db)
	ctx := context.Background()
	for i := range products {
		p := &products[i]
		if err := repo.Upsert(ctx, p); err != nil {
			log.Printf("Error seeding product '%s': %v", p.ID, err)
			continue
		}
		log.Printf("Seeded product: %s (%s)", p.Name, p.ID)
	}

	log.Println("Product seeding completed!")
}
