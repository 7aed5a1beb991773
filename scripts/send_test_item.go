package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/RoGogDBD/closet/internal/config"
	"github.com/RoGogDBD/closet/internal/service"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

var (
	brands = []string{"Levi's", "Zara", "Uniqlo", "Carhartt", "Patagonia"}
	sizes  = []string{"XS", "S", "M", "L", "XL"}
)

func main() {
	category := flag.String("category", "", "Category ID for the test items")
	count := flag.Int("count", 1, "Number of test items to send")
	flag.Parse()

	categoryID, err := uuid.Parse(*category)
	if err != nil {
		log.Fatalf("Invalid -category: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "" {
		log.Fatal("Kafka brokers or topic not configured")
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Printf("kafka writer close error: %v", err)
		}
	}()

	for i := 0; i < *count; i++ {
		// Целые цены от 0 до 29 покрывают всю палитру.
		price := float64(rand.IntN(30))
		sku := fmt.Sprintf("TEST-%s", uuid.NewString()[:8])
		in := service.ItemInput{
			CategoryID: categoryID,
			ItemFields: service.ItemFields{
				Brand: brands[rand.IntN(len(brands))],
				Size:  sizes[rand.IntN(len(sizes))],
				SKU:   sku,
				Price: &price,
			},
		}

		payload, err := json.Marshal(in)
		if err != nil {
			log.Fatalf("Failed to marshal item: %v", err)
		}

		err = w.WriteMessages(context.Background(),
			kafka.Message{
				Key:   []byte(sku),
				Value: payload,
			},
		)
		if err != nil {
			log.Fatalf("Failed to send message: %v", err)
		}

		log.Printf("Message %d sent successfully with sku: %s, price: %.0f", i+1, sku, price)
	}
}
