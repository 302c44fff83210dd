package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/rules"
)

func main() {
	file := flag.String("file", "", "rules document to seed; empty seeds the built-in fixtures")
	key := flag.String("key", "", "redis key (default RULES_REDIS_KEY or "+rules.DefaultRedisKey+")")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		log.Fatal("REDIS_URL is not set")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to ping redis: %v", err)
	}

	tables := rules.Fixtures()
	if *file != "" {
		tables, err = rules.LoadFile(*file)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", *file, err)
		}
	}

	target := strings.TrimSpace(*key)
	if target == "" {
		target = strings.TrimSpace(os.Getenv("RULES_REDIS_KEY"))
	}
	store := rules.NewRedis(client, target)
	if err := store.Store(ctx, tables); err != nil {
		log.Fatalf("Failed to store rules: %v", err)
	}
	log.Printf("Seeded %s: %s", store.Key(), summary(tables))
}

func summary(t discount.Tables) string {
	var b strings.Builder
	b.WriteString(plural(len(t.Brands), "brand"))
	b.WriteString(", ")
	b.WriteString(plural(len(t.Categories), "category"))
	b.WriteString(", ")
	b.WriteString(plural(len(t.Vouchers), "voucher"))
	b.WriteString(", ")
	b.WriteString(plural(len(t.BankOffers), "bank offer"))
	return b.String()
}

func plural(n int, noun string) string {
	s := strconv.Itoa(n) + " " + noun
	if n == 1 {
		return s
	}
	if strings.HasSuffix(noun, "y") {
		return strings.TrimSuffix(s, "y") + "ies"
	}
	return s + "s"
}
