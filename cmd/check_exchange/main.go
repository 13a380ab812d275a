package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dyoh/upbitwatch/internal/config"
	"github.com/dyoh/upbitwatch/internal/infrastructure/exchange"
)

// maskKey shows only the first characters of a credential.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "..."
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	market := flag.String("market", "KRW-BTC", "market code to query")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	secrets, err := config.SecretsFromEnv("")
	if err != nil {
		fmt.Printf("Missing credentials: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing Upbit Interaction...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Exchange.RESTEndpoint)
	fmt.Printf("Access Key: %s\n", maskKey(secrets.UpbitAccessKey))

	adapter, err := exchange.NewUpbitAdapter(secrets.UpbitAccessKey, secrets.UpbitSecretKey, cfg.Exchange.RESTEndpoint, zap.NewNop())
	if err != nil {
		fmt.Printf("Failed to init adapter: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()

	// Public endpoint
	price, err := adapter.GetPrice(ctx, *market)
	if err != nil {
		fmt.Printf("❌ Failed to get price: %v\n", err)
	} else {
		fmt.Printf("✅ Current Price (%s): %f\n", *market, price)
	}

	// Private endpoint
	accounts, err := adapter.GetAccounts(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to get accounts: %v\n", err)
		return
	}
	fmt.Printf("✅ Accounts (%d):\n", len(accounts))
	for _, a := range accounts {
		fmt.Printf("  %s: balance=%f locked=%f avg_buy=%f\n",
			a.Currency, a.Balance, a.Locked, a.AvgBuyPrice)
	}
}
