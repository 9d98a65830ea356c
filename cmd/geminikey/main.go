// Command geminikey provisions the Gemini API key into the configured state
// store from the command line, for deployments where the key should not pass
// through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/store"
)

func main() {
	_ = godotenv.Load()

	key := flag.String("key", "", "Gemini API key to store")
	flag.Parse()

	if *key == "" {
		fmt.Fprintln(os.Stderr, "usage: geminikey -key <api-key>")
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	kv, err := store.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "store:", err)
		os.Exit(1)
	}
	defer kv.Close()

	if err := credentials.NewStore(kv).SetGeminiAPIKey(ctx, *key); err != nil {
		fmt.Fprintln(os.Stderr, "store key:", err)
		os.Exit(1)
	}
	fmt.Println("gemini key stored")
}
