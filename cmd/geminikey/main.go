// Command geminikey stores or inspects the Gemini API key kept in the
// database. The API reads it at startup when GEMINI_API_KEY is unset.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"yardcraft/internal/infra"
	"yardcraft/internal/infra/credentials"
)

type keyStore interface {
	GeminiAPIKey(ctx context.Context) (string, error)
	SetGeminiAPIKey(ctx context.Context, key string) error
}

func main() {
	_ = godotenv.Load()

	key := flag.String("key", "", "Gemini API key to store (defaults to GEMINI_API_KEY)")
	show := flag.Bool("show", false, "print the stored key, masked, and exit")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "geminikey: DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, &infra.Config{DatabaseURL: dbURL})
	if err != nil {
		fmt.Fprintf(os.Stderr, "geminikey: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "geminikey").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	input := *key
	if input == "" {
		input = os.Getenv("GEMINI_API_KEY")
	}
	if err := run(ctx, os.Stdout, store, input, *show); err != nil {
		fmt.Fprintf(os.Stderr, "geminikey: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, store keyStore, key string, show bool) error {
	if show {
		stored, err := store.GeminiAPIKey(ctx)
		if err != nil {
			return err
		}
		if stored == "" {
			fmt.Fprintln(out, "no key stored")
			return nil
		}
		fmt.Fprintln(out, mask(stored))
		return nil
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("a key is required via -key or GEMINI_API_KEY")
	}
	if err := store.SetGeminiAPIKey(ctx, key); err != nil {
		return err
	}
	fmt.Fprintf(out, "stored %s, restart the API to pick it up\n", mask(strings.TrimSpace(key)))
	return nil
}

// mask keeps the last four characters.
func mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
