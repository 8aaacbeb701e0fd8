package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/patternpuzzle/assets"
	"github.com/robalobadob/patternpuzzle/internal/auth"
	"github.com/robalobadob/patternpuzzle/internal/database"
	"github.com/robalobadob/patternpuzzle/internal/httpserver"
	"github.com/robalobadob/patternpuzzle/internal/levels"
	"github.com/robalobadob/patternpuzzle/internal/progress"
	"github.com/robalobadob/patternpuzzle/internal/store"
)

// Sessions untouched for this long are dropped from memory.
const sessionIdle = 30 * time.Minute

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := levels.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load levels")
	}
	cat := levels.Default()

	db, err := database.Open(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	migrations, err := assets.Migrations()
	if err != nil {
		log.Fatal().Err(err).Msg("load migrations")
	}
	if err := database.Migrate(db, migrations); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	go sweep(ctx, mem)

	srv := httpserver.New(httpserver.Options{
		Store:    mem,
		Progress: progress.NewStore(db, cat.Count()),
		Auth: auth.New(db, auth.Config{
			Secret:      os.Getenv("JWT_SECRET"),
			ExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
			CookieName:  getEnv("COOKIE_NAME", "pattern_token"),
			Secure:      os.Getenv("NODE_ENV") == "production",
		}),
		Levels:       cat,
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
	})

	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Int("levels", cat.Count()).Msg("starting go-server")
	if err := srv.Start(ctx, ":"+port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// sweep drops idle sessions until ctx is cancelled.
func sweep(ctx context.Context, st store.Store) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := st.Sweep(ctx, now.Add(-sessionIdle)); n > 0 {
				log.Debug().Int("sessions", n).Msg("swept idle sessions")
			}
		}
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}
