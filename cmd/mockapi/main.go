// mockapi serves the in-memory fake of the kindness backend, seeded with a
// demo admin, a demo user and a few acts, so the CLI has something to talk
// to during local work.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kindacts/kindcli/internal/fakeapi"
	"github.com/kindacts/kindcli/internal/models"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	addr := getenv("MOCKAPI_ADDR", ":4000")

	srv := fakeapi.NewServer()
	admin := srv.SeedUser("admin", "admin@example.com", "admin", models.RoleAdmin)
	user := srv.SeedUser("demo", "demo@example.com", "demo", models.RoleUser)
	srv.SeedAct("Hold the door for a stranger", models.StatusApproved, user)
	srv.SeedAct("Write a thank-you note", models.StatusApproved, admin)
	srv.SeedAct("Pay for the next person's coffee", models.StatusPending, user)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	srv.Register(e)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start: %v", err)
		}
	}()
	log.Printf("mock kindness API on %s (demo@example.com/demo, admin@example.com/admin)", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
