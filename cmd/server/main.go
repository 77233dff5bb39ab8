package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	portal "github.com/goliatone/go-auth-portal"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg := portal.LoadConfig()

	level := glog.Info
	if cfg.GetDebug() {
		level = glog.Trace
	}

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("portal"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg))
	fmt.Println("============")

	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.GetDSN())
	if err != nil {
		lgr.Error("open database", "error", err)
		os.Exit(1)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	users := portal.NewUsersRepository(db)
	if err := users.CreateSchema(ctx); err != nil {
		lgr.Error("create schema", "error", err)
		os.Exit(1)
	}

	sessions := portal.NewSessionManager(cfg)

	app := fiber.New(fiber.Config{
		AppName: "auth-portal",
		Views:   portal.NewViewEngine(),
	})

	portal.RegisterAuthRoutes(app,
		func(ac *portal.AuthController) *portal.AuthController {
			ac.Debug = cfg.GetDebug()
			ac.Users = users
			ac.Sessions = sessions
			ac.WithLogger(lgr.GetLogger("http"))
			return ac
		})

	go func() {
		if err := app.Listen(cfg.GetAddr()); err != nil {
			lgr.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	lgr.Info("portal listening", "addr", cfg.GetAddr())

	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		lgr.Error("shutdown", "error", err)
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
