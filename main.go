// Package main library record API.
//
// @title           Library Records API
// @version         1.0
// @description     library record service (books, members, borrows, reviews, recommendations).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"librecords/app/echoServer"
	authctrl "librecords/app/echoServer/controller/auth"
	bookctrl "librecords/app/echoServer/controller/book"
	borrowctrl "librecords/app/echoServer/controller/borrow"
	logctrl "librecords/app/echoServer/controller/logs"
	memberctrl "librecords/app/echoServer/controller/member"
	recommendctrl "librecords/app/echoServer/controller/recommend"
	reviewctrl "librecords/app/echoServer/controller/review"
	"librecords/app/echoServer/validation"
	"librecords/config"
	"librecords/migrations"
	authrepo "librecords/repository/auth"
	bookrepo "librecords/repository/book"
	borrowrepo "librecords/repository/borrow"
	memberrepo "librecords/repository/member"
	requestlogrepo "librecords/repository/requestlog"
	reviewrepo "librecords/repository/review"
	authsvc "librecords/service/auth"
	booksvc "librecords/service/book"
	"librecords/service/ledger"
	membersvc "librecords/service/member"
	recommendsvc "librecords/service/recommend"
	reviewsvc "librecords/service/review"
	"librecords/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db.Pool); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// repos
	ar := authrepo.New(db)
	bkr := bookrepo.New(db)
	mr := memberrepo.New(db)
	brr := borrowrepo.New(db)
	rvr := reviewrepo.New(db)
	lr := requestlogrepo.New(db)

	// services
	as := authsvc.New(ar, cfg.JWTSecret, cfg.TokenTTL)
	bs := booksvc.New(bkr, brr)
	ms := membersvc.New(mr, brr)
	ls := ledger.New(brr, bkr, mr)
	rs := recommendsvc.New(brr, bkr, mr)
	rvs := reviewsvc.New(rvr)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	memberC := &memberctrl.Controller{Svc: ms, V: v, Log: log}
	borrowC := &borrowctrl.Controller{Svc: ls, V: v, Log: log}
	recommendC := &recommendctrl.Controller{Svc: rs, Log: log}
	reviewC := &reviewctrl.Controller{Svc: rvs, V: v, Log: log}
	logC := &logctrl.Controller{Repo: lr, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e, log, lr)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:      authC,
		Book:      bookC,
		Member:    memberC,
		Review:    reviewC,
		Borrow:    borrowC,
		Recommend: recommendC,
		Logs:      logC,
		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	slog.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
