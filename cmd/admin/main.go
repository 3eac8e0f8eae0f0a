package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/foodable/internal/admin"
	"github.com/dmitrijs2005/foodable/internal/server"
	"github.com/dmitrijs2005/foodable/internal/server/auth"
	"github.com/dmitrijs2005/foodable/internal/server/config"
	"github.com/dmitrijs2005/foodable/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := server.NewLogger(cfg)

	connect := func(ctx context.Context) (*admin.Backend, func(), error) {
		db, repos, err := server.OpenDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.ExpiresIn, cfg.JWT.RefreshExpiresIn)
		b := &admin.Backend{
			Users:  services.NewAuthService(db, repos, tokens, auth.NewHasher(cfg.BcryptRounds), logger),
			Tokens: repos.RefreshTokens(db),
		}
		return b, func() { _ = db.Close() }, nil
	}

	app := admin.NewApp(os.Stdin, os.Stdout, logger, connect)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}

}
