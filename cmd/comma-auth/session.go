package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/commasconnect/comma-auth/auth"
	"github.com/commasconnect/comma-auth/authservice"
	"github.com/commasconnect/comma-auth/internal/config"
	"github.com/commasconnect/comma-auth/storage"
	"github.com/commasconnect/comma-auth/storage/filestore"
	"github.com/commasconnect/comma-auth/storage/redisstore"
	"github.com/commasconnect/comma-auth/storage/repofake"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// openStore builds the session store selected by the --store flag
func openStore(cctx *cli.Context) (storage.Repo, error) {
	c := config.New()

	switch config.StoreBackend(cctx.String("store")) {
	case config.StoreBackendMemory:
		return repofake.NewFakeStore(), nil
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		store, err := redisstore.New(client, c.GetRedisPrefix())
		if err != nil {
			return nil, err
		}
		if user := cctx.String("user"); user != "" {
			return store.ForUser(user), nil
		}
		return store, nil
	case config.StoreBackendFile, "":
		return filestore.New(cctx.String("state-file"))
	}
	return nil, errors.Errorf("unknown store backend %q", cctx.String("store"))
}

func newClient(cctx *cli.Context) (*authservice.Client, error) {
	return authservice.New(cctx.String("auth-url"),
		authservice.WithHTTPClient(&http.Client{Timeout: cctx.Duration("timeout")}),
	)
}

// printNavigator prints URLs instead of opening them; a terminal has no
// browser to redirect.
func printNavigator(cctx *cli.Context) auth.Navigator {
	return auth.NavigatorFunc(func(_ context.Context, url string) error {
		_, err := fmt.Fprintln(cctx.App.Writer, url)
		return err
	})
}

func newManager(cctx *cli.Context) (*auth.Manager, *authservice.Client, error) {
	client, err := newClient(cctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(cctx)
	if err != nil {
		return nil, nil, err
	}
	m, err := auth.New(client, store,
		auth.WithNavigator(printNavigator(cctx)),
		auth.WithLogger(log.With().Str("component", "auth").Logger()),
	)
	if err != nil {
		return nil, nil, err
	}
	return m, client, nil
}
