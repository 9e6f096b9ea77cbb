package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/commasconnect/comma-auth/internal/config"
	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if err := config.LoadEnv(".env", "~/.config/comma-auth/.env"); err != nil {
		return err
	}
	c := config.New()

	app := &cli.App{
		Name:      "comma-auth",
		Usage:     "sign in to Comma services from the command line",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "auth-url",
				Usage:   "base URL of the Comma Central Auth service",
				Value:   c.GetAuthURL(),
				EnvVars: []string{"COMMA_AUTH_URL"},
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "session store backend: file, redis or memory",
				Value: string(c.GetStoreBackend()),
			},
			&cli.StringFlag{
				Name:  "state-file",
				Usage: "session file for the file store (default: XDG state directory)",
				Value: c.GetStateFile(),
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "namespace the redis store per user",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "auth service request timeout",
				Value: c.GetHTTPTimeout(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "verbose logging",
			},
			&cli.BoolFlag{
				Name:  "banner",
				Usage: "print the application banner",
			},
		},
		Before: func(cctx *cli.Context) error {
			setupLogging(stderr, cctx.Bool("debug"))
			if cctx.Bool("banner") {
				displayAppname(stderr, c.GetAppName())
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdLogin,
			cmdCallback,
			cmdVerify,
			cmdOTP,
			cmdLogout,
			cmdStatus,
			cmdHeader,
		},
	}
	return app.Run(args)
}

func setupLogging(w io.Writer, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
