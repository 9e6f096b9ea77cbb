package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/commasconnect/comma-auth/auth"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var cmdLogin = &cli.Command{
	Name:  "login",
	Usage: "print the Google sign-in URL",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "redirect",
			Usage: "URL to visit once the callback has been handled",
		},
	},
	Action: func(cctx *cli.Context) error {
		m, _, err := newManager(cctx)
		if err != nil {
			return err
		}
		return m.InitiateLogin(cctx.Context, cctx.String("redirect"))
	},
}

var cmdCallback = &cli.Command{
	Name:      "callback",
	Usage:     "complete sign-in from the URL the browser was redirected to",
	ArgsUsage: "<callback-url>",
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 1 {
			return errors.New("expected exactly one callback URL")
		}
		m, _, err := newManager(cctx)
		if err != nil {
			return err
		}
		if err := m.HandleCallbackURL(cctx.Context, cctx.Args().First()); err != nil {
			return err
		}
		return printStatus(cctx, m)
	},
}

var cmdVerify = &cli.Command{
	Name:  "verify",
	Usage: "check the stored token with the auth service",
	Action: func(cctx *cli.Context) error {
		m, _, err := newManager(cctx)
		if err != nil {
			return err
		}
		if err := m.VerifyToken(cctx.Context); err != nil {
			return err
		}
		return printStatus(cctx, m)
	},
}

var phoneFlag = &cli.StringFlag{
	Name:     "phone",
	Usage:    "phone number to deliver the code to",
	Required: true,
}

var cmdOTP = &cli.Command{
	Name:  "otp",
	Usage: "complete the second factor",
	Subcommands: []*cli.Command{
		{
			Name:  "send",
			Usage: "send a verification code by SMS",
			Flags: []cli.Flag{phoneFlag},
			Action: func(cctx *cli.Context) error {
				m, _, err := newManager(cctx)
				if err != nil {
					return err
				}
				resp, err := m.SendOTP(cctx.Context, cctx.String("phone"))
				if err != nil {
					return err
				}
				fmt.Fprintln(cctx.App.Writer, string(resp))
				return nil
			},
		},
		{
			Name:  "verify",
			Usage: "exchange a verification code for a full session",
			Flags: []cli.Flag{
				phoneFlag,
				&cli.StringFlag{
					Name:     "code",
					Usage:    "verification code received by SMS",
					Required: true,
				},
			},
			Action: func(cctx *cli.Context) error {
				m, _, err := newManager(cctx)
				if err != nil {
					return err
				}
				outcome, err := m.VerifyOTP(cctx.Context, cctx.String("phone"), cctx.String("code"))
				fmt.Fprintf(cctx.App.Writer, "otp: %s\n", outcome)
				if err != nil {
					return err
				}
				return printStatus(cctx, m)
			},
		},
	},
}

var cmdLogout = &cli.Command{
	Name:  "logout",
	Usage: "forget the stored session",
	Action: func(cctx *cli.Context) error {
		m, _, err := newManager(cctx)
		if err != nil {
			return err
		}
		m.Logout()
		return printStatus(cctx, m)
	},
}

var cmdStatus = &cli.Command{
	Name:  "status",
	Usage: "show the session and auth service health",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print as JSON",
		},
	},
	Action: func(cctx *cli.Context) error {
		m, client, err := newManager(cctx)
		if err != nil {
			return err
		}
		if err := m.Resume(cctx.Context); err != nil {
			fmt.Fprintf(cctx.App.ErrWriter, "stored session discarded: %v\n", err)
		}

		health := "unreachable"
		if h, err := client.Health(cctx.Context); err == nil {
			health = h.Status
		}

		if cctx.Bool("json") {
			snap := m.Snapshot()
			out := map[string]any{
				"state":   snap.State.String(),
				"user":    snap.User,
				"service": client.BaseURL(),
				"health":  health,
			}
			if !snap.ExpiresAt.IsZero() {
				out["expires_at"] = snap.ExpiresAt
			}
			enc := json.NewEncoder(cctx.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		fmt.Fprintf(cctx.App.Writer, "service: %s (%s)\n", client.BaseURL(), health)
		return printStatus(cctx, m)
	},
}

var cmdHeader = &cli.Command{
	Name:  "header",
	Usage: "print the Authorization header for the stored session",
	Action: func(cctx *cli.Context) error {
		m, _, err := newManager(cctx)
		if err != nil {
			return err
		}
		header := m.AuthHeader()
		if len(header) == 0 {
			return errors.Wrap(auth.UnauthenticatedErr, "no stored session")
		}
		fmt.Fprintf(cctx.App.Writer, "Authorization: %s\n", header["Authorization"])
		return nil
	},
}

func printStatus(cctx *cli.Context, m *auth.Manager) error {
	snap := m.Snapshot()
	w := cctx.App.Writer

	fmt.Fprintf(w, "state: %s\n", snap.State)
	if snap.User != nil {
		fmt.Fprintf(w, "user: %s <%s>\n", snap.User.Name, snap.User.Email)
	}
	if !snap.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "expires: %s\n", snap.ExpiresAt.Local().Format(time.RFC3339))
	}
	return nil
}
