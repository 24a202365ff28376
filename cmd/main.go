package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"smmpanel/cmd/syncer"
	"smmpanel/src/bootstrap"
)

var Version string

func main() {
	bootstrap.LoadEnv()
	bootstrap.SetupLogger(bootstrap.GetConfig())

	app := cli.NewApp()
	app.Name = "smmpanel"
	app.Usage = "SMM panel backend command line interface"
	app.Version = Version

	app.Commands = []cli.Command{
		serveCMD,
		syncCMD,
		balanceCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the HTTP API and Telegram bot",
		Action:      serveAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the HTTP API, the Telegram webhook and the background sync loop`,
	}
	syncCMD = cli.Command{
		Name:      "sync",
		Usage:     "run one reconciliation pass",
		Action:    syncAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.DurationFlag{
				Name:  "watch",
				Usage: "keep running a pass on this period instead of exiting",
			},
		},
		Description: `Refresh every open order from the panel and print a status summary`,
	}
	balanceCMD = cli.Command{
		Name:        "balance",
		Usage:       "print the panel balance",
		Action:      balanceAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{cli.StringFlag{Name: "key", Usage: "panel API key overriding the stored one"}},
		Description: `Print the panel account balance`,
	}
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveAction(_ *cli.Context) error {
	logrus.WithField("cmd", "serve").Info("Starting serve CMD")

	ctx, stop := signalContext()
	defer stop()

	return bootstrap.Serve(ctx)
}

func syncAction(c *cli.Context) error {
	log := logrus.WithField("cmd", "sync")
	log.Info("Starting sync CMD")

	ctx, stop := signalContext()
	defer stop()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.WithError(err).Error("Starting cmd")
		return err
	}
	defer app.Close()

	s := &syncer.Syncer{
		Runner: app.Reconciler,
		Out:    os.Stdout,
		Watch:  c.Duration("watch"),
		Config: syncer.GetConfig(),
	}
	return s.Start(ctx)
}

func balanceAction(c *cli.Context) error {
	log := logrus.WithField("cmd", "balance")

	ctx, stop := signalContext()
	defer stop()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.WithError(err).Error("Starting cmd")
		return err
	}
	defer app.Close()

	balance, err := app.Panel.GetBalance(ctx, c.String("key"))
	if err != nil {
		log.WithError(err).Error("Balance lookup failed")
		return err
	}

	fmt.Printf("%s %s\n", balance.Balance.String(), balance.Currency)
	return nil
}
