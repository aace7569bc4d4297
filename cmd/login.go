package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/palette/canvaslogin/cmd/common"
	"github.com/palette/canvaslogin/internal/autherr"
	"github.com/palette/canvaslogin/internal/config"
	loginctl "github.com/palette/canvaslogin/internal/login"
	"github.com/palette/canvaslogin/internal/result"
	"github.com/palette/canvaslogin/internal/session"
	"github.com/palette/canvaslogin/internal/surface"
	"github.com/palette/canvaslogin/internal/surface/bridge"
	"github.com/palette/canvaslogin/internal/surface/cdp"
	"github.com/palette/canvaslogin/pkg/logger"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

var (
	// appFs is the filesystem for artifacts, site profiles and log files.
	appFs afero.Fs = afero.NewOsFs()

	// newSurface builds the browsing surface selected by cfg.
	newSurface = defaultSurface

	// signalContext returns the context a login run is bound to.
	signalContext = func() (context.Context, context.CancelFunc) {
		return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	}
)

func defaultSurface(cfg config.Config, l logger.Logger) (surface.Surface, error) {
	switch cfg.Surface {
	case config.SurfaceChrome:
		return cdp.New(cdp.Options{ExecPath: cfg.ExecPath, Title: cfg.Site.Title, Logger: l}), nil
	case config.SurfaceBridge:
		return bridge.New(bridge.Options{
			Addr:           cfg.BridgeAddr,
			Token:          cfg.BridgeToken,
			ConnectTimeout: cfg.BridgeConnectTimeout,
			Logger:         l,
		}), nil
	default:
		return nil, fmt.Errorf("unknown surface %q", cfg.Surface)
	}
}

func login(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "help" {
		return cli.ShowCommandHelp(ctx, "login")
	}

	cfg, cfgErr := loginConfig(ctx)
	if ctx.NArg() > 1 {
		cfgErr = fmt.Errorf("expected at most one output path, got %d arguments", ctx.NArg())
	}
	l := openLogger(ctx, cfg)
	defer l.Close()

	pub := &result.Publisher{
		Fs:     appFs,
		Stdout: common.Stdout,
		Stderr: common.Stderr,
		Name:   ctx.App.HelpName,
		Log:    l,
	}

	var rec result.Record
	if cfgErr != nil {
		l.Error("login: configuration: %v", cfgErr)
		rec = result.Failure(cfgErr)
	} else {
		runCtx, stop := signalContext()
		rec = runLogin(runCtx, cfg, l)
		stop()
	}

	if code := pub.Publish(rec, cfg.OutputPath); code != result.ExitSuccess {
		return &exitError{code: code}
	}
	return nil
}

// loginUsageError serves flag mistakes on the login command. The consumer
// waits for an artifact, so a bad command line still publishes a failure
// record to the output path it names, or to the default one.
func loginUsageError(ctx *cli.Context, err error, _ bool) error {
	if uerr := common.PrintErrWithCmdHelp(ctx, err); !errors.Is(uerr, common.ErrUsage) {
		return uerr
	}
	pub := &result.Publisher{
		Fs:     appFs,
		Stdout: common.Stdout,
		Stderr: common.Stderr,
		Name:   ctx.App.HelpName,
	}
	code := pub.Publish(result.Failure(err), config.ResolveOutputPath(ctx.Args().First()))
	return &exitError{code: code}
}

// loginConfig layers defaults, the optional site profile and flags. The
// output path is always resolved, even when the rest of the configuration
// is invalid, so a failure record can still be published.
func loginConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	cfg.OutputPath = config.ResolveOutputPath(ctx.Args().First())
	cfg.Timeout = ctx.Duration("timeout")
	cfg.Surface = config.SurfaceKind(ctx.String("surface"))
	cfg.ExecPath = ctx.String("exec-path")
	cfg.BridgeAddr = ctx.String("bridge-addr")
	cfg.BridgeToken = ctx.String("bridge-token")
	cfg.LogFile = ctx.String("log-file")
	cfg.Debug = ctx.Bool("debug")

	if path := ctx.String("site-config"); path != "" {
		site, err := config.LoadSite(appFs, path)
		if err != nil {
			return cfg, err
		}
		cfg.Site = site
	}
	return cfg, cfg.Validate()
}

func openLogger(ctx *cli.Context, cfg config.Config) logger.Logger {
	var loggers []logger.Logger
	if cfg.LogFile != "" {
		fl, err := logger.NewFileLogger(appFs, cfg.LogFile, cfg.Debug)
		if err != nil {
			common.PrintRuntimeErr(ctx, "login", "open_log", err)
		} else {
			loggers = append(loggers, fl)
		}
	}
	if cfg.Debug {
		loggers = append(loggers, logger.NewStandardLogger(log.New(common.Stderr, "canvaslogin ", log.LstdFlags), true))
	}
	switch len(loggers) {
	case 0:
		return logger.NewNopLogger()
	case 1:
		return loggers[0]
	default:
		return logger.NewMultiLogger(loggers...)
	}
}

// runLogin performs one login attempt and turns its outcome into the
// record to publish. Every error path yields a failure record.
func runLogin(ctx context.Context, cfg config.Config, l logger.Logger) result.Record {
	s, err := newSurface(cfg, l)
	if err != nil {
		return result.Failure(autherr.Wrap(autherr.KindSurfaceInit, "login.surface", err))
	}

	c := loginctl.NewController(s, loginctl.Options{
		EntryURL:     cfg.Site.EntryURL,
		SecurePrefix: cfg.Site.SecurePrefix,
		Timeout:      cfg.Timeout,
		Logger:       l,
	})
	jar, err := c.Run(ctx)
	if err != nil {
		l.Error("login: %s in %s: %v", autherr.KindOf(err), autherr.OpOf(err), err)
		return result.Failure(err)
	}

	target, err := cfg.Site.Target()
	if err != nil {
		return result.Failure(autherr.Wrap(autherr.KindCookieCapture, "login.target", err))
	}
	_, rec, err := session.Materialize(jar, target, l)
	if err != nil {
		l.Error("login: materialize: %v", err)
		return result.Failure(err)
	}
	l.Info("login: captured cookies %v", jar.Names())
	return rec
}
