package cmd

import (
	"github.com/palette/canvaslogin/internal/config"
	"github.com/urfave/cli"
)

var (
	loginFlags = []cli.Flag{
		cli.DurationFlag{
			Name:   "timeout, t",
			Usage:  "give up if login does not complete in time, e.g. 5m (0 waits forever)",
			EnvVar: config.TimeoutEnv,
		},
		cli.StringFlag{
			Name:   "surface",
			Usage:  "browsing surface to use: chrome or bridge",
			Value:  string(config.SurfaceChrome),
			EnvVar: config.SurfaceEnv,
		},
		cli.StringFlag{
			Name:   "exec-path",
			Usage:  "path of the Chrome/Chromium binary (found automatically if not set)",
			EnvVar: config.ExecPathEnv,
		},
		cli.StringFlag{
			Name:   "bridge-addr",
			Usage:  "listen address for the browser extension bridge",
			Value:  config.DefaultBridgeAddr,
			EnvVar: config.BridgeAddrEnv,
		},
		cli.StringFlag{
			Name:   "bridge-token",
			Usage:  "token the browser extension must present",
			EnvVar: config.BridgeTokenEnv,
		},
		siteConfigFlag,
		cli.StringFlag{
			Name:   "log-file",
			Usage:  "append diagnostic logs to this file",
			EnvVar: config.LogFileEnv,
		},
		cli.BoolFlag{
			Name:   "debug, d",
			Usage:  "verbose logging, also mirrored to stderr",
			EnvVar: config.DebugEnv,
		},
	}

	fetchFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "artifact, a",
			Usage: "login artifact to read cookies from (default: the login default path)",
		},
		siteConfigFlag,
	}

	siteConfigFlag = cli.StringFlag{
		Name:   "site-config",
		Usage:  "YAML site profile overriding the built-in Canvas URLs",
		EnvVar: config.SiteConfigEnv,
	}
)
