// Package cmd wires the canvaslogin command line.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/palette/canvaslogin/cmd/common"
	"github.com/urfave/cli"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

// Execute runs the CLI with args (including the program name). The returned
// error maps to the process exit code through ExitStatus.
func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "canvaslogin",
		HelpName:              "canvaslogin",
		Usage:                 "Log into Canvas interactively and capture the session cookies.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "canvaslogin [command] [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          loginUsageError,
		Writer:                common.Stdout,
		ErrWriter:             common.Stderr,
		Commands: []cli.Command{
			{
				Name:                   "login",
				Aliases:                []string{"l"},
				Usage:                  "open the login window and capture cookies",
				ArgsUsage:              "[output-path]",
				Description:            LoginDescription,
				OnUsageError:           loginUsageError,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 login,
				Flags:                  loginFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "fetch",
				Aliases:            []string{"f"},
				Usage:              "fetch a URL with the cookies of a login artifact",
				ArgsUsage:          "<url>",
				Description:        FetchDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             fetch,
				Flags:              fetchFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of canvaslogin",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:                 login,
		Flags:                  loginFlags,
		UseShortOptionHandling: true,
		HideHelp:               true,
		HideVersion:            true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
