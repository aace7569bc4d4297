package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/palette/canvaslogin/cmd/common"
	"github.com/palette/canvaslogin/internal/config"
	"github.com/palette/canvaslogin/internal/result"
	"github.com/palette/canvaslogin/internal/session"
	"github.com/urfave/cli"
)

func fetch(ctx *cli.Context) error {
	rawURL := ctx.Args().First()
	if rawURL == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no url provided"))
	} else if rawURL == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}

	site := config.DefaultSite()
	if path := ctx.String("site-config"); path != "" {
		var err error
		if site, err = config.LoadSite(appFs, path); err != nil {
			common.PrintRuntimeErr(ctx, "fetch", "site_config", err)
			return &exitError{code: 1}
		}
	}

	rec, err := result.Load(appFs, config.ResolveOutputPath(ctx.String("artifact")))
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "load_artifact", err)
		return &exitError{code: 1}
	}
	target, err := site.Target()
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "target", err)
		return &exitError{code: 1}
	}
	sess, _, err := session.Materialize(rec.Cookies, target, nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "materialize", err)
		return &exitError{code: 1}
	}

	resp, err := sess.Get(context.Background(), rawURL)
	if err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "get", err)
		return &exitError{code: 1}
	}
	defer resp.Body.Close()

	fmt.Fprintf(common.Stdout, "%s %s\n", resp.Proto, resp.Status)
	if _, err := io.Copy(common.Stdout, resp.Body); err != nil {
		common.PrintRuntimeErr(ctx, "fetch", "read_body", err)
		return &exitError{code: 1}
	}
	if resp.StatusCode >= 400 {
		return &exitError{code: 1}
	}
	return nil
}
