package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"git.home.luguber.info/inful/docrender/internal/config"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/linkverify"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct {
	Dir  string `arg:"" optional:"" help:"Rendered output directory (defaults to output.dsn)"`
	JSON bool   `help:"Print the report as JSON"`
}

func (v *VerifyCmd) Run(_ *Global, root *CLI) error {
	dir := v.Dir
	if dir == "" {
		cfg, err := root.loadConfig()
		if err != nil {
			return err
		}
		if dir, err = outputDirectory(cfg); err != nil {
			return err
		}
	}
	return RunVerify(context.Background(), dir, v.JSON, os.Stdout)
}

// RunVerify checks the output tree at dir and prints the findings. Broken
// links are reported as a validation error.
func RunVerify(ctx context.Context, dir string, asJSON bool, out io.Writer) error {
	report, err := linkverify.NewVerifier(dir).Verify(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, f := range report.Findings {
			_, _ = fmt.Fprintf(out, "%s:%d: %s %s (%s)\n", f.Page, f.Line, f.Tag, f.URL, f.Reason)
		}
		_, _ = fmt.Fprintf(out, "%d pages, %d links checked, %d broken\n", report.Pages, report.Links, len(report.Findings))
	}

	if !report.OK() {
		return errors.ValidationError("broken links in rendered output").
			WithContext("path", dir).
			WithContext("broken", len(report.Findings)).
			Build()
	}
	return nil
}

// outputDirectory maps output.dsn to a local directory.
func outputDirectory(cfg *config.Config) (string, error) {
	dsn := cfg.Output.DSN
	if !strings.Contains(dsn, "://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme != "file" {
		return "", errors.ConfigError("output is not a local directory; pass it explicitly").
			WithContext("dsn", dsn).
			Build()
	}
	return u.Host + u.Path, nil
}
