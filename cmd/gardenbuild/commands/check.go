package commands

import (
	"os"

	"git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/gardenbuild/internal/linkverify"
	"git.home.luguber.info/inful/gardenbuild/internal/lint"
	"git.home.luguber.info/inful/gardenbuild/internal/plugin/transformers"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Path     string `arg:"" optional:"" help:"File or directory to check (defaults to build.content_dir)"`
	Format   string `short:"f" default:"text" enum:"text,json" help:"Output format (text or json)"`
	Quiet    bool   `short:"q" help:"Quiet mode: only show errors, suppress warnings"`
	Rendered string `placeholder:"DIR" help:"Also verify links inside the built HTML in DIR"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfigOrDefault()
	if err != nil {
		return err
	}
	path := c.Path
	if path == "" {
		path = cfg.Build.ContentDir
	}
	if _, err := os.Stat(path); err != nil {
		return errors.NewError(errors.CategoryNotFound, "path does not exist").
			WithContext("path", path).Build()
	}

	ctx, cancel := signalContext()
	defer cancel()

	linter := lint.NewLinter(&lint.Config{
		Quiet:          c.Quiet,
		Format:         c.Format,
		IgnorePatterns: cfg.Configuration.IgnorePatterns,
		LinkStrategy:   transformers.SelectedLinkStrategy(cfg.Plugins),
	})
	result, err := linter.LintPath(ctx, path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryContent, "linting failed").Build()
	}

	if c.Rendered != "" {
		if st, err := os.Stat(c.Rendered); err != nil || !st.IsDir() {
			return errors.NewError(errors.CategoryNotFound, "rendered output directory does not exist").
				WithContext("path", c.Rendered).
				WithHint("run 'gardenbuild build' first").Build()
		}
		v := linkverify.NewVerifier(c.Rendered, cfg.Configuration.BasePath(), cfg.Configuration.Host())
		rendered, err := v.Verify(ctx)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "rendered link verification failed").Build()
		}
		result.Issues = append(result.Issues, rendered.Issues()...)
		result.FilesTotal += rendered.Pages
	}

	formatter, err := lint.NewFormatter(c.Format, g.Color)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid format").Build()
	}
	if err := formatter.Format(g.Stdout, result, path); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "formatting output").Build()
	}
	if code := result.ExitCode(c.Quiet); code != 0 {
		return &exitError{code: code}
	}
	return nil
}
