package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/foundation/errors"
)

const welcomeNote = `---
title: Welcome
---
This is the home page of your garden. Link other notes with double-bracket wikilinks.
`

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	_, _ = fmt.Fprintf(g.Stdout, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}

	contentDir := config.Default().Build.ContentDir
	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create content directory").
			WithContext("path", contentDir).Build()
	}
	index := filepath.Join(contentDir, "index.md")
	if _, err := os.Stat(index); os.IsNotExist(err) {
		if err := os.WriteFile(index, []byte(welcomeNote), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to write welcome note").
				WithContext("path", index).Build()
		}
		_, _ = fmt.Fprintf(g.Stdout, "Created %s\n", index)
	}
	_, _ = fmt.Fprintln(g.Stdout, "Initialized successfully")
	return nil
}
