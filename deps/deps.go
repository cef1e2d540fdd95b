package deps

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
)

// Installer installs missing tools with apt.
type Installer struct {
	r    runner.Runner
	sudo bool

	updated bool
}

func NewInstaller(r runner.Runner, sudo bool) *Installer {
	return &Installer{r: r, sudo: sudo}
}

// Missing returns the tools that are not on PATH, in order.
func (i *Installer) Missing(tools []string) []string {
	var missing []string
	for _, tool := range tools {
		if _, err := i.r.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	return missing
}

// Ensure installs every tool that is not on PATH. The package index is
// refreshed once, before the first install.
func (i *Installer) Ensure(ctx context.Context, tools []string) error {
	for _, tool := range i.Missing(tools) {
		log.Info().Msgf(">> Installing missing command: %s", tool)
		if err := i.install(ctx, tool); err != nil {
			return fmt.Errorf("install %s: %w", tool, err)
		}
	}
	return nil
}

func (i *Installer) install(ctx context.Context, pkg string) error {
	if !i.updated {
		if err := i.r.Run(ctx, i.apt("update")); err != nil {
			return err
		}
		i.updated = true
	}
	return i.r.Run(ctx, i.apt("install", "-y", pkg))
}

func (i *Installer) apt(args ...string) runner.Cmd {
	if i.sudo {
		return runner.Command("sudo", append([]string{"apt"}, args...)...)
	}
	return runner.Command("apt", args...)
}
