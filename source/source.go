package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/src-d/go-git.v4"
	gitconfig "gopkg.in/src-d/go-git.v4/config"
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/mauiiK/cosmos-p2p-bootstrapper/config"
	"github.com/mauiiK/cosmos-p2p-bootstrapper/runner"
)

var fetchRefSpecs = []gitconfig.RefSpec{
	"+refs/heads/*:refs/remotes/origin/*",
	"+refs/tags/*:refs/tags/*",
}

// Builder checks out a pinned tag of the node source and installs the binary.
type Builder struct {
	r   runner.Runner
	cfg config.SourceConfig

	// Progress receives git progress output. Nil discards it.
	Progress io.Writer
}

func NewBuilder(r runner.Runner, cfg config.SourceConfig) *Builder {
	return &Builder{r: r, cfg: cfg}
}

// Checkout clones the repository if needed, fetches all tags and checks out
// the configured tag. It returns the checked out commit.
func (b *Builder) Checkout(ctx context.Context) (plumbing.Hash, error) {
	repo, err := b.open(ctx)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   fetchRefSpecs,
		Tags:       git.AllTags,
		Progress:   b.Progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return plumbing.ZeroHash, fmt.Errorf("fetch %s: %w", b.cfg.Repository, err)
	}

	hash, err := CheckoutTag(repo, b.cfg.Tag)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	log.Info().Str("tag", b.cfg.Tag).Str("commit", hash.String()).Msg("Checked out source")
	return hash, nil
}

func (b *Builder) open(ctx context.Context) (*git.Repository, error) {
	repo, err := git.PlainOpen(b.cfg.Dir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open %s: %w", b.cfg.Dir, err)
	}

	log.Info().Msgf("Cloning %s into %s", b.cfg.Repository, b.cfg.Dir)
	if err := os.MkdirAll(filepath.Dir(b.cfg.Dir), 0o755); err != nil {
		return nil, err
	}
	repo, err = git.PlainCloneContext(ctx, b.cfg.Dir, false, &git.CloneOptions{
		URL:      b.cfg.Repository,
		Progress: b.Progress,
	})
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", b.cfg.Repository, err)
	}
	return repo, nil
}

// Install runs `make install` in the source directory with stdout discarded.
func (b *Builder) Install(ctx context.Context) error {
	log.Info().Msg("Building node (this may take ~2-4 minutes)...")
	c := runner.Command("make", "install")
	c.Dir = b.cfg.Dir
	c.Quiet = true
	if err := b.r.Run(ctx, c); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	return nil
}

// ResolveTag returns the commit a tag points at. Both annotated and
// lightweight tags are supported.
func ResolveTag(repo *git.Repository, tag string) (plumbing.Hash, error) {
	ref, err := repo.Tag(tag)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("tag %s: %w", tag, err)
	}

	obj, err := repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, err := obj.Commit()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("tag %s: %w", tag, err)
		}
		return commit.Hash, nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return ref.Hash(), nil
	default:
		return plumbing.ZeroHash, fmt.Errorf("tag %s: %w", tag, err)
	}
}

// CheckoutTag force-checks out tag as a detached HEAD.
func CheckoutTag(repo *git.Repository, tag string) (plumbing.Hash, error) {
	hash, err := ResolveTag(repo, tag)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("checkout %s: %w", tag, err)
	}
	return hash, nil
}
