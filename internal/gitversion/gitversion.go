// Package gitversion turns the placeholder version "git" into a version that
// names the commit the artifacts are built from.
package gitversion

import (
	"log/slog"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
)

// Placeholder is the version string that gets resolved.
const Placeholder = "git"

const shortHashLen = 7

// Resolve returns version unchanged unless it is Placeholder, in which case the
// repository containing sourceRoot is opened and "git-<short sha>" is returned.
func Resolve(sourceRoot, version string) (string, error) {
	if version != Placeholder {
		return version, nil
	}

	repo, err := git.PlainOpenWithOptions(sourceRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", errors.GitError("failed to open repository").
			WithCause(err).
			WithContext(logfields.KeyPath, sourceRoot).
			Build()
	}
	head, err := repo.Head()
	if err != nil {
		return "", errors.GitError("failed to resolve HEAD").
			WithCause(err).
			WithContext(logfields.KeyPath, sourceRoot).
			Build()
	}

	sha := head.Hash().String()
	if len(sha) > shortHashLen {
		sha = sha[:shortHashLen]
	}
	resolved := Placeholder + "-" + sha
	slog.Debug("Resolved project version", "version", resolved, logfields.Path(sourceRoot))
	return resolved, nil
}
