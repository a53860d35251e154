package gittag

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/macropower/indexstamp/pkg/paths"
)

// RepoResolver resolves the tag from a go-git [git.Repository].
type RepoResolver struct {
	repo *git.Repository
}

// NewRepoResolver returns a [RepoResolver] for repo.
func NewRepoResolver(repo *git.Repository) *RepoResolver {
	return &RepoResolver{repo: repo}
}

// OpenRepoResolver opens the repository containing path.
func OpenRepoResolver(path string) (*RepoResolver, error) {
	root, err := paths.FindRepoRoot(path)
	if err != nil {
		return nil, fmt.Errorf("find repository root: %w", err)
	}

	slog.Debug("found repository root", slog.String("path", root))

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", root, err)
	}

	return NewRepoResolver(repo), nil
}

type candidate struct {
	when      time.Time
	name      string
	annotated bool
}

// Resolve walks history breadth-first from HEAD and returns the tag on the
// closest tagged commit.
func (r *RepoResolver) Resolve(ctx context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: resolve HEAD: %w", ErrNoTag, err)
	}

	tags, err := r.tagsByCommit()
	if err != nil {
		return "", err
	}

	if len(tags) == 0 {
		return "", fmt.Errorf("%w: repository has no tags", ErrNoTag)
	}

	seen := map[plumbing.Hash]bool{}
	queue := []plumbing.Hash{head.Hash()}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("walk history: %w", err)
		}

		var (
			found []candidate
			next  []plumbing.Hash
		)

		for _, h := range queue {
			if seen[h] {
				continue
			}

			seen[h] = true

			if cs, ok := tags[h]; ok {
				found = append(found, cs...)

				continue
			}

			c, err := r.repo.CommitObject(h)
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				// Shallow clone boundary.
				continue
			} else if err != nil {
				return "", fmt.Errorf("read commit %s: %w", h, err)
			}

			next = append(next, c.ParentHashes...)
		}

		if len(found) > 0 {
			return best(found).name, nil
		}

		queue = next
	}

	return "", fmt.Errorf("%w: no tag reachable from %s", ErrNoTag, head.Hash())
}

func (r *RepoResolver) tagsByCommit() (map[plumbing.Hash][]candidate, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	out := map[plumbing.Hash][]candidate{}

	err = iter.ForEach(func(ref *plumbing.Reference) error {
		c := candidate{name: ref.Name().Short()}
		target := ref.Hash()

		tag, err := r.repo.TagObject(ref.Hash())
		switch {
		case err == nil:
			commit, err := tag.Commit()
			if err != nil {
				slog.Debug("skipping tag of non-commit object", slog.String("tag", c.name))

				return nil
			}

			target = commit.Hash
			c.annotated = true
			c.when = tag.Tagger.When
		case errors.Is(err, plumbing.ErrObjectNotFound):
			// Lightweight tag.
		default:
			return fmt.Errorf("read tag %s: %w", c.name, err)
		}

		out[target] = append(out[target], c)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return out, nil
}

// best picks among tags on the same commit: annotated before lightweight,
// then the newest tagger date, then the greatest name.
func best(cs []candidate) candidate {
	return slices.MaxFunc(cs, func(a, b candidate) int {
		if a.annotated != b.annotated {
			if a.annotated {
				return 1
			}

			return -1
		}

		if c := a.when.Compare(b.when); c != 0 {
			return c
		}

		return cmp.Compare(a.name, b.name)
	})
}
