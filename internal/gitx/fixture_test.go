package gitx

import (
	"testing"

	"github.com/carraways/monorel/internal/testutil"
)

// repoFixture pairs the shared in-memory repository builder with a gitx
// Repository opened on top of it.
type repoFixture struct {
	*testutil.GitRepo
}

func newFixture(t *testing.T) *repoFixture {
	return &repoFixture{GitRepo: testutil.NewGitRepo(t)}
}

func (f *repoFixture) open() *Repository {
	return FromRepository(f.Repo)
}
