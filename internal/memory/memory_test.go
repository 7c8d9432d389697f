package memory

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRememberNamePersists(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data", "memory.json")
	repo, err := NewFileRepository(p)
	require.NoError(t, err)

	store, err := NewStore(repo)
	require.NoError(t, err)

	mem := store.For(7)
	_, ok := mem.UserName()
	assert.False(t, ok)

	msg, err := mem.RememberName("  Иван ")
	require.NoError(t, err)
	assert.Equal(t, "Приятно познакомиться, Иван! Запомнил ваше имя.", msg)

	name, ok := mem.UserName()
	require.True(t, ok)
	assert.Equal(t, "Иван", name)

	// other users are unaffected
	_, ok = store.For(8).UserName()
	assert.False(t, ok)

	// a fresh store sees the persisted profile
	reloaded, err := NewStore(repo)
	require.NoError(t, err)
	name, ok = reloaded.For(7).UserName()
	require.True(t, ok)
	assert.Equal(t, "Иван", name)
}

func TestFileRepositoryUpsertReplaces(t *testing.T) {
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "memory.json"))
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(Profile{ID: 1, Name: "a"}))
	require.NoError(t, repo.Upsert(Profile{ID: 2, Name: "b"}))
	require.NoError(t, repo.Upsert(Profile{ID: 1, Name: "c"}))

	ps, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "c", ps[0].Name)
	assert.Equal(t, "b", ps[1].Name)
}

type failingRepo struct{}

func (failingRepo) LoadAll() ([]Profile, error) { return nil, nil }
func (failingRepo) Upsert(Profile) error        { return errors.New("disk full") }

func TestRememberNameStorageError(t *testing.T) {
	store, err := NewStore(failingRepo{})
	require.NoError(t, err)

	_, err = store.For(1).RememberName("Пётр")
	require.Error(t, err)

	_, ok := store.For(1).UserName()
	assert.False(t, ok, "failed write must not be cached")
}

func TestRememberNameRejectsEmpty(t *testing.T) {
	store, err := NewStore(nil)
	require.NoError(t, err)
	_, err = store.For(1).RememberName("   ")
	require.Error(t, err)
}
