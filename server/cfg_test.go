package server

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/areaattack/model"
)

func TestParseShape(t *testing.T) {
	shape, err := ParseShape("tiny", strings.NewReader("; comment\n##\n #\n\n#"))
	require.NoError(t, err)
	assert.Equal(t, "tiny", shape.Name)
	assert.Equal(t, []model.Position{
		{X: 0, Y: 0}, {X: 1, Y: 0},
		{X: 1, Y: 1},
		{X: 0, Y: 3},
	}, shape.Cells)

	_, err = ParseShape("blank", strings.NewReader("...\n   \n"))
	assert.ErrorIs(t, err, ErrEmptyShape)
}

func TestLoadShapesBuiltin(t *testing.T) {
	pool, err := LoadShapes("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cross", "diamond", "field", "ring"}, pool.Names())

	field, err := pool.Get("field")
	require.NoError(t, err)
	assert.Len(t, field.Cells, 32*24)

	ring, err := pool.Get("ring")
	require.NoError(t, err)
	b := NewBoard(ring)
	assert.False(t, b.Contains(model.Position{X: 16, Y: 16}), "ring has a hole")

	_, err = pool.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownShape)

	shape, err := pool.Random(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Contains(t, pool.Names(), shape.Name)
}

func TestLoadShapesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "field.txt"), []byte("###\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "strip.txt"), []byte("#####\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	pool, err := LoadShapes(dir)
	require.NoError(t, err)
	assert.Len(t, pool.Names(), 5)
	field, _ := pool.Get("field")
	assert.Len(t, field.Cells, 3)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte(""), 0o644))
	_, err = LoadShapes(dir)
	assert.ErrorIs(t, err, ErrEmptyShape)
}

func TestEmptyPool(t *testing.T) {
	_, err := NewShapePool().Random(rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrNoShapes)
}
