package arena

import "testing"

import "github.com/stretchr/testify/require"

type node struct {
	val int
}

func TestMakeTracksCount(t *testing.T) {
	a := New()
	require.Equal(t, 0, a.Count())

	n1 := Make[node](a)
	n1.val = 1
	n2 := Make[node](a)
	n2.val = 2

	require.Equal(t, 2, a.Count())
	require.Equal(t, 1, n1.val)
	require.Equal(t, 2, n2.val)
}

func TestReleaseIsOneShot(t *testing.T) {
	a := New()
	Make[node](a)
	require.False(t, a.Released())

	a.Release()
	require.True(t, a.Released())
	require.Equal(t, 0, a.Count())

	// Second release is a no-op, not a panic.
	require.NotPanics(t, func() { a.Release() })
}

func TestMakeAfterReleasePanics(t *testing.T) {
	a := New()
	a.Release()
	require.Panics(t, func() { Make[node](a) })
}
