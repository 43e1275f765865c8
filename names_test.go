package ptyharness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestFoo", "TestFoo"},
		{"TestFoo/sub test", "TestFoo_sub_test"},
		{"size of cwd", "size_of_cwd"},
		{"a.b-c", "a.b-c"},
		{strings.Repeat("x", 80), strings.Repeat("x", 60)},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, sanitizeName(tc.in), "sanitizeName(%q)", tc.in)
	}
}

func TestUniqueDir(t *testing.T) {
	a, err := uniqueDir("ptyharness_test", t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(a) })

	b, err := uniqueDir("ptyharness_test", t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(b) })

	assert.NotEqual(t, a, b)
	assert.Contains(t, filepath.Base(a), fmt.Sprintf("_%d_", os.Getpid()))

	fi, err := os.Stat(a)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}
