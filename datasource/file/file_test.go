package file

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeGlobsFiles(t *testing.T) {
	dir := t.TempDir()
	require.Nil(t, ioutil.WriteFile(filepath.Join(dir, "a.csv"), []byte("1\n"), 0644))
	require.Nil(t, ioutil.WriteFile(filepath.Join(dir, "b.csv"), []byte("2\n"), 0644))
	require.Nil(t, ioutil.WriteFile(filepath.Join(dir, "c.txt"), []byte("3\n"), 0644))

	src := CreateDataSource(filepath.Join(dir, "*.csv"))
	require.Equal(t, "file", src.Kind())
	loaders, err := src.Analyze()
	require.Nil(t, err)
	require.Len(t, loaders, 2)

	r, err := loaders[0].Open()
	require.Nil(t, err)
	defer r.Close()
	buf, err := ioutil.ReadAll(r)
	require.Nil(t, err)
	require.Equal(t, "1\n", string(buf))
}

func TestAnalyzeEmptyGlob(t *testing.T) {
	src := CreateDataSource(filepath.Join(t.TempDir(), "*.csv"))
	_, err := src.Analyze()
	require.NotNil(t, err)
}
