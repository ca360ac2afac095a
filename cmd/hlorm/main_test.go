package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	rows := []map[string]interface{}{
		{"title": "go", "id": int64(1), "sort": 10},
		{"title": "rust", "id": int64(2), "cover": nil},
	}

	assert.Equal(t, pterm.TableData{
		{"id", "cover", "sort", "title"},
		{"1", "", "10", "go"},
		{"2", "", "", "rust"},
	}, tableData(rows, nil))

	assert.Equal(t, pterm.TableData{
		{"title"},
		{"go"},
		{"rust"},
	}, tableData(rows, []string{"title"}))
}

func TestParseIDs(t *testing.T) {
	assert.Equal(t, []interface{}{int64(1), "65f1c0de8e4b1a2b3c4d5e6f", int64(30)},
		parseIDs([]string{"1", "65f1c0de8e4b1a2b3c4d5e6f", "30"}))
}

func TestDefinition(t *testing.T) {
	def := definition("blog_articles")
	assert.Equal(t, "BlogArticles", def.Name)
	assert.Equal(t, "blog_articles", def.Table)
}

func TestInitAndGen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/shop\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"init", "mysql", "--folder", dir})
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, filepath.Join(dir, "hlorm.yaml"))

	rootCmd.SetArgs([]string{"gen", "Article", "--folder", dir, "--table", "articles", "--attributes", "title:string,cover:file"})
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, filepath.Join(dir, "internal", "models", "article.go"))
	assert.Contains(t, out.String(), `import "example.com/shop/internal/models"`)

	rootCmd.SetArgs([]string{"init", "mysql", "--folder", dir})
	assert.Error(t, rootCmd.Execute())
}
