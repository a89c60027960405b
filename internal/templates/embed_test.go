package templates

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modhost/internal/host"
)

var blogStub = StubData{
	Name:      "Blog",
	Alias:     "blog",
	Namespace: `Modules\Blog`,
	Package:   "modules/blog",
	Active:    1,
}

func TestStubs_AllTemplates(t *testing.T) {
	var stubs []string
	err := fs.WalkDir(StubsFS(), ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			stubs = append(stubs, p)
		}
		return nil
	})
	require.NoError(t, err)

	for _, s := range stubs {
		require.True(t, strings.HasSuffix(s, ".tmpl"), "stub %s must end in .tmpl", s)
	}
	require.Contains(t, stubs, "module.json.tmpl")
}

func TestRender_ValidJSON(t *testing.T) {
	rendered, err := Render(blogStub)
	require.NoError(t, err)

	for name, content := range rendered {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		var v map[string]any
		require.NoError(t, json.Unmarshal(content, &v), "%s is not valid JSON:\n%s", name, content)
	}
}

func TestRender_Manifest(t *testing.T) {
	rendered, err := Render(blogStub)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(rendered["module.json"], &m))
	require.Equal(t, "Blog", m["name"])
	require.Equal(t, "blog", m["alias"])
	require.Equal(t, float64(1), m["active"])

	var c struct {
		Name     string `json:"name"`
		Autoload struct {
			PSR4 map[string]string `json:"psr-4"`
		} `json:"autoload"`
	}
	require.NoError(t, json.Unmarshal(rendered["composer.json"], &c))
	require.Equal(t, "modules/blog", c.Name)
	require.Contains(t, c.Autoload.PSR4, `Modules\Blog\`)
}

func TestScaffold(t *testing.T) {
	files := host.NewFilesystem(afero.NewMemMapFs())
	dir := "/app/modules/Blog"

	written, err := Scaffold(files, dir, blogStub)
	require.NoError(t, err)
	require.Contains(t, written, filepath.Join(dir, "module.json"))
	require.Contains(t, written, filepath.Join(dir, "Resources", "lang", "en.json"))
	require.True(t, files.Exists(filepath.Join(dir, "composer.json")))

	_, err = Scaffold(files, dir, blogStub)
	require.ErrorContains(t, err, "already exists")
}
