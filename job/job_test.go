package job

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"epg-combiner/config"
	"epg-combiner/consts"
	"epg-combiner/epg"
	"epg-combiner/gz"
	"epg-combiner/logger"
	"epg-combiner/publish"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func feedServer(t *testing.T, feeds map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for p, body := range feeds {
		data := gzipBytes(t, body)
		mux.HandleFunc(p, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(data)
		})
	}
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/b.xml.gz">B</a><a href="/notes.txt">notes</a></body></html>`))
	})
	mux.HandleFunc("/all.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/a.xml.gz">A</a><a href="/b.xml.gz">B</a></body></html>`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(urls ...string) *config.Config {
	cfg := &config.Config{GitHub: config.GitHub{RepoName: "epg", Token: "tok"}}
	for _, u := range urls {
		cfg.Sources = append(cfg.Sources, config.Source{URL: u})
	}
	return cfg
}

func channelOf(p *epg.Programme) string {
	for _, a := range p.Attrs {
		if a.Name.Local == "channel" {
			return a.Value
		}
	}
	return ""
}

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func TestRun_TwoFeedsEndToEnd(t *testing.T) {
	server := feedServer(t, map[string]string{
		"/a.xml.gz": `<tv><programme channel="first" start="1"><title>A</title></programme></tv>`,
		"/b.xml.gz": `<tv><programme channel="second" start="2"><title>B</title></programme></tv>`,
	})
	root := t.TempDir()
	repo := publish.NewMemory()

	res, err := Run(context.Background(), testConfig(server.URL+"/a.xml.gz", server.URL+"/b.xml.gz"), Options{Root: root, Repository: repo})
	require.NoError(t, err)

	combined := filepath.Join(root, consts.COMBINED_XML_FILE)
	assert.Equal(t, combined, res.Combined)
	assert.Equal(t, combined+".gz", res.Gzipped)
	assert.Empty(t, res.Archived)

	programmes, err := epg.ReadProgrammes(combined)
	require.NoError(t, err)
	require.Len(t, programmes, 2)
	assert.Equal(t, "first", channelOf(programmes[0]))
	assert.Equal(t, "second", channelOf(programmes[1]))

	back := filepath.Join(t.TempDir(), "back.xml")
	require.NoError(t, gz.Decompress(res.Gzipped, back))
	want, err := os.ReadFile(combined)
	require.NoError(t, err)
	got, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NotNil(t, res.Publish)
	assert.Equal(t, []string{consts.COMBINED_GZ_FILE, consts.COMBINED_XML_FILE}, res.Publish.Created)
	remote, ok := repo.Content(consts.COMBINED_XML_FILE)
	require.True(t, ok)
	assert.Equal(t, want, remote)

	assert.NoDirExists(t, filepath.Join(root, consts.TEMP_FOLDER))
}

func TestRun_SecondRunArchivesAndUpdates(t *testing.T) {
	server := feedServer(t, map[string]string{
		"/a.xml.gz": `<tv><programme channel="first"/></tv>`,
	})
	root := t.TempDir()
	repo := publish.NewMemory()
	cfg := testConfig(server.URL + "/a.xml.gz")

	_, err := Run(context.Background(), cfg, Options{Root: root, Repository: repo})
	require.NoError(t, err)

	res, err := Run(context.Background(), cfg, Options{Root: root, Repository: repo})
	require.NoError(t, err)
	require.NotEmpty(t, res.Archived)
	assert.Equal(t, filepath.Join(root, consts.ARCHIVE_FOLDER), filepath.Dir(res.Archived))
	assert.Equal(t, []string{consts.COMBINED_GZ_FILE, consts.COMBINED_XML_FILE}, res.Publish.Updated)

	entries, err := os.ReadDir(filepath.Join(root, consts.ARCHIVE_FOLDER))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRun_NoSourcesSucceeded(t *testing.T) {
	server := feedServer(t, nil)
	root := t.TempDir()
	repo := publish.NewMemory()

	res, err := Run(context.Background(), testConfig(server.URL+"/missing.xml.gz"), Options{Root: root, Repository: repo})
	require.NoError(t, err)
	assert.Empty(t, res.Combined)
	assert.Nil(t, res.Publish)
	assert.Empty(t, repo.Calls())
	assert.NoFileExists(t, filepath.Join(root, consts.COMBINED_XML_FILE))
	assert.NoFileExists(t, filepath.Join(root, consts.COMBINED_GZ_FILE))
}

func TestRun_MalformedFeedAborts(t *testing.T) {
	server := feedServer(t, map[string]string{
		"/a.xml.gz": `<tv><programme channel="first">`,
	})
	root := t.TempDir()
	repo := publish.NewMemory()

	_, err := Run(context.Background(), testConfig(server.URL+"/a.xml.gz"), Options{Root: root, Repository: repo})
	require.Error(t, err)
	assert.Empty(t, repo.Calls())
}

func TestRun_UnauthorizedStillCleansUp(t *testing.T) {
	server := feedServer(t, map[string]string{
		"/a.xml.gz": `<tv><programme channel="first"/></tv>`,
	})
	root := t.TempDir()
	repo := publish.NewMemory()
	repo.Unauthorized = true

	res, err := Run(context.Background(), testConfig(server.URL+"/a.xml.gz"), Options{Root: root, Repository: repo})
	require.NoError(t, err)
	assert.True(t, res.Publish.Aborted)
	assert.FileExists(t, filepath.Join(root, consts.COMBINED_XML_FILE))
	assert.NoDirExists(t, filepath.Join(root, consts.TEMP_FOLDER))
}

func TestRun_DiscoveredFeedsFollowExplicitOnes(t *testing.T) {
	server := feedServer(t, map[string]string{
		"/a.xml.gz": `<tv><programme channel="first"/></tv>`,
		"/b.xml.gz": `<tv><programme channel="second"/></tv>`,
	})
	root := t.TempDir()
	cfg := testConfig(server.URL + "/a.xml.gz")
	cfg.Indexes = []config.Index{{URL: server.URL + "/index.html", Selector: consts.DEFAULT_INDEX_SELECTOR}}

	res, err := Run(context.Background(), cfg, Options{Root: root, Repository: publish.NewMemory()})
	require.NoError(t, err)
	require.Len(t, res.Inputs, 2)

	programmes, err := epg.ReadProgrammes(res.Combined)
	require.NoError(t, err)
	require.Len(t, programmes, 2)
	assert.Equal(t, "first", channelOf(programmes[0]))
	assert.Equal(t, "second", channelOf(programmes[1]))
}

func TestRun_ListedFeedNotRepeatedFromIndex(t *testing.T) {
	server := feedServer(t, map[string]string{
		"/a.xml.gz": `<tv><programme channel="first"/></tv>`,
		"/b.xml.gz": `<tv><programme channel="second"/></tv>`,
	})
	root := t.TempDir()
	cfg := testConfig(server.URL + "/a.xml.gz")
	cfg.Indexes = []config.Index{{URL: server.URL + "/all.html", Selector: consts.DEFAULT_INDEX_SELECTOR}}

	res, err := Run(context.Background(), cfg, Options{Root: root, Repository: publish.NewMemory()})
	require.NoError(t, err)
	require.Len(t, res.Inputs, 2)

	programmes, err := epg.ReadProgrammes(res.Combined)
	require.NoError(t, err)
	require.Len(t, programmes, 2)
	assert.Equal(t, "first", channelOf(programmes[0]))
	assert.Equal(t, "second", channelOf(programmes[1]))
}

func TestRun_SameFileNameFromDifferentPaths(t *testing.T) {
	server := feedServer(t, map[string]string{
		"/uk/epg.xml.gz": `<tv><programme channel="first"/></tv>`,
		"/ie/epg.xml.gz": `<tv><programme channel="second"/></tv>`,
	})
	root := t.TempDir()

	res, err := Run(context.Background(), testConfig(server.URL+"/uk/epg.xml.gz", server.URL+"/ie/epg.xml.gz"), Options{Root: root, Repository: publish.NewMemory()})
	require.NoError(t, err)
	require.Len(t, res.Inputs, 2)
	assert.NotEqual(t, res.Inputs[0], res.Inputs[1])

	programmes, err := epg.ReadProgrammes(res.Combined)
	require.NoError(t, err)
	require.Len(t, programmes, 2)
	assert.Equal(t, "first", channelOf(programmes[0]))
	assert.Equal(t, "second", channelOf(programmes[1]))
}
