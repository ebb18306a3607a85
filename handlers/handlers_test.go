package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"a4blend/player"
	"a4blend/services"
	"a4blend/types"
	"a4blend/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingSink struct {
	mu   sync.Mutex
	cmds []player.Command
}

func (r *recordingSink) Apply(cmd player.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
}

// unusedBuilder satisfies CatalogBuilder for queues whose worker never starts
type unusedBuilder struct{}

func (unusedBuilder) Build(context.Context, services.ProgressFunc) (types.Catalog, error) {
	return types.Catalog{}, nil
}

func (unusedBuilder) BuildCatalog(context.Context, services.ProgressFunc) types.Catalog {
	return types.Catalog{}
}

// testEnv wires every handler against a temp library
type testEnv struct {
	root       string
	library    *services.Library
	store      *services.CatalogStore
	queue      services.BuildQueue
	controller *player.Controller
	sink       *recordingSink
	router     *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	root := t.TempDir()

	env := &testEnv{
		root:    root,
		library: services.NewLibrary(root),
		store:   services.NewCatalogStore(),
		sink:    &recordingSink{},
	}
	env.queue = services.NewBuildQueue(logger, unusedBuilder{}, env.store, nil)
	env.controller = player.NewController(logger, env.sink)

	hub := websocket.NewHub(logger)
	playerHandler := NewPlayerHandler(logger, env.controller, hub)
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.controller.Run(ctx)

	catalogHandler := NewCatalogHandler(env.store, env.queue, "/assets/default.png")
	searchHandler := NewSearchHandler(env.store, env.controller)
	jobHandler := NewJobHandler(logger, env.queue, hub)
	fileHandler := NewFileHandler(logger, services.NewFileService(logger), env.library)
	healthHandler := NewHealthHandler(env.library, env.store, env.controller)
	settingsHandler := NewSettingsHandler(logger, filepath.Join(t.TempDir(), "settings.json"), env.library, env.queue)

	r := gin.New()
	r.GET("/health", healthHandler.HealthCheck)
	api := r.Group("/api")
	api.GET("/status", healthHandler.APIStatus)
	api.GET("/catalog", catalogHandler.GetCatalog)
	api.POST("/catalog/rebuild", catalogHandler.Rebuild)
	api.GET("/search", searchHandler.Search)
	api.GET("/player", playerHandler.GetState)
	api.POST("/player/toggle", playerHandler.TogglePlayPause)
	api.POST("/player/next", playerHandler.Next)
	api.POST("/player/previous", playerHandler.Previous)
	api.POST("/player/mute", playerHandler.ToggleMute)
	api.POST("/player/select/:pos", playerHandler.Select)
	api.POST("/player/seek", playerHandler.Seek)
	api.POST("/player/volume", playerHandler.SetVolume)
	api.POST("/player/query", playerHandler.SetQuery)
	api.GET("/jobs", jobHandler.GetAllJobs)
	api.GET("/jobs/:jobId", jobHandler.GetJob)
	api.DELETE("/jobs/:jobId", jobHandler.CancelJob)
	api.GET("/files", fileHandler.ListFiles)
	api.GET("/files/stream/*filepath", fileHandler.StreamFile)
	api.GET("/settings", settingsHandler.GetSettings)
	api.POST("/settings", settingsHandler.UpdateSettings)
	env.router = r

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// loadCatalog publishes titles and hands them to the player
func (e *testEnv) loadCatalog(t *testing.T, titles ...string) types.Catalog {
	t.Helper()
	catalog := make(types.Catalog, len(titles))
	for i, title := range titles {
		catalog[i] = types.CatalogEntry{
			Title:     title,
			SourceRef: services.SourceRefFor(title + ".mp3"),
			Cover:     "/assets/default.jpg",
		}
	}
	require.True(t, e.store.Publish(e.store.Generation()+1, catalog))
	_, err := e.controller.Apply(context.Background(), player.CatalogLoaded(catalog))
	require.NoError(t, err)
	return catalog
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) player.View {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var v player.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "a4blend", body["service"])

	w = env.do(t, http.MethodGet, "/api/status", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, env.root, body["library_location"])
	assert.Equal(t, false, body["catalog_ready"])
	assert.Equal(t, "empty", body["player"])
}

func TestGetCatalog(t *testing.T) {
	env := newTestEnv(t)

	var body struct {
		Entries       []types.CatalogEntry `json:"entries"`
		Count         int                  `json:"count"`
		Ready         bool                 `json:"ready"`
		FallbackCover string               `json:"fallbackCover"`
	}

	w := env.do(t, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Ready)
	assert.NotNil(t, body.Entries)
	assert.Equal(t, "/assets/default.png", body.FallbackCover)

	env.loadCatalog(t, "intro", "track-two")
	w = env.do(t, http.MethodGet, "/api/catalog", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Ready)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "intro", body.Entries[0].Title)
	assert.Equal(t, "/api/files/stream/intro.mp3", body.Entries[0].SourceRef)
}

func TestRebuildAndJobs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/catalog/rebuild", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var created struct {
		Job types.BuildJob `json:"job"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, types.JobStatusQueued, created.Job.Status)

	w = env.do(t, http.MethodGet, "/api/jobs/"+created.Job.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/jobs", nil)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	w = env.do(t, http.MethodDelete, "/api/jobs/"+created.Job.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/api/jobs/"+created.Job.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.loadCatalog(t, "intro", "track-two")

	w := env.do(t, http.MethodGet, "/api/search?q=TWO", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Query   string `json:"query"`
		Indices []int  `json:"indices"`
		Results []struct {
			Index   int    `json:"index"`
			Title   string `json:"title"`
			Current bool   `json:"current"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TWO", body.Query)
	assert.Equal(t, []int{1}, body.Indices)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "track-two", body.Results[0].Title)
	assert.False(t, body.Results[0].Current)

	w = env.do(t, http.MethodGet, "/api/search", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []int{0, 1}, body.Indices)
	assert.True(t, body.Results[0].Current, "the loaded track is highlighted")
}

func TestPlayerEndpoints(t *testing.T) {
	env := newTestEnv(t)

	v := decodeView(t, env.do(t, http.MethodGet, "/api/player", nil))
	assert.Equal(t, "empty", v.Phase)

	w := env.do(t, http.MethodPost, "/api/player/toggle", nil)
	assert.Equal(t, "empty", decodeView(t, w).Phase, "toggle is a no-op without tracks")

	env.loadCatalog(t, "intro", "track-two")

	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/toggle", nil))
	assert.Equal(t, "playing", v.Phase)
	assert.Equal(t, "intro", v.Title)

	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/next", nil))
	require.NotNil(t, v.CurrentIndex)
	assert.Equal(t, 1, *v.CurrentIndex)
	assert.True(t, v.Playing)

	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/next", nil))
	assert.Equal(t, 0, *v.CurrentIndex, "next wraps around")

	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/previous", nil))
	assert.Equal(t, 1, *v.CurrentIndex)

	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/volume", map[string]float64{"volume": 0}))
	assert.Equal(t, 0.0, v.Volume)
	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/mute", nil))
	assert.Equal(t, 1.0, v.Volume)

	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/query", map[string]string{"query": "two"}))
	require.Len(t, v.Results, 1)
	assert.Equal(t, 1, v.Results[0].Index)

	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/select/0", nil))
	assert.Equal(t, "track-two", v.Title)
	assert.Equal(t, "playing", v.Phase)

	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/select/9", nil))
	assert.Equal(t, "track-two", v.Title, "out of range selection is ignored")

	v = decodeView(t, env.do(t, http.MethodPost, "/api/player/seek", map[string]float64{"ratio": 0.5}))
	assert.Equal(t, "00:00", v.CurrentTime)
}

func TestPlayerEndpoints_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"non numeric position", "/api/player/select/abc", nil},
		{"seek without ratio", "/api/player/seek", map[string]string{}},
		{"volume without value", "/api/player/volume", map[string]string{}},
		{"volume wrong type", "/api/player/volume", map[string]string{"volume": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPlayerCommandsReachSink(t *testing.T) {
	env := newTestEnv(t)
	env.loadCatalog(t, "intro", "track-two")

	env.do(t, http.MethodPost, "/api/player/next", nil)

	env.sink.mu.Lock()
	defer env.sink.mu.Unlock()
	require.Len(t, env.sink.cmds, 3)
	assert.Equal(t, player.CmdSetSource, env.sink.cmds[0].Kind)
	assert.Equal(t, player.CmdSetSource, env.sink.cmds[1].Kind)
	assert.Equal(t, "/api/files/stream/track-two.mp3", env.sink.cmds[1].Source)
	assert.Equal(t, player.CmdPlay, env.sink.cmds[2].Kind)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"libraryLocation":"`+env.root+`"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/settings", map[string]string{"libraryLocation": filepath.Join(env.root, "missing")})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	newRoot := t.TempDir()
	w = env.do(t, http.MethodPost, "/api/settings", map[string]string{"libraryLocation": newRoot})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, newRoot, env.library.Root())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotNil(t, body["job"], "a new library triggers a rebuild")
	assert.Len(t, env.queue.GetAllJobs(), 1)

	// Saving the same location again does not rebuild
	w = env.do(t, http.MethodPost, "/api/settings", map[string]string{"libraryLocation": newRoot})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.queue.GetAllJobs(), 1)
}

func TestListFiles(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(env.root, "Artist", "Album"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "Artist", "Album", "01 - Song.mp3"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "readme.txt"), []byte("x"), 0o600))

	w := env.do(t, http.MethodGet, "/api/files", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body types.FileListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, env.root, body.Library)
	assert.Equal(t, "Artist/Album/01 - Song.mp3", body.Files[0].Path)
	assert.Equal(t, "Song", body.Files[0].Metadata.Title)
}

func TestStreamFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "song.mp3"), []byte("0123456789"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "notes.txt"), []byte("x"), 0o600))

	t.Run("full file", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/files/stream/song.mp3", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "0123456789", w.Body.String())
		assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
		assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	})

	rangeTests := []struct {
		name         string
		header       string
		status       int
		body         string
		contentRange string
	}{
		{"bounded", "bytes=2-5", http.StatusPartialContent, "2345", "bytes 2-5/10"},
		{"open ended", "bytes=7-", http.StatusPartialContent, "789", "bytes 7-9/10"},
		{"suffix", "bytes=-3", http.StatusPartialContent, "789", "bytes 7-9/10"},
		{"end past size", "bytes=8-100", http.StatusPartialContent, "89", "bytes 8-9/10"},
		{"start past size", "bytes=10-", http.StatusRequestedRangeNotSatisfiable, "", "bytes */10"},
		{"inverted", "bytes=5-2", http.StatusRequestedRangeNotSatisfiable, "", "bytes */10"},
		{"wrong unit", "items=0-1", http.StatusRequestedRangeNotSatisfiable, "", "bytes */10"},
	}
	for _, tt := range rangeTests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/files/stream/song.mp3", nil, "Range", tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
			assert.Equal(t, tt.contentRange, w.Header().Get("Content-Range"))
		})
	}

	t.Run("rejected paths", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/files/stream/notes.txt", nil).Code)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/files/stream/..%2Fsecret.mp3", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/files/stream/missing.mp3", nil).Code)
	})
}
