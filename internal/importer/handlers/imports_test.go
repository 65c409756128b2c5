package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sh3d-importer/internal/common/metrics"
	"sh3d-importer/internal/importer/geometry"
	"sh3d-importer/internal/importer/mapper"
	"sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/store/blob"
	store "sh3d-importer/internal/store/models"
	"sh3d-importer/internal/store/repository"
)

const homeXML = `<?xml version="1.0" encoding="UTF-8"?>
<home version="6400" name="room.sh3d" wallHeight="250">
  <level id="L0" name="Ground" elevation="0" floorThickness="12" height="250" elevationIndex="0"/>
  <wall id="w1" level="L0" wallAtEnd="w2" xStart="0" yStart="0" xEnd="400" yEnd="0" thickness="10"/>
  <wall id="w2" level="L0" wallAtStart="w1" xStart="400" yStart="0" xEnd="400" yEnd="300" thickness="10"/>
  <doorOrWindow id="d1" level="L0" name="Door" x="200" y="0" width="90" depth="10" height="210" icon="icons/door.png"/>
</home>`

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// ============================================================
// Fakes
// ============================================================

type memHistory struct {
	mu      sync.Mutex
	records []*store.ImportRecord
}

func (m *memHistory) Create(_ context.Context, rec *store.ImportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *memHistory) GetByID(_ context.Context, id string) (*store.ImportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memHistory) List(_ context.Context, limit int) ([]*store.ImportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.ImportRecord
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = data
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, errors.Wrapf(blob.ErrNotFound, "%s", key)
	}
	return data, nil
}

// ============================================================
// Helpers
// ============================================================

type fixture struct {
	app     *fiber.App
	history *memHistory
	blobs   *memBlobs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{history: &memHistory{}, blobs: &memBlobs{}}
	h := NewImportHandler(f.history, f.blobs, metrics.New(prometheus.NewRegistry()), mapper.DefaultOptions())

	f.app = fiber.New()
	f.app.Get("/health/live", LivenessProbe)
	f.app.Get("/health/ready", ReadinessProbe(nil))
	h.Register(f.app)
	return f
}

func buildArchive(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func sampleArchive(t *testing.T) []byte {
	return buildArchive(t, map[string][]byte{
		"Home.xml":       []byte(homeXML),
		"icons/door.png": pngHeader,
	})
}

func uploadRequest(t *testing.T, target string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "room.sh3d")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func upload(t *testing.T, f *fixture, query string) importResponse {
	t.Helper()
	status, body := do(t, f.app, uploadRequest(t, "/imports"+query, sampleArchive(t)))
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var resp importResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

// ============================================================
// Tests
// ============================================================

func TestCreateImport(t *testing.T) {
	f := newFixture(t)
	resp := upload(t, f, "")

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 2, resp.Counts.Walls)
	assert.Equal(t, 1, resp.Counts.CutOuts)
	require.NotNil(t, resp.Scene)
	require.Len(t, resp.Scene.Levels, 1)

	rec, err := f.history.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusDone, rec.Status)
	assert.Equal(t, "room.sh3d", rec.Filename)
	assert.Equal(t, blob.ArchiveKey(resp.ID), rec.ArchiveKey)

	_, err = f.blobs.Get(context.Background(), rec.ArchiveKey)
	assert.NoError(t, err)
}

func TestCreateImportQueryOptions(t *testing.T) {
	f := newFixture(t)
	resp := upload(t, f, "?importDoors=false&scene=false")

	assert.Nil(t, resp.Scene)
	assert.Equal(t, 0, resp.Counts.CutOuts)

	rec, err := f.history.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.False(t, decodeOptions(rec.Options, mapper.DefaultOptions()).ImportDoors)
}

func TestCreateImportClampsQueryOptions(t *testing.T) {
	f := newFixture(t)
	resp := upload(t, f, "?arcSegments=99999999&miterLimit=Inf&junctionTolerance=-3")

	rec, err := f.history.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	opts := decodeOptions(rec.Options, mapper.DefaultOptions())
	assert.Equal(t, geometry.MaxArcSegments, opts.ArcSegments)
	assert.Equal(t, 10.0, opts.MiterLimit)
	assert.Equal(t, mapper.DefaultOptions().JunctionTolerance, opts.JunctionTolerance)
}

func TestCreateImportWithoutFile(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	status, body := do(t, f.app, req)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "file required")
}

func TestCreateImportFatalErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind models.ErrorKind
	}{
		{"not an archive", []byte("plain text, not a zip"), models.KindArchiveCorrupt},
		{"missing home", buildArchive(t, map[string][]byte{"other.txt": []byte("x")}), models.KindArchiveMissingEntry},
		{"broken xml", buildArchive(t, map[string][]byte{"Home.xml": []byte("<home><wall")}), models.KindDocumentMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			status, body := do(t, f.app, uploadRequest(t, "/imports", tt.data))
			assert.Equal(t, fiber.StatusUnprocessableEntity, status)

			var out map[string]any
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, string(tt.kind), out["kind"])

			rec, err := f.history.GetByID(context.Background(), out["id"].(string))
			require.NoError(t, err)
			assert.Equal(t, store.StatusFailed, rec.Status)
			assert.Equal(t, string(tt.kind), rec.ErrorKind)
		})
	}
}

func TestGetAndListImports(t *testing.T) {
	f := newFixture(t)
	first := upload(t, f, "")
	second := upload(t, f, "")

	status, body := do(t, f.app, httptest.NewRequest(http.MethodGet, "/imports/"+first.ID, nil))
	require.Equal(t, fiber.StatusOK, status)
	var rec store.ImportRecord
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, first.ID, rec.ID)

	status, body = do(t, f.app, httptest.NewRequest(http.MethodGet, "/imports?limit=1", nil))
	require.Equal(t, fiber.StatusOK, status)
	var list []store.ImportRecord
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	status, _ = do(t, f.app, httptest.NewRequest(http.MethodGet, "/imports/unknown", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSceneReimportMatchesUpload(t *testing.T) {
	f := newFixture(t)
	created := upload(t, f, "")

	status, body := do(t, f.app, httptest.NewRequest(http.MethodGet, "/imports/"+created.ID+"/scene", nil))
	require.Equal(t, fiber.StatusOK, status)

	var again importResponse
	require.NoError(t, json.Unmarshal(body, &again))
	assert.Equal(t, created.Counts, again.Counts)
	assert.Equal(t, created.Scene, again.Scene)
}

func TestSceneArchiveGone(t *testing.T) {
	f := newFixture(t)
	created := upload(t, f, "")
	delete(f.blobs.data, blob.ArchiveKey(created.ID))

	status, _ := do(t, f.app, httptest.NewRequest(http.MethodGet, "/imports/"+created.ID+"/scene", nil))
	assert.Equal(t, fiber.StatusGone, status)
}

func TestPlanSVG(t *testing.T) {
	f := newFixture(t)
	created := upload(t, f, "")

	req := httptest.NewRequest(http.MethodGet, "/imports/"+created.ID+"/plan.svg", nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<svg")
	assert.Contains(t, string(body), `<g id="L0">`)

	status, _ := do(t, f.app, httptest.NewRequest(http.MethodGet, "/imports/"+created.ID+"/plan.svg?level=nope", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestResourceEntry(t *testing.T) {
	f := newFixture(t)
	created := upload(t, f, "")

	req := httptest.NewRequest(http.MethodGet, "/imports/"+created.ID+"/resources/icons/door.png", nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, pngHeader, body)

	status, _ := do(t, f.app, httptest.NewRequest(http.MethodGet, "/imports/"+created.ID+"/resources/models/none.obj", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHealthProbes(t *testing.T) {
	f := newFixture(t)

	status, body := do(t, f.app, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "alive")

	status, body = do(t, f.app, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "ready")
}

type downDB struct{}

func (downDB) PingContext(context.Context) error { return errors.New("database is closed") }

func TestReadinessFailsWhenDatabaseDown(t *testing.T) {
	app := fiber.New()
	app.Get("/health/ready", ReadinessProbe(downDB{}))

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), "database is closed")
}
