package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/model"
	"github.com/piwi3910/MoldQuote/internal/store"
)

const testSecret = "test-secret"

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "server-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))
	return st
}

func newTestServer(t *testing.T, opts Options) (*store.Store, http.Handler) {
	t.Helper()
	st := openTestStore(t)
	opts.Policy = model.DefaultPolicy()
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = 1000
		opts.RateLimitBurst = 1000
	}
	return st, New(st, nil, opts).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func signToken(t *testing.T, key, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

// ─── Calculation Tests ─────────────────────────────────────

func TestClampingForce(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/clamping-force", map[string]any{
		"area_cm2": 100, "cavities": 2, "pressure_bar": 500,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	res := decodeBody[clampingForceResponse](t, rr)
	if res.ForceKN != 1200 {
		t.Errorf("expected 1200 kN, got %v", res.ForceKN)
	}
	assert.Equal(t, 120.0, res.Tonnes)
	assert.Equal(t, engine.PressureManual, res.PressureSource)
	assert.Equal(t, 1.2, res.SafetyFactor)
}

func TestClampingForceFromStoredMaterial(t *testing.T) {
	st, h := newTestServer(t, Options{})
	m := model.NewMaterial("Polypropylene", "PP", "PP")
	m.PressureMinBar = model.Float(300)
	m.PressureMaxBar = model.Float(500)
	require.NoError(t, st.SaveMaterial(context.Background(), m))

	rr := doJSON(t, h, http.MethodPost, "/api/v1/clamping-force", map[string]any{
		"area_cm2": 50, "cavities": 1, "material_id": m.ID, "use_max_pressure": true, "safety_factor": 1,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decodeBody[clampingForceResponse](t, rr)
	assert.Equal(t, 250.0, res.ForceKN)
	assert.Equal(t, engine.PressureMaterialMax, res.PressureSource)
}

func TestClampingForceErrors(t *testing.T) {
	_, h := newTestServer(t, Options{})

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"zero area", map[string]any{"area_cm2": 0, "cavities": 1, "pressure_bar": 500}, http.StatusBadRequest},
		{"zero cavities", map[string]any{"area_cm2": 10, "cavities": 0, "pressure_bar": 500}, http.StatusBadRequest},
		{"no pressure data", map[string]any{"area_cm2": 10, "cavities": 1}, http.StatusUnprocessableEntity},
		{"unknown material", map[string]any{"area_cm2": 10, "cavities": 1, "material_id": "nope"}, http.StatusNotFound},
		{"unknown field", map[string]any{"area": 10}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, "/api/v1/clamping-force", tc.body)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
			body := decodeBody[errorResponse](t, rr)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestMachineSize(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/machine-size", map[string]any{"force_kn": 1200})
	require.Equal(t, http.StatusOK, rr.Code)
	rec := decodeBody[engine.MachineSizeRecommendation](t, rr)
	assert.Equal(t, 160.0, rec.SizeTonnes)
	assert.Equal(t, "160t", rec.Label)
}

func TestScrewRatio(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/screw-ratio", map[string]any{"stroke_mm": 100, "diameter_mm": 40})
	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeBody[engine.ScrewRatioResult](t, rr)
	assert.Equal(t, 2.5, res.Ratio)
	assert.True(t, res.IsOptimal)

	rr = doJSON(t, h, http.MethodPost, "/api/v1/screw-ratio", map[string]any{"stroke_mm": 100, "diameter_mm": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDemandCheckInvalidCycle(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/demand-check", map[string]any{
		"annual_demand": 100000, "cycle_time_s": 0, "cavities": 2,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCycleTimeThroughput(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/cycle-time", map[string]any{
		"wall_thickness_mm": 2, "material_family": "PP",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeBody[cycleTimeResponse](t, rr)
	assert.Equal(t, 15.4, res.CycleTimeS)
	assert.Equal(t, 1.2, res.CoolingFactor)
	assert.Zero(t, res.PartsPerHour, "no cavities given")
	assert.Zero(t, res.AnnualMachineHours)

	rr = doJSON(t, h, http.MethodPost, "/api/v1/cycle-time", map[string]any{
		"wall_thickness_mm": 2, "material_family": "PP", "cavities": 4, "annual_demand": 500000,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	res = decodeBody[cycleTimeResponse](t, rr)
	assert.InDelta(t, 935.06, res.PartsPerHour, 0.01)
	assert.Equal(t, 629.1, res.AnnualMachineHours)

	rr = doJSON(t, h, http.MethodPost, "/api/v1/cycle-time", map[string]any{
		"wall_thickness_mm": 2, "cavities": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestToolDimensions(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/tool-dimensions", map[string]any{
		"length_mm": 100, "width_mm": 50, "depth_mm": 40, "cavities": 1,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	dims := decodeBody[engine.ToolDimensions](t, rr)
	assert.Equal(t, 210.0, dims.WidthMM)
	assert.Equal(t, 260.0, dims.HeightMM)
	assert.Equal(t, 320.0, dims.LengthMM)

	rr = doJSON(t, h, http.MethodPost, "/api/v1/tool-dimensions", map[string]any{
		"length_mm": 100, "width_mm": 50, "depth_mm": 40, "cavities": 4, "layout": "hexagon",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestShotVolume(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/shot-volume", map[string]any{
		"parts": []map[string]any{
			{"name": "A", "volume_cm3": 10, "cavities": 2},
			{"name": "B", "cavities": 1},
		},
		"runner_percent": 10,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decodeBody[engine.ShotVolumeResult](t, rr)
	assert.Equal(t, 20.0, res.PartsCM3)
	assert.Equal(t, 22.0, res.TotalCM3)
	assert.Equal(t, []string{"B"}, res.Skipped)

	rr = doJSON(t, h, http.MethodPost, "/api/v1/shot-volume", map[string]any{"parts": []any{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMachineFitInline(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/machine-fit", map[string]any{
		"machine":              map[string]any{"name": "Small", "clamping_force_kn": 500},
		"required_clamping_kn": 800,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decodeBody[engine.MachineFitResult](t, rr)
	assert.False(t, res.Fits)
	assert.NotEmpty(t, res.Issues)

	rr = doJSON(t, h, http.MethodPost, "/api/v1/machine-fit", map[string]any{"required_clamping_kn": 800})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// ─── RFQ Tests ─────────────────────────────────────────────

func seedLibrary(t *testing.T, st *store.Store) (model.Material, model.Machine) {
	t.Helper()
	ctx := context.Background()

	m := model.NewMaterial("Polypropylene", "PP", "PP")
	m.DensityGCM3 = model.Float(0.9)
	m.PressureMinBar = model.Float(300)
	m.PressureMaxBar = model.Float(500)
	require.NoError(t, st.SaveMaterial(ctx, m))

	mc := model.NewMachine("Engel victory 100", "Engel")
	mc.ClampingForceKN = model.Float(1000)
	require.NoError(t, st.SaveMachine(ctx, mc))
	return m, mc
}

func testRFQ(materialID, machineID string) model.Project {
	p := model.NewProject()
	p.Name = "Clip RFQ"
	part := model.NewPart("Clip")
	part.MaterialID = materialID
	part.Geometry = model.DirectGeometry(50)
	part.VolumeCM3 = model.Float(20)
	part.PeakDemand = model.Int(100_000)
	tool := model.NewTool("Clip tool")
	tool.MachineID = machineID
	tool.CycleTimeS = model.Float(20)
	tool.Configurations = []model.ToolPartConfiguration{model.NewToolPartConfiguration(part.ID, 2)}
	p.Parts = []model.Part{part}
	p.Tools = []model.Tool{tool}
	return p
}

func TestRFQLifecycle(t *testing.T) {
	st, h := newTestServer(t, Options{})
	mat, mc := seedLibrary(t, st)
	p := testRFQ(mat.ID, mc.ID)
	path := "/api/v1/rfqs/" + p.ID

	rr := doJSON(t, h, http.MethodPut, path, p)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	saved := decodeBody[model.Project](t, rr)
	assert.Equal(t, "Clip RFQ", saved.Name)
	require.Len(t, saved.Tools, 1)

	rr = doJSON(t, h, http.MethodGet, "/api/v1/rfqs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[[]store.RFQSummary](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ToolCount)

	rr = doJSON(t, h, http.MethodGet, path+"/tools/"+p.Tools[0].ID+"/evaluation", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	report := decodeBody[engine.ToolReport](t, rr)
	require.NotNil(t, report.Clamping)
	assert.Equal(t, 480.0, report.Clamping.ForceKN)
	assert.Equal(t, "Engel victory 100", report.MachineName)
	assert.NotNil(t, report.Fit)

	rr = doJSON(t, h, http.MethodGet, path+"/tools/"+p.Tools[0].ID+"/comparison", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	cmp := decodeBody[[]engine.MachineComparison](t, rr)
	require.Len(t, cmp, 1)
	assert.Equal(t, mc.ID, cmp[0].MachineID)

	rr = doJSON(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = doJSON(t, h, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEvaluationErrors(t *testing.T) {
	st, h := newTestServer(t, Options{})
	mat, mc := seedLibrary(t, st)
	p := testRFQ(mat.ID, mc.ID)
	empty := model.NewTool("Empty")
	p.Tools = append(p.Tools, empty)
	require.NoError(t, st.SaveProject(context.Background(), p, "test"))
	base := "/api/v1/rfqs/" + p.ID + "/tools/"

	rr := doJSON(t, h, http.MethodGet, base+empty.ID+"/evaluation", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, base+"missing/evaluation", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodGet, base+p.Tools[0].ID+"/evaluation?machine_id=gone", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPutRFQValidation(t *testing.T) {
	st, h := newTestServer(t, Options{})
	mat, mc := seedLibrary(t, st)

	p := testRFQ(mat.ID, mc.ID)
	rr := doJSON(t, h, http.MethodPut, "/api/v1/rfqs/other", p)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	p.Tools[0].Configurations[0].PartID = "ghost"
	rr = doJSON(t, h, http.MethodPut, "/api/v1/rfqs/"+p.ID, p)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	p = testRFQ(mat.ID, mc.ID)
	p.Name = " "
	rr = doJSON(t, h, http.MethodPut, "/api/v1/rfqs/"+p.ID, p)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExports(t *testing.T) {
	st, h := newTestServer(t, Options{})
	mat, mc := seedLibrary(t, st)
	p := testRFQ(mat.ID, mc.ID)
	require.NoError(t, st.SaveProject(context.Background(), p, "test"))

	rr := doJSON(t, h, http.MethodGet, "/api/v1/rfqs/"+p.ID+"/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Clip_RFQ.xlsx")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")), "expected a zip container")

	rr = doJSON(t, h, http.MethodGet, "/api/v1/rfqs/"+p.ID+"/report.pdf", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, pdfContentType, rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")))
}

func TestReportPDFWithoutTools(t *testing.T) {
	st, h := newTestServer(t, Options{})
	p := model.NewProject()
	p.Name = "Empty RFQ"
	require.NoError(t, st.SaveProject(context.Background(), p, "test"))

	rr := doJSON(t, h, http.MethodGet, "/api/v1/rfqs/"+p.ID+"/report.pdf", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "Door_handle__v2_.pdf", attachmentName("Door handle (v2)", "pdf"))
	assert.Equal(t, "rfq.xlsx", attachmentName("  ", "xlsx"))
}

// ─── Library and Existing Tool Tests ───────────────────────

func TestSaveAndListMaterials(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/materials", map[string]any{"name": "ABS", "short_name": "ABS", "family": "ABS"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[model.Material](t, rr)
	assert.NotEmpty(t, created.ID)

	rr = doJSON(t, h, http.MethodGet, "/api/v1/materials", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[[]model.Material](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "ABS", list[0].Name)

	rr = doJSON(t, h, http.MethodPost, "/api/v1/materials", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExistingTools(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodPost, "/api/v1/existing-tools", map[string]any{
		"name": "Clip 4-cav", "cavities": 4, "tags": "clip, automotive",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[model.ExistingTool](t, rr)
	assert.Equal(t, "EUR", created.Currency)

	rr = doJSON(t, h, http.MethodGet, "/api/v1/existing-tools?tag=automotive", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]model.ExistingTool](t, rr), 1)

	rr = doJSON(t, h, http.MethodGet, "/api/v1/existing-tools?tag=medical", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeBody[[]model.ExistingTool](t, rr))
}

// ─── Middleware Tests ──────────────────────────────────────

func TestHealthAndMetrics(t *testing.T) {
	_, h := newTestServer(t, Options{})

	rr := doJSON(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "moldquote_http_requests_total")
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	l := newClientRateLimiter(rate.Limit(0.001), 1)
	l.now = func() time.Time { return now }

	require.True(t, l.limiter("10.0.0.1").Allow())
	require.False(t, l.limiter("10.0.0.1").Allow())

	now = now.Add(5 * time.Minute)
	l.limiter("10.0.0.2")
	assert.Len(t, l.clients, 2, "10.0.0.1 is not idle long enough")

	now = now.Add(clientIdleTTL + time.Second)
	l.limiter("10.0.0.2")
	assert.Len(t, l.clients, 1)
	assert.NotContains(t, l.clients, "10.0.0.1")

	assert.True(t, l.limiter("10.0.0.1").Allow(), "a forgotten client starts with a full bucket")
}

func TestRateLimit(t *testing.T) {
	_, h := newTestServer(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	rr := doJSON(t, h, http.MethodGet, "/api/v1/materials", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, h, http.MethodGet, "/api/v1/materials", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Health checks are not limited.
	rr = doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthOnMutatingRoutes(t *testing.T) {
	_, h := newTestServer(t, Options{JWTSecret: testSecret})
	body := map[string]any{"name": "PA6"}

	rr := doJSON(t, h, http.MethodPost, "/api/v1/materials", body)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/v1/materials", body, "Authorization", "Bearer "+signToken(t, "wrong", "alice"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/v1/materials", body, "Authorization", "Bearer "+signToken(t, testSecret, "alice"))
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// Reads stay open.
	rr = doJSON(t, h, http.MethodGet, "/api/v1/materials", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestChangedByRecordsSubject(t *testing.T) {
	st, h := newTestServer(t, Options{JWTSecret: testSecret})
	mat, mc := seedLibrary(t, st)
	p := testRFQ(mat.ID, mc.ID)
	auth := []string{"Authorization", "Bearer " + signToken(t, testSecret, "alice")}

	rr := doJSON(t, h, http.MethodPut, "/api/v1/rfqs/"+p.ID, p, auth...)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	p.Parts[0].VolumeCM3 = model.Float(25)
	rr = doJSON(t, h, http.MethodPut, "/api/v1/rfqs/"+p.ID, p, auth...)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	revs, err := st.PartRevisions(context.Background(), p.Parts[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, revs)
	for _, r := range revs {
		assert.True(t, strings.EqualFold(r.ChangedBy, "alice"), "expected alice, got %q", r.ChangedBy)
	}
}
