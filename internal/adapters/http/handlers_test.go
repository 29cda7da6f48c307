package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geopick/internal/core/domain"
	"github.com/samirrijal/geopick/internal/core/ports"
	"github.com/samirrijal/geopick/internal/core/usecases"
)

// nopRenderer satisfies ports.Renderer without a browser surface.
type nopRenderer struct {
	ids atomic.Int64
}

func (r *nopRenderer) nextID() (domain.LayerID, error) {
	return domain.LayerID(fmt.Sprintf("layer-%d", r.ids.Add(1))), nil
}

func (r *nopRenderer) CreateMap(domain.MapConfig) error     { return nil }
func (r *nopRenderer) SetView(domain.Coordinate, int) error { return nil }
func (r *nopRenderer) AddTileLayer(string, string) error    { return nil }
func (r *nopRenderer) AddMarker(domain.MarkerSpec) (domain.LayerID, error) {
	return r.nextID()
}
func (r *nopRenderer) AddCircle(domain.CircleSpec) (domain.LayerID, error) {
	return r.nextID()
}
func (r *nopRenderer) AddPath([]domain.Coordinate, domain.PathStyle) (domain.LayerID, error) {
	return r.nextID()
}
func (r *nopRenderer) RemoveLayer(domain.LayerID) error       { return nil }
func (r *nopRenderer) FitBounds(domain.Bounds, int) error     { return nil }
func (r *nopRenderer) BindPopup(domain.LayerID, string) error { return nil }
func (r *nopRenderer) OpenPopup(domain.LayerID) error         { return nil }
func (r *nopRenderer) Notice(string) error                    { return nil }
func (r *nopRenderer) OnReady(func())                         {}
func (r *nopRenderer) OnClick(func(domain.Coordinate))        {}
func (r *nopRenderer) OnConfirm(func())                       {}

func newTestApp() (*fiber.App, *Dependencies) {
	deps := &Dependencies{
		Sessions: usecases.NewSessionManager(),
		Defaults: usecases.DefaultMapConfig(),
		NewRenderer: func(sessionID string) ports.Renderer {
			return &nopRenderer{}
		},
	}
	app := fiber.New()
	SetupRoutes(app, deps)
	return app, deps
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var m map[string]any
	if len(data) > 0 {
		_ = json.Unmarshal(data, &m)
	}
	return resp.StatusCode, m
}

func createInitedSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := doJSON(t, app, "POST", "/v1/sessions", "")
	if status != 201 {
		t.Fatalf("create session: status %d", status)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("create session: missing id")
	}
	if status, _ := doJSON(t, app, "POST", "/v1/sessions/"+id+"/init", "{}"); status != 200 {
		t.Fatalf("init session: status %d", status)
	}
	return id
}

func TestCreateSession(t *testing.T) {
	app, deps := newTestApp()

	status, body := doJSON(t, app, "POST", "/v1/sessions",
		`{"lat": 10.48, "lng": -66.90, "zoom": 15, "selector_icon": "flag"}`)
	if status != 201 {
		t.Fatalf("expected 201, got %d", status)
	}
	if body["initialized"] != false {
		t.Error("new session must not be initialized")
	}
	cfg, _ := body["config"].(map[string]any)
	if cfg["lat"] != 10.48 || cfg["zoom"] != float64(15) {
		t.Errorf("overrides not applied: %v", cfg)
	}
	if deps.Sessions.Len() != 1 {
		t.Errorf("expected 1 registered session, got %d", deps.Sessions.Len())
	}
}

func TestSessionNotFound(t *testing.T) {
	app, _ := newTestApp()
	status, _ := doJSON(t, app, "GET", "/v1/sessions/nope", "")
	if status != 404 {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestDeleteSession(t *testing.T) {
	app, _ := newTestApp()
	id := createInitedSession(t, app)

	if status, _ := doJSON(t, app, "DELETE", "/v1/sessions/"+id, ""); status != 204 {
		t.Fatalf("expected 204, got %d", status)
	}
	if status, _ := doJSON(t, app, "GET", "/v1/sessions/"+id, ""); status != 404 {
		t.Errorf("deleted session still resolvable: %d", status)
	}
}

func TestInit_InvalidNumbersKeepDefaults(t *testing.T) {
	app, _ := newTestApp()
	status, body := doJSON(t, app, "POST", "/v1/sessions", "")
	if status != 201 {
		t.Fatalf("create: %d", status)
	}
	id := body["id"].(string)

	status, body = doJSON(t, app, "POST", "/v1/sessions/"+id+"/init",
		`{"lat": "not-a-number", "zoom": "12"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	cfg := body["config"].(map[string]any)
	if cfg["lat"] != 43.2630 {
		t.Errorf("invalid lat must keep default, got %v", cfg["lat"])
	}
	if cfg["zoom"] != float64(12) {
		t.Errorf("valid zoom must apply, got %v", cfg["zoom"])
	}
}

func TestAddMarkers_RequiresInit(t *testing.T) {
	app, _ := newTestApp()
	status, body := doJSON(t, app, "POST", "/v1/sessions", "")
	if status != 201 {
		t.Fatalf("create: %d", status)
	}
	id := body["id"].(string)

	status, _ = doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers",
		`{"markers": [{"lat": 1, "lng": 2}]}`)
	if status != 409 {
		t.Errorf("expected 409 before init, got %d", status)
	}
}

func TestAddAndClearMarkers(t *testing.T) {
	app, _ := newTestApp()
	id := createInitedSession(t, app)

	status, body := doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers",
		`{"markers": [{"lat": 1, "lng": 2}, {"lat": 3, "lng": 4, "icon": "depot"}], "fit_to_bounds": true}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["added"] != float64(2) {
		t.Errorf("expected 2 added, got %v", body["added"])
	}

	status, body = doJSON(t, app, "DELETE", "/v1/sessions/"+id+"/markers", "")
	if status != 200 || body["marker_count"] != float64(0) {
		t.Errorf("clear failed: %d %v", status, body)
	}
}

func TestDrawRoute_StraightFallbackWithoutFinder(t *testing.T) {
	app, _ := newTestApp()
	id := createInitedSession(t, app)

	status, body := doJSON(t, app, "POST", "/v1/sessions/"+id+"/routes",
		`{"origin": {"lat": 10.0, "lng": -66.0}, "destination": {"lat": 10.1, "lng": -66.1}, "use_road_route": true}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	// No RouteFinder is configured, so a road request degrades silently.
	if body["kind"] != domain.RouteKindStraight {
		t.Errorf("expected straight fallback, got %v", body["kind"])
	}
	if _, ok := body["distance_km"].(string); !ok {
		t.Errorf("distance_km must be a formatted string, got %v", body["distance_km"])
	}
	if body["duration_minutes"] != nil {
		t.Errorf("straight routes carry no duration, got %v", body["duration_minutes"])
	}
}

func TestDrawRoute_MalformedBody(t *testing.T) {
	app, _ := newTestApp()
	id := createInitedSession(t, app)

	status, _ := doJSON(t, app, "POST", "/v1/sessions/"+id+"/routes", `{"origin": [`)
	if status != 400 {
		t.Errorf("expected 400 for malformed body, got %d", status)
	}
}

func TestSelectorFlow(t *testing.T) {
	app, _ := newTestApp()
	id := createInitedSession(t, app)
	base := "/v1/sessions/" + id + "/selector"

	// Confirm with nothing selected: conflict, selection workflow untouched.
	if status, _ := doJSON(t, app, "POST", base+"/confirm", ""); status != 409 {
		t.Errorf("expected 409 confirming without a point, got %d", status)
	}

	status, body := doJSON(t, app, "POST", base+"/enable", "")
	if status != 200 || body["selector_state"] != string(usecases.SelectorEnabled) {
		t.Fatalf("enable failed: %d %v", status, body)
	}

	status, body = doJSON(t, app, "POST", base+"/point", `{"lat": 10.5, "lng": -66.9}`)
	if status != 200 || body["selector_state"] != string(usecases.SelectorPointPending) {
		t.Fatalf("place point failed: %d %v", status, body)
	}

	status, body = doJSON(t, app, "GET", base, "")
	if status != 200 {
		t.Fatalf("get selector failed: %d", status)
	}
	point := body["point"].(map[string]any)
	if point["lat"] != 10.5 {
		t.Errorf("wrong stored point: %v", point)
	}

	status, body = doJSON(t, app, "POST", base+"/confirm", "")
	if status != 200 {
		t.Fatalf("confirm failed: %d", status)
	}
	if body["formatted"] != "10.500000, -66.900000" {
		t.Errorf("wrong formatted point: %v", body["formatted"])
	}

	if status, _ := doJSON(t, app, "DELETE", base, ""); status != 200 {
		t.Errorf("clear point failed: %d", status)
	}
	status, body = doJSON(t, app, "GET", base, "")
	if status != 200 || body["point"] != nil {
		t.Errorf("point must be gone after clear: %v", body["point"])
	}
}

func TestPlacePoint_RequiresEnabledSelector(t *testing.T) {
	app, _ := newTestApp()
	id := createInitedSession(t, app)

	status, _ := doJSON(t, app, "POST", "/v1/sessions/"+id+"/selector/point",
		`{"lat": 1, "lng": 2}`)
	if status != 409 {
		t.Errorf("expected 409 with selector disabled, got %d", status)
	}
}

func TestOverlays_Unconfigured(t *testing.T) {
	app, _ := newTestApp()
	id := createInitedSession(t, app)

	status, _ := doJSON(t, app, "POST", "/v1/sessions/"+id+"/overlays/depots", "")
	if status != 503 {
		t.Errorf("expected 503 without overlay storage, got %d", status)
	}
	if status, _ := doJSON(t, app, "GET", "/v1/overlays", ""); status != 503 {
		t.Errorf("expected 503 without overlay storage, got %d", status)
	}
}

func TestGraphQL_SessionQuery(t *testing.T) {
	app, _ := newTestApp()
	id := createInitedSession(t, app)

	query := fmt.Sprintf(`{"query": "{ session(id: \"%s\") { id initialized marker_count selector_state } }"}`, id)
	status, body := doJSON(t, app, "POST", "/graphql", query)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	data, _ := body["data"].(map[string]any)
	sess, _ := data["session"].(map[string]any)
	if sess == nil || sess["id"] != id {
		t.Fatalf("session query failed: %v", body)
	}
	if sess["initialized"] != true {
		t.Errorf("expected initialized session, got %v", sess)
	}
	if sess["selector_state"] != string(usecases.SelectorDisabled) {
		t.Errorf("wrong selector state: %v", sess["selector_state"])
	}
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp()
	status, body := doJSON(t, app, "GET", "/v1/health", "")
	if status != 200 || body["status"] != "healthy" {
		t.Errorf("health check failed: %d %v", status, body)
	}
	// No backends configured — the service must still be ready.
	status, body = doJSON(t, app, "GET", "/v1/ready", "")
	if status != 200 || body["status"] != "ready" {
		t.Errorf("ready must tolerate optional backends: %d %v", status, body)
	}
}
