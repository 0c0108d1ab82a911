package rest

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

	"github.com/KevinKickass/OpenPedalCore/internal/api/websocket"
	"github.com/KevinKickass/OpenPedalCore/internal/auth"
	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	"github.com/KevinKickass/OpenPedalCore/internal/config"
	"github.com/KevinKickass/OpenPedalCore/internal/diagram"
	"github.com/KevinKickass/OpenPedalCore/internal/events"
	"github.com/KevinKickass/OpenPedalCore/internal/interfaces"
	"github.com/KevinKickass/OpenPedalCore/internal/power"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/KevinKickass/OpenPedalCore/internal/workbench"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func powerJack(id int, dir types.JackDirection, voltage string, ma int) types.Jack {
	return types.Jack{
		ID:            id,
		Category:      types.JackCategoryPower,
		Direction:     dir,
		Voltage:       strp(voltage),
		CurrentMA:     intp(ma),
		Polarity:      strp("Center Negative"),
		ConnectorType: strp("2.1mm barrel"),
	}
}

func testProducts() []types.Product {
	return []types.Product{
		{ID: 1, ProductType: types.ProductTypePowerSupply, Manufacturer: "Acme", Model: "Power 1",
			Jacks:  []types.Jack{powerJack(10, types.DirectionOutput, "9V", 500)},
			Detail: map[string]any{power.DetailTotalCurrentMA: 500, power.DetailTotalOutputCount: 1}},
		{ID: 2, ProductType: types.ProductTypePedal, Manufacturer: "Boss", Model: "DS-1",
			Jacks: []types.Jack{powerJack(20, types.DirectionInput, "9V", 300)}},
		{ID: 3, ProductType: types.ProductTypePedal, Manufacturer: "Boss", Model: "BD-2",
			Jacks: []types.Jack{powerJack(30, types.DirectionInput, "9V", 250)}},
		{ID: 4, ProductType: types.ProductTypePowerSupply, Manufacturer: "Acme", Model: "Power 8", MSRPCents: intp(19900),
			Jacks:  []types.Jack{powerJack(40, types.DirectionOutput, "9V", 500), powerJack(41, types.DirectionOutput, "9V", 500)},
			Detail: map[string]any{power.DetailTotalCurrentMA: 2000, power.DetailTotalOutputCount: 2}},
	}
}

type testEnv struct {
	server  *Server
	auth    *auth.Service
	benches *workbench.Manager
}

func newTestEnv(t *testing.T, authEnabled bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	idx, err := catalog.OpenIndex(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	if err := idx.Replace(ctx, testProducts()); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	streamer := events.NewStreamer()
	t.Cleanup(streamer.Close)

	benches := workbench.NewManager(workbench.NewMemoryStore(), idx, streamer, workbench.Options{}, zap.NewNop())
	benches.Load(ctx)

	t.Setenv("OPC_TEST_JWT_SECRET", "rest-test-secret-that-is-long-enough")
	authService := auth.NewService(auth.NewMemoryStore(), config.AuthConfig{
		Enabled:         authEnabled,
		JWTSecretEnv:    "OPC_TEST_JWT_SECRET",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, auth.NewPasswordHasherWithCost(1024, 1), zap.NewNop())

	hub := websocket.NewHub(zap.NewNop(), authService, streamer)
	cfg := &config.Config{Server: config.ServerConfig{HTTPPort: 0}}

	return &testEnv{
		server:  NewServer(cfg, idx, benches, hub, authService, zap.NewNop()),
		auth:    authService,
		benches: benches,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	if code == "" {
		return
	}
	resp := decode[types.ErrorResponse](t, w)
	if resp.Error.Code != code {
		t.Errorf("code = %q, want %q", resp.Error.Code, code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true)
	w := env.do(t, http.MethodGet, "/health", nil, "")
	expectCode(t, w, http.StatusOK, "")
}

func TestProducts(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/api/v1/products?type=pedal", nil, "")
	expectCode(t, w, http.StatusOK, "")
	list := decode[struct {
		Products []types.Product `json:"products"`
		Count    int             `json:"count"`
	}](t, w)
	if list.Count != 2 {
		t.Errorf("count = %d, want 2", list.Count)
	}

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"bad type", "/api/v1/products?type=amp", http.StatusBadRequest, "CATALOG_400"},
		{"bad limit", "/api/v1/products?limit=x", http.StatusBadRequest, "CATALOG_400"},
		{"bad id", "/api/v1/products/abc", http.StatusBadRequest, "CATALOG_400"},
		{"missing", "/api/v1/products/99", http.StatusNotFound, "CATALOG_404"},
		{"found", "/api/v1/products/2", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectCode(t, env.do(t, http.MethodGet, tt.path, nil, ""), tt.status, tt.code)
		})
	}
}

func TestPowerBudget(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/v1/power/budget", DeviceSetRequest{ProductIDs: []int{1, 2, 3}}, "")
	expectCode(t, w, http.StatusOK, "")
	resp := decode[struct {
		Budget  power.BudgetData `json:"budget"`
		Insight []string         `json:"insight"`
	}](t, w)

	if resp.Budget.Status != power.StatusInsufficient {
		t.Errorf("status = %s, want insufficient", resp.Budget.Status)
	}
	if resp.Budget.TotalDraw != 550 || resp.Budget.Headroom != -50 {
		t.Errorf("draw = %d headroom = %d, want 550 / -50", resp.Budget.TotalDraw, resp.Budget.Headroom)
	}
	if len(resp.Insight) == 0 {
		t.Error("expected insight lines")
	}

	w = env.do(t, http.MethodPost, "/api/v1/power/budget", DeviceSetRequest{ProductIDs: []int{2, 77}}, "")
	expectCode(t, w, http.StatusNotFound, "CATALOG_404")
}

func TestPowerAssignmentsAndAudit(t *testing.T) {
	env := newTestEnv(t, false)
	body := DeviceSetRequest{ProductIDs: []int{1, 2, 3}}

	w := env.do(t, http.MethodPost, "/api/v1/power/assignments", body, "")
	expectCode(t, w, http.StatusOK, "")
	result := decode[power.AssignmentResult](t, w)
	if len(result.Assignments) != 1 || len(result.Unassigned) != 1 {
		t.Fatalf("assignments = %d unassigned = %d, want 1 / 1", len(result.Assignments), len(result.Unassigned))
	}
	if result.Assignments[0].Consumer.ProductID != 2 {
		t.Errorf("highest draw should win the port, got product %d", result.Assignments[0].Consumer.ProductID)
	}

	w = env.do(t, http.MethodPost, "/api/v1/power/audit", body, "")
	expectCode(t, w, http.StatusOK, "")
	report := decode[power.Report](t, w)
	if report.Valid {
		t.Error("audit of an over-budget bench should be invalid")
	}

	w = env.do(t, http.MethodPost, "/api/v1/power/daisy-chains", body, "")
	expectCode(t, w, http.StatusOK, "")
}

func TestValidateConnection(t *testing.T) {
	env := newTestEnv(t, false)

	req := ValidateRequest{
		Output: powerJack(1, types.DirectionOutput, "9V", 100),
		Input:  powerJack(2, types.DirectionInput, "9V", 300),
	}
	w := env.do(t, http.MethodPost, "/api/v1/power/validate", req, "")
	expectCode(t, w, http.StatusOK, "")
	if check := decode[power.ConnectionCheck](t, w); check.Status != power.SevError {
		t.Errorf("status = %s, want error", check.Status)
	}

	req.CumulativeMA = intp(50)
	req.Output.CurrentMA = intp(500)
	w = env.do(t, http.MethodPost, "/api/v1/power/validate", req, "")
	if check := decode[power.ConnectionCheck](t, w); check.Status != power.SevValid {
		t.Errorf("status = %s, want valid", check.Status)
	}
}

func TestCalculate(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/v1/power/calculate", CalculateRequest{SupplyID: 1, PedalIDs: []int{2}}, "")
	expectCode(t, w, http.StatusOK, "")
	res := decode[power.CalculationResult](t, w)
	if want := "Total draw: 300mA of 500mA capacity (200mA headroom)."; res.Summary != want {
		t.Errorf("summary = %q, want %q", res.Summary, want)
	}

	w = env.do(t, http.MethodPost, "/api/v1/power/calculate", CalculateRequest{SupplyID: 2, PedalIDs: []int{3}}, "")
	expectCode(t, w, http.StatusBadRequest, "POWER_400")

	w = env.do(t, http.MethodPost, "/api/v1/power/calculate", CalculateRequest{SupplyID: 99}, "")
	expectCode(t, w, http.StatusNotFound, "CATALOG_404")
}

func TestMatchSuppliesAndLink(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/api/v1/power/supplies/match?pedal_ids=2,3", nil, "")
	expectCode(t, w, http.StatusOK, "")
	resp := decode[struct {
		RequiredMA int                 `json:"required_ma"`
		Supplies   []power.SupplyMatch `json:"supplies"`
	}](t, w)
	if resp.RequiredMA != 550 || len(resp.Supplies) != 1 || resp.Supplies[0].ID != 4 {
		t.Fatalf("match = %+v", resp)
	}
	if resp.Supplies[0].MSRPDisplay == nil || *resp.Supplies[0].MSRPDisplay != "$199.00" {
		t.Errorf("msrp = %v", resp.Supplies[0].MSRPDisplay)
	}

	expectCode(t, env.do(t, http.MethodGet, "/api/v1/power/supplies/match", nil, ""), http.StatusBadRequest, "POWER_400")
	expectCode(t, env.do(t, http.MethodGet, "/api/v1/power/supplies/match?pedal_ids=2,x", nil, ""), http.StatusBadRequest, "POWER_400")

	w = env.do(t, http.MethodGet, "/api/v1/power/supply-link?product_ids=2,3", nil, "")
	expectCode(t, w, http.StatusOK, "")
	link := decode[map[string]string](t, w)
	if !strings.Contains(link["url"], "minCurrent=550") || !strings.Contains(link["url"], "minOutputs=2") {
		t.Errorf("url = %q", link["url"])
	}
}

func TestWorkbenchLifecycle(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/v1/workbenches", WorkbenchRequest{Name: "Main Board"}, "")
	expectCode(t, w, http.StatusCreated, "")
	wb := decode[types.Workbench](t, w)

	expectCode(t, env.do(t, http.MethodPost, "/api/v1/workbenches", WorkbenchRequest{Name: "  "}, ""),
		http.StatusBadRequest, "WORKBENCH_400")

	base := "/api/v1/workbenches/" + wb.ID
	w = env.do(t, http.MethodPatch, base, WorkbenchRequest{Name: "Gig Board"}, "")
	expectCode(t, w, http.StatusOK, "")
	if got := decode[types.Workbench](t, w); got.Name != "Gig Board" {
		t.Errorf("name = %q", got.Name)
	}

	supply := decode[types.WorkbenchItem](t, env.do(t, http.MethodPost, base+"/items", AddItemRequest{ProductID: 1}, ""))
	decode[types.WorkbenchItem](t, env.do(t, http.MethodPost, base+"/items", AddItemRequest{ProductID: 2}, ""))
	decode[types.WorkbenchItem](t, env.do(t, http.MethodPost, base+"/items", AddItemRequest{ProductID: 2}, ""))
	if supply.ProductType != types.ProductTypePowerSupply {
		t.Errorf("product type = %s", supply.ProductType)
	}
	expectCode(t, env.do(t, http.MethodPost, base+"/items", AddItemRequest{ProductID: 99}, ""),
		http.StatusNotFound, "CATALOG_404")

	w = env.do(t, http.MethodGet, base+"/products/2/count", nil, "")
	if got := decode[map[string]int](t, w); got["count"] != 2 {
		t.Errorf("count = %v, want 2", got)
	}

	w = env.do(t, http.MethodGet, base+"/power", nil, "")
	expectCode(t, w, http.StatusOK, "")
	view := decode[workbench.PowerView](t, w)
	if view.Budget.TotalDraw != 600 || view.Budget.Status != power.StatusInsufficient {
		t.Errorf("draw = %d status = %s", view.Budget.TotalDraw, view.Budget.Status)
	}

	w = env.do(t, http.MethodDelete, base+"/products/2", nil, "")
	if got := decode[map[string]int](t, w); got["removed"] != 2 {
		t.Errorf("removed = %v, want 2", got)
	}

	expectCode(t, env.do(t, http.MethodDelete, base+"/items/nope", nil, ""), http.StatusNotFound, "WORKBENCH_404")
	expectCode(t, env.do(t, http.MethodDelete, base+"/items/"+supply.InstanceID, nil, ""), http.StatusOK, "")

	expectCode(t, env.do(t, http.MethodPut, base+"/positions/board", PositionRequest{InstanceID: "x", X: 3, Y: 4}, ""),
		http.StatusOK, "")
	w = env.do(t, http.MethodGet, base+"/positions/board", nil, "")
	pos := decode[struct {
		Positions map[string]types.Point `json:"positions"`
	}](t, w)
	if pos.Positions["x"] != (types.Point{X: 3, Y: 4}) {
		t.Errorf("positions = %+v", pos.Positions)
	}

	expectCode(t, env.do(t, http.MethodDelete, base, nil, ""), http.StatusOK, "")
	expectCode(t, env.do(t, http.MethodGet, base, nil, ""), http.StatusNotFound, "WORKBENCH_404")
}

func TestWorkbenchConnectionsAndDiagram(t *testing.T) {
	env := newTestEnv(t, false)
	base := "/api/v1/workbenches/" + workbench.Active

	supply := decode[types.WorkbenchItem](t, env.do(t, http.MethodPost, base+"/items", AddItemRequest{ProductID: 1}, ""))
	pedal := decode[types.WorkbenchItem](t, env.do(t, http.MethodPost, base+"/items", AddItemRequest{ProductID: 2}, ""))

	// output first, then input
	w := env.do(t, http.MethodPost, base+"/diagram/click", map[string]any{"instance_id": supply.InstanceID, "jack_id": 10}, "")
	expectCode(t, w, http.StatusOK, "")
	if in := decode[diagram.Interaction](t, w); in.State != diagram.StatePending {
		t.Fatalf("state = %s, want pending", in.State)
	}
	w = env.do(t, http.MethodPost, base+"/diagram/click", map[string]any{"instance_id": pedal.InstanceID, "jack_id": 20}, "")
	if in := decode[diagram.Interaction](t, w); in.State != diagram.StateIdle {
		t.Fatalf("state = %s, want idle", in.State)
	}

	w = env.do(t, http.MethodGet, base+"/connections", nil, "")
	conns := decode[SetConnectionsRequest](t, w).Connections
	if len(conns) != 1 || conns[0].SourceInstanceID != supply.InstanceID || conns[0].TargetJackID != 20 {
		t.Fatalf("connections = %+v", conns)
	}

	expectCode(t, env.do(t, http.MethodPost, base+"/diagram/click", map[string]any{"instance_id": "ghost", "jack_id": 1}, ""),
		http.StatusBadRequest, "DIAGRAM_400")
	expectCode(t, env.do(t, http.MethodPost, base+"/diagram/select", SelectRequest{ConnectionID: "nope"}, ""),
		http.StatusNotFound, "DIAGRAM_404")

	w = env.do(t, http.MethodPost, base+"/diagram/select", SelectRequest{ConnectionID: conns[0].ID}, "")
	if in := decode[diagram.Interaction](t, w); in.Selected != conns[0].ID {
		t.Errorf("selected = %q", in.Selected)
	}
	expectCode(t, env.do(t, http.MethodPost, base+"/diagram/delete", nil, ""), http.StatusOK, "")

	w = env.do(t, http.MethodGet, base+"/connections", nil, "")
	if n := len(decode[SetConnectionsRequest](t, w).Connections); n != 0 {
		t.Fatalf("connections after delete = %d", n)
	}

	w = env.do(t, http.MethodPost, base+"/auto-assign", nil, "")
	expectCode(t, w, http.StatusOK, "")
	auto := decode[SetConnectionsRequest](t, w).Connections
	if len(auto) != 1 {
		t.Fatalf("auto-assigned = %d, want 1", len(auto))
	}

	ack := AcknowledgeRequest{Warning: "Polarity mismatch"}
	expectCode(t, env.do(t, http.MethodPost, base+"/connections/"+auto[0].ID+"/acknowledge", ack, ""), http.StatusOK, "")
	expectCode(t, env.do(t, http.MethodPost, base+"/connections/nope/acknowledge", ack, ""), http.StatusNotFound, "DIAGRAM_404")

	w = env.do(t, http.MethodGet, base+"/power", nil, "")
	view := decode[workbench.PowerView](t, w)
	if len(view.Connections) != 1 || view.Connections[0].Status != power.SevValid {
		t.Errorf("evaluated = %+v", view.Connections)
	}

	expectCode(t, env.do(t, http.MethodDelete, base+"/connections/"+auto[0].ID, nil, ""), http.StatusOK, "")
	expectCode(t, env.do(t, http.MethodDelete, base+"/connections/"+auto[0].ID, nil, ""), http.StatusNotFound, "DIAGRAM_404")

	expectCode(t, env.do(t, http.MethodPost, base+"/clear", nil, ""), http.StatusOK, "")
	if n, _ := env.benches.TotalItemCount(workbench.Active); n != 0 {
		t.Errorf("items after clear = %d", n)
	}
}

func TestAuthEnforced(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	if _, err := env.auth.CreateUser(ctx, "viewer", "viewer-password", auth.RoleViewer); err != nil {
		t.Fatal(err)
	}
	if _, err := env.auth.CreateUser(ctx, "admin", "admin-password", auth.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	expectCode(t, env.do(t, http.MethodGet, "/api/v1/products", nil, ""), http.StatusUnauthorized, "AUTH_401")
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequest{Username: "viewer", Password: "wrong-password"}, ""),
		http.StatusUnauthorized, "AUTH_401")

	login := func(user, pw string) auth.TokenPair {
		w := env.do(t, http.MethodPost, "/api/v1/auth/login", LoginRequest{Username: user, Password: pw}, "")
		expectCode(t, w, http.StatusOK, "")
		return decode[auth.TokenPair](t, w)
	}
	viewer := login("viewer", "viewer-password")
	admin := login("admin", "admin-password")

	expectCode(t, env.do(t, http.MethodGet, "/api/v1/products", nil, viewer.AccessToken), http.StatusOK, "")
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/workbenches", WorkbenchRequest{Name: "x"}, viewer.AccessToken),
		http.StatusForbidden, "AUTH_403")
	expectCode(t, env.do(t, http.MethodGet, "/api/v1/users", nil, viewer.AccessToken), http.StatusForbidden, "AUTH_403")
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/workbenches", WorkbenchRequest{Name: "x"}, admin.AccessToken),
		http.StatusCreated, "")

	w := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, viewer.AccessToken)
	expectCode(t, w, http.StatusOK, "")

	// API token round trip
	w = env.do(t, http.MethodPost, "/api/v1/api-tokens", CreateAPITokenRequest{Name: "ci"}, admin.AccessToken)
	expectCode(t, w, http.StatusCreated, "")
	created := decode[CreateAPITokenResponse](t, w)
	if !auth.IsAPIToken(created.Token) {
		t.Fatalf("token %q has wrong format", created.Token)
	}
	expectCode(t, env.do(t, http.MethodGet, "/api/v1/products", nil, created.Token), http.StatusOK, "")
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/workbenches", WorkbenchRequest{Name: "y"}, created.Token),
		http.StatusForbidden, "AUTH_403")

	// refresh rotates
	w = env.do(t, http.MethodPost, "/api/v1/auth/refresh", RefreshRequest{RefreshToken: viewer.RefreshToken}, "")
	expectCode(t, w, http.StatusOK, "")
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/auth/refresh", RefreshRequest{RefreshToken: viewer.RefreshToken}, ""),
		http.StatusUnauthorized, "AUTH_401")
}

func TestUserManagement(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/v1/users", CreateUserRequest{Username: "bob", Password: "long-password", Role: "editor"}, "")
	expectCode(t, w, http.StatusCreated, "")
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/users", CreateUserRequest{Username: "bob", Password: "long-password", Role: "editor"}, ""),
		http.StatusConflict, "USER_409")
	expectCode(t, env.do(t, http.MethodPost, "/api/v1/users", CreateUserRequest{Username: "eve", Password: "long-password", Role: "root"}, ""),
		http.StatusBadRequest, "USER_400")

	expectCode(t, env.do(t, http.MethodDelete, "/api/v1/users/not-a-uuid", nil, ""), http.StatusBadRequest, "USER_400")
	expectCode(t, env.do(t, http.MethodDelete, "/api/v1/users/00000000-0000-0000-0000-000000000001", nil, ""),
		http.StatusNotFound, "USER_404")
}

func TestSystemStatus(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/api/v1/system/status", nil, "")
	expectCode(t, w, http.StatusOK, "")
	status := decode[struct {
		Products    map[string]int `json:"products"`
		Workbenches int            `json:"workbenches"`
	}](t, w)
	if status.Products["power_supply"] != 2 || status.Products["pedal"] != 2 || status.Workbenches != 1 {
		t.Errorf("status = %+v", status)
	}

	env.server.SetStatusProvider(fixedStatus{State: "RUNNING", Components: []string{"rest-api"}})
	w = env.do(t, http.MethodGet, "/api/v1/system/status", nil, "")
	withSystem := decode[struct {
		System interfaces.SystemStatus `json:"system"`
	}](t, w)
	if withSystem.System.State != "RUNNING" || len(withSystem.System.Components) != 1 {
		t.Errorf("system = %+v", withSystem.System)
	}
}

type fixedStatus interfaces.SystemStatus

func (f fixedStatus) GetCurrentStatus() interfaces.SystemStatus { return interfaces.SystemStatus(f) }
