package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/repairdesk/internal/auth"
	"github.com/nurpe/repairdesk/internal/backend"
	"github.com/nurpe/repairdesk/internal/excel"
	"github.com/nurpe/repairdesk/internal/http/middleware"
	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/pdf"
	"github.com/nurpe/repairdesk/internal/service"
	"github.com/nurpe/repairdesk/internal/session"
)

// shop is an in-memory stand-in for the REST backend.
type shop struct {
	mu            sync.Mutex
	updates       map[string]map[string]any
	created       []map[string]any
	clients       []map[string]any
	equipment     []map[string]any
	rejectWith    string
	failOrderList bool
	orderLists    int
	reopenCalls   int
}

func (s *shop) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := func(v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	body := func() map[string]any {
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		return m
	}

	if r.Method != http.MethodGet && s.rejectWith != "" {
		reply(map[string]any{"ok": false, "error": s.rejectWith})
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/ordenes":
		s.orderLists++
		if s.failOrderList {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			reply(map[string]any{"error": "database busy"})
			return
		}
		reply([]map[string]any{
			{"id": 7, "cliente_id": 1, "equipo_id": 10, "fecha": "2026-02-27", "hora_ingreso": "08:30:00",
				"nombre_contacto": "Acme", "falla": "NO ENCIENDE", "repuestos": "TONER + FUSOR", "importe": "50.00", "estado": "EN REPARACION"},
			{"id": 8, "cliente_id": 1, "equipo_id": 10, "fecha": "2026-02-20", "importe": 30, "estado": "TERMINADA"},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/api/clientes":
		reply(s.clients)
	case r.Method == http.MethodGet && r.URL.Path == "/api/equipos":
		reply(s.equipment)
	case r.Method == http.MethodGet && r.URL.Path == "/api/fallas":
		reply([]map[string]any{{"id": 1, "descripcion": "NO ENCIENDE"}})
	case r.Method == http.MethodGet && r.URL.Path == "/api/reparaciones":
		reply([]map[string]any{})
	case r.Method == http.MethodGet && r.URL.Path == "/api/repuestos":
		reply([]map[string]any{{"id": 1, "nombre": "TONER", "costo": 10.5}, {"id": 2, "nombre": "FUSOR", "costo": "20"}})
	case r.Method == http.MethodPut:
		s.updates[r.URL.Path] = body()
		reply(map[string]any{"ok": true})
	case r.Method == http.MethodPost && r.URL.Path == "/api/ordenes/8/reabrir":
		s.reopenCalls++
		reply(map[string]any{"ok": true})
	case r.Method == http.MethodPost:
		m := body()
		s.created = append(s.created, m)
		id := 40 + len(s.created)
		m["id"] = id
		switch r.URL.Path {
		case "/api/clientes":
			s.clients = append(s.clients, m)
		case "/api/equipos":
			s.equipment = append(s.equipment, m)
		}
		reply(map[string]any{"ok": true, "id": id})
	default:
		w.WriteHeader(http.StatusNotFound)
		reply(map[string]any{"error": "no such route"})
	}
}

type testEnv struct {
	router   *gin.Engine
	shop     *shop
	sessions *session.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := &shop{
		updates:   map[string]map[string]any{},
		clients:   []map[string]any{{"id": 1, "nombre": "Acme", "telefono": "4444-1111"}},
		equipment: []map[string]any{{"id": 10, "descripcion": "Impresora", "serie": "SN-10", "cliente_id": 1}},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	log := zerolog.Nop()
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 2, 9, 15, 0, 0, time.UTC))
	client := backend.New(srv.URL, 2*time.Second, log)
	sessions := session.NewStore(clock, session.Options{})

	handler := NewHandler(
		sessions,
		service.NewOrderService(client, log),
		service.NewImportService(client, log),
		service.NewDocumentService(pdf.NewGenerator("Taller"), pdf.FileName, excel.NewGenerator(), clock),
		log,
	)
	router := NewRouter(handler, middleware.Auth(auth.NewParser("")), "test", nil, log)
	return &testEnv{router: router, shop: fake, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view session.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 2, view.Orders)
	assert.Equal(t, 2, view.PriceListSize)
	return view.ID
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) session.View {
	t.Helper()
	var view session.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view), w.Body.String())
	return view
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEditAndSaveOrder(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	w := env.do(t, http.MethodPost, base+"/orders/7/load", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decodeView(t, w)
	assert.Equal(t, "80.50", view.Draft.Amount)
	assert.True(t, view.Actions.RegisterDeparture)

	w = env.do(t, http.MethodPut, base+"/draft/spare-parts", gin.H{"text": "FUSOR - solo fusor"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, decodeView(t, w).AmountPending)

	w = env.do(t, http.MethodPut, base+"/orders", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	saved := env.shop.updates["/api/ordenes/7"]
	require.NotNil(t, saved)
	assert.Equal(t, "70.00", saved["importe"])
	assert.Equal(t, "FUSOR - solo fusor", saved["repuestos"])
	assert.Equal(t, "08:30", saved["hora_ingreso"])
	assert.Equal(t, 2, env.shop.orderLists)
}

func TestCreateOrderReturnsID(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	w := env.do(t, http.MethodPatch, base+"/draft", gin.H{"client_id": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPut, base+"/draft/equipment", gin.H{"equipment_id": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "4444-1111", decodeView(t, w).Draft.ContactPhone)

	w = env.do(t, http.MethodPost, base+"/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		ID      int64        `json:"id"`
		Session session.View `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(41), body.ID)
	assert.Equal(t, int64(41), body.Session.Draft.ID)
	require.Len(t, env.shop.created, 1)
	assert.Equal(t, "2026-03-02", env.shop.created[0]["fecha"])
	assert.Equal(t, "09:15", env.shop.created[0]["hora_ingreso"])
}

func TestCreateOrderRequiresClientAndEquipment(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	w := env.do(t, http.MethodPost, "/sessions/"+id+"/orders", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.shop.created)
}

func TestActionsAreGated(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	w := env.do(t, http.MethodPost, base+"/actions/withdraw", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, base+"/orders/8/load", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, base+"/actions/departure", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, base+"/actions/teleport", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, base+"/actions/withdraw", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decodeView(t, w)
	assert.Equal(t, "RETIRADA", view.Draft.Status)
	assert.Equal(t, "2026-03-02 09:15", view.Withdrawal)
}

func TestBackendRejectionKeepsDraft(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/orders/7/load", nil).Code)
	env.shop.rejectWith = "conflict"

	w := env.do(t, http.MethodPost, base+"/actions/finish", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "conflict", errorOf(t, w))

	w = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, "EN REPARACION", decodeView(t, w).Draft.Status)
	assert.Equal(t, 1, env.shop.orderLists)
}

func TestReopen(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	w := env.do(t, http.MethodPost, base+"/orders/7/reopen", gin.H{"reason": "falla"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, base+"/orders/99/reopen", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, base+"/orders/8/reopen", gin.H{"reason": " volvió "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, env.shop.reopenCalls)
}

func TestSessionOwnership(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	other := env.sessions.Create(model.Operator{Subject: "someone-else"})
	w = env.do(t, http.MethodGet, "/sessions/"+other.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	id := env.openSession(t)
	w = env.do(t, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	w := env.do(t, http.MethodGet, base+"/catalog/faults", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "NO ENCIENDE")

	w = env.do(t, http.MethodGet, base+"/catalog/gadgets", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, base+"/catalog/repairs", gin.H{"description": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, base+"/catalog/repairs", gin.H{"description": "CAMBIO DE FUSOR"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, env.shop.created, 1)
	assert.Equal(t, "CAMBIO DE FUSOR", env.shop.created[0]["descripcion"])
}

func TestOrderSheetAndExport(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	w := env.do(t, http.MethodGet, base+"/draft/sheet.pdf", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/orders/7/load", nil).Code)
	w = env.do(t, http.MethodGet, base+"/draft/sheet.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = env.do(t, http.MethodGet, base+"/orders/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ordenes_20260302_0915.xlsx")
}

func TestImportSparePartsWorkbook(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"101", "BANDEJA", "UN", "12.5"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"102", "", "UN", "3"}))
	var workbook bytes.Buffer
	require.NoError(t, book.Write(&workbook))

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "articulos.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/sessions/%s/catalog/spare-parts/import", id), &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Created int              `json:"created"`
		Skipped []excel.RowIssue `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Created)
	require.Len(t, body.Skipped, 1)
	assert.Equal(t, 2, body.Skipped[0].Row)
	require.Len(t, env.shop.created, 1)
	assert.Equal(t, "BANDEJA", env.shop.created[0]["nombre"])
}

func TestSaveWithFailedReloadReportsSaved(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/orders/7/load", nil).Code)
	env.shop.failOrderList = true

	w := env.do(t, http.MethodPost, base+"/actions/finish", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body struct {
		Error string `json:"error"`
		Saved bool   `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Saved)
	assert.Contains(t, body.Error, "order 7 saved")
	assert.Contains(t, body.Error, "database busy")
	assert.Equal(t, "TERMINADA", env.shop.updates["/api/ordenes/7"]["estado"])
}

func TestNewClientAndEquipmentThenOrder(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	w := env.do(t, http.MethodPost, base+"/clients", gin.H{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, base+"/clients", gin.H{"name": "Initech", "mobile": "15-2222", "warranty": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	clientID := created.ID
	assert.Equal(t, true, env.shop.created[0]["cliente_garantia"])

	w = env.do(t, http.MethodPost, base+"/equipment", gin.H{"brand": "Cisco", "client_id": clientID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPost, base+"/equipment", gin.H{"serial": "RT-1", "client_id": 77})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, base+"/equipment", gin.H{"description": "Router", "serial": "RT-1", "client_id": clientID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	equipmentID := created.ID

	w = env.do(t, http.MethodGet, fmt.Sprintf("%s/equipment?client_id=%d", base, clientID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "RT-1")

	w = env.do(t, http.MethodPut, base+"/draft/equipment", gin.H{"equipment_id": equipmentID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "15-2222", decodeView(t, w).Draft.ContactPhone)

	w = env.do(t, http.MethodPost, base+"/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := env.shop.created[len(env.shop.created)-1]
	assert.Equal(t, float64(clientID), order["cliente_id"])
	assert.Equal(t, float64(equipmentID), order["equipo_id"])
}

func TestUpdateClientAndEquipment(t *testing.T) {
	env := newTestEnv(t)
	id := env.openSession(t)
	base := "/sessions/" + id

	w := env.do(t, http.MethodPut, base+"/clients/1", gin.H{"name": "Acme SA", "phone": "4444-9999"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Acme SA", env.shop.updates["/api/clientes/1"]["nombre"])

	w = env.do(t, http.MethodPut, base+"/equipment/10", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, base+"/equipment/10", gin.H{"serial": "SN-10B"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SN-10B", env.shop.updates["/api/equipos/10"]["serie"])

	w = env.do(t, http.MethodGet, base+"/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme")
}
