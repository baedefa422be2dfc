package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasebill/internal/app"
	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/auth"
	"leasebill/internal/domain/billing"
	"leasebill/internal/infrastructure/http/v1/dto"
	"leasebill/internal/infrastructure/storage/memory"
)

const testSecret = "router-test-secret"

type testServer struct {
	handler http.Handler
	store   *memory.Store
	unitID  string
	tenant  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := app.Config{
		StorageDriver:      app.DriverMemory,
		BillingTimezone:    "UTC",
		BillingMaxPeriods:  billing.DefaultMaxPeriods,
		JWTSecret:          testSecret,
		CORSAllowedOrigins: []string{"*"},
	}
	require.NoError(t, cfg.Validate())

	store := memory.NewStore()
	storage := app.NewMemoryStorage(store)
	services := app.NewServices(cfg, storage, billing.FixedClock(time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)))

	return &testServer{
		handler: app.NewHandler(cfg, storage, services, nil),
		store:   store,
		unitID:  store.AddUnit("APT-101").String(),
		tenant:  store.AddTenant("Maria Souza").String(),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
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
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createContract(t *testing.T, headers ...string) dto.ContractDetailsResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/contratos", map[string]any{
		"inquilinoId":   s.tenant,
		"unidadeId":     s.unitID,
		"periodoInicio": "2025-01-01",
		"periodoFim":    "2025-06-30",
		"valorAluguel":  "1000.00",
		"diaVencimento": 10,
		"qtdOcupantes":  2,
		"valorIptu":     "50.00",
	}, headers...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.ContractDetailsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

type listEnvelope struct {
	Items      []dto.InstallmentResponse `json:"items"`
	TotalCount int64                     `json:"totalCount"`
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var e errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func TestRouter_CreateContractGeneratesSchedule(t *testing.T) {
	s := newTestServer(t)

	resp := s.createContract(t)

	assert.Regexp(t, `^CT-\d{4}-\d{5}$`, resp.Contrato.Numero)
	assert.Equal(t, "system", resp.Contrato.CreatedBy)
	require.Len(t, resp.Parcelas, 6)
	assert.Equal(t, "2025-01-10", resp.Parcelas[0].DataVencimento.Format("2006-01-02"))
	assert.True(t, resp.Parcelas[0].ValorTotal.Equal(types.MustMoney("1050.00")))
	assert.Equal(t, "atrasado", resp.Parcelas[0].Status)
	assert.Equal(t, "pendente", resp.Parcelas[0].StatusArmazenado)
	assert.Equal(t, "pendente", resp.Parcelas[5].Status)

	unitID, err := id.Parse(resp.Contrato.UnidadeID)
	require.NoError(t, err)
	u, ok := s.store.Unit(unitID)
	require.True(t, ok)
	assert.Equal(t, "alugado", string(u.Status))
}

func TestRouter_GetContract(t *testing.T) {
	s := newTestServer(t)
	created := s.createContract(t)

	rec := s.do(t, http.MethodGet, "/api/v1/contratos/"+created.Contrato.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ContractDetailsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.Contrato.Numero, resp.Contrato.Numero)
	assert.Len(t, resp.Parcelas, 6)
}

func TestRouter_InvalidID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/contratos/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.CodeValidation, decodeError(t, rec).Code)
}

func TestRouter_UnknownContract(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/contratos/0195f3c2-7d3e-7cc1-9a2b-3f1e6c1d2a10", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperror.CodeNotFound, decodeError(t, rec).Code)
}

func TestRouter_FilterOverdue(t *testing.T) {
	s := newTestServer(t)
	created := s.createContract(t)

	rec := s.do(t, http.MethodGet, "/api/v1/contratos/parcelas/filtro?status=atrasado&contratoId="+created.Contrato.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var list listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 3)
	assert.EqualValues(t, 3, list.TotalCount)
	for _, item := range list.Items {
		assert.Equal(t, "atrasado", item.Status)
		assert.Equal(t, "APT-101", item.UnidadeIdentificador)
		assert.Equal(t, "Maria Souza", item.InquilinoNome)
	}
}

func TestRouter_FilterRejectsUnknownStatus(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/contratos/parcelas/filtro?status=vencido", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_BulkUpdate(t *testing.T) {
	s := newTestServer(t)
	created := s.createContract(t)

	ids := []string{created.Parcelas[0].ID, created.Parcelas[1].ID}
	rec := s.do(t, http.MethodPost, "/api/v1/contratos/parcelas/bulk-update", map[string]any{
		"ids":    ids,
		"status": "pago",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var msg dto.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "2 parcela(s) marcada(s) como Pago", msg.Message)
	require.NotNil(t, msg.Count)
	assert.EqualValues(t, 2, *msg.Count)

	rec = s.do(t, http.MethodGet, "/api/v1/contratos/parcelas/"+ids[0], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var item dto.InstallmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "pago", item.Status)
	require.NotNil(t, item.DataPagamento)
	assert.Equal(t, "2025-03-15", item.DataPagamento.Format("2006-01-02"))
}

func TestRouter_BulkUpdateRefusesReopenOnClosedContract(t *testing.T) {
	s := newTestServer(t)
	created := s.createContract(t)

	rec := s.do(t, http.MethodPatch, "/api/v1/contratos/"+created.Contrato.ID+"/encerrar", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ids := []string{created.Parcelas[4].ID, created.Parcelas[5].ID}
	rec = s.do(t, http.MethodPost, "/api/v1/contratos/parcelas/bulk-update", map[string]any{
		"ids":    ids,
		"status": "pendente",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.CodeInvalidState, decodeError(t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/contratos/parcelas/"+ids[0], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var item dto.InstallmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "cancelado", item.Status)
}

func TestRouter_BulkUpdateEmptyIDs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/contratos/parcelas/bulk-update", map[string]any{
		"ids":    []string{},
		"status": "pago",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CloseContract(t *testing.T) {
	s := newTestServer(t)
	created := s.createContract(t)

	rec := s.do(t, http.MethodPatch, "/api/v1/contratos/"+created.Contrato.ID+"/encerrar", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.ContractMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Contrato encerrado com sucesso", resp.Message)
	assert.True(t, resp.Contrato.Encerrado)

	rec = s.do(t, http.MethodPatch, "/api/v1/contratos/"+created.Contrato.ID+"/encerrar", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.CodeInvalidState, decodeError(t, rec).Code)
}

func TestRouter_UpdateIgnoresPeriod(t *testing.T) {
	s := newTestServer(t)
	created := s.createContract(t)

	rec := s.do(t, http.MethodPut, "/api/v1/contratos/"+created.Contrato.ID, map[string]any{
		"periodoInicio": "2026-01-01",
		"periodoFim":    "2026-12-31",
		"valorAluguel":  "1200.00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated dto.ContractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "2025-01-01", updated.PeriodoInicio.Format("2006-01-02"))
	assert.Equal(t, "2025-06-30", updated.PeriodoFim.Format("2006-01-02"))
	assert.True(t, updated.ValorAluguel.Equal(types.MustMoney("1200.00")))

	rec = s.do(t, http.MethodGet, "/api/v1/contratos/"+created.Contrato.ID+"/renovacoes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var renewals []dto.RenewalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renewals))
	assert.Empty(t, renewals)
}

func TestRouter_RenewOverlapConflict(t *testing.T) {
	s := newTestServer(t)
	created := s.createContract(t)

	rec := s.do(t, http.MethodPost, "/api/v1/contratos/"+created.Contrato.ID+"/renovar", map[string]any{
		"novaDataInicio": "2025-05-01",
		"novaDataFim":    "2025-12-31",
		"novoValor":      "1100.00",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeConflict, decodeError(t, rec).Code)
}

func TestRouter_RenewAndListRenewals(t *testing.T) {
	s := newTestServer(t)
	created := s.createContract(t)

	rec := s.do(t, http.MethodPost, "/api/v1/contratos/"+created.Contrato.ID+"/renovar", map[string]any{
		"novaDataFim":    "2025-12-31",
		"novoValor":      "1100.00",
		"indiceReajuste": "IGP-M",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var renewed dto.ContractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renewed))
	assert.Equal(t, "2025-07-01", renewed.PeriodoInicio.Format("2006-01-02"))
	assert.True(t, renewed.ValorAluguel.Equal(types.MustMoney("1100.00")))

	rec = s.do(t, http.MethodGet, "/api/v1/contratos/"+created.Contrato.ID+"/renovacoes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var renewals []dto.RenewalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renewals))
	require.Len(t, renewals, 1)
	assert.Equal(t, "IGP-M", renewals[0].IndiceReajuste)
}

func TestRouter_AuthenticatedActor(t *testing.T) {
	s := newTestServer(t)
	token, _, err := auth.NewJWTService(auth.DefaultJWTConfig(testSecret)).
		GenerateAccessToken("op-1", "ops@example.com", "Ops")
	require.NoError(t, err)

	created := s.createContract(t, "Authorization", "Bearer "+token)

	assert.Equal(t, "ops@example.com", created.Contrato.CreatedBy)
}

func TestRouter_RejectsInvalidToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/contratos", nil, "Authorization", "Bearer not-a-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperror.CodeUnauthorized, decodeError(t, rec).Code)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), app.DriverMemory)
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", nil, "X-Request-ID", "req-42")

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestRouter_TraceIDsGeneratedWhenMissing(t *testing.T) {
	s := newTestServer(t)

	first := s.do(t, http.MethodGet, "/health/live", nil)
	second := s.do(t, http.MethodGet, "/health/live", nil, "X-Trace-ID", "trace-7")

	_, err := id.Parse(first.Header().Get("X-Request-ID"))
	require.NoError(t, err)
	_, err = id.Parse(first.Header().Get("X-Trace-ID"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Header().Get("X-Request-ID"), second.Header().Get("X-Request-ID"))
	assert.Equal(t, "trace-7", second.Header().Get("X-Trace-ID"))
}
