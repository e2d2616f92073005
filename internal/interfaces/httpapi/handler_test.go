package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fantamercato/trade-engine/internal/domain/market"
	"github.com/fantamercato/trade-engine/internal/domain/member"
	"github.com/fantamercato/trade-engine/internal/infrastructure/repository/memory"
	idgen "github.com/fantamercato/trade-engine/internal/platform/id"
	"github.com/fantamercato/trade-engine/internal/platform/logging"
	"github.com/fantamercato/trade-engine/internal/platform/resilience"
	"github.com/fantamercato/trade-engine/internal/usecase"
)

type stubVerifier struct {
	principals map[string]member.Principal
}

func (v stubVerifier) VerifyAccessToken(_ context.Context, token string) (member.Principal, error) {
	p, ok := v.principals[token]
	if !ok {
		return member.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return p, nil
}

const (
	tokenAurora   = "tok-aurora"
	tokenBorealis = "tok-borealis"
	tokenAdmin    = "tok-admin"
	internalToken = "job-secret"
)

type testServer struct {
	router     http.Handler
	marketRepo *memory.MarketRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := logging.NewNop()
	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	playerRepo := memory.NewPlayerRepository(memory.SeedPlayers())
	statsRepo := memory.NewStatsRepository(memory.SeedStats())
	proposalRepo := memory.NewProposalRepository()
	obligationRepo := memory.NewObligationRepository()
	marketRepo := memory.NewMarketRepository()
	auditRepo := memory.NewAuditRepository()
	settlementRepo := memory.NewSettlementRepository(proposalRepo, teamRepo, playerRepo, obligationRepo)
	gen := idgen.NewRandomGenerator()

	proposalSvc := usecase.NewProposalService(proposalRepo, teamRepo, playerRepo, obligationRepo, marketRepo, gen, auditRepo, logger)
	approvalSvc := usecase.NewApprovalService(proposalRepo, nil, auditRepo, logger)
	settlementSvc := usecase.NewSettlementService(proposalRepo, settlementRepo, teamRepo, playerRepo, gen, nil, auditRepo, resilience.RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}, logger)
	renewalSvc := usecase.NewRenewalService(playerRepo, obligationRepo, marketRepo, auditRepo, logger)
	marketSvc := usecase.NewMarketService(marketRepo, nil, auditRepo, 0, logger)
	scheduler := usecase.NewMarketScheduler(marketSvc, usecase.MarketSchedulerConfig{}, logger)
	revaluationSvc := usecase.NewRevaluationService(playerRepo, teamRepo, statsRepo, auditRepo, logger)
	teamSvc := usecase.NewTeamService(teamRepo, playerRepo, logger)

	handler := NewHandler(proposalSvc, approvalSvc, settlementSvc, renewalSvc, marketSvc, scheduler, revaluationSvc, teamSvc, auditRepo, logger)

	verifier := stubVerifier{principals: map[string]member.Principal{
		tokenAurora:   {MemberID: "member-aurora", TeamID: memory.TeamIDAurora},
		tokenBorealis: {MemberID: "member-borealis", TeamID: memory.TeamIDBorealis},
		tokenAdmin:    {MemberID: "member-admin", Admin: true},
	}}

	return &testServer{
		router:     NewRouter(handler, verifier, logger, []string{"*"}, internalToken),
		marketRepo: marketRepo,
	}
}

func (s *testServer) openWindow(t *testing.T, kind market.Kind) {
	t.Helper()

	window, exists, err := s.marketRepo.Get(t.Context(), kind)
	if err != nil || !exists {
		t.Fatalf("get %s window: exists=%v err=%v", kind, exists, err)
	}
	window.IsOpen = true
	applied, err := s.marketRepo.SaveCAS(t.Context(), window, window.Version)
	if err != nil || !applied {
		t.Fatalf("open %s window: applied=%v err=%v", kind, applied, err)
	}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data any `json:"data"`
	}
	envelope.Data = out
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v (body %s)", err, rec.Body.String())
	}
}

func TestRouter_HealthzWithoutAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_RejectsMissingToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/v1/teams", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_AdminRoutesRejectManagers(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/proposals/prop-001/approve", tokenAurora, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTradeLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	srv.openWindow(t, market.KindTrade)

	// Aurora offers its midfielder for Borealis' midfielder.
	rec := srv.do(t, http.MethodPost, "/v1/proposals", tokenAurora, `{
		"opposing_team_id": "team-borealis",
		"kind": "players_only",
		"offered_player_ids": ["pl-mid-01"],
		"requested_player_ids": ["pl-mid-02"]
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var submitted proposalDTO
	decodeData(t, rec, &submitted)
	if submitted.State != "pending" {
		t.Fatalf("expected pending proposal, got %s", submitted.State)
	}
	if submitted.ID == "" {
		t.Fatal("expected proposal id")
	}

	rec = srv.do(t, http.MethodPost, "/v1/proposals/"+submitted.ID+"/approve", tokenAdmin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var approved proposalDTO
	decodeData(t, rec, &approved)
	if approved.State != "admin_approved" {
		t.Fatalf("expected admin_approved, got %s", approved.State)
	}

	rec = srv.do(t, http.MethodPost, "/v1/proposals/"+submitted.ID+"/accept", tokenBorealis, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var settled proposalDTO
	decodeData(t, rec, &settled)
	if settled.State != "completed" {
		t.Fatalf("expected completed, got %s", settled.State)
	}

	// Ownership actually swapped.
	rec = srv.do(t, http.MethodGet, "/v1/teams/team-aurora/roster", tokenAurora, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("roster: expected 200, got %d", rec.Code)
	}
	var roster rosterDTO
	decodeData(t, rec, &roster)
	found := false
	for _, p := range roster.Players {
		if p.ID == "pl-mid-01" {
			t.Fatal("pl-mid-01 should have left Aurora")
		}
		if p.ID == "pl-mid-02" {
			found = true
		}
	}
	if !found {
		t.Fatal("pl-mid-02 should have joined Aurora")
	}

	// The settlement audit trail is queryable by admins.
	rec = srv.do(t, http.MethodGet, "/v1/audit/proposal/"+submitted.ID, tokenAdmin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: expected 200, got %d", rec.Code)
	}
	var events []auditEventDTO
	decodeData(t, rec, &events)
	if len(events) == 0 {
		t.Fatal("expected audit events for proposal")
	}
}

func TestSubmitProposal_ClosedMarket(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/proposals", tokenAurora, `{
		"opposing_team_id": "team-borealis",
		"kind": "players_only",
		"offered_player_ids": ["pl-mid-01"],
		"requested_player_ids": ["pl-mid-02"]
	}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "marketClosed") {
		t.Fatalf("expected marketClosed reason, got %s", rec.Body.String())
	}
}

func TestSubmitProposal_ForeignTeamForbidden(t *testing.T) {
	srv := newTestServer(t)
	srv.openWindow(t, market.KindTrade)

	rec := srv.do(t, http.MethodPost, "/v1/proposals", tokenAurora, `{
		"requesting_team_id": "team-borealis",
		"opposing_team_id": "team-aurora",
		"kind": "players_only",
		"offered_player_ids": ["pl-mid-02"],
		"requested_player_ids": ["pl-mid-01"]
	}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRenewContractOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	srv.openWindow(t, market.KindRenewal)

	rec := srv.do(t, http.MethodPost, "/v1/renewals", tokenBorealis, `{
		"player_id": "pl-mid-02",
		"months": 12
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var renewed playerDTO
	decodeData(t, rec, &renewed)
	if renewed.CurrentValue != 36 {
		t.Fatalf("expected renewed value 36, got %d", renewed.CurrentValue)
	}
	if renewed.ContractExpiry == nil {
		t.Fatal("expected contract expiry to be set")
	}
}

func TestMarketToggleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/market/trade/toggle", tokenAdmin, `{"open": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Effective bool      `json:"effective"`
		Window    windowDTO `json:"window"`
	}
	decodeData(t, rec, &result)
	if !result.Effective {
		t.Fatal("expected effective toggle")
	}
	if !result.Window.IsOpen {
		t.Fatal("expected open window")
	}

	rec = srv.do(t, http.MethodGet, "/v1/market/trade", tokenAurora, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var window windowDTO
	decodeData(t, rec, &window)
	if !window.IsOpen {
		t.Fatal("expected window to read open")
	}
}

func TestInternalMarketTick(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/internal/jobs/market-tick", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/market-tick", strings.NewReader(""))
	req.Header.Set("X-Internal-Job-Token", internalToken)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRunRevaluationOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/revaluations", tokenAdmin, `{"dry_run": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result usecase.RevaluationResult
	decodeData(t, rec, &result)
	if !result.DryRun {
		t.Fatal("expected dry run result")
	}
	if result.PlayerCount == 0 {
		t.Fatal("expected rostered players to be considered")
	}
}
