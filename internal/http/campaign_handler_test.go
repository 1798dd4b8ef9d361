package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type campaignResponse struct {
	Campaign struct {
		ID     string          `json:"id"`
		Title  string          `json:"title"`
		Status string          `json:"status"`
		Goal   decimal.Decimal `json:"goal"`
		Raised decimal.Decimal `json:"raised"`
	} `json:"campaign"`
}

func createCampaign(t *testing.T, api *testAPI, token string) string {
	t.Helper()
	rec := performAuthRequest(api.router, http.MethodPost, "/campaigns", token, map[string]any{
		"title":    "Community garden",
		"category": "local",
		"goal":     "1000",
		"deadline": time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create campaign: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body campaignResponse
	decodeBody(t, rec, &body)
	return body.Campaign.ID
}

func TestCampaignHandlerCreate(t *testing.T) {
	api := newTestAPI(t)
	token := api.seedUser(t, "creator", "user")

	id := createCampaign(t, api, token)

	rec := performRequest(api.router, http.MethodGet, "/campaigns/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body campaignResponse
	decodeBody(t, rec, &body)
	if body.Campaign.Status != "active" || !body.Campaign.Raised.IsZero() {
		t.Fatalf("unexpected campaign: %+v", body.Campaign)
	}
	if !body.Campaign.Goal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected goal 1000, got %s", body.Campaign.Goal)
	}
}

func TestCampaignHandlerCreate_Validation(t *testing.T) {
	api := newTestAPI(t)
	token := api.seedUser(t, "creator", "user")

	cases := map[string]map[string]any{
		"missing title": {"goal": "10", "deadline": time.Now().Add(time.Hour).Format(time.RFC3339)},
		"zero goal":     {"title": "x", "goal": "0", "deadline": time.Now().Add(time.Hour).Format(time.RFC3339)},
		"past deadline": {"title": "x", "goal": "10", "deadline": time.Now().Add(-time.Hour).Format(time.RFC3339)},
		"bad image url": {"title": "x", "goal": "10", "image_url": "nope", "deadline": time.Now().Add(time.Hour).Format(time.RFC3339)},
	}
	for name, payload := range cases {
		rec := performAuthRequest(api.router, http.MethodPost, "/campaigns", token, payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestCampaignHandlerCreate_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	rec := performRequest(api.router, http.MethodPost, "/campaigns", map[string]any{"title": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCampaignHandlerGet_NotFound(t *testing.T) {
	api := newTestAPI(t)
	rec := performRequest(api.router, http.MethodGet, "/campaigns/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCampaignHandlerList_InvalidStatus(t *testing.T) {
	api := newTestAPI(t)
	rec := performRequest(api.router, http.MethodGet, "/campaigns?status=archived", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = performRequest(api.router, http.MethodGet, "/campaigns?status=active&limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCampaignHandlerUpdate_OnlyCreatorOrAdmin(t *testing.T) {
	api := newTestAPI(t)
	creator := api.seedUser(t, "creator", "user")
	other := api.seedUser(t, "other", "user")
	admin := api.seedUser(t, "root", "admin")
	id := createCampaign(t, api, creator)

	rec := performAuthRequest(api.router, http.MethodPut, "/campaigns/"+id, other, map[string]any{"title": "hijacked"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = performAuthRequest(api.router, http.MethodPut, "/campaigns/"+id, creator, map[string]any{"title": "Bigger garden"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body campaignResponse
	decodeBody(t, rec, &body)
	if body.Campaign.Title != "Bigger garden" {
		t.Fatalf("expected updated title, got %q", body.Campaign.Title)
	}

	rec = performAuthRequest(api.router, http.MethodPost, "/campaigns/"+id+"/close", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected admin close to succeed, got %d", rec.Code)
	}
}

func TestCampaignHandlerDelete(t *testing.T) {
	api := newTestAPI(t)
	creator := api.seedUser(t, "creator", "user")
	backer := api.seedUser(t, "backer", "user")

	empty := createCampaign(t, api, creator)
	rec := performAuthRequest(api.router, http.MethodDelete, "/campaigns/"+empty, creator, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	funded := createCampaign(t, api, creator)
	rec = performAuthRequest(api.router, http.MethodPost, "/campaigns/"+funded+"/contributions", backer, map[string]any{"amount": "5"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("contribute: expected 201, got %d", rec.Code)
	}
	rec = performAuthRequest(api.router, http.MethodDelete, "/campaigns/"+funded, creator, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for funded campaign, got %d", rec.Code)
	}
}

func TestContributionHandlerContribute(t *testing.T) {
	api := newTestAPI(t)
	creator := api.seedUser(t, "creator", "user")
	backer := api.seedUser(t, "backer", "user")
	id := createCampaign(t, api, creator)

	rec := performAuthRequest(api.router, http.MethodPost, "/campaigns/"+id+"/contributions", backer, map[string]any{
		"amount":  "12.5",
		"tx_hash": "0xabc",
		"message": "good luck",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	performAuthRequest(api.router, http.MethodPost, "/campaigns/"+id+"/contributions", backer, map[string]any{"amount": 7.5})

	var body campaignResponse
	decodeBody(t, performRequest(api.router, http.MethodGet, "/campaigns/"+id, nil), &body)
	if !body.Campaign.Raised.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected raised 20, got %s", body.Campaign.Raised)
	}

	var mine struct {
		Contributions []struct {
			CampaignID string `json:"campaign_id"`
		} `json:"contributions"`
	}
	decodeBody(t, performAuthRequest(api.router, http.MethodGet, "/users/me/contributions", backer, nil), &mine)
	if len(mine.Contributions) != 2 {
		t.Fatalf("expected 2 contributions, got %d", len(mine.Contributions))
	}

	var txs struct {
		Transactions []struct {
			TxHash string `json:"tx_hash"`
			Status string `json:"status"`
		} `json:"transactions"`
	}
	decodeBody(t, performAuthRequest(api.router, http.MethodGet, "/users/me/transactions", backer, nil), &txs)
	if len(txs.Transactions) != 1 || txs.Transactions[0].Status != "confirmed" {
		t.Fatalf("expected one confirmed transaction, got %+v", txs.Transactions)
	}
}

func TestContributionHandlerContribute_Errors(t *testing.T) {
	api := newTestAPI(t)
	creator := api.seedUser(t, "creator", "user")
	backer := api.seedUser(t, "backer", "user")
	id := createCampaign(t, api, creator)

	rec := performAuthRequest(api.router, http.MethodPost, "/campaigns/"+id+"/contributions", backer, map[string]any{"amount": "-1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative amount, got %d", rec.Code)
	}
	rec = performAuthRequest(api.router, http.MethodPost, "/campaigns/"+id+"/contributions", backer, map[string]any{"amount": "0.000000001"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for amount below column precision, got %d", rec.Code)
	}

	rec = performAuthRequest(api.router, http.MethodPost, "/campaigns/missing/contributions", backer, map[string]any{"amount": "1"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	performAuthRequest(api.router, http.MethodPost, "/campaigns/"+id+"/contributions", backer, map[string]any{"amount": "1", "tx_hash": "0xdup"})
	rec = performAuthRequest(api.router, http.MethodPost, "/campaigns/"+id+"/contributions", backer, map[string]any{"amount": "1", "tx_hash": "0xdup"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate tx hash, got %d", rec.Code)
	}

	performAuthRequest(api.router, http.MethodPost, "/campaigns/"+id+"/close", creator, nil)
	rec = performAuthRequest(api.router, http.MethodPost, "/campaigns/"+id+"/contributions", backer, map[string]any{"amount": "1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for closed campaign, got %d", rec.Code)
	}
}

func TestContributionHandlerRecordTransaction(t *testing.T) {
	api := newTestAPI(t)
	token := api.seedUser(t, "u1", "user")

	rec := performAuthRequest(api.router, http.MethodPost, "/transactions", token, map[string]any{
		"tx_hash": "0xfeed",
		"amount":  "3",
		"kind":    "withdrawal",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performAuthRequest(api.router, http.MethodPost, "/transactions", token, map[string]any{
		"tx_hash": "0xbeef",
		"kind":    "refund",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", rec.Code)
	}
}
