package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/llm"
	"crowdfund-advisor/internal/market"
	"crowdfund-advisor/internal/repository"
	"crowdfund-advisor/internal/service"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

type mockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]domain.Campaign
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{campaigns: make(map[string]domain.Campaign)}
}

func (m *mockCampaignRepo) Create(_ context.Context, c domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) GetByID(_ context.Context, id string) (domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return domain.Campaign{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockCampaignRepo) List(_ context.Context, filter domain.CampaignFilter) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Campaign{}
	for _, c := range m.campaigns {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCampaignRepo) Update(_ context.Context, c domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) SetStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.Status = status
	c.UpdatedAt = updatedAt
	m.campaigns[id] = c
	return nil
}

// Delete replica el DELETE condicional: solo borra si no hubo aportes.
func (m *mockCampaignRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Raised.IsPositive() {
		return pgx.ErrNoRows
	}
	delete(m.campaigns, id)
	return nil
}

type mockContributionRepo struct {
	campaigns     *mockCampaignRepo
	contributions []domain.Contribution
	transactions  *mockTransactionRepo
}

func (m *mockContributionRepo) CreateAndIncrement(_ context.Context, c domain.Contribution, record *domain.Transaction) (domain.Campaign, error) {
	m.campaigns.mu.Lock()
	defer m.campaigns.mu.Unlock()
	campaign, ok := m.campaigns.campaigns[c.CampaignID]
	if !ok || campaign.Status != domain.CampaignStatusActive {
		return domain.Campaign{}, repository.ErrCampaignNotAccepting
	}
	if record != nil {
		if err := m.transactions.Create(context.Background(), *record); err != nil {
			return domain.Campaign{}, err
		}
	}
	campaign.Raised = campaign.Raised.Add(c.Amount)
	m.campaigns.campaigns[c.CampaignID] = campaign
	m.contributions = append(m.contributions, c)
	return campaign, nil
}

func (m *mockContributionRepo) ListByCampaign(_ context.Context, campaignID string, _ int) ([]domain.Contribution, error) {
	out := []domain.Contribution{}
	for _, c := range m.contributions {
		if c.CampaignID == campaignID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContributionRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.Contribution, error) {
	out := []domain.Contribution{}
	for _, c := range m.contributions {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockTransactionRepo struct {
	byHash map[string]domain.Transaction
}

func (m *mockTransactionRepo) Create(_ context.Context, t domain.Transaction) error {
	if _, ok := m.byHash[t.TxHash]; ok {
		return repository.ErrDuplicateTxHash
	}
	m.byHash[t.TxHash] = t
	return nil
}

func (m *mockTransactionRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.Transaction, error) {
	out := []domain.Transaction{}
	for _, t := range m.byHash {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockChatSessionRepo struct {
	sessions map[string]domain.ChatSession
}

func (m *mockChatSessionRepo) Create(_ context.Context, s domain.ChatSession) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *mockChatSessionRepo) GetByID(_ context.Context, id string) (domain.ChatSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return domain.ChatSession{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockChatSessionRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.ChatSessionSummary, error) {
	out := []domain.ChatSessionSummary{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, domain.ChatSessionSummary{ID: s.ID, Title: s.Title, Category: s.Category, MessageCount: len(s.Messages)})
		}
	}
	return out, nil
}

func (m *mockChatSessionRepo) AppendMessages(_ context.Context, id, category string, messages []domain.ChatMessage, updatedAt time.Time) error {
	s, ok := m.sessions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Messages = append(s.Messages, messages...)
	if category == domain.ChatCategoryStock {
		s.Category = category
	}
	s.UpdatedAt = updatedAt
	m.sessions[id] = s
	return nil
}

func (m *mockChatSessionRepo) DeleteByOwner(_ context.Context, id, userID string) error {
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.sessions, id)
	return nil
}

type mockPredictionRepo struct {
	items map[string]domain.StockPrediction
}

func (m *mockPredictionRepo) Create(_ context.Context, p domain.StockPrediction) error {
	m.items[p.ID] = p
	return nil
}

func (m *mockPredictionRepo) GetByID(_ context.Context, id string) (domain.StockPrediction, error) {
	p, ok := m.items[id]
	if !ok {
		return domain.StockPrediction{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockPredictionRepo) List(_ context.Context, filter domain.PredictionFilter) ([]domain.StockPrediction, error) {
	out := []domain.StockPrediction{}
	for _, p := range m.items {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.Symbol != "" && p.Symbol != filter.Symbol {
			continue
		}
		if filter.Verified != nil && p.Verified() != *filter.Verified {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPredictionRepo) ListPending(_ context.Context, cutoff time.Time, _ int) ([]domain.StockPrediction, error) {
	out := []domain.StockPrediction{}
	for _, p := range m.items {
		if !p.Verified() && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPredictionRepo) SaveOutcome(_ context.Context, id string, o domain.PredictionOutcome) (bool, error) {
	p, ok := m.items[id]
	if !ok || p.Verified() {
		return false, nil
	}
	p.Outcome = &o
	m.items[id] = p
	return true, nil
}

func (m *mockPredictionRepo) Stats(context.Context) (domain.PredictionStats, error) {
	var s domain.PredictionStats
	for _, p := range m.items {
		s.Total++
		if p.Verified() {
			s.Verified++
		}
	}
	return s, nil
}

type mockStatsRepo struct {
	totals domain.DashboardStats
}

func (m *mockStatsRepo) Totals(context.Context) (domain.DashboardStats, error) {
	return m.totals, nil
}

type fixedQuotes struct {
	price float64
}

func (q fixedQuotes) Quote(_ context.Context, symbol string) (market.Quote, error) {
	return market.Quote{Symbol: symbol, Price: q.price, Source: "test", FetchedAt: time.Now().UTC()}, nil
}

type noopLimiter struct{}

func (noopLimiter) Allow(string) bool { return true }

// testAPI arma el router completo con servicios reales sobre repos en memoria.
type testAPI struct {
	router      *gin.Engine
	jwt         *service.JWTService
	users       *mockUserRepo
	campaigns   *mockCampaignRepo
	predictions *mockPredictionRepo
	sessions    *mockChatSessionRepo
	llm         *llm.MockClient
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	users := newMockUserRepo()
	campaigns := newMockCampaignRepo()
	transactions := &mockTransactionRepo{byHash: make(map[string]domain.Transaction)}
	contributions := &mockContributionRepo{campaigns: campaigns, transactions: transactions}
	sessions := &mockChatSessionRepo{sessions: make(map[string]domain.ChatSession)}
	predictions := &mockPredictionRepo{items: make(map[string]domain.StockPrediction)}
	llmClient := &llm.MockClient{Response: "Direction: bullish\nConfidence: 80%\nPrice target: $110.00"}

	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, time.Hour, service.NewMemoryRefreshTokenStore())
	userSvc := service.NewUserService(logger, users, []string{"admin@example.com"})
	campaignSvc := service.NewCampaignService(logger, campaigns)
	contributionSvc := service.NewContributionService(logger, campaignSvc, contributions, transactions, users, nil)
	predictionSvc := service.NewPredictionService(logger, llmClient, fixedQuotes{price: 100}, predictions)
	advisorSvc := service.NewAdvisorService(logger, llmClient, predictionSvc, sessions, noopLimiter{})
	verificationSvc := service.NewVerificationService(logger, predictions, fixedQuotes{price: 108}, nil, 24*time.Hour)
	dashboardSvc := service.NewDashboardService(&mockStatsRepo{}, campaigns, predictions)

	router := NewRouter(logger, jwtSvc, Handlers{
		Users:         NewUserHandler(logger, userSvc, jwtSvc),
		Campaigns:     NewCampaignHandler(logger, campaignSvc),
		Contributions: NewContributionHandler(logger, contributionSvc),
		Chat:          NewChatHandler(logger, advisorSvc),
		Predictions:   NewPredictionHandler(logger, predictionSvc),
		Admin:         NewAdminHandler(logger, dashboardSvc, predictionSvc, verificationSvc),
	})

	return &testAPI{
		router:      router,
		jwt:         jwtSvc,
		users:       users,
		campaigns:   campaigns,
		predictions: predictions,
		sessions:    sessions,
		llm:         llmClient,
	}
}

// seedUser guarda un usuario y devuelve un access token valido para el.
func (a *testAPI) seedUser(t *testing.T, id, role string) string {
	t.Helper()
	user := domain.User{ID: id, Email: id + "@example.com", Role: role, CreatedAt: time.Now().UTC()}
	if err := a.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	pair, err := a.jwt.GeneratePair(context.Background(), user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	return pair.AccessToken
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	return performAuthRequest(r, method, path, "", body)
}

func performAuthRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}
