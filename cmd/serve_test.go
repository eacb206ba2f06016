package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alstn9213/open-insight/internal/analysis"
	"github.com/alstn9213/open-insight/internal/auth"
	"github.com/alstn9213/open-insight/internal/model"
	"github.com/alstn9213/open-insight/internal/store"
)

// fakeAPIStore backs the router tests with a fixed statistics snapshot and
// an in-memory member table.
type fakeAPIStore struct {
	stats   []model.MarketStats
	members map[string]model.Member
}

func newFakeAPIStore() *fakeAPIStore {
	return &fakeAPIStore{
		stats: []model.MarketStats{
			{
				ID:                 1,
				Region:             model.Region{ID: 1, Province: "Seoul", District: "Gangnam", AdmCode: "1168051000"},
				Category:           model.Category{ID: 1, Name: "cafe"},
				StoreCount:         100,
				FloatingPopulation: 60_000,
				MalePopulation:     33_000,
				FemalePopulation:   27_000,
				AgeGroup:           "30s",
				AverageSales:       52_000_000,
				GrowthRate:         3.5,
				ClosingRate:        1.2,
				Grade:              model.GradeGreen,
			},
		},
		members: make(map[string]model.Member),
	}
}

func (f *fakeAPIStore) FindStats(_ context.Context, admCode string, categoryID int64) (*model.MarketStats, error) {
	for i := range f.stats {
		if f.stats[i].Region.AdmCode == admCode && f.stats[i].Category.ID == categoryID {
			return &f.stats[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeAPIStore) ListStatsByRegion(_ context.Context, admCode string) ([]model.MarketStats, error) {
	var out []model.MarketStats
	for _, s := range f.stats {
		if s.Region.AdmCode == admCode {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAPIStore) ListStatsByProvince(_ context.Context, province string, categoryID int64) ([]model.MarketStats, error) {
	var out []model.MarketStats
	for _, s := range f.stats {
		if s.Region.Province == province && s.Category.ID == categoryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAPIStore) ListAllStats(context.Context) ([]model.MarketStats, error) {
	return f.stats, nil
}

func (f *fakeAPIStore) ListCategories(context.Context) ([]model.Category, error) {
	return []model.Category{{ID: 1, Name: "cafe"}}, nil
}

func (f *fakeAPIStore) ListFranchisesByCategory(_ context.Context, categoryID int64) ([]model.Franchise, error) {
	return []model.Franchise{{ID: 1, CategoryID: categoryID, BrandName: "Mega Brew", AverageLifespan: 48, InitialCost: 70_000_000}}, nil
}

func (f *fakeAPIStore) CreateMember(_ context.Context, member model.Member) error {
	f.members[member.Email] = member
	return nil
}

func (f *fakeAPIStore) FindMemberByEmail(_ context.Context, email string) (*model.Member, error) {
	m, ok := f.members[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.TokenIssuer) {
	t.Helper()

	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	st := newFakeAPIStore()
	server := &apiServer{
		analyzer: analysis.NewAnalyzer(st, nil, 10),
		auth:     auth.NewService(st, issuer),
		issuer:   issuer,
	}
	return newRouter(server, []string{"*"}), issuer
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestRouter_Analysis(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/market/analysis?admCode=1168051000&categoryId=1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var detail model.MarketDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &detail))
	assert.Equal(t, "Seoul Gangnam", detail.RegionName)
	assert.Equal(t, 600.0, detail.PopulationPerStore)
	assert.Equal(t, 55, detail.MalePercent)
	assert.Equal(t, 45, detail.FemalePercent)
	assert.Equal(t, model.GradeGreen, detail.Grade)
}

func TestRouter_Analysis_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/market/analysis?admCode=0000000000&categoryId=1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "M001")
}

func TestRouter_Analysis_MissingParams(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/market/analysis?admCode=1168051000", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "C002")
}

func TestRouter_MapInfo(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/market/map-info?province=Seoul&categoryId=1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var points []model.MapPoint
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, "1168051000", points[0].AdmCode)
	assert.Equal(t, model.GradeGreen, points[0].Grade)
}

func TestRouter_Rankings_RequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(model.RankingRequest{SortOption: model.SortOpportunity})
	req := httptest.NewRequest(http.MethodPost, "/api/market/rankings", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_Rankings(t *testing.T) {
	router, issuer := newTestRouter(t)

	token, err := issuer.Issue(&model.Member{Email: "user@example.com", Role: model.RoleUser})
	require.NoError(t, err)

	body, _ := json.Marshal(model.RankingRequest{SortOption: model.SortOpportunity})
	req := httptest.NewRequest(http.MethodPost, "/api/market/rankings", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var results []model.RankedResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 600.0, results[0].PopulationPerStore)
	assert.Equal(t, "opportunity", results[0].Badge)
}

func TestRouter_Rankings_InvalidRequest(t *testing.T) {
	router, issuer := newTestRouter(t)

	token, err := issuer.Issue(&model.Member{Email: "user@example.com", Role: model.RoleUser})
	require.NoError(t, err)

	// Neither weights nor a valid sort option.
	req := httptest.NewRequest(http.MethodPost, "/api/market/rankings", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "C002")
}

func TestRouter_Categories(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/market/categories", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cafe")
}

func TestRouter_FranchiseCompare(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/market/franchise-compare?admCode=1168051000&categoryId=1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var comparisons []model.FranchiseComparison
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &comparisons))
	require.Len(t, comparisons, 1)
	assert.Equal(t, "Mega Brew", comparisons[0].BrandName)
}

func TestRouter_SignupAndLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	signup, _ := json.Marshal(map[string]string{
		"email":    "user@example.com",
		"password": "hunter22!",
		"nickname": "tester",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(signup))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, rr.Body.String(), "hunter22!")

	login, _ := json.Marshal(map[string]string{
		"email":    "user@example.com",
		"password": "hunter22!",
	})
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(login))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var token auth.TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &token))
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)
}

func TestRouter_Login_BadPassword(t *testing.T) {
	router, _ := newTestRouter(t)

	signup, _ := json.Marshal(map[string]string{
		"email":    "user@example.com",
		"password": "hunter22!",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(signup))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	login, _ := json.Marshal(map[string]string{
		"email":    "user@example.com",
		"password": "wrong",
	})
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(login))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestResolvePort(t *testing.T) {
	assert.Equal(t, 9090, resolvePort(9090, 8080))
	assert.Equal(t, 8080, resolvePort(0, 8080))
}
