package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/alstn9213/open-insight/internal/analysis"
	"github.com/alstn9213/open-insight/internal/auth"
	"github.com/alstn9213/open-insight/internal/model"
	"github.com/alstn9213/open-insight/internal/store"
)

// Error codes surfaced in API responses.
const (
	codeMarketNotFound = "M001"
	codeInvalidInput   = "C002"
	codeInternal       = "C001"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiServer struct {
	analyzer *analysis.Analyzer
	auth     *auth.Service
	issuer   *auth.TokenIssuer
}

// newRouter assembles the HTTP API. The ranking endpoint requires a valid
// access token; everything else is public.
func newRouter(s *apiServer, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/market", func(r chi.Router) {
			r.Get("/analysis", s.handleAnalysis)
			r.Get("/map-info", s.handleMapInfo)
			r.Get("/categories", s.handleCategories)
			r.Get("/franchise-compare", s.handleFranchiseCompare)

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(s.issuer))
				r.Post("/rankings", s.handleRankings)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
		})
	})

	return r
}

func (s *apiServer) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	admCode := r.URL.Query().Get("admCode")
	categoryID, err := queryInt64(r, "categoryId")
	if admCode == "" || err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidInput, "admCode and categoryId are required")
		return
	}

	detail, err := s.analyzer.GetDetail(r.Context(), admCode, categoryID)
	if err != nil {
		s.respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *apiServer) handleMapInfo(w http.ResponseWriter, r *http.Request) {
	province := r.URL.Query().Get("province")
	categoryID, err := queryInt64(r, "categoryId")
	if province == "" || err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidInput, "province and categoryId are required")
		return
	}

	points, err := s.analyzer.GetMapOverlay(r.Context(), province, categoryID)
	if err != nil {
		s.respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, points)
}

func (s *apiServer) handleRankings(w http.ResponseWriter, r *http.Request) {
	var req model.RankingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}
	if req.Weights == nil && !req.SortOption.Valid() {
		respondError(w, http.StatusBadRequest, codeInvalidInput, "either weight_option or a valid sort_option is required")
		return
	}

	results, err := s.analyzer.GetRankings(r.Context(), req)
	if err != nil {
		s.respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (s *apiServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.analyzer.Categories(r.Context())
	if err != nil {
		s.respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (s *apiServer) handleFranchiseCompare(w http.ResponseWriter, r *http.Request) {
	admCode := r.URL.Query().Get("admCode")
	categoryID, err := queryInt64(r, "categoryId")
	if admCode == "" || err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidInput, "admCode and categoryId are required")
		return
	}

	comparisons, err := s.analyzer.CompareFranchise(r.Context(), admCode, categoryID)
	if err != nil {
		s.respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comparisons)
}

func (s *apiServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}

	member, err := s.auth.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			respondError(w, http.StatusConflict, codeInvalidInput, "email already registered")
			return
		}
		respondError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, member)
}

func (s *apiServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidInput, "invalid request body")
		return
	}

	token, err := s.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, codeInvalidInput, "invalid email or password")
			return
		}
		zap.L().Error("login failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeInternal, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, token)
}

// respondAnalysisError maps analyzer errors onto the API error contract:
// a missing statistics row is a 404, anything else a 500.
func (s *apiServer) respondAnalysisError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, codeMarketNotFound, "market statistics not found")
		return
	}
	zap.L().Error("analysis request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, apiError{Code: code, Message: message})
}

func queryInt64(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
}
