package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"codequest/internal/grading"
	"codequest/internal/remote"
	"codequest/internal/session"
)

type Options struct {
	Catalog *Catalog
	Grader  grading.Grader
	Logger  Logger
	// JWTSecret, when set, makes generate verify HS256 bearer tokens.
	// Otherwise any non-empty, unexpired token is accepted.
	JWTSecret string
	// Latency delays every evaluation response.
	Latency     time.Duration
	MaxProblems int
}

type Server struct {
	opts       Options
	router     *chi.Mux
	validator  *validator.Validate
	httpServer *http.Server
}

func NewServer(opts Options) *Server {
	if opts.Grader == nil {
		opts.Grader = grading.NewGrader()
	}
	if opts.MaxProblems <= 0 {
		opts.MaxProblems = 3
	}
	s := &Server{opts: opts, validator: validator.New()}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		s.logRequests,
	)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "problems": s.catalogSize()})
	})
	router.With(s.requireBearer).Post(remote.GeneratePath, s.handleGenerate)
	router.Post(remote.RunTestsPath, s.handleEvaluate(false))
	router.Post(remote.EvaluatePath, s.handleEvaluate(true))
	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	s.router = router
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Start listens on addr and serves in the background. It returns the base
// URL clients should use.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", addr, err)
	}
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logError("offline.serve.failed", map[string]any{"error": err.Error()})
		}
	}()
	return "http://" + ln.Addr().String(), nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decode(w, r, &req) {
		return
	}
	problems := s.opts.Catalog.Match(req.DataStructure, req.Topic, s.opts.MaxProblems)
	writeJSON(w, http.StatusOK, remote.GenerateResponse{Problems: problems})
}

func (s *Server) handleEvaluate(full bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req evaluationRequest
		if !s.decode(w, r, &req) {
			return
		}
		spec, ok := s.opts.Catalog.Problem(req.ProblemID)
		if !ok {
			writeError(w, http.StatusNotFound, "Problem not found or expired")
			return
		}
		if s.opts.Latency > 0 {
			select {
			case <-time.After(s.opts.Latency):
			case <-r.Context().Done():
				return
			}
		}
		res, err := s.opts.Grader.Grade(r.Context(), grading.Request{
			Spec:     spec,
			Code:     req.Code,
			Language: req.Language,
			Full:     full,
		})
		if err != nil {
			s.logError("offline.grade.failed", map[string]any{"problem_id": req.ProblemID, "error": err.Error()})
			writeError(w, http.StatusInternalServerError, "Evaluation failed: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	if err := s.validator.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationDetail(err))
		return false
	}
	return true
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if err := s.verifyToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) verifyToken(token string) error {
	if s.opts.JWTSecret == "" {
		if session.Expired(token, time.Now()) {
			return session.ErrTokenExpired
		}
		return nil
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.opts.JWTSecret), nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("invalid token")
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if s.opts.Logger != nil {
			s.opts.Logger.Info("offline.request", map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			})
		}
	})
}

func (s *Server) catalogSize() int {
	if s.opts.Catalog == nil {
		return 0
	}
	return s.opts.Catalog.Size()
}

func (s *Server) logError(msg string, fields map[string]any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Error(msg, fields)
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
