// Package server exposes derived match statistics as a read-only JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/cache"
	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/refresh"
)

// Source is everything the API reads from the data store.
type Source interface {
	refresh.Source
	FetchWeightMap(ctx context.Context, userID string, role model.Role) (model.WeightMap, error)
}

// Config controls the HTTP surface.
type Config struct {
	CORSOrigins []string
	CacheTTL    time.Duration
}

// Server serves the API.
type Server struct {
	src   Source
	cache cache.Cache
	cfg   Config
	log   *logrus.Entry
}

// New returns a Server. A nil cache disables memoization.
func New(src Source, c cache.Cache, cfg Config, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Server{src: src, cache: c, cfg: cfg, log: log}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Route("/clubs/{club}/seasons/{season}", func(r chi.Router) {
		r.Get("/matches", s.memo(s.matches, false))
		r.Get("/series", s.memo(s.series, false))
		r.Get("/balance", s.memo(s.balance, false))
		r.Get("/mix", s.memo(s.mix, false))
		r.Get("/scores", s.memo(s.scores, true))
		r.Get("/sprints", s.memo(s.sprints, false))
	})
	return r
}

type ctxKey int

const requestIDKey ctxKey = 0

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		id, _ := r.Context().Value(requestIDKey).(string)
		s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"took":       time.Since(start).Round(time.Microsecond),
		}).Debug("request")
	})
}

// errBadRequest marks errors caused by the request parameters.
var errBadRequest = errors.New("bad request")

// inputs is everything a derived result is computed from.
type inputs struct {
	snap  *refresh.Snapshot
	field model.WeightMap
	gk    model.WeightMap
}

type handlerFunc func(r *http.Request, in *inputs) (any, error)

// memo loads a request's inputs and serves the derived result, caching its
// encoding by request parameters plus a digest of the inputs. Any change to
// the stored rows or weights yields a new key.
func (s *Server) memo(h handlerFunc, withWeights bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := s.load(r, withWeights)
		if err != nil {
			respondFailure(w, err)
			return
		}

		var key string
		if s.cache != nil {
			if digest, err := inputDigest(in); err != nil {
				s.log.WithError(err).Warn("inputs not cacheable")
			} else {
				key = cache.Key(r.URL.Path, r.URL.Query().Encode(), digest)
			}
		}
		if key != "" {
			if b, ok, err := s.cache.Get(r.Context(), key); err != nil {
				s.log.WithError(err).Warn("cache get failed")
			} else if ok {
				w.Header().Set("X-Cache", "hit")
				writeRaw(w, http.StatusOK, b)
				return
			}
		}

		v, err := h(r, in)
		if err != nil {
			respondFailure(w, err)
			return
		}
		b, err := json.Marshal(v)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		if key != "" {
			if err := s.cache.Set(r.Context(), key, b, s.cfg.CacheTTL); err != nil {
				s.log.WithError(err).Warn("cache set failed")
			}
		}
		w.Header().Set("X-Cache", "miss")
		writeRaw(w, http.StatusOK, b)
	}
}

func (s *Server) load(r *http.Request, withWeights bool) (*inputs, error) {
	var user string
	if withWeights {
		if user = r.URL.Query().Get("user"); user == "" {
			return nil, fmt.Errorf("%w: user is required", errBadRequest)
		}
	}
	club, season := chi.URLParam(r, "club"), chi.URLParam(r, "season")
	snap, err := refresh.NewLoader(s.src, s.log).Load(r.Context(), club, season)
	if err != nil {
		return nil, err
	}
	in := &inputs{snap: snap}
	if withWeights {
		if in.field, err = s.src.FetchWeightMap(r.Context(), user, model.RoleField); err != nil {
			return nil, err
		}
		if in.gk, err = s.src.FetchWeightMap(r.Context(), user, model.RoleGoalkeeper); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// inputDigest encodes the inputs canonically. Map keys are encoded sorted.
func inputDigest(in *inputs) (string, error) {
	b, err := json.Marshal(struct {
		Matches []model.MatchRecord      `json:"m"`
		Stats   []model.PlayerStatRecord `json:"s"`
		Field   model.WeightMap          `json:"f"`
		GK      model.WeightMap          `json:"g"`
	}{in.snap.Matches.Matches(), in.snap.Stats, in.field, in.gk})
	if err != nil {
		return "", fmt.Errorf("digest inputs: %w", err)
	}
	return cache.Key(string(b)), nil
}

func respondFailure(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, errBadRequest) {
		status = http.StatusBadRequest
	}
	respondError(w, status, err)
}

func writeRaw(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, b)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func playerFilter(r *http.Request) aggregator.RowFilter {
	return aggregator.ForPlayer(r.URL.Query().Get("player"))
}

type matchView struct {
	ID           string            `json:"id"`
	Round        *int              `json:"round"`
	Date         string            `json:"date,omitempty"`
	Opponent     string            `json:"opponent"`
	Home         bool              `json:"home"`
	GoalsFor     int               `json:"goals_for"`
	GoalsAgainst int               `json:"goals_against"`
	Result       aggregator.Result `json:"result"`
}

func (s *Server) matches(_ *http.Request, in *inputs) (any, error) {
	snap := in.snap
	out := make([]matchView, 0, snap.Matches.Len())
	for _, m := range snap.Matches.Matches() {
		v := matchView{
			ID:           m.ID,
			Round:        m.Round,
			Opponent:     m.Opponent,
			Home:         m.IsHome,
			GoalsFor:     m.GoalsFor(),
			GoalsAgainst: m.GoalsAgainst(),
			Result:       aggregator.MatchResult(m),
		}
		if !m.Date.IsZero() {
			v.Date = m.Date.Format("2006-01-02")
		}
		out = append(out, v)
	}
	return out, nil
}

func bucketParam(r *http.Request, name, def string) (string, error) {
	b := r.URL.Query().Get(name)
	if b == "" {
		b = def
	}
	if _, ok := model.SummaryGroups.Find(b); !ok {
		return "", fmt.Errorf("%w: unknown bucket %q, want one of %s", errBadRequest, b, strings.Join(model.SummaryGroups.Names(), ", "))
	}
	return b, nil
}

func (s *Server) series(r *http.Request, in *inputs) (any, error) {
	bucket, err := bucketParam(r, "bucket", model.BucketGoals)
	if err != nil {
		return nil, err
	}
	return aggregator.GroupSeries(in.snap.Matches, in.snap.Stats, model.SummaryGroups, bucket, playerFilter(r)), nil
}

func (s *Server) balance(r *http.Request, in *inputs) (any, error) {
	plus, err := bucketParam(r, "plus", model.BucketBlocks)
	if err != nil {
		return nil, err
	}
	minus, err := bucketParam(r, "minus", model.BucketConceded)
	if err != nil {
		return nil, err
	}
	return aggregator.BalanceSeries(in.snap.Matches, in.snap.Stats, model.SummaryGroups, plus, minus, playerFilter(r)), nil
}

func (s *Server) mix(r *http.Request, in *inputs) (any, error) {
	name := r.URL.Query().Get("group")
	if name == "" {
		name = "goals"
	}
	groups, ok := model.NamedGroups[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown group %q", errBadRequest, name)
	}
	return aggregator.PlayerMix(in.snap.Stats, groups, playerFilter(r)), nil
}

func (s *Server) scores(_ *http.Request, in *inputs) (any, error) {
	return aggregator.Scoreboard(in.snap.Stats, in.field, in.gk), nil
}

func (s *Server) sprints(_ *http.Request, in *inputs) (any, error) {
	return map[string]any{
		"sprints":  aggregator.SprintSummary(in.snap.Matches),
		"quarters": aggregator.QuarterSplit(in.snap.Matches),
	}, nil
}
