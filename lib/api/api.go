// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package api serves the models of a tokenizer registry over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"

	"github.com/syncthing/fsmtok/internal/slogutil"
	"github.com/syncthing/fsmtok/lib/build"
	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/semaphore"
	"github.com/syncthing/fsmtok/lib/tokenizer"
)

// MaxRequestBytes bounds the size of a request body.
const MaxRequestBytes = 1 << 20

const shutdownTimeout = 100 * time.Millisecond

func init() {
	slogutil.RegisterPackage("api", "REST API")
}

type service struct {
	suture.Service

	addr        string
	reg         *tokenizer.Registry
	pending     *semaphore.Semaphore // bytes of request text being processed
	started     chan string          // receives the listener address, for tests
	startedOnce chan struct{}        // closed after the first listen attempt
	startupErr  error
}

type Service interface {
	suture.Service
	WaitForStart() error
}

// New returns a service listening on addr and serving the models of reg.
// At most maxPending bytes of request text are processed at once; zero
// means no limit.
func New(addr string, reg *tokenizer.Registry, maxPending int) Service {
	return &service{
		addr:        addr,
		reg:         reg,
		pending:     semaphore.New(maxPending),
		startedOnce: make(chan struct{}),
	}
}

// WaitForStart blocks until the first listen attempt and returns its error.
func (s *service) WaitForStart() error {
	<-s.startedOnce
	return s.startupErr
}

func sendJSON(w http.ResponseWriter, v any) {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(append(bs, '\n'))
}

// httpError maps err to a status code by its kind.
func httpError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, fsa.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, fsa.ErrLimitExceeded), errors.As(err, &maxErr):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, fsa.ErrNotConfigured):
		code = http.StatusNotImplemented
	}
	http.Error(w, err.Error(), code)
}

func (s *service) handler() http.Handler {
	restMux := httprouter.New()
	handle := func(method, path string, fn http.HandlerFunc) {
		restMux.Handler(method, path, timed(method+" "+path, fn))
	}

	handle(http.MethodGet, "/rest/models", s.getModels)
	handle(http.MethodGet, "/rest/models/:model/info", s.getModelInfo) // word | id
	handle(http.MethodPost, "/rest/models/:model/ids", s.postModelIDs)
	handle(http.MethodPost, "/rest/models/:model/text", s.postModelText)
	handle(http.MethodPost, "/rest/models/:model/words", s.postModelWords)
	handle(http.MethodPost, "/rest/models/:model/sentences", s.postModelSentences)

	handle(http.MethodGet, "/rest/noauth/health", s.getHealth)
	handle(http.MethodGet, "/rest/system/version", s.getSystemVersion)
	handle(http.MethodGet, "/rest/system/debug", s.getSystemDebug)
	handle(http.MethodGet, "/rest/system/log", s.getSystemLog) // [since]
	handle(http.MethodGet, "/rest/system/ping", s.restPing)
	handle(http.MethodPost, "/rest/system/ping", s.restPing)

	// Not timed, to keep the numbers it reports clean.
	restMux.HandlerFunc(http.MethodGet, "/rest/debug/httpmetrics", s.getSystemHTTPMetrics)

	mux := http.NewServeMux()
	mux.Handle("/rest/", noCacheMiddleware(restMux))
	mux.Handle("/metrics", promhttp.Handler())

	return debugMiddleware(withDetailsMiddleware(mux))
}

func (s *service) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		select {
		case <-s.startedOnce:
			slog.WarnContext(ctx, "Failed to start API", slogutil.Error(err))
		default:
			// Without the API there is nothing to serve, so a failure on
			// the first attempt is final.
			s.startupErr = err
			close(s.startedOnce)
		}
		return err
	}
	defer listener.Close()

	srv := &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       time.Minute,
		// Errors are reported by the handlers.
		ErrorLog: log.New(io.Discard, "", 0),
	}

	addr := listener.Addr().String()
	slog.InfoContext(ctx, "API listening", slog.String("address", addr), slog.Any("models", s.reg.Names()))
	if s.started != nil {
		select {
		case s.started <- addr:
		case <-ctx.Done():
		}
	}
	select {
	case <-s.startedOnce:
	default:
		close(s.startedOnce)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(listener) }()

	select {
	case <-ctx.Done():
		slog.DebugContext(ctx, "Shutting down API")
		err = nil
	case err = <-serveErr:
		slog.WarnContext(ctx, "API failed, restarting", slogutil.Error(err))
	}

	// Running requests get a moment to finish.
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(sctx); errors.Is(serr, context.DeadlineExceeded) {
		srv.Close()
	}
	return err
}

// Complete implements suture.IsCompletable. A service that never started
// is not restarted.
func (s *service) Complete() bool {
	select {
	case <-s.startedOnce:
		return s.startupErr != nil
	default:
		return false
	}
}

func (s *service) String() string {
	return fmt.Sprintf("api.service@%p", s)
}

func debugMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := asStatusWriter(w)
		t0 := time.Now()
		h.ServeHTTP(sw, r)
		slog.Debug("HTTP request",
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.Int("status", sw.status),
			slog.Int64("bytes", sw.written),
			slog.Duration("took", time.Since(t0)))
	})
}

func noCacheMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Cache-Control", "max-age=0, no-cache, no-store")
		hdr.Set("Expires", time.Now().UTC().Format(http.TimeFormat))
		hdr.Set("Pragma", "no-cache")
		h.ServeHTTP(w, r)
	})
}

func withDetailsMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fsmtok-Version", build.Version)
		h.ServeHTTP(w, r)
	})
}

func (*service) restPing(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, map[string]string{"ping": "pong"})
}

func (*service) getHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, map[string]string{"status": "OK"})
}

type versionResponse struct {
	Version     string    `json:"version"`
	Codename    string    `json:"codename"`
	LongVersion string    `json:"longVersion"`
	Environment string    `json:"environment"`
	Revision    string    `json:"revision,omitempty"`
	OS          string    `json:"os"`
	Arch        string    `json:"arch"`
	IsRelease   bool      `json:"isRelease"`
	IsCandidate bool      `json:"isCandidate"`
	IsBeta      bool      `json:"isBeta"`
	Date        time.Time `json:"date"`
	Tags        []string  `json:"tags"`
	User        string    `json:"user"`
}

func (*service) getSystemVersion(w http.ResponseWriter, _ *http.Request) {
	res := versionResponse{
		Version:     build.Version,
		Codename:    build.Codename,
		LongVersion: build.LongVersion,
		Environment: "Unknown",
		Revision:    build.Revision,
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		IsRelease:   build.IsRelease,
		IsCandidate: build.IsCandidate,
		IsBeta:      build.IsBeta,
		Date:        build.Date,
		Tags:        build.TagsList(),
		User:        build.User,
	}
	if parts, err := build.ParseVersion(build.LongVersion); err == nil {
		res.Environment = parts.Environment()
	}
	sendJSON(w, res)
}

func (*service) getSystemDebug(w http.ResponseWriter, _ *http.Request) {
	levels := make(map[string]string)
	for pkg, level := range slogutil.PackageLevels() {
		levels[pkg] = level.String()
	}
	sendJSON(w, map[string]any{
		"packages": slogutil.PackageDescrs(),
		"levels":   levels,
	})
}

func (*service) getSystemLog(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		since = t
	}
	sendJSON(w, map[string][]slogutil.Line{
		"messages": slogutil.GlobalRecorder.Since(since),
	})
}
