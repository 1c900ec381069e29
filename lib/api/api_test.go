// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"

	"github.com/syncthing/fsmtok/lib/compile"
	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/segment"
	"github.com/syncthing/fsmtok/lib/tokenizer"
)

const (
	testVocab = "un\t1\t-2\nable\t2\t-2\nunable\t3\t-1\n"
	testRules = "0\t[a-z]+\t0 0 1000\n0\t[.!?]\t0 0 5\n"
	unk       = 100
)

// testRegistry compiles a small model to disk and registers it as "test",
// along with "plain", a model without segmentation engine.
func testRegistry(t *testing.T) *tokenizer.Registry {
	t.Helper()

	v, err := compile.ReadVocabulary(strings.NewReader(testVocab))
	require.NoError(t, err)
	rules, err := compile.ReadRules(strings.NewReader(testRules))
	require.NoError(t, err)
	lex, err := rules.Build()
	require.NoError(t, err)

	b := compile.NewBundle()
	b.AddDictionary(v.Build())
	b.AddLexicon(lex)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.bin")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))

	reg := tokenizer.NewRegistry()
	t.Cleanup(func() { reg.Close() })

	man := b.Manifest("test", path)
	man.Engine = config.EngineUnigram
	man.UnkID = unk
	man.WordTag = 1000
	man.SentenceTag = 5
	man.Limits.MaxInputLength = 64
	require.NoError(t, reg.Register(man))

	plain := b.Manifest("plain", path)
	require.NoError(t, reg.Register(plain))
	return reg
}

func startTestServer(t *testing.T) (*httptest.Server, *tokenizer.Registry) {
	t.Helper()
	reg := testRegistry(t)
	svc := New("127.0.0.1:0", reg, 0).(*service)
	srv := httptest.NewServer(svc.handler())
	t.Cleanup(srv.Close)
	return srv, reg
}

type httpTestCase struct {
	Method string // Defaults to GET
	URL    string // URL to check
	Body   string // JSON request body
	Code   int    // Expected result code
	Type   string // Expected content type
	Prefix string // Expected result prefix
}

func TestAPIServiceRequests(t *testing.T) {
	t.Parallel()
	srv, _ := startTestServer(t)

	cases := []httpTestCase{
		// /rest/models
		{
			URL:    "/rest/models",
			Code:   200,
			Type:   "application/json",
			Prefix: "[",
		},
		{
			Method: http.MethodPost,
			URL:    "/rest/models/test/ids",
			Body:   `{"text": "unable"}`,
			Code:   200,
			Type:   "application/json",
			Prefix: "{",
		},
		{
			Method: http.MethodPost,
			URL:    "/rest/models/missing/ids",
			Body:   `{"text": "unable"}`,
			Code:   404,
		},
		{
			Method: http.MethodPost,
			URL:    "/rest/models/test/ids",
			Body:   `{"text": `,
			Code:   400,
		},
		{
			Method: http.MethodPost,
			URL:    "/rest/models/test/ids",
			Body:   `{"text": "` + strings.Repeat("a", 65) + `"}`,
			Code:   413,
		},
		{
			Method: http.MethodPost,
			URL:    "/rest/models/plain/ids",
			Body:   `{"text": "unable"}`,
			Code:   501,
		},
		{
			Method: http.MethodPost,
			URL:    "/rest/models/plain/words",
			Body:   `{"text": "unable"}`,
			Code:   200,
			Type:   "application/json",
			Prefix: "{",
		},
		{
			URL:  "/rest/models/test/info",
			Code: 400,
		},
		{
			URL:  "/rest/models/test/info?id=x",
			Code: 400,
		},
		{
			URL:  "/rest/models/test/info?id=999",
			Code: 404,
		},
		{
			URL:  "/rest/models/test/info?word=zzz",
			Code: 404,
		},
		{
			URL:    "/rest/models/test/info?word=able",
			Code:   200,
			Type:   "application/json",
			Prefix: "{",
		},
		{
			Method: http.MethodGet,
			URL:    "/rest/models/test/ids",
			Code:   405,
		},

		// /rest/system
		{
			URL:    "/rest/system/version",
			Code:   200,
			Type:   "application/json",
			Prefix: "{",
		},
		{
			URL:    "/rest/system/debug",
			Code:   200,
			Type:   "application/json",
			Prefix: "{",
		},
		{
			URL:    "/rest/system/log?since=2006-01-02T15:04:05Z",
			Code:   200,
			Type:   "application/json",
			Prefix: "{",
		},
		{
			URL:    "/rest/system/ping",
			Code:   200,
			Type:   "application/json",
			Prefix: "{",
		},
		{
			URL:    "/rest/noauth/health",
			Code:   200,
			Type:   "application/json",
			Prefix: `{`,
		},

		// /rest/debug and /metrics
		{
			URL:    "/rest/debug/httpmetrics",
			Code:   200,
			Type:   "application/json",
			Prefix: "{",
		},
		{
			URL:  "/metrics",
			Code: 200,
			Type: "text/plain",
		},
	}

	for _, tc := range cases {
		t.Run(tc.Method+tc.URL, func(t *testing.T) {
			testHTTPRequest(t, srv.URL, tc)
		})
	}
}

// testHTTPRequest tries the given test case, comparing the result code,
// content type, and result prefix.
func testHTTPRequest(t *testing.T, baseURL string, tc httpTestCase) {
	t.Helper()
	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if tc.Body != "" {
		body = strings.NewReader(tc.Body)
	}
	req, err := http.NewRequest(method, baseURL+tc.URL, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, tc.Code, resp.StatusCode, "status of %s %s", method, tc.URL)
	if tc.Type != "" {
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), tc.Type), "content type %q", resp.Header.Get("Content-Type"))
	}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), tc.Prefix), "body %q", data)
}

func postJSON(t *testing.T, url, contentType, body string, res any) {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(res))
}

func getJSON(t *testing.T, url string, res any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(res))
}

func TestModelIDs(t *testing.T) {
	t.Parallel()
	srv, _ := startTestServer(t)

	var res struct {
		Model  string            `json:"model"`
		Tokens []tokenizer.Token `json:"tokens"`
	}
	postJSON(t, srv.URL+"/rest/models/test/ids", "application/json", `{"text": "unablexx"}`, &res)
	assert.Equal(t, "test", res.Model)
	assert.Equal(t, []tokenizer.Token{
		{ID: 3, Start: 0, End: 6, Text: "unable"},
		{ID: unk, Start: 6, End: 8, Text: "xx"},
	}, res.Tokens)

	// A text/plain body is the text itself.
	postJSON(t, srv.URL+"/rest/models/test/ids", "text/plain; charset=utf-8", "able", &res)
	assert.Equal(t, []tokenizer.Token{{ID: 2, Start: 0, End: 4, Text: "able"}}, res.Tokens)

	postJSON(t, srv.URL+"/rest/models/test/ids", "application/json", `{"text": ""}`, &res)
	assert.NotNil(t, res.Tokens)
	assert.Empty(t, res.Tokens)
}

func TestModelWordsAndSentences(t *testing.T) {
	t.Parallel()
	srv, _ := startTestServer(t)

	var words struct {
		Words []tokenizer.Word `json:"words"`
	}
	postJSON(t, srv.URL+"/rest/models/test/words", "application/json", `{"text": "un able!"}`, &words)
	assert.Equal(t, []tokenizer.Word{
		{Tag: 1000, Start: 0, End: 2, Text: "un"},
		{Tag: 1000, Start: 3, End: 7, Text: "able"},
		{Tag: 5, Start: 7, End: 8, Text: "!"},
	}, words.Words)

	var sents struct {
		Sentences []tokenizer.Sentence `json:"sentences"`
	}
	postJSON(t, srv.URL+"/rest/models/test/sentences", "application/json", `{"text": "un. able"}`, &sents)
	require.Len(t, sents.Sentences, 2)
	assert.Equal(t, "un.", sents.Sentences[0].Text)
	assert.Equal(t, "able", sents.Sentences[1].Text)
	assert.Equal(t, 4, sents.Sentences[1].Start)
}

func TestModelTextAndInfo(t *testing.T) {
	t.Parallel()
	srv, _ := startTestServer(t)

	var text struct {
		Text string `json:"text"`
	}
	postJSON(t, srv.URL+"/rest/models/test/text", "application/json", `{"ids": [1, 2, 3]}`, &text)
	assert.Equal(t, "unableunable", text.Text)

	var info struct {
		Word string  `json:"word"`
		ID   int32   `json:"id"`
		Info []int32 `json:"info"`
	}
	getJSON(t, srv.URL+"/rest/models/test/info?word=able", &info)
	assert.Equal(t, "able", info.Word)
	assert.Equal(t, []int32{segment.ScoreBits(-2), 2}, info.Info)

	id := info.ID
	info.Info = nil
	getJSON(t, srv.URL+"/rest/models/test/info?id="+strconv.Itoa(int(id)), &info)
	assert.Equal(t, []int32{segment.ScoreBits(-2), 2}, info.Info)
}

func TestModelList(t *testing.T) {
	t.Parallel()
	srv, reg := startTestServer(t)

	var models []modelSummary
	getJSON(t, srv.URL+"/rest/models", &models)
	require.Len(t, models, 2)
	assert.Equal(t, "plain", models[0].Name)
	assert.Equal(t, config.EngineNone, models[0].Engine)
	assert.Equal(t, "test", models[1].Name)
	assert.Equal(t, config.EngineUnigram, models[1].Engine)
	assert.False(t, models[1].Loaded)
	assert.Empty(t, models[1].Fingerprint)

	m, err := reg.Get("test")
	require.NoError(t, err)

	getJSON(t, srv.URL+"/rest/models", &models)
	assert.True(t, models[1].Loaded)
	assert.Equal(t, fmt.Sprintf("%016x", m.Fingerprint()), models[1].Fingerprint)
}

func TestHTTPMetrics(t *testing.T) {
	t.Parallel()
	srv, _ := startTestServer(t)

	var res struct{}
	postJSON(t, srv.URL+"/rest/models/test/ids", "application/json", `{"text": "un"}`, &res)

	var stats map[string]timerStats
	getJSON(t, srv.URL+"/rest/debug/httpmetrics", &stats)
	route, ok := stats["POST /rest/models/:model/ids"]
	require.True(t, ok, "timer per route, not per model")
	assert.GreaterOrEqual(t, route.Count, int64(1))
	assert.Len(t, route.PercentilesMs, 3)
	_, ok = stats["/rest/models/test/ids"]
	assert.False(t, ok)
}

func TestResponseHeaders(t *testing.T) {
	t.Parallel()
	srv, _ := startTestServer(t)

	resp, err := http.Get(srv.URL + "/rest/system/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "max-age=0, no-cache, no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Fsmtok-Version"))
}

func TestRequestTooLarge(t *testing.T) {
	t.Parallel()
	srv, _ := startTestServer(t)

	body := `{"text": "` + strings.Repeat("a", MaxRequestBytes) + `"}`
	resp, err := http.Post(srv.URL+"/rest/models/test/ids", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestPendingLimit(t *testing.T) {
	t.Parallel()
	svc := New("127.0.0.1:0", testRegistry(t), 8).(*service)
	h := svc.handler()

	// Small requests pass while the limit is not reached.
	req := httptest.NewRequest(http.MethodPost, "/rest/models/test/ids", strings.NewReader(`{"text":"unable"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// With all capacity taken a request waits until its context is done.
	release, err := svc.pending.Acquire(context.Background(), 8)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req = httptest.NewRequest(http.MethodPost, "/rest/models/test/ids", strings.NewReader(`{"text":"unable"}`)).WithContext(ctx)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServe(t *testing.T) {
	t.Parallel()

	addrChan := make(chan string)
	svc := New("127.0.0.1:0", testRegistry(t), 1<<16).(*service)
	svc.started = addrChan

	supervisor := suture.New("API test", suture.Spec{
		PassThroughPanics: true,
	})
	supervisor.Add(svc)
	ctx, cancel := context.WithCancel(context.Background())
	done := supervisor.ServeBackground(ctx)
	defer func() {
		cancel()
		<-done
	}()

	var addr string
	select {
	case addr = <-addrChan:
	case <-time.After(10 * time.Second):
		t.Fatal("service did not start")
	}
	require.NoError(t, svc.WaitForStart())
	assert.False(t, svc.Complete())

	testHTTPRequest(t, "http://"+addr, httpTestCase{
		URL:    "/rest/noauth/health",
		Code:   200,
		Type:   "application/json",
		Prefix: "{",
	})
}

func TestServeListenError(t *testing.T) {
	t.Parallel()

	svc := New("127.0.0.1:-1", testRegistry(t), 0).(*service)
	err := svc.Serve(context.Background())
	assert.Error(t, err)
	assert.Equal(t, err, svc.WaitForStart())
	assert.True(t, svc.Complete())
}
