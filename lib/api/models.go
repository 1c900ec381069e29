// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/tokenizer"
)

type modelSummary struct {
	Name        string        `json:"name"`
	Engine      config.Engine `json:"engine"`
	Dump        string        `json:"dump"`
	Loaded      bool          `json:"loaded"`
	Fingerprint string        `json:"fingerprint,omitempty"`
}

// textRequest is the body of the text processing requests. A text/plain
// body is taken as the text itself.
type textRequest struct {
	Text string `json:"text"`
}

type idsRequest struct {
	IDs []int32 `json:"ids"`
}

func (s *service) getModels(w http.ResponseWriter, _ *http.Request) {
	res := make([]modelSummary, 0)
	for _, name := range s.reg.Names() {
		man, ok := s.reg.Manifest(name)
		if !ok {
			continue
		}
		sum := modelSummary{
			Name:   name,
			Engine: man.Engine,
			Dump:   man.Dump,
			Loaded: s.reg.Loaded(name),
		}
		if sum.Loaded {
			if m, err := s.reg.Get(name); err == nil {
				sum.Fingerprint = fmt.Sprintf("%016x", m.Fingerprint())
			}
		}
		res = append(res, sum)
	}
	sendJSON(w, res)
}

// model returns the model named in the request path, loading it if
// needed. Failures have been reported to the client when ok is false.
func (s *service) model(w http.ResponseWriter, r *http.Request) (*tokenizer.Model, bool) {
	name := httprouter.ParamsFromContext(r.Context()).ByName("model")
	m, err := s.reg.Get(name)
	if err != nil {
		httpError(w, err)
		return nil, false
	}
	return m, true
}

func readText(w http.ResponseWriter, r *http.Request) (string, error) {
	body := http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "text/plain" {
		bs, err := io.ReadAll(body)
		return string(bs), err
	}
	var req textRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return "", err
	}
	return req.Text, nil
}

// textHandler wraps a text processing operation as a handler. The result
// is sent under the given key.
func (s *service) textHandler(key string, fn func(m *tokenizer.Model, text string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := s.model(w, r)
		if !ok {
			return
		}
		text, err := readText(w, r)
		if err != nil {
			httpBodyError(w, err)
			return
		}
		release, err := s.pending.Acquire(r.Context(), len(text))
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		res, err := fn(m, text)
		release()
		if err != nil {
			httpError(w, err)
			return
		}
		sendJSON(w, map[string]any{
			"model": m.Name(),
			key:     res,
		})
	}
}

func httpBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		httpError(w, err)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *service) postModelIDs(w http.ResponseWriter, r *http.Request) {
	s.textHandler("tokens", func(m *tokenizer.Model, text string) (any, error) {
		toks, err := m.TextToIDs(text)
		if toks == nil {
			toks = []tokenizer.Token{}
		}
		return toks, err
	})(w, r)
}

func (s *service) postModelWords(w http.ResponseWriter, r *http.Request) {
	s.textHandler("words", func(m *tokenizer.Model, text string) (any, error) {
		words, err := m.TextToWords(text)
		if words == nil {
			words = []tokenizer.Word{}
		}
		return words, err
	})(w, r)
}

func (s *service) postModelSentences(w http.ResponseWriter, r *http.Request) {
	s.textHandler("sentences", func(m *tokenizer.Model, text string) (any, error) {
		sents, err := m.TextToSentences(text)
		if sents == nil {
			sents = []tokenizer.Sentence{}
		}
		return sents, err
	})(w, r)
}

func (s *service) postModelText(w http.ResponseWriter, r *http.Request) {
	m, ok := s.model(w, r)
	if !ok {
		return
	}
	var req idsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		httpBodyError(w, err)
		return
	}
	text, err := m.IDsToText(req.IDs)
	if err != nil {
		httpError(w, err)
		return
	}
	sendJSON(w, map[string]string{
		"model": m.Name(),
		"text":  text,
	})
}

// getModelInfo looks up an info record by word, or by info id.
func (s *service) getModelInfo(w http.ResponseWriter, r *http.Request) {
	m, ok := s.model(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	var id int32
	res := map[string]any{"model": m.Name()}
	switch {
	case q.Has("word"):
		word := q.Get("word")
		var err error
		id, err = m.WordInfoID(word)
		if err != nil {
			httpError(w, err)
			return
		}
		res["word"] = word
	case q.Has("id"):
		v, err := strconv.ParseInt(q.Get("id"), 10, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id = int32(v)
	default:
		http.Error(w, "missing word or id", http.StatusBadRequest)
		return
	}

	info, err := m.InfoByID(id)
	if err != nil {
		httpError(w, err)
		return
	}
	res["id"] = id
	res["info"] = info
	sendJSON(w, res)
}
