// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import "fmt"

// Engine selects the segmentation strategy of a model.
type Engine int

const (
	EngineNone Engine = iota // no segmentation, lookups and lexing only
	EngineBPE
	EngineUnigram
	EngineWordPiece
)

func (e Engine) String() string {
	switch e {
	case EngineNone:
		return "none"
	case EngineBPE:
		return "bpe"
	case EngineUnigram:
		return "unigram"
	case EngineWordPiece:
		return "wordpiece"
	default:
		return "unknown"
	}
}

func (e Engine) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Engine) UnmarshalText(bs []byte) error {
	switch string(bs) {
	case "", "none":
		*e = EngineNone
	case "bpe":
		*e = EngineBPE
	case "unigram":
		*e = EngineUnigram
	case "wordpiece":
		*e = EngineWordPiece
	default:
		return fmt.Errorf("unknown engine %q", bs)
	}
	return nil
}
