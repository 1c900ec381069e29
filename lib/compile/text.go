// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package compile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/syncthing/fsmtok/lib/fsa"
)

// ReadVocabulary reads a word list with one entry per line: the word, its
// token id and optionally a score, separated by tabs. Empty lines and
// lines starting with # are skipped. Each word gets the info record
// [float32 bits of the score, token id].
func ReadVocabulary(r io.Reader) (*Vocabulary, error) {
	v := NewVocabulary()
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: expected word, id and optional score", line)
		}
		id, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("line %d: bad token id %q", line, fields[1])
		}
		var score float64
		if len(fields) == 3 {
			score, err = strconv.ParseFloat(fields[2], 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad score: %w", line, err)
			}
		}
		if err := v.AddString(fields[0], int32(math.Float32bits(float32(score))), int32(id)); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return v, sc.Err()
}

// ReadRules reads a rule set with one rule per line and three tab
// separated fields: the function id, the pattern and the action. The
// action lists the left trim, right trim, tag and called functions. The
// pattern is a space separated sequence of
//
//	^        the left anchor
//	$        the right anchor
//	.  .+    any symbol, once or repeated
//	[a-z_]   a symbol class, optionally followed by + to repeat it
//	abc      literal symbols
//
// A backslash escapes the next character; \s, \t and \n stand for space,
// tab and newline.
func ReadRules(r io.Reader) (*Rules, error) {
	rules := NewRules()
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected three tab separated fields", line)
		}
		fn, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad function: %w", line, err)
		}
		pattern, err := ParsePattern(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		act, err := parseAction(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := rules.Add(int32(fn), pattern, act); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return rules, sc.Err()
}

// ParsePattern parses the pattern syntax of ReadRules.
func ParsePattern(s string) ([]Elem, error) {
	var es []Elem
	for _, tok := range strings.Fields(s) {
		switch tok {
		case "^":
			es = append(es, Sym(fsa.LeftAnchor))
		case "$":
			es = append(es, Sym(fsa.RightAnchor))
		case ".":
			es = append(es, Sym(fsa.Any))
		case ".+":
			es = append(es, Plus(fsa.Any))
		default:
			rs := []rune(tok)
			if rs[0] == '[' {
				e, err := parseClass(rs)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", tok, err)
				}
				es = append(es, e)
				continue
			}
			for i := 0; i < len(rs); {
				c, n := unescape(rs[i:])
				es = append(es, Sym(c))
				i += n
			}
		}
	}
	if len(es) == 0 {
		return nil, errors.New("empty pattern")
	}
	return es, nil
}

const maxClassRange = 0x10000

func parseClass(rs []rune) (Elem, error) {
	var syms []int32
	i := 1
	for {
		if i >= len(rs) {
			return Elem{}, errors.New("unterminated class")
		}
		if rs[i] == ']' {
			break
		}
		lo, n := unescape(rs[i:])
		i += n
		if i+1 < len(rs) && rs[i] == '-' && rs[i+1] != ']' {
			hi, m := unescape(rs[i+1:])
			i += 1 + m
			if hi < lo || hi-lo >= maxClassRange {
				return Elem{}, fmt.Errorf("bad range %q-%q", lo, hi)
			}
			syms = append(syms, Range(lo, hi)...)
			continue
		}
		syms = append(syms, lo)
	}
	if len(syms) == 0 {
		return Elem{}, errors.New("empty class")
	}
	switch string(rs[i+1:]) {
	case "":
		return Sym(syms...), nil
	case "+":
		return Plus(syms...), nil
	default:
		return Elem{}, errors.New("trailing characters after class")
	}
}

func unescape(rs []rune) (int32, int) {
	if rs[0] != '\\' || len(rs) == 1 {
		return rs[0], 1
	}
	switch rs[1] {
	case 's':
		return ' ', 2
	case 't':
		return '\t', 2
	case 'n':
		return '\n', 2
	default:
		return rs[1], 2
	}
}

func parseAction(s string) (Action, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return Action{}, errors.New("action needs left trim, right trim and tag")
	}
	vals := make([]int32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return Action{}, fmt.Errorf("bad action value %q", f)
		}
		vals[i] = int32(v)
	}
	return Action{Left: vals[0], Right: vals[1], Tag: vals[2], Calls: vals[3:]}, nil
}
