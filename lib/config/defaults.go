// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"reflect"
	"strconv"
)

// setDefaults sets the fields of the struct pointed to by data from their
// `default` tags, recursing into nested structs.
func setDefaults(data any) {
	s := reflect.ValueOf(data).Elem()
	t := s.Type()

	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if !f.CanSet() {
			continue
		}

		v := t.Field(i).Tag.Get("default")
		if v == "" {
			if f.Kind() == reflect.Struct {
				setDefaults(f.Addr().Interface())
			}
			continue
		}

		switch f.Kind() {
		case reflect.String:
			f.SetString(v)

		case reflect.Int, reflect.Int32, reflect.Int64:
			i, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				panic(err)
			}
			f.SetInt(i)

		case reflect.Float32, reflect.Float64:
			fl, err := strconv.ParseFloat(v, 64)
			if err != nil {
				panic(err)
			}
			f.SetFloat(fl)

		case reflect.Bool:
			f.SetBool(v == "true")

		default:
			panic(f.Type())
		}
	}
}
