// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package svcutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestFatalErr(t *testing.T) {
	err := AsFatalErr(errors.New("bad"), ExitUsage)
	if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
		t.Error("fatal error should terminate the tree")
	}
	if again := AsFatalErr(err, ExitError); again != err || again.Status.AsInt() != 2 {
		t.Error("fatal error wrapped twice")
	}
}

func TestExitStatusOf(t *testing.T) {
	cases := []struct {
		err    error
		status ExitStatus
	}{
		{nil, ExitSuccess},
		{errors.New("plain"), ExitError},
		{AsFatalErr(errors.New("usage"), ExitUsage), ExitUsage},
		{fmt.Errorf("wrapped: %w", AsFatalErr(errors.New("usage"), ExitUsage)), ExitUsage},
	}
	for _, tc := range cases {
		if s := ExitStatusOf(tc.err); s != tc.status {
			t.Errorf("ExitStatusOf(%v) = %d, expected %d", tc.err, s, tc.status)
		}
	}
}

func TestFatalErrStopsSupervisor(t *testing.T) {
	sup := suture.New("test", SpecWithLogger(slog.LevelDebug))
	sup.Add(serviceFunc(func(context.Context) error {
		return AsFatalErr(errors.New("stop"), ExitUsage)
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sup.Serve(ctx)
	if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
		t.Errorf("unexpected supervisor error %v", err)
	}
	if ctx.Err() != nil {
		t.Error("supervisor ran until the timeout")
	}
}

func TestOnSupervisorDone(t *testing.T) {
	sup := suture.New("test", SpecWithLogger(slog.LevelDebug))
	called := make(chan struct{})
	OnSupervisorDone(sup, func() { close(called) })
	ctx, cancel := context.WithCancel(context.Background())
	done := sup.ServeBackground(ctx)
	cancel()
	<-done
	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("callback not called")
	}
}

type serviceFunc func(context.Context) error

func (fn serviceFunc) Serve(ctx context.Context) error {
	return fn(ctx)
}
