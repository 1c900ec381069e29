// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package svcutil holds the glue between commands, their services and the
// supervisor running them.
package svcutil

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
)

const ServiceTimeout = 10 * time.Second

type ExitStatus int

const (
	ExitSuccess ExitStatus = 0
	ExitError   ExitStatus = 1
	ExitUsage   ExitStatus = 2
)

func (s ExitStatus) AsInt() int {
	return int(s)
}

// A FatalErr stops the supervisor tree and carries the status the process
// should exit with.
type FatalErr struct {
	Err    error
	Status ExitStatus
}

// AsFatalErr wraps the given error creating a FatalErr. If the given error
// already is of type FatalErr, it is not wrapped again.
func AsFatalErr(err error, status ExitStatus) *FatalErr {
	var ferr *FatalErr
	if errors.As(err, &ferr) {
		return ferr
	}
	return &FatalErr{
		Err:    err,
		Status: status,
	}
}

func (e *FatalErr) Error() string {
	return e.Err.Error()
}

func (e *FatalErr) Unwrap() error {
	return e.Err
}

func (e *FatalErr) Is(target error) bool {
	return target == suture.ErrTerminateSupervisorTree
}

// ExitStatusOf returns the status to exit with after err: success for
// nil, the carried status for a FatalErr and ExitError otherwise.
func ExitStatusOf(err error) ExitStatus {
	if err == nil {
		return ExitSuccess
	}
	return AsFatalErr(err, ExitError).Status
}

type doneService func()

func (fn doneService) Serve(ctx context.Context) error {
	<-ctx.Done()
	fn()
	return nil
}

// OnSupervisorDone calls fn when sup is done.
func OnSupervisorDone(sup *suture.Supervisor, fn func()) {
	sup.Add(doneService(fn))
}

// SpecWithLogger returns a supervisor spec that logs supervisor events at
// the given level. Panics and services that stop with an error are
// logged as warnings regardless.
func SpecWithLogger(level slog.Level) suture.Spec {
	return suture.Spec{
		EventHook: func(e suture.Event) {
			l := level
			switch e.(type) {
			case suture.EventServicePanic, suture.EventServiceTerminate, suture.EventStopTimeout:
				l = max(level, slog.LevelWarn)
			}
			slog.Log(context.Background(), l, "Supervisor event", slog.String("event", e.String()))
		},
		Timeout:           ServiceTimeout,
		PassThroughPanics: true,
	}
}
