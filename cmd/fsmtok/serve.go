// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/thejerf/suture/v4"

	"github.com/syncthing/fsmtok/internal/slogutil"
	"github.com/syncthing/fsmtok/lib/api"
	"github.com/syncthing/fsmtok/lib/build"
	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/svcutil"
	"github.com/syncthing/fsmtok/lib/tokenizer"
)

type serveCmd struct {
	Listen     string `default:"127.0.0.1:8385" env:"FSMTOK_LISTEN" help:"HTTP listen address"`
	Models     string `default:"." type:"existingdir" env:"FSMTOK_MODELS" placeholder:"DIR" help:"Directory of model manifests"`
	Preload    bool   `help:"Load all models at startup instead of on first use"`
	MaxPending int    `default:"16777216" env:"FSMTOK_MAX_PENDING" placeholder:"BYTES" help:"Bytes of request text processed at once, 0 for no limit"`
}

func (c *serveCmd) Run() error {
	slog.Info("Starting fsmtok", slog.String("version", build.Version), slog.String("codename", build.Codename))

	reg := tokenizer.Default()
	defer reg.Close()
	if err := c.register(reg); err != nil {
		return svcutil.AsFatalErr(err, svcutil.ExitUsage)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sup := suture.New("fsmtok", svcutil.SpecWithLogger(slog.LevelDebug))
	svc := api.New(c.Listen, reg, c.MaxPending)
	sup.Add(svc)
	svcutil.OnSupervisorDone(sup, func() {
		slog.Info("Shutting down")
	})

	done := sup.ServeBackground(ctx)
	if err := svc.WaitForStart(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("starting API: %w", err)
	}
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// register adds the models of the manifest directory to reg, loading
// them if asked to.
func (c *serveCmd) register(reg *tokenizer.Registry) error {
	mans, err := config.LoadDir(c.Models)
	if err != nil {
		return err
	}
	if len(mans) == 0 {
		return fmt.Errorf("no model manifests in %s", c.Models)
	}
	for _, man := range mans {
		if err := reg.Register(man); err != nil {
			return err
		}
		if c.Preload {
			if _, err := reg.Get(man.Name); err != nil {
				return err
			}
		}
	}
	slog.Info("Registered models", slog.Int("count", len(mans)), slogutil.FilePath(c.Models))
	return nil
}
