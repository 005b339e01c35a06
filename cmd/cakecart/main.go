// cakecart はcakedelightのカートを端末から操作するCLI。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"cakedelight/internal/apiclient"
	"cakedelight/internal/config"
	"cakedelight/internal/logger"

	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Env: cfg.GoEnv})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	//出力に混ざらないように警告以上だけ
	log = log.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	defer func() { _ = log.Sync() }()

	s, err := openSlot(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			log.Warn("close slot failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(s, apiclient.New(cfg.APIURL), os.Stdout, log)
	err = a.exec(ctx, args)
	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
	}
	return err
}
