package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cakedelight/internal/cart"
	"cakedelight/internal/config"
	"cakedelight/internal/infra/db"
	"cakedelight/internal/infra/slot"

	"github.com/redis/go-redis/v9"
)

// redisに置いたカートは30日で消える
const redisSlotTTL = 30 * 24 * time.Hour

const tokenKey = "token"

// openedSlot はスロットと、その後片付け・キーの付け方
type openedSlot struct {
	slot  cart.Slot
	close func() error
	// 同じスロットを複数セッションで共有するときの接頭辞
	prefix string
}

func (o openedSlot) key(name string) string {
	if o.prefix == "" {
		return name
	}
	return o.prefix + ":" + name
}

func openSlot(cfg config.ClientConfig) (openedSlot, error) {
	noop := func() error { return nil }

	switch cfg.Slot {
	case "memory":
		return openedSlot{slot: slot.NewMemorySlot(), close: noop}, nil

	case "file":
		s, err := slot.NewFileSlot(cfg.Home)
		if err != nil {
			return openedSlot{}, err
		}
		return openedSlot{slot: s, close: noop}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s := slot.NewRedisSlot(client, "cakedelight:"+cfg.Session, redisSlotTTL)
		return openedSlot{slot: s, close: client.Close}, nil

	case "postgres":
		gdb, err := db.Open(cfg.DatabaseURL, false)
		if err != nil {
			return openedSlot{}, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return openedSlot{}, fmt.Errorf("postgres slot: %w", err)
		}
		if err := db.MigrateSlots(gdb); err != nil {
			_ = sqlDB.Close()
			return openedSlot{}, err
		}
		return openedSlot{slot: slot.NewGormSlot(gdb), close: sqlDB.Close, prefix: cfg.Session}, nil

	case "bolt", "":
		if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
			return openedSlot{}, fmt.Errorf("create %s: %w", cfg.Home, err)
		}
		s, err := slot.OpenBoltSlot(filepath.Join(cfg.Home, "cart.db"))
		if err != nil {
			return openedSlot{}, err
		}
		return openedSlot{slot: s, close: s.Close}, nil
	}
	return openedSlot{}, fmt.Errorf("unknown slot %q", cfg.Slot)
}
