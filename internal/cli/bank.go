package cli

import (
	"github.com/dshills/modbank/internal/bank"
	"github.com/dshills/modbank/internal/cache"
	"github.com/dshills/modbank/internal/config"
	"github.com/dshills/modbank/internal/loader"
	"github.com/dshills/modbank/internal/logging"
)

// openBank builds a bank from configuration, acquires a reference and
// discovers plugins. The returned release func balances the Init.
func openBank(opts *rootOptions, reset bool) (*bank.Bank, func(), error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, err
	}

	root := cfg.Cache.Dir
	if root == "" {
		root = cache.DefaultRoot()
	}

	b := bank.New(
		bank.WithLoader(loader.NewMulti(loader.NewLuaLoader(), loader.NewGoLoader())),
		bank.WithCacheStore(cache.NewStore(root)),
		bank.WithCacheEnabled(cfg.Plugins.Cache),
		bank.WithCacheReset(reset || cfg.Plugins.ResetCache),
		bank.WithPluginDir(cfg.Plugins.Dir),
		bank.WithSearchPath(cfg.SearchPath()),
		bank.WithMaxDepth(cfg.Plugins.MaxDepth),
		bank.WithLogger(logging.New(cfg.Log)),
	)
	b.Init()
	if _, err := b.LoadPlugins(); err != nil {
		_ = b.End()
		return nil, nil, err
	}
	return b, func() { _ = b.End() }, nil
}
