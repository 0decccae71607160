package main

import (
	"errors"
	"math/rand"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/healthpick/healthpick/internal/cascade"
	"github.com/healthpick/healthpick/internal/catalog"
	"github.com/healthpick/healthpick/internal/config"
	"github.com/healthpick/healthpick/internal/fallback"
	"github.com/healthpick/healthpick/internal/nutrition"
	"github.com/healthpick/healthpick/internal/oracle"
	"github.com/healthpick/healthpick/internal/prefs"
	"github.com/healthpick/healthpick/internal/scoring"
	"github.com/healthpick/healthpick/internal/vitals"
)

// app wires the service components from configuration.
type app struct {
	cfg   config.Config
	pool  []catalog.Item
	menus []catalog.PartnerMenu

	store    *prefs.Store
	feed     *vitals.Feed
	cascade  *cascade.Cascade
	oracle   *oracle.Client
	macros   *nutrition.MacroClient
	evidence *nutrition.EvidenceClient
}

type appOptions struct {
	seed     int64 // 0 means time-seeded
	noJitter bool
	noRemote bool
}

func loadApp(opts appOptions) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", flagConfig).Msg("config file missing, using defaults")
			cfg = config.Default()
		} else {
			return nil, err
		}
	}

	pool, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Warn().Err(err).Msg("catalog unavailable, starting with partner dishes only")
	}

	var menus []catalog.PartnerMenu
	if cfg.Catalog.PartnersPath != "" {
		menus, err = catalog.LoadPartnerMenus(cfg.Catalog.PartnersPath)
		if err != nil {
			log.Warn().Err(err).Msg("partner menus unavailable")
		}
	}
	pool = append(pool, catalog.FlattenPartners(menus)...)

	store := prefs.NewStore(cfg.Store)
	if err := store.Load(); err != nil {
		return nil, err
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var engineRng *rand.Rand
	if !opts.noJitter {
		engineRng = rand.New(rand.NewSource(seed))
	}
	engine := scoring.NewEngine(engineRng)

	feed := vitals.NewFeed(cfg.Vitals, rand.New(rand.NewSource(seed+1)))

	var remote cascade.RemoteRanker
	var oracleClient *oracle.Client
	if !opts.noRemote && cfg.Oracle.BaseURL != "" {
		oracleClient = oracle.NewClient(cfg.Oracle)
		remote = oracleClient
	}

	fb := fallback.NewScorer(cfg.Fallback)
	casc := cascade.New(cfg.Cascade, remote, fb, engine, store)

	var cache nutrition.Cache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		cache = nutrition.NewRedisCache(client, "healthpick:")
	} else {
		cache = nutrition.NewMemoryCache()
	}

	return &app{
		cfg:      cfg,
		pool:     pool,
		menus:    menus,
		store:    store,
		feed:     feed,
		cascade:  casc,
		oracle:   oracleClient,
		macros:   nutrition.NewMacroClient(cfg.Nutrition, cache),
		evidence: nutrition.NewEvidenceClient(cfg.Nutrition, cache, rand.New(rand.NewSource(seed+2))),
	}, nil
}
