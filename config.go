package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/voidowl/portfolio/internal/rotate"
)

// serverConfig is read from the environment; godotenv loads .env first.
type serverConfig struct {
	Port          string
	DBPath        string
	AdminUsername string
	AdminPassword string
	LogLevel      string
	HeroPath      string
}

func loadServerConfig() serverConfig {
	return serverConfig{
		Port:          envOr("PORT", "8080"),
		DBPath:        envOr("DB_PATH", "portfolio.db"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		HeroPath:      envOr("HERO_CONFIG", "hero.toml"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// heroFile maps hero.toml. Unset fields keep the built-in defaults.
type heroFile struct {
	Prefix     *string          `toml:"prefix"`
	Texts      []string         `toml:"texts"`
	Colors     []string         `toml:"colors"`
	Split      *string          `toml:"split"`
	StaggerMS  *int             `toml:"stagger_ms"`
	From       *string          `toml:"from"`
	IntervalMS *int             `toml:"interval_ms"`
	Loop       *bool            `toml:"loop"`
	Auto       *bool            `toml:"auto"`
	Variants   []variantSection `toml:"variants"`
}

type variantSection struct {
	Initial string `toml:"initial"`
	Animate string `toml:"animate"`
	Exit    string `toml:"exit"`
}

// heroSettings is everything a host needs to build a headline.
type heroSettings struct {
	Prefix string
	Colors []string
	Rotate rotate.Config
}

func defaultHeroSettings() heroSettings {
	cfg := rotate.DefaultConfig(HeadlineTexts)
	cfg.StaggerFrom = rotate.StaggerLast
	cfg.StaggerDuration = 25 * time.Millisecond
	cfg.RotationInterval = 2500 * time.Millisecond
	cfg.Variants = []rotate.Variant{{Initial: "enter-below", Animate: "rest", Exit: "exit-above"}}
	return heroSettings{
		Prefix: HeadlinePrefix,
		Colors: HeadlineColors,
		Rotate: cfg,
	}
}

// loadHeroSettings reads path over the defaults. A missing file is not an
// error.
func loadHeroSettings(path string) (heroSettings, error) {
	settings := defaultHeroSettings()
	if path == "" {
		return settings, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to stat hero config: %w", err)
	}
	var f heroFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return settings, fmt.Errorf("failed to decode hero config: %w", err)
	}
	if err := f.apply(&settings); err != nil {
		return settings, fmt.Errorf("hero config %s: %w", path, err)
	}
	return settings, nil
}

func (f heroFile) apply(s *heroSettings) error {
	if f.Prefix != nil {
		s.Prefix = *f.Prefix
	}
	if f.Texts != nil {
		s.Rotate.Texts = f.Texts
	}
	if f.Colors != nil {
		s.Colors = f.Colors
	}
	if f.Split != nil {
		s.Rotate.Split = rotate.ParseSplitMode(*f.Split)
	}
	if f.StaggerMS != nil {
		s.Rotate.StaggerDuration = time.Duration(*f.StaggerMS) * time.Millisecond
	}
	if f.From != nil {
		from, err := rotate.ParseStaggerOrigin(*f.From)
		if err != nil {
			return err
		}
		s.Rotate.StaggerFrom = from
	}
	if f.IntervalMS != nil {
		s.Rotate.RotationInterval = time.Duration(*f.IntervalMS) * time.Millisecond
	}
	if f.Loop != nil {
		s.Rotate.Loop = *f.Loop
	}
	if f.Auto != nil {
		s.Rotate.Auto = *f.Auto
	}
	if f.Variants != nil {
		s.Rotate.Variants = make([]rotate.Variant, len(f.Variants))
		for i, v := range f.Variants {
			s.Rotate.Variants[i] = rotate.Variant{Initial: v.Initial, Animate: v.Animate, Exit: v.Exit}
		}
	}
	return nil
}

// colorAt picks the palette entry for a headline index, cycling when there
// are fewer colors than texts.
func (s heroSettings) colorAt(index int) string {
	if len(s.Colors) == 0 {
		return ""
	}
	return s.Colors[index%len(s.Colors)]
}
