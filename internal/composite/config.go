package composite

import "github.com/fyrsmithlabs/figclass/internal/config"

// Config holds the motif thresholds.
type Config struct {
	Enabled            bool
	CardImageAreaRatio float64
	MinCardChildren    int
	ListMinItems       int
	ListIconMaxSide    float64
	GridMinCards       int
	HeroMinWidth       float64
	HeroMinHeight      float64
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		CardImageAreaRatio: 0.25,
		MinCardChildren:    2,
		ListMinItems:       2,
		ListIconMaxSide:    64,
		GridMinCards:       2,
		HeroMinWidth:       900,
		HeroMinHeight:      400,
	}
}

// ConfigFrom maps the application config section.
func ConfigFrom(c config.CompositeConfig) Config {
	return Config{
		Enabled:            c.Enabled,
		CardImageAreaRatio: c.CardImageAreaRatio,
		MinCardChildren:    c.MinCardChildren,
		ListMinItems:       c.ListMinItems,
		ListIconMaxSide:    c.ListIconMaxSide,
		GridMinCards:       c.GridMinCards,
		HeroMinWidth:       c.HeroMinWidth,
		HeroMinHeight:      c.HeroMinHeight,
	}
}
