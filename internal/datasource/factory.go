package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/config"
)

// Factory creates Source implementations based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
	labels *LabelNormalizer
}

// NewFactory creates a new source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	return &Factory{
		logger: logger,
		config: cfg,
		labels: NewLabelNormalizer(nil),
	}
}

// NewSource creates one source from its configuration, wrapped in the
// retry decorator and, when a cache TTL is set, the event listing cache.
func (f *Factory) NewSource(cfg config.SourceConfig) (Source, error) {
	var src Source

	switch cfg.Type {
	case TypeOddsAPI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("odds api source %s requires an API key", cfg.Name)
		}
		httpCfg := DefaultHTTPClientConfig()
		httpCfg.Timeout = f.config.SourceTimeout()
		if cfg.RateLimit > 0 {
			httpCfg.RateLimit = cfg.RateLimit
		}
		src = NewOddsAPISource(OddsAPIConfig{
			Name:       cfg.Name,
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Region:     cfg.Region,
			SportKeys:  cfg.SportKeys,
			Bookmakers: cfg.Bookmakers,
		}, NewRateLimitedHTTPClient(cfg.Name, httpCfg, f.logger), f.labels, f.logger)

	case TypeMock:
		src = NewMockSource(cfg.Name, cfg.Seed, cfg.ArbitrageBias)

	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}

	src = NewRetryingSource(src, RetryPolicy{
		Attempts:       cfg.RetryAttempts,
		InitialBackoff: time.Duration(cfg.BackoffMillis) * time.Millisecond,
	}, f.logger)

	if cfg.EventCacheTTL > 0 {
		src = NewCachedSource(src, time.Duration(cfg.EventCacheTTL)*time.Second)
	}

	return src, nil
}

// NewSources creates all enabled sources from configuration
func (f *Factory) NewSources() ([]Source, error) {
	var sources []Source

	for _, srcCfg := range f.config.Sources {
		if !srcCfg.Enabled {
			f.logger.WithField("source", srcCfg.Name).Info("Skipping disabled source")
			continue
		}

		source, err := f.NewSource(srcCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create source %s: %w", srcCfg.Name, err)
		}

		sources = append(sources, source)
		f.logger.WithFields(logrus.Fields{
			"source": srcCfg.Name,
			"type":   srcCfg.Type,
		}).Info("Created source")
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled sources configured")
	}

	return sources, nil
}
