package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/decimate"
	"github.com/cwbudde/algo-psd/dsp/signal"
)

// View is a loaded channel at both resolutions. Full feeds the estimators,
// Display feeds plots; both cover the same time span.
type View struct {
	Full    signal.Full
	Display signal.Display
}

// Option configures a Manager.
type Option func(*Manager)

// WithDisplayTarget sets the maximum number of display points.
func WithDisplayTarget(n int) Option {
	return func(m *Manager) {
		m.target = n
	}
}

// WithStrategy selects how the display view is decimated.
func WithStrategy(s decimate.Strategy) Option {
	return func(m *Manager) {
		m.strategy = s
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// Manager resolves channel references into loaded views.
type Manager struct {
	store    Store
	target   int
	strategy decimate.Strategy
	log      *zap.Logger
}

// NewManager creates a manager reading from store.
func NewManager(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", core.ErrInvalidParameter)
	}

	m := &Manager{
		store:    store,
		target:   decimate.DefaultTarget,
		strategy: decimate.MinMax,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.target < 2 {
		return nil, fmt.Errorf("%w: display target must be >= 2: %d", core.ErrInvalidParameter, m.target)
	}

	return m, nil
}

// DisplayTarget returns the configured display point budget.
func (m *Manager) DisplayTarget() int { return m.target }

// Channels lists the channels of dataset.
func (m *Manager) Channels(ctx context.Context, dataset string) ([]Descriptor, error) {
	descs, err := m.store.ListChannels(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("listing channels of %q: %w", dataset, err)
	}

	m.log.Debug("listed channels", zap.String("dataset", dataset), zap.Int("channels", len(descs)))

	return descs, nil
}

// LoadOption narrows a load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	window *TimeRange
}

// Within restricts the load to an inclusive time range.
func Within(r TimeRange) LoadOption {
	return func(c *loadConfig) {
		c.window = &r
	}
}

// Load fetches ref at full resolution and derives its display view.
func (m *Manager) Load(ctx context.Context, ref Ref, opts ...LoadOption) (View, error) {
	var cfg loadConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	began := time.Now()

	full, err := m.store.FetchSamples(ctx, ref, cfg.window)
	if err != nil {
		return View{}, fmt.Errorf("fetching samples of %s: %w", ref, err)
	}

	if full.Len() < 2 {
		return View{}, fmt.Errorf("%w: %s has %d samples", core.ErrInsufficientData, ref, full.Len())
	}

	display, err := m.display(full)
	if err != nil {
		return View{}, fmt.Errorf("decimating %s: %w", ref, err)
	}

	m.log.Debug("loaded channel",
		zap.Stringer("channel", ref),
		zap.String("samples", humanize.Comma(int64(full.Len()))),
		zap.String("display", humanize.Comma(int64(display.Len()))),
		zap.Float64("ratio", float64(full.Len())/float64(display.Len())),
		zap.Stringer("strategy", m.strategy),
		zap.String("memory", humanize.IBytes(uint64(full.Len())*8)),
		zap.Duration("took", time.Since(began)),
	)

	return View{Full: full, Display: display}, nil
}

// LoadEvent fetches exactly the samples inside ev.
func (m *Manager) LoadEvent(ctx context.Context, ref Ref, ev signal.Event) (View, error) {
	if err := ev.Validate(); err != nil {
		return View{}, err
	}
	return m.Load(ctx, ref, Within(ev))
}

func (m *Manager) display(full signal.Full) (signal.Display, error) {
	if full.Len() <= m.target {
		return signal.DisplayOf(full), nil
	}

	idx, err := m.strategy.Indices(full.Samples(), m.target)
	if err != nil {
		return signal.Display{}, err
	}

	return signal.DisplayFrom(full, idx)
}
