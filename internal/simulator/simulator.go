package simulator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/chrisdamba/deliverysim/internal/courier"
	"github.com/chrisdamba/deliverysim/internal/dispatch"
	"github.com/chrisdamba/deliverysim/internal/factories"
	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/pricing"
	"github.com/chrisdamba/deliverysim/internal/stats"
	"github.com/chrisdamba/deliverysim/internal/weather"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

// Simulator owns every entity, counter and the random source of a run. It
// is single-threaded: Step runs to completion before anything reads state.
type Simulator struct {
	models.Subject

	Config     *models.Config
	RunID      string
	Rng        *rand.Rand
	Weather    *weather.Generator
	Pricing    *pricing.Engine
	Dispatcher *dispatch.Dispatcher

	Restaurants []*models.Restaurant
	Customers   []*models.Customer
	Couriers    []*courier.Courier
	Orders      []*models.Order

	OrderTracker    *stats.OrderTracker
	RevenueTracker  *stats.RevenueTracker
	AccidentTracker *stats.AccidentTracker

	customerFactory *factories.CustomerFactory
	logger          *slog.Logger
	progress        io.Writer
	step            int
	nextOrderID     int
	startedAt       time.Time
}

type Option func(*Simulator)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) { s.logger = logger }
}

// WithRand replaces the seeded source built from the config.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) { s.Rng = rng }
}

// WithProgressWriter sets where the progress bar of bounded runs is drawn.
func WithProgressWriter(w io.Writer) Option {
	return func(s *Simulator) { s.progress = w }
}

func NewSimulator(config *models.Config, opts ...Option) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sim := &Simulator{
		Config:          config,
		RunID:           uuid.NewString(),
		OrderTracker:    stats.NewOrderTracker(),
		RevenueTracker:  stats.NewRevenueTracker(),
		AccidentTracker: stats.NewAccidentTracker(),
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(sim)
	}
	if sim.Rng == nil {
		seed := config.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		sim.Rng = rand.New(rand.NewSource(seed))
	}
	sim.logger = sim.logger.With("component", "simulator", "run_id", sim.RunID)

	if err := sim.initializeData(); err != nil {
		return nil, err
	}

	sim.Attach(sim.OrderTracker)
	sim.Attach(sim.RevenueTracker)
	sim.Attach(sim.AccidentTracker)
	return sim, nil
}

func (s *Simulator) initializeData() error {
	var err error
	if s.Weather, err = weather.NewGenerator(s.Config, s.Rng); err != nil {
		return fmt.Errorf("failed to create weather generator: %w", err)
	}
	s.Pricing = pricing.NewEngineFromConfig(s.Config)

	policy, err := dispatch.NewPolicy(s.Config.CourierTypes)
	if err != nil {
		return fmt.Errorf("failed to create dispatch policy: %w", err)
	}
	s.Dispatcher = dispatch.NewDispatcher(policy, s.logger)

	s.Restaurants = factories.NewRestaurantFactory(s.Config, s.Rng).CreateBatch(s.Config.NumRestaurants)
	if s.Couriers, err = factories.NewCourierFactory(s.Config, s.Rng).CreateBatch(s.Config.NumCouriers); err != nil {
		return fmt.Errorf("failed to create couriers: %w", err)
	}
	s.customerFactory = factories.NewCustomerFactory(s.Config, s.Rng)
	return nil
}

// Subscribe attaches l to both the simulation and the weather generator.
func (s *Simulator) Subscribe(l models.Listener) {
	s.Attach(l)
	s.Weather.Attach(l)
}

func (s *Simulator) Unsubscribe(l models.Listener) {
	s.Detach(l)
	s.Weather.Detach(l)
}

// Step advances the simulation by exactly one tick: weather, order spawn,
// dispatch, then every courier. Lifecycle violations are programming
// errors and panic.
func (s *Simulator) Step() {
	tick := s.step + 1

	s.Weather.Update(tick)
	cond := s.Weather.Current()
	available := s.countAvailable()

	if err := s.maybeSpawnOrder(tick, cond, available); err != nil {
		panic(fmt.Errorf("step %d: spawn: %w", tick, err))
	}
	if err := s.dispatch(tick, cond); err != nil {
		panic(fmt.Errorf("step %d: dispatch: %w", tick, err))
	}
	if err := s.updateCouriers(tick, cond); err != nil {
		panic(fmt.Errorf("step %d: couriers: %w", tick, err))
	}

	s.step = tick
}

// Run steps until the configured step count is reached or, in continuous
// mode, until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	s.startedAt = time.Now().UTC()
	s.logger.InfoContext(ctx, "simulation starting",
		"restaurants", len(s.Restaurants),
		"couriers", len(s.Couriers),
		"weather", s.Weather.Current().DisplayName(),
		"steps", s.Config.Steps,
		"continuous", s.Config.Continuous)

	var bar *progressbar.ProgressBar
	if !s.Config.Continuous && s.Config.ShowProgressBar && s.progress != nil {
		bar = progressbar.NewOptions(s.Config.Steps,
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionSetDescription("simulating"),
			progressbar.OptionShowCount(),
		)
	}

	var ticker *time.Ticker
	if s.Config.RealtimeInterval > 0 {
		ticker = time.NewTicker(s.Config.RealtimeInterval)
		defer ticker.Stop()
	}

	for s.Config.Continuous || s.step < s.Config.Steps {
		if err := ctx.Err(); err != nil {
			s.logger.InfoContext(ctx, "simulation interrupted", "step", s.step)
			break
		}

		s.Step()

		if bar != nil {
			_ = bar.Add(1)
		}
		if s.Config.ProgressInterval > 0 && s.step%s.Config.ProgressInterval == 0 {
			s.showProgress(ctx)
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}
	s.logSummary(ctx)
	return nil
}

func (s *Simulator) showProgress(ctx context.Context) {
	s.logger.InfoContext(ctx, "progress",
		"step", s.step,
		"delivered", s.OrderTracker.Delivered,
		"orders", s.OrderTracker.Total,
		"revenue", s.RevenueTracker.TotalRevenue,
		"weather", s.Weather.Current().DisplayName())
}

func (s *Simulator) logSummary(ctx context.Context) {
	summary := s.Summary()
	s.logger.InfoContext(ctx, "simulation finished",
		"steps", summary.Steps,
		"orders", summary.TotalOrders,
		"delivered", summary.DeliveredOrders,
		"cancelled", summary.CancelledOrders,
		"avg_delivery_steps", summary.AverageDeliveryTime,
		"revenue", summary.TotalRevenue,
		"avg_price", summary.AveragePrice,
		"avg_surge", summary.AverageSurge,
		"max_surge", summary.MaxSurge,
		"courier_earnings", summary.CourierEarnings,
		"accidents", summary.Accidents,
		"weather_changes", summary.WeatherChanges,
		"weather", summary.FinalWeather)
}

// Summary aggregates the run so far.
func (s *Simulator) Summary() models.RunSummary {
	ws := s.Weather.Stats()
	var earnings float64
	var accidents int
	for _, c := range s.Couriers {
		earnings += c.Earnings
		accidents += c.Accidents
	}
	perWeather := make(map[string]int, len(s.AccidentTracker.PerWeather))
	for k, v := range s.AccidentTracker.PerWeather {
		perWeather[k] = v
	}
	return models.RunSummary{
		RunID:               s.RunID,
		Seed:                s.Config.Seed,
		Steps:               s.step,
		StartedAt:           s.startedAt,
		FinishedAt:          time.Now().UTC(),
		TotalOrders:         s.OrderTracker.Total,
		DeliveredOrders:     s.OrderTracker.Delivered,
		CancelledOrders:     s.OrderTracker.Cancelled,
		AverageDeliveryTime: s.OrderTracker.AverageDeliveryTime(),
		TotalRevenue:        s.RevenueTracker.TotalRevenue,
		AveragePrice:        s.RevenueTracker.AveragePrice(),
		AverageSurge:        s.RevenueTracker.AverageSurge(),
		MaxSurge:            s.RevenueTracker.MaxSurge(),
		CourierEarnings:     earnings,
		Accidents:           accidents,
		WeatherChanges:      ws.Changes,
		FinalWeather:        ws.Current.Name(),
		AccidentsPerWeather: perWeather,
	}
}

// CurrentStep is the number of completed steps.
func (s *Simulator) CurrentStep() int {
	return s.step
}

func (s *Simulator) CurrentWeather() weather.Condition {
	return s.Weather.Current()
}

// ForceWeather overrides the regime by name; unknown names are ignored.
func (s *Simulator) ForceWeather(name string) bool {
	return s.Weather.Force(name)
}

func (s *Simulator) CourierSnapshots() []models.CourierSnapshot {
	snaps := make([]models.CourierSnapshot, len(s.Couriers))
	for i, c := range s.Couriers {
		snaps[i] = c.Snapshot()
	}
	return snaps
}

// Timestamp maps a step index onto wall-clock simulation time.
func (s *Simulator) Timestamp(step int) time.Time {
	return s.Config.StartDate.Add(time.Duration(step) * s.Config.StepDuration)
}
