// Package widget implements the weather widget: three observed attributes,
// a poll timer and an asynchronous fetch-and-render cycle.
package widget

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-box/internal/scheduler"
	"github.com/i474232898/weather-box/internal/weather"
)

// Observed attribute names.
const (
	AttrCity       = "city"
	AttrBackground = "background"
	AttrInterval   = "interval"
)

// ObservedAttributes lists the attributes whose changes the widget reacts to.
var ObservedAttributes = []string{AttrCity, AttrBackground, AttrInterval}

// PollTimer schedules one recurring callback. Start replaces any previous one.
type PollTimer interface {
	Start(period time.Duration, fn func()) error
	Stop()
}

// Surface receives every display update. Present is called with the widget's
// lock held and must not call back into the widget.
type Surface interface {
	Present(weather.DisplayState)
}

type nopSurface struct{}

func (nopSurface) Present(weather.DisplayState) {}

const defaultFetchTimeout = 30 * time.Second

// Widget shows the current weather for its city attribute.
type Widget struct {
	mu sync.Mutex

	provider weather.Provider
	timer    PollTimer
	surface  Surface
	logger   *zap.SugaredLogger

	attrs    map[string]string
	attached bool
	display  weather.DisplayState

	// timerGen identifies the active poll period; ticks from older periods are dropped.
	timerGen uint64
	polling  bool
	period   time.Duration

	sequenced  bool
	renderSeq  uint64
	appliedSeq uint64

	fetchTimeout time.Duration
	now          func() time.Time
	inflight     sync.WaitGroup

	onContent []func(weather.ContentChanged)
	onFailure []func(weather.RenderFailed)
}

// Option customizes a Widget.
type Option func(*Widget)

// WithPollTimer replaces the gocron-backed poll timer.
func WithPollTimer(t PollTimer) Option {
	return func(w *Widget) { w.timer = t }
}

// WithSurface sets the presentation binding.
func WithSurface(s Surface) Option {
	return func(w *Widget) { w.surface = s }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(w *Widget) { w.logger = l }
}

// WithSequencedRenders drops fetch results that complete after a newer render
// has already been applied. Without it the last completion wins.
func WithSequencedRenders() Option {
	return func(w *Widget) { w.sequenced = true }
}

// WithFetchTimeout bounds each provider call.
func WithFetchTimeout(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.fetchTimeout = d
		}
	}
}

// WithClock overrides the time source used for UpdatedAt and EmittedAt.
func WithClock(now func() time.Time) Option {
	return func(w *Widget) { w.now = now }
}

// New builds an unattached widget showing the initial template. It performs
// no network call and starts no timer.
func New(provider weather.Provider, opts ...Option) *Widget {
	w := &Widget{
		provider:     provider,
		attrs:        make(map[string]string),
		display:      weather.InitialDisplay(),
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = zap.NewNop().Sugar()
	}
	if w.timer == nil {
		w.timer = scheduler.New(w.logger)
	}
	if w.surface == nil {
		w.surface = nopSurface{}
	}
	return w
}

// OnContentChanged registers a listener called after every successful render.
func (w *Widget) OnContentChanged(fn func(weather.ContentChanged)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onContent = append(w.onContent, fn)
}

// OnRenderFailed registers a listener called when a render could not update the display.
func (w *Widget) OnRenderFailed(fn func(weather.RenderFailed)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onFailure = append(w.onFailure, fn)
}

// Attach renders once and starts polling when the interval is positive.
// Attaching twice replaces the timer rather than adding a second one.
func (w *Widget) Attach() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Debugw("widget: attach", "attributes", w.attrs)
	w.attached = true
	w.renderLocked()
	w.replaceTimerLocked(w.intervalMinutesLocked())
}

// Detach cancels the poll timer. Fetches already in flight still complete.
func (w *Widget) Detach() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Debugw("widget: detach")
	w.attached = false
	w.cancelTimerLocked()
}

// Close detaches the widget, waits for in-flight renders and releases the
// poll timer's resources when it owns any.
func (w *Widget) Close() {
	w.Detach()
	w.Wait()
	if s, ok := w.timer.(interface{ Shutdown() }); ok {
		s.Shutdown()
	}
}

// Render shows the configured city right away and fetches the weather for it
// in the background.
func (w *Widget) Render() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.renderLocked()
}

// Wait blocks until every render started so far has completed.
func (w *Widget) Wait() {
	w.inflight.Wait()
}

// SetAttribute writes an attribute and dispatches the change, even when the
// value is unchanged.
func (w *Widget) SetAttribute(name, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	old, had := w.attrs[name]
	w.attrs[name] = value
	w.attributeChangedLocked(name, optional(old, had), &value)
}

// RemoveAttribute deletes an attribute and dispatches the change.
func (w *Widget) RemoveAttribute(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	old, had := w.attrs[name]
	if !had {
		return
	}
	delete(w.attrs, name)
	w.attributeChangedLocked(name, &old, nil)
}

func (w *Widget) SetCity(city string)        { w.SetAttribute(AttrCity, city) }
func (w *Widget) SetBackground(color string) { w.SetAttribute(AttrBackground, color) }
func (w *Widget) SetInterval(minutes int)    { w.SetAttribute(AttrInterval, strconv.Itoa(minutes)) }

func (w *Widget) City() (string, bool)       { return w.Attribute(AttrCity) }
func (w *Widget) Background() (string, bool) { return w.Attribute(AttrBackground) }
func (w *Widget) Interval() (string, bool)   { return w.Attribute(AttrInterval) }

// Attribute returns the attribute value and whether it is set.
func (w *Widget) Attribute(name string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.attrs[name]
	return v, ok
}

// Attributes returns a copy of all set attributes.
func (w *Widget) Attributes() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.attrs))
	for k, v := range w.attrs {
		out[k] = v
	}
	return out
}

// IntervalMinutes is the parsed interval attribute; 0 disables polling.
func (w *Widget) IntervalMinutes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.intervalMinutesLocked()
}

// Display returns the current display state.
func (w *Widget) Display() weather.DisplayState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.display
}

// Attached reports whether the widget is attached.
func (w *Widget) Attached() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attached
}

// Polling reports whether a poll timer is active and its period.
func (w *Widget) Polling() (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling, w.period
}

func (w *Widget) attributeChangedLocked(name string, prev, next *string) {
	w.logger.Debugw("widget: attribute changed", "attribute", name, "old", deref(prev), "new", deref(next))

	// The first assignment of any attribute is covered by Attach.
	if prev == nil {
		return
	}

	switch name {
	case AttrCity:
		if !w.attached {
			return
		}
		w.renderLocked()
	case AttrInterval:
		if equal(prev, next) || !w.attached {
			return
		}
		w.replaceTimerLocked(parseMinutes(deref(next), w.logger))
	case AttrBackground:
		if equal(prev, next) {
			return
		}
		w.display.Background = deref(next)
		w.surface.Present(w.display)
	}
}

func (w *Widget) renderLocked() {
	city := w.attrs[AttrCity]

	w.display.City = city
	w.surface.Present(w.display)

	w.renderSeq++
	seq := w.renderSeq
	w.inflight.Add(1)
	go w.fetch(seq, city)
}

func (w *Widget) fetch(seq uint64, city string) {
	defer w.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), w.fetchTimeout)
	defer cancel()

	snap, err := w.provider.Current(ctx, city)
	if err != nil {
		w.fail(city, err)
		return
	}

	w.mu.Lock()
	if w.sequenced && seq < w.appliedSeq {
		w.mu.Unlock()
		w.logger.Debugw("widget: dropping superseded render", "city", city, "seq", seq)
		return
	}
	w.appliedSeq = seq
	now := w.now()
	w.display = w.display.Apply(snap, w.attrs[AttrBackground], now)
	w.surface.Present(w.display)
	listeners := append(([]func(weather.ContentChanged))(nil), w.onContent...)
	w.mu.Unlock()

	evt := weather.ContentChanged{
		ID:          uuid.NewString(),
		Temperature: weather.FormatNumber(snap.Temperature) + "°C",
		Description: snap.Descriptions,
		EmittedAt:   now.UTC(),
	}
	w.logger.Infow("widget: content changed", "city", snap.CityName, "temperature", evt.Temperature)
	for _, fn := range listeners {
		fn(evt)
	}
}

func (w *Widget) fail(city string, err error) {
	w.logger.Errorw("widget: render failed", "city", city, "provider", w.provider.Name(), "error", err)

	w.mu.Lock()
	listeners := append(([]func(weather.RenderFailed))(nil), w.onFailure...)
	now := w.now()
	w.mu.Unlock()

	evt := weather.RenderFailed{
		ID:        uuid.NewString(),
		City:      city,
		Err:       err.Error(),
		EmittedAt: now.UTC(),
	}
	for _, fn := range listeners {
		fn(evt)
	}
}

// replaceTimerLocked cancels the active timer and, for positive minutes, starts
// a new one. Both happen under the widget lock, so no tick of the old period
// can render afterwards.
func (w *Widget) replaceTimerLocked(minutes int) {
	w.cancelTimerLocked()
	if minutes <= 0 {
		return
	}

	gen := w.timerGen
	period := time.Duration(minutes) * time.Minute
	if err := w.timer.Start(period, func() { w.tick(gen) }); err != nil {
		w.logger.Errorw("widget: failed to start poll timer", "period", period, "error", err)
		return
	}
	w.polling = true
	w.period = period
}

func (w *Widget) cancelTimerLocked() {
	w.timer.Stop()
	w.timerGen++
	w.polling = false
	w.period = 0
}

func (w *Widget) tick(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.attached || gen != w.timerGen {
		w.logger.Debugw("widget: dropping stale tick", "generation", gen)
		return
	}
	w.renderLocked()
}

func (w *Widget) intervalMinutesLocked() int {
	v, ok := w.attrs[AttrInterval]
	if !ok {
		return 0
	}
	return parseMinutes(v, w.logger)
}

// parseMinutes reads an interval attribute. Empty, non-numeric and negative
// values disable polling.
func parseMinutes(v string, logger *zap.SugaredLogger) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warnw("widget: ignoring non-numeric interval", "interval", v)
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

func optional(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func equal(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
