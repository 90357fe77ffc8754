package led

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/onair/internal/events"
	"github.com/smazurov/onair/internal/metrics"
	"github.com/smazurov/onair/internal/status"
	"go.uber.org/atomic"
)

// ErrStopped is returned for requests made after the manager stopped.
var ErrStopped = errors.New("light manager stopped")

const (
	requestQueueSize   = 64
	micQueryTimeout    = 2 * time.Second
	defaultStopTimeout = 5 * time.Second
)

// MicQuery reports the processes currently capturing audio. Every call must
// be a fresh read of the capture store.
type MicQuery interface {
	ActiveUsers(ctx context.Context) ([]string, error)
}

type idleMic struct{}

func (idleMic) ActiveUsers(context.Context) ([]string, error) { return nil, nil }

type requestKind int

const (
	reqEvaluate requestKind = iota
	reqRescan
	reqSuspend
	reqForce
	reqLightsOff
	reqEffects
)

type request struct {
	kind    requestKind
	reason  string
	status  status.Status
	effects EffectConfig
	reply   chan result
}

type result struct {
	broadcast BroadcastResult
	scan      ScanResult
	err       error
}

// ManagerState is what the API shows about the indicator.
type ManagerState struct {
	Snapshot
	MicInUse      bool
	SessionLocked bool
	Suspended     bool
	LastReason    string
	LastEvaluated time.Time
}

// Manager is the single serialization point between the signal sources and
// the hardware. Bus events and API calls become requests on one queue that a
// single goroutine drains; nothing else touches the registry or controller
// while it runs.
type Manager struct {
	controller *Controller
	registry   *Registry
	mic        MicQuery
	eventBus   *events.Bus
	logger     *slog.Logger

	locked    atomic.Bool
	suspended atomic.Bool
	micInUse  atomic.Bool
	started   atomic.Bool
	stalled   atomic.Bool

	mu            sync.RWMutex
	lastReason    string
	lastEvaluated time.Time

	requests    chan request
	stopTimeout time.Duration
	unsubscribe []func()
	stopChan    chan struct{}
	doneChan    chan struct{}
	startOnce   sync.Once
	stopOnce    sync.Once
}

// NewManager wires the controller to the signal sources on eventBus. A nil
// mic always reports no capture users.
func NewManager(controller *Controller, registry *Registry, mic MicQuery, eventBus *events.Bus, logger *slog.Logger) *Manager {
	if mic == nil {
		mic = idleMic{}
	}
	return &Manager{
		controller:  controller,
		registry:    registry,
		mic:         mic,
		eventBus:    eventBus,
		logger:      logger,
		requests:    make(chan request, requestQueueSize),
		stopTimeout: defaultStopTimeout,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// InitHardware performs the first rescan. Call it before Start.
func (m *Manager) InitHardware(ctx context.Context) (ScanResult, error) {
	return m.rescan(ctx)
}

// SetSessionLocked seeds the lock flag before Start. Afterwards only session
// events change it.
func (m *Manager) SetSessionLocked(locked bool) {
	m.locked.Store(locked)
}

// Start subscribes to the signal events and starts the apply loop.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		select {
		case <-m.stopChan:
			return
		default:
		}
		m.unsubscribe = []func(){
			m.eventBus.Subscribe(func(e events.MicActivityEvent) {
				metrics.RecordSignal("mic")
				m.enqueue(request{kind: reqEvaluate, reason: "mic"})
			}),
			m.eventBus.Subscribe(func(e events.HotplugEvent) {
				metrics.RecordSignal("hotplug")
				m.enqueue(request{kind: reqRescan, reason: "hotplug"})
			}),
			m.eventBus.Subscribe(func(e events.PowerEvent) {
				metrics.RecordSignal("power")
				m.handlePower(e)
			}),
			m.eventBus.Subscribe(func(e events.SessionEvent) {
				metrics.RecordSignal("session")
				m.locked.Store(e.Reason.Locked())
				m.enqueue(request{kind: reqEvaluate, reason: "session"})
			}),
		}

		m.started.Store(true)
		go m.run()
		m.enqueue(request{kind: reqEvaluate, reason: "startup"})
		m.logger.Info("Light manager started")
	})
}

// Stop unsubscribes and waits for the apply loop to exit. Hardware is left
// as is; call ShutdownHardware afterwards.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		for _, unsub := range m.unsubscribe {
			unsub()
		}
		close(m.stopChan)
		if !m.started.Load() {
			close(m.doneChan)
		}
		select {
		case <-m.doneChan:
			m.logger.Info("Light manager stopped")
		case <-time.After(m.stopTimeout):
			m.stalled.Store(true)
			m.logger.Error("Light manager did not stop in time, a request is still running",
				"timeout", m.stopTimeout)
		}
	})
}

// ShutdownHardware turns every light off and releases it. When Stop timed
// out the apply loop may still be talking to a device, so the lights are
// left untouched.
func (m *Manager) ShutdownHardware() {
	if m.stalled.Load() {
		m.logger.Error("Skipping light shutdown while a request is still running")
		return
	}
	m.controller.Shutdown()
	m.logger.Info("Lights shut down")
}

func (m *Manager) handlePower(e events.PowerEvent) {
	switch e.Code {
	case events.PowerSuspend:
		m.suspended.Store(true)
		m.suspend(e.Release)
	case events.PowerResume:
		m.suspended.Store(false)
		m.enqueue(request{kind: reqEvaluate, reason: "resume"})
	default:
		m.logger.Debug("Ignoring power event", "code", int(e.Code))
	}
}

// suspend turns the lights off and then calls release, if set, so the
// system may sleep.
func (m *Manager) suspend(release func()) {
	if release != nil {
		defer release()
	}

	req := request{kind: reqSuspend, reason: "suspend", reply: make(chan result, 1)}
	if !m.enqueue(req) {
		return
	}
	select {
	case <-req.reply:
	case <-m.doneChan:
	}
}

// enqueue hands a request to the apply loop, blocking until there is room or
// the manager stops.
func (m *Manager) enqueue(req request) bool {
	select {
	case m.requests <- req:
		return true
	case <-m.stopChan:
		return false
	}
}

// do enqueues req and waits for its result.
func (m *Manager) do(ctx context.Context, req request) (result, error) {
	req.reply = make(chan result, 1)

	select {
	case m.requests <- req:
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-m.stopChan:
		return result{}, ErrStopped
	}

	select {
	case r := <-req.reply:
		return r, r.err
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-m.doneChan:
		return result{}, ErrStopped
	}
}

func (m *Manager) run() {
	defer close(m.doneChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-m.stopChan
		cancel()
	}()

	for {
		select {
		case <-m.stopChan:
			return
		case req := <-m.requests:
			r := m.handle(ctx, req)
			if req.reply != nil {
				req.reply <- r
			}
		}
	}
}

func (m *Manager) handle(ctx context.Context, req request) result {
	switch req.kind {
	case reqEvaluate:
		return result{broadcast: m.evaluate(ctx, req.reason)}

	case reqRescan:
		scan, err := m.rescan(ctx)
		return result{scan: scan, err: err, broadcast: m.evaluate(ctx, req.reason)}

	case reqSuspend:
		res := m.controller.LightsOff()
		m.logger.Info("Lights off", "reason", req.reason, "failed", res.Failed)
		return result{broadcast: res}

	case reqForce:
		res := m.controller.ApplyStatus(req.status)
		m.noteEvaluation(req.reason)
		m.publishStatus(req.status, req.reason, res)
		return result{broadcast: res}

	case reqLightsOff:
		return result{broadcast: m.controller.LightsOff()}

	case reqEffects:
		m.controller.SetEffects(req.effects)
		return result{broadcast: m.evaluate(ctx, req.reason)}
	}
	return result{}
}

// evaluate re-reads the capture store, resolves the status and renders it.
func (m *Manager) evaluate(ctx context.Context, reason string) BroadcastResult {
	qctx, cancel := context.WithTimeout(ctx, micQueryTimeout)
	users, err := m.mic.ActiveUsers(qctx)
	cancel()

	if err != nil {
		metrics.RecordMicQueryError()
		m.logger.Warn("Capture store query failed, keeping last state",
			"error", err,
			"mic_in_use", m.micInUse.Load())
	} else {
		m.micInUse.Store(len(users) > 0)
		metrics.SetCaptureUsers(len(users))
	}

	s := status.Resolve(m.micInUse.Load(), m.locked.Load())
	res := m.controller.ApplyStatus(s)
	m.noteEvaluation(reason)

	m.logger.Debug("Status evaluated",
		"reason", reason,
		"status", s.String(),
		"users", users,
		"locked", m.locked.Load())
	m.publishStatus(s, reason, res)
	return res
}

func (m *Manager) rescan(ctx context.Context) (ScanResult, error) {
	res, err := m.registry.Rescan(ctx)
	if err != nil {
		m.logger.Warn("Rescan incomplete", "error", err)
	}

	switch res.Count {
	case 0:
		m.logger.Info("No lights available.")
	case 1:
		m.logger.Info("1 light ready.", "families", res.Families)
	default:
		m.logger.Info("Lights ready.", "count", res.Count, "families", res.Families)
	}

	m.eventBus.Publish(events.DevicesChangedEvent{
		Count:       res.Count,
		Description: describe(res.Count),
		Timestamp:   time.Now().Format(time.RFC3339),
	})
	return res, err
}

func (m *Manager) noteEvaluation(reason string) {
	m.mu.Lock()
	m.lastReason = reason
	m.lastEvaluated = time.Now()
	m.mu.Unlock()
}

func (m *Manager) publishStatus(s status.Status, reason string, res BroadcastResult) {
	effects := m.controller.Effects()

	names := make([]string, len(status.All))
	for i, st := range status.All {
		names[i] = st.String()
	}
	metrics.SetStatus(s.String(), names)

	m.eventBus.Publish(events.StatusChangedEvent{
		Status:        s.String(),
		Color:         effects.ColorFor(s).String(),
		Effect:        effects.Effect.String(),
		Reason:        reason,
		MicInUse:      m.micInUse.Load(),
		SessionLocked: m.locked.Load(),
		Succeeded:     res.Succeeded,
		Failed:        res.Failed,
		Timestamp:     time.Now().Format(time.RFC3339),
	})
}

// Reevaluate forces a fresh evaluation.
func (m *Manager) Reevaluate(ctx context.Context) (BroadcastResult, error) {
	r, err := m.do(ctx, request{kind: reqEvaluate, reason: "manual"})
	return r.broadcast, err
}

// Rescan enumerates the lights again and re-renders the current status.
func (m *Manager) Rescan(ctx context.Context) (ScanResult, error) {
	r, err := m.do(ctx, request{kind: reqRescan, reason: "rescan"})
	return r.scan, err
}

// SetInUse renders the in-use status regardless of the signals.
func (m *Manager) SetInUse(ctx context.Context) (BroadcastResult, error) {
	return m.force(ctx, status.InUse)
}

// SetNotInUse renders the not-in-use status regardless of the signals.
func (m *Manager) SetNotInUse(ctx context.Context) (BroadcastResult, error) {
	return m.force(ctx, status.NotInUse)
}

// SetLocked renders the locked status regardless of the signals.
func (m *Manager) SetLocked(ctx context.Context) (BroadcastResult, error) {
	return m.force(ctx, status.Locked)
}

// SetLightsOff turns every light off, keeping the logical status.
func (m *Manager) SetLightsOff(ctx context.Context) (BroadcastResult, error) {
	r, err := m.do(ctx, request{kind: reqLightsOff, reason: "manual"})
	return r.broadcast, err
}

func (m *Manager) force(ctx context.Context, s status.Status) (BroadcastResult, error) {
	r, err := m.do(ctx, request{kind: reqForce, status: s, reason: "manual"})
	return r.broadcast, err
}

// UpdateEffects swaps the palette and re-renders.
func (m *Manager) UpdateEffects(ctx context.Context, e EffectConfig, source string) error {
	_, err := m.do(ctx, request{kind: reqEffects, effects: e, reason: "settings:" + source})
	return err
}

// ConnectedDeviceCount returns the number of held lights.
func (m *Manager) ConnectedDeviceCount() int {
	return m.registry.ConnectedCount()
}

// ConnectedDeviceDescription returns the display string for the lights.
func (m *Manager) ConnectedDeviceDescription() string {
	return m.registry.Description()
}

// Devices lists the held lights.
func (m *Manager) Devices() []DeviceInfo {
	return m.registry.Devices()
}

// LastScan returns when lights were last enumerated.
func (m *Manager) LastScan() time.Time {
	return m.registry.LastScan()
}

// State returns the current indicator state.
func (m *Manager) State() ManagerState {
	m.mu.RLock()
	reason, at := m.lastReason, m.lastEvaluated
	m.mu.RUnlock()

	return ManagerState{
		Snapshot:      m.controller.Snapshot(),
		MicInUse:      m.micInUse.Load(),
		SessionLocked: m.locked.Load(),
		Suspended:     m.suspended.Load(),
		LastReason:    reason,
		LastEvaluated: at,
	}
}
