package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/onair/internal/events"
)

// sseKeepAlive is how often an idle stream gets a status frame so proxies
// keep the connection open.
const sseKeepAlive = 30 * time.Second

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time status, light, settings and signal events. The current status is sent first.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"status-changed":   events.StatusChangedEvent{},
		"devices-changed":  events.DevicesChangedEvent{},
		"settings-changed": events.SettingsChangedEvent{},
		"mic-activity":     events.MicActivityEvent{},
		"session":          events.SessionEvent{},
		"power":            events.PowerEvent{},
		"hotplug":          events.HotplugEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.StatusChangedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.DevicesChangedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.SettingsChangedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.MicActivityEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.SessionEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.PowerEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.HotplugEvent](s.options.EventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(s.currentStatusEvent()); err != nil {
			return
		}

		keepAlive := time.NewTicker(sseKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			case <-keepAlive.C:
				if err := send.Data(s.currentStatusEvent()); err != nil {
					return
				}
			}
		}
	})
}

// currentStatusEvent renders the manager state as a status event.
func (s *Server) currentStatusEvent() events.StatusChangedEvent {
	st := s.options.Lights.State()
	return events.StatusChangedEvent{
		Status:        st.Status.String(),
		Color:         st.Effects.ColorFor(st.Status).String(),
		Effect:        st.Effects.Effect.String(),
		Reason:        "snapshot",
		MicInUse:      st.MicInUse,
		SessionLocked: st.SessionLocked,
		Succeeded:     st.LastBroadcast.Succeeded,
		Failed:        st.LastBroadcast.Failed,
		Timestamp:     time.Now().Format(time.RFC3339),
	}
}
