package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dustin/go-humanize"
	"github.com/smazurov/onair/internal/api/models"
	"github.com/smazurov/onair/internal/led"
)

func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Get Status",
		Description: "Current indicator status, the signals behind it and the connected lights",
		Tags:        []string{"status"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.statusData()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-status",
		Method:      http.MethodPost,
		Path:        "/api/status/{action}",
		Summary:     "Set Status",
		Description: "Force a status onto every light, turn them off, or re-read the signals. A forced status holds until the next signal.",
		Tags:        []string{"status"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.StatusActionInput) (*models.BroadcastResponse, error) {
		var (
			res led.BroadcastResult
			err error
		)
		switch input.Action {
		case "in-use":
			res, err = s.options.Lights.SetInUse(ctx)
		case "not-in-use":
			res, err = s.options.Lights.SetNotInUse(ctx)
		case "locked":
			res, err = s.options.Lights.SetLocked(ctx)
		case "off":
			res, err = s.options.Lights.SetLightsOff(ctx)
		case "reevaluate":
			res, err = s.options.Lights.Reevaluate(ctx)
		default:
			return nil, huma.Error400BadRequest("Unknown action " + input.Action)
		}
		if err != nil {
			return nil, lightsError(err)
		}

		s.logger.Info("Status forced", "action", input.Action, "succeeded", res.Succeeded, "failed", res.Failed)
		return &models.BroadcastResponse{
			Body: models.BroadcastData{
				Action:    input.Action,
				Succeeded: res.Succeeded,
				Failed:    res.Failed,
			},
		}, nil
	})
}

func (s *Server) statusData() models.StatusData {
	st := s.options.Lights.State()
	data := models.StatusData{
		Status:        st.Status.String(),
		Applied:       st.Applied,
		State:         st.State.String(),
		Color:         st.Effects.ColorFor(st.Status).String(),
		Effect:        st.Effects.Effect.String(),
		MicInUse:      st.MicInUse,
		SessionLocked: st.SessionLocked,
		Suspended:     st.Suspended,
		LastReason:    st.LastReason,
		Devices:       s.options.Lights.ConnectedDeviceCount(),
		Description:   s.options.Lights.ConnectedDeviceDescription(),
	}
	if !st.LastEvaluated.IsZero() {
		data.LastEvaluated = humanize.Time(st.LastEvaluated)
	}
	return data
}

// lightsError maps manager errors to HTTP errors.
func lightsError(err error) error {
	switch {
	case errors.Is(err, led.ErrStopped):
		return huma.Error503ServiceUnavailable("Light manager is stopped", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("Request cancelled", err)
	default:
		return huma.Error500InternalServerError("Light update failed", err)
	}
}
