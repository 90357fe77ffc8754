package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/onair/internal/api/models"
	"github.com/smazurov/onair/internal/led"
	"github.com/smazurov/onair/internal/settings"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Get Settings",
		Description: "Per-status colors and the in-use effect",
		Tags:        []string{"settings"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.SettingsResponse, error) {
		return &models.SettingsResponse{Body: settingsData(s.options.Settings.Current())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-settings",
		Method:      http.MethodPatch,
		Path:        "/api/settings",
		Summary:     "Update Settings",
		Description: "Change colors or effects. Blink and wave are exclusive; enabling one disables the other, and wave wins when both are enabled in one request.",
		Tags:        []string{"settings"},
		Errors:      []int{400, 401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.SettingsPatchRequest) (*models.SettingsResponse, error) {
		patch, err := toPatch(input.Body)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid color", err)
		}
		if patch.Empty() {
			return nil, huma.Error400BadRequest("No settings to change")
		}

		next, err := s.options.Settings.Update(patch)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to save settings", err)
		}

		if err := s.options.Lights.UpdateEffects(ctx, next.EffectConfig(), settings.SourceAPI); err != nil {
			return nil, lightsError(err)
		}

		return &models.SettingsResponse{Body: settingsData(next)}, nil
	})
}

func settingsData(s settings.Settings) models.SettingsData {
	return models.SettingsData{
		Colors: models.ColorsData{
			InUse:    s.Colors.InUse.String(),
			NotInUse: s.Colors.NotInUse.String(),
			Locked:   s.Colors.Locked.String(),
		},
		Effects: models.EffectsData{
			Blink: s.Effects.Blink,
			Wave:  s.Effects.Wave,
		},
	}
}

func toPatch(body models.SettingsPatchData) (settings.Patch, error) {
	p := settings.Patch{Blink: body.Blink, Wave: body.Wave}
	for _, c := range []struct {
		in  *string
		out **led.Color
	}{
		{body.InUse, &p.InUse},
		{body.NotInUse, &p.NotInUse},
		{body.Locked, &p.Locked},
	} {
		if c.in == nil {
			continue
		}
		color, err := led.ParseColor(*c.in)
		if err != nil {
			return settings.Patch{}, err
		}
		*c.out = &color
	}
	return p, nil
}
