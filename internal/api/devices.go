package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dustin/go-humanize"
	"github.com/smazurov/onair/internal/api/models"
)

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Lights",
		Description: "Lights held since the last scan",
		Tags:        []string{"devices"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.DeviceListResponse, error) {
		held := s.options.Lights.Devices()
		list := make([]models.DeviceData, 0, len(held))
		for _, d := range held {
			list = append(list, models.DeviceData{Family: d.Family, Name: d.Name})
		}

		body := models.DeviceListData{
			Devices:     list,
			Count:       len(list),
			Description: s.options.Lights.ConnectedDeviceDescription(),
		}
		if at := s.options.Lights.LastScan(); !at.IsZero() {
			body.LastScan = humanize.Time(at)
		}
		return &models.DeviceListResponse{Body: body}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "rescan-devices",
		Method:      http.MethodPost,
		Path:        "/api/devices/rescan",
		Summary:     "Rescan Lights",
		Description: "Release every light, enumerate all families again and re-render the status",
		Tags:        []string{"devices"},
		Errors:      []int{401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.RescanResponse, error) {
		res, err := s.options.Lights.Rescan(ctx)
		body := models.RescanData{Count: res.Count, Families: res.Families}
		if body.Families == nil {
			body.Families = map[string]int{}
		}
		if err != nil {
			if res.Families == nil {
				return nil, lightsError(err)
			}
			// Partial scans still install the families that answered
			body.Error = err.Error()
		}
		return &models.RescanResponse{Body: body}, nil
	})
}
