package service

import (
	"context"
	"fmt"
	"strings"

	"wine-concierge-be/internal/dto"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/pkg/ai/pipeline"
	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/tools"
)

type IConciergeService interface {
	Ask(ctx context.Context, req *dto.AskRequest) *dto.AskResponse
	Weather(ctx context.Context, location string) *dto.WeatherResponse
}

// QueryRunner executes one query through the concierge graph.
type QueryRunner interface {
	Run(ctx context.Context, query, location string) (pipeline.QueryState, error)
}

type conciergeService struct {
	runner          QueryRunner
	weather         tools.Tool
	defaultLocation string
	logger          logger.ILogger
}

func NewConciergeService(runner QueryRunner, weather tools.Tool, defaultLocation string, log logger.ILogger) IConciergeService {
	return &conciergeService{
		runner:          runner,
		weather:         weather,
		defaultLocation: defaultLocation,
		logger:          log,
	}
}

// Ask always produces a response. Failures of any kind, panics included,
// come back as warning text.
func (s *conciergeService) Ask(ctx context.Context, req *dto.AskRequest) (res *dto.AskResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ASK", "recovered panic while answering", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			res = &dto.AskResponse{Response: apperr.Render(fmt.Errorf("%v", r))}
		}
	}()

	if req == nil || strings.TrimSpace(req.Query) == "" {
		return &dto.AskResponse{Response: apperr.Render(apperr.ErrEmptyQuery)}
	}

	state, err := s.runner.Run(ctx, req.Query, req.Location)
	if err != nil {
		s.logger.Error("ASK", "concierge graph failed", map[string]interface{}{"error": err})
		return &dto.AskResponse{Response: apperr.Render(err)}
	}

	return &dto.AskResponse{Response: state.Response}
}

func (s *conciergeService) Weather(ctx context.Context, location string) *dto.WeatherResponse {
	location = strings.TrimSpace(location)
	if location == "" {
		location = s.defaultLocation
	}
	return &dto.WeatherResponse{
		Location: location,
		Response: tools.RunText(ctx, s.weather, location),
	}
}
