package datasource

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/arbstream/internal/models"
)

// stubSource is a testify mock of Source
type stubSource struct {
	mock.Mock
	name string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) ListEvents(ctx context.Context) ([]models.EventRef, error) {
	args := s.Called(ctx)
	refs, _ := args.Get(0).([]models.EventRef)
	return refs, args.Error(1)
}

func (s *stubSource) FetchOdds(ctx context.Context, ref models.EventRef) ([]models.Outcome, error) {
	args := s.Called(ctx, ref)
	outcomes, _ := args.Get(0).([]models.Outcome)
	return outcomes, args.Error(1)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
