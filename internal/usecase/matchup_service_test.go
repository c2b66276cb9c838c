package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type rosterSourceMock struct {
	mock.Mock
}

func (m *rosterSourceMock) ListCompletedRosters(ctx context.Context, leagueID string) ([][]string, error) {
	args := m.Called(ctx, leagueID)
	rosters, _ := args.Get(0).([][]string)
	return rosters, args.Error(1)
}

func TestMatchupService_ComputeMatrixRejectsBlankLeague(t *testing.T) {
	source := &rosterSourceMock{}
	svc := NewMatchupService(source)

	_, err := svc.ComputeMatrix(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidInput)
	source.AssertNotCalled(t, "ListCompletedRosters", mock.Anything, mock.Anything)
}

func TestMatchupService_MatrixViewIsSymmetric(t *testing.T) {
	source := &rosterSourceMock{}
	source.On("ListCompletedRosters", mock.Anything, "league-1").
		Return([][]string{{"a", "b", "c"}, {"a", "b", "d"}}, nil).Once()
	svc := NewMatchupService(source)

	view, err := svc.MatrixView(context.Background(), " league-1 ")
	require.NoError(t, err)
	assert.Equal(t, "league-1", view.LeagueID)
	assert.Equal(t, []string{"a", "b", "c", "d"}, view.Players)
	assert.Equal(t, 2, view.Matrix["a"]["b"])
	assert.Equal(t, 2, view.Matrix["b"]["a"])
	assert.Equal(t, 0, view.Matrix["c"]["d"])
	source.AssertExpectations(t)
}

func TestMatchupService_ComputeMatrixWrapsSourceError(t *testing.T) {
	source := &rosterSourceMock{}
	source.On("ListCompletedRosters", mock.Anything, "league-1").Return(nil, errors.New("db down")).Once()
	svc := NewMatchupService(source)

	_, err := svc.ComputeMatrix(context.Background(), "league-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list completed rosters")
}
