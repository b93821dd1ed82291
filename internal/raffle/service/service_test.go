package raffle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	raffle "ms-raffle/internal/raffle/service"
)

// MockLedgerStore is a mock implementation of the LedgerStore interface
type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) GetTickets(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerStore) IncrementTickets(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockEntryPublisher is a mock implementation of the EntryPublisher interface
type MockEntryPublisher struct {
	mock.Mock
}

func (m *MockEntryPublisher) PublishEntryGranted(ctx context.Context, userID int64, tickets int) error {
	args := m.Called(ctx, userID, tickets)
	return args.Error(0)
}

func TestStatusDelegatesToLedger(t *testing.T) {
	mockDB := new(MockLedgerStore)
	svc := raffle.NewEntryService(mockDB, nil, nil)

	mockDB.On("GetTickets", mock.Anything, int64(123)).Return(4, nil)

	tickets, err := svc.Status(context.Background(), 123)
	assert.NoError(t, err)
	assert.Equal(t, 4, tickets)
	mockDB.AssertExpectations(t)
}

func TestEnterIncrementsAndPublishes(t *testing.T) {
	mockDB := new(MockLedgerStore)
	mockEvents := new(MockEntryPublisher)
	svc := raffle.NewEntryService(mockDB, mockEvents, nil)

	mockDB.On("IncrementTickets", mock.Anything, int64(123)).Return(5, nil)
	mockEvents.On("PublishEntryGranted", mock.Anything, int64(123), 5).Return(nil)

	tickets, err := svc.Enter(context.Background(), 123)
	assert.NoError(t, err)
	assert.Equal(t, 5, tickets)
	mockDB.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestEnterToleratesPublishFailure(t *testing.T) {
	mockDB := new(MockLedgerStore)
	mockEvents := new(MockEntryPublisher)
	svc := raffle.NewEntryService(mockDB, mockEvents, nil)

	mockDB.On("IncrementTickets", mock.Anything, int64(123)).Return(1, nil)
	mockEvents.On("PublishEntryGranted", mock.Anything, int64(123), 1).
		Return(errors.New("broker down"))

	// The ticket is already granted; a publish failure must not undo that
	tickets, err := svc.Enter(context.Background(), 123)
	assert.NoError(t, err)
	assert.Equal(t, 1, tickets)
}

func TestEnterPropagatesStorageFailure(t *testing.T) {
	mockDB := new(MockLedgerStore)
	mockEvents := new(MockEntryPublisher)
	svc := raffle.NewEntryService(mockDB, mockEvents, nil)

	mockDB.On("IncrementTickets", mock.Anything, int64(123)).
		Return(0, raffle.ErrStorageUnavailable)

	_, err := svc.Enter(context.Background(), 123)
	assert.True(t, errors.Is(err, raffle.ErrStorageUnavailable))

	// No event for a grant that never happened
	mockEvents.AssertNotCalled(t, "PublishEntryGranted", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnterWithoutPublisher(t *testing.T) {
	mockDB := new(MockLedgerStore)
	svc := raffle.NewEntryService(mockDB, nil, nil)

	mockDB.On("IncrementTickets", mock.Anything, int64(7)).Return(1, nil)

	tickets, err := svc.Enter(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, 1, tickets)
}
