package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tripsQuery(trainNr int, enabled, keepPrevious bool, err error) Query[[]int] {
	return New(Key{"paxmon", "find_trips", 0, trainNr}, func(ctx context.Context) ([]int, error) {
		if err != nil {
			return nil, err
		}
		return []int{trainNr}, nil
	}, WithEnabled(enabled), WithKeepPreviousData(keepPrevious))
}

func TestObserver_DisabledIsIdle(t *testing.T) {
	observer := NewObserver[[]int](NewClient(nil, DefaultConfig()))

	result := observer.Observe(context.Background(), tripsQuery(1, false, true, nil))

	assert.Equal(t, StatusIdle, result.Status)
	assert.Nil(t, result.Data)
	assert.False(t, result.HasData())
	assert.False(t, result.IsPlaceholderData)
}

func TestObserver_Success(t *testing.T) {
	observer := NewObserver[[]int](NewClient(nil, DefaultConfig()))

	result := observer.Observe(context.Background(), tripsQuery(100, true, false, nil))

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, []int{100}, result.Data)
	assert.True(t, result.HasData())
	assert.False(t, result.IsPlaceholderData)
	assert.True(t, observer.LastKey().Equal(Key{"paxmon", "find_trips", 0, 100}))
}

func TestObserver_KeepPreviousWhenDisabled(t *testing.T) {
	observer := NewObserver[[]int](NewClient(nil, DefaultConfig()))
	ctx := context.Background()

	first := observer.Observe(ctx, tripsQuery(100, true, true, nil))
	require.Equal(t, StatusSuccess, first.Status)

	next := observer.Observe(ctx, tripsQuery(0, false, true, nil))
	assert.Equal(t, StatusIdle, next.Status)
	assert.Equal(t, []int{100}, next.Data)
	assert.True(t, next.IsPlaceholderData)
	assert.Equal(t, first.UpdatedAt, next.UpdatedAt)
}

func TestObserver_NoPreviousWithoutPolicy(t *testing.T) {
	observer := NewObserver[[]int](NewClient(nil, DefaultConfig()))
	ctx := context.Background()

	observer.Observe(ctx, tripsQuery(100, true, false, nil))
	next := observer.Observe(ctx, tripsQuery(0, false, false, nil))

	assert.Equal(t, StatusIdle, next.Status)
	assert.Nil(t, next.Data)
	assert.False(t, next.IsPlaceholderData)
}

func TestObserver_KeepPreviousOnError(t *testing.T) {
	observer := NewObserver[[]int](NewClient(nil, DefaultConfig()))
	ctx := context.Background()
	backendErr := errors.New("backend down")

	observer.Observe(ctx, tripsQuery(100, true, true, nil))
	next := observer.Observe(ctx, tripsQuery(101, true, true, backendErr))

	assert.Equal(t, StatusError, next.Status)
	assert.ErrorIs(t, next.Err, backendErr)
	assert.Equal(t, []int{100}, next.Data)
	assert.True(t, next.IsPlaceholderData)
}

func TestObserver_ErrorWithoutPolicy(t *testing.T) {
	observer := NewObserver[[]int](NewClient(nil, DefaultConfig()))
	backendErr := errors.New("backend down")

	result := observer.Observe(context.Background(), tripsQuery(101, true, false, backendErr))

	assert.Equal(t, StatusError, result.Status)
	assert.ErrorIs(t, result.Err, backendErr)
	assert.Nil(t, result.Data)
}

func TestObserver_NewKeyReplacesData(t *testing.T) {
	observer := NewObserver[[]int](NewClient(nil, DefaultConfig()))
	ctx := context.Background()

	observer.Observe(ctx, tripsQuery(100, true, true, nil))
	time.Sleep(time.Millisecond)
	next := observer.Observe(ctx, tripsQuery(101, true, true, nil))

	assert.Equal(t, StatusSuccess, next.Status)
	assert.Equal(t, []int{101}, next.Data)
	assert.False(t, next.IsPlaceholderData)
}
