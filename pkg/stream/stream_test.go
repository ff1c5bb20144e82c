package stream_test

import (
	"errors"
	"testing"

	"github.com/aretw0/weave/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_PublishOrder(t *testing.T) {
	s := stream.New[int]("numbers")

	var got []string
	s.Subscribe(func(v int) error {
		got = append(got, "first")
		return nil
	})
	s.Subscribe(func(v int) error {
		got = append(got, "second")
		return nil
	})

	require.NoError(t, s.Publish(1))
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestStream_Unsubscribe(t *testing.T) {
	s := stream.New[string]("words")

	count := 0
	unsubscribe := s.Subscribe(func(string) error {
		count++
		return nil
	})

	require.NoError(t, s.Publish("a"))
	unsubscribe()
	unsubscribe() // idempotent
	require.NoError(t, s.Publish("b"))

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, s.Len())
}

func TestStream_ErrorsAreJoined(t *testing.T) {
	s := stream.New[int]("numbers")
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	called := 0
	s.Subscribe(func(int) error { called++; return errA })
	s.Subscribe(func(int) error { called++; return nil })
	s.Subscribe(func(int) error { called++; return errB })

	err := s.Publish(7)
	assert.Equal(t, 3, called, "every subscriber runs even after a failure")
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestStream_SubscribeDuringPublish(t *testing.T) {
	s := stream.New[int]("numbers")

	late := 0
	s.Subscribe(func(int) error {
		s.Subscribe(func(int) error {
			late++
			return nil
		})
		return nil
	})

	require.NoError(t, s.Publish(1))
	assert.Equal(t, 0, late, "a subscriber added during delivery waits for the next value")

	require.NoError(t, s.Publish(2))
	assert.Equal(t, 1, late)
}

func TestStream_Close(t *testing.T) {
	s := stream.New[int]("numbers")
	s.Subscribe(func(int) error { return nil })

	s.Close()
	assert.True(t, s.Closed())
	assert.Equal(t, 0, s.Len())
	assert.ErrorIs(t, s.Publish(1), stream.ErrClosed)

	// Closed streams are not restartable.
	s.Subscribe(func(int) error { return nil })
	assert.Equal(t, 0, s.Len())
}
