package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/weather-bot/internal/weather"
)

func TestMemoryStoreEmpty(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get("nobody")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreOverwrite(t *testing.T) {
	s := NewMemoryStore()
	a := weather.Location{Latitude: 55.75, Longitude: 37.61}
	b := weather.Location{Latitude: 59.93, Longitude: 30.33}

	s.Set("chat-1", a)
	s.Set("chat-1", b)

	got, ok := s.Get("chat-1")
	assert.True(t, ok)
	assert.Equal(t, b, got)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreSessionsAreIsolated(t *testing.T) {
	s := NewMemoryStore()
	s.Set("chat-1", weather.Location{Latitude: 1, Longitude: 1})

	_, ok := s.Get("chat-2")
	assert.False(t, ok)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("chat-%d", i%5)
			s.Set(id, weather.Location{Latitude: float64(i % 90), Longitude: float64(i)})
			_, _ = s.Get(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, s.Len())
}
