package memory_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/aretw0/genui/pkg/adapters/memory"
	"github.com/aretw0/genui/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunConversationStoreContract(t, store)
}

func TestMemoryCache_Contract(t *testing.T) {
	mock := clock.NewMock()
	cache := memory.NewCache(memory.WithClock(mock))
	ports.RunToolCacheContract(t, cache, func(d time.Duration) { mock.Add(d) })
}
