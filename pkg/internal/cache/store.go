package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/store"
	ristrettoCache "github.com/eko/gocache/store/ristretto/v4"
	"github.com/spf13/viper"
)

var S store.StoreInterface

// DefaultTTL is how long a fetched group stays fresh when settings do not say otherwise.
const DefaultTTL = 5 * time.Minute

func NewStore() error {
	ristrettoInstance, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	if err != nil {
		return err
	}

	S = ristrettoCache.NewRistretto(ristrettoInstance)

	return nil
}

// TTL reads cache.ttl from settings, falling back to DefaultTTL.
func TTL() time.Duration {
	if ttl := viper.GetDuration("cache.ttl"); ttl > 0 {
		return ttl
	}
	return DefaultTTL
}
