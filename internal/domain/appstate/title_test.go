package appstate

import (
	"context"
	"testing"
	"time"

	"github.com/athebyme/travel-admin/internal/adapters/cache"
)

func TestTitleStores(t *testing.T) {
	stores := map[string]TitleStore{
		"memory": NewMemoryTitleStore(),
		"cache":  NewCacheTitleStore(cache.NewMemoryCache(), time.Hour),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := store.Title(ctx, "u1")
			if err != nil || got != "" {
				t.Fatalf("initial Title = %q, %v; want empty", got, err)
			}

			_ = store.SetTitle(ctx, "u1", "Tours")
			_ = store.SetTitle(ctx, "u1", "Destinations")
			_ = store.SetTitle(ctx, "u2", "Bookings")

			if got, _ := store.Title(ctx, "u1"); got != "Destinations" {
				t.Errorf("Title(u1) = %q, want last write %q", got, "Destinations")
			}
			if got, _ := store.Title(ctx, "u2"); got != "Bookings" {
				t.Errorf("Title(u2) = %q, want %q", got, "Bookings")
			}
		})
	}
}
