package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type catalogWatcher interface {
	Products() []catalog.Product
	OnChange(fn func([]catalog.Product)) (cancel func())
}

// CatalogStream pushes the product list as server-sent events: the current
// list first, then every snapshot the store applies. Slow clients only see
// the latest snapshot.
func CatalogStream(store catalogWatcher, logg *logger.Logger, heartbeat time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rc := http.NewResponseController(w)

		updates := make(chan []catalog.Product, 1)
		cancel := store.OnChange(func(products []catalog.Product) {
			for {
				select {
				case updates <- products:
					return
				default:
				}
				select {
				case <-updates:
				default:
				}
			}
		})
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		if err := writeSnapshot(w, rc, store.Products()); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "catalog stream closed")
			return
		}

		var tick <-chan time.Time
		if heartbeat > 0 {
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case products := <-updates:
				if err := writeSnapshot(w, rc, products); err != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "catalog stream closed")
					return
				}
			case <-tick:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := rc.Flush(); err != nil {
					return
				}
			}
		}
	}
}

func writeSnapshot(w http.ResponseWriter, rc *http.ResponseController, products []catalog.Product) error {
	if products == nil {
		products = []catalog.Product{}
	}
	payload, err := json.Marshal(products)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return rc.Flush()
}
