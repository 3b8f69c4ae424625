package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/pkg/telemetry"
	"github.com/timur-mustafin/gamified-task-manager/services/api/middleware"
)

// ListStoreItems handles GET /api/v1/store/items.
func (h *REST) ListStoreItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListStoreItems(r.Context(), true)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.StoreItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// PurchaseItem handles POST /api/v1/store/purchases. The honor debit is
// conditional on the balance, so a purchase either fully succeeds or leaves
// the account untouched.
func (h *REST) PurchaseItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "field 'item_id' is required")
		return
	}

	actorID := middleware.ActorID(r.Context())
	p, err := h.store.Purchase(r.Context(), actorID, req.ItemID, time.Now().UTC())
	if err != nil {
		telemetry.PurchasesTotal.WithLabelValues("rejected").Inc()
		h.writeDomainError(w, r, err)
		return
	}

	telemetry.PurchasesTotal.WithLabelValues("completed").Inc()
	h.logger.Info("store purchase",
		slog.String("user_id", actorID),
		slog.String("item_id", p.ItemID),
		slog.Int("cost", p.Cost),
	)
	writeJSON(w, http.StatusCreated, p)
}

// ListPurchases handles GET /api/v1/store/purchases for the acting user.
func (h *REST) ListPurchases(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListPurchases(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if out == nil {
		out = []domain.Purchase{}
	}
	writeJSON(w, http.StatusOK, out)
}
