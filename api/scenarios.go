/*
scenarios.go - Demo data loader

PURPOSE:
  Populates the ledger with a realistic run of production so the dashboard
  and rollups have something to show. Everything goes through the ledger's
  public operations, so the demo exercises the same validation as real
  traffic.

WHAT GETS LOADED:
 1. Optionally reset production data
 2. Default container types and sizes
 3. Master order "Demo Order" (2000 units), unless one exists
 4. Historical opening balance the day before the first demo day, unless
    one exists
 5. One batch of all 17 operations per day, Full Container / 20ft Standard
 6. Master order totals = stored opening balance + demo production
 7. A dispatch log entry every third day
 8. One production entry per shift for the last day

USAGE VIA API:
	POST /api/admin/demo
	{"days": 14, "endDate": "2026-03-14", "reset": true}

	All fields are optional. endDate defaults to today.

NOTE:
  With reset enabled the loader clears reports, dispatches and production
  entries. Dimensions, the master order and the opening balance are never
  removed. The route is not mounted in prod.

SEE ALSO:
  - handlers.go: Seed handler
  - factory/seed.go: Default dimensions
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/warp/production-ledger/factory"
	"github.com/warp/production-ledger/ledger"
)

const (
	defaultDemoDays = 14
	maxDemoDays     = 366

	demoOrderName     = "Demo Order"
	demoOrderQuantity = 2000

	demoOpeningManufactured = 500
	demoOpeningDispatched   = 400
)

var demoDestinations = []string{"Chattogram Port", "Mongla Port", "Dhaka ICD"}

var demoShifts = []struct {
	name   string
	status ledger.ContainerStatus
}{
	{"Morning", ledger.StatusReadyForDispatch},
	{"Evening", ledger.StatusUnderTesting},
	{"Night", ledger.StatusPendingOperations},
}

// LoadDemo resets (optionally) and loads the demo data set.
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	const op = "api.LoadDemo"

	req := DemoRequest{Days: defaultDemoDays, Reset: true}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.fail(w, r, op, err)
			return
		}
	}

	end := h.now()
	if req.EndDate != "" {
		d, err := ledger.ParseDate(req.EndDate)
		if err != nil {
			h.fail(w, r, op, &ledger.ValidationError{Field: "endDate", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", req.EndDate)})
			return
		}
		end = d
	}
	if req.Days <= 0 || req.Days > maxDemoDays {
		h.fail(w, r, op, &ledger.ValidationError{Field: "days", Message: fmt.Sprintf("must be between 1 and %d", maxDemoDays)})
		return
	}

	ctx := r.Context()
	if req.Reset && h.resetter != nil {
		if err := h.resetter.Reset(ctx); err != nil {
			h.fail(w, r, op, fmt.Errorf("reset: %w", err))
			return
		}
	}

	resp, err := h.loadDemo(ctx, end, req.Days)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	h.log.Info("demo loaded", slog.String("op", op),
		actor(r), slog.Int("days", resp.Days), slog.Int("reports", resp.Reports),
		slog.Int("dispatches", resp.Dispatches), slog.Int("entries", resp.Entries))
	writeJSON(w, r, http.StatusOK, resp)
}

// =============================================================================
// DEMO LOADER
// =============================================================================

func (h *Handler) loadDemo(ctx context.Context, end time.Time, days int) (DemoResponse, error) {
	var resp DemoResponse

	if err := h.factory.Apply(ctx, h.ledger, factory.DefaultSeed()); err != nil {
		return resp, err
	}
	if err := h.ledger.InitMasterOrder(ctx, demoOrderName, demoOrderQuantity); err != nil {
		return resp, err
	}

	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	first := end.AddDate(0, 0, -(days - 1))

	err := h.ledger.CreateOpeningBalance(ctx, ledger.OpeningBalanceInput{
		OpeningDate:              first.AddDate(0, 0, -1).Format(ledger.DateLayout),
		ManufacturedBeforeSystem: demoOpeningManufactured,
		DispatchedBeforeSystem:   demoOpeningDispatched,
		ManufacturingStartDate:   first.AddDate(-1, 0, 0).Format(ledger.DateLayout),
		SystemGoLiveDate:         first.Format(ledger.DateLayout),
	})
	if err != nil && !errors.Is(err, ledger.ErrAlreadyExists) {
		return resp, err
	}
	opening, err := h.ledger.OpeningBalance(ctx)
	if err != nil {
		return resp, err
	}

	var (
		completed  [len(ledger.Operations)]int64
		dispatched int64
		logged     int64
	)
	for day := 0; day < days; day++ {
		date := first.AddDate(0, 0, day)

		entries := make([]ledger.BatchEntry, len(ledger.Operations))
		for i, name := range ledger.Operations {
			today := demoProduction(day, i)
			completed[i] += today

			var out int64
			if i == len(ledger.Operations)-1 {
				out = completed[i] / 2
				dispatched = out
			}

			entries[i] = ledger.BatchEntry{
				OperationName:   name,
				ContainerTypeID: 1,
				ContainerSizeID: 1,
				Quantities: ledger.Quantities{
					TodayProduction: today,
					TotalCompleted:  completed[i],
					Dispatched:      out,
				},
			}
		}

		if err := h.ledger.BatchSubmit(ctx, date.Format(ledger.DateLayout), entries); err != nil {
			return resp, fmt.Errorf("day %s: %w", date.Format(ledger.DateLayout), err)
		}
		resp.Reports += len(entries)

		if day%3 == 2 && dispatched > logged {
			_, err := h.ledger.CreateDispatch(ctx, ledger.DispatchInput{
				ContainerTypeID: 1,
				Quantity:        dispatched - logged,
				DispatchDate:    date.Add(15 * time.Hour).UnixNano(),
				Destination:     demoDestinations[resp.Dispatches%len(demoDestinations)],
				DeliveryStatus:  string(ledger.DeliveryDelivered),
			})
			if err != nil {
				return resp, err
			}
			logged = dispatched
			resp.Dispatches++
		}
	}

	for i, shift := range demoShifts {
		_, err := h.ledger.CreateProductionEntry(ctx, ledger.ProductionEntryInput{
			ContainerTypeID: 1,
			Shift:           ledger.Shift{ID: int64(i + 1), Name: shift.name, ContainerQty: demoProduction(days-1, i)},
			Status:          string(shift.status),
			TotalQty:        demoProduction(days-1, i),
		})
		if err != nil {
			return resp, err
		}
		resp.Entries++
	}

	// The final operation's output is what leaves the line.
	manufactured := opening.ManufacturedBeforeSystem + completed[len(completed)-1]
	if err := h.ledger.UpdateMasterOrder(ctx, manufactured, opening.DispatchedBeforeSystem+dispatched); err != nil {
		return resp, err
	}

	resp.Days = days
	return resp, nil
}

// demoProduction is a deterministic daily figure: upstream operations run a
// little ahead of finishing, with a three-day cycle.
func demoProduction(day, operation int) int64 {
	base := 8 - operation/4
	return int64(base + (day+operation)%3)
}
