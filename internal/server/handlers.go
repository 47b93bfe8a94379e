package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"parking-grid/internal/config"
	"parking-grid/internal/parking"
)

const maxConfigUpload = 1 << 20

type Handler struct {
	garage *parking.Garage
}

func NewHandler(garage *parking.Garage) *Handler {
	return &Handler{garage: garage}
}

// statusFor maps lot errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrConfig),
		errors.Is(err, parking.ErrIndex),
		errors.Is(err, parking.ErrUnknownCategory),
		errors.Is(err, parking.ErrLotNotCreated):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrOccupied),
		errors.Is(err, parking.ErrNoAvailability):
		return http.StatusConflict
	case errors.Is(err, parking.ErrNotOccupied),
		errors.Is(err, parking.ErrVehicleNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *Handler) lot(w http.ResponseWriter, r *http.Request) *parking.InstrumentedParkingLot {
	lot, err := h.garage.Lot()
	if err != nil {
		WriteError(r.Context(), w, http.StatusBadRequest, "Parking lot not created. Create parking lot first")
		return nil
	}
	return lot
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.garage.Telemetry().ServiceName(),
		Meta:    extractMeta(r.Context()),
	})
}

// CreateParkingLot accepts a JSON body, a plain-text lot config body, or a
// multipart upload with the config in the "config" field.
func (h *Handler) CreateParkingLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ParkingLotCreateRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxConfigUpload)
		file, _, err := r.FormFile("config")
		if err != nil {
			WriteError(ctx, w, http.StatusBadRequest, "Config file is required")
			return
		}
		defer file.Close()

		lot, err := config.ParseLot(file)
		if err != nil {
			WriteError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		req = ParkingLotCreateRequest{TotalSpaces: lot.TotalSpaces, Rows: lot.Rows}
	case strings.HasPrefix(mediaType, "text/"):
		lot, err := config.ParseLot(http.MaxBytesReader(w, r.Body, maxConfigUpload))
		if err != nil {
			WriteError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		req = ParkingLotCreateRequest{TotalSpaces: lot.TotalSpaces, Rows: lot.Rows}
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	lot, err := h.garage.Configure(ctx, req.TotalSpaces, req.Rows)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Parking lot created successfully", newStatusResponse(lot.Snapshot(ctx)))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.lot(w, r)
	if lot == nil {
		return
	}

	WriteSuccess(ctx, w, "Status retrieved successfully", newStatusResponse(lot.Snapshot(ctx)))
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.lot(w, r)
	if lot == nil {
		return
	}

	var req ParkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Plate) == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Plate is required")
		return
	}

	vehicle, err := lot.Park(ctx, req.Row, req.Col, req.Category, req.Plate)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Vehicle parked successfully", newVehicleResponse(req.Row, req.Col, vehicle))
}

func (h *Handler) RemoveVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.lot(w, r)
	if lot == nil {
		return
	}

	var req RemoveVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := lot.Remove(ctx, req.Row, req.Col)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Vehicle removed", newReceiptResponse(receipt))
}

func positionParams(r *http.Request) (int, int, error) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		return 0, 0, err
	}
	col, err := strconv.Atoi(chi.URLParam(r, "col"))
	if err != nil {
		return 0, 0, err
	}
	return row, col, nil
}

func (h *Handler) InspectSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.lot(w, r)
	if lot == nil {
		return
	}

	row, col, err := positionParams(r)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Row and space must be integers")
		return
	}

	vehicle, err := lot.Inspect(ctx, row, col)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", newVehicleResponse(row, col, vehicle))
}

func (h *Handler) SpaceAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.lot(w, r)
	if lot == nil {
		return
	}

	row, col, err := positionParams(r)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Row and space must be integers")
		return
	}

	available, err := lot.IsAvailable(ctx, row, col)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Availability retrieved", AvailabilityResponse{Row: row, Col: col, Available: available})
}

func (h *Handler) RenderRow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.lot(w, r)
	if lot == nil {
		return
	}

	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Row must be an integer")
		return
	}

	rendered, err := lot.RenderRow(ctx, row)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Row rendered", RowResponse{Row: row, Rendered: rendered})
}

func (h *Handler) FindByPlate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lot := h.lot(w, r)
	if lot == nil {
		return
	}

	plate := chi.URLParam(r, "plate")
	if plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Plate is required")
		return
	}

	row, col, err := lot.FindByPlate(ctx, plate)
	if err != nil {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	vehicle, err := lot.Inspect(ctx, row, col)
	if err != nil {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", newVehicleResponse(row, col, vehicle))
}
