package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"parking-grid/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type ParkingLotCreateRequest struct {
	TotalSpaces int `json:"total_spaces"`
	Rows        int `json:"rows"`
}

type ParkVehicleRequest struct {
	Row      int              `json:"row"`
	Col      int              `json:"col"`
	Category parking.Category `json:"category"`
	Plate    string           `json:"plate"`
}

type RemoveVehicleRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type VehicleResponse struct {
	Row       int              `json:"row"`
	Col       int              `json:"col"`
	Category  parking.Category `json:"category"`
	Plate     string           `json:"plate"`
	EntryTime time.Time        `json:"entry_time"`
}

type ReceiptResponse struct {
	VehicleResponse
	ExitTime time.Time `json:"exit_time"`
	Hours    int64     `json:"hours"`
	Rate     string    `json:"rate"`
	Fare     string    `json:"fare"`
}

type AvailabilityResponse struct {
	Row       int  `json:"row"`
	Col       int  `json:"col"`
	Available bool `json:"available"`
}

type RowResponse struct {
	Row      int    `json:"row"`
	Rendered string `json:"rendered"`
}

type SpaceStatus struct {
	Row       int               `json:"row"`
	Col       int               `json:"col"`
	Occupied  bool              `json:"occupied"`
	Category  *parking.Category `json:"category,omitempty"`
	Plate     string            `json:"plate,omitempty"`
	EntryTime *time.Time        `json:"entry_time,omitempty"`
}

type StatusResponse struct {
	TotalSpaces  int           `json:"total_spaces"`
	Rows         int           `json:"rows"`
	SpacesPerRow int           `json:"spaces_per_row"`
	Occupied     int           `json:"occupied"`
	Available    int           `json:"available"`
	Spaces       []SpaceStatus `json:"spaces"`
	Grid         []string      `json:"grid"`
}

func newVehicleResponse(row, col int, v *parking.Vehicle) VehicleResponse {
	return VehicleResponse{
		Row:       row,
		Col:       col,
		Category:  v.Category(),
		Plate:     v.Plate(),
		EntryTime: v.EntryTime(),
	}
}

func newReceiptResponse(r *parking.Receipt) ReceiptResponse {
	return ReceiptResponse{
		VehicleResponse: newVehicleResponse(r.Row, r.Col, r.Vehicle),
		ExitTime:        r.ExitTime,
		Hours:           r.Hours,
		Rate:            r.Rate.StringFixed(2),
		Fare:            r.Amount.StringFixed(2),
	}
}

func newStatusResponse(s parking.Snapshot) StatusResponse {
	spaces := make([]SpaceStatus, 0, len(s.Spaces))
	for _, view := range s.Spaces {
		status := SpaceStatus{Row: view.Row, Col: view.Col, Occupied: view.Occupied}
		if view.Occupied {
			category := view.Category
			entry := view.EntryTime
			status.Category = &category
			status.Plate = view.Plate
			status.EntryTime = &entry
		}
		spaces = append(spaces, status)
	}

	return StatusResponse{
		TotalSpaces:  s.TotalSpaces,
		Rows:         s.Rows,
		SpacesPerRow: s.SpacesPerRow,
		Occupied:     s.Occupied,
		Available:    s.Available,
		Spaces:       spaces,
		Grid:         s.Grid,
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
