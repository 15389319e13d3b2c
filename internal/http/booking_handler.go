package http

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/blake2b"

	"github.com/example/room-ledger/internal/application"
	"github.com/example/room-ledger/internal/ledger"
	"github.com/example/room-ledger/internal/render"
)

type bookingService interface {
	AddRoom(ctx context.Context, roomID string) error
	Book(ctx context.Context, params application.BookParams) (application.Booking, error)
	BookingAt(ctx context.Context, roomID, date, slot string) (application.Booking, error)
	DaySchedule(ctx context.Context, roomID, date string) (application.DaySchedule, error)
	ListRooms(ctx context.Context) ([]string, error)
	Week(ctx context.Context, roomID string) (render.Week, error)
	RenderWeek(ctx context.Context, roomID string, format render.Format) ([]byte, error)
}

// BookingHandler serves the room and booking endpoints.
type BookingHandler struct {
	service   bookingService
	validate  *validator.Validate
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, validate: newValidator(), responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) ListRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if rooms == nil {
		rooms = []string{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomsResponse{Rooms: rooms})
}

func (h *BookingHandler) AddRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req addRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "AddRoom", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "bad_request", errBadRequestBody)
		return
	}
	req.RoomID = strings.TrimSpace(req.RoomID)
	if err := h.validate.Struct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, validationError(err))
		return
	}

	logger := h.log(r.Context(), "AddRoom", "room_id", req.RoomID)
	if err := h.service.AddRoom(r.Context(), req.RoomID); err != nil {
		logger.WarnContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{RoomID: req.RoomID})
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("room")

	var req bookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "Book", "room_id", roomID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "bad_request", errBadRequestBody)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, validationError(err))
		return
	}

	logger := h.log(r.Context(), "Book", "room_id", roomID, "date", req.Date, "slot", string(req.Slot))
	booking, err := h.service.Book(r.Context(), req.toParams(roomID))
	if err != nil {
		logger.WarnContext(r.Context(), "booking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "slot booked", "slot_label", booking.SlotLabel)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toBookingDTO(booking))
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.BookingAt(r.Context(), ps.ByName("room"), ps.ByName("date"), ps.ByName("slot"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingDTO(booking))
}

func (h *BookingHandler) GetDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	schedule, err := h.service.DaySchedule(r.Context(), ps.ByName("room"), ps.ByName("date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayDTO(schedule))
}

// GetWeek serves the current week as JSON or in one of the render formats.
func (h *BookingHandler) GetWeek(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("room")
	name := strings.TrimSpace(r.URL.Query().Get("format"))

	if name == "" || strings.EqualFold(name, "json") {
		week, err := h.service.Week(r.Context(), roomID)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(toWeekDTO(week)); err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		writeTagged(w, r, "application/json; charset=utf-8", buf.Bytes())
		return
	}

	format, err := render.ParseFormat(name)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	output, err := h.service.RenderWeek(r.Context(), roomID, format)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	writeTagged(w, r, format.ContentType(), output)
}

// writeTagged writes body with a content hash ETag and answers conditional
// requests with 304.
func writeTagged(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	sum := blake2b.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	newResponder(nil).writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

type addRoomRequest struct {
	RoomID string `json:"room_id" validate:"required,max=64,roomcode"`
}

type bookRequest struct {
	Date       string    `json:"date" validate:"required,isodate"`
	Slot       slotValue `json:"slot" validate:"required"`
	ClassName  *string   `json:"class_name" validate:"omitempty,max=100"`
	Instructor *string   `json:"prof_name" validate:"omitempty,max=100"`
}

func (r bookRequest) toParams(roomID string) application.BookParams {
	return application.BookParams{
		RoomID:     roomID,
		Date:       r.Date,
		Slot:       string(r.Slot),
		ClassName:  deref(r.ClassName),
		Instructor: deref(r.Instructor),
	}
}

type roomsResponse struct {
	Rooms []string `json:"rooms"`
}

type roomResponse struct {
	RoomID string `json:"room_id"`
}

type bookingDTO struct {
	RoomID    string  `json:"room_id"`
	Date      string  `json:"date"`
	Slot      int     `json:"slot"`
	SlotLabel string  `json:"slot_label"`
	ClassName *string `json:"class_name"`
	ProfName  *string `json:"prof_name"`
}

type slotDTO struct {
	Slot  int    `json:"slot"`
	Label string `json:"label"`
}

type dayDTO struct {
	RoomID      string       `json:"room_id"`
	Date        string       `json:"date"`
	OpenSlots   []slotDTO    `json:"open_slots"`
	BookedSlots []bookingDTO `json:"booked_slots"`
}

type weekDayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type cellDTO struct {
	Booked    bool    `json:"booked"`
	ClassName *string `json:"class_name,omitempty"`
	ProfName  *string `json:"prof_name,omitempty"`
}

type weekDTO struct {
	RoomID string       `json:"room_id"`
	Days   []weekDayDTO `json:"days"`
	Slots  []string     `json:"slots"`
	Cells  [][]cellDTO  `json:"cells"`
}

func toBookingDTO(b application.Booking) bookingDTO {
	return bookingDTO{
		RoomID:    b.RoomID,
		Date:      b.Date,
		Slot:      b.Slot,
		SlotLabel: b.SlotLabel,
		ClassName: optional(b.ClassName),
		ProfName:  optional(b.Instructor),
	}
}

func toDayDTO(d application.DaySchedule) dayDTO {
	dto := dayDTO{
		RoomID:      d.RoomID,
		Date:        d.Date,
		OpenSlots:   make([]slotDTO, 0, len(d.Open)),
		BookedSlots: make([]bookingDTO, 0, len(d.Booked)),
	}
	for _, slot := range d.Open {
		dto.OpenSlots = append(dto.OpenSlots, slotDTO{Slot: slot.Index, Label: slot.Label})
	}
	for _, b := range d.Booked {
		dto.BookedSlots = append(dto.BookedSlots, toBookingDTO(b))
	}
	return dto
}

func toWeekDTO(week render.Week) weekDTO {
	dto := weekDTO{
		RoomID: week.RoomID,
		Days:   make([]weekDayDTO, len(week.Days)),
		Slots:  week.Slots,
		Cells:  make([][]cellDTO, len(week.Cells)),
	}
	for i, day := range week.Days {
		dto.Days[i] = weekDayDTO{Date: ledger.DayKey(day), Name: week.DayLabel(i)}
	}
	for slot, row := range week.Cells {
		dto.Cells[slot] = make([]cellDTO, len(row))
		for day, cell := range row {
			if cell.Booked {
				dto.Cells[slot][day] = cellDTO{Booked: true, ClassName: optional(cell.ClassName), ProfName: optional(cell.Instructor)}
			}
		}
	}
	return dto
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
