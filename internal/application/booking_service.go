package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/example/room-ledger/internal/ledger"
	"github.com/example/room-ledger/internal/render"
)

// BookingService validates user input and drives the ledger and the week renderers.
type BookingService struct {
	ledger     Ledger
	logger     *slog.Logger
	publicURL  string
	cache      *renderCache
	cacheTTL   time.Duration
	cacheLimit int
	now        func() time.Time
}

// Option configures a BookingService.
type Option func(*BookingService)

// WithLogger sets the base logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(s *BookingService) {
		s.logger = logger
	}
}

// WithPublicURL sets the base URL encoded into door display QR codes.
func WithPublicURL(base string) Option {
	return func(s *BookingService) {
		s.publicURL = strings.TrimRight(base, "/")
	}
}

// WithRenderCache bounds how long and how many rendered weeks are reused.
func WithRenderCache(ttl time.Duration, maxEntries int) Option {
	return func(s *BookingService) {
		s.cacheTTL = ttl
		s.cacheLimit = maxEntries
	}
}

// WithClock overrides the clock used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) {
		s.now = now
	}
}

// NewBookingService constructs a booking service over the given ledger.
func NewBookingService(l Ledger, opts ...Option) *BookingService {
	s := &BookingService{ledger: l, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = defaultLogger(s.logger)
	s.cache = newRenderCache(s.cacheTTL, s.cacheLimit, s.now)
	return s
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// AddRoom registers a new room.
func (s *BookingService) AddRoom(ctx context.Context, roomID string) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	roomID = strings.TrimSpace(roomID)

	logger := s.loggerWith(ctx, "AddRoom", "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room added")
	}()

	vErr := &ValidationError{}
	validateRoomID(vErr, roomID)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ledger.AddRoom(ctx, roomID); err != nil {
		return
	}
	s.cache.Invalidate()
	return nil
}

// Book reserves a slot. An empty class name and instructor make the booking anonymous.
func (s *BookingService) Book(ctx context.Context, params BookParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	params = normalizeBookParams(params)

	logger := s.loggerWith(ctx, "Book",
		"room_id", params.RoomID,
		"date", params.Date,
		"slot", params.Slot,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to book slot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "slot booked", "slot_label", booking.SlotLabel, "anonymous", booking.Anonymous())
	}()

	vErr := &ValidationError{}
	validateRoomID(vErr, params.RoomID)
	day, dayErr := parseDate(params.Date)
	vErr.merge(dayErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	slot, ok := ResolveSlot(params.Slot)
	if !ok {
		err = &InvalidSlotError{Value: params.Slot}
		return
	}

	entry := ledger.Booking{Slot: slot, ClassName: params.ClassName, Instructor: params.Instructor}
	if err = s.ledger.BookRoom(ctx, params.RoomID, day, entry); err != nil {
		return
	}
	s.cache.Invalidate()

	booking = bookingView(params.RoomID, ledger.DayKey(day), entry)
	return booking, nil
}

// BookingAt returns the booking occupying the slot, or ErrNotFound when it is free.
func (s *BookingService) BookingAt(ctx context.Context, roomID, date, slotValue string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	roomID = strings.TrimSpace(roomID)

	vErr := &ValidationError{}
	validateRoomID(vErr, roomID)
	day, dayErr := parseDate(date)
	vErr.merge(dayErr)
	if vErr.HasErrors() {
		return Booking{}, vErr
	}
	slot, ok := ResolveSlot(slotValue)
	if !ok {
		return Booking{}, &InvalidSlotError{Value: strings.TrimSpace(slotValue)}
	}

	entry, found, err := s.ledger.BookingAt(roomID, day, slot)
	if err != nil {
		s.loggerWith(ctx, "BookingAt", "room_id", roomID).DebugContext(ctx, "booking lookup failed", "error", err, "error_kind", ErrorKind(err))
		return Booking{}, err
	}
	if !found {
		return Booking{}, ErrNotFound
	}
	return bookingView(roomID, ledger.DayKey(day), entry), nil
}

// DaySchedule returns the open and booked slots of a room on a day. Days
// without bookings report every slot as open.
func (s *BookingService) DaySchedule(ctx context.Context, roomID, date string) (DaySchedule, error) {
	if s == nil {
		return DaySchedule{}, fmt.Errorf("BookingService is nil")
	}
	roomID = strings.TrimSpace(roomID)

	vErr := &ValidationError{}
	validateRoomID(vErr, roomID)
	day, dayErr := parseDate(date)
	vErr.merge(dayErr)
	if vErr.HasErrors() {
		return DaySchedule{}, vErr
	}

	schedule, found, err := s.ledger.DaySchedule(roomID, day)
	if err != nil {
		return DaySchedule{}, err
	}

	key := ledger.DayKey(day)
	view := DaySchedule{RoomID: roomID, Date: key, Open: []SlotView{}, Booked: []Booking{}}
	if !found {
		for i := 0; i < ledger.SlotCount; i++ {
			view.Open = append(view.Open, slotView(i))
		}
		return view, nil
	}
	for _, slot := range schedule.Open {
		view.Open = append(view.Open, slotView(slot))
	}
	for _, b := range schedule.Booked {
		view.Booked = append(view.Booked, bookingView(roomID, key, b))
	}
	return view, nil
}

// ListRooms returns every known room in name order.
func (s *BookingService) ListRooms(ctx context.Context) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.ledger.Rooms(), nil
}

// Week builds the Monday to Friday grid of the week containing today.
func (s *BookingService) Week(ctx context.Context, roomID string) (render.Week, error) {
	if s == nil {
		return render.Week{}, fmt.Errorf("BookingService is nil")
	}
	if err := ctx.Err(); err != nil {
		return render.Week{}, err
	}
	roomID = strings.TrimSpace(roomID)

	vErr := &ValidationError{}
	validateRoomID(vErr, roomID)
	if vErr.HasErrors() {
		return render.Week{}, vErr
	}
	return s.buildWeek(roomID, ledger.WeekDays(s.ledger.Today()))
}

func (s *BookingService) buildWeek(roomID string, days []time.Time) (render.Week, error) {
	week := render.Week{
		RoomID: roomID,
		Days:   days,
		Slots:  ledger.Timeslots(),
		Cells:  make([][]render.Cell, ledger.SlotCount),
	}
	for slot := range week.Cells {
		week.Cells[slot] = make([]render.Cell, len(days))
	}

	schedules, err := s.ledger.Schedules(roomID, days)
	if err != nil {
		return render.Week{}, err
	}
	for i, schedule := range schedules {
		for _, b := range schedule.Booked {
			if ledger.ValidSlot(b.Slot) {
				week.Cells[b.Slot][i] = render.Cell{Booked: true, ClassName: b.ClassName, Instructor: b.Instructor}
			}
		}
	}
	return week, nil
}

// RenderWeek renders the current week of a room in the given format.
func (s *BookingService) RenderWeek(ctx context.Context, roomID string, format render.Format) (output []byte, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	roomID = strings.TrimSpace(roomID)

	logger := s.loggerWith(ctx, "RenderWeek", "room_id", roomID, "format", string(format))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to render week", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "week rendered", "bytes", len(output))
	}()

	if format, err = render.ParseFormat(string(format)); err != nil {
		return nil, err
	}

	generation := s.cache.Generation()
	week, err := s.Week(ctx, roomID)
	if err != nil {
		return nil, err
	}

	key := buildRenderCacheKey(roomID, format, week.Days[0])
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	var buf bytes.Buffer
	if err = render.Render(&buf, week, format, render.Options{QRCodeURL: s.weekURL(roomID)}); err != nil {
		return nil, err
	}
	output = buf.Bytes()
	if !s.cache.StoreAt(key, output, generation) {
		logger.DebugContext(ctx, "ledger changed while rendering, result not cached")
	}
	return output, nil
}

func (s *BookingService) weekURL(roomID string) string {
	if s.publicURL == "" {
		return ""
	}
	return s.publicURL + "/rooms/" + url.PathEscape(roomID) + "/week?format=html"
}

// ResolveSlot accepts a timeslot label or a slot index.
func ResolveSlot(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if index, ok := ledger.SlotIndex(value); ok {
		return index, true
	}
	index, err := strconv.Atoi(value)
	if err != nil || !ledger.ValidSlot(index) {
		return 0, false
	}
	return index, true
}

func normalizeBookParams(params BookParams) BookParams {
	params.RoomID = strings.TrimSpace(params.RoomID)
	params.Date = strings.TrimSpace(params.Date)
	params.Slot = strings.TrimSpace(params.Slot)
	params.ClassName = strings.TrimSpace(params.ClassName)
	params.Instructor = strings.TrimSpace(params.Instructor)
	return params
}

func validateRoomID(vErr *ValidationError, roomID string) {
	switch {
	case roomID == "":
		vErr.add("room_id", "room_id is required")
	case strings.IndexFunc(roomID, unicode.IsSpace) >= 0:
		vErr.add("room_id", "room_id must not contain whitespace")
	}
}

func parseDate(value string) (time.Time, *ValidationError) {
	value = strings.TrimSpace(value)
	vErr := &ValidationError{}
	if value == "" {
		vErr.add("date", "date is required")
		return time.Time{}, vErr
	}
	day, err := ledger.ParseDay(value)
	if err != nil {
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		return time.Time{}, vErr
	}
	return day, nil
}

// IsClientError reports whether err stems from the request rather than the
// system, so callers can keep the loop or request alive.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	var vErr *ValidationError
	var slotErr *InvalidSlotError
	switch {
	case errors.As(err, &vErr), errors.As(err, &slotErr), errors.Is(err, ErrNotFound), errors.Is(err, render.ErrUnknownFormat):
		return true
	}
	kind := ledger.KindOf(err)
	return kind != ledger.KindUnknown && kind != ledger.KindPersistence
}
