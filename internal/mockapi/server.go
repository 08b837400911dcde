package mockapi

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
)

// BasePath is where the API is mounted.
const BasePath = "/api/v1"

// maxUpload is the part of a multipart body held in memory. Larger uploads
// spill to temporary files.
const maxUpload = 32 << 20

func documentPath(id uint) string {
	return BasePath + "/rom/documents/" + strconv.FormatUint(uint64(id), 10)
}

// Server exposes a Store over HTTP.
type Server struct {
	store  *Store
	token  string
	router *gin.Engine

	formMemory int64
}

// NewServer builds the router. When token is set every request must carry it
// as a bearer token.
func NewServer(store *Store, token string) *Server {
	s := &Server{store: store, token: token, router: gin.New(), formMemory: maxUpload}
	s.router.Use(gin.Recovery(), requestLogger())
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Tenant-ID", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	api := s.router.Group(BasePath)
	api.Use(s.authenticate)
	{
		api.GET("/rom/venues/active", s.listVenues)
		api.GET("/rom/sessions/active", s.listSessions)
		api.GET("/payment-modes/active", s.listPaymentModes)
		api.GET("/rom/bookings", s.listBookings)
		api.GET("/rom/bookings/:id", s.getBooking)
		api.POST("/rom/bookings", s.createBooking)
		api.POST("/rom/bookings/:id", s.updateBooking)
		api.PUT("/rom/bookings/:id", s.updateBooking)
		api.GET("/rom/documents/:id", s.getDocument)
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("mock-api %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func success(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func (s *Server) authenticate(c *gin.Context) {
	if s.token == "" {
		c.Next()
		return
	}
	if c.GetHeader("Authorization") != "Bearer "+s.token {
		fail(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Unauthenticated.")
		return
	}
	c.Next()
}

func (s *Server) listVenues(c *gin.Context) {
	venues, err := s.store.ActiveVenues(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load venues")
		return
	}
	success(c, http.StatusOK, "", venues)
}

func (s *Server) listSessions(c *gin.Context) {
	sessions, err := s.store.ActiveSessions(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load sessions")
		return
	}
	success(c, http.StatusOK, "", sessions)
}

func (s *Server) listPaymentModes(c *gin.Context) {
	modes, err := s.store.ActivePaymentModes(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load payment modes")
		return
	}
	success(c, http.StatusOK, "", modes)
}

func (s *Server) listBookings(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "The limit must be a positive integer.")
		return
	}
	recs, err := s.store.Bookings(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load bookings")
		return
	}
	success(c, http.StatusOK, "", recs)
}

func (s *Server) getBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := s.store.Booking(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load booking")
		return
	}
	success(c, http.StatusOK, "", rec)
}

func (s *Server) getDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, err := s.store.Document(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, doc.MIME, doc.Data)
}

func (s *Server) createBooking(c *gin.Context) {
	s.saveBooking(c, 0)
}

func (s *Server) updateBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if c.Request.Method == http.MethodPost && c.PostForm(booking.MethodOverride) != http.MethodPut {
		fail(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Updates must use PUT.")
		return
	}
	s.saveBooking(c, id)
}

func (s *Server) saveBooking(c *gin.Context, id uint) {
	if err := c.Request.ParseMultipartForm(s.formMemory); err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid multipart body")
		return
	}
	form := c.Request.MultipartForm
	defer func() { _ = form.RemoveAll() }()

	m, msg := s.bookingFromForm(c, form.Value)
	if msg != "" {
		fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg)
		return
	}
	m.ID = id

	docs, msg, err := documentsFromForm(form.File)
	if err != nil {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unreadable upload")
		return
	}
	if msg != "" {
		fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", msg)
		return
	}

	if err := s.store.Save(c.Request.Context(), m, docs); err != nil {
		if errors.Is(err, ErrNotFound) {
			fail(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		logger.Error("mock-api saving booking: %v", err)
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save booking")
		return
	}

	status, message := http.StatusCreated, "ROM booking created successfully"
	if id != 0 {
		status, message = http.StatusOK, "ROM booking updated successfully"
	}
	success(c, status, message, gin.H{"id": m.ID, "booking_number": m.BookingNumber})
}

// bookingFromForm reads the flattened fields. The returned message is empty
// when the form is acceptable.
func (s *Server) bookingFromForm(c *gin.Context, values map[string][]string) (*bookingModel, string) {
	get := func(k string) string {
		if v := values[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	ctx := c.Request.Context()
	m := &bookingModel{
		BookingDate: get("booking_date"),
		Remarks:     get("remarks"),
	}

	venueID, err := strconv.ParseUint(get("venue_id"), 10, 64)
	if err != nil {
		return nil, "The venue id field is required."
	}
	if _, ok := s.store.venue(ctx, uint(venueID)); !ok {
		return nil, "The selected venue is invalid."
	}
	m.VenueID = uint(venueID)

	sessionID, err := strconv.ParseUint(get("session_id"), 10, 64)
	if err != nil {
		return nil, "The session id field is required."
	}
	sess, ok := s.store.session(ctx, uint(sessionID))
	if !ok {
		return nil, "The selected session is invalid."
	}
	m.SessionID = uint(sessionID)

	if _, err := time.Parse(domain.DateLayout, m.BookingDate); err != nil {
		return nil, "The booking date field must be a valid date."
	}

	m.Amount = sess.Amount
	if a := get("amount"); a != "" {
		if m.Amount, err = strconv.ParseFloat(a, 64); err != nil {
			return nil, "The amount must be a number."
		}
	}

	modeID, err := strconv.ParseUint(get("payment_mode_id"), 10, 64)
	if err != nil {
		return nil, "The payment mode id field is required."
	}
	if !s.store.paymentMode(ctx, uint(modeID)) {
		return nil, "The selected payment mode is invalid."
	}
	m.PaymentModeID = uint(modeID)

	m.Register = domain.PersonDetails{
		Name:     get("register_details[name]"),
		IDNumber: get("register_details[id_number]"),
		Phone:    get("register_details[phone]"),
		Email:    get("register_details[email]"),
	}
	m.Couples = couplesFromForm(values)
	m.Witnesses = witnessesFromForm(values)
	if len(m.Couples) == 0 {
		return nil, "At least one couple is required."
	}
	return m, ""
}

var (
	coupleKey  = regexp.MustCompile(`^couples\[(\d+)\]\[(bride|groom)\]\[(\w+)\]$`)
	witnessKey = regexp.MustCompile(`^witnesses\[(\d+)\]\[(\w+)\]$`)
	fileKey    = regexp.MustCompile(`^(\w+)(?:\[(\d+)\])?$`)
)

func setPersonField(p *domain.PersonDetails, field, v string) {
	switch field {
	case "name":
		p.Name = v
	case "id_number":
		p.IDNumber = v
	case "phone":
		p.Phone = v
	case "email":
		p.Email = v
	}
}

func couplesFromForm(values map[string][]string) []domain.Couple {
	byIndex := map[int]*domain.Couple{}
	for k, v := range values {
		mm := coupleKey.FindStringSubmatch(k)
		if mm == nil || len(v) == 0 {
			continue
		}
		i, _ := strconv.Atoi(mm[1])
		c, ok := byIndex[i]
		if !ok {
			c = &domain.Couple{}
			byIndex[i] = c
		}
		p := &c.Bride
		if mm[2] == "groom" {
			p = &c.Groom
		}
		setPersonField(p, mm[3], strings.TrimSpace(v[0]))
	}
	out := make([]domain.Couple, 0, len(byIndex))
	for _, i := range sortedKeys(byIndex) {
		out = append(out, *byIndex[i])
	}
	return out
}

func witnessesFromForm(values map[string][]string) []domain.Witness {
	byIndex := map[int]*domain.Witness{}
	for k, v := range values {
		mm := witnessKey.FindStringSubmatch(k)
		if mm == nil || len(v) == 0 {
			continue
		}
		i, _ := strconv.Atoi(mm[1])
		w, ok := byIndex[i]
		if !ok {
			w = &domain.Witness{}
			byIndex[i] = w
		}
		val := strings.TrimSpace(v[0])
		switch mm[2] {
		case "name":
			w.Name = val
		case "id_number":
			w.IDNumber = val
		case "phone":
			w.Phone = val
		}
	}
	out := make([]domain.Witness, 0, len(byIndex))
	for _, i := range sortedKeys(byIndex) {
		out = append(out, *byIndex[i])
	}
	return out
}

func sortedKeys[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// documentsFromForm reads the uploaded files. A non-empty message rejects the request.
func documentsFromForm(files map[string][]*multipart.FileHeader) ([]documentModel, string, error) {
	type fileField struct {
		key   string
		slot  booking.Slot
		index int
	}
	fields := make([]fileField, 0, len(files))
	for k := range files {
		mm := fileKey.FindStringSubmatch(k)
		if mm == nil {
			continue
		}
		index := -1
		if mm[2] != "" {
			index, _ = strconv.Atoi(mm[2])
		}
		fields = append(fields, fileField{key: k, slot: booking.Slot(mm[1]), index: index})
	}
	// Numeric order within a slot keeps the submitted sequence
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].slot != fields[j].slot {
			return fields[i].slot < fields[j].slot
		}
		return fields[i].index < fields[j].index
	})

	var docs []documentModel
	for _, f := range fields {
		k, slot := f.key, f.slot
		if !slices.Contains(booking.Slots, slot) {
			return nil, "Unknown document field " + k + ".", nil
		}
		for _, fh := range files[k] {
			if fh.Size > booking.MaxFileSize {
				return nil, "The file " + fh.Filename + " may not be greater than 2048 kilobytes.", nil
			}
			data, err := readUpload(fh)
			if err != nil {
				return nil, "", err
			}
			docs = append(docs, documentModel{
				Slot:     string(slot),
				FileName: fh.Filename,
				MIME:     fh.Header.Get("Content-Type"),
				Data:     data,
			})
		}
	}
	return docs, "", nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusNotFound, "NOT_FOUND", "Not found")
		return 0, false
	}
	return uint(id), true
}
