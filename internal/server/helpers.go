package server

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"
	"time"
	"unicode"

	"minifeed/internal/middleware"
	"minifeed/internal/models"
	"minifeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const maxPageLimit = 200

// respondAppError maps err to its status and logs storage failures.
func respondAppError(c *fiber.Ctx, err error) error {
	status := models.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "postId" -> "post ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// encodeCursor renders a feed position as an opaque URL-safe token.
func encodeCursor(cur models.FeedCursor) string {
	raw := strconv.FormatInt(cur.CreatedAt.UnixNano(), 10) + ":" + strconv.FormatUint(uint64(cur.ID), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(token string) (*models.FeedCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, models.NewValidationError("Invalid cursor")
	}
	nanos, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, models.NewValidationError("Invalid cursor")
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, models.NewValidationError("Invalid cursor")
	}
	i, err := strconv.ParseUint(id, 10, 64)
	if err != nil || i == 0 {
		return nil, models.NewValidationError("Invalid cursor")
	}
	return &models.FeedCursor{CreatedAt: time.Unix(0, n).UTC(), ID: uint(i)}, nil
}

// parseFeedQuery reads ?limit= and ?before=. No limit means the whole feed.
func parseFeedQuery(c *fiber.Ctx) (service.FeedQuery, error) {
	var q service.FeedQuery
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, models.NewValidationError("limit must be a non-negative integer")
		}
		q.Limit = min(n, maxPageLimit)
	}
	if token := c.Query("before"); token != "" {
		cur, err := decodeCursor(token)
		if err != nil {
			return q, err
		}
		q.Before = cur
	}
	return q, nil
}

// nextCursor is set only when a limited page came back full.
func nextCursor(q service.FeedQuery, posts []*models.Post) string {
	if q.Limit == 0 || len(posts) < q.Limit {
		return ""
	}
	return encodeCursor(models.CursorOf(posts[len(posts)-1]))
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// storeUpload saves the named multipart file and returns its media ref, or ""
// when the field is absent.
func (s *Server) storeUpload(c *fiber.Ctx, field string) (string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", models.NewValidationError("Invalid multipart form")
	}
	files := form.File[field]
	if len(files) == 0 || files[0].Size == 0 {
		return "", nil
	}
	if s.media == nil {
		return "", models.NewValidationError("Uploads are disabled")
	}
	return s.putFile(c, files[0])
}

// formValue returns the first value of a multipart field and whether it was sent.
func formValue(c *fiber.Ctx, field string) (string, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", false
	}
	vals, ok := form.Value[field]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (s *Server) putFile(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer f.Close()

	ref, err := s.media.Put(c.UserContext(), fh.Filename, fh.Header.Get(fiber.HeaderContentType), f)
	if err != nil {
		if models.ErrorCode(err) != "" {
			return "", err
		}
		return "", models.NewInternalError(err)
	}
	return ref, nil
}
