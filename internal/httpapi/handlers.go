package httpapi

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/realtime-chat/internal/apperr"
	"github.com/fathima-sithara/realtime-chat/internal/blob"
	"github.com/fathima-sithara/realtime-chat/internal/models"
)

// POST /api/messages/history {"id": "<counterpart user id>"}
func (s *Server) directHistory(c *fiber.Ctx) error {
	var body struct {
		ID string `json:"id"`
	}
	if err := c.BodyParser(&body); err != nil || body.ID == "" {
		return s.fail(c, fmt.Errorf("%w: counterpart id is required", apperr.ErrValidation))
	}
	msgs, err := s.history.DirectHistory(c.UserContext(), authedUser(c), body.ID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// GET /api/channels/:channelId/messages
func (s *Server) channelHistory(c *fiber.Ctx) error {
	msgs, err := s.history.ChannelHistory(c.UserContext(), c.Params("channelId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// GET /api/contacts/dm — recency-ordered DM counterpart list.
func (s *Server) dmContacts(c *fiber.Ctx) error {
	contacts, err := s.store.DirectContacts(c.UserContext(), authedUser(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"contacts": contacts})
}

// POST /api/contacts/search {"searchTerm": "..."}
func (s *Server) searchContacts(c *fiber.Ctx) error {
	var body struct {
		SearchTerm *string `json:"searchTerm"`
	}
	if err := c.BodyParser(&body); err != nil || body.SearchTerm == nil {
		return s.fail(c, fmt.Errorf("%w: search term is required", apperr.ErrValidation))
	}
	users, err := s.store.SearchUsers(c.UserContext(), authedUser(c), *body.SearchTerm)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"contacts": users})
}

// GET /api/contacts/all — label/value pairs for the channel-member picker.
func (s *Server) allContacts(c *fiber.Ctx) error {
	users, err := s.store.AllUsers(c.UserContext(), authedUser(c))
	if err != nil {
		return s.fail(c, err)
	}
	type option struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	out := make([]option, 0, len(users))
	for _, u := range users {
		label := u.Email
		if u.FirstName != "" {
			label = u.FirstName + " " + u.LastName
		}
		out = append(out, option{Label: label, Value: u.ID})
	}
	return c.JSON(fiber.Map{"contacts": out})
}

// GET /api/contacts/:id/presence — advisory online flag from Redis. Reads
// false when no presence backend is configured.
func (s *Server) contactPresence(c *fiber.Ctx) error {
	userID := c.Params("id")
	online, err := s.presence.IsOnline(c.UserContext(), userID)
	if err != nil {
		return s.fail(c, fmt.Errorf("%w: presence read: %v", apperr.ErrTransientIO, err))
	}
	return c.JSON(fiber.Map{"userId": userID, "online": online})
}

// POST /api/channels {"name": "...", "members": ["..."]}
func (s *Server) createChannel(c *fiber.Ctx) error {
	var body struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := c.BodyParser(&body); err != nil {
		return s.fail(c, fmt.Errorf("%w: invalid body", apperr.ErrValidation))
	}
	ch, err := s.store.CreateChannel(c.UserContext(), body.Name, authedUser(c), body.Members)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"channel": ch})
}

// GET /api/channels — the caller's channels, most recently active first.
func (s *Server) listChannels(c *fiber.Ctx) error {
	channels, err := s.store.ChannelsForUser(c.UserContext(), authedUser(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"channels": channels})
}

// PUT /api/profile — profile fields are mutable by the owning user only;
// the id comes from the token, never the body.
func (s *Server) updateProfile(c *fiber.Ctx) error {
	var body struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Image     string `json:"image"`
		Color     int    `json:"color"`
	}
	if err := c.BodyParser(&body); err != nil {
		return s.fail(c, fmt.Errorf("%w: invalid body", apperr.ErrValidation))
	}
	u, err := s.store.UpdateProfile(c.UserContext(), &models.User{
		ID:        authedUser(c),
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Image:     body.Image,
		Color:     body.Color,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"user": u})
}

// POST /api/files/upload (multipart "file") → {"filePath": "..."}
func (s *Server) uploadFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return s.fail(c, fmt.Errorf("%w: file is required", apperr.ErrValidation))
	}
	f, err := fileHeader.Open()
	if err != nil {
		return s.fail(c, fmt.Errorf("%w: open upload: %v", apperr.ErrTransientIO, err))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return s.fail(c, fmt.Errorf("%w: read upload: %v", apperr.ErrTransientIO, err))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key, err := s.pipeline.Upload(c.UserContext(), fileHeader.Filename, contentType, data, nil)
	if err != nil {
		return s.fail(c, err)
	}

	if strings.HasPrefix(contentType, "image/") {
		if thumb, terr := blob.Thumbnail(data); terr == nil {
			_, _ = s.pipeline.Upload(c.UserContext(), thumbName(fileHeader.Filename), "image/jpeg", thumb, nil)
		}
	}

	return c.JSON(fiber.Map{"filePath": key})
}

func thumbName(filename string) string {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "_thumb.jpg"
}

// GET /api/files/download?path=<filePath>
func (s *Server) downloadFile(c *fiber.Ctx) error {
	key := c.Query("path")
	if key == "" {
		return s.fail(c, fmt.Errorf("%w: path is required", apperr.ErrValidation))
	}
	data, err := s.pipeline.Download(c.UserContext(), key, nil)
	if err != nil {
		return s.fail(c, err)
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)})
	c.Set(fiber.HeaderContentDisposition, disposition)
	return c.Send(data)
}

// GET /api/files/url?path=<filePath> — presigned URL when the blob backend
// supports it.
func (s *Server) fileURL(c *fiber.Ctx) error {
	key := c.Query("path")
	if key == "" {
		return s.fail(c, fmt.Errorf("%w: path is required", apperr.ErrValidation))
	}
	if s.presigner == nil {
		return s.fail(c, fmt.Errorf("%w: direct urls unavailable for this backend", apperr.ErrNotFound))
	}
	url, err := s.presigner.PresignGet(c.UserContext(), key, s.presignTTL)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}
