package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"anistream/internal/apperr"
)

// fail writes the outward error shape for a pipeline failure. Raw upstream
// text only ever reaches the caller inside an upstream-unavailable message;
// parse failures are reported generically and logged with full context.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrInvalidIdentifier),
		errors.Is(err, apperr.ErrInvalidParameter):
		return detail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return detail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrExtraction):
		// Reachable embed, undecodable payload: no stream currently obtainable.
		h.log.Error("extraction failure", "path", c.Path(), "err", err)
		return detail(c, fiber.StatusNotFound, "no stream currently obtainable")
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return detail(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, apperr.ErrParse):
		h.log.Error("upstream layout drift", "path", c.Path(), "err", err)
		return detail(c, fiber.StatusInternalServerError, "upstream page structure changed")
	default:
		h.log.Error("unhandled pipeline error", "path", c.Path(), "err", err)
		return detail(c, fiber.StatusInternalServerError, "internal error")
	}
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

// pageParam parses the page query parameter; absent defaults to 1, anything
// that is not a positive integer is an unprocessable request, written here.
func pageParam(c *fiber.Ctx) (int, bool) {
	raw := c.Query("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		_ = detail(c, fiber.StatusUnprocessableEntity, "page must be a positive integer")
		return 0, false
	}
	return page, true
}

// Search handles GET /search?q=...&page=N.
func (h *Handler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "query parameter q is required")
	}
	page, ok := pageParam(c)
	if !ok {
		return nil
	}

	result, err := h.svc.Search(c.UserContext(), query, page)
	if err != nil {
		return h.fail(c, err)
	}
	if len(result.Results) == 0 {
		return detail(c, fiber.StatusNotFound, "No results found for "+strconv.Quote(query))
	}
	return c.JSON(result)
}

// Popular handles GET /popular?page=N.
func (h *Handler) Popular(c *fiber.Ctx) error {
	page, ok := pageParam(c)
	if !ok {
		return nil
	}

	result, err := h.svc.Popular(c.UserContext(), page)
	if err != nil {
		return h.fail(c, err)
	}
	if len(result.Results) == 0 {
		return detail(c, fiber.StatusNotFound, "No popular anime found")
	}
	return c.JSON(result)
}

// Latest handles GET /latest?page=N.
func (h *Handler) Latest(c *fiber.Ctx) error {
	page, ok := pageParam(c)
	if !ok {
		return nil
	}

	result, err := h.svc.Latest(c.UserContext(), page)
	if err != nil {
		return h.fail(c, err)
	}
	if len(result.Results) == 0 {
		return detail(c, fiber.StatusNotFound, "No latest anime found")
	}
	return c.JSON(result)
}

// Info handles GET /info/:anime_id.
func (h *Handler) Info(c *fiber.Ctx) error {
	result, err := h.svc.Detail(c.UserContext(), c.Params("anime_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// Episodes handles GET /episodes/:anime_id.
func (h *Handler) Episodes(c *fiber.Ctx) error {
	result, err := h.svc.Episodes(c.UserContext(), c.Params("anime_id"))
	if err != nil {
		return h.fail(c, err)
	}
	if len(result.Episodes) == 0 {
		return detail(c, fiber.StatusNotFound, "No episodes found")
	}
	return c.JSON(result)
}

// Servers handles GET /servers/:episode_id.
func (h *Handler) Servers(c *fiber.Ctx) error {
	result, err := h.svc.Servers(c.UserContext(), c.Params("episode_id"))
	if err != nil {
		return h.fail(c, err)
	}

	total := 0
	for _, list := range result.Servers {
		total += len(list)
	}
	if total == 0 {
		return detail(c, fiber.StatusNotFound, "No servers found")
	}
	return c.JSON(result)
}

// Watch handles GET /watch/:episode_id?server=HD-1&type=sub.
func (h *Handler) Watch(c *fiber.Ctx) error {
	result, err := h.svc.Stream(
		c.UserContext(),
		c.Params("episode_id"),
		c.Query("server", "HD-1"),
		c.Query("type", "sub"),
	)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}
