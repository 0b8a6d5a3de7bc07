package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
	"github.com/aman-zulfiqar/token-sweeper/internal/flags"
)

const flagOpTimeout = 3 * time.Second

// RequireFlag gates a route family behind a switch. A missing flag means
// enabled. Store errors fail open so a Redis outage never takes quotes down.
func (h *Handlers) RequireFlag(key string) echo.MiddlewareFunc {
	route := flags.RouteSwitches[key]
	if route == "" {
		route = key
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if h.Flags == nil {
				return next(c)
			}

			ctx, cancel := h.withTimeout(c.Request().Context(), constants.FlagLookupTimeout)
			on, err := h.Flags.Enabled(ctx, key)
			cancel()
			if err != nil {
				h.logger().WithError(err).WithField("flag", key).Warn("flag lookup failed, serving route")
				return next(c)
			}
			if !on {
				return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: route + " temporarily disabled"})
			}
			return next(c)
		}
	}
}

func (h *Handlers) flagsUnavailable(c echo.Context) error {
	return h.err(c, http.StatusServiceUnavailable, "flags store not configured", nil)
}

func (h *Handlers) invalidFlagKey(c echo.Context) error {
	return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
}

// FlagsList returns every stored flag.
func (h *Handlers) FlagsList(c echo.Context) error {
	if h.Flags == nil {
		return h.flagsUnavailable(c)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		h.logger().WithError(err).Error("list flags")
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsUpsert creates or overwrites a flag from a JSON body.
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	if h.Flags == nil {
		return h.flagsUnavailable(c)
	}

	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if flags.ValidateKey(req.Key) != nil {
		return h.invalidFlagKey(c)
	}
	return h.writeFlag(c, req.Key, req.Value)
}

// FlagsUpdate sets the value of the flag named in the path.
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	if h.Flags == nil {
		return h.flagsUnavailable(c)
	}

	key := c.Param("key")
	if flags.ValidateKey(key) != nil {
		return h.invalidFlagKey(c)
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	return h.writeFlag(c, key, req.Value)
}

func (h *Handlers) writeFlag(c echo.Context, key string, value bool) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), flagOpTimeout)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, value)
	if err != nil {
		h.logger().WithError(err).WithField("flag", key).Error("write flag")
		return h.err(c, http.StatusInternalServerError, "failed to write flag", nil)
	}
	h.logger().WithFields(logrus.Fields{"flag": key, "value": value}).Info("flag updated")
	return c.JSON(http.StatusOK, out)
}

// FlagsGet returns one flag or 404.
func (h *Handlers) FlagsGet(c echo.Context) error {
	if h.Flags == nil {
		return h.flagsUnavailable(c)
	}

	key := c.Param("key")
	if flags.ValidateKey(key) != nil {
		return h.invalidFlagKey(c)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), flagOpTimeout)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if errors.Is(err, flags.ErrNotFound) {
		return h.err(c, http.StatusNotFound, "flag not found", nil)
	}
	if err != nil {
		h.logger().WithError(err).WithField("flag", key).Error("get flag")
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsDelete removes a flag. Deleting a route switch re-enables the route.
func (h *Handlers) FlagsDelete(c echo.Context) error {
	if h.Flags == nil {
		return h.flagsUnavailable(c)
	}

	key := c.Param("key")
	if flags.ValidateKey(key) != nil {
		return h.invalidFlagKey(c)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), flagOpTimeout)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		h.logger().WithError(err).WithField("flag", key).Error("delete flag")
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
