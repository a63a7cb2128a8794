package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/karulmca/ScurmBoard/internal/configstore"
	"github.com/karulmca/ScurmBoard/internal/scrumconfig"
)

// ConfigHandler serves the config service API. Error bodies use FastAPI's
// {detail} shape so clients treat it like the backend it stands in for.
type ConfigHandler struct {
	store configstore.Store
}

func NewConfigHandler(store configstore.Store) *ConfigHandler {
	return &ConfigHandler{store: store}
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

func scopeFromQuery(c *fiber.Ctx) (scrumconfig.Scope, error) {
	return scrumconfig.ParseScope(c.Query("org_id"))
}

// GetConfig returns the effective config for ?org_id=, or the global one.
func (h *ConfigHandler) GetConfig(c *fiber.Ctx) error {
	scope, err := scopeFromQuery(c)
	if err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	values, err := h.store.Effective(c.UserContext(), scope)
	if err != nil {
		slog.Error("Config lookup failed", "scope", scope.String(), "error", err)
		return detail(c, fiber.StatusInternalServerError, "Failed to load config")
	}
	return c.JSON(values)
}

// GetConfigKey returns the effective value of one key for ?org_id=, or the
// global scope.
func (h *ConfigHandler) GetConfigKey(c *fiber.Ctx) error {
	key := c.Params("key")
	if !scrumconfig.Known(key) {
		return detail(c, fiber.StatusNotFound, "Unknown config key: "+key)
	}
	scope, err := scopeFromQuery(c)
	if err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	values, err := h.store.Effective(c.UserContext(), scope)
	if err != nil {
		slog.Error("Config lookup failed", "key", key, "scope", scope.String(), "error", err)
		return detail(c, fiber.StatusInternalServerError, "Failed to load config")
	}
	value, ok := values[key]
	if !ok {
		value = scrumconfig.Defaults()[key]
	}
	return c.JSON(fiber.Map{
		"config_key": key,
		"org_id":     scope.OrgIDPtr(),
		"value":      value,
	})
}

// GetDefaults returns the compiled-in defaults without any override.
func (h *ConfigHandler) GetDefaults(c *fiber.Ctx) error {
	return c.JSON(scrumconfig.Defaults())
}

type upsertConfigRequest struct {
	OrgID     *int64          `json:"org_id"`
	ConfigKey string          `json:"config_key"`
	Value     json.RawMessage `json:"value"`
}

// UpsertConfig creates or replaces one override. A null org_id writes the
// global override.
func (h *ConfigHandler) UpsertConfig(c *fiber.Ctx) error {
	var req upsertConfigRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	return h.upsert(c, req)
}

// UpsertConfigKey is UpsertConfig with the key taken from the path.
func (h *ConfigHandler) UpsertConfigKey(c *fiber.Ctx) error {
	var req upsertConfigRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "Invalid request body")
	}
	req.ConfigKey = c.Params("key")
	return h.upsert(c, req)
}

func (h *ConfigHandler) upsert(c *fiber.Ctx, req upsertConfigRequest) error {
	if req.ConfigKey == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "config_key is required")
	}
	if len(req.Value) == 0 {
		return detail(c, fiber.StatusUnprocessableEntity, "value is required")
	}

	scope := scrumconfig.OrgScope(req.OrgID)
	err := h.store.Upsert(c.UserContext(), req.ConfigKey, req.Value, scope)
	if errors.Is(err, configstore.ErrUnknownKey) {
		return detail(c, fiber.StatusBadRequest, "Unknown config key: "+req.ConfigKey)
	}
	if err != nil {
		slog.Error("Config upsert failed", "key", req.ConfigKey, "scope", scope.String(), "error", err)
		return detail(c, fiber.StatusInternalServerError, "Failed to save config")
	}

	slog.Info("Config updated", "key", req.ConfigKey, "scope", scope.String())
	return c.JSON(fiber.Map{
		"status":     "ok",
		"config_key": req.ConfigKey,
		"value":      req.Value,
	})
}

// ResetConfig deletes the override of :key in ?org_id= (or the global one).
func (h *ConfigHandler) ResetConfig(c *fiber.Ctx) error {
	key := c.Params("key")
	scope, err := scopeFromQuery(c)
	if err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := h.store.Reset(c.UserContext(), key, scope); err != nil {
		slog.Error("Config reset failed", "key", key, "scope", scope.String(), "error", err)
		return detail(c, fiber.StatusInternalServerError, "Failed to reset config")
	}

	slog.Info("Config reset", "key", key, "scope", scope.String())
	return c.SendStatus(fiber.StatusNoContent)
}
