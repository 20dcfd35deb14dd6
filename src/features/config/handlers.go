package config

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the config feature.
type Handler struct {
	configManager *Manager
}

// NewHandler creates a new handler for the config feature.
func NewHandler(configManager *Manager) *Handler {
	return &Handler{
		configManager: configManager,
	}
}

// GetConfig returns the current configuration in the requested format.
func (h *Handler) GetConfig(c *fiber.Ctx) error {
	slog.Debug("GetConfig handler called", "format", c.Query("fmt", "json"))
	format := c.Query("fmt", "json")

	switch format {
	case "yaml":
		c.Set("Content-Type", "text/yaml")
		return c.SendString(h.configManager.GetYAML())
	case "json":
		c.Set("Content-Type", "application/json")
		return c.SendString(h.configManager.GetJSON())
	default:
		return c.Status(fiber.StatusBadRequest).SendString("Invalid format. Use 'json' or 'yaml'")
	}
}

// UpdateConfig replaces the configuration from a JSON body and persists it.
// Server settings are preserved; they make no sense to change at runtime.
func (h *Handler) UpdateConfig(c *fiber.Ctx) error {
	slog.Info("Configuration update requested")

	currentConfig := h.configManager.Get()

	newConfig := new(Config)
	if err := c.BodyParser(newConfig); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	applyDefaults(newConfig)
	newConfig.Server = currentConfig.Server

	// A redacted token coming back from GetConfig means "keep the stored one"
	if newConfig.Telegram.Token == "<redacted>" {
		newConfig.Telegram.Token = currentConfig.Telegram.Token
	}
	if newConfig.Abs.APIToken == "<redacted>" {
		newConfig.Abs.APIToken = currentConfig.Abs.APIToken
	}
	for name, p := range newConfig.Providers {
		if p.Secret != nil && *p.Secret == "<redacted>" {
			if cur, ok := currentConfig.Providers[name]; ok {
				p.Secret = cur.Secret
				newConfig.Providers[name] = p
			}
		}
	}

	h.configManager.Update(newConfig)
	slog.Info("Configuration updated in memory")

	if err := h.configManager.Save("config.yaml"); err != nil {
		slog.Warn("failed to save config to file (this is normal in containerized environments)", "error", err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
