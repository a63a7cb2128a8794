package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/karulmca/ScurmBoard/internal/proxy"
)

const (
	// MaxImportSize caps one uploaded dump.
	MaxImportSize = 50 * 1024 * 1024

	importField = "file"
	importPath  = "/import"
)

type ImportHandler struct {
	proxy   *proxy.Proxy
	maxSize int64
}

func NewImportHandler(p *proxy.Proxy, maxSize int64) *ImportHandler {
	if maxSize <= 0 {
		maxSize = MaxImportSize
	}
	return &ImportHandler{proxy: p, maxSize: maxSize}
}

// Upload accepts one ADO dump (CSV/Excel/JSON) in the "file" field and
// forwards it to the backend importer as a new multipart request.
func (h *ImportHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile(importField)
	if err != nil || fh == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": `No file uploaded. Use field name "file".`,
		})
	}

	if fh.Size > h.maxSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error":  "File too large",
			"detail": fmt.Sprintf("%s is %d bytes; the limit is %d", fh.Filename, fh.Size, h.maxSize),
		})
	}

	return h.proxy.ForwardFile(c, importPath, importField, fh)
}
