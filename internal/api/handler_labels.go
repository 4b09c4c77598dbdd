package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"locker-tab-backend/internal/label"
	"locker-tab-backend/internal/parse"
)

const maxLabelSize = 1024

// GetBoxLabel renders the QR label of a box as PNG.
func (h *Handler) GetBoxLabel(c *gin.Context) {
	box, err := strconv.Atoi(c.Param("box"))
	if err != nil || box < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid box number"})
		return
	}

	size := label.DefaultSize
	if raw := c.Query("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size <= 0 || size > maxLabelSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
			return
		}
	}

	png, err := label.PNG(parse.Payload{Cabinet: c.Query("cabinet"), Box: box}, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
