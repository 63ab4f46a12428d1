package handlers

import (
	"net/http"

	"routeline/internal/polyline"

	"github.com/gin-gonic/gin"
	"github.com/sourcegraph/conc/iter"
)

const maxBatchItems = 1000

type DecodeRequest struct {
	Encoded   string `json:"encoded"`
	Precision int    `json:"precision"` // 0 means the server default
}

type DecodeResponse struct {
	Points []polyline.Coordinate `json:"points"`
	Count  int                   `json:"count"`
}

type EncodeRequest struct {
	Points    []polyline.Coordinate `json:"points"`
	Precision int                   `json:"precision"`
}

type EncodeResponse struct {
	Encoded string `json:"encoded"`
}

type BatchDecodeRequest struct {
	Items []DecodeRequest `json:"items" binding:"required"`
}

type BatchDecodeResult struct {
	Points []polyline.Coordinate `json:"points,omitempty"`
	Error  *APIError             `json:"error,omitempty"`
}

// PolylineHandler exposes the polyline codec over HTTP
type PolylineHandler struct {
	defaultPrecision int
}

func NewPolylineHandler(defaultPrecision int) *PolylineHandler {
	if defaultPrecision == 0 {
		defaultPrecision = polyline.DefaultPrecision
	}
	return &PolylineHandler{defaultPrecision: defaultPrecision}
}

// SetupPolylineHandlers registers the codec endpoints
func SetupPolylineHandlers(router *gin.RouterGroup, h *PolylineHandler) {
	group := router.Group("/polyline")

	group.POST("/decode", h.Decode)
	group.POST("/decode/batch", h.DecodeBatch)
	group.POST("/encode", h.Encode)
}

func (h *PolylineHandler) codec(precision int) (polyline.Codec, error) {
	if precision == 0 {
		precision = h.defaultPrecision
	}
	return polyline.NewCodec(precision)
}

func (h *PolylineHandler) decode(req DecodeRequest) ([]polyline.Coordinate, error) {
	codec, err := h.codec(req.Precision)
	if err != nil {
		return nil, err
	}
	return codec.Decode(req.Encoded)
}

// Decode handles POST /api/polyline/decode
func (h *PolylineHandler) Decode(c *gin.Context) {
	var req DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	points, err := h.decode(req)
	if err != nil {
		writeCodecError(c, err)
		return
	}

	c.JSON(http.StatusOK, DecodeResponse{Points: points, Count: len(points)})
}

// DecodeBatch handles POST /api/polyline/decode/batch. Items are decoded
// concurrently; results keep the request order and fail independently.
func (h *PolylineHandler) DecodeBatch(c *gin.Context) {
	var req BatchDecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if len(req.Items) > maxBatchItems {
		badRequest(c, "too many items")
		return
	}

	results := iter.Map(req.Items, func(item *DecodeRequest) BatchDecodeResult {
		points, err := h.decode(*item)
		if err != nil {
			apiErr, ok := codecError(err)
			if !ok {
				apiErr = APIError{Code: "internal_error", Message: err.Error()}
			}
			return BatchDecodeResult{Error: &apiErr}
		}
		return BatchDecodeResult{Points: points}
	})

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Encode handles POST /api/polyline/encode
func (h *PolylineHandler) Encode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	codec, err := h.codec(req.Precision)
	if err != nil {
		writeCodecError(c, err)
		return
	}

	encoded, err := codec.Encode(req.Points)
	if err != nil {
		writeCodecError(c, err)
		return
	}

	c.JSON(http.StatusOK, EncodeResponse{Encoded: encoded})
}
