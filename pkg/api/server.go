// Package api provides the REST API server for chartconv
package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/chartconv/pkg/converter"
)

// @title chartconv API
// @version 1.0
// @description API for converting rhythm game charts between osu!mania, StepMania and Quaver
// @host localhost:8080
// @BasePath /api/v1

// maxUploadSize caps uploaded chart files
const maxUploadSize = 32 << 20

// requestIDHeader carries the id of a request in both directions
const requestIDHeader = "X-Request-ID"

// Server serves conversions backed by a converter
type Server struct {
	conv *converter.Converter
}

// NewServer creates a server for the codecs registered in conv
func NewServer(conv *converter.Converter) *Server {
	return &Server{conv: conv}
}

// Router returns the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), requestID())
	r.MaxMultipartMemory = maxUploadSize

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", s.listFormats)
		v1.POST("/convert/:pair", s.handleConvert)
		v1.POST("/inspect", s.handleInspect)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// Handler returns the router wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", requestIDHeader},
	}).Handler(s.Router())
}

// StartServer starts the API server on the specified port
func StartServer(port int, conv *converter.Converter) error {
	return http.ListenAndServe(fmt.Sprintf(":%d", port), NewServer(conv).Handler())
}

// requestID tags every request with an id, reusing the one the client sent
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "chartconv",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the registered chart formats and conversion pairs
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func (s *Server) listFormats(c *gin.Context) {
	var formats, pairs []string
	for _, f := range s.conv.Formats() {
		formats = append(formats, string(f))
	}
	for _, pair := range s.conv.Pairs() {
		pairs = append(pairs, converter.PairName(pair[0], pair[1]))
	}
	c.JSON(http.StatusOK, gin.H{
		"formats":     formats,
		"pairs":       pairs,
		"conversions": s.conv.SupportedConversions(),
	})
}

// handleConvert godoc
// @Summary Convert a chart
// @Description Upload a chart and receive it in another format, e.g. osu2sm, sm2qua or qua2midi
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param pair path string true "Conversion pair such as osu2sm"
// @Param file formData file true "Chart file to convert"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/{pair} [post]
func (s *Server) handleConvert(c *gin.Context) {
	from, to, ok := converter.ParsePair(c.Param("pair"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported conversion"})
		return
	}

	data, filename, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := s.conv.Convert(data, from, to)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	outputName := strings.TrimSuffix(filename, filepath.Ext(filename))
	if outputName == "" {
		outputName = "converted"
	}
	outputName += to.Extension()

	contentType := "text/plain; charset=utf-8"
	if to == converter.FormatMIDI {
		contentType = "audio/midi"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName))
	c.Data(http.StatusOK, contentType, result)
}

// handleInspect godoc
// @Summary Inspect a chart
// @Description Upload a chart and receive a summary of its metadata, timing and notes
// @Tags info
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Chart file to inspect"
// @Param format query string false "Source format, detected when omitted"
// @Success 200 {object} converter.Summary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/inspect [post]
func (s *Server) handleInspect(c *gin.Context) {
	data, filename, ok := readUpload(c)
	if !ok {
		return
	}

	format := converter.ParseFormat(c.Query("format"))
	if format == converter.FormatUnknown {
		format = converter.DetectFormat(filename)
	}
	if format == converter.FormatUnknown {
		format = converter.DetectFormatFromContent(data)
	}

	chart, err := s.conv.Parse(data, format)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, converter.Summarize(chart, format))
}

// readUpload reads the "file" form field, answering the request itself on failure
func readUpload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}
