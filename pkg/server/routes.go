package server

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c9s/chartdesk/pkg/annotation"
	"github.com/c9s/chartdesk/pkg/blob/s3blob"
	"github.com/c9s/chartdesk/pkg/chart"
	"github.com/c9s/chartdesk/pkg/compare"
	"github.com/c9s/chartdesk/pkg/datasource"
	"github.com/c9s/chartdesk/pkg/datasource/csvsource"
	"github.com/c9s/chartdesk/pkg/interact"
	"github.com/c9s/chartdesk/pkg/session"
	"github.com/c9s/chartdesk/pkg/types"
)

const maxOverlayBytes = 1 << 20

var errUploadNotConfigured = errors.New("export upload is not configured")

func (s *Server) newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := s.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	comparisons := r.Group("/api/compare")
	{
		comparisons.GET("", s.compare)

		comparisons.GET("/annotations", s.comparisonAnnotations(s.listAnnotations))
		comparisons.POST("/annotations", s.comparisonAnnotations(s.addAnnotation))
		comparisons.DELETE("/annotations", s.comparisonAnnotations(s.removeAllAnnotations))
		comparisons.PATCH("/annotations/:id", s.comparisonAnnotations(s.updateAnnotation))
		comparisons.DELETE("/annotations/:id", s.comparisonAnnotations(s.removeAnnotation))
	}

	sessions := r.Group("/api/sessions/:symbol")
	{
		sessions.GET("", s.withSession(s.getSession))
		sessions.PATCH("", s.withSession(s.patchSession))

		sessions.GET("/annotations", s.sessionAnnotations(s.listAnnotations))
		sessions.POST("/annotations", s.sessionAnnotations(s.addAnnotation))
		sessions.DELETE("/annotations", s.sessionAnnotations(s.removeAllAnnotations))
		sessions.PATCH("/annotations/:id", s.sessionAnnotations(s.updateAnnotation))
		sessions.DELETE("/annotations/:id", s.sessionAnnotations(s.removeAnnotation))

		sessions.PUT("/overlay", s.withSession(s.putOverlay))
		sessions.DELETE("/overlay", s.withSession(s.deleteOverlay))

		sessions.GET("/export/:format", s.withSession(s.export))
	}

	return r
}

func (s *Server) withSession(handler func(c *gin.Context, sess *session.Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.Sessions.Get(c.Request.Context(), c.Param("symbol"))
		if err != nil {
			abortWithError(c, err)
			return
		}

		handler(c, sess)
	}
}

func (s *Server) sessionAnnotations(handler func(c *gin.Context, store *annotation.Store)) gin.HandlerFunc {
	return s.withSession(func(c *gin.Context, sess *session.Session) {
		handler(c, sess.Store())
	})
}

func (s *Server) withComparison(handler func(c *gin.Context, cs *session.ComparisonSession)) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := parseComparisonQuery(c)
		if err != nil {
			abortWithError(c, err)
			return
		}

		cs, err := s.Sessions.CompareSession(c.Request.Context(), q.symbols, q.timeframe, q.dateRange)
		if err != nil {
			abortWithError(c, err)
			return
		}

		handler(c, cs)
	}
}

func (s *Server) comparisonAnnotations(handler func(c *gin.Context, store *annotation.Store)) gin.HandlerFunc {
	return s.withComparison(func(c *gin.Context, cs *session.ComparisonSession) {
		handler(c, cs.Store())
	})
}

// statusOf maps the domain errors onto http status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, annotation.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, annotation.ErrDuplicateID):
		return http.StatusConflict

	case errors.Is(err, annotation.ErrUnknownField),
		errors.Is(err, types.ErrUnknownAnnotationType),
		errors.Is(err, types.ErrMissingField),
		errors.Is(err, interact.ErrInvalidText),
		errors.Is(err, csvsource.ErrInvalidOverlay),
		errors.Is(err, compare.ErrTooManySeries),
		errors.Is(err, compare.ErrDuplicateSymbol),
		errors.Is(err, datasource.ErrEmptySymbol),
		errors.Is(err, datasource.ErrInvalidTimeframe),
		errors.Is(err, session.ErrInvalidRange),
		errors.Is(err, errInvalidComparisonRange),
		errors.Is(err, chart.ErrUnsupportedFormat),
		errors.Is(err, chart.ErrCSVRequiresComparison):
		return http.StatusBadRequest

	case errors.Is(err, errUploadNotConfigured):
		return http.StatusNotImplemented
	}

	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Errorf("%s %s failed", c.Request.Method, c.Request.URL.Path)
	}

	payload := gin.H{"error": err.Error()}

	var overlayErr *csvsource.OverlayError
	if errors.As(err, &overlayErr) {
		var rows []string
		for _, rowErr := range overlayErr.Errors() {
			rows = append(rows, rowErr.Error())
		}
		payload["rows"] = rows
	}

	c.AbortWithStatusJSON(status, payload)
}

func (s *Server) getSession(c *gin.Context, sess *session.Session) {
	c.JSON(http.StatusOK, gin.H{
		"state":  sess.State(),
		"domain": sess.Domain(),
		"points": sess.Series().Len(),
	})
}

type sessionPatch struct {
	Timeframe   types.Timeframe   `json:"timeframe"`
	Range       *types.DateRange  `json:"range"`
	DisplayUnit types.DisplayUnit `json:"displayUnit"`
	Zoom        string            `json:"zoom"`
}

func (s *Server) patchSession(c *gin.Context, sess *session.Session) {
	var patch sessionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case patch.Range != nil:
		err = sess.SetRange(ctx, *patch.Range)
	case patch.Timeframe != "":
		err = sess.SetTimeframe(ctx, patch.Timeframe)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	if patch.DisplayUnit != "" {
		if err := sess.SetDisplayUnit(patch.DisplayUnit); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	switch patch.Zoom {
	case "":
	case "in":
		sess.ZoomIn()
	case "out":
		sess.ZoomOut()
	case "reset":
		sess.ResetZoom()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "zoom must be one of in, out, reset"})
		return
	}

	s.getSession(c, sess)
}

func (s *Server) listAnnotations(c *gin.Context, store *annotation.Store) {
	c.JSON(http.StatusOK, store.List())
}

func (s *Server) addAnnotation(c *gin.Context, store *annotation.Store) {
	var a types.Annotation
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if a.Type != types.AnnotationPercentage {
		text, err := interact.ValidateText(a.Type, a.Text)
		if err != nil {
			abortWithError(c, err)
			return
		}
		a.Text = text
	}

	added, err := store.Add(a)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, added)
}

func (s *Server) updateAnnotation(c *gin.Context, store *annotation.Store) {
	var patch annotation.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if raw, ok := patch["text"]; ok {
		existing, found := store.Get(id)
		if !found {
			abortWithError(c, errors.Wrapf(annotation.ErrNotFound, "%s", id))
			return
		}

		str, _ := raw.(string)
		text, err := interact.ValidateText(existing.Type, str)
		if err != nil {
			abortWithError(c, err)
			return
		}
		patch["text"] = text
	}

	updated, err := store.Update(id, patch)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) removeAnnotation(c *gin.Context, store *annotation.Store) {
	if err := store.Remove(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) removeAllAnnotations(c *gin.Context, store *annotation.Store) {
	store.RemoveAll()
	c.Status(http.StatusNoContent)
}

func (s *Server) putOverlay(c *gin.Context, sess *session.Session) {
	name := c.DefaultQuery("name", "overlay")
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxOverlayBytes)

	overlay, err := sess.ApplyOverlay(name, body)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overlay)
}

func (s *Server) deleteOverlay(c *gin.Context, sess *session.Session) {
	sess.ClearOverlay()
	c.Status(http.StatusNoContent)
}

func (s *Server) export(c *gin.Context, sess *session.Session) {
	format, err := chart.ParseFormat(c.Param("format"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	data, err := sess.Export(format)
	if err != nil {
		abortWithError(c, err)
		return
	}

	s.respondExport(c, sess.Symbol(), format, data)
}

func (s *Server) respondExport(c *gin.Context, name string, format chart.Format, data []byte) {
	if c.Query("upload") != "" {
		if s.Uploader == nil {
			abortWithError(c, errUploadNotConfigured)
			return
		}

		key := s3blob.ObjectKey(name, time.Now(), format.Extension())
		if err := s.Uploader.Put(c.Request.Context(), key, bytes.NewReader(data), format.ContentType()); err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"key": key, "bytes": len(data)})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+format.Extension()+`"`)
	c.Data(http.StatusOK, format.ContentType(), data)
}

var errInvalidComparisonRange = errors.New("from and to must be given together as YYYY-MM-DD")

type comparisonQuery struct {
	symbols   []string
	timeframe types.Timeframe
	dateRange *types.DateRange
}

// parseComparisonQuery reads symbols, timeframe and the optional from/to
// custom range. A range switches the timeframe to custom.
func parseComparisonQuery(c *gin.Context) (comparisonQuery, error) {
	var q comparisonQuery
	for _, symbol := range strings.Split(c.Query("symbols"), ",") {
		if symbol = strings.TrimSpace(symbol); symbol != "" {
			q.symbols = append(q.symbols, strings.ToUpper(symbol))
		}
	}

	if len(q.symbols) == 0 {
		return q, errors.Wrap(datasource.ErrEmptySymbol, "symbols is required")
	}

	q.timeframe = types.Timeframe(c.DefaultQuery("timeframe", string(types.Timeframe1Y)))

	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		return q, nil
	}

	if from == "" || to == "" {
		return q, errInvalidComparisonRange
	}

	fromTime, err := time.Parse(types.DateLayout, from)
	if err != nil {
		return q, errors.Wrapf(errInvalidComparisonRange, "from %q", from)
	}

	toTime, err := time.Parse(types.DateLayout, to)
	if err != nil {
		return q, errors.Wrapf(errInvalidComparisonRange, "to %q", to)
	}

	if !fromTime.Before(toTime) {
		return q, errors.Wrapf(session.ErrInvalidRange, "%s~%s", from, to)
	}

	q.timeframe = types.TimeframeCustom
	q.dateRange = &types.DateRange{From: fromTime, To: toTime}
	return q, nil
}

func (s *Server) compare(c *gin.Context) {
	q, err := parseComparisonQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	cs, err := s.Sessions.CompareSession(c.Request.Context(), q.symbols, q.timeframe, q.dateRange)
	if err != nil {
		abortWithError(c, err)
		return
	}

	comparison := cs.Comparison()

	formatName := c.DefaultQuery("format", "json")
	if formatName == "json" {
		c.JSON(http.StatusOK, gin.H{
			"key":         cs.Key(),
			"symbols":     comparison.Table.Symbols(),
			"missing":     comparison.Missing,
			"rows":        comparison.Table.Rows(),
			"annotations": cs.Store().List(),
		})
		return
	}

	format, err := chart.ParseFormat(formatName)
	if err != nil {
		abortWithError(c, err)
		return
	}

	data, err := cs.Export(format)
	if err != nil {
		abortWithError(c, err)
		return
	}

	s.respondExport(c, strings.Join(q.symbols, "-"), format, data)
}
