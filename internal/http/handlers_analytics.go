package http

import (
	"net/http"

	"finboard/internal/analytics"
	applog "finboard/internal/log"
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q, err := ParseRecordQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	report, err := s.analytics.Report(r.Context(), q)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to compute report",
			applog.FieldError, err,
			applog.FieldProject, q.Project.String())
		InternalServerError("failed to compute report").Write(w)
		return
	}
	NewJSONResponse().Body(report).Write(w)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	q, err := ParseRecordQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	insights, err := s.analytics.Insights(r.Context(), q)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to compute insights",
			applog.FieldError, err,
			applog.FieldProject, q.Project.String())
		InternalServerError("failed to compute insights").Write(w)
		return
	}
	if insights == nil {
		insights = []analytics.Insight{}
	}
	NewJSONResponse().Body(insights).Write(w)
}
