// Package routers
package routers

import (
	"errors"
	"net/http"

	"healthai/internal/ctx"
	"healthai/internal/handlers/assistant"
	"healthai/internal/sections"
	"healthai/internal/shared"

	"github.com/labstack/echo/v4"
)

type SectionRouter struct {
	ah *assistant.AssistantHandler
}

func RegisterSectionRoutes(e *echo.Group, ah *assistant.AssistantHandler) {
	sr := &SectionRouter{ah: ah}

	v1 := e.Group("/v1")
	v1.GET("/sections", sr.ListSections)
	v1.GET("/sections/:section", sr.GetSection)
	v1.POST("/sections/:section/ask", sr.Ask)
}

type sectionView struct {
	sections.Section
	HasInput bool `json:"has_input"`
}

func newSectionView(s sections.Section) sectionView {
	return sectionView{Section: s, HasInput: s.HasInput()}
}

type SectionList struct {
	Data []sectionView `json:"data"`
}

func (sr *SectionRouter) ListSections(c echo.Context) error {
	all := sections.All()
	out := SectionList{Data: make([]sectionView, 0, len(all))}
	for _, s := range all {
		out.Data = append(out.Data, newSectionView(s))
	}
	return c.JSON(http.StatusOK, out)
}

func (sr *SectionRouter) GetSection(cc echo.Context) error {
	s, err := sections.Lookup(cc.Param("section"))
	if err != nil {
		return sendError(cc, err)
	}
	return cc.JSON(http.StatusOK, newSectionView(s))
}

type askRequest struct {
	Input string `json:"input"`
}

func (sr *SectionRouter) Ask(cc echo.Context) error {
	c := cc.(*ctx.Context)

	var req askRequest
	if err := c.Bind(&req); err != nil {
		return sendError(c, errors.Join(shared.ErrInvalidRequest, err))
	}

	c.LogValues.Section = c.Param("section")
	answer, err := sr.ah.Ask(c.Request().Context(), assistant.AskInput{
		Section:   c.Param("section"),
		Input:     req.Input,
		RequestID: c.Reqid,
		Log:       c.Log,
	})
	if err != nil {
		return sendError(c, err)
	}

	c.LogValues.Outcome = answer.Outcome
	c.LogValues.Cached = answer.Cached
	return c.JSON(http.StatusOK, answer)
}

func sendError(c echo.Context, err error) error {
	if cc, ok := c.(*ctx.Context); ok {
		cc.LogValues.AddError(err)
	}
	rerr := shared.AsRequestError(err)
	return c.JSON(rerr.StatusCode, shared.NewErrorBody(rerr))
}
