package project

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainproject "github.com/alanyang/construction-hub/internal/domain/project"
)

// Register mounts the project REST endpoints on the given router group.
func Register(rg *gin.RouterGroup, ep *Endpoint) {
	rg.GET("", listProjects(ep))
	rg.GET("/:id", getProject(ep))
	rg.POST("", createProject(ep))
	rg.PUT("", updateProject(ep))
	rg.PUT("/:id", updateProject(ep))
	rg.DELETE("/:id", deleteProject(ep))
}

func listProjects(ep *Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := ep.ListProjects(c.Request.Context())
		render(c, out, err)
	}
}

func getProject(ep *Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := ep.GetProjectByID(c.Request.Context(), c.Param("id"))
		render(c, out, err)
	}
}

func createProject(ep *Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, errs := bindProject(c)
		if len(errs) == 0 {
			MergeErrors(errs, p.Validate())
		}
		out, err := ep.CreateProject(c.Request.Context(), p, errs)
		render(c, out, err)
	}
}

func updateProject(ep *Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, errs := bindProject(c)
		if pathID := strings.TrimSpace(c.Param("id")); pathID != "" && len(errs) == 0 {
			switch p.ProjectID {
			case "":
				p.ProjectID = pathID
			case pathID:
			default:
				errs["project_id"] = errors.New("must match the id in the path")
			}
		}
		if len(errs) == 0 {
			MergeErrors(errs, p.ValidateForUpdate())
		}
		out, err := ep.UpdateProject(c.Request.Context(), p, errs)
		render(c, out, err)
	}
}

func deleteProject(ep *Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := ep.DeleteProject(c.Request.Context(), c.Param("id"))
		render(c, out, err)
	}
}

// bindProject decodes the request body. A malformed body is recorded under
// the "body" key of the returned accumulator.
func bindProject(c *gin.Context) (domainproject.Project, validation.Errors) {
	errs := validation.Errors{}
	var p domainproject.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		errs["body"] = err
		return p, errs
	}
	p.Normalize()
	return p, errs
}

// MergeErrors copies field errors from a validation result into dst. A
// non-field error is recorded under "body".
func MergeErrors(dst validation.Errors, err error) {
	if err == nil {
		return
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for k, v := range fieldErrs {
			dst[k] = v
		}
		return
	}
	dst["body"] = err
}

func render(c *gin.Context, out Outcome, err error) {
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "project request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch out.Kind {
	case KindCreated:
		c.Header("Location", out.Location)
		c.JSON(out.Status(), out.Body)
	case KindBadRequest:
		c.JSON(out.Status(), gin.H{"errors": out.Errors})
	default:
		if out.Body == nil {
			c.Status(out.Status())
			return
		}
		c.JSON(out.Status(), out.Body)
	}
}
