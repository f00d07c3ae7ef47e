package controller

import (
	"errors"
	"net/http"

	appcontext "github.com/SeakMengs/DocControl/internal/app_context"
	"github.com/SeakMengs/DocControl/internal/auth"
	"github.com/SeakMengs/DocControl/internal/middleware"
	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/internal/upload"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/SeakMengs/DocControl/pkg/sharepoint"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index      *IndexController
	User       *UserController
	Project    *ProjectController
	Document   *DocumentController
	SharePoint *SharePointController
	Department *DepartmentController
	Role       *RoleController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:      &IndexController{baseController: bc},
		User:       &UserController{baseController: bc},
		Project:    &ProjectController{baseController: bc},
		Document:   &DocumentController{baseController: bc},
		SharePoint: &SharePointController{baseController: bc},
		Department: &DepartmentController{baseController: bc},
		Role:       &RoleController{baseController: bc},
	}
}

var (
	ErrUserNotFound      = errors.New("user not found in context")
	ErrProjectIdRequired = errors.New("project ID is required")
	ErrProjectNotFound   = errors.New("project not found")
)

func (b *baseController) getAuthUser(ctx *gin.Context) (*auth.JWTPayload, error) {
	value, exists := ctx.Get(middleware.AUTH_USER_KEY)
	if !exists {
		return nil, ErrUserNotFound
	}

	payload, ok := value.(auth.JWTPayload)
	if !ok {
		return nil, ErrUserNotFound
	}

	return &payload, nil
}

// currentUser loads the authenticated user. On failure the response is already written.
func (b *baseController) currentUser(ctx *gin.Context) (*model.User, bool) {
	payload, err := b.getAuthUser(ctx)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(err), nil)
		return nil, false
	}

	user, err := b.app.Repository.User.GetById(ctx, nil, payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusUnauthorized, "Unauthorized", util.GenerateErrorMessages(ErrUserNotFound, "user"), nil)
			return nil, false
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to load user", util.GenerateErrorMessages(err), nil)
		return nil, false
	}

	return user, true
}

// userProject loads a project of the user's organization. On failure the response is already written.
func (b *baseController) userProject(ctx *gin.Context, projectId string) (*model.Project, *model.User, bool) {
	user, ok := b.currentUser(ctx)
	if !ok {
		return nil, nil, false
	}

	if projectId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Project id is required", util.GenerateErrorMessages(ErrProjectIdRequired, "projectId"), nil)
		return nil, nil, false
	}

	project, err := b.app.Repository.Project.GetByIdInOrganization(ctx, nil, projectId, user.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Project not found", util.GenerateErrorMessages(ErrProjectNotFound, "projectId"), nil)
			return nil, nil, false
		}
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to get project", util.GenerateErrorMessages(err), nil)
		return nil, nil, false
	}

	return project, user, true
}

// credentials opens the sealed client secret of the organization config.
func (b *baseController) credentials(cfg *model.OrgSharePointConfig) (sharepoint.Credentials, error) {
	clientSecret := cfg.ClientSecret
	if b.app.SecretBox != nil {
		opened, err := b.app.SecretBox.Open(cfg.ClientSecret)
		if err != nil {
			return sharepoint.Credentials{}, err
		}
		clientSecret = opened
	}

	return sharepoint.Credentials{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: clientSecret,
	}, nil
}

// toDestinations keeps configuration order. An empty library falls back to the organization default.
func toDestinations(configs []model.ProjectSharePointConfig, defaultLibrary string) []upload.Destination {
	destinations := make([]upload.Destination, 0, len(configs))
	for _, c := range configs {
		library := c.DocumentLibrary
		if library == "" {
			library = defaultLibrary
		}
		destinations = append(destinations, upload.Destination{
			ID:                    c.ID,
			Name:                  c.Name,
			SiteURL:               c.SiteURL,
			DocumentLibrary:       library,
			FolderPath:            c.FolderPath,
			ExcelSheetPath:        c.ExcelSheetPath,
			IsExcelLoggingEnabled: c.IsExcelLoggingEnabled,
		})
	}
	return destinations
}
