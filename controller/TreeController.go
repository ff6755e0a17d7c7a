package controller

import (
	"net/http"

	secctx "github.com/bim-export/bim-export-service/context"
	"github.com/bim-export/bim-export-service/exception"
	"github.com/bim-export/bim-export-service/service"
	"github.com/bim-export/bim-export-service/utils"
	"github.com/bim-export/bim-export-service/view"
)

type TreeController interface {
	GetTreeNode(w http.ResponseWriter, r *http.Request)
	GetProjects(w http.ResponseWriter, r *http.Request)
}

func NewTreeController(treeService service.TreeService) TreeController {
	return &treeControllerImpl{treeService: treeService}
}

type treeControllerImpl struct {
	treeService service.TreeService
}

func (c treeControllerImpl) GetTreeNode(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.Create(r)
	if ctx.GetUserToken() == "" {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusUnauthorized,
			Code:    exception.MissingAccessToken,
			Message: exception.MissingAccessTokenMsg,
		})
		return
	}

	href := r.URL.Query().Get("href")
	if href == "" {
		href = view.RootHref
	}
	nodes, err := c.treeService.GetChildren(ctx, href, r.URL.Query().Get("projectId"))
	if err != nil {
		utils.RespondWithError(w, "Failed to get tree node children", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, nodes)
}

func (c treeControllerImpl) GetProjects(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.Create(r)
	if ctx.GetUserToken() == "" {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusUnauthorized,
			Code:    exception.MissingAccessToken,
			Message: exception.MissingAccessTokenMsg,
		})
		return
	}

	nodes, err := c.treeService.GetProjects(ctx)
	if err != nil {
		utils.RespondWithError(w, "Failed to list projects", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, nodes)
}
