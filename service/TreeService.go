package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bim-export/bim-export-service/client"
	"github.com/bim-export/bim-export-service/config"
	secctx "github.com/bim-export/bim-export-service/context"
	"github.com/bim-export/bim-export-service/exception"
	"github.com/bim-export/bim-export-service/view"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type TreeService interface {
	GetChildren(ctx secctx.SecurityContext, href string, projectId string) ([]view.TreeNode, error)
	GetProjects(ctx secctx.SecurityContext) ([]view.TreeNode, error)
}

func NewTreeService(apsClient client.ApsClient, manifestService ManifestService, cfg config.ApsConfig) TreeService {
	return &treeServiceImpl{
		apsClient:       apsClient,
		manifestService: manifestService,
		cfg:             cfg,
	}
}

type treeServiceImpl struct {
	apsClient       client.ApsClient
	manifestService ManifestService
	cfg             config.ApsConfig
}

// GetChildren materializes one level of the document hierarchy for the
// tree widget. Nothing is cached: every expansion resolves against the
// vendor again.
func (t treeServiceImpl) GetChildren(ctx secctx.SecurityContext, href string, projectId string) ([]view.TreeNode, error) {
	if href == "" || href == view.RootHref {
		return t.getRootNodes(ctx, projectId)
	}

	resourceType, resourceId, parentId := parseHref(href)
	switch resourceType {
	case view.ResourceTypeHubs:
		items, err := t.apsClient.GetHubProjects(ctx, resourceId)
		if err != nil {
			return nil, err
		}
		return MakeTree(items, true), nil
	case view.ResourceTypeProjects:
		items, err := t.apsClient.GetProjectTopFolders(ctx, parentId, resourceId)
		if err != nil {
			return nil, err
		}
		return MakeTree(items, true), nil
	case view.ResourceTypeFolders:
		folderProject := parentId
		if folderProject == "" {
			folderProject = projectId
		}
		items, err := t.searchFolderContents(ctx, folderProject, resourceId)
		if err != nil {
			return nil, err
		}
		return MakeTree(items, true), nil
	case view.ResourceTypeVersions:
		return t.getVersionViewables(ctx, parentId, resourceId)
	default:
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.UnknownResourceType,
			Message: exception.UnknownResourceTypeMsg,
			Params:  map[string]interface{}{"type": resourceType},
		}
	}
}

func (t treeServiceImpl) GetProjects(ctx secctx.SecurityContext) ([]view.TreeNode, error) {
	hubId := t.cfg.HubId
	if hubId == "" {
		hubs, err := t.apsClient.GetHubs(ctx)
		if err != nil {
			return nil, err
		}
		if len(hubs) == 0 {
			return []view.TreeNode{}, nil
		}
		hubId = hubs[0].Id
	}
	items, err := t.apsClient.GetHubProjects(ctx, hubId)
	if err != nil {
		return nil, err
	}
	return MakeTree(items, true), nil
}

func (t treeServiceImpl) getRootNodes(ctx secctx.SecurityContext, projectId string) ([]view.TreeNode, error) {
	// hub-scoped deployments skip the hub/project levels entirely and
	// open straight into the selected project's top folders
	if t.cfg.HubId != "" && projectId != "" {
		items, err := t.apsClient.GetProjectTopFolders(ctx, t.cfg.HubId, projectId)
		if err != nil {
			return nil, err
		}
		return MakeTree(items, true), nil
	}
	items, err := t.apsClient.GetHubs(ctx)
	if err != nil {
		return nil, err
	}
	return MakeTree(items, true), nil
}

// searchFolderContents runs every configured filter search and
// concatenates the result sets in configuration order. Searches run
// concurrently, bounded by the configured concurrency.
func (t treeServiceImpl) searchFolderContents(ctx secctx.SecurityContext, projectId string, folderId string) ([]view.DataItem, error) {
	results := make([][]view.DataItem, len(t.cfg.FolderFilters))
	var eg errgroup.Group
	eg.SetLimit(t.cfg.SearchConcurrency)
	for i, filter := range t.cfg.FolderFilters {
		i, filter := i, filter
		eg.Go(func() error {
			items, err := t.apsClient.SearchFolderContents(ctx, projectId, folderId, filter)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	merged := make([]view.DataItem, 0)
	for _, part := range results {
		merged = append(merged, part...)
	}
	return merged, nil
}

func (t treeServiceImpl) getVersionViewables(ctx secctx.SecurityContext, projectId string, versionId string) ([]view.TreeNode, error) {
	version, err := t.apsClient.GetVersion(ctx, projectId, versionId)
	if err != nil {
		return nil, err
	}
	body, err := t.apsClient.GetManifest(ctx, client.UrlSafeUrn(version.Id))
	if err != nil {
		return nil, err
	}
	var manifest view.Manifest
	if err := json.Unmarshal(body, &manifest); err != nil {
		return nil, errors.Wrap(err, "failed to decode derivative manifest")
	}
	viewables, err := t.manifestService.FlattenManifest(&manifest)
	if err != nil {
		// a broken manifest makes the version a dead leaf, not a tree failure
		if exception.IsCode(err, exception.MalformedManifest) {
			log.Warnf("Version %s has malformed manifest: %s", versionId, err.Error())
			return []view.TreeNode{}, nil
		}
		return nil, err
	}
	return makeViewableNodes(viewables), nil
}

// MakeTree converts raw vendor items into the uniform node shape. Every
// input item yields exactly one node, in input order.
func MakeTree(items []view.DataItem, canHaveChildren bool) []view.TreeNode {
	nodes := make([]view.TreeNode, 0, len(items))
	for _, item := range items {
		fileExt := item.Attributes.FileType
		if fileExt == "" && item.Attributes.Name != "" {
			fileNameParts := strings.Split(item.Attributes.Name, ".")
			if len(fileNameParts) > 1 {
				fileExt = fileNameParts[len(fileNameParts)-1]
			}
		}

		versionText := ""
		if item.Type == view.ResourceTypeVersions {
			versionText = fmt.Sprintf(" (v%d)", item.Attributes.VersionNumber)
		}

		text := item.Attributes.DisplayName
		if text == "" {
			text = item.Attributes.Name
		}

		fileExtType := ""
		if item.Attributes.Extension != nil {
			fileExtType = item.Attributes.Extension.Type
		}

		nodes = append(nodes, view.TreeNode{
			Href:         item.Links.Self.Href,
			Wipid:        item.Id,
			Storage:      storageId(item.Relationships),
			Data:         derivativesId(item.Relationships),
			Text:         text + versionText,
			FileName:     item.Attributes.Name,
			RootFileName: item.Attributes.Name,
			FileExtType:  fileExtType,
			FileType:     fileExt,
			Type:         item.Type,
			Children:     canHaveChildren,
		})
	}
	return nodes
}

func storageId(relationships *view.ItemRelationships) *string {
	if relationships == nil || relationships.Storage == nil {
		return nil
	}
	id := relationships.Storage.Data.Id
	return &id
}

func derivativesId(relationships *view.ItemRelationships) *string {
	if relationships == nil || relationships.Derivatives == nil {
		return nil
	}
	id := relationships.Derivatives.Data.Id
	return &id
}

func makeViewableNodes(viewables []view.ViewableRef) []view.TreeNode {
	nodes := make([]view.TreeNode, 0, len(viewables))
	for _, ref := range viewables {
		nodes = append(nodes, view.TreeNode{
			Text:       ref.DisplayName,
			Type:       view.ResourceTypeViewable,
			Children:   false,
			ViewableID: ref.ViewableID,
			Role:       ref.Role,
			PdfUrn:     ref.PdfUrn,
			MainUrn:    ref.MainUrn,
		})
	}
	return nodes
}

// parseHref pulls the resource type, resource id and grandparent id out
// of an opaque hierarchy href of the form .../<parent>/<type>/<id>.
func parseHref(href string) (string, string, string) {
	params := strings.Split(href, "/")
	if len(params) < 2 {
		return "", href, ""
	}
	resourceType := params[len(params)-2]
	resourceId := params[len(params)-1]
	parentId := ""
	if len(params) >= 3 {
		parentId = params[len(params)-3]
	}
	return resourceType, resourceId, parentId
}
