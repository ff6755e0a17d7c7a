package service

import (
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/bim-export/bim-export-service/client"
	"github.com/bim-export/bim-export-service/config"
	secctx "github.com/bim-export/bim-export-service/context"
	"github.com/bim-export/bim-export-service/exception"
	"github.com/bim-export/bim-export-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeApsClient overrides only the calls a test cares about; anything
// unexpected panics through the embedded nil interface.
type fakeApsClient struct {
	client.ApsClient
	getHubsFn          func() ([]view.DataItem, error)
	getHubProjectsFn   func(hubId string) ([]view.DataItem, error)
	getTopFoldersFn    func(hubId string, projectId string) ([]view.DataItem, error)
	searchFn           func(projectId string, folderId string, filter config.FolderFilterConfig) ([]view.DataItem, error)
	getVersionFn       func(projectId string, versionId string) (*view.DataItem, error)
	getManifestFn      func(urn string) (json.RawMessage, error)
	getSignedCookiesFn func(mainUrn string, derivativeUrn string) (*client.SignedCookiesResponse, error)
	fetchSignedFileFn  func(access *view.SignedAccess) (io.ReadCloser, error)
}

func (f *fakeApsClient) GetHubs(_ secctx.SecurityContext) ([]view.DataItem, error) {
	return f.getHubsFn()
}

func (f *fakeApsClient) GetHubProjects(_ secctx.SecurityContext, hubId string) ([]view.DataItem, error) {
	return f.getHubProjectsFn(hubId)
}

func (f *fakeApsClient) GetProjectTopFolders(_ secctx.SecurityContext, hubId string, projectId string) ([]view.DataItem, error) {
	return f.getTopFoldersFn(hubId, projectId)
}

func (f *fakeApsClient) SearchFolderContents(_ secctx.SecurityContext, projectId string, folderId string, filter config.FolderFilterConfig) ([]view.DataItem, error) {
	return f.searchFn(projectId, folderId, filter)
}

func (f *fakeApsClient) GetVersion(_ secctx.SecurityContext, projectId string, versionId string) (*view.DataItem, error) {
	return f.getVersionFn(projectId, versionId)
}

func (f *fakeApsClient) GetManifest(_ secctx.SecurityContext, urn string) (json.RawMessage, error) {
	return f.getManifestFn(urn)
}

func (f *fakeApsClient) GetSignedCookies(_ secctx.SecurityContext, mainUrn string, derivativeUrn string) (*client.SignedCookiesResponse, error) {
	return f.getSignedCookiesFn(mainUrn, derivativeUrn)
}

func (f *fakeApsClient) FetchSignedFile(access *view.SignedAccess) (io.ReadCloser, error) {
	return f.fetchSignedFileFn(access)
}

func testApsConfig() config.ApsConfig {
	return config.ApsConfig{
		PageLimit:           100,
		SearchConcurrency:   5,
		DownloadConcurrency: 5,
		FolderFilters: []config.FolderFilterConfig{
			{FileType: "rvt", ExtensionType: "versions:autodesk.bim360:C4RModel"},
			{FileType: "dwg"},
		},
	}
}

func testCtx() secctx.SecurityContext {
	return secctx.CreateFromToken("test-token")
}

func folderItem(id string, name string) view.DataItem {
	return view.DataItem{
		Id:         id,
		Type:       view.ResourceTypeItems,
		Attributes: view.DataItemAttributes{Name: name, DisplayName: name},
		Links:      view.ItemLinks{Self: view.Link{Href: "https://vendor.example/data/v1/projects/p1/items/" + id}},
	}
}

func TestMakeTree(t *testing.T) {
	items := []view.DataItem{
		{
			Id:   "urn:item:1",
			Type: view.ResourceTypeItems,
			Attributes: view.DataItemAttributes{
				Name:        "plan.rvt",
				DisplayName: "Ground Floor Plan",
				FileType:    "rvt",
				Extension:   &view.ItemExtension{Type: "items:autodesk.bim360:File"},
			},
			Relationships: &view.ItemRelationships{
				Storage: &view.RelationshipRef{Data: view.RelationshipData{Id: "urn:storage:1"}},
			},
			Links: view.ItemLinks{Self: view.Link{Href: "https://vendor.example/items/1"}},
		},
		{
			Id:   "urn:version:2",
			Type: view.ResourceTypeVersions,
			Attributes: view.DataItemAttributes{
				Name:          "site.dwg",
				VersionNumber: 7,
			},
		},
		{
			Id:         "urn:folder:3",
			Type:       view.ResourceTypeFolders,
			Attributes: view.DataItemAttributes{DisplayName: "Drawings"},
		},
	}

	nodes := MakeTree(items, true)
	require.Len(t, nodes, 3)

	assert.Equal(t, "Ground Floor Plan", nodes[0].Text)
	assert.Equal(t, "rvt", nodes[0].FileType)
	assert.Equal(t, "items:autodesk.bim360:File", nodes[0].FileExtType)
	require.NotNil(t, nodes[0].Storage)
	assert.Equal(t, "urn:storage:1", *nodes[0].Storage)
	assert.Nil(t, nodes[0].Data)
	assert.True(t, nodes[0].Children)

	// version nodes carry the version number and derive the file type
	// from the name when the vendor omits it
	assert.Equal(t, "site.dwg (v7)", nodes[1].Text)
	assert.Equal(t, "dwg", nodes[1].FileType)
	assert.Nil(t, nodes[1].Storage)

	assert.Equal(t, "Drawings", nodes[2].Text)
	assert.Equal(t, "", nodes[2].FileType)
}

func TestMakeTreePreservesOrder(t *testing.T) {
	items := make([]view.DataItem, 0)
	for i := 0; i < 10; i++ {
		items = append(items, folderItem(fmt.Sprintf("id-%d", i), fmt.Sprintf("file-%d.rvt", i)))
	}
	nodes := MakeTree(items, true)
	require.Len(t, nodes, 10)
	for i, node := range nodes {
		assert.Equal(t, fmt.Sprintf("id-%d", i), node.Wipid)
	}
}

func TestGetChildrenMergesFilterResultsInConfigOrder(t *testing.T) {
	aps := &fakeApsClient{
		searchFn: func(projectId string, folderId string, filter config.FolderFilterConfig) ([]view.DataItem, error) {
			assert.Equal(t, "p1", projectId)
			assert.Equal(t, "f1", folderId)
			if filter.FileType == "rvt" {
				return []view.DataItem{
					folderItem("rvt-1", "a.rvt"),
					folderItem("rvt-2", "b.rvt"),
					folderItem("rvt-3", "c.rvt"),
				}, nil
			}
			return []view.DataItem{
				folderItem("dwg-1", "a.dwg"),
				folderItem("dwg-2", "b.dwg"),
			}, nil
		},
	}
	tree := NewTreeService(aps, NewManifestService(), testApsConfig())

	nodes, err := tree.GetChildren(testCtx(), "https://vendor.example/data/v1/projects/p1/folders/f1", "")
	require.NoError(t, err)
	require.Len(t, nodes, 5)
	assert.Equal(t, "rvt-1", nodes[0].Wipid)
	assert.Equal(t, "rvt-2", nodes[1].Wipid)
	assert.Equal(t, "rvt-3", nodes[2].Wipid)
	assert.Equal(t, "dwg-1", nodes[3].Wipid)
	assert.Equal(t, "dwg-2", nodes[4].Wipid)
}

func TestGetChildrenUnknownResourceType(t *testing.T) {
	tree := NewTreeService(&fakeApsClient{}, NewManifestService(), testApsConfig())

	_, err := tree.GetChildren(testCtx(), "https://vendor.example/data/v1/widgets/w1", "")
	require.Error(t, err)
	assert.True(t, exception.IsCode(err, exception.UnknownResourceType))
}

func TestGetChildrenRootListsHubs(t *testing.T) {
	aps := &fakeApsClient{
		getHubsFn: func() ([]view.DataItem, error) {
			return []view.DataItem{{Id: "hub-1", Type: view.ResourceTypeHubs, Attributes: view.DataItemAttributes{Name: "Main Hub"}}}, nil
		},
	}
	tree := NewTreeService(aps, NewManifestService(), testApsConfig())

	nodes, err := tree.GetChildren(testCtx(), view.RootHref, "")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "hub-1", nodes[0].Wipid)
}

func TestGetChildrenScopedRootOpensProjectFolders(t *testing.T) {
	cfg := testApsConfig()
	cfg.HubId = "hub-1"
	aps := &fakeApsClient{
		getTopFoldersFn: func(hubId string, projectId string) ([]view.DataItem, error) {
			assert.Equal(t, "hub-1", hubId)
			assert.Equal(t, "p1", projectId)
			return []view.DataItem{{Id: "folder-1", Type: view.ResourceTypeFolders, Attributes: view.DataItemAttributes{DisplayName: "Project Files"}}}, nil
		},
	}
	tree := NewTreeService(aps, NewManifestService(), cfg)

	nodes, err := tree.GetChildren(testCtx(), view.RootHref, "p1")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "folder-1", nodes[0].Wipid)
}

func TestGetChildrenVersionExpandsToViewables(t *testing.T) {
	manifest := view.Manifest{
		Urn: "urn:main",
		Derivatives: []view.ManifestDerivative{
			{
				Children: []view.ManifestChild{
					{
						Name: "Sheet A1", Role: "2d", ViewableID: "sheet-a1",
						Children: []view.ManifestChild{{Role: "pdf-page", Urn: "urn:derivative/Sheet A1.pdf"}},
					},
				},
			},
		},
	}
	manifestBody, err := json.Marshal(manifest)
	require.NoError(t, err)

	aps := &fakeApsClient{
		getVersionFn: func(projectId string, versionId string) (*view.DataItem, error) {
			assert.Equal(t, "p1", projectId)
			assert.Equal(t, "v1", versionId)
			return &view.DataItem{Id: "urn:version:raw"}, nil
		},
		getManifestFn: func(urn string) (json.RawMessage, error) {
			assert.Equal(t, client.UrlSafeUrn("urn:version:raw"), urn)
			return manifestBody, nil
		},
	}
	tree := NewTreeService(aps, NewManifestService(), testApsConfig())

	nodes, err := tree.GetChildren(testCtx(), "https://vendor.example/data/v1/projects/p1/versions/v1", "")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, view.ResourceTypeViewable, nodes[0].Type)
	assert.Equal(t, "Sheet A1 (2D)", nodes[0].Text)
	assert.Equal(t, "urn:derivative/Sheet A1.pdf", nodes[0].PdfUrn)
	assert.Equal(t, "urn:main", nodes[0].MainUrn)
	assert.False(t, nodes[0].Children)
}

func TestGetChildrenMalformedManifestYieldsDeadLeaf(t *testing.T) {
	manifestBody, err := json.Marshal(view.Manifest{
		Urn: "urn:main",
		Derivatives: []view.ManifestDerivative{
			{Children: []view.ManifestChild{{Name: "Sheet A1", Role: "2d"}}},
		},
	})
	require.NoError(t, err)

	aps := &fakeApsClient{
		getVersionFn: func(projectId string, versionId string) (*view.DataItem, error) {
			return &view.DataItem{Id: "urn:version:raw"}, nil
		},
		getManifestFn: func(urn string) (json.RawMessage, error) {
			return manifestBody, nil
		},
	}
	tree := NewTreeService(aps, NewManifestService(), testApsConfig())

	nodes, err := tree.GetChildren(testCtx(), "https://vendor.example/data/v1/projects/p1/versions/v1", "")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestGetProjectsFallsBackToFirstHub(t *testing.T) {
	aps := &fakeApsClient{
		getHubsFn: func() ([]view.DataItem, error) {
			return []view.DataItem{{Id: "hub-1"}, {Id: "hub-2"}}, nil
		},
		getHubProjectsFn: func(hubId string) ([]view.DataItem, error) {
			assert.Equal(t, "hub-1", hubId)
			return []view.DataItem{{Id: "p1", Type: view.ResourceTypeProjects, Attributes: view.DataItemAttributes{Name: "Tower"}}}, nil
		},
	}
	tree := NewTreeService(aps, NewManifestService(), testApsConfig())

	nodes, err := tree.GetProjects(testCtx())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "p1", nodes[0].Wipid)
}
