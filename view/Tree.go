package view

const (
	ResourceTypeHubs     = "hubs"
	ResourceTypeProjects = "projects"
	ResourceTypeFolders  = "folders"
	ResourceTypeItems    = "items"
	ResourceTypeVersions = "versions"
	ResourceTypeViewable = "viewable"
)

// RootHref is the sentinel the tree widget sends for the top level.
const RootHref = "#"

// TreeNode is the uniform node shape the tree widget consumes. Hubs,
// projects, folders, versions and viewables all map onto it; only the
// field subset relevant to the node type is populated.
type TreeNode struct {
	Href         string  `json:"href,omitempty"`
	Wipid        string  `json:"wipid,omitempty"`
	Storage      *string `json:"storage"`
	Data         *string `json:"data"`
	Text         string  `json:"text"`
	FileName     string  `json:"fileName,omitempty"`
	RootFileName string  `json:"rootFileName,omitempty"`
	FileExtType  string  `json:"fileExtType,omitempty"`
	FileType     string  `json:"fileType,omitempty"`
	Type         string  `json:"type"`
	Children     bool    `json:"children"`

	// viewable leaves only
	ViewableID string `json:"viewableID,omitempty"`
	Role       string `json:"role,omitempty"`
	PdfUrn     string `json:"pdfUrn,omitempty"`
	MainUrn    string `json:"mainUrn,omitempty"`
}
