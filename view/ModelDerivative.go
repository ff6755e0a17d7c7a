package view

// Derivative manifest tree as returned by the translation service.

const (
	ManifestRole2D      = "2d"
	ManifestRolePdfPage = "pdf-page"
)

type Manifest struct {
	Urn         string               `json:"urn"`
	Derivatives []ManifestDerivative `json:"derivatives"`
}

type ManifestDerivative struct {
	Name     string          `json:"name,omitempty"`
	Children []ManifestChild `json:"children,omitempty"`
}

type ManifestChild struct {
	Name       string          `json:"name,omitempty"`
	Role       string          `json:"role,omitempty"`
	Urn        string          `json:"urn,omitempty"`
	ViewableID string          `json:"viewableID,omitempty"`
	Children   []ManifestChild `json:"children,omitempty"`
}

// ViewableRef pairs a downloadable pdf derivative with its owning
// top-level document urn. Both identifiers are required for signing.
type ViewableRef struct {
	PdfUrn      string `json:"pdfUrn"`
	MainUrn     string `json:"mainUrn"`
	Name        string `json:"name,omitempty"`
	ViewableID  string `json:"viewableID,omitempty"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// TranslationJob mirrors the translate request body of the vendor API.
type TranslationJob struct {
	Input  TranslationInput  `json:"input"`
	Output TranslationOutput `json:"output"`
}

type TranslationInput struct {
	Urn           string `json:"urn"`
	RootFilename  string `json:"rootFilename,omitempty"`
	CompressedUrn bool   `json:"compressedUrn,omitempty"`
}

type TranslationOutput struct {
	Destination TranslationDestination `json:"destination"`
	Formats     []TranslationFormat    `json:"formats"`
}

type TranslationDestination struct {
	Region string `json:"region"`
}

type TranslationFormat struct {
	Type     string                 `json:"type"`
	Views    []string               `json:"views,omitempty"`
	Advanced map[string]interface{} `json:"advanced,omitempty"`
}

const CompositeDesignExtensionType = "versions:autodesk.a360:CompositeDesign"

// ExportReq is the public translate request accepted by this service.
type ExportReq struct {
	Urn          string                 `json:"urn"`
	Format       string                 `json:"format"`
	RootFileName string                 `json:"rootFileName,omitempty"`
	FileExtType  string                 `json:"fileExtType,omitempty"`
	Advanced     map[string]interface{} `json:"advanced,omitempty"`
}
