package service

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bim-export/bim-export-service/exception"
	"github.com/bim-export/bim-export-service/view"
)

type ManifestService interface {
	FlattenManifest(manifest *view.Manifest) ([]view.ViewableRef, error)
}

func NewManifestService() ManifestService {
	return &manifestServiceImpl{}
}

type manifestServiceImpl struct {
}

// FlattenManifest projects the nested derivative tree onto the flat list
// of downloadable 2d viewables. Only the first top-level derivative's
// direct children are considered; every kept child must own a pdf-page
// descendant, which is the artifact that actually gets downloaded.
func (m manifestServiceImpl) FlattenManifest(manifest *view.Manifest) ([]view.ViewableRef, error) {
	viewables := make([]view.ViewableRef, 0)
	if manifest == nil || len(manifest.Derivatives) == 0 {
		return viewables, nil
	}
	for _, item := range manifest.Derivatives[0].Children {
		if item.Role != view.ManifestRole2D {
			continue
		}
		pdf := findChildWithRole(item.Children, view.ManifestRolePdfPage)
		if pdf == nil {
			return nil, &exception.CustomError{
				Status:  http.StatusInternalServerError,
				Code:    exception.MalformedManifest,
				Message: exception.MalformedManifestMsg,
				Params:  map[string]interface{}{"reason": fmt.Sprintf("2d viewable '%s' has no pdf-page child", item.Name)},
			}
		}
		viewables = append(viewables, view.ViewableRef{
			PdfUrn:      pdf.Urn,
			MainUrn:     manifest.Urn,
			Name:        item.Name,
			ViewableID:  item.ViewableID,
			Role:        item.Role,
			DisplayName: fmt.Sprintf("%s (%s)", item.Name, strings.ToUpper(item.Role)),
		})
	}
	return viewables, nil
}

func findChildWithRole(children []view.ManifestChild, role string) *view.ManifestChild {
	for i := range children {
		if children[i].Role == role {
			return &children[i]
		}
	}
	return nil
}
