package view

// Vendor hierarchy records (Data Management API, JSON:API shaped).
// Read-only: the service only projects these, never mutates them.

type DataItem struct {
	Id            string             `json:"id"`
	Type          string             `json:"type"`
	Attributes    DataItemAttributes `json:"attributes"`
	Relationships *ItemRelationships `json:"relationships,omitempty"`
	Links         ItemLinks          `json:"links"`
}

type DataItemAttributes struct {
	Name          string         `json:"name,omitempty"`
	DisplayName   string         `json:"displayName,omitempty"`
	FileType      string         `json:"fileType,omitempty"`
	VersionNumber int            `json:"versionNumber,omitempty"`
	Extension     *ItemExtension `json:"extension,omitempty"`
}

type ItemExtension struct {
	Type string `json:"type,omitempty"`
}

type ItemRelationships struct {
	Storage     *RelationshipRef `json:"storage,omitempty"`
	Derivatives *RelationshipRef `json:"derivatives,omitempty"`
}

type RelationshipRef struct {
	Data RelationshipData `json:"data"`
}

type RelationshipData struct {
	Id string `json:"id"`
}

type ItemLinks struct {
	Self Link `json:"self"`
}

type Link struct {
	Href string `json:"href"`
}

// DataPage is one page of a folder search response. Links.Next names the
// following page; a nil Next means the listing is exhausted.
type DataPage struct {
	Data  []DataItem `json:"data"`
	Links PageLinks  `json:"links"`
}

type PageLinks struct {
	Next *Link `json:"next,omitempty"`
}

type SingleItemResponse struct {
	Data DataItem `json:"data"`
}
